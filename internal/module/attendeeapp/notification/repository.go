package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

// NotificationRepository is the fire-and-forget side channel. Callers treat
// a failure here as loggable, never as a reason to roll back a confirmed
// registration.
type NotificationRepository interface {
	SendConfirmation(ctx context.Context, msg ConfirmationMessage) error
	SendWaitlistOffer(ctx context.Context, msg WaitlistOfferMessage) error
}

type notificationRepository struct {
	baseURL string
	apiKey  string
	logger  *logrus.Logger
	hc      *http.Client
}

func NewNotificationRepository(baseURL string, apiKey string, logger *logrus.Logger, hc *http.Client) NotificationRepository {
	return &notificationRepository{
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
		hc:      hc,
	}
}

func (r *notificationRepository) post(ctx context.Context, path string, payload interface{}) error {
	reqBuff, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s%s", r.baseURL, path)

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBuff))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while sending notification")
	}

	hr.Header.Add("Content-Type", "application/json")
	hr.Header.Add("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while sending notification")
	}
	defer hresp.Body.Close()

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		err := fmt.Errorf("notifier responded with status %d", hresp.StatusCode)
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while sending notification")
	}

	return nil
}

// SendConfirmation implements NotificationRepository.
func (r *notificationRepository) SendConfirmation(ctx context.Context, msg ConfirmationMessage) error {
	return r.post(ctx, "/v1/notifications/registration-confirmation", msg)
}

// SendWaitlistOffer implements NotificationRepository.
func (r *notificationRepository) SendWaitlistOffer(ctx context.Context, msg WaitlistOfferMessage) error {
	return r.post(ctx, "/v1/notifications/waitlist-offer", msg)
}
