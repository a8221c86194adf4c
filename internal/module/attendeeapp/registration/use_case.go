package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/internal/module/attendeeapp/notification"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/pricing"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/ticket"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/waitlist"
	"github.com/eventhive/eh-registration/internal/pkg/session"
	"github.com/eventhive/eh-registration/internal/pkg/util"
	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/gctasks"
	"github.com/eventhive/eh-registration/pkg/pubsub"
	"github.com/eventhive/eh-registration/pkg/status"
)

type RegistrationUseCase interface {
	CreateRegistration(ctx context.Context, req CreateRegistrationRequest) (CreateRegistrationResponse, error)
	GetRegistration(ctx context.Context, ID string) (RegistrationResponse, error)
	GetManyRegistration(ctx context.Context, req GetManyRegistrationRequest) (GetManyRegistrationResponse, error)
	OnPaymentNotification(ctx context.Context, e PaymentNotificationEvent) error
	CancelRegistration(ctx context.Context, req CancelRegistrationRequest) error
	OnExpireRegistration(ctx context.Context, e ExpireRegistrationEvent) error
	ConvertWaitlistEntry(ctx context.Context, req ConvertWaitlistEntryRequest) (ConvertWaitlistEntryResponse, error)
	ProcessWaitlist(ctx context.Context, eventID string, ticketTypeID string) error
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error)
}

type registrationUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	baseURL                string
	expireQueueID          string
	holdExpiration         time.Duration
	waitlistOfferSpan      time.Duration
	maxGroupSize           int64
	ticketTypeRepository   ticket.TicketTypeRepository
	discountCodeRepository pricing.DiscountCodeRepository
	registrationRepository RegistrationRepository
	waitlistRepository     waitlist.WaitlistRepository
	notificationRepository notification.NotificationRepository
	publisher              pubsub.Publisher
	cloudTask              gctasks.Client
}

type RegistrationUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	BaseURL                string
	ExpireQueueID          string
	HoldExpiration         time.Duration
	WaitlistOfferSpan      time.Duration
	MaxGroupSize           int64
	TicketTypeRepository   ticket.TicketTypeRepository
	DiscountCodeRepository pricing.DiscountCodeRepository
	RegistrationRepository RegistrationRepository
	WaitlistRepository     waitlist.WaitlistRepository
	NotificationRepository notification.NotificationRepository
	Publisher              pubsub.Publisher
	CloudTask              gctasks.Client
}

func NewRegistrationUseCase(props RegistrationUseCaseProperty) RegistrationUseCase {
	return &registrationUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		baseURL:                props.BaseURL,
		expireQueueID:          props.ExpireQueueID,
		holdExpiration:         props.HoldExpiration,
		waitlistOfferSpan:      props.WaitlistOfferSpan,
		maxGroupSize:           props.MaxGroupSize,
		ticketTypeRepository:   props.TicketTypeRepository,
		discountCodeRepository: props.DiscountCodeRepository,
		registrationRepository: props.RegistrationRepository,
		waitlistRepository:     props.WaitlistRepository,
		notificationRepository: props.NotificationRepository,
		publisher:              props.Publisher,
		cloudTask:              props.CloudTask,
	}
}

// CreateRegistration implements RegistrationUseCase.
func (u *registrationUseCase) CreateRegistration(ctx context.Context, req CreateRegistrationRequest) (CreateRegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	return u.createRegistration(ctx, req, true, false)
}

// createRegistration runs the admission decision. The availability check and
// the reserved increment happen inside one transaction against a row lock,
// so concurrent attempts for the same ticket type serialize and the counters
// never drift past capacity.
func (u *registrationUseCase) createRegistration(ctx context.Context, req CreateRegistrationRequest, allowWaitlist bool, wasWaitlisted bool) (CreateRegistrationResponse, error) {
	if req.GroupSize < 1 || (u.maxGroupSize > 0 && req.GroupSize > u.maxGroupSize) {
		return CreateRegistrationResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("group size must be between 1 and %d", u.maxGroupSize))
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return CreateRegistrationResponse{}, err
	}

	t, err := u.ticketTypeRepository.FindByIDForUpdate(ctx, req.TicketTypeID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, err
	}

	now := time.Now()

	availability := ticket.CheckAvailability(t, req.GroupSize, now)
	if !availability.Available {
		if allowWaitlist && availability.WaitlistAvailable {
			return u.joinWaitlist(ctx, tx, t, req, now)
		}

		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, errors.New(http.StatusConflict, status.CONFLICT, availability.Reason)
	}

	var promo *pricing.DiscountCode
	if req.DiscountCode != "" {
		promo, err = u.discountCodeRepository.FindActiveByCode(ctx, t.EventID, req.DiscountCode, tx)
		if err != nil {
			u.registrationRepository.Rollback(ctx, tx)
			return CreateRegistrationResponse{}, err
		}
	}

	breakdown := pricing.Calculate(t, req.GroupSize, promo, now)

	id := util.GenerateTimestampWithPrefix("RG")
	ticketCode := util.GenerateTicketCode(id)

	qrCodeImage, err := util.GenerateQRCodeImage(ticketCode)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).Error("unable to render qr code image")
		qrCodeImage = ""
	}

	reg := Registration{
		ID:             id,
		EventID:        t.EventID,
		TicketTypeID:   t.ID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		GroupSize:      req.GroupSize,
		Status:         StatusPending,
		OriginalPrice:  breakdown.Subtotal,
		DiscountAmount: breakdown.TotalDiscount,
		FinalPrice:     breakdown.FinalPrice,
		PriceBreakdown: breakdown,
		PaymentStatus:  PaymentStatusPending,
		TicketCode:     ticketCode,
		QRCodeImage:    qrCodeImage,
		WasWaitlisted:  wasWaitlisted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.DiscountCode != "" {
		reg.DiscountCode = &req.DiscountCode
	}

	if acc, accErr := session.GetAccountFromCtx(ctx); accErr == nil {
		reg.AccountID = &acc.ID
	}

	if err := u.registrationRepository.Save(ctx, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, err
	}

	if err := u.ticketTypeRepository.ReserveStock(ctx, t.ID, req.GroupSize, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return CreateRegistrationResponse{}, err
	}

	u.scheduleExpire(ctx, reg, now)

	return CreateRegistrationResponse{
		RegistrationID:  reg.ID,
		TicketCode:      reg.TicketCode,
		QRCodeImage:     reg.QRCodeImage,
		Pricing:         &breakdown,
		PaymentRequired: breakdown.FinalPrice > 0,
	}, nil
}

// joinWaitlist places the attendee at the tail of the ticket type's queue
// inside the already-open admission transaction, so the computed position
// stays dense under concurrent joins.
func (u *registrationUseCase) joinWaitlist(ctx context.Context, tx *sql.Tx, t ticket.TicketType, req CreateRegistrationRequest, now time.Time) (CreateRegistrationResponse, error) {
	count, err := u.waitlistRepository.CountPending(ctx, t.EventID, t.ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, err
	}

	if t.WaitlistCapacity != nil && count >= *t.WaitlistCapacity {
		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, errors.New(http.StatusConflict, status.CONFLICT, "waitlist is full")
	}

	expiresAt := now.Add(u.waitlistOfferSpan)
	entry := waitlist.Entry{
		ID:           util.GenerateTimestampWithPrefix("WL"),
		EventID:      t.EventID,
		TicketTypeID: t.ID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Position:     count + 1,
		ExpiresAt:    &expiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.waitlistRepository.Save(ctx, entry, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return CreateRegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return CreateRegistrationResponse{}, err
	}

	return CreateRegistrationResponse{
		Waitlisted:       true,
		WaitlistID:       entry.ID,
		WaitlistPosition: entry.Position,
	}, nil
}

// GetRegistration implements RegistrationUseCase.
func (u *registrationUseCase) GetRegistration(ctx context.Context, ID string) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	reg, err := u.registrationRepository.FindByID(ctx, ID, nil)
	if err != nil {
		return RegistrationResponse{}, err
	}

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// GetManyRegistration implements RegistrationUseCase.
func (u *registrationUseCase) GetManyRegistration(ctx context.Context, req GetManyRegistrationRequest) (GetManyRegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.Size

	regs, err := u.registrationRepository.FindManyByAccountID(ctx, acc.ID, offset, req.Size, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyRegistrationResponse, len(regs))
	for k, reg := range regs {
		resp[k].PopulateFromEntity(reg)
	}

	return resp, nil
}

// OnPaymentNotification implements RegistrationUseCase. The transition, the
// reserved-to-sold transfer and the promo usage increment commit as one
// transaction; a repeated notification for an already confirmed
// registration is a no-op.
func (u *registrationUseCase) OnPaymentNotification(ctx context.Context, e PaymentNotificationEvent) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if e.TransactionStatus != "settlement" {
		return nil
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	reg, err := u.registrationRepository.FindByIDForUpdate(ctx, e.RegistrationID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	if reg.Status == StatusConfirmed {
		u.registrationRepository.Rollback(ctx, tx)
		return nil
	}

	now := time.Now()

	if err := reg.Transition(StatusConfirmed, now); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	reg.PaymentStatus = PaymentStatusCompleted
	reg.PaymentReference = &e.PaymentReference
	reg.PaymentDate = &now
	reg.ConfirmedAt = &now

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	earlyBird := reg.PriceBreakdown.DiscountDetails.EarlyBird != nil
	if err := u.ticketTypeRepository.CommitSale(ctx, reg.TicketTypeID, reg.GroupSize, earlyBird, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	if reg.DiscountCode != nil && reg.PriceBreakdown.DiscountDetails.PromoCode != nil {
		promo, err := u.discountCodeRepository.FindActiveByCode(ctx, reg.EventID, *reg.DiscountCode, tx)
		if err != nil {
			u.registrationRepository.Rollback(ctx, tx)
			return err
		}
		if promo != nil {
			if err := u.discountCodeRepository.IncrementUsage(ctx, promo.ID, tx); err != nil {
				// The quoted price stands; the capped counter just refuses
				// to move past max_uses.
				u.logger.WithContext(ctx).WithError(err).WithField("discountCode", promo.Code).Warn("discount code usage was not incremented")
			}
		}
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	u.sendConfirmation(ctx, reg)

	if u.publisher != nil {
		regBuff, _ := json.Marshal(reg)
		u.publisher.Publish(ctx, "registration-confirmed", reg.ID, nil, regBuff)
	}

	return nil
}

func (u *registrationUseCase) sendConfirmation(ctx context.Context, reg Registration) {
	if u.notificationRepository == nil {
		return
	}

	msg := notification.ConfirmationMessage{
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Email:          reg.Email,
		EventID:        reg.EventID,
		RegistrationID: reg.ID,
		TicketCode:     reg.TicketCode,
		QRCodeImage:    reg.QRCodeImage,
		FinalPrice:     reg.FinalPrice,
		DiscountAmount: reg.DiscountAmount,
	}

	if err := u.notificationRepository.SendConfirmation(ctx, msg); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("registrationId", reg.ID).Error("confirmation notification was not sent")
		return
	}

	now := time.Now()
	reg.ConfirmationSent = true
	reg.ConfirmationSentAt = &now
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, nil); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("registrationId", reg.ID).Error("confirmation flag was not recorded")
	}
}

// CancelRegistration implements RegistrationUseCase.
func (u *registrationUseCase) CancelRegistration(ctx context.Context, req CancelRegistrationRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	return u.releaseHold(ctx, req.ID, StatusCancelled)
}

// OnExpireRegistration implements RegistrationUseCase. The deferred task
// fires unconditionally; confirmed registrations are left alone.
func (u *registrationUseCase) OnExpireRegistration(ctx context.Context, e ExpireRegistrationEvent) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	return u.releaseHold(ctx, e.ID, StatusExpired)
}

func (u *registrationUseCase) releaseHold(ctx context.Context, ID string, toStatus string) error {
	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	reg, err := u.registrationRepository.FindByIDForUpdate(ctx, ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	if reg.Status == toStatus {
		u.registrationRepository.Rollback(ctx, tx)
		return nil
	}

	if reg.Status == StatusConfirmed && toStatus == StatusExpired {
		u.registrationRepository.Rollback(ctx, tx)
		return nil
	}

	now := time.Now()

	if err := reg.Transition(toStatus, now); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	if toStatus == StatusExpired {
		reg.PaymentStatus = PaymentStatusFailed
	}

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.ticketTypeRepository.ReleaseStock(ctx, reg.TicketTypeID, reg.GroupSize, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	if err := u.ProcessWaitlist(ctx, reg.EventID, reg.TicketTypeID); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("ticketTypeId", reg.TicketTypeID).Error("waitlist was not processed after release")
	}

	return nil
}

// ProcessWaitlist implements RegistrationUseCase. It offers freed capacity
// to the head of the queue without reserving anything; the attendee still
// has to complete a registration.
func (u *registrationUseCase) ProcessWaitlist(ctx context.Context, eventID string, ticketTypeID string) error {
	t, err := u.ticketTypeRepository.FindByID(ctx, ticketTypeID, nil)
	if err != nil {
		return err
	}

	now := time.Now()

	availability := ticket.CheckAvailability(t, 1, now)
	if !availability.Available {
		return nil
	}

	entry, err := u.waitlistRepository.FindNextUnnotified(ctx, eventID, ticketTypeID, nil)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	if u.notificationRepository != nil {
		msg := notification.WaitlistOfferMessage{
			FirstName:      entry.FirstName,
			LastName:       entry.LastName,
			Email:          entry.Email,
			EventID:        entry.EventID,
			TicketTypeName: t.Name,
			Position:       entry.Position,
		}
		if entry.ExpiresAt != nil {
			msg.OfferExpiresAt = entry.ExpiresAt.Format(time.RFC3339)
		}

		if err := u.notificationRepository.SendWaitlistOffer(ctx, msg); err != nil {
			// Leave the entry unnotified so a later promotion retries it.
			u.logger.WithContext(ctx).WithError(err).WithField("waitlistId", entry.ID).Error("waitlist offer was not sent")
			return nil
		}
	}

	if err := u.waitlistRepository.MarkNotified(ctx, entry.ID, now, nil); err != nil {
		return err
	}

	if u.publisher != nil {
		entryBuff, _ := json.Marshal(entry)
		u.publisher.Publish(ctx, "waitlist-offer", entry.ID, nil, entryBuff)
	}

	return nil
}

// ConvertWaitlistEntry implements RegistrationUseCase. Conversion admits the
// attendee through the normal path (no waitlist fallback), renumbers the
// queue's tail with one bounded update, then cascades the next offer.
func (u *registrationUseCase) ConvertWaitlistEntry(ctx context.Context, req ConvertWaitlistEntryRequest) (ConvertWaitlistEntryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	entry, err := u.waitlistRepository.FindByID(ctx, req.WaitlistID, nil)
	if err != nil {
		return ConvertWaitlistEntryResponse{}, err
	}

	if entry.Converted {
		return ConvertWaitlistEntryResponse{}, errors.New(http.StatusConflict, status.CONFLICT, "waitlist entry has already been converted")
	}

	createReq := CreateRegistrationRequest{
		EventID:      entry.EventID,
		TicketTypeID: entry.TicketTypeID,
		FirstName:    entry.FirstName,
		LastName:     entry.LastName,
		Email:        entry.Email,
		Phone:        entry.Phone,
		GroupSize:    req.GroupSize,
		DiscountCode: req.DiscountCode,
	}

	created, err := u.createRegistration(ctx, createReq, false, true)
	if err != nil {
		return ConvertWaitlistEntryResponse{}, err
	}

	now := time.Now()

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return ConvertWaitlistEntryResponse{}, err
	}

	if err := u.waitlistRepository.MarkConverted(ctx, entry.ID, now, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return ConvertWaitlistEntryResponse{}, err
	}

	if err := u.waitlistRepository.ShiftPositionsAfter(ctx, entry.EventID, entry.TicketTypeID, entry.Position, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return ConvertWaitlistEntryResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return ConvertWaitlistEntryResponse{}, err
	}

	if err := u.ProcessWaitlist(ctx, entry.EventID, entry.TicketTypeID); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("ticketTypeId", entry.TicketTypeID).Error("waitlist was not processed after conversion")
	}

	return ConvertWaitlistEntryResponse{
		CreateRegistrationResponse: created,
		ConvertedWaitlistID:        entry.ID,
	}, nil
}

// CheckIn implements RegistrationUseCase.
func (u *registrationUseCase) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if !util.VerifyTicketCode(req.TicketCode) {
		return CheckInResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "ticket code is not valid")
	}

	reg, err := u.registrationRepository.FindByTicketCode(ctx, req.TicketCode, nil)
	if err != nil {
		return CheckInResponse{}, err
	}

	if reg.Status != StatusConfirmed {
		return CheckInResponse{}, errors.New(http.StatusConflict, status.CONFLICT, "registration is not confirmed")
	}

	if reg.CheckedIn {
		return CheckInResponse{}, errors.New(http.StatusConflict, status.CONFLICT, "ticket has already been checked in")
	}

	now := time.Now()
	reg.CheckedIn = true
	reg.CheckInTime = &now
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg.ID, reg, nil); err != nil {
		return CheckInResponse{}, err
	}

	return CheckInResponse{
		RegistrationID: reg.ID,
		TicketCode:     reg.TicketCode,
		CheckInTime:    now,
	}, nil
}

func (u *registrationUseCase) scheduleExpire(ctx context.Context, reg Registration, now time.Time) {
	if u.cloudTask == nil {
		return
	}

	body, _ := json.Marshal(ExpireRegistrationEvent{ID: reg.ID})

	taskRequest := gctasks.Request{
		URL:    fmt.Sprintf("%s/eh-registration/v1/attendeeapp/registrations/on-expire", u.baseURL),
		Method: cloudtaskspb.HttpMethod_POST,
		Body:   body,
	}

	if err := u.cloudTask.DeferCreateTaskInTime(u.expireQueueID, taskRequest, now.Add(u.holdExpiration)); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("registrationId", reg.ID).Error("unable to schedule hold expiration")
	}
}
