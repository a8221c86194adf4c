package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	internalmiddleware "github.com/eventhive/eh-registration/internal/pkg/middleware"
	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/response"
	"github.com/eventhive/eh-registration/pkg/status"
)

type HTTPHandler struct {
	Validate            *validator.Validate
	RegistrationUseCase RegistrationUseCase
}

func InitHTTPHandler(router *mux.Router, validate *validator.Validate, attendeeSession *internalmiddleware.AttendeeSession, registrationUseCase RegistrationUseCase) {
	handler := &HTTPHandler{
		Validate:            validate,
		RegistrationUseCase: registrationUseCase,
	}

	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations", attendeeSession.Verify(handler.CreateRegistration)).Methods(http.MethodPost)
	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations", attendeeSession.Verify(handler.GetManyRegistration)).Methods(http.MethodGet)
	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations/{id}", handler.GetRegistration).Methods(http.MethodGet)
	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations/{id}/cancel", attendeeSession.Verify(handler.CancelRegistration)).Methods(http.MethodPost)
	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations/on-payment-notification", handler.OnPaymentNotification).Methods(http.MethodPost)
	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations/on-expire", handler.OnExpireRegistration).Methods(http.MethodPost)
	router.HandleFunc("/eh-registration/v1/attendeeapp/registrations/check-in", handler.CheckIn).Methods(http.MethodPost)
	router.HandleFunc("/eh-registration/v1/attendeeapp/waitlist/convert", attendeeSession.Verify(handler.ConvertWaitlistEntry)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))
	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateRegistrationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.RegistrationUseCase.CreateRegistration(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	message := "registration created"
	if resp.Waitlisted {
		message = "added to waitlist"
	}

	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: message,
		Data:    resp,
	})
}

func (handler HTTPHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.RegistrationUseCase.GetRegistration(ctx, mux.Vars(r)["id"])
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "registration detail",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetManyRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := GetManyRegistrationRequest{}
	req.Page, _ = strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	req.Size, _ = strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 {
		req.Size = 10
	}

	resp, err := handler.RegistrationUseCase.GetManyRegistration(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "registration list",
		Data:    resp,
	})
}

func (handler HTTPHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CancelRegistrationRequest{ID: mux.Vars(r)["id"]}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	if err := handler.RegistrationUseCase.CancelRegistration(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "registration cancelled",
	})
}

func (handler HTTPHandler) OnPaymentNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e := PaymentNotificationEvent{}
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.RegistrationUseCase.OnPaymentNotification(ctx, e); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "payment notification processed",
	})
}

func (handler HTTPHandler) OnExpireRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e := ExpireRegistrationEvent{}
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.RegistrationUseCase.OnExpireRegistration(ctx, e); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "expiration processed",
	})
}

func (handler HTTPHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CheckInRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.RegistrationUseCase.CheckIn(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "attendee checked in",
		Data:    resp,
	})
}

func (handler HTTPHandler) ConvertWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := ConvertWaitlistEntryRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.RegistrationUseCase.ConvertWaitlistEntry(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "waitlist entry converted",
		Data:    resp,
	})
}
