package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/response"
	"github.com/eventhive/eh-registration/pkg/status"
)

type HTTPHandler struct {
	Validate       *validator.Validate
	PricingUseCase PricingUseCase
}

func InitHTTPHandler(router *mux.Router, validate *validator.Validate, pricingUseCase PricingUseCase) {
	handler := &HTTPHandler{
		Validate:       validate,
		PricingUseCase: pricingUseCase,
	}

	router.HandleFunc("/eh-registration/v1/attendeeapp/pricing/quote", handler.CalculatePrice).Methods(http.MethodPost)
	router.HandleFunc("/eh-registration/v1/attendeeapp/ticket-types/{id}/availability", handler.CheckAvailability).Methods(http.MethodGet)
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

func (handler HTTPHandler) CalculatePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CalculatePriceRequest{}
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

	resp, err := handler.PricingUseCase.CalculatePrice(ctx, req)
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
		Message: "price breakdown",
		Data:    resp,
	})
}

func (handler HTTPHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CheckAvailabilityRequest{}
	req.TicketTypeID = mux.Vars(r)["id"]
	req.Quantity, _ = strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.PricingUseCase.CheckAvailability(ctx, req)
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
		Message: "ticket type availability",
		Data:    resp,
	})
}
