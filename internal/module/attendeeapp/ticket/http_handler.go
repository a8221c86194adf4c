package ticket

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/response"
	"github.com/eventhive/eh-registration/pkg/status"
)

type HTTPHandler struct {
	TicketUseCase TicketUseCase
}

func InitHTTPHandler(router *mux.Router, ticketUseCase TicketUseCase) {
	handler := &HTTPHandler{
		TicketUseCase: ticketUseCase,
	}

	router.HandleFunc("/eh-registration/v1/attendeeapp/events/{eventId}/ticket-types", handler.GetManyTicketType).Methods(http.MethodGet)
	router.HandleFunc("/eh-registration/v1/attendeeapp/ticket-types/{id}", handler.GetTicketType).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetManyTicketType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.GetManyTicketType(ctx, mux.Vars(r)["eventId"])
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
		Message: "ticket type catalog",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetTicketType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.GetTicketType(ctx, mux.Vars(r)["id"])
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
		Message: "ticket type detail",
		Data:    resp,
	})
}
