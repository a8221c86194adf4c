package waitlist

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/response"
	"github.com/eventhive/eh-registration/pkg/status"
)

type HTTPHandler struct {
	WaitlistRepository WaitlistRepository
}

func InitHTTPHandler(router *mux.Router, waitlistRepository WaitlistRepository) {
	handler := &HTTPHandler{
		WaitlistRepository: waitlistRepository,
	}

	router.HandleFunc("/eh-registration/v1/attendeeapp/events/{eventId}/ticket-types/{ticketTypeId}/waitlist", handler.GetQueue).Methods(http.MethodGet)
}

// GetQueue lists the pending entries of one ticket type's queue in position
// order.
func (handler HTTPHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	entries, err := handler.WaitlistRepository.FindManyByTicketTypeID(ctx, vars["eventId"], vars["ticketTypeId"], nil)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	resp := make(GetManyEntryResponse, len(entries))
	for k, e := range entries {
		resp[k].PopulateFromEntity(e)
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of waitlist entries",
		Data:    resp,
	})
}
