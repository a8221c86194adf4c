package middleware

import (
	"net/http"
	"strings"

	"github.com/eventhive/eh-registration/internal/pkg/jwt"
	"github.com/eventhive/eh-registration/internal/pkg/session"
	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/response"
	"github.com/eventhive/eh-registration/pkg/status"
)

type AttendeeSession struct {
	jsonWebToken *jwt.JSONWebToken
	store        session.Store
}

func NewAttendeeSessionMiddleware(jsonWebToken *jwt.JSONWebToken, store session.Store) *AttendeeSession {
	return &AttendeeSession{
		jsonWebToken: jsonWebToken,
		store:        store,
	}
}

// Verify authenticates the bearer token and loads the attendee's session
// into the request context.
func (m *AttendeeSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authorization := r.Header.Get("Authorization")
		if !strings.HasPrefix(authorization, "Bearer ") {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "missing bearer token",
			})

			return
		}

		claims, err := m.jsonWebToken.Parse(strings.TrimPrefix(authorization, "Bearer "))
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		account, err := m.store.Get(ctx, claims.Subject)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		next(w, r.WithContext(session.ContextWithAccount(ctx, account)))
	}
}
