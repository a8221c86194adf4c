package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/eventhive/eh-registration/config"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/notification"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/pricing"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/registration"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/ticket"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/waitlist"
	"github.com/eventhive/eh-registration/internal/pkg/jwt"
	internalMiddleware "github.com/eventhive/eh-registration/internal/pkg/middleware"
	"github.com/eventhive/eh-registration/internal/pkg/session"
	"github.com/eventhive/eh-registration/pkg/applogger"
	"github.com/eventhive/eh-registration/pkg/gctasks"
	"github.com/eventhive/eh-registration/pkg/kafka"
	"github.com/eventhive/eh-registration/pkg/middleware"
	"github.com/eventhive/eh-registration/pkg/monitoring"
	"github.com/eventhive/eh-registration/pkg/postgresql"
	"github.com/eventhive/eh-registration/pkg/pubsub"
	"github.com/eventhive/eh-registration/pkg/redis"
	"github.com/eventhive/eh-registration/pkg/server"
	"github.com/eventhive/eh-registration/pkg/validator"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.GCP.ProjectID,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := http.DefaultClient

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cloudTask := gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.ServiceAccount)

	sessionStore := session.NewRedisSessionStore(logger, rc)

	attendeeSessionMiddleware := internalMiddleware.NewAttendeeSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	// attendee's app
	ticketTypeRepo := ticket.NewTicketTypeRepository(logger, psqldb)
	discountCodeRepo := pricing.NewDiscountCodeRepository(logger, psqldb)
	registrationRepo := registration.NewRegistrationRepository(logger, psqldb)
	waitlistRepo := waitlist.NewWaitlistRepository(logger, psqldb)
	notificationRepo := notification.NewNotificationRepository(c.Notification.BaseURL, c.Notification.APIKey, logger, hc)

	ticketUseCase := ticket.NewTicketUseCase(ticket.TicketUseCaseProperty{
		Logger:               logger,
		Timeout:              c.Application.Timeout,
		TicketTypeRepository: ticketTypeRepo,
	})
	ticket.InitHTTPHandler(router, ticketUseCase)

	pricingUseCase := pricing.NewPricingUseCase(pricing.PricingUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		TicketTypeRepository:   ticketTypeRepo,
		DiscountCodeRepository: discountCodeRepo,
	})
	pricing.InitHTTPHandler(router, validate, pricingUseCase)

	registrationUseCase := registration.NewRegistrationUseCase(registration.RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		BaseURL:                c.Application.BaseURL,
		ExpireQueueID:          c.Application.ExpireQueueID,
		HoldExpiration:         c.Registration.HoldExpiration,
		WaitlistOfferSpan:      c.Registration.WaitlistOfferSpan,
		MaxGroupSize:           c.Registration.MaxGroupSize,
		TicketTypeRepository:   ticketTypeRepo,
		DiscountCodeRepository: discountCodeRepo,
		RegistrationRepository: registrationRepo,
		WaitlistRepository:     waitlistRepo,
		NotificationRepository: notificationRepo,
		Publisher:              publisher,
		CloudTask:              cloudTask,
	})
	registration.InitHTTPHandler(router, validate, attendeeSessionMiddleware, registrationUseCase)

	waitlist.InitHTTPHandler(router, waitlistRepo)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(ctx)
}
