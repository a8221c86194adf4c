package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

type contextKey string

const accountKey contextKey = "session.account"

// Account is the attendee identity carried through a request once the
// session middleware has verified it.
type Account struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Store interface {
	Get(ctx context.Context, subject string) (Account, error)
	Set(ctx context.Context, subject string, account Account, ttl time.Duration) error
	Delete(ctx context.Context, subject string) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	client *goredis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, client *goredis.Client) Store {
	return &redisSessionStore{
		logger: logger,
		client: client,
	}
}

func sessionKey(subject string) string {
	return fmt.Sprintf("session:attendee:%s", subject)
}

func (s *redisSessionStore) Get(ctx context.Context, subject string) (Account, error) {
	raw, err := s.client.Get(ctx, sessionKey(subject)).Bytes()
	if err == goredis.Nil {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is not found")
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting session")
	}

	var account Account
	if err := json.Unmarshal(raw, &account); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while decoding session")
	}

	return account, nil
}

func (s *redisSessionStore) Set(ctx context.Context, subject string, account Account, ttl time.Duration) error {
	raw, _ := json.Marshal(account)

	if err := s.client.Set(ctx, sessionKey(subject), raw, ttl).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while storing session")
	}

	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, subject string) error {
	if err := s.client.Del(ctx, sessionKey(subject)).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting session")
	}

	return nil
}

func ContextWithAccount(ctx context.Context, account Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

func GetAccountFromCtx(ctx context.Context) (Account, error) {
	account, ok := ctx.Value(accountKey).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "account is not found on the request context")
	}

	return account, nil
}
