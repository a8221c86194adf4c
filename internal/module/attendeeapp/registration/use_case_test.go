package registration

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/eventhive/eh-registration/internal/module/attendeeapp/notification"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/pricing"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/ticket"
	"github.com/eventhive/eh-registration/internal/module/attendeeapp/waitlist"
	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

type fakeTicketTypeRepository struct {
	mu    sync.Mutex
	types map[string]ticket.TicketType
}

func (f *fakeTicketTypeRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (ticket.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.types[ID]
	if !ok {
		return ticket.TicketType{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "ticket type is not found")
	}

	return t, nil
}

func (f *fakeTicketTypeRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (ticket.TicketType, error) {
	return f.FindByID(ctx, ID, tx)
}

func (f *fakeTicketTypeRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]ticket.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []ticket.TicketType{}
	for _, t := range f.types {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}

	return out, nil
}

func (f *fakeTicketTypeRepository) ReserveStock(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.types[ID]
	if t.Capacity != nil && *t.Capacity-t.SoldCount-t.Reserved < quantity {
		return errors.New(http.StatusConflict, status.CONFLICT, ticket.ReasonNotEnoughStock)
	}

	t.Reserved += quantity
	f.types[ID] = t

	return nil
}

func (f *fakeTicketTypeRepository) CommitSale(ctx context.Context, ID string, quantity int64, earlyBird bool, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.types[ID]
	if t.Reserved < quantity {
		return errors.New(http.StatusConflict, status.CONFLICT, "no matching hold to commit")
	}

	t.Reserved -= quantity
	t.SoldCount += quantity
	if earlyBird {
		t.EarlyBirdSold += quantity
	}
	f.types[ID] = t

	return nil
}

func (f *fakeTicketTypeRepository) ReleaseStock(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.types[ID]
	t.Reserved -= quantity
	if t.Reserved < 0 {
		t.Reserved = 0
	}
	f.types[ID] = t

	return nil
}

type fakeDiscountCodeRepository struct {
	mu    sync.Mutex
	codes map[string]pricing.DiscountCode
}

func (f *fakeDiscountCodeRepository) FindActiveByCode(ctx context.Context, eventID string, code string, tx *sql.Tx) (*pricing.DiscountCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.codes[code]
	if !ok || c.EventID != eventID || !c.IsActive {
		return nil, nil
	}

	return &c, nil
}

func (f *fakeDiscountCodeRepository) IncrementUsage(ctx context.Context, ID string, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for code, c := range f.codes {
		if c.ID != ID {
			continue
		}
		if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
			return errors.New(http.StatusConflict, status.CONFLICT, "discount code has reached its usage cap")
		}
		c.UsedCount++
		f.codes[code] = c
		return nil
	}

	return errors.New(http.StatusNotFound, status.NOT_FOUND, "discount code is not found")
}

type fakeRegistrationRepository struct {
	mu   sync.Mutex
	regs map[string]Registration
}

func (f *fakeRegistrationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) { return nil, nil }
func (f *fakeRegistrationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	return nil
}
func (f *fakeRegistrationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	return nil
}

func (f *fakeRegistrationRepository) Save(ctx context.Context, r Registration, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.regs[r.ID] = r

	return nil
}

func (f *fakeRegistrationRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.regs[ID]
	if !ok {
		return Registration{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "registration is not found")
	}

	return r, nil
}

func (f *fakeRegistrationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	return f.FindByID(ctx, ID, tx)
}

func (f *fakeRegistrationRepository) FindByTicketCode(ctx context.Context, ticketCode string, tx *sql.Tx) (Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.regs {
		if r.TicketCode == ticketCode {
			return r, nil
		}
	}

	return Registration{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "registration is not found")
}

func (f *fakeRegistrationRepository) FindManyByAccountID(ctx context.Context, accountID int64, offset, limit int64, tx *sql.Tx) ([]Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []Registration{}
	for _, r := range f.regs {
		if r.AccountID != nil && *r.AccountID == accountID {
			out = append(out, r)
		}
	}

	return out, nil
}

func (f *fakeRegistrationRepository) Update(ctx context.Context, ID string, r Registration, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.regs[ID]; !ok {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, "registration is not found")
	}

	f.regs[ID] = r

	return nil
}

type fakeWaitlistRepository struct {
	mu      sync.Mutex
	entries []waitlist.Entry
}

func (f *fakeWaitlistRepository) Save(ctx context.Context, e waitlist.Entry, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, e)

	return nil
}

func (f *fakeWaitlistRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (waitlist.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.entries {
		if e.ID == ID {
			return e, nil
		}
	}

	return waitlist.Entry{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "waitlist entry is not found")
}

func (f *fakeWaitlistRepository) FindManyByTicketTypeID(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) ([]waitlist.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []waitlist.Entry{}
	for _, e := range f.entries {
		if e.EventID == eventID && e.TicketTypeID == ticketTypeID && !e.Converted {
			out = append(out, e)
		}
	}

	return out, nil
}

func (f *fakeWaitlistRepository) CountPending(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, e := range f.entries {
		if e.EventID == eventID && e.TicketTypeID == ticketTypeID && !e.Converted {
			count++
		}
	}

	return count, nil
}

func (f *fakeWaitlistRepository) FindNextUnnotified(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) (*waitlist.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var next *waitlist.Entry
	for i := range f.entries {
		e := f.entries[i]
		if e.EventID != eventID || e.TicketTypeID != ticketTypeID || e.Notified || e.Converted {
			continue
		}
		if next == nil || e.Position < next.Position {
			next = &f.entries[i]
		}
	}

	if next == nil {
		return nil, nil
	}

	copied := *next

	return &copied, nil
}

func (f *fakeWaitlistRepository) MarkNotified(ctx context.Context, ID string, notifiedAt time.Time, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID == ID {
			f.entries[i].Notified = true
			f.entries[i].NotifiedAt = &notifiedAt
			return nil
		}
	}

	return errors.New(http.StatusNotFound, status.NOT_FOUND, "waitlist entry is not found")
}

func (f *fakeWaitlistRepository) MarkConverted(ctx context.Context, ID string, convertedAt time.Time, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID != ID {
			continue
		}
		if f.entries[i].Converted {
			return errors.New(http.StatusConflict, status.CONFLICT, "waitlist entry has already been converted")
		}
		f.entries[i].Converted = true
		f.entries[i].ConvertedAt = &convertedAt
		return nil
	}

	return errors.New(http.StatusNotFound, status.NOT_FOUND, "waitlist entry is not found")
}

func (f *fakeWaitlistRepository) ShiftPositionsAfter(ctx context.Context, eventID string, ticketTypeID string, position int64, tx *sql.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		e := &f.entries[i]
		if e.EventID == eventID && e.TicketTypeID == ticketTypeID && e.Position > position && !e.Converted {
			e.Position--
		}
	}

	return nil
}

type fakeNotificationRepository struct {
	mu               sync.Mutex
	confirmations    []notification.ConfirmationMessage
	offers           []notification.WaitlistOfferMessage
	failConfirmation bool
	failOffer        bool
}

func (f *fakeNotificationRepository) SendConfirmation(ctx context.Context, msg notification.ConfirmationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failConfirmation {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "notification service is unavailable")
	}

	f.confirmations = append(f.confirmations, msg)

	return nil
}

func (f *fakeNotificationRepository) SendWaitlistOffer(ctx context.Context, msg notification.WaitlistOfferMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failOffer {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "notification service is unavailable")
	}

	f.offers = append(f.offers, msg)

	return nil
}

type fixture struct {
	ticketTypes   *fakeTicketTypeRepository
	discountCodes *fakeDiscountCodeRepository
	registrations *fakeRegistrationRepository
	waitlists     *fakeWaitlistRepository
	notifications *fakeNotificationRepository
	useCase       RegistrationUseCase
}

func newFixture(types map[string]ticket.TicketType, codes map[string]pricing.DiscountCode) *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		ticketTypes:   &fakeTicketTypeRepository{types: types},
		discountCodes: &fakeDiscountCodeRepository{codes: codes},
		registrations: &fakeRegistrationRepository{regs: map[string]Registration{}},
		waitlists:     &fakeWaitlistRepository{},
		notifications: &fakeNotificationRepository{},
	}

	f.useCase = NewRegistrationUseCase(RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                5 * time.Second,
		BaseURL:                "http://localhost:8080",
		ExpireQueueID:          "expire-registration",
		HoldExpiration:         15 * time.Minute,
		WaitlistOfferSpan:      24 * time.Hour,
		MaxGroupSize:           10,
		TicketTypeRepository:   f.ticketTypes,
		DiscountCodeRepository: f.discountCodes,
		RegistrationRepository: f.registrations,
		WaitlistRepository:     f.waitlists,
		NotificationRepository: f.notifications,
	})

	return f
}

func int64Ptr(v int64) *int64 { return &v }

func generalAdmission(capacity int64) ticket.TicketType {
	return ticket.TicketType{
		ID:        "tt-general",
		EventID:   "ev-1",
		Name:      "General Admission",
		BasePrice: 100,
		Capacity:  &capacity,
		IsActive:  true,
	}
}

func createRequest() CreateRegistrationRequest {
	return CreateRegistrationRequest{
		EventID:      "ev-1",
		TicketTypeID: "tt-general",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		GroupSize:    1,
	}
}

func TestCreateRegistrationHoldsStock(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	resp, err := f.useCase.CreateRegistration(context.Background(), createRequest())

	assert.NoError(t, err)
	assert.False(t, resp.Waitlisted)
	assert.NotEmpty(t, resp.RegistrationID)
	assert.NotEmpty(t, resp.TicketCode)
	assert.True(t, resp.PaymentRequired)

	saved := f.registrations.regs[resp.RegistrationID]
	assert.Equal(t, StatusPending, saved.Status)
	assert.Equal(t, PaymentStatusPending, saved.PaymentStatus)
	assert.Equal(t, float64(100), saved.FinalPrice)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(1), held.Reserved)
	assert.Equal(t, int64(0), held.SoldCount)
}

func TestCreateRegistrationRejectsOversizedGroup(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	req := createRequest()
	req.GroupSize = 11

	_, err := f.useCase.CreateRegistration(context.Background(), req)

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.Destruct(err).HTTPStatusCode)
}

func TestCreateRegistrationSoldOutJoinsWaitlist(t *testing.T) {
	tt := generalAdmission(10)
	tt.SoldCount = 10
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	resp, err := f.useCase.CreateRegistration(context.Background(), createRequest())

	assert.NoError(t, err)
	assert.True(t, resp.Waitlisted)
	assert.Equal(t, int64(1), resp.WaitlistPosition)
	assert.NotEmpty(t, resp.WaitlistID)
	assert.Empty(t, resp.RegistrationID)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(0), held.Reserved)
}

func TestCreateRegistrationWaitlistPositionsAreDense(t *testing.T) {
	tt := generalAdmission(10)
	tt.SoldCount = 10
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	first, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	second, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	assert.Equal(t, int64(1), first.WaitlistPosition)
	assert.Equal(t, int64(2), second.WaitlistPosition)
}

func TestCreateRegistrationWaitlistFull(t *testing.T) {
	tt := generalAdmission(10)
	tt.SoldCount = 10
	tt.WaitlistEnabled = true
	tt.WaitlistCapacity = int64Ptr(1)

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	_, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	_, err = f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.Destruct(err).HTTPStatusCode)
}

func TestCreateRegistrationSoldOutWithoutWaitlist(t *testing.T) {
	tt := generalAdmission(10)
	tt.SoldCount = 10

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	_, err := f.useCase.CreateRegistration(context.Background(), createRequest())

	assert.Error(t, err)
	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusConflict, ae.HTTPStatusCode)
	assert.Equal(t, ticket.ReasonNotEnoughStock, ae.Message)
}

func TestConcurrentRegistrationsNeverOversell(t *testing.T) {
	capacity := int64(5)
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(capacity)}, nil)

	requests := 100
	var wg sync.WaitGroup
	wg.Add(requests)

	var mu sync.Mutex
	var succeeded int64

	for i := 0; i < requests; i++ {
		go func() {
			defer wg.Done()

			_, err := f.useCase.CreateRegistration(context.Background(), createRequest())
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, capacity, succeeded)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, capacity, held.Reserved)
	assert.LessOrEqual(t, held.SoldCount+held.Reserved, capacity)
}

func TestOnPaymentNotificationConfirms(t *testing.T) {
	maxUses := int64(100)
	codes := map[string]pricing.DiscountCode{
		"SAVE10": {
			ID:           "dc-1",
			EventID:      "ev-1",
			Code:         "SAVE10",
			DiscountType: pricing.DiscountTypePercentage,
			Value:        10,
			IsActive:     true,
			MaxUses:      &maxUses,
		},
	}

	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, codes)

	req := createRequest()
	req.DiscountCode = "SAVE10"

	created, err := f.useCase.CreateRegistration(context.Background(), req)
	assert.NoError(t, err)

	err = f.useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		RegistrationID:    created.RegistrationID,
		TransactionStatus: "settlement",
		PaymentReference:  "pay-123",
	})
	assert.NoError(t, err)

	confirmed := f.registrations.regs[created.RegistrationID]
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, PaymentStatusCompleted, confirmed.PaymentStatus)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.True(t, confirmed.ConfirmationSent)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(0), held.Reserved)
	assert.Equal(t, int64(1), held.SoldCount)

	assert.Equal(t, int64(1), f.discountCodes.codes["SAVE10"].UsedCount)
	assert.Len(t, f.notifications.confirmations, 1)
}

func TestOnPaymentNotificationIgnoresNonSettlement(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	created, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	err = f.useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		RegistrationID:    created.RegistrationID,
		TransactionStatus: "pending",
	})
	assert.NoError(t, err)

	assert.Equal(t, StatusPending, f.registrations.regs[created.RegistrationID].Status)
}

func TestOnPaymentNotificationIsIdempotent(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	created, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	e := PaymentNotificationEvent{
		RegistrationID:    created.RegistrationID,
		TransactionStatus: "settlement",
		PaymentReference:  "pay-123",
	}

	assert.NoError(t, f.useCase.OnPaymentNotification(context.Background(), e))
	assert.NoError(t, f.useCase.OnPaymentNotification(context.Background(), e))

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(1), held.SoldCount)
	assert.Len(t, f.notifications.confirmations, 1)
}

func TestCancelReleasesHoldAndPromotesWaitlist(t *testing.T) {
	tt := generalAdmission(1)
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	created, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	waitlisted, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)
	assert.True(t, waitlisted.Waitlisted)

	err = f.useCase.CancelRegistration(context.Background(), CancelRegistrationRequest{ID: created.RegistrationID})
	assert.NoError(t, err)

	assert.Equal(t, StatusCancelled, f.registrations.regs[created.RegistrationID].Status)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(0), held.Reserved)

	assert.Len(t, f.notifications.offers, 1)

	entry, err := f.waitlists.FindByID(context.Background(), waitlisted.WaitlistID, nil)
	assert.NoError(t, err)
	assert.True(t, entry.Notified)
}

func TestExpireLeavesConfirmedRegistrationAlone(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	created, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	assert.NoError(t, f.useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		RegistrationID:    created.RegistrationID,
		TransactionStatus: "settlement",
	}))

	assert.NoError(t, f.useCase.OnExpireRegistration(context.Background(), ExpireRegistrationEvent{ID: created.RegistrationID}))

	confirmed := f.registrations.regs[created.RegistrationID]
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(1), held.SoldCount)
}

func TestExpireReleasesPendingHold(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	created, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	assert.NoError(t, f.useCase.OnExpireRegistration(context.Background(), ExpireRegistrationEvent{ID: created.RegistrationID}))

	expired := f.registrations.regs[created.RegistrationID]
	assert.Equal(t, StatusExpired, expired.Status)
	assert.Equal(t, PaymentStatusFailed, expired.PaymentStatus)

	held := f.ticketTypes.types["tt-general"]
	assert.Equal(t, int64(0), held.Reserved)
}

func TestConvertWaitlistEntryRenumbersQueue(t *testing.T) {
	tt := generalAdmission(1)
	tt.SoldCount = 1
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	first, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)
	assert.True(t, first.Waitlisted)

	second, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)
	assert.True(t, second.Waitlisted)

	// A cancellation elsewhere frees the seat before conversion.
	f.ticketTypes.mu.Lock()
	freed := f.ticketTypes.types["tt-general"]
	freed.SoldCount = 0
	f.ticketTypes.types["tt-general"] = freed
	f.ticketTypes.mu.Unlock()

	resp, err := f.useCase.ConvertWaitlistEntry(context.Background(), ConvertWaitlistEntryRequest{
		WaitlistID: first.WaitlistID,
		GroupSize:  1,
	})
	assert.NoError(t, err)
	assert.False(t, resp.Waitlisted)
	assert.NotEmpty(t, resp.RegistrationID)
	assert.Equal(t, first.WaitlistID, resp.ConvertedWaitlistID)

	converted, err := f.waitlists.FindByID(context.Background(), first.WaitlistID, nil)
	assert.NoError(t, err)
	assert.True(t, converted.Converted)

	remaining, err := f.waitlists.FindByID(context.Background(), second.WaitlistID, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), remaining.Position)

	saved := f.registrations.regs[resp.RegistrationID]
	assert.True(t, saved.WasWaitlisted)
}

func TestConvertWaitlistEntryTwiceConflicts(t *testing.T) {
	tt := generalAdmission(1)
	tt.SoldCount = 1
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	first, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	f.ticketTypes.mu.Lock()
	freed := f.ticketTypes.types["tt-general"]
	freed.SoldCount = 0
	f.ticketTypes.types["tt-general"] = freed
	f.ticketTypes.mu.Unlock()

	req := ConvertWaitlistEntryRequest{WaitlistID: first.WaitlistID, GroupSize: 1}

	_, err = f.useCase.ConvertWaitlistEntry(context.Background(), req)
	assert.NoError(t, err)

	_, err = f.useCase.ConvertWaitlistEntry(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.Destruct(err).HTTPStatusCode)
}

func TestConvertWaitlistEntrySoldOutDoesNotRequeue(t *testing.T) {
	tt := generalAdmission(1)
	tt.SoldCount = 1
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	first, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	_, err = f.useCase.ConvertWaitlistEntry(context.Background(), ConvertWaitlistEntryRequest{
		WaitlistID: first.WaitlistID,
		GroupSize:  1,
	})
	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.Destruct(err).HTTPStatusCode)

	count, err := f.waitlists.CountPending(context.Background(), "ev-1", "tt-general", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProcessWaitlistLeavesEntryUnnotifiedWhenOfferFails(t *testing.T) {
	tt := generalAdmission(1)
	tt.SoldCount = 1
	tt.WaitlistEnabled = true

	f := newFixture(map[string]ticket.TicketType{"tt-general": tt}, nil)

	joined, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)
	assert.True(t, joined.Waitlisted)

	f.ticketTypes.mu.Lock()
	freed := f.ticketTypes.types["tt-general"]
	freed.SoldCount = 0
	f.ticketTypes.types["tt-general"] = freed
	f.ticketTypes.mu.Unlock()

	f.notifications.failOffer = true

	assert.NoError(t, f.useCase.ProcessWaitlist(context.Background(), "ev-1", "tt-general"))

	entry, err := f.waitlists.FindByID(context.Background(), joined.WaitlistID, nil)
	assert.NoError(t, err)
	assert.False(t, entry.Notified)
}

func TestCheckIn(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	created, err := f.useCase.CreateRegistration(context.Background(), createRequest())
	assert.NoError(t, err)

	_, err = f.useCase.CheckIn(context.Background(), CheckInRequest{TicketCode: created.TicketCode})
	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.Destruct(err).HTTPStatusCode)

	assert.NoError(t, f.useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		RegistrationID:    created.RegistrationID,
		TransactionStatus: "settlement",
	}))

	resp, err := f.useCase.CheckIn(context.Background(), CheckInRequest{TicketCode: created.TicketCode})
	assert.NoError(t, err)
	assert.Equal(t, created.RegistrationID, resp.RegistrationID)

	_, err = f.useCase.CheckIn(context.Background(), CheckInRequest{TicketCode: created.TicketCode})
	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.Destruct(err).HTTPStatusCode)
}

func TestCheckInRejectsMalformedTicketCode(t *testing.T) {
	f := newFixture(map[string]ticket.TicketType{"tt-general": generalAdmission(100)}, nil)

	_, err := f.useCase.CheckIn(context.Background(), CheckInRequest{TicketCode: "bogus"})

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.Destruct(err).HTTPStatusCode)
}
