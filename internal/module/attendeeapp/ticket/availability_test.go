package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(v time.Time) *time.Time { return &v }
func int64Ptr(v int64) *int64        { return &v }
func float64Ptr(v float64) *float64  { return &v }

func TestCheckAvailabilityInactiveWinsOverEverything(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:              "tt-1",
		IsActive:        false,
		ValidFrom:       timePtr(now.Add(time.Hour)),
		Capacity:        int64Ptr(0),
		WaitlistEnabled: true,
	}

	got := CheckAvailability(tt, 1, now)

	assert.False(t, got.Available)
	assert.Equal(t, ReasonNotActive, got.Reason)
	assert.False(t, got.WaitlistAvailable)
}

func TestCheckAvailabilityBeforeSalesWindow(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:        "tt-1",
		IsActive:  true,
		ValidFrom: timePtr(now.Add(time.Hour)),
	}

	got := CheckAvailability(tt, 1, now)

	assert.False(t, got.Available)
	assert.Equal(t, ReasonSalesNotStarted, got.Reason)
}

func TestCheckAvailabilityAfterSalesWindow(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:         "tt-1",
		IsActive:   true,
		ValidUntil: timePtr(now.Add(-time.Hour)),
	}

	got := CheckAvailability(tt, 1, now)

	assert.False(t, got.Available)
	assert.Equal(t, ReasonSalesEnded, got.Reason)
}

func TestCheckAvailabilityNotEnoughStock(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:              "tt-1",
		IsActive:        true,
		Capacity:        int64Ptr(100),
		SoldCount:       95,
		Reserved:        3,
		WaitlistEnabled: true,
	}

	got := CheckAvailability(tt, 5, now)

	assert.False(t, got.Available)
	assert.Equal(t, ReasonNotEnoughStock, got.Reason)
	assert.Equal(t, int64(2), *got.AvailableQuantity)
	assert.True(t, got.WaitlistAvailable)
}

func TestCheckAvailabilityRemainderNeverNegative(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:        "tt-1",
		IsActive:  true,
		Capacity:  int64Ptr(10),
		SoldCount: 10,
		Reserved:  2,
	}

	got := CheckAvailability(tt, 1, now)

	assert.False(t, got.Available)
	assert.Equal(t, int64(0), *got.AvailableQuantity)
	assert.False(t, got.WaitlistAvailable)
}

func TestCheckAvailabilitySellableExcludesReservedFromAdmission(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:        "tt-1",
		IsActive:  true,
		Capacity:  int64Ptr(100),
		SoldCount: 40,
		Reserved:  10,
	}

	got := CheckAvailability(tt, 50, now)

	assert.True(t, got.Available)
	assert.Equal(t, int64(60), *got.AvailableQuantity)
}

func TestCheckAvailabilityUnlimitedCapacity(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:       "tt-1",
		IsActive: true,
	}

	got := CheckAvailability(tt, 100000, now)

	assert.True(t, got.Available)
	assert.Nil(t, got.AvailableQuantity)
}

func TestEffectivePrice(t *testing.T) {
	now := time.Now()

	tt := TicketType{
		ID:             "tt-1",
		BasePrice:      100,
		IsEarlyBird:    true,
		EarlyBirdPrice: float64Ptr(75),
		EarlyBirdEnds:  timePtr(now.Add(time.Hour)),
	}

	assert.Equal(t, float64(75), EffectivePrice(tt, now))

	tt.EarlyBirdEnds = timePtr(now.Add(-time.Hour))
	assert.Equal(t, float64(100), EffectivePrice(tt, now))

	tt.EarlyBirdEnds = nil
	tt.EarlyBirdCapacity = int64Ptr(50)
	tt.EarlyBirdSold = 50
	assert.Equal(t, float64(100), EffectivePrice(tt, now))

	tt.IsEarlyBird = false
	assert.Equal(t, float64(100), EffectivePrice(tt, now))
}
