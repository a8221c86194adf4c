package pricing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/internal/module/attendeeapp/ticket"
)

type PricingUseCase interface {
	CalculatePrice(ctx context.Context, req CalculatePriceRequest) (CalculatePriceResponse, error)
	CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (CheckAvailabilityResponse, error)
}

type pricingUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	ticketTypeRepository   ticket.TicketTypeRepository
	discountCodeRepository DiscountCodeRepository
}

type PricingUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	TicketTypeRepository   ticket.TicketTypeRepository
	DiscountCodeRepository DiscountCodeRepository
}

func NewPricingUseCase(props PricingUseCaseProperty) PricingUseCase {
	return &pricingUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		ticketTypeRepository:   props.TicketTypeRepository,
		discountCodeRepository: props.DiscountCodeRepository,
	}
}

// CalculatePrice implements PricingUseCase. It reads the catalog and promo
// state but mutates neither.
func (u *pricingUseCase) CalculatePrice(ctx context.Context, req CalculatePriceRequest) (CalculatePriceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	t, err := u.ticketTypeRepository.FindByID(ctx, req.TicketTypeID, nil)
	if err != nil {
		return CalculatePriceResponse{}, err
	}

	var promo *DiscountCode
	if req.DiscountCode != "" {
		promo, err = u.discountCodeRepository.FindActiveByCode(ctx, t.EventID, req.DiscountCode, nil)
		if err != nil {
			return CalculatePriceResponse{}, err
		}
	}

	breakdown := Calculate(t, req.Quantity, promo, time.Now())

	return CalculatePriceResponse{PriceBreakdown: breakdown}, nil
}

// CheckAvailability implements PricingUseCase.
func (u *pricingUseCase) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (CheckAvailabilityResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	t, err := u.ticketTypeRepository.FindByID(ctx, req.TicketTypeID, nil)
	if err != nil {
		return CheckAvailabilityResponse{}, err
	}

	availability := ticket.CheckAvailability(t, req.Quantity, time.Now())

	resp := CheckAvailabilityResponse{}
	resp.PopulateFromAvailability(availability)

	return resp, nil
}
