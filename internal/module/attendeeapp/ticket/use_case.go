package ticket

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type TicketUseCase interface {
	GetTicketType(ctx context.Context, ID string) (TicketTypeResponse, error)
	GetManyTicketType(ctx context.Context, eventID string) (GetManyTicketTypeResponse, error)
}

type ticketUseCase struct {
	logger               *logrus.Logger
	timeout              time.Duration
	ticketTypeRepository TicketTypeRepository
}

type TicketUseCaseProperty struct {
	Logger               *logrus.Logger
	Timeout              time.Duration
	TicketTypeRepository TicketTypeRepository
}

func NewTicketUseCase(props TicketUseCaseProperty) TicketUseCase {
	return &ticketUseCase{
		logger:               props.Logger,
		timeout:              props.Timeout,
		ticketTypeRepository: props.TicketTypeRepository,
	}
}

// GetTicketType implements TicketUseCase.
func (u *ticketUseCase) GetTicketType(ctx context.Context, ID string) (TicketTypeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	t, err := u.ticketTypeRepository.FindByID(ctx, ID, nil)
	if err != nil {
		return TicketTypeResponse{}, err
	}

	resp := TicketTypeResponse{}
	resp.PopulateFromEntity(t, time.Now())

	return resp, nil
}

// GetManyTicketType implements TicketUseCase. Inactive ticket types stay out
// of the catalog.
func (u *ticketUseCase) GetManyTicketType(ctx context.Context, eventID string) (GetManyTicketTypeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	types, err := u.ticketTypeRepository.FindManyByEventID(ctx, eventID, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	resp := GetManyTicketTypeResponse{}
	for _, t := range types {
		if !t.IsActive {
			continue
		}

		item := TicketTypeResponse{}
		item.PopulateFromEntity(t, now)
		resp = append(resp, item)
	}

	return resp, nil
}
