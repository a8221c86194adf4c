package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

type TicketTypeRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (TicketType, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (TicketType, error)
	FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]TicketType, error)
	ReserveStock(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error
	CommitSale(ctx context.Context, ID string, quantity int64, earlyBird bool, tx *sql.Tx) error
	ReleaseStock(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type ticketTypeRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketTypeRepository(logger *logrus.Logger, db *sql.DB) TicketTypeRepository {
	return &ticketTypeRepository{
		logger: logger,
		db:     db,
	}
}

const ticketTypeColumns = `
	id, event_id, name, description, base_price,
	is_early_bird, early_bird_price, early_bird_ends, early_bird_capacity, early_bird_sold,
	group_discount_enabled, capacity, sold_count, reserved,
	waitlist_enabled, waitlist_capacity, valid_from, valid_until, is_active, sort_order,
	created_at, updated_at
`

func (r *ticketTypeRepository) scanTicketType(row interface{ Scan(...interface{}) error }) (TicketType, error) {
	var data TicketType
	var description sql.NullString
	var earlyBirdPrice sql.NullFloat64
	var earlyBirdEnds, validFrom, validUntil sql.NullTime
	var earlyBirdCapacity, capacity, waitlistCapacity sql.NullInt64

	err := row.Scan(
		&data.ID, &data.EventID, &data.Name, &description, &data.BasePrice,
		&data.IsEarlyBird, &earlyBirdPrice, &earlyBirdEnds, &earlyBirdCapacity, &data.EarlyBirdSold,
		&data.GroupDiscountEnabled, &capacity, &data.SoldCount, &data.Reserved,
		&data.WaitlistEnabled, &waitlistCapacity, &validFrom, &validUntil, &data.IsActive, &data.SortOrder,
		&data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		return TicketType{}, err
	}

	if description.Valid {
		data.Description = &description.String
	}
	if earlyBirdPrice.Valid {
		data.EarlyBirdPrice = &earlyBirdPrice.Float64
	}
	if earlyBirdEnds.Valid {
		data.EarlyBirdEnds = &earlyBirdEnds.Time
	}
	if earlyBirdCapacity.Valid {
		data.EarlyBirdCapacity = &earlyBirdCapacity.Int64
	}
	if capacity.Valid {
		data.Capacity = &capacity.Int64
	}
	if waitlistCapacity.Valid {
		data.WaitlistCapacity = &waitlistCapacity.Int64
	}
	if validFrom.Valid {
		data.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		data.ValidUntil = &validUntil.Time
	}

	return data, nil
}

func (r *ticketTypeRepository) findGroupDiscountRules(ctx context.Context, cmd sqlCommand, ticketTypeID string) ([]GroupDiscountRule, error) {
	query := `
		SELECT ticket_type_id, min_quantity, discount_percent
		FROM group_discount_rule
		WHERE ticket_type_id = $1
		ORDER BY min_quantity ASC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []GroupDiscountRule
	for rows.Next() {
		var rule GroupDiscountRule
		if err := rows.Scan(&rule.TicketTypeID, &rule.MinQuantity, &rule.DiscountPercent); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func (r *ticketTypeRepository) findByID(ctx context.Context, ID string, tx *sql.Tx, forUpdate bool) (TicketType, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket_type
		WHERE id = $1
	`, ticketTypeColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketType{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket type's properties")
	}
	defer stmt.Close()

	data, err := r.scanTicketType(stmt.QueryRowContext(ctx, ID))
	if err != nil {
		if err == sql.ErrNoRows {
			return TicketType{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket type with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketType{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket type's properties")
	}

	rules, err := r.findGroupDiscountRules(ctx, cmd, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketType{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket type's group discount rules")
	}
	data.GroupDiscountRules = rules

	return data, nil
}

// FindByID implements TicketTypeRepository.
func (r *ticketTypeRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (TicketType, error) {
	return r.findByID(ctx, ID, tx, false)
}

// FindByIDForUpdate implements TicketTypeRepository.
func (r *ticketTypeRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (TicketType, error) {
	return r.findByID(ctx, ID, tx, true)
}

// FindManyByEventID implements TicketTypeRepository.
func (r *ticketTypeRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]TicketType, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket_type
		WHERE event_id = $1
		ORDER BY sort_order ASC, id ASC
	`, ticketTypeColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket type's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket type's properties")
	}
	defer rows.Close()

	var data = make([]TicketType, 0)
	for rows.Next() {
		t, err := r.scanTicketType(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket type's properties")
		}
		data = append(data, t)
	}

	return data, nil
}

// ReserveStock implements TicketTypeRepository. The availability guard and
// the reserved increment run as a single conditional update so concurrent
// admissions cannot oversell; a zero row count means the precondition lost.
func (r *ticketTypeRepository) ReserveStock(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_type
		SET
			reserved = reserved + $1,
			updated_at = $2
		WHERE
			id = $3
		AND is_active = true
		AND (capacity IS NULL OR capacity - sold_count - reserved >= $1)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving ticket stock")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, quantity, time.Now(), ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving ticket stock")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving ticket stock")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, ReasonNotEnoughStock)
	}

	return nil
}

// CommitSale implements TicketTypeRepository. It transfers a confirmed hold
// from reserved to sold in one statement, folding in the early-bird counter
// when the hold was priced at the early-bird rate.
func (r *ticketTypeRepository) CommitSale(ctx context.Context, ID string, quantity int64, earlyBird bool, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_type
		SET
			reserved = reserved - $1,
			sold_count = sold_count + $1,
			early_bird_sold = early_bird_sold + CASE WHEN $2 THEN $1 ELSE 0 END,
			updated_at = $3
		WHERE
			id = $4
		AND reserved >= $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while committing ticket sale")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, quantity, earlyBird, time.Now(), ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while committing ticket sale")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while committing ticket sale")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, "reserved stock is lower than the confirmed quantity")
	}

	return nil
}

// ReleaseStock implements TicketTypeRepository.
func (r *ticketTypeRepository) ReleaseStock(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_type
		SET
			reserved = GREATEST(reserved - $1, 0),
			updated_at = $2
		WHERE
			id = $3
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while releasing ticket stock")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, quantity, time.Now(), ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while releasing ticket stock")
	}

	return nil
}
