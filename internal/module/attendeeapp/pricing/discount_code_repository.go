package pricing

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

type DiscountCodeRepository interface {
	FindActiveByCode(ctx context.Context, eventID string, code string, tx *sql.Tx) (*DiscountCode, error)
	IncrementUsage(ctx context.Context, ID string, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type discountCodeRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewDiscountCodeRepository(logger *logrus.Logger, db *sql.DB) DiscountCodeRepository {
	return &discountCodeRepository{
		logger: logger,
		db:     db,
	}
}

// FindActiveByCode implements DiscountCodeRepository. A missing or inactive
// code resolves to nil; a promo that does not apply is a business outcome,
// not an error.
func (r *discountCodeRepository) FindActiveByCode(ctx context.Context, eventID string, code string, tx *sql.Tx) (*DiscountCode, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, code, discount_type, value,
			max_uses, used_count, max_uses_per_user,
			valid_from, valid_until, is_active,
			applicable_ticket_types, min_purchase_amount,
			created_at, updated_at
		FROM discount_code
		WHERE
			event_id = $1
		AND code = $2
		AND is_active = true
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting discount code's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, eventID, code)

	var data DiscountCode
	var maxUses sql.NullInt64
	var validFrom, validUntil sql.NullTime
	var minPurchaseAmount sql.NullFloat64
	var applicableTicketTypes pq.StringArray

	err = row.Scan(
		&data.ID, &data.EventID, &data.Code, &data.DiscountType, &data.Value,
		&maxUses, &data.UsedCount, &data.MaxUsesPerUser,
		&validFrom, &validUntil, &data.IsActive,
		&applicableTicketTypes, &minPurchaseAmount,
		&data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting discount code's properties")
	}

	if maxUses.Valid {
		data.MaxUses = &maxUses.Int64
	}
	if validFrom.Valid {
		data.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		data.ValidUntil = &validUntil.Time
	}
	if minPurchaseAmount.Valid {
		data.MinPurchaseAmount = &minPurchaseAmount.Float64
	}
	data.ApplicableTicketTypes = applicableTicketTypes

	return &data, nil
}

// IncrementUsage implements DiscountCodeRepository. The usage cap guard and
// the increment run as one conditional update so concurrent redemptions of
// the same code cannot push used_count past max_uses.
func (r *discountCodeRepository) IncrementUsage(ctx context.Context, ID string, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE discount_code
		SET
			used_count = used_count + 1,
			updated_at = $1
		WHERE
			id = $2
		AND (max_uses IS NULL OR used_count < max_uses)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while incrementing discount code's usage")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, time.Now(), ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while incrementing discount code's usage")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while incrementing discount code's usage")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, "discount code has reached its usage cap")
	}

	return nil
}
