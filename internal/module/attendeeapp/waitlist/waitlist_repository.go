package waitlist

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

type WaitlistRepository interface {
	Save(ctx context.Context, e Entry, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Entry, error)
	FindManyByTicketTypeID(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) ([]Entry, error)
	CountPending(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) (int64, error)
	FindNextUnnotified(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) (*Entry, error)
	MarkNotified(ctx context.Context, ID string, notifiedAt time.Time, tx *sql.Tx) error
	MarkConverted(ctx context.Context, ID string, convertedAt time.Time, tx *sql.Tx) error
	ShiftPositionsAfter(ctx context.Context, eventID string, ticketTypeID string, position int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type waitlistRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewWaitlistRepository(logger *logrus.Logger, db *sql.DB) WaitlistRepository {
	return &waitlistRepository{
		logger: logger,
		db:     db,
	}
}

const entryColumns = `
	id, event_id, ticket_type_id, first_name, last_name, email, phone,
	position, notified, notified_at, converted, converted_at, expires_at,
	created_at, updated_at
`

func scanEntry(row interface{ Scan(...interface{}) error }) (Entry, error) {
	var e Entry
	var phone sql.NullString
	var notifiedAt, convertedAt, expiresAt sql.NullTime

	err := row.Scan(
		&e.ID, &e.EventID, &e.TicketTypeID, &e.FirstName, &e.LastName, &e.Email, &phone,
		&e.Position, &e.Notified, &notifiedAt, &e.Converted, &convertedAt, &expiresAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}

	if phone.Valid {
		e.Phone = &phone.String
	}
	if notifiedAt.Valid {
		e.NotifiedAt = &notifiedAt.Time
	}
	if convertedAt.Valid {
		e.ConvertedAt = &convertedAt.Time
	}
	if expiresAt.Valid {
		e.ExpiresAt = &expiresAt.Time
	}

	return e, nil
}

// Save implements WaitlistRepository.
func (r *waitlistRepository) Save(ctx context.Context, e Entry, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO waitlist_entry
		(
			id, event_id, ticket_type_id, first_name, last_name, email, phone,
			position, notified, converted, expires_at, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving waitlist entry's properties")
	}
	defer stmt.Close()

	var phone sql.NullString
	if e.Phone != nil {
		phone.Valid = true
		phone.String = *e.Phone
	}

	var expiresAt sql.NullTime
	if e.ExpiresAt != nil {
		expiresAt.Valid = true
		expiresAt.Time = *e.ExpiresAt
	}

	_, err = stmt.ExecContext(ctx,
		e.ID, e.EventID, e.TicketTypeID, e.FirstName, e.LastName, e.Email, phone,
		e.Position, e.Notified, e.Converted, expiresAt, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving waitlist entry's properties")
	}

	return nil
}

// FindByID implements WaitlistRepository.
func (r *waitlistRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Entry, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM waitlist_entry
		WHERE id = $1
		LIMIT 1
	`, entryColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Entry{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting waitlist entry's properties")
	}
	defer stmt.Close()

	e, err := scanEntry(stmt.QueryRowContext(ctx, ID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("waitlist entry with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Entry{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting waitlist entry's properties")
	}

	return e, nil
}

// FindManyByTicketTypeID implements WaitlistRepository.
func (r *waitlistRepository) FindManyByTicketTypeID(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) ([]Entry, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM waitlist_entry
		WHERE
			event_id = $1
		AND ticket_type_id = $2
		AND converted = false
		ORDER BY position ASC
	`, entryColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of waitlist entry's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID, ticketTypeID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of waitlist entry's properties")
	}
	defer rows.Close()

	var data = make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of waitlist entry's properties")
		}
		data = append(data, e)
	}

	return data, nil
}

// CountPending implements WaitlistRepository.
func (r *waitlistRepository) CountPending(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM waitlist_entry
		WHERE
			event_id = $1
		AND ticket_type_id = $2
		AND converted = false
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting waitlist entries")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, eventID, ticketTypeID).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting waitlist entries")
	}

	return count, nil
}

// FindNextUnnotified implements WaitlistRepository. Nil without error means
// the queue holds no candidate.
func (r *waitlistRepository) FindNextUnnotified(ctx context.Context, eventID string, ticketTypeID string, tx *sql.Tx) (*Entry, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM waitlist_entry
		WHERE
			event_id = $1
		AND ticket_type_id = $2
		AND converted = false
		AND notified = false
		ORDER BY position ASC
		LIMIT 1
	`, entryColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting waitlist entry's properties")
	}
	defer stmt.Close()

	e, err := scanEntry(stmt.QueryRowContext(ctx, eventID, ticketTypeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting waitlist entry's properties")
	}

	return &e, nil
}

// MarkNotified implements WaitlistRepository.
func (r *waitlistRepository) MarkNotified(ctx context.Context, ID string, notifiedAt time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE waitlist_entry
		SET
			notified = true,
			notified_at = $1,
			updated_at = $1
		WHERE id = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating waitlist entry's properties")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, notifiedAt, ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating waitlist entry's properties")
	}

	return nil
}

// MarkConverted implements WaitlistRepository. Conversion is the queue's
// logical delete; its row stays for audit history.
func (r *waitlistRepository) MarkConverted(ctx context.Context, ID string, convertedAt time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE waitlist_entry
		SET
			converted = true,
			converted_at = $1,
			updated_at = $1
		WHERE
			id = $2
		AND converted = false
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating waitlist entry's properties")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, convertedAt, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating waitlist entry's properties")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating waitlist entry's properties")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, "waitlist entry has already been converted")
	}

	return nil
}

// ShiftPositionsAfter implements WaitlistRepository. The renumbering is one
// bounded update over the affected queue's tail, keeping positions dense
// under concurrent joins.
func (r *waitlistRepository) ShiftPositionsAfter(ctx context.Context, eventID string, ticketTypeID string, position int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE waitlist_entry
		SET
			position = position - 1,
			updated_at = $1
		WHERE
			event_id = $2
		AND ticket_type_id = $3
		AND position > $4
		AND converted = false
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while renumbering waitlist positions")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, time.Now(), eventID, ticketTypeID, position); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while renumbering waitlist positions")
	}

	return nil
}
