package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

type RegistrationRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, r Registration, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Registration, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error)
	FindByTicketCode(ctx context.Context, ticketCode string, tx *sql.Tx) (Registration, error)
	FindManyByAccountID(ctx context.Context, accountID int64, offset, limit int64, tx *sql.Tx) ([]Registration, error)
	Update(ctx context.Context, ID string, r Registration, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type registrationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewRegistrationRepository(logger *logrus.Logger, db *sql.DB) RegistrationRepository {
	return &registrationRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements RegistrationRepository.
func (r *registrationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements RegistrationRepository.
func (r *registrationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements RegistrationRepository.
func (r *registrationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const registrationColumns = `
	id, event_id, ticket_type_id, account_id, first_name, last_name, email, phone,
	group_size, status, original_price, discount_amount, final_price, discount_code,
	price_breakdown, payment_status, payment_reference, payment_date,
	ticket_code, qr_code_image, checked_in, check_in_time,
	confirmation_sent, confirmation_sent_at, was_waitlisted,
	created_at, updated_at, confirmed_at
`

func scanRegistration(row interface{ Scan(...interface{}) error }) (Registration, error) {
	var data Registration
	var accountID sql.NullInt64
	var phone, discountCode, paymentReference sql.NullString
	var paymentDate, checkInTime, confirmationSentAt, confirmedAt sql.NullTime
	var priceBreakdown []byte

	err := row.Scan(
		&data.ID, &data.EventID, &data.TicketTypeID, &accountID, &data.FirstName, &data.LastName, &data.Email, &phone,
		&data.GroupSize, &data.Status, &data.OriginalPrice, &data.DiscountAmount, &data.FinalPrice, &discountCode,
		&priceBreakdown, &data.PaymentStatus, &paymentReference, &paymentDate,
		&data.TicketCode, &data.QRCodeImage, &data.CheckedIn, &checkInTime,
		&data.ConfirmationSent, &confirmationSentAt, &data.WasWaitlisted,
		&data.CreatedAt, &data.UpdatedAt, &confirmedAt,
	)
	if err != nil {
		return Registration{}, err
	}

	if accountID.Valid {
		data.AccountID = &accountID.Int64
	}
	if phone.Valid {
		data.Phone = &phone.String
	}
	if discountCode.Valid {
		data.DiscountCode = &discountCode.String
	}
	if paymentReference.Valid {
		data.PaymentReference = &paymentReference.String
	}
	if paymentDate.Valid {
		data.PaymentDate = &paymentDate.Time
	}
	if checkInTime.Valid {
		data.CheckInTime = &checkInTime.Time
	}
	if confirmationSentAt.Valid {
		data.ConfirmationSentAt = &confirmationSentAt.Time
	}
	if confirmedAt.Valid {
		data.ConfirmedAt = &confirmedAt.Time
	}

	if len(priceBreakdown) > 0 {
		if err := json.Unmarshal(priceBreakdown, &data.PriceBreakdown); err != nil {
			return Registration{}, err
		}
	}

	return data, nil
}

func (r *registrationRepository) findOne(ctx context.Context, tx *sql.Tx, where string, forUpdate bool, args ...interface{}) (Registration, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM registration
		WHERE %s
		LIMIT 1
	`, registrationColumns, where)
	if forUpdate {
		query += " FOR UPDATE"
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Registration{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting registration's properties")
	}
	defer stmt.Close()

	data, err := scanRegistration(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return Registration{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "registration is not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Registration{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting registration's properties")
	}

	return data, nil
}

// FindByID implements RegistrationRepository.
func (r *registrationRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	return r.findOne(ctx, tx, "id = $1", false, ID)
}

// FindByIDForUpdate implements RegistrationRepository.
func (r *registrationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Registration, error) {
	return r.findOne(ctx, tx, "id = $1", true, ID)
}

// FindByTicketCode implements RegistrationRepository.
func (r *registrationRepository) FindByTicketCode(ctx context.Context, ticketCode string, tx *sql.Tx) (Registration, error) {
	return r.findOne(ctx, tx, "ticket_code = $1", false, ticketCode)
}

// FindManyByAccountID implements RegistrationRepository.
func (r *registrationRepository) FindManyByAccountID(ctx context.Context, accountID int64, offset, limit int64, tx *sql.Tx) ([]Registration, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM registration
		WHERE account_id = $1
		ORDER BY id DESC
		OFFSET $2
		LIMIT $3
	`, registrationColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, accountID, offset, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
	}
	defer rows.Close()

	var data = make([]Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
		}
		data = append(data, reg)
	}

	return data, nil
}

// Save implements RegistrationRepository.
func (r *registrationRepository) Save(ctx context.Context, reg Registration, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO registration
		(
			id, event_id, ticket_type_id, account_id, first_name, last_name, email, phone,
			group_size, status, original_price, discount_amount, final_price, discount_code,
			price_breakdown, payment_status, payment_reference, payment_date,
			ticket_code, qr_code_image, checked_in, check_in_time,
			confirmation_sent, confirmation_sent_at, was_waitlisted,
			created_at, updated_at, confirmed_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving registration's properties")
	}
	defer stmt.Close()

	priceBreakdown, _ := json.Marshal(reg.PriceBreakdown)

	_, err = stmt.ExecContext(ctx,
		reg.ID, reg.EventID, reg.TicketTypeID, reg.AccountID, reg.FirstName, reg.LastName, reg.Email, reg.Phone,
		reg.GroupSize, reg.Status, reg.OriginalPrice, reg.DiscountAmount, reg.FinalPrice, reg.DiscountCode,
		priceBreakdown, reg.PaymentStatus, reg.PaymentReference, reg.PaymentDate,
		reg.TicketCode, reg.QRCodeImage, reg.CheckedIn, reg.CheckInTime,
		reg.ConfirmationSent, reg.ConfirmationSentAt, reg.WasWaitlisted,
		reg.CreatedAt, reg.UpdatedAt, reg.ConfirmedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving registration's properties")
	}

	return nil
}

// Update implements RegistrationRepository.
func (r *registrationRepository) Update(ctx context.Context, ID string, reg Registration, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE registration
		SET
			status = $1,
			payment_status = $2,
			payment_reference = $3,
			payment_date = $4,
			checked_in = $5,
			check_in_time = $6,
			confirmation_sent = $7,
			confirmation_sent_at = $8,
			updated_at = $9,
			confirmed_at = $10
		WHERE id = $11
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating registration's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		reg.Status, reg.PaymentStatus, reg.PaymentReference, reg.PaymentDate,
		reg.CheckedIn, reg.CheckInTime, reg.ConfirmationSent, reg.ConfirmationSentAt,
		reg.UpdatedAt, reg.ConfirmedAt, ID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating registration's properties")
	}

	return nil
}
