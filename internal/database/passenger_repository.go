package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// PassengerRepository handles passenger database operations
type PassengerRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewPassengerRepository creates a new passenger repository
func NewPassengerRepository(db DB, logger *logrus.Logger) *PassengerRepository {
	return &PassengerRepository{db: db, logger: loggerOrDiscard(logger)}
}

const passengerColumns = `id, full_name, document_type, document_number, phone_number, email, benefit_type`

type passengerRow struct {
	ID             int64          `db:"id"`
	FullName       string         `db:"full_name"`
	DocumentType   string         `db:"document_type"`
	DocumentNumber string         `db:"document_number"`
	PhoneNumber    sql.NullString `db:"phone_number"`
	Email          sql.NullString `db:"email"`
	BenefitType    sql.NullString `db:"benefit_type"`
}

// AddOrGetPassenger returns the ID of the passenger holding the candidate's
// document, inserting the candidate only when no such passenger exists.
// When found, the candidate's other fields are ignored.
func (r *PassengerRepository) AddOrGetPassenger(ctx context.Context, candidate *models.Passenger) (int64, error) {
	if candidate == nil || candidate.FullName == "" || candidate.DocumentType == "" || candidate.DocumentNumber == "" {
		return 0, fmt.Errorf("%w: passenger full name and document are required", ErrInvalidArgument)
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	existing, err := r.findByDocument(ctx, conn, candidate.DocumentType, candidate.DocumentNumber)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	query := `
		INSERT INTO passengers (
			full_name, document_type, document_number, phone_number, email, benefit_type
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err = conn.QueryRowxContext(ctx, query,
		candidate.FullName, candidate.DocumentType, candidate.DocumentNumber,
		candidate.PhoneNumber, candidate.Email, string(candidate.EffectiveBenefit()),
	).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, &IntegrityError{Entity: "passenger", Msg: "insert affected no rows"}
	case isUniqueViolation(err, passengerDocumentIndex):
		// Another caller registered the same document in between; theirs wins.
		winner, lookupErr := r.findByDocument(ctx, conn, candidate.DocumentType, candidate.DocumentNumber)
		if lookupErr != nil {
			return 0, lookupErr
		}
		if winner == nil {
			return 0, &IntegrityError{Entity: "passenger", Msg: "document reported as duplicate but not found", Err: err}
		}
		return winner.ID, nil
	case err != nil:
		return 0, &StorageError{Op: "insert passenger", Err: err}
	case id == 0:
		return 0, &IntegrityError{Entity: "passenger", Msg: "insert returned no generated id"}
	}

	r.logger.WithFields(logrus.Fields{
		"passenger_id":  id,
		"document_type": candidate.DocumentType,
	}).Info("Passenger registered")
	return id, nil
}

// FindByDocument retrieves a passenger by document type and number.
// A missing passenger yields (nil, nil).
func (r *PassengerRepository) FindByDocument(ctx context.Context, documentType, documentNumber string) (*models.Passenger, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.findByDocument(ctx, conn, documentType, documentNumber)
}

// FindByID retrieves a passenger by ID. A missing passenger yields (nil, nil).
func (r *PassengerRepository) FindByID(ctx context.Context, id int64) (*models.Passenger, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.findByID(ctx, conn, id)
}

// GetAllPassengers retrieves all passengers ordered by name
func (r *PassengerRepository) GetAllPassengers(ctx context.Context) ([]models.Passenger, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []passengerRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT `+passengerColumns+` FROM passengers ORDER BY full_name, id`)
	if err != nil {
		return nil, &StorageError{Op: "list passengers", Err: err}
	}

	passengers := make([]models.Passenger, 0, len(rows))
	for _, row := range rows {
		passengers = append(passengers, *r.toPassenger(row))
	}
	return passengers, nil
}

// UpdatePassenger overwrites the fields of an existing passenger.
// Returns false when no passenger has the given ID.
func (r *PassengerRepository) UpdatePassenger(ctx context.Context, passenger *models.Passenger) (bool, error) {
	if passenger == nil || passenger.ID == 0 {
		return false, fmt.Errorf("%w: passenger id is required", ErrInvalidArgument)
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	query := `
		UPDATE passengers SET
			full_name = $1, document_type = $2, document_number = $3,
			phone_number = $4, email = $5, benefit_type = $6
		WHERE id = $7`

	result, err := conn.ExecContext(ctx, query,
		passenger.FullName, passenger.DocumentType, passenger.DocumentNumber,
		passenger.PhoneNumber, passenger.Email, string(passenger.EffectiveBenefit()),
		passenger.ID,
	)
	if isUniqueViolation(err, passengerDocumentIndex) {
		return false, fmt.Errorf("%w: document already belongs to another passenger", ErrInvalidArgument)
	}
	if err != nil {
		return false, &StorageError{Op: "update passenger", Err: err}
	}
	return rowsAffected(result, "update passenger")
}

func (r *PassengerRepository) findByDocument(ctx context.Context, q queryer, documentType, documentNumber string) (*models.Passenger, error) {
	var row passengerRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT `+passengerColumns+` FROM passengers WHERE document_type = $1 AND document_number = $2`,
		documentType, documentNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "find passenger by document", Err: err}
	}
	return r.toPassenger(row), nil
}

func (r *PassengerRepository) findByID(ctx context.Context, q queryer, id int64) (*models.Passenger, error) {
	var row passengerRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+passengerColumns+` FROM passengers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "find passenger", Err: err}
	}
	return r.toPassenger(row), nil
}

func (r *PassengerRepository) toPassenger(row passengerRow) *models.Passenger {
	passenger := &models.Passenger{
		ID:             row.ID,
		FullName:       row.FullName,
		DocumentType:   row.DocumentType,
		DocumentNumber: row.DocumentNumber,
		BenefitType:    models.BenefitNone,
	}
	if row.PhoneNumber.Valid {
		passenger.PhoneNumber = &row.PhoneNumber.String
	}
	if row.Email.Valid {
		passenger.Email = &row.Email.String
	}
	if row.BenefitType.Valid {
		benefit, known := models.ParseBenefitType(row.BenefitType.String)
		if !known {
			r.logger.WithFields(logrus.Fields{
				"passenger_id": row.ID,
				"benefit_type": row.BenefitType.String,
			}).Warn("Unknown benefit type, treating as NONE")
		}
		passenger.BenefitType = benefit
	}
	return passenger
}
