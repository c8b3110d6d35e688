package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/repositories"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/postgres"
	apperrors "github.com/lifeline-health/hospitalfinder/pkg/errors"
)

const hospitalsTable = "hospitals"

var hospitalColumns = []interface{}{
	"id", "external_key", "name", "latitude", "longitude",
	"city", "phone_number", "is_active", "created_at", "updated_at",
}

// HospitalAdapter implements the HospitalRegistry interface in Postgres
type HospitalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHospitalAdapter creates a new hospital registry adapter
func NewHospitalAdapter(client *postgres.Client) repositories.HospitalRegistry {
	return &HospitalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create registers a new hospital
func (a *HospitalAdapter) Create(ctx context.Context, hospital *entities.HospitalProfile) error {
	record := goqu.Record{
		"id":           hospital.ID,
		"external_key": hospital.ExternalKey,
		"name":         hospital.Name,
		"latitude":     hospital.Location.Latitude,
		"longitude":    hospital.Location.Longitude,
		"city":         sql.NullString{String: hospital.City, Valid: hospital.City != ""},
		"phone_number": sql.NullString{String: hospital.PhoneNumber, Valid: hospital.PhoneNumber != ""},
		"is_active":    hospital.IsActive,
		"created_at":   hospital.CreatedAt,
		"updated_at":   hospital.UpdatedAt,
	}

	query, args, err := a.db.Insert(hospitalsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hospital insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create hospital", err)
	}
	return nil
}

// GetByID retrieves a hospital by ID
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.HospitalProfile, error) {
	return a.getByColumn(ctx, "id", id)
}

// GetByExternalKey retrieves a hospital by its live-store key
func (a *HospitalAdapter) GetByExternalKey(ctx context.Context, key string) (*entities.HospitalProfile, error) {
	return a.getByColumn(ctx, "external_key", key)
}

func (a *HospitalAdapter) getByColumn(ctx context.Context, column, value string) (*entities.HospitalProfile, error) {
	query, args, err := a.db.From(hospitalsTable).
		Select(hospitalColumns...).
		Where(goqu.Ex{column: value, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build hospital select query", err)
	}

	hospital, err := scanHospital(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with %s %s not found", column, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}
	return hospital, nil
}

// Update updates a hospital's registry record
func (a *HospitalAdapter) Update(ctx context.Context, hospital *entities.HospitalProfile) error {
	hospital.UpdatedAt = time.Now().UTC()

	query, args, err := a.db.Update(hospitalsTable).
		Set(goqu.Record{
			"external_key": hospital.ExternalKey,
			"name":         hospital.Name,
			"latitude":     hospital.Location.Latitude,
			"longitude":    hospital.Location.Longitude,
			"city":         sql.NullString{String: hospital.City, Valid: hospital.City != ""},
			"phone_number": sql.NullString{String: hospital.PhoneNumber, Valid: hospital.PhoneNumber != ""},
			"is_active":    hospital.IsActive,
			"updated_at":   hospital.UpdatedAt,
		}).
		Where(goqu.Ex{"id": hospital.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hospital update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update hospital", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", hospital.ID))
	}
	return nil
}

// Delete deactivates a hospital (soft delete)
func (a *HospitalAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Update(hospitalsTable).
		Set(goqu.Record{"is_active": false, "updated_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hospital delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete hospital", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}
	return nil
}

// List retrieves hospitals with filters
func (a *HospitalAdapter) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.HospitalProfile, error) {
	ds := a.db.From(hospitalsTable).Select(hospitalColumns...)

	if filter.City != "" {
		ds = ds.Where(goqu.Ex{"city": filter.City})
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("created_at").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build hospital list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list hospitals", err)
	}
	defer rows.Close()

	hospitals := []*entities.HospitalProfile{}
	for rows.Next() {
		hospital, err := scanHospital(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan hospital", err)
		}
		hospitals = append(hospitals, hospital)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating hospitals", err)
	}
	return hospitals, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHospital(row rowScanner) (*entities.HospitalProfile, error) {
	hospital := &entities.HospitalProfile{}
	var city, phoneNumber sql.NullString

	err := row.Scan(
		&hospital.ID,
		&hospital.ExternalKey,
		&hospital.Name,
		&hospital.Location.Latitude,
		&hospital.Location.Longitude,
		&city,
		&phoneNumber,
		&hospital.IsActive,
		&hospital.CreatedAt,
		&hospital.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	hospital.City = city.String
	hospital.PhoneNumber = phoneNumber.String
	return hospital, nil
}
