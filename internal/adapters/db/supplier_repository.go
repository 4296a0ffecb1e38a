// internal/adapters/db/supplier_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

var supplierColumns = []string{
	"id", "code", "name",
	"contact_name", "contact_email", "contact_phone", "contact_position",
	"registration_number", "tax_id", "website",
	"street", "city", "state", "zip_code", "country",
	"categories", "payment_terms", "currency", "rating",
	"on_time_delivery_rate", "quality_score", "response_time_hours",
	"status", "notes", "created_by", "updated_by", "created_at", "updated_at",
}

// supplierRepository implements ports.SupplierRepository
type supplierRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *Database, logger *slog.Logger) ports.SupplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "suppliers")),
	}
}

// Save creates a new supplier
func (r *supplierRepository) Save(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (
			id, code, name,
			contact_name, contact_email, contact_phone, contact_position,
			registration_number, tax_id, website,
			street, city, state, zip_code, country,
			categories, payment_terms, currency, rating,
			on_time_delivery_rate, quality_score, response_time_hours,
			status, notes, created_by, updated_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28
		)`

	if _, err := r.db.Exec(ctx, query, supplierArgs(supplier)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &domain.DuplicateKeyError{Field: "code", Value: supplier.Code}
		}
		return fmt.Errorf("failed to save supplier: %w", err)
	}

	r.logger.DebugContext(ctx, "supplier saved",
		slog.String("id", supplier.ID.String()),
		slog.String("code", supplier.Code))

	return nil
}

// Update updates an existing supplier
func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		UPDATE suppliers SET
			code = $2, name = $3,
			contact_name = $4, contact_email = $5, contact_phone = $6, contact_position = $7,
			registration_number = $8, tax_id = $9, website = $10,
			street = $11, city = $12, state = $13, zip_code = $14, country = $15,
			categories = $16, payment_terms = $17, currency = $18, rating = $19,
			on_time_delivery_rate = $20, quality_score = $21, response_time_hours = $22,
			status = $23, notes = $24, updated_by = $25, updated_at = $26
		WHERE id = $1`

	supplier.UpdatedAt = time.Now()

	categories := make([]string, len(supplier.Categories))
	for i, c := range supplier.Categories {
		categories[i] = string(c)
	}

	tag, err := r.db.Exec(ctx, query,
		supplier.ID, supplier.Code, supplier.Name,
		nullIfEmpty(supplier.ContactPerson.Name), nullIfEmpty(supplier.ContactPerson.Email),
		nullIfEmpty(supplier.ContactPerson.Phone), nullIfEmpty(supplier.ContactPerson.Position),
		nullIfEmpty(supplier.CompanyDetails.RegistrationNumber), nullIfEmpty(supplier.CompanyDetails.TaxID),
		nullIfEmpty(supplier.CompanyDetails.Website),
		nullIfEmpty(supplier.Address.Street), nullIfEmpty(supplier.Address.City),
		nullIfEmpty(supplier.Address.State), nullIfEmpty(supplier.Address.ZipCode),
		nullIfEmpty(supplier.Address.Country),
		categories, supplier.PaymentTerms, supplier.Currency, supplier.Rating,
		supplier.Performance.OnTimeDeliveryRate, supplier.Performance.QualityScore,
		supplier.Performance.ResponseTime,
		supplier.Status, nullIfEmpty(supplier.Notes), supplier.UpdatedBy, supplier.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &domain.DuplicateKeyError{Field: "code", Value: supplier.Code}
		}
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("supplier", supplier.ID.String())
	}

	return nil
}

// FindByID retrieves a supplier by ID
func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := selectSuppliers().Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	supplier, err := scanSupplier(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("supplier", id.String())
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}

	return supplier, nil
}

// FindByCode retrieves a supplier by its code
func (r *supplierRepository) FindByCode(ctx context.Context, code string) (*domain.Supplier, error) {
	query := selectSuppliers().Where(squirrel.Eq{"code": code})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	supplier, err := scanSupplier(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("supplier", code)
		}
		return nil, fmt.Errorf("failed to find supplier by code: %w", err)
	}

	return supplier, nil
}

// FindAll retrieves suppliers with filtering and pagination
func (r *supplierRepository) FindAll(ctx context.Context, params ports.SupplierListParams) (*ports.SupplierListResult, error) {
	qb := selectSuppliers()

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"contact_name": pattern},
		})
	}
	if params.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": params.Status})
	}
	if params.Category != "" {
		qb = qb.Where("? = ANY(categories)", params.Category)
	}

	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	discard := make([]interface{}, len(supplierColumns)+1)
	row := r.db.QueryRow(ctx, countSQL, countArgs...)
	if err := scanCountOver(row, discard, &totalCount); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}

	direction := "ASC"
	if params.SortOrder == "desc" {
		direction = "DESC"
	}
	switch params.SortBy {
	case "code":
		qb = qb.OrderBy("code " + direction)
	case "rating":
		qb = qb.OrderBy("rating " + direction)
	case "created":
		qb = qb.OrderBy("created_at " + direction)
	default:
		qb = qb.OrderBy("name " + direction)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &ports.SupplierListResult{
		Suppliers:  suppliers,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// Delete removes a supplier
func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("supplier", id.String())
	}

	r.logger.InfoContext(ctx, "supplier deleted", slog.String("id", id.String()))
	return nil
}

// Count returns the total number of suppliers
func (r *supplierRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count suppliers: %w", err)
	}
	return count, nil
}

func selectSuppliers() squirrel.SelectBuilder {
	return squirrel.Select(supplierColumns...).
		From("suppliers").
		PlaceholderFormat(squirrel.Dollar)
}

// scanSupplier scans one supplier row in supplierColumns order
func scanSupplier(row rowScanner) (*domain.Supplier, error) {
	supplier := &domain.Supplier{}
	var contactName, contactEmail, contactPhone, contactPosition sql.NullString
	var registrationNumber, taxID, website sql.NullString
	var street, city, state, zipCode, country, notes sql.NullString
	var categories []string

	err := row.Scan(
		&supplier.ID, &supplier.Code, &supplier.Name,
		&contactName, &contactEmail, &contactPhone, &contactPosition,
		&registrationNumber, &taxID, &website,
		&street, &city, &state, &zipCode, &country,
		&categories, &supplier.PaymentTerms, &supplier.Currency, &supplier.Rating,
		&supplier.Performance.OnTimeDeliveryRate, &supplier.Performance.QualityScore,
		&supplier.Performance.ResponseTime,
		&supplier.Status, &notes, &supplier.CreatedBy, &supplier.UpdatedBy,
		&supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	supplier.ContactPerson = domain.ContactPerson{
		Name:     contactName.String,
		Email:    contactEmail.String,
		Phone:    contactPhone.String,
		Position: contactPosition.String,
	}
	supplier.CompanyDetails = domain.CompanyDetails{
		RegistrationNumber: registrationNumber.String,
		TaxID:              taxID.String,
		Website:            website.String,
	}
	supplier.Address = domain.Address{
		Street:  street.String,
		City:    city.String,
		State:   state.String,
		ZipCode: zipCode.String,
		Country: country.String,
	}
	for _, c := range categories {
		supplier.Categories = append(supplier.Categories, domain.ItemCategory(c))
	}
	supplier.Notes = notes.String

	return supplier, nil
}

func supplierArgs(supplier *domain.Supplier) []interface{} {
	categories := make([]string, len(supplier.Categories))
	for i, c := range supplier.Categories {
		categories[i] = string(c)
	}

	return []interface{}{
		supplier.ID, supplier.Code, supplier.Name,
		nullIfEmpty(supplier.ContactPerson.Name), nullIfEmpty(supplier.ContactPerson.Email),
		nullIfEmpty(supplier.ContactPerson.Phone), nullIfEmpty(supplier.ContactPerson.Position),
		nullIfEmpty(supplier.CompanyDetails.RegistrationNumber), nullIfEmpty(supplier.CompanyDetails.TaxID),
		nullIfEmpty(supplier.CompanyDetails.Website),
		nullIfEmpty(supplier.Address.Street), nullIfEmpty(supplier.Address.City),
		nullIfEmpty(supplier.Address.State), nullIfEmpty(supplier.Address.ZipCode),
		nullIfEmpty(supplier.Address.Country),
		categories, supplier.PaymentTerms, supplier.Currency, supplier.Rating,
		supplier.Performance.OnTimeDeliveryRate, supplier.Performance.QualityScore,
		supplier.Performance.ResponseTime,
		supplier.Status, nullIfEmpty(supplier.Notes), supplier.CreatedBy, supplier.UpdatedBy,
		supplier.CreatedAt, supplier.UpdatedAt,
	}
}
