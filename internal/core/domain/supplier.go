// internal/core/domain/supplier.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupplierStatus represents the relationship state with a supplier
type SupplierStatus string

// Supplier status constants
const (
	SupplierActive      SupplierStatus = "active"
	SupplierInactive    SupplierStatus = "inactive"
	SupplierPending     SupplierStatus = "pending"
	SupplierBlacklisted SupplierStatus = "blacklisted"
)

// PaymentTerms represents negotiated payment terms
type PaymentTerms string

// Payment terms constants
const (
	TermsNet15   PaymentTerms = "net_15"
	TermsNet30   PaymentTerms = "net_30"
	TermsNet45   PaymentTerms = "net_45"
	TermsNet60   PaymentTerms = "net_60"
	TermsPrepaid PaymentTerms = "prepaid"
	TermsCOD     PaymentTerms = "cod"
)

// ContactPerson is the primary contact at a supplier.
type ContactPerson struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Position string `json:"position,omitempty"`
}

// CompanyDetails holds registration and tax identifiers.
type CompanyDetails struct {
	RegistrationNumber string `json:"registration_number,omitempty"`
	TaxID              string `json:"tax_id,omitempty"`
	Website            string `json:"website,omitempty"`
}

// PerformanceMetrics tracks delivery and quality history for a supplier.
type PerformanceMetrics struct {
	OnTimeDeliveryRate float64 `json:"on_time_delivery_rate"`
	QualityScore       float64 `json:"quality_score"`
	ResponseTime       float64 `json:"response_time_hours"`
}

// Supplier represents a vendor the business purchases from
type Supplier struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Name           string             `json:"name"`
	ContactPerson  ContactPerson      `json:"contact_person"`
	CompanyDetails CompanyDetails     `json:"company_details"`
	Address        Address            `json:"address"`
	Categories     []ItemCategory     `json:"categories,omitempty"`
	PaymentTerms   PaymentTerms       `json:"payment_terms"`
	Currency       string             `json:"currency"`
	Rating         int                `json:"rating"`
	Performance    PerformanceMetrics `json:"performance"`
	Status         SupplierStatus     `json:"status"`
	Notes          string             `json:"notes,omitempty"`
	CreatedBy      *uuid.UUID         `json:"created_by,omitempty"`
	UpdatedBy      *uuid.UUID         `json:"updated_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Validate performs domain validation on the supplier
func (s *Supplier) Validate() error {
	if strings.TrimSpace(s.Code) == "" {
		return NewValidationError("code", "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if s.Rating != 0 && (s.Rating < 1 || s.Rating > 5) {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	for _, c := range s.Categories {
		if !c.Valid() {
			return NewValidationError("categories", fmt.Sprintf("unknown category %q", c))
		}
	}
	return nil
}

// PrepareForStorage normalizes and defaults the supplier for persistence
func (s *Supplier) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
	s.Name = strings.TrimSpace(s.Name)

	if s.PaymentTerms == "" {
		s.PaymentTerms = TermsNet30
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}
	if s.Rating == 0 {
		s.Rating = 3
	}
	if s.Status == "" {
		s.Status = SupplierActive
	}

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
