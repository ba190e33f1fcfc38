// Package plan provides the plan catalog: lookups, management writes and the purchasable invariant.
package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

const (
	keyQueryPattern = "plan_key = ?"

	// CodePlanNotFound is returned when a checkout names an unknown or inactive plan.
	CodePlanNotFound = "PLAN_NOT_FOUND"
	// CodePriceNotConfigured is returned when the plan has no provider price for the interval.
	CodePriceNotConfigured = "PRICE_NOT_CONFIGURED"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrPlanNotFound is returned for an unknown or inactive plan.
	ErrPlanNotFound = apperror.New(apperror.ErrNotFound, CodePlanNotFound, "plan not found")
	// ErrPriceNotConfigured is returned when a plan cannot be bought in the requested interval.
	ErrPriceNotConfigured = apperror.New(apperror.ErrValidation, CodePriceNotConfigured,
		"plan is not purchasable in this interval")
	// ErrPlanKeyEmpty is returned when a plan key is empty.
	ErrPlanKeyEmpty = apperror.Validation("plan key cannot be empty")
	// ErrPlanExists is returned when creating a plan whose key is taken.
	ErrPlanExists = apperror.Validation("plan already exists")
	// ErrNoPrice is returned when an active plan advertises no price at all.
	ErrNoPrice = apperror.Validation("an active plan needs a monthly or yearly price")
	// ErrMissingProviderPrice is returned when an advertised price has no provider price id.
	ErrMissingProviderPrice = apperror.Validation("an advertised price needs a provider price id")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Input is the writable part of a plan.
type Input struct {
	Key                    string          `json:"key" validate:"required,max=100"`
	Label                  string          `json:"label" validate:"required,max=100"`
	Description            string          `json:"description" validate:"max=1000"`
	Type                   models.PlanType `json:"type" validate:"required,oneof=student teacher school"`
	MonthlyPriceCents      *int64          `json:"monthlyPriceCents" validate:"omitnil,gte=0"`
	YearlyPriceCents       *int64          `json:"yearlyPriceCents" validate:"omitnil,gte=0"`
	Currency               string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Highlight              bool            `json:"highlight"`
	IsActive               bool            `json:"isActive"`
	ProviderPriceIDMonthly *string         `json:"providerPriceIdMonthly" validate:"omitnil,min=1"`
	ProviderPriceIDYearly  *string         `json:"providerPriceIdYearly" validate:"omitnil,min=1"`
	MonthlyCredits         int             `json:"monthlyCredits" validate:"gte=0"`
	UnlimitedCredits       bool            `json:"unlimitedCredits"`
	MaxStudents            int             `json:"maxStudents" validate:"gte=0"`
	PDFExport              bool            `json:"pdfExport"`
}

func (in *Input) apply(p *models.Plan) {
	p.Key = in.Key
	p.Label = in.Label
	p.Description = in.Description
	p.Type = in.Type
	p.MonthlyPriceCents = in.MonthlyPriceCents
	p.YearlyPriceCents = in.YearlyPriceCents
	p.Currency = in.Currency
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	p.Highlight = in.Highlight
	p.IsActive = in.IsActive
	p.ProviderPriceIDMonthly = in.ProviderPriceIDMonthly
	p.ProviderPriceIDYearly = in.ProviderPriceIDYearly
	p.MonthlyCredits = in.MonthlyCredits
	p.UnlimitedCredits = in.UnlimitedCredits
	p.MaxStudents = in.MaxStudents
	p.PDFExport = in.PDFExport
}

// ValidatePurchasable enforces the purchasable invariant: at least one price,
// and a provider price id for every advertised price.
func ValidatePurchasable(p *models.Plan) error {
	if p.MonthlyPriceCents == nil && p.YearlyPriceCents == nil {
		return ErrNoPrice
	}

	if p.MonthlyPriceCents != nil && empty(p.ProviderPriceIDMonthly) {
		return fmt.Errorf("%w: monthly", ErrMissingProviderPrice)
	}

	if p.YearlyPriceCents != nil && empty(p.ProviderPriceIDYearly) {
		return fmt.Errorf("%w: yearly", ErrMissingProviderPrice)
	}

	return nil
}

// PriceIDFor returns the provider price id used to buy p in interval.
func PriceIDFor(p *models.Plan, interval models.BillingInterval) (string, error) {
	var id *string

	switch interval {
	case models.IntervalMonth:
		id = p.ProviderPriceIDMonthly
	case models.IntervalYear:
		id = p.ProviderPriceIDYearly
	default:
		return "", apperror.Validation("interval must be MONTH or YEAR")
	}

	if empty(id) {
		return "", ErrPriceNotConfigured
	}

	return *id, nil
}

// Get retrieves a plan by its key, active or not.
func Get(ctx context.Context, db *gorm.DB, key string) (*models.Plan, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrPlanKeyEmpty
	}

	var p models.Plan

	err := db.WithContext(ctx).Where(keyQueryPattern, key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	return &p, nil
}

// GetActive retrieves an active plan by its key.
func GetActive(ctx context.Context, db *gorm.DB, key string) (*models.Plan, error) {
	p, err := Get(ctx, db, key)
	if err != nil {
		return nil, err
	}

	if !p.IsActive {
		return nil, ErrPlanNotFound
	}

	return p, nil
}

// List returns plans ordered by type and monthly price. Inactive plans are
// included only when includeInactive is set.
func List(ctx context.Context, db *gorm.DB, includeInactive bool) ([]models.Plan, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.WithContext(ctx).Order("type").Order("monthly_price_cents").Order("plan_key")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var plans []models.Plan
	if err := q.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}

// Create inserts a plan. Active plans must be purchasable.
func Create(ctx context.Context, db *gorm.DB, in *Input) (*models.Plan, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := validate.Struct(in); err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid plan")
	}

	var p models.Plan
	in.apply(&p)

	if p.IsActive {
		if err := ValidatePurchasable(&p); err != nil {
			return nil, err
		}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Plan{}).Where(keyQueryPattern, p.Key).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check plan key: %w", err)
		}

		if count > 0 {
			return ErrPlanExists
		}

		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Update overwrites the plan stored under key. The key itself cannot change,
// since subscriptions refer to it.
func Update(ctx context.Context, db *gorm.DB, key string, in *Input) (*models.Plan, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	in.Key = key

	if err := validate.Struct(in); err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid plan")
	}

	var p *models.Plan

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		p, err = Get(ctx, tx, key)
		if err != nil {
			return err
		}

		in.apply(p)

		if p.IsActive {
			if err := ValidatePurchasable(p); err != nil {
				return err
			}
		}

		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to update plan: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetActive activates or deactivates a plan. Activation checks the purchasable invariant.
func SetActive(ctx context.Context, db *gorm.DB, key string, active bool) error {
	p, err := Get(ctx, db, key)
	if err != nil {
		return err
	}

	if active {
		if err := ValidatePurchasable(p); err != nil {
			return err
		}
	}

	if err := db.WithContext(ctx).Model(p).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	return nil
}

// FindByProviderPrice returns the plan owning a provider price id, monthly or yearly.
func FindByProviderPrice(ctx context.Context, db *gorm.DB, priceID string) (*models.Plan, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if priceID == "" {
		return nil, ErrPlanNotFound
	}

	var p models.Plan

	err := db.WithContext(ctx).
		Where("provider_price_id_monthly = ? OR provider_price_id_yearly = ?", priceID, priceID).
		Order("id").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load plan by price: %w", err)
	}

	return &p, nil
}

func empty(s *string) bool {
	return s == nil || *s == ""
}
