package models

import "time"

// PlanType is the audience a plan is sold to.
type PlanType string

const (
	// PlanTypeStudent is a plan for a single learner.
	PlanTypeStudent PlanType = "student"
	// PlanTypeTeacher is a plan for a teacher managing students.
	PlanTypeTeacher PlanType = "teacher"
	// PlanTypeSchool is a plan for a whole institution.
	PlanTypeSchool PlanType = "school"
)

// BillingInterval is the recurring period of a subscription.
type BillingInterval string

const (
	// IntervalMonth bills every month.
	IntervalMonth BillingInterval = "MONTH"
	// IntervalYear bills every year.
	IntervalYear BillingInterval = "YEAR"
)

// Plan is an entry of the plan catalog.
// Prices are stored in minor currency units; a nil price means the interval is not offered.
type Plan struct {
	// ID is the unique identifier for the plan.
	ID uint `gorm:"primaryKey"`
	// Key is the unique human chosen identifier (e.g., "STUDENT_START").
	Key string `gorm:"column:plan_key;uniqueIndex;size:100;not null"`
	// Label is the display name.
	Label string `gorm:"size:100;not null"`
	// Description is the marketing text shown on the pricing page.
	Description string `gorm:"size:1000"`
	// Type is the audience (student, teacher, school).
	Type PlanType `gorm:"type:varchar(20);not null"`
	// MonthlyPriceCents is the monthly price in minor units, nil when not offered monthly.
	MonthlyPriceCents *int64
	// YearlyPriceCents is the yearly price in minor units, nil when not offered yearly.
	YearlyPriceCents *int64
	// Currency is the ISO 4217 code of both prices.
	Currency string `gorm:"size:3;not null;default:'EUR'"`
	// Highlight marks the plan as featured on the pricing page.
	Highlight bool `gorm:"not null"`
	// IsActive makes the plan visible and purchasable.
	IsActive bool `gorm:"not null"`
	// ProviderPriceIDMonthly is the payment provider price used for monthly checkouts.
	ProviderPriceIDMonthly *string `gorm:"size:191;index"`
	// ProviderPriceIDYearly is the payment provider price used for yearly checkouts.
	ProviderPriceIDYearly *string `gorm:"size:191;index"`
	// MonthlyCredits is the monthly credit allowance.
	MonthlyCredits int `gorm:"not null"`
	// UnlimitedCredits lifts the credit allowance entirely.
	UnlimitedCredits bool `gorm:"not null"`
	// MaxStudents caps the number of managed students (teacher and school plans).
	MaxStudents int `gorm:"not null"`
	// PDFExport allows exporting exams as PDF.
	PDFExport bool `gorm:"not null"`
	// CreatedAt is the timestamp when the plan was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the plan was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Plan model.
func (Plan) TableName() string {
	return "plans"
}
