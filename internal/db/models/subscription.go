package models

import "time"

// SubscriptionStatus is the local entitlement state of a subscription.
type SubscriptionStatus string

const (
	// SubscriptionPending is a checkout that was started but not yet confirmed by the provider.
	SubscriptionPending SubscriptionStatus = "PENDING"
	// SubscriptionActive is a paid or trialing subscription without scheduled cancellation.
	SubscriptionActive SubscriptionStatus = "ACTIVE"
	// SubscriptionCancelAtPeriodEnd is still paid but ends at ExpiresAt.
	SubscriptionCancelAtPeriodEnd SubscriptionStatus = "CANCEL_AT_PERIOD_END"
	// SubscriptionCanceled is fully canceled.
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
	// SubscriptionExpired covers every lapsed provider state (unpaid, incomplete, past due...).
	SubscriptionExpired SubscriptionStatus = "EXPIRED"
)

// Subscription is the local mirror of a user's payment provider subscription.
// There is exactly one row per user; it is written by the billing synchronizer only.
type Subscription struct {
	// ID is the unique identifier for the row.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the owner. Unique: webhook writes are upserts keyed on it.
	UserID uint64 `gorm:"column:user_id;uniqueIndex;not null"`
	// PlanKey is a soft reference to Plan.Key; it may point to a plan that no longer exists.
	PlanKey *string `gorm:"size:100"`
	// Status is the entitlement state.
	Status SubscriptionStatus `gorm:"type:varchar(32);not null"`
	// BillingInterval is MONTH or YEAR.
	BillingInterval BillingInterval `gorm:"type:varchar(16);not null"`
	// ProviderCustomerID is the payment provider customer of the user.
	ProviderCustomerID *string `gorm:"size:191"`
	// ProviderSubscriptionID is the payment provider subscription, used to correlate events without metadata.
	ProviderSubscriptionID *string `gorm:"size:191;index"`
	// ExpiresAt is the end of the paid period, nil when unknown.
	ExpiresAt *time.Time
	// LastEventAt is the creation time of the newest provider event applied to the row.
	LastEventAt *time.Time
	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Subscription model.
func (Subscription) TableName() string {
	return "subscriptions"
}
