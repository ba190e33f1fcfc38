// Package billing keeps the local Subscription rows consistent with the payment
// provider. It is the only writer of the subscriptions table.
//
// Writes are keyed by user id and go through insert-if-missing followed by a
// guarded update in one transaction, so concurrent and repeated deliveries
// converge. Subscription events carry the provider event time in LastEventAt;
// an event older than the stored one is not applied.
package billing

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/billing/provider"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/logger"
)

// Config is the synchronizer part of the billing configuration.
type Config struct {
	SuccessURL       string
	CancelURL        string
	WebhookSecret    string
	WebhookTolerance time.Duration
	// OptimisticCheckout marks the subscription ACTIVE when a checkout starts,
	// before the provider confirms payment. Otherwise the row stays PENDING.
	OptimisticCheckout bool
}

// Synchronizer reconciles subscriptions with the payment provider.
type Synchronizer struct {
	db        *gorm.DB
	client    provider.Client
	cfg       Config
	now       func() time.Time
	customers singleflight.Group
	log       zerolog.Logger
}

// New creates a synchronizer.
func New(db *gorm.DB, client provider.Client, cfg Config) *Synchronizer {
	return &Synchronizer{
		db:     db,
		client: client,
		cfg:    cfg,
		now:    time.Now,
		log:    logger.For("billing"),
	}
}

// MapStatus maps a provider subscription onto the local status.
// Active and trialing subscriptions with a scheduled cancellation are CANCEL_AT_PERIOD_END.
func MapStatus(sub *provider.Subscription) models.SubscriptionStatus {
	switch sub.Status {
	case provider.StatusActive, provider.StatusTrialing:
		if sub.CancelAtPeriodEnd || sub.CancelAt != 0 {
			return models.SubscriptionCancelAtPeriodEnd
		}

		return models.SubscriptionActive
	case provider.StatusCanceled:
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionExpired
	}
}

// ResolveInterval picks the billing interval from the metadata, then from the
// recurring interval of the first line item price, and defaults to MONTH.
func ResolveInterval(meta provider.Metadata, sub *provider.Subscription) models.BillingInterval {
	if interval, ok := parseInterval(meta.Get(provider.MetaBillingInterval)); ok {
		return interval
	}

	if sub != nil {
		if item := sub.FirstItem(); item != nil && item.Price.Recurring != nil {
			if interval, ok := parseInterval(item.Price.Recurring.Interval); ok {
				return interval
			}
		}
	}

	return models.IntervalMonth
}

func parseInterval(s string) (models.BillingInterval, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(models.IntervalMonth):
		return models.IntervalMonth, true
	case string(models.IntervalYear):
		return models.IntervalYear, true
	default:
		return "", false
	}
}

// change lists the columns an event assigns. Nil fields are left untouched on
// an existing row.
type change struct {
	status         models.SubscriptionStatus
	planKey        *string
	interval       models.BillingInterval
	customerID     *string
	subscriptionID *string
	expiresAt      *time.Time
	eventAt        *time.Time
}

func (c *change) row(userID uint64) *models.Subscription {
	interval := c.interval
	if interval == "" {
		interval = models.IntervalMonth
	}

	return &models.Subscription{
		UserID:                 userID,
		PlanKey:                c.planKey,
		Status:                 c.status,
		BillingInterval:        interval,
		ProviderCustomerID:     c.customerID,
		ProviderSubscriptionID: c.subscriptionID,
		ExpiresAt:              c.expiresAt,
		LastEventAt:            c.eventAt,
	}
}

func (c *change) updates() map[string]any {
	u := map[string]any{"status": c.status}

	if c.planKey != nil {
		u["plan_key"] = *c.planKey
	}

	if c.interval != "" {
		u["billing_interval"] = c.interval
	}

	if c.customerID != nil {
		u["provider_customer_id"] = *c.customerID
	}

	if c.subscriptionID != nil {
		u["provider_subscription_id"] = *c.subscriptionID
	}

	if c.expiresAt != nil {
		u["expires_at"] = *c.expiresAt
	}

	if c.eventAt != nil {
		u["last_event_at"] = *c.eventAt
	}

	return u
}

// apply writes c for userID. It reports false when the stored row already
// reflects a newer event.
func (s *Synchronizer) apply(ctx context.Context, userID uint64, c *change) (bool, error) {
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(c.row(userID)).Error
		if err != nil {
			return err
		}

		q := tx.Model(&models.Subscription{}).Where("user_id = ?", userID)
		if c.eventAt != nil {
			q = q.Where("(last_event_at IS NULL OR last_event_at <= ?)", *c.eventAt)
		}

		res := q.Updates(c.updates())
		if res.Error != nil {
			return res.Error
		}

		applied = res.RowsAffected > 0

		return nil
	})

	return applied, err
}

// Get returns the subscription of a user.
func (s *Synchronizer) Get(ctx context.Context, userID uint64) (*models.Subscription, error) {
	var sub models.Subscription

	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&sub)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, ErrSubscriptionNotFound
	}

	return &sub, nil
}

// DeleteSubscription removes the subscription row of a user (explicit admin action).
func (s *Synchronizer) DeleteSubscription(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return apperror.Validation("user id must not be zero")
	}

	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	s.log.Info().Uint64("user_id", userID).Msg("subscription removed")

	return nil
}

// ErrSubscriptionNotFound is returned when a user has no subscription row.
var ErrSubscriptionNotFound = apperror.NotFound("subscription not found")
