package billing

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/billing/provider"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/plan"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// CodeProviderUnavailable is returned when the provider rejects or cannot be reached during checkout.
const CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckoutInput is the checkout request of a user.
type CheckoutInput struct {
	PlanKey    string                 `json:"planKey" validate:"required,max=100"`
	CouponCode string                 `json:"couponCode" validate:"omitempty,max=64,printascii"`
	Interval   models.BillingInterval `json:"interval" validate:"required,oneof=MONTH YEAR"`
}

// Checkout starts a hosted checkout for the principal and returns its redirect URL.
//
// The plan must be active and priced for the interval (PLAN_NOT_FOUND,
// PRICE_NOT_CONFIGURED); those checks run before anything is written. The
// provider customer is created once per user and stored on the subscription row.
func (s *Synchronizer) Checkout(ctx context.Context, p *auth.Principal, in CheckoutInput) (string, error) {
	if p == nil || p.ID == 0 {
		return "", &auth.ForbiddenError{Reason: auth.ReasonUnauthenticated}
	}

	in.Interval = models.BillingInterval(strings.ToUpper(strings.TrimSpace(string(in.Interval))))
	in.PlanKey = strings.TrimSpace(in.PlanKey)
	in.CouponCode = strings.TrimSpace(in.CouponCode)

	if err := validate.Struct(in); err != nil {
		checkoutsTotal.WithLabelValues(apperror.CodeValidation).Inc()
		return "", apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid checkout request")
	}

	pl, err := plan.GetActive(ctx, s.db, in.PlanKey)
	if err != nil {
		checkoutsTotal.WithLabelValues(apperror.Code(err)).Inc()
		return "", err
	}

	priceID, err := plan.PriceIDFor(pl, in.Interval)
	if err != nil {
		checkoutsTotal.WithLabelValues(apperror.Code(err)).Inc()
		return "", err
	}

	customerID, err := s.customerID(ctx, p, in.Interval)
	if err != nil {
		checkoutsTotal.WithLabelValues(CodeProviderUnavailable).Inc()
		return "", err
	}

	userID := strconv.FormatUint(p.ID, 10)

	session, err := s.client.CreateCheckoutSession(ctx, &provider.CheckoutParams{
		CustomerID:        customerID,
		PriceID:           priceID,
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		ClientReferenceID: userID,
		CouponCode:        in.CouponCode,
		Metadata: map[string]string{
			provider.MetaUserID:          userID,
			provider.MetaPlanKey:         pl.Key,
			provider.MetaBillingInterval: string(in.Interval),
		},
	})
	if err != nil {
		checkoutsTotal.WithLabelValues(CodeProviderUnavailable).Inc()
		s.log.Error().Err(err).Uint64("user_id", p.ID).Str("plan", pl.Key).Msg("failed to create checkout session")

		return "", apperror.Wrap(apperror.ErrUpstreamLookup, CodeProviderUnavailable, err, "checkout is unavailable")
	}

	if err := s.markCheckout(ctx, p.ID, pl.Key, in.Interval); err != nil {
		return "", err
	}

	checkoutsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Uint64("user_id", p.ID).Str("plan", pl.Key).Str("interval", string(in.Interval)).
		Bool("optimistic", s.cfg.OptimisticCheckout).Msg("checkout started")

	return session.URL, nil
}

// markCheckout records the chosen plan. Optimistic mode marks the row ACTIVE
// right away; otherwise plan and interval are only filled in while the row is
// still PENDING, so a running subscription is never touched by a new checkout.
func (s *Synchronizer) markCheckout(ctx context.Context, userID uint64, planKey string, interval models.BillingInterval) error {
	if s.cfg.OptimisticCheckout {
		_, err := s.apply(ctx, userID, &change{
			status:   models.SubscriptionActive,
			planKey:  &planKey,
			interval: interval,
		})

		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertPending(tx, userID, interval, nil); err != nil {
			return err
		}

		return tx.Model(&models.Subscription{}).
			Where("user_id = ? AND status = ?", userID, models.SubscriptionPending).
			Updates(map[string]any{"plan_key": planKey, "billing_interval": interval}).Error
	})
}

// customerID returns the stored provider customer of the user, creating and
// storing one on first use. Concurrent checkouts of one user share the creation.
func (s *Synchronizer) customerID(ctx context.Context, p *auth.Principal, interval models.BillingInterval) (string, error) {
	var existing models.Subscription

	res := s.db.WithContext(ctx).Select("provider_customer_id").Where("user_id = ?", p.ID).Limit(1).Find(&existing)
	if res.Error != nil {
		return "", res.Error
	}

	if existing.ProviderCustomerID != nil && *existing.ProviderCustomerID != "" {
		return *existing.ProviderCustomerID, nil
	}

	v, err, _ := s.customers.Do(strconv.FormatUint(p.ID, 10), func() (any, error) {
		// shared by every waiting checkout of the user, so it outlives the first caller
		ctx := context.WithoutCancel(ctx)

		customer, err := s.client.CreateCustomer(ctx, &provider.CustomerParams{UserID: p.ID, Email: p.Email})
		if err != nil {
			s.log.Error().Err(err).Uint64("user_id", p.ID).Msg("failed to create provider customer")
			return "", apperror.Wrap(apperror.ErrUpstreamLookup, CodeProviderUnavailable, err, "checkout is unavailable")
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := insertPending(tx, p.ID, interval, &customer.ID); err != nil {
				return err
			}

			return tx.Model(&models.Subscription{}).
				Where("user_id = ? AND provider_customer_id IS NULL", p.ID).
				Update("provider_customer_id", customer.ID).Error
		})
		if err != nil {
			return "", err
		}

		return customer.ID, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil //nolint:forcetypeassert
}

// insertPending creates a PENDING row for the user unless one exists.
func insertPending(tx *gorm.DB, userID uint64, interval models.BillingInterval, customerID *string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Subscription{
		UserID:             userID,
		Status:             models.SubscriptionPending,
		BillingInterval:    interval,
		ProviderCustomerID: customerID,
	}).Error
}
