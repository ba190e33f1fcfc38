// Package entitlement answers whether a user currently has paid feature access
// and which plan limits apply. It only reads subscriptions and plans.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/plan"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// CodeNoEntitlement is returned by RequireEntitlement for users without an active subscription.
const CodeNoEntitlement = "NO_ACTIVE_SUBSCRIPTION"

// ErrNoEntitlement is returned by RequireEntitlement.
var ErrNoEntitlement = apperror.New(apperror.ErrForbidden, CodeNoEntitlement, "an active subscription is required")

// Limits are the feature caps of a plan.
type Limits struct {
	MonthlyCredits   int  `json:"monthlyCredits"`
	UnlimitedCredits bool `json:"unlimitedCredits"`
	MaxStudents      int  `json:"maxStudents"`
	PDFExport        bool `json:"pdfExport"`
}

// LimitsOf returns the limits stored on a plan.
func LimitsOf(p *models.Plan) Limits {
	return Limits{
		MonthlyCredits:   p.MonthlyCredits,
		UnlimitedCredits: p.UnlimitedCredits,
		MaxStudents:      p.MaxStudents,
		PDFExport:        p.PDFExport,
	}
}

// IsActive reports whether sub grants access at now. ACTIVE and
// CANCEL_AT_PERIOD_END grant access until ExpiresAt (forever when nil);
// every other status never does.
func IsActive(sub *models.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}

	switch sub.Status {
	case models.SubscriptionActive, models.SubscriptionCancelAtPeriodEnd:
		return sub.ExpiresAt == nil || sub.ExpiresAt.After(now)
	default:
		return false
	}
}

// Status is the entitlement view of one user.
type Status struct {
	Active       bool                 `json:"active"`
	Subscription *models.Subscription `json:"-"`
	Limits       Limits               `json:"limits"`
}

// Service is the read side of subscriptions.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new entitlement service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// IsActiveEntitlement reports whether sub grants access now.
func (s *Service) IsActiveEntitlement(sub *models.Subscription) bool {
	return IsActive(sub, s.now())
}

// PlanLimits returns the limits of the plan named by key. A nil or unknown key
// yields zero limits.
func (s *Service) PlanLimits(ctx context.Context, key *string) (Limits, error) {
	if key == nil || *key == "" {
		return Limits{}, nil
	}

	p, err := plan.Get(ctx, s.db, *key)
	if errors.Is(err, plan.ErrPlanNotFound) {
		return Limits{}, nil
	}

	if err != nil {
		return Limits{}, err
	}

	return LimitsOf(p), nil
}

// ForUser returns the subscription of a user with its derived state. Users
// without a subscription get an inactive status and zero limits. Limits are
// only granted while the subscription is active.
func (s *Service) ForUser(ctx context.Context, userID uint64) (*Status, error) {
	var sub models.Subscription

	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&sub)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return &Status{}, nil
	}

	st := &Status{Subscription: &sub, Active: s.IsActiveEntitlement(&sub)}
	if !st.Active {
		return st, nil
	}

	limits, err := s.PlanLimits(ctx, sub.PlanKey)
	if err != nil {
		return nil, err
	}

	st.Limits = limits

	return st, nil
}

type localsKey struct{}

// StatusFrom returns the status loaded by RequireEntitlement, nil if the guard did not run.
func StatusFrom(c fiber.Ctx) *Status {
	st, _ := c.Locals(localsKey{}).(*Status)
	return st
}

// RequireEntitlement creates Fiber middleware that requires an active subscription.
// The loaded status is kept for the handler (StatusFrom).
func RequireEntitlement(svc *Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		p := auth.PrincipalFrom(c)
		if err := auth.CheckAccount(p, false); err != nil {
			return err
		}

		st, err := svc.ForUser(c.Context(), p.ID)
		if err != nil {
			return err
		}

		if !st.Active {
			return ErrNoEntitlement
		}

		c.Locals(localsKey{}, st)

		return c.Next()
	}
}
