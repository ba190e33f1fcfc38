package handler

import (
	"time"

	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// SubscriptionView is the api representation of a subscription.
type SubscriptionView struct {
	UserID                 uint64                    `json:"userId"`
	PlanKey                *string                   `json:"planKey"`
	Status                 models.SubscriptionStatus `json:"status"`
	BillingInterval        models.BillingInterval    `json:"billingInterval"`
	ProviderCustomerID     *string                   `json:"providerCustomerId,omitempty"`
	ProviderSubscriptionID *string                   `json:"providerSubscriptionId,omitempty"`
	ExpiresAt              *time.Time                `json:"expiresAt"`
	CreatedAt              time.Time                 `json:"createdAt"`
	UpdatedAt              time.Time                 `json:"updatedAt"`
}

// NewSubscriptionView converts sub, nil stays nil. Provider ids are only
// included when withProvider is set.
func NewSubscriptionView(sub *models.Subscription, withProvider bool) *SubscriptionView {
	if sub == nil {
		return nil
	}

	v := &SubscriptionView{
		UserID:          sub.UserID,
		PlanKey:         sub.PlanKey,
		Status:          sub.Status,
		BillingInterval: sub.BillingInterval,
		ExpiresAt:       sub.ExpiresAt,
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}

	if withProvider {
		v.ProviderCustomerID = sub.ProviderCustomerID
		v.ProviderSubscriptionID = sub.ProviderSubscriptionID
	}

	return v
}
