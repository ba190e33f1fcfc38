// Package provider talks to the payment provider: a Stripe compatible REST
// client, the webhook wire types and webhook signature verification.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Webhook event types consumed by the synchronizer.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Provider subscription statuses.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusCanceled = "canceled"
)

// Metadata keys written on checkout sessions and subscriptions.
const (
	MetaUserID          = "userId"
	MetaPlanKey         = "planKey"
	MetaBillingInterval = "billingInterval"
)

// Client is the subset of the provider API the synchronizer needs.
type Client interface {
	CreateCustomer(ctx context.Context, params *CustomerParams) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
}

// Event is a webhook delivery envelope.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

// EventData holds the event object, decoded according to the event type.
type EventData struct {
	Object json.RawMessage `json:"object"`
}

// CreatedAt returns the event creation time, zero if absent.
func (e *Event) CreatedAt() time.Time {
	return unixTime(e.Created)
}

// Metadata is a provider metadata map. Values are strings on the wire but
// numbers are tolerated.
type Metadata map[string]any

// Get returns the trimmed string value of key, "" if absent.
func (m Metadata) Get(key string) string {
	value, ok := m[key]
	if !ok {
		return ""
	}

	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case float64:
		return strconv.FormatInt(int64(cast), 10)
	case json.Number:
		return cast.String()
	default:
		return ""
	}
}

// ExpandableID is a reference the provider sends either as an id string or as
// an expanded object carrying an "id" field.
type ExpandableID string

// UnmarshalJSON accepts both forms.
func (e *ExpandableID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*e = ExpandableID(s)

		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}

	*e = ExpandableID(obj.ID)

	return nil
}

// CheckoutSession is a hosted checkout page.
type CheckoutSession struct {
	ID                string       `json:"id"`
	URL               string       `json:"url"`
	Mode              string       `json:"mode"`
	Customer          ExpandableID `json:"customer"`
	Subscription      ExpandableID `json:"subscription"`
	ClientReferenceID string       `json:"client_reference_id"`
	Metadata          Metadata     `json:"metadata"`
	Created           int64        `json:"created"`
}

// Subscription is a provider subscription object.
type Subscription struct {
	ID                string       `json:"id"`
	Customer          ExpandableID `json:"customer"`
	Status            string       `json:"status"`
	CancelAtPeriodEnd bool         `json:"cancel_at_period_end"`
	CancelAt          int64        `json:"cancel_at"`
	CurrentPeriodEnd  int64        `json:"current_period_end"`
	Items             struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
	Metadata Metadata `json:"metadata"`
	Created  int64    `json:"created"`
}

// SubscriptionItem is one line item of a subscription.
type SubscriptionItem struct {
	ID               string `json:"id"`
	Price            Price  `json:"price"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// Price is a provider price.
type Price struct {
	ID        string     `json:"id"`
	Recurring *Recurring `json:"recurring"`
}

// Recurring describes the billing cycle of a price.
type Recurring struct {
	Interval string `json:"interval"`
}

// FirstItem returns the first line item, nil if there is none.
func (s *Subscription) FirstItem() *SubscriptionItem {
	if len(s.Items.Data) == 0 {
		return nil
	}

	return &s.Items.Data[0]
}

// PeriodEnd returns the end of the current period, falling back to the first
// line item (newer API versions only report it there). Zero if unknown.
func (s *Subscription) PeriodEnd() time.Time {
	if s.CurrentPeriodEnd != 0 {
		return unixTime(s.CurrentPeriodEnd)
	}

	if item := s.FirstItem(); item != nil {
		return unixTime(item.CurrentPeriodEnd)
	}

	return time.Time{}
}

// Customer is a provider customer.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CustomerParams creates a customer for a local user.
type CustomerParams struct {
	UserID uint64
	Email  string
}

// CheckoutParams creates a subscription checkout session.
type CheckoutParams struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CouponCode        string
	// Metadata is written on the session and on the resulting subscription.
	Metadata map[string]string
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}

	return time.Unix(sec, 0).UTC()
}
