package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/billing/provider"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/plan"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// CodeInvalidSignature is returned for webhook deliveries failing verification.
const CodeInvalidSignature = "INVALID_SIGNATURE"

// errUncorrelated is the correlation failure of an event without a local user.
var errUncorrelated = apperror.New(apperror.ErrCorrelation, "UNCORRELATED", "event cannot be tied to a user")

// HandleWebhook verifies, decodes and applies one webhook delivery.
//
// A bad signature or body is a validation error and nothing is written.
// Correlation failures are logged and acknowledged with a nil error so the
// provider stops redelivering; storage failures are returned so it retries.
func (s *Synchronizer) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	err := provider.VerifySignature(payload, signature, s.cfg.WebhookSecret, s.cfg.WebhookTolerance, s.now())
	if err != nil {
		eventsTotal.WithLabelValues("unknown", outcomeInvalid).Inc()
		s.log.Warn().Err(err).Msg("rejected webhook delivery")

		return apperror.Wrap(apperror.ErrValidation, CodeInvalidSignature, err, "invalid webhook signature")
	}

	event, err := provider.ParseEvent(payload)
	if err != nil {
		eventsTotal.WithLabelValues("unknown", outcomeInvalid).Inc()
		return apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid webhook payload")
	}

	err = s.Apply(ctx, event)
	if errors.Is(err, apperror.ErrCorrelation) {
		s.log.Warn().Err(err).Str("event_id", event.ID).Str("event_type", event.Type).Msg("dropped webhook event")
		return nil
	}

	return err
}

// Apply applies an already verified event. Unknown event types are ignored.
func (s *Synchronizer) Apply(ctx context.Context, event *provider.Event) error {
	var (
		userID uint64
		err    error
	)

	switch event.Type {
	case provider.EventCheckoutCompleted:
		userID, err = s.checkoutCompleted(ctx, event)
	case provider.EventSubscriptionCreated, provider.EventSubscriptionUpdated:
		userID, err = s.subscriptionChanged(ctx, event)
	case provider.EventSubscriptionDeleted:
		userID, err = s.subscriptionDeleted(ctx, event)
	default:
		eventsTotal.WithLabelValues(event.Type, outcomeIgnored).Inc()
		s.log.Debug().Str("event_type", event.Type).Msg("ignored webhook event")

		return nil
	}

	switch {
	case errors.Is(err, apperror.ErrCorrelation):
		eventsTotal.WithLabelValues(event.Type, outcomeUncorrelated).Inc()
	case err != nil:
		eventsTotal.WithLabelValues(event.Type, outcomeFailed).Inc()
		s.log.Error().Err(err).Str("event_id", event.ID).Str("event_type", event.Type).Msg("failed to apply event")
	default:
		eventsTotal.WithLabelValues(event.Type, outcomeApplied).Inc()
		s.log.Info().Str("event_id", event.ID).Str("event_type", event.Type).Uint64("user_id", userID).
			Msg("applied webhook event")
	}

	return err
}

func (s *Synchronizer) checkoutCompleted(ctx context.Context, event *provider.Event) (uint64, error) {
	var session provider.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return 0, apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid checkout session")
	}

	raw := session.Metadata.Get(provider.MetaUserID)
	if raw == "" {
		raw = session.ClientReferenceID
	}

	userID, ok := parseUserID(raw)
	if !ok {
		return 0, fmt.Errorf("%w: checkout session %s has no user id", errUncorrelated, session.ID)
	}

	planKey := session.Metadata.Get(provider.MetaPlanKey)
	if planKey == "" {
		return 0, fmt.Errorf("%w: checkout session %s has no plan key", errUncorrelated, session.ID)
	}

	c := &change{
		status:  models.SubscriptionActive,
		planKey: &planKey,
		eventAt: eventTime(event),
	}

	if session.Customer != "" {
		c.customerID = ptr(string(session.Customer))
	}

	var sub *provider.Subscription

	if session.Subscription != "" {
		c.subscriptionID = ptr(string(session.Subscription))
		sub = s.lookupSubscription(ctx, string(session.Subscription))
	}

	c.interval = ResolveInterval(session.Metadata, sub)

	if sub != nil {
		if end := sub.PeriodEnd(); !end.IsZero() {
			c.expiresAt = &end
		}
	}

	_, err := s.apply(ctx, userID, c)

	return userID, err
}

func (s *Synchronizer) subscriptionChanged(ctx context.Context, event *provider.Event) (uint64, error) {
	sub, userID, err := s.correlate(ctx, event)
	if err != nil {
		return 0, err
	}

	c := &change{
		status:         MapStatus(sub),
		interval:       ResolveInterval(sub.Metadata, sub),
		subscriptionID: ptr(sub.ID),
		eventAt:        eventTime(event),
		planKey:        s.planKeyOf(ctx, sub),
	}

	if sub.Customer != "" {
		c.customerID = ptr(string(sub.Customer))
	}

	if c.status == models.SubscriptionCancelAtPeriodEnd && sub.CancelAt != 0 {
		c.expiresAt = ptr(time.Unix(sub.CancelAt, 0).UTC())
	} else if end := sub.PeriodEnd(); !end.IsZero() {
		c.expiresAt = &end
	}

	applied, err := s.apply(ctx, userID, c)
	if err == nil && !applied {
		s.log.Info().Str("event_id", event.ID).Uint64("user_id", userID).Msg("skipped event older than stored state")
	}

	return userID, err
}

func (s *Synchronizer) subscriptionDeleted(ctx context.Context, event *provider.Event) (uint64, error) {
	sub, userID, err := s.correlate(ctx, event)
	if err != nil {
		return 0, err
	}

	at := eventTime(event)

	expires := s.now().UTC()
	if at != nil {
		expires = *at
	}

	_, err = s.apply(ctx, userID, &change{
		status:         models.SubscriptionCanceled,
		subscriptionID: ptr(sub.ID),
		expiresAt:      &expires,
		eventAt:        at,
	})

	return userID, err
}

// correlate decodes the subscription of event and finds its local user: the
// metadata user id, else the row already holding the provider subscription id.
func (s *Synchronizer) correlate(ctx context.Context, event *provider.Event) (*provider.Subscription, uint64, error) {
	var sub provider.Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, 0, apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid subscription")
	}

	if userID, ok := parseUserID(sub.Metadata.Get(provider.MetaUserID)); ok {
		return &sub, userID, nil
	}

	if sub.ID != "" {
		var row models.Subscription

		res := s.db.WithContext(ctx).Select("user_id").
			Where("provider_subscription_id = ?", sub.ID).Limit(1).Find(&row)
		if res.Error != nil {
			return nil, 0, res.Error
		}

		if res.RowsAffected > 0 {
			return &sub, row.UserID, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: subscription %s", errUncorrelated, sub.ID)
}

// planKeyOf returns the plan of a provider subscription: the metadata key, else
// the plan owning the first line item price. Nil leaves the stored key alone.
func (s *Synchronizer) planKeyOf(ctx context.Context, sub *provider.Subscription) *string {
	if key := sub.Metadata.Get(provider.MetaPlanKey); key != "" {
		return &key
	}

	item := sub.FirstItem()
	if item == nil || item.Price.ID == "" {
		return nil
	}

	p, err := plan.FindByProviderPrice(ctx, s.db, item.Price.ID)
	if err != nil {
		if !errors.Is(err, plan.ErrPlanNotFound) {
			s.log.Warn().Err(err).Str("price_id", item.Price.ID).Msg("failed to look up plan by price")
		}

		return nil
	}

	return &p.Key
}

// lookupSubscription is the best-effort period refinement; failures are logged and yield nil.
func (s *Synchronizer) lookupSubscription(ctx context.Context, id string) *provider.Subscription {
	sub, err := s.client.GetSubscription(ctx, id)
	if err != nil {
		err = apperror.Wrap(apperror.ErrUpstreamLookup, "", err, "subscription lookup failed")
		s.log.Warn().Err(err).Str("subscription_id", id).Msg("skipping period end refinement")

		return nil
	}

	return sub
}

func eventTime(event *provider.Event) *time.Time {
	at := event.CreatedAt()
	if at.IsZero() {
		return nil
	}

	return &at
}

func parseUserID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

func ptr[T any](v T) *T {
	return &v
}
