// Package services – BillingService
//
// Applies verified billing events to the tenant profile.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/payments"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

// BillingService applies verified payment events to tenant profiles.
type BillingService struct {
	DB *gorm.DB
}

// HandleEvent updates the subscription status for the events we act on:
// a deleted subscription cancels, a completed checkout activates. Other
// event types, and events without a tenant id, are logged and ignored. An
// event for a tenant with no profile is ignored as well.
func (s *BillingService) HandleEvent(ctx context.Context, ev payments.Event) error {
	tr := otel.Tracer("services/BillingService")
	ctx, span := tr.Start(ctx, "HandleEvent",
		trace.WithAttributes(
			attribute.String("stripe.event_id", ev.ID),
			attribute.String("stripe.event_type", ev.Type),
			attribute.String("user.id", ev.UserID),
		),
	)
	defer span.End()

	var status string
	switch ev.Type {
	case payments.EventSubscriptionDeleted:
		status = domain.SubscriptionCancelled
	case payments.EventCheckoutCompleted:
		status = domain.SubscriptionActive
	default:
		billingEvents.WithLabelValues(ev.Type, "ignored").Inc()
		logger(ctx).Info().Str("event_type", ev.Type).Msg("unhandled billing event")
		return nil
	}

	if ev.UserID == "" {
		billingEvents.WithLabelValues(ev.Type, "no_user").Inc()
		logger(ctx).Warn().Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("billing event without user id")
		return nil
	}

	err := repo.SetSubscriptionStatus(ctx, s.DB, ev.UserID, status)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		billingEvents.WithLabelValues(ev.Type, "no_profile").Inc()
		logger(ctx).Warn().Str("user_id", ev.UserID).Msg("billing event for unknown profile")
		return nil
	case err != nil:
		billingEvents.WithLabelValues(ev.Type, "error").Inc()
		span.RecordError(err)
		return err
	}

	billingEvents.WithLabelValues(ev.Type, "updated").Inc()
	logger(ctx).Info().Str("user_id", ev.UserID).Str("subscription_status", status).Msg("subscription status updated")
	return nil
}
