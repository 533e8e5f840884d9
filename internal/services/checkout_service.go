// Package services – CheckoutService
//
// This file implements the CheckoutService, which records the tenant's
// onboarding choices and opens a hosted subscription checkout.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/payments"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

// CheckoutGateway opens hosted subscription checkouts.
type CheckoutGateway interface {
	CreateSubscriptionCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
}

// StoreError marks a failure of the local store, as opposed to a failure of
// a remote provider.
type StoreError struct{ Err error }

func (e *StoreError) Error() string { return "database error: " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// CheckoutInput is the onboarding form submitted before payment.
type CheckoutInput struct {
	UserID       string
	Email        string
	PersonaID    string
	BusinessName string
}

// CheckoutService saves onboarding details and starts the subscription checkout.
type CheckoutService struct {
	DB       *gorm.DB
	Gateway  CheckoutGateway
	Personas domain.PersonaCatalog
}

// Start upserts the tenant profile and returns the hosted checkout session.
// An empty persona id selects the default persona.
func (s *CheckoutService) Start(ctx context.Context, in CheckoutInput) (*payments.CheckoutSession, error) {
	tr := otel.Tracer("services/CheckoutService")
	ctx, span := tr.Start(ctx, "Start",
		trace.WithAttributes(
			attribute.String("user.id", in.UserID),
			attribute.String("persona.id", in.PersonaID),
		),
	)
	defer span.End()

	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrUserRequired
	}
	persona, ok := s.Personas.Lookup(in.PersonaID)
	if !ok {
		return nil, ErrUnknownPersona
	}

	err := repo.UpsertProfile(ctx, s.DB, repo.ProfileFields{
		UserID:        in.UserID,
		BusinessName:  strings.TrimSpace(in.BusinessName),
		SelectedVoice: persona.ID,
	})
	if err != nil {
		logger(ctx).Error().Err(err).Str("user_id", in.UserID).Msg("profile upsert failed")
		return nil, &StoreError{Err: err}
	}

	sess, err := s.Gateway.CreateSubscriptionCheckout(ctx, payments.CheckoutRequest{
		UserID:    in.UserID,
		Email:     strings.TrimSpace(in.Email),
		PersonaID: persona.ID,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger(ctx).Info().Str("user_id", in.UserID).Str("session_id", sess.ID).Msg("checkout started")
	return sess, nil
}
