// Package services – RoutingService
//
// This file implements the RoutingService, which answers the voice platform's
// assistant-request for an inbound call. It maps the platform phone-number id
// to the tenant's link and profile and returns the assistant id plus the
// template variables. Lookups that miss, match more than one link or fail in
// the store fall back to the configured defaults so the caller always reaches
// an assistant.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

// VarBusinessName is the template variable carrying the tenant's display name.
const VarBusinessName = "business_name"

// RoutingPolicy holds the values used when a call cannot be attributed to a
// tenant or the tenant has no display name yet.
type RoutingPolicy struct {
	DefaultAssistantID   string
	FallbackBusinessName string
}

// RouteDecision is the answer to an assistant-request: which assistant takes
// the call and which template variables it is personalized with.
type RouteDecision struct {
	AssistantID string
	Variables   map[string]string

	// Matched is true when the phone number resolved to a tenant link.
	Matched bool
	UserID  string
}

// RoutingService resolves inbound calls to a tenant assistant.
type RoutingService struct {
	DB     *gorm.DB
	Policy RoutingPolicy
}

// Resolve returns the routing decision for a platform phone-number id. It
// never fails: a missing link, an ambiguous link or a store error yields the
// policy defaults. Resolve does not write anything.
func (s *RoutingService) Resolve(ctx context.Context, phoneNumberID string) RouteDecision {
	tr := otel.Tracer("services/RoutingService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("vapi.phone_number_id", phoneNumberID)),
	)
	defer span.End()

	dec := RouteDecision{
		AssistantID: s.Policy.DefaultAssistantID,
		Variables:   map[string]string{VarBusinessName: s.Policy.FallbackBusinessName},
	}

	phoneNumberID = strings.TrimSpace(phoneNumberID)
	if phoneNumberID == "" {
		routingDecisions.WithLabelValues("fallback_not_found").Inc()
		logger(ctx).Warn().Msg("assistant-request without phone number id; using defaults")
		return dec
	}

	link, err := repo.FindLinkByVapiPhoneNumberID(ctx, s.DB, phoneNumberID)
	if err != nil {
		outcome := "fallback_error"
		switch {
		case errors.Is(err, repo.ErrNotFound):
			outcome = "fallback_not_found"
		case errors.Is(err, repo.ErrAmbiguousLink):
			outcome = "fallback_ambiguous"
		}
		routingDecisions.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.String("routing.outcome", outcome))
		logger(ctx).Warn().Err(err).
			Str("phone_number_id", phoneNumberID).
			Str("outcome", outcome).
			Msg("no tenant for phone number; using defaults")
		return dec
	}

	dec.Matched = true
	dec.UserID = link.UserID
	if link.VapiAssistantID != "" {
		dec.AssistantID = link.VapiAssistantID
	}

	prof, err := repo.GetProfile(ctx, s.DB, link.UserID)
	switch {
	case err == nil && strings.TrimSpace(prof.BusinessName) != "":
		dec.Variables[VarBusinessName] = prof.BusinessName
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		logger(ctx).Warn().Err(err).Str("user_id", link.UserID).Msg("profile lookup failed; using fallback name")
	}

	routingDecisions.WithLabelValues("matched").Inc()
	span.SetAttributes(
		attribute.String("routing.outcome", "matched"),
		attribute.String("user.id", link.UserID),
	)
	return dec
}
