// Package services – ProvisioningService
//
// This file implements number provisioning: search the telephony provider for
// a mobile number, buy it, import it into the voice platform answered by the
// persona's blueprint (or the master assistant) and link it to the tenant.
// Each step stops the run on failure; there is no rollback of earlier steps.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/telephony"
	"github.com/tbourn/go-receptionist-backend/internal/vapi"
)

// NumberProvider searches and buys phone numbers.
type NumberProvider interface {
	FindMobileNumber(ctx context.Context) (string, error)
	Purchase(ctx context.Context, number, friendlyName string) (*telephony.PurchasedNumber, error)
	AccountSID() string
	AuthToken() string
}

// NumberImporter registers purchased numbers with the voice platform.
type NumberImporter interface {
	ImportTwilioNumber(ctx context.Context, req vapi.ImportTwilioNumberRequest) (*vapi.PhoneNumber, error)
}

// ProvisionRequest asks for a new number for a tenant.
type ProvisionRequest struct {
	UserID       string
	BusinessName string
	PersonaID    string
}

// ProvisionResult is the outcome of a successful provisioning.
type ProvisionResult struct {
	PhoneNumber string
	Link        *domain.AssistantLink
}

// ProvisioningService buys a number, imports it into the voice platform and
// links it to the tenant. Steps run once each, in order. Two concurrent
// requests for the same tenant buy two numbers; callers that need
// at-most-once behaviour send an Idempotency-Key.
type ProvisioningService struct {
	DB       *gorm.DB
	Numbers  NumberProvider
	Importer NumberImporter
	Personas domain.PersonaCatalog

	// MasterAssistantID answers the new number when the persona has no
	// blueprint.
	MasterAssistantID string
	// FriendlyPrefix prefixes the purchased number's friendly name.
	FriendlyPrefix string
}

// Provision runs the provisioning steps for req.
func (s *ProvisioningService) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	tr := otel.Tracer("services/ProvisioningService")
	ctx, span := tr.Start(ctx, "Provision",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("persona.id", req.PersonaID),
		),
	)
	defer span.End()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrUserRequired
	}

	assistantID := s.MasterAssistantID
	if req.PersonaID != "" {
		p, ok := s.Personas.Lookup(req.PersonaID)
		if !ok {
			return nil, ErrUnknownPersona
		}
		if p.BlueprintID != "" {
			assistantID = p.BlueprintID
		}
	}

	number, err := s.Numbers.FindMobileNumber(ctx)
	if err != nil {
		provisioning.WithLabelValues("search").Inc()
		if errors.Is(err, telephony.ErrNoNumbersAvailable) {
			return nil, ErrNoNumbersAvailable
		}
		return nil, err
	}

	label := strings.TrimSpace(req.BusinessName)
	if label == "" {
		label = req.UserID
	}
	friendly := label
	if s.FriendlyPrefix != "" {
		friendly = s.FriendlyPrefix + ": " + label
	}

	bought, err := s.Numbers.Purchase(ctx, number, friendly)
	if err != nil {
		provisioning.WithLabelValues("purchase").Inc()
		return nil, err
	}
	logger(ctx).Info().Str("user_id", req.UserID).Str("number", bought.PhoneNumber).Msg("number purchased")

	imported, err := s.Importer.ImportTwilioNumber(ctx, vapi.ImportTwilioNumberRequest{
		Number:           bought.PhoneNumber,
		TwilioAccountSID: s.Numbers.AccountSID(),
		TwilioAuthToken:  s.Numbers.AuthToken(),
		AssistantID:      assistantID,
	})
	if err != nil {
		provisioning.WithLabelValues("import").Inc()
		logger(ctx).Error().Err(err).Str("number", bought.PhoneNumber).Msg("voice platform import failed")
		return nil, fmt.Errorf("failed to link number to voice platform: %w", err)
	}

	link, err := repo.CreateLink(ctx, s.DB, repo.NewLink{
		UserID:            req.UserID,
		TwilioPhoneNumber: bought.PhoneNumber,
		TwilioPhoneSID:    bought.SID,
		VapiPhoneNumberID: imported.ID,
		VapiAssistantID:   assistantID,
	})
	if err != nil {
		provisioning.WithLabelValues("store").Inc()
		return nil, err
	}

	if err := repo.MarkOnboardingComplete(ctx, s.DB, req.UserID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		logger(ctx).Warn().Err(err).Str("user_id", req.UserID).Msg("could not mark onboarding complete")
	}

	provisioning.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.String("link.id", link.ID))
	return &ProvisionResult{PhoneNumber: bought.PhoneNumber, Link: link}, nil
}
