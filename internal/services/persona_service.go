// Package services – PersonaService
//
// This file implements persona changes for one tenant and the bulk tenant
// migration used by the operator CLI. Both clone the persona's blueprint
// assistant with the tenant's business name, create the copy and point the
// tenant's phone number at it.
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

	"github.com/tbourn/go-receptionist-backend/internal/blueprint"
	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/vapi"
)

// DefaultCloneBusinessName fills {{business_name}} for tenants without one.
const DefaultCloneBusinessName = "Valued Customer"

// Migration result statuses.
const (
	MigrationUpdated = "updated"
	MigrationPlanned = "planned"
	MigrationFailed  = "failed"
)

// AssistantAPI is the part of the voice platform used to clone assistants.
type AssistantAPI interface {
	GetAssistant(ctx context.Context, id string) (map[string]any, error)
	CreateAssistant(ctx context.Context, payload map[string]any) (*vapi.CreatedAssistant, error)
	UpdatePhoneNumber(ctx context.Context, phoneNumberID, assistantID string) error
}

// PersonaChange describes a tenant's newly assigned assistant.
type PersonaChange struct {
	UserID       string `json:"user_id"`
	PersonaID    string `json:"persona_id"`
	AssistantID  string `json:"assistant_id"`
	BusinessName string `json:"business_name"`
}

// MigrateOptions selects the tenants and persona for MigrateTenants.
type MigrateOptions struct {
	// UserIDs limits the run to these tenants. Empty means all links.
	UserIDs   []string
	PersonaID string
	DryRun    bool
}

// MigrationResult is the per-link outcome of MigrateTenants.
type MigrationResult struct {
	UserID       string `json:"user_id"`
	LinkID       string `json:"link_id"`
	BusinessName string `json:"business_name"`
	AssistantID  string `json:"assistant_id,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// PersonaService gives tenants their own copy of a persona blueprint.
type PersonaService struct {
	DB         *gorm.DB
	Assistants AssistantAPI
	Personas   domain.PersonaCatalog
	Builder    *blueprint.Builder
}

// AssignPersona clones the persona's blueprint for the tenant, points the
// tenant's number at the copy and records the choice on the profile.
func (s *PersonaService) AssignPersona(ctx context.Context, userID, personaID string) (*PersonaChange, error) {
	tr := otel.Tracer("services/PersonaService")
	ctx, span := tr.Start(ctx, "AssignPersona",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("persona.id", personaID),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	persona, err := s.persona(personaID)
	if err != nil {
		return nil, err
	}

	link, err := repo.FindLinkByUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	template, err := s.Assistants.GetAssistant(ctx, persona.BlueprintID)
	if err != nil {
		return nil, fmt.Errorf("fetch blueprint %s: %w", persona.BlueprintID, err)
	}

	name := s.businessName(ctx, userID)
	assistantID, err := s.cloneAndRelink(ctx, template, persona, name, *link)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := repo.SetSelectedVoice(ctx, s.DB, userID, persona.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	logger(ctx).Info().
		Str("user_id", userID).
		Str("persona", persona.ID).
		Str("assistant_id", assistantID).
		Msg("persona assigned")
	return &PersonaChange{UserID: userID, PersonaID: persona.ID, AssistantID: assistantID, BusinessName: name}, nil
}

// MigrateTenants gives every selected link a fresh copy of the persona's
// blueprint. The blueprint is fetched once. A failure for one tenant is
// reported in its result and does not stop the run; only a failure to load
// the blueprint or the links is returned as an error.
func (s *PersonaService) MigrateTenants(ctx context.Context, opts MigrateOptions) ([]MigrationResult, error) {
	tr := otel.Tracer("services/PersonaService")
	ctx, span := tr.Start(ctx, "MigrateTenants",
		trace.WithAttributes(
			attribute.String("persona.id", opts.PersonaID),
			attribute.Int("users", len(opts.UserIDs)),
			attribute.Bool("dry_run", opts.DryRun),
		),
	)
	defer span.End()

	persona, err := s.persona(opts.PersonaID)
	if err != nil {
		return nil, err
	}
	links, err := repo.ListLinks(ctx, s.DB, opts.UserIDs...)
	if err != nil {
		return nil, err
	}
	template, err := s.Assistants.GetAssistant(ctx, persona.BlueprintID)
	if err != nil {
		return nil, fmt.Errorf("fetch blueprint %s: %w", persona.BlueprintID, err)
	}

	results := make([]MigrationResult, 0, len(links))
	for _, l := range links {
		res := MigrationResult{UserID: l.UserID, LinkID: l.ID, BusinessName: s.businessName(ctx, l.UserID)}
		if opts.DryRun {
			res.Status = MigrationPlanned
			results = append(results, res)
			continue
		}
		id, err := s.cloneAndRelink(ctx, template, persona, res.BusinessName, l)
		if err != nil {
			res.Status = MigrationFailed
			res.Error = err.Error()
			logger(ctx).Error().Err(err).Str("user_id", l.UserID).Msg("tenant migration failed")
		} else {
			res.Status = MigrationUpdated
			res.AssistantID = id
		}
		results = append(results, res)
	}
	span.SetAttributes(attribute.Int("links", len(links)))
	return results, nil
}

func (s *PersonaService) persona(id string) (domain.Persona, error) {
	p, ok := s.Personas.Lookup(id)
	if !ok || p.BlueprintID == "" {
		return domain.Persona{}, ErrUnknownPersona
	}
	return p, nil
}

// businessName returns the tenant's display name or DefaultCloneBusinessName.
func (s *PersonaService) businessName(ctx context.Context, userID string) string {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil || strings.TrimSpace(p.BusinessName) == "" {
		return DefaultCloneBusinessName
	}
	return p.BusinessName
}

// cloneAndRelink creates the tenant's assistant, points the platform number
// at it and stores the new id on the link.
func (s *PersonaService) cloneAndRelink(ctx context.Context, template map[string]any, p domain.Persona, businessName string, link domain.AssistantLink) (string, error) {
	b := s.Builder
	if b == nil {
		b = blueprint.NewBuilder(nil, "")
	}
	payload, dropped, err := b.Build(template, map[string]string{
		blueprint.VarBusinessName: businessName,
		blueprint.VarPersonaName:  p.Name,
	})
	if err != nil {
		return "", err
	}
	if len(dropped) > 0 {
		logger(ctx).Debug().Strs("fields", dropped).Msg("blueprint fields dropped")
	}

	created, err := s.Assistants.CreateAssistant(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	if err := s.Assistants.UpdatePhoneNumber(ctx, link.VapiPhoneNumberID, created.ID); err != nil {
		return "", fmt.Errorf("relink phone number: %w", err)
	}
	if err := repo.UpdateLinkAssistant(ctx, s.DB, link.ID, created.ID); err != nil {
		return "", fmt.Errorf("update link: %w", err)
	}
	return created.ID, nil
}
