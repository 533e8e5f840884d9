// Package services – AccountService
//
// Read-only views of a tenant: the dashboard account and the operator's
// number inspection report.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

var e164RE = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Account is the dashboard view of a tenant.
type Account struct {
	Profile     *domain.Profile `json:"profile"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	AssistantID string          `json:"assistant_id,omitempty"`
	Persona     *domain.Persona `json:"persona,omitempty"`
}

// NumberReport is what support sees when looking up a purchased number.
type NumberReport struct {
	PhoneNumber  string                `json:"phone_number"`
	LinkedUserID string                `json:"linked_user_id"`
	BusinessName string                `json:"business_name"`
	Link         *domain.AssistantLink `json:"link"`
	Profile      *domain.Profile       `json:"profile,omitempty"`
}

// AccountService reads tenant state for the dashboard and support tools.
type AccountService struct {
	DB       *gorm.DB
	Personas domain.PersonaCatalog
}

// Get returns the tenant's profile and, once provisioned, its number.
func (s *AccountService) Get(ctx context.Context, userID string) (*Account, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	prof, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	acc := &Account{Profile: prof}
	if p, ok := s.Personas.Lookup(prof.SelectedVoice); ok && prof.SelectedVoice != "" {
		acc.Persona = &p
	}
	link, err := repo.FindLinkByUser(ctx, s.DB, userID)
	switch {
	case err == nil:
		acc.PhoneNumber = link.TwilioPhoneNumber
		acc.AssistantID = link.VapiAssistantID
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}
	return acc, nil
}

// InspectNumber reports which tenant owns a purchased number in E.164 form.
// A missing profile is reported with an empty business name, not an error.
func (s *AccountService) InspectNumber(ctx context.Context, number string) (*NumberReport, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "InspectNumber")
	defer span.End()

	number = strings.TrimSpace(number)
	if !e164RE.MatchString(number) {
		return nil, ErrInvalidPhoneNumber
	}
	link, err := repo.FindLinkByPhoneNumber(ctx, s.DB, number)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	rep := &NumberReport{PhoneNumber: number, LinkedUserID: link.UserID, Link: link}
	prof, err := repo.GetProfile(ctx, s.DB, link.UserID)
	switch {
	case err == nil:
		rep.Profile = prof
		rep.BusinessName = prof.BusinessName
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}
	return rep, nil
}
