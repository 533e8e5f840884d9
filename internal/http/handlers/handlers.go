// Package handlers exposes the receptionist backend over HTTP:
//
//   - POST /webhooks/vapi      voice-platform server messages
//   - POST /webhooks/stripe    billing events
//   - POST {api}/checkout      start the subscription checkout
//   - POST {api}/numbers       buy and link a phone number
//   - GET  {api}/account       dashboard account view
//   - PUT  {api}/account/persona  switch receptionist persona
//   - GET  {api}/personas      selectable personas
//   - GET  {api}/calls         call history (paginated, ETag)
//   - GET  {api}/calls/search  transcript search
//
// Handlers are transport-thin: they validate input, call services and map
// results and errors to responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/payments"
	"github.com/tbourn/go-receptionist-backend/internal/services"
)

//
// Service contracts
//

// RouteResolver picks the assistant for an inbound call. It never fails.
type RouteResolver interface {
	Resolve(ctx context.Context, phoneNumberID string) services.RouteDecision
}

// CallLogService records and reads call logs.
type CallLogService interface {
	Record(ctx context.Context, ev services.CompletionEvent) (bool, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.CallLog, int64, error)
	// Stats feeds the call-history ETag.
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
	Search(ctx context.Context, userID, query string, limit int) ([]services.CallHit, error)
}

// CheckoutService starts subscription checkouts.
type CheckoutService interface {
	Start(ctx context.Context, in services.CheckoutInput) (*payments.CheckoutSession, error)
}

// WebhookVerifier authenticates billing webhooks.
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (payments.Event, error)
}

// BillingService applies verified billing events.
type BillingService interface {
	HandleEvent(ctx context.Context, ev payments.Event) error
}

// NumberProvisioner buys and links phone numbers.
type NumberProvisioner interface {
	Provision(ctx context.Context, req services.ProvisionRequest) (*services.ProvisionResult, error)
}

// AccountService reads the dashboard account view.
type AccountService interface {
	Get(ctx context.Context, userID string) (*services.Account, error)
}

// PersonaService switches a tenant's receptionist persona.
type PersonaService interface {
	AssignPersona(ctx context.Context, userID, personaID string) (*services.PersonaChange, error)
}

// IdempotencyStore persists responses of idempotent operations.
type IdempotencyStore interface {
	// Get returns the stored response, or nil when none is stored.
	Get(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	Save(ctx context.Context, userID, scope, key string, status int, body []byte) error
}

//
// Handler wiring
//

// Deps are the services behind the handlers.
type Deps struct {
	Routing      RouteResolver
	Calls        CallLogService
	Checkout     CheckoutService
	Stripe       WebhookVerifier
	Billing      BillingService
	Provisioning NumberProvisioner
	Accounts     AccountService
	Personas     PersonaService
	Catalog      domain.PersonaCatalog
	Idempotency  IdempotencyStore
}

// Handlers groups every HTTP endpoint.
type Handlers struct {
	d Deps
}

// New returns Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{d: d}
}
