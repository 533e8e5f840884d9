// Package payments creates subscription checkouts and verifies billing
// webhooks with Stripe.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Billing event types acted on by the service.
const (
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventCheckoutCompleted   = "checkout.session.completed"
)

// MetadataUserID is the metadata key carrying our tenant id on sessions
// and subscriptions.
const MetadataUserID = "userId"

// ErrInvalidSignature wraps every webhook verification failure.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Plan is the single subscription product offered at checkout.
type Plan struct {
	Currency    string
	UnitAmount  int64
	Interval    string
	ProductName string
	BaseURL     string // public site root for redirect URLs
}

// CheckoutRequest identifies who is subscribing and with which persona.
type CheckoutRequest struct {
	UserID    string
	Email     string
	PersonaID string
}

// CheckoutSession is the hosted checkout to redirect the browser to.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified billing event reduced to what we act on.
type Event struct {
	ID       string
	Type     string
	UserID   string
	ObjectID string
}

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway talks to Stripe for one Plan.
type StripeGateway struct {
	sessions      sessionAPI
	webhookSecret string
	plan          Plan
}

// NewStripeGateway creates a gateway with its own API client.
func NewStripeGateway(secretKey, webhookSecret string, plan Plan) *StripeGateway {
	sc := client.New(secretKey, nil)
	return &StripeGateway{sessions: sc.CheckoutSessions, webhookSecret: webhookSecret, plan: plan}
}

// CreateSubscriptionCheckout opens a hosted checkout for a recurring
// subscription. The tenant id is stored in metadata on the session and on
// the subscription so later webhooks can be attributed.
func (g *StripeGateway) CreateSubscriptionCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	_, span := otel.Tracer("payments").Start(ctx, "StripeGateway.CreateSubscriptionCheckout")
	defer span.End()

	s, err := g.sessions.New(buildSessionParams(g.plan, req))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func buildSessionParams(plan Plan, req CheckoutRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(plan.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(plan.ProductName),
					Description: stripe.String(planDescription(plan.Interval, req.PersonaID)),
				},
				UnitAmount: stripe.Int64(plan.UnitAmount),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String(plan.Interval),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(plan.BaseURL + "/onboarding/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(plan.BaseURL + "/onboarding"),
		ClientReferenceID: stripe.String(req.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: req.UserID},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(MetadataUserID, req.UserID)
	return params
}

// planDescription renders e.g. "Monthly Subscription (Voice: TRADIE)".
func planDescription(interval, personaID string) string {
	adj := map[string]string{"day": "Daily", "week": "Weekly", "month": "Monthly", "year": "Yearly"}[interval]
	if adj == "" {
		adj = cases.Title(language.English).String(interval)
	}
	return fmt.Sprintf("%s Subscription (Voice: %s)", adj, cases.Upper(language.English).String(personaID))
}

// ParseWebhook verifies the Stripe-Signature header against the raw payload
// and extracts the tenant id from the event object's metadata.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out, nil
	}
	var obj struct {
		ID                string            `json:"id"`
		ClientReferenceID string            `json:"client_reference_id"`
		Metadata          map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
		return out, fmt.Errorf("decode %s object: %w", out.Type, err)
	}
	out.ObjectID = obj.ID
	out.UserID = strings.TrimSpace(obj.Metadata[MetadataUserID])
	if out.UserID == "" {
		out.UserID = strings.TrimSpace(obj.ClientReferenceID)
	}
	return out, nil
}
