// Provider webhook handlers.
//
// Both endpoints are called by third parties, not tenants: they sit outside
// the authenticated API group and are never rate limited.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-receptionist-backend/internal/http/middleware"
	"github.com/tbourn/go-receptionist-backend/internal/services"
	"github.com/tbourn/go-receptionist-backend/internal/vapi"
)

// HeaderStripeSignature carries the billing webhook signature.
const HeaderStripeSignature = "Stripe-Signature"

// StripeAck is returned for every verified billing event.
type StripeAck struct {
	Received bool `json:"received" example:"true"`
}

// VapiWebhook godoc
// @ID          vapiWebhook
// @Summary     Voice-platform server messages
// @Description assistant-request returns the assistant and variables for the dialed number. end-of-call-report stores the call log and, like every other type, returns {"message":"Handled"}.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       X-Vapi-Secret  header  string         false  "Shared webhook secret (when configured)"
// @Param       body           body    vapi.Envelope  true   "Server message"
//
// @Success     200  {object}  vapi.AssistantRequestResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed message"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad secret"
// @Failure     500  {object}  handlers.ErrorResponse  "Call log insert failed"
// @Router      /webhooks/vapi [post]
func (h *Handlers) VapiWebhook(c *gin.Context) {
	var env vapi.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	msg := env.Message
	if msg == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing message")
		return
	}
	if msg.Type == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing message type")
		return
	}

	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	switch msg.Type {
	case vapi.TypeAssistantRequest:
		d := h.d.Routing.Resolve(ctx, msg.PhoneNumberID())
		lg.Info().
			Str("vapi_phone_number_id", msg.PhoneNumberID()).
			Str("assistant_id", d.AssistantID).
			Bool("matched", d.Matched).
			Msg("assistant request routed")
		ok(c, http.StatusOK, vapi.AssistantRequestResponse{
			AssistantID:        d.AssistantID,
			AssistantOverrides: vapi.AssistantOverrides{VariableValues: d.Variables},
		})

	case vapi.TypeEndOfCallReport:
		recorded, err := h.d.Calls.Record(ctx, services.CompletionEvent{
			PhoneNumberID:   msg.PhoneNumberID(),
			CallID:          msg.CallID(),
			CallerNumber:    msg.CallerNumber(),
			Transcript:      msg.TranscriptText(),
			Summary:         msg.SummaryText(),
			DurationSeconds: msg.DurationSeconds,
			RecordingURL:    msg.Recording(),
			Status:          msg.EndedReason,
		})
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeRecordFailed, err.Error())
			return
		}
		lg.Info().Bool("recorded", recorded).Str("call_id", msg.CallID()).Msg("end of call report")
		ok(c, http.StatusOK, vapi.Ack{Message: "Handled"})

	default:
		lg.Debug().Str("type", msg.Type).Msg("server message ignored")
		ok(c, http.StatusOK, vapi.Ack{Message: "Handled"})
	}
}

// StripeWebhook godoc
// @ID          stripeWebhook
// @Summary     Billing events
// @Description Verifies the Stripe-Signature over the raw body, then updates the tenant's subscription status for subscription-deleted and checkout-completed events.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       Stripe-Signature  header  string  true  "Webhook signature"
//
// @Success     200  {object}  handlers.StripeAck
// @Failure     400  {object}  handlers.ErrorResponse  "Signature or payload invalid"
// @Router      /webhooks/stripe [post]
func (h *Handlers) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeWebhookInvalid, "Webhook Error: "+err.Error())
		return
	}
	ev, err := h.d.Stripe.ParseWebhook(payload, c.GetHeader(HeaderStripeSignature))
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("billing webhook rejected")
		fail(c, http.StatusBadRequest, ErrCodeWebhookInvalid, "Webhook Error: "+err.Error())
		return
	}

	// verified events are always acknowledged
	if err := h.d.Billing.HandleEvent(c.Request.Context(), ev); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("billing event not applied")
	}
	ok(c, http.StatusOK, StripeAck{Received: true})
}
