package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/payments"
	"github.com/tbourn/go-receptionist-backend/internal/services"
	"github.com/tbourn/go-receptionist-backend/internal/vapi"
)

const testDefaultAssistant = "6af03c9c-2797-4818-8dfc-eb604c247f3d"

func vapiRouter(t *testing.T) (*gorm.DB, http.Handler) {
	t.Helper()
	db := newHandlerDB(t)
	h := New(Deps{
		Routing: &services.RoutingService{DB: db, Policy: services.RoutingPolicy{
			DefaultAssistantID:   testDefaultAssistant,
			FallbackBusinessName: "the business",
		}},
		Calls: &services.CallLogService{DB: db},
	})
	return db, newTestRouter(http.MethodPost, "/webhooks/vapi", "", h.VapiWebhook)
}

func assistantRequest(pnID string) map[string]any {
	return map[string]any{"message": map[string]any{
		"type":        "assistant-request",
		"phoneNumber": map[string]any{"id": pnID},
	}}
}

func TestVapiWebhook_AssistantRequest_KnownNumber(t *testing.T) {
	db, r := vapiRouter(t)
	seedTenant(t, db, "U1", "PN123", "asst-u1", "Davie's Plumbing")

	var bodies []string
	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/webhooks/vapi", assistantRequest("PN123"))
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		resp := decode[vapi.AssistantRequestResponse](t, w)
		if resp.AssistantID != "asst-u1" {
			t.Fatalf("assistantId = %q", resp.AssistantID)
		}
		if resp.AssistantOverrides.VariableValues["business_name"] != "Davie's Plumbing" {
			t.Fatalf("variables = %v", resp.AssistantOverrides.VariableValues)
		}
		bodies = append(bodies, w.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("repeated request changed response:\n%s\n%s", bodies[0], bodies[1])
	}

	var links int64
	db.Model(&domain.AssistantLink{}).Count(&links)
	if links != 1 {
		t.Fatalf("links = %d after reads", links)
	}
}

func TestVapiWebhook_AssistantRequest_UnknownNumber(t *testing.T) {
	_, r := vapiRouter(t)

	for _, body := range []any{
		assistantRequest("PN999"),
		map[string]any{"message": map[string]any{"type": "assistant-request"}},
		map[string]any{"message": map[string]any{"type": "assistant-request", "call": map[string]any{"phoneNumberId": "PN404"}}},
	} {
		w := do(r, http.MethodPost, "/webhooks/vapi", body)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d", w.Code)
		}
		resp := decode[vapi.AssistantRequestResponse](t, w)
		if resp.AssistantID != testDefaultAssistant || resp.AssistantOverrides.VariableValues["business_name"] != "the business" {
			t.Fatalf("resp = %+v", resp)
		}
	}
}

func TestVapiWebhook_EndOfCallReport_RecordsNestedPayload(t *testing.T) {
	db, r := vapiRouter(t)
	seedTenant(t, db, "U1", "PN123", "asst-u1", "Davie's Plumbing")

	body := map[string]any{"message": map[string]any{
		"type":            "end-of-call-report",
		"call":            map[string]any{"id": "call-1", "phoneNumberId": "PN123", "customer": map[string]any{"number": "+447700900555"}},
		"artifact":        map[string]any{"transcript": "AI: Hello\nUser: Boiler's leaking", "recordingUrl": "https://rec/1.wav"},
		"analysis":        map[string]any{"summary": "Boiler leak, callback requested"},
		"endedReason":     "customer-ended-call",
		"durationSeconds": 93.5,
	}}
	w := do(r, http.MethodPost, "/webhooks/vapi", body)
	if w.Code != http.StatusOK || decode[vapi.Ack](t, w).Message != "Handled" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var logs []domain.CallLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("call logs = %d, want 1", len(logs))
	}
	got := logs[0]
	if got.UserID != "U1" || got.VapiCallID != "call-1" || got.CallerNumber != "+447700900555" ||
		got.Transcript != "AI: Hello\nUser: Boiler's leaking" || got.Summary != "Boiler leak, callback requested" ||
		got.RecordingURL != "https://rec/1.wav" || got.Status != "customer-ended-call" || got.DurationSeconds != 93.5 {
		t.Fatalf("call log = %+v", got)
	}
}

func TestVapiWebhook_EndOfCallReport_UnresolvedIsAcknowledged(t *testing.T) {
	db, r := vapiRouter(t)
	body := map[string]any{"message": map[string]any{
		"type":        "end-of-call-report",
		"phoneNumber": map[string]any{"id": "PN999"},
		"transcript":  "hello",
	}}
	w := do(r, http.MethodPost, "/webhooks/vapi", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var n int64
	db.Model(&domain.CallLog{}).Count(&n)
	if n != 0 {
		t.Fatalf("call logs = %d, want 0", n)
	}
}

type failingCalls struct{ CallLogService }

func (failingCalls) Record(context.Context, services.CompletionEvent) (bool, error) {
	return false, errors.New("insert call log: disk I/O error")
}

func TestVapiWebhook_EndOfCallReport_InsertFailure(t *testing.T) {
	h := New(Deps{Calls: failingCalls{}})
	r := newTestRouter(http.MethodPost, "/webhooks/vapi", "", h.VapiWebhook)

	w := do(r, http.MethodPost, "/webhooks/vapi", map[string]any{"message": map[string]any{"type": "end-of-call-report"}})
	wantError(t, w, http.StatusInternalServerError, ErrCodeRecordFailed, "insert call log: disk I/O error")
}

func TestVapiWebhook_OtherTypesAndMalformed(t *testing.T) {
	_, r := vapiRouter(t)

	w := do(r, http.MethodPost, "/webhooks/vapi", map[string]any{"message": map[string]any{"type": "status-update"}})
	if w.Code != http.StatusOK || decode[vapi.Ack](t, w).Message != "Handled" {
		t.Fatalf("status-update: %d %s", w.Code, w.Body.String())
	}

	cases := map[string]struct {
		body any
		msg  string
	}{
		"not json":     {"{nope", "invalid JSON body"},
		"empty":        {"", "invalid JSON body"},
		"no message":   {map[string]any{"foo": 1}, "missing message"},
		"null message": {`{"message":null}`, "missing message"},
		"no type":      {map[string]any{"message": map[string]any{"call": map[string]any{"id": "x"}}}, "missing message type"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			wantError(t, do(r, http.MethodPost, "/webhooks/vapi", tc.body), http.StatusBadRequest, ErrCodeBadRequest, tc.msg)
		})
	}
}

// ---------- Stripe ----------

type stubVerifier struct {
	ev  payments.Event
	err error
	sig string
}

func (s *stubVerifier) ParseWebhook(_ []byte, signature string) (payments.Event, error) {
	s.sig = signature
	return s.ev, s.err
}

type stubBilling struct {
	got []payments.Event
	err error
}

func (s *stubBilling) HandleEvent(_ context.Context, ev payments.Event) error {
	s.got = append(s.got, ev)
	return s.err
}

func TestStripeWebhook(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		v := &stubVerifier{ev: payments.Event{ID: "evt_1", Type: payments.EventCheckoutCompleted, UserID: "U1"}}
		b := &stubBilling{}
		r := newTestRouter(http.MethodPost, "/webhooks/stripe", "", New(Deps{Stripe: v, Billing: b}).StripeWebhook)

		w := do(r, http.MethodPost, "/webhooks/stripe", `{"id":"evt_1"}`, HeaderStripeSignature, "t=1,v1=abc")
		if w.Code != http.StatusOK || !decode[StripeAck](t, w).Received {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if v.sig != "t=1,v1=abc" || len(b.got) != 1 || b.got[0].UserID != "U1" {
			t.Fatalf("sig=%q events=%+v", v.sig, b.got)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		v := &stubVerifier{err: payments.ErrInvalidSignature}
		b := &stubBilling{}
		r := newTestRouter(http.MethodPost, "/webhooks/stripe", "", New(Deps{Stripe: v, Billing: b}).StripeWebhook)

		w := do(r, http.MethodPost, "/webhooks/stripe", `{}`)
		wantError(t, w, http.StatusBadRequest, ErrCodeWebhookInvalid, "Webhook Error: invalid webhook signature")
		if len(b.got) != 0 {
			t.Fatalf("unverified event applied")
		}
	})

	t.Run("apply failure still acknowledged", func(t *testing.T) {
		v := &stubVerifier{ev: payments.Event{ID: "evt_2", Type: payments.EventSubscriptionDeleted, UserID: "U1"}}
		b := &stubBilling{err: errors.New("db down")}
		r := newTestRouter(http.MethodPost, "/webhooks/stripe", "", New(Deps{Stripe: v, Billing: b}).StripeWebhook)

		w := do(r, http.MethodPost, "/webhooks/stripe", `{}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d", w.Code)
		}
	})
}
