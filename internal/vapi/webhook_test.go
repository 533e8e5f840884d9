package vapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) *ServerMessage {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.NotNil(t, env.Message)
	return env.Message
}

func TestServerMessage_TopLevelFields(t *testing.T) {
	m := decode(t, `{"message":{
		"type":"end-of-call-report",
		"phoneNumber":{"id":"PN123"},
		"customer":{"number":"+447700900001"},
		"transcript":"AI: hello",
		"summary":"Caller asked for a quote",
		"recordingUrl":"https://rec/1.wav",
		"endedReason":"customer-ended-call",
		"durationSeconds":42.5,
		"call":{"id":"call-1"}
	}}`)

	assert.Equal(t, TypeEndOfCallReport, m.Type)
	assert.Equal(t, "PN123", m.PhoneNumberID())
	assert.Equal(t, "+447700900001", m.CallerNumber())
	assert.Equal(t, "AI: hello", m.TranscriptText())
	assert.Equal(t, "Caller asked for a quote", m.SummaryText())
	assert.Equal(t, "https://rec/1.wav", m.Recording())
	assert.Equal(t, "call-1", m.CallID())
	assert.Equal(t, 42.5, m.DurationSeconds)
}

func TestServerMessage_NestedFields(t *testing.T) {
	m := decode(t, `{"message":{
		"type":"end-of-call-report",
		"call":{"id":"call-2","phoneNumberId":"PN456","customer":{"number":"+447700900002"}},
		"artifact":{"transcript":"User: hi","recordingUrl":"https://rec/2.wav"},
		"analysis":{"summary":"Booked a visit"}
	}}`)

	assert.Equal(t, "PN456", m.PhoneNumberID())
	assert.Equal(t, "+447700900002", m.CallerNumber())
	assert.Equal(t, "User: hi", m.TranscriptText())
	assert.Equal(t, "Booked a visit", m.SummaryText())
	assert.Equal(t, "https://rec/2.wav", m.Recording())
}

func TestServerMessage_Empty(t *testing.T) {
	m := &ServerMessage{Type: "status-update"}
	assert.Empty(t, m.PhoneNumberID())
	assert.Empty(t, m.CallerNumber())
	assert.Empty(t, m.TranscriptText())
	assert.Empty(t, m.SummaryText())
	assert.Empty(t, m.Recording())
	assert.Empty(t, m.CallID())
}

func TestAssistantRequestResponse_JSONShape(t *testing.T) {
	raw, err := json.Marshal(AssistantRequestResponse{
		AssistantID:        "asst-1",
		AssistantOverrides: AssistantOverrides{VariableValues: map[string]string{"business_name": "Acme"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assistantId":"asst-1","assistantOverrides":{"variableValues":{"business_name":"Acme"}}}`, string(raw))
}
