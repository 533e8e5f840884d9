// Package vapi – server messages
//
// This file holds the webhook envelope the platform POSTs for every server
// message and the response shapes the webhook answers with.
package vapi

// Server message types handled by the webhook.
const (
	TypeAssistantRequest = "assistant-request"
	TypeEndOfCallReport  = "end-of-call-report"
)

// Envelope is the body of every server message POST.
type Envelope struct {
	Message *ServerMessage `json:"message"`
}

// ServerMessage carries the fields we read from assistant-request and
// end-of-call-report messages. Older payloads put transcript, summary and
// recording at the top level; newer ones nest them under artifact and
// analysis. The accessor methods read both.
type ServerMessage struct {
	Type            string          `json:"type"`
	PhoneNumber     *PhoneNumberRef `json:"phoneNumber,omitempty"`
	Call            *Call           `json:"call,omitempty"`
	Customer        *Customer       `json:"customer,omitempty"`
	Transcript      string          `json:"transcript,omitempty"`
	Summary         string          `json:"summary,omitempty"`
	RecordingURL    string          `json:"recordingUrl,omitempty"`
	EndedReason     string          `json:"endedReason,omitempty"`
	DurationSeconds float64         `json:"durationSeconds,omitempty"`
	Artifact        *Artifact       `json:"artifact,omitempty"`
	Analysis        *Analysis       `json:"analysis,omitempty"`
}

// PhoneNumberRef identifies the dialed platform number.
type PhoneNumberRef struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
}

// Call is the call object embedded in server messages.
type Call struct {
	ID            string    `json:"id"`
	PhoneNumberID string    `json:"phoneNumberId,omitempty"`
	Customer      *Customer `json:"customer,omitempty"`
}

// Customer is the remote party.
type Customer struct {
	Number string `json:"number"`
}

// Artifact holds call outputs in newer payloads.
type Artifact struct {
	Transcript   string `json:"transcript,omitempty"`
	RecordingURL string `json:"recordingUrl,omitempty"`
}

// Analysis holds post-call analysis in newer payloads.
type Analysis struct {
	Summary string `json:"summary,omitempty"`
}

// PhoneNumberID returns the dialed number's platform id.
func (m *ServerMessage) PhoneNumberID() string {
	if m.PhoneNumber != nil && m.PhoneNumber.ID != "" {
		return m.PhoneNumber.ID
	}
	if m.Call != nil {
		return m.Call.PhoneNumberID
	}
	return ""
}

// CallID returns the platform call id, if present.
func (m *ServerMessage) CallID() string {
	if m.Call != nil {
		return m.Call.ID
	}
	return ""
}

// CallerNumber returns the caller's number.
func (m *ServerMessage) CallerNumber() string {
	if m.Customer != nil && m.Customer.Number != "" {
		return m.Customer.Number
	}
	if m.Call != nil && m.Call.Customer != nil {
		return m.Call.Customer.Number
	}
	return ""
}

// TranscriptText returns the call transcript.
func (m *ServerMessage) TranscriptText() string {
	if m.Transcript != "" {
		return m.Transcript
	}
	if m.Artifact != nil {
		return m.Artifact.Transcript
	}
	return ""
}

// SummaryText returns the call summary.
func (m *ServerMessage) SummaryText() string {
	if m.Summary != "" {
		return m.Summary
	}
	if m.Analysis != nil {
		return m.Analysis.Summary
	}
	return ""
}

// Recording returns the recording URL.
func (m *ServerMessage) Recording() string {
	if m.RecordingURL != "" {
		return m.RecordingURL
	}
	if m.Artifact != nil {
		return m.Artifact.RecordingURL
	}
	return ""
}

// AssistantRequestResponse selects and personalizes the assistant for an
// inbound call. Voice and model are never overridden.
type AssistantRequestResponse struct {
	AssistantID        string             `json:"assistantId"`
	AssistantOverrides AssistantOverrides `json:"assistantOverrides"`
}

// AssistantOverrides carries template variables for the assistant prompt.
type AssistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

// Ack is the generic acknowledgement body.
type Ack struct {
	Message string `json:"message"`
}
