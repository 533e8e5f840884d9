// Package vapi is a small client for the voice-AI platform's REST API and
// the types of the server messages it posts to our webhook.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxErrorBody = 4 << 10

// Client calls the platform API with bearer-token authentication.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the platform. Body holds the raw
// response text, truncated.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// CreatedAssistant is the subset of the create-assistant response we keep.
type CreatedAssistant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ImportTwilioNumberRequest registers a purchased Twilio number with the
// platform and assigns it an assistant.
type ImportTwilioNumberRequest struct {
	Provider         string `json:"provider"`
	Number           string `json:"number"`
	TwilioAccountSID string `json:"twilioAccountSid"`
	TwilioAuthToken  string `json:"twilioAuthToken"`
	AssistantID      string `json:"assistantId,omitempty"`
	Name             string `json:"name,omitempty"`
}

// PhoneNumber is a platform phone-number resource.
type PhoneNumber struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	AssistantID string `json:"assistantId"`
}

// GetAssistant fetches an assistant configuration as raw JSON fields.
func (c *Client) GetAssistant(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/assistant/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAssistant creates an assistant from payload.
func (c *Client) CreateAssistant(ctx context.Context, payload map[string]any) (*CreatedAssistant, error) {
	var out CreatedAssistant
	if err := c.do(ctx, http.MethodPost, "/assistant", payload, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("vapi create assistant: response has no id")
	}
	return &out, nil
}

// ImportTwilioNumber imports a Twilio number. Provider defaults to "twilio".
func (c *Client) ImportTwilioNumber(ctx context.Context, req ImportTwilioNumberRequest) (*PhoneNumber, error) {
	if req.Provider == "" {
		req.Provider = "twilio"
	}
	var out PhoneNumber
	if err := c.do(ctx, http.MethodPost, "/phone-number/import", req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("vapi import number: response has no id")
	}
	return &out, nil
}

// UpdatePhoneNumber points a platform phone number at assistantID.
func (c *Client) UpdatePhoneNumber(ctx context.Context, phoneNumberID, assistantID string) error {
	body := map[string]string{"assistantId": assistantID}
	return c.do(ctx, http.MethodPatch, "/phone-number/"+phoneNumberID, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, span := otel.Tracer("vapi").Start(ctx, "vapi "+method+" "+spanPath(path))
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method))

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("vapi encode %s: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("vapi request %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("vapi %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vapi decode %s: %w", path, err)
	}
	return nil
}

// spanPath drops resource ids so span names stay low-cardinality.
func spanPath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) > 1 && parts[1] != "import" {
		parts[1] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}
