// Package services – CallLogService
//
// This file implements the CallLogService, which stores end-of-call reports
// and serves the tenant's call history. Reports are attributed through the
// same phone-number lookup as routing; unattributable reports are dropped
// and counted, never retried. Listing is paginated newest first and search
// ranks recent transcripts with the in-memory index from package search.
package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/search"
)

// searchWindow bounds how many recent calls a transcript search looks at.
const searchWindow = 200

// CompletionEvent is an end-of-call report reduced to the fields we store.
type CompletionEvent struct {
	PhoneNumberID   string
	CallID          string
	CallerNumber    string
	Transcript      string
	Summary         string
	DurationSeconds float64
	RecordingURL    string
	Status          string
}

// CallHit is one transcript search result.
type CallHit struct {
	Call    domain.CallLog `json:"call"`
	Snippet string         `json:"snippet"`
	Score   float64        `json:"score"`
}

// CallLogService records completed calls and serves call history.
type CallLogService struct {
	DB *gorm.DB

	// Stopwords are ignored by Search. Optional.
	Stopwords []string
}

// Record stores one call log for a completion event. When the phone number
// does not resolve to exactly one tenant the report is dropped and Record
// returns (false, nil). Dropped reports are not retried.
func (s *CallLogService) Record(ctx context.Context, ev CompletionEvent) (bool, error) {
	tr := otel.Tracer("services/CallLogService")
	ctx, span := tr.Start(ctx, "Record",
		trace.WithAttributes(
			attribute.String("vapi.phone_number_id", ev.PhoneNumberID),
			attribute.String("vapi.call_id", ev.CallID),
		),
	)
	defer span.End()

	pnID := strings.TrimSpace(ev.PhoneNumberID)
	if pnID == "" {
		callLogs.WithLabelValues("dropped").Inc()
		logger(ctx).Warn().Str("call_id", ev.CallID).Msg("end-of-call report without phone number id; dropped")
		return false, nil
	}

	link, err := repo.FindLinkByVapiPhoneNumberID(ctx, s.DB, pnID)
	if err != nil {
		callLogs.WithLabelValues("dropped").Inc()
		logger(ctx).Warn().Err(err).
			Str("phone_number_id", pnID).
			Str("call_id", ev.CallID).
			Msg("end-of-call report not attributable to a tenant; dropped")
		return false, nil
	}

	rec := &domain.CallLog{
		UserID:            link.UserID,
		VapiPhoneNumberID: pnID,
		VapiCallID:        ev.CallID,
		CallerNumber:      ev.CallerNumber,
		Transcript:        ev.Transcript,
		Summary:           ev.Summary,
		DurationSeconds:   ev.DurationSeconds,
		RecordingURL:      ev.RecordingURL,
		Status:            ev.Status,
	}
	if err := repo.CreateCallLog(ctx, s.DB, rec); err != nil {
		callLogs.WithLabelValues("failed").Inc()
		span.RecordError(err)
		return false, err
	}

	callLogs.WithLabelValues("recorded").Inc()
	logger(ctx).Info().
		Str("user_id", link.UserID).
		Str("call_id", ev.CallID).
		Str("call_log_id", rec.ID).
		Msg("call logged")
	return true, nil
}

// ListPage returns a page of the tenant's call logs (newest first) and the total.
func (s *CallLogService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.CallLog, int64, error) {
	tr := otel.Tracer("services/CallLogService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if userID == "" {
		return nil, 0, ErrUserRequired
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	total, err := repo.CountCallLogs(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListCallLogsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats returns the number of call logs and the newest creation time, used
// for cache validators.
func (s *CallLogService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.CallLogsStats(ctx, s.DB, userID)
}

// Search ranks the tenant's recent calls against query and returns at most
// limit hits, one per call.
func (s *CallLogService) Search(ctx context.Context, userID, query string, limit int) ([]CallHit, error) {
	tr := otel.Tracer("services/CallLogService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if userID == "" {
		return nil, ErrUserRequired
	}
	if strings.TrimSpace(query) == "" {
		return []CallHit{}, nil
	}

	calls, err := repo.ListCallLogsPage(ctx, s.DB, userID, 0, searchWindow)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.CallLog, len(calls))
	docs := make([]search.Document, 0, len(calls))
	for _, c := range calls {
		byID[c.ID] = c
		text := c.Transcript
		if c.Summary != "" {
			text += "\n\nSummary: " + c.Summary
		}
		docs = append(docs, search.Document{ID: c.ID, Text: text})
	}

	var opts []search.Option
	if len(s.Stopwords) > 0 {
		opts = append(opts, search.WithStopwords(s.Stopwords))
	}
	results := search.NewIndex(docs, opts...).TopK(query, limit)

	hits := make([]CallHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, CallHit{Call: byID[r.DocID], Snippet: r.Snippet, Score: r.Score})
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}
