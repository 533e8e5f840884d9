package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

func completion(pnID string) CompletionEvent {
	return CompletionEvent{
		PhoneNumberID:   pnID,
		CallID:          "call-1",
		CallerNumber:    "+447700900777",
		Transcript:      "AI: Hello, Davie's Plumbing.\nUser: My boiler is leaking.",
		Summary:         "Caller reported a leaking boiler.",
		DurationSeconds: 42.5,
		RecordingURL:    "https://storage.example/rec/call-1.wav",
		Status:          "customer-ended-call",
	}
}

func TestCallLogService_Record_CopiesFieldsVerbatim(t *testing.T) {
	db := newSvcDB(t)
	seedLink(t, db, "U1", "PN123", "asst-1", "+447700900123")
	s := &CallLogService{DB: db}

	ev := completion("PN123")
	ok, err := s.Record(context.Background(), ev)
	if err != nil || !ok {
		t.Fatalf("Record: ok=%v err=%v", ok, err)
	}

	var logs []domain.CallLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("want exactly one call log, got %d", len(logs))
	}
	got := logs[0]
	if got.UserID != "U1" || got.VapiPhoneNumberID != "PN123" || got.VapiCallID != ev.CallID {
		t.Fatalf("attribution wrong: %+v", got)
	}
	if got.CallerNumber != ev.CallerNumber || got.Transcript != ev.Transcript || got.Summary != ev.Summary ||
		got.DurationSeconds != ev.DurationSeconds || got.RecordingURL != ev.RecordingURL || got.Status != ev.Status {
		t.Fatalf("fields not copied verbatim:\n got  %+v\n want %+v", got, ev)
	}
}

func TestCallLogService_Record_TrimsPhoneNumberID(t *testing.T) {
	db := newSvcDB(t)
	seedLink(t, db, "U1", "PN123", "asst-1", "+447700900123")
	s := &CallLogService{DB: db}
	routing := &RoutingService{DB: db, Policy: RoutingPolicy{DefaultAssistantID: "asst-default", FallbackBusinessName: "the business"}}

	// the resolver and the recorder must agree on padded ids
	if d := routing.Resolve(context.Background(), " PN123 "); d.AssistantID != "asst-1" {
		t.Fatalf("resolve padded id: %+v", d)
	}
	ok, err := s.Record(context.Background(), completion(" PN123 "))
	if err != nil || !ok {
		t.Fatalf("Record: ok=%v err=%v", ok, err)
	}
	var got domain.CallLog
	if err := db.First(&got).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.UserID != "U1" || got.VapiPhoneNumberID != "PN123" {
		t.Fatalf("call log = %+v", got)
	}
}

func TestCallLogService_Record_UnresolvedIsDropped(t *testing.T) {
	db := newSvcDB(t)
	s := &CallLogService{DB: db}

	ok, err := s.Record(context.Background(), completion("PN999"))
	if err != nil || ok {
		t.Fatalf("want (false, nil), got (%v, %v)", ok, err)
	}
	if ok, err := s.Record(context.Background(), completion("")); err != nil || ok {
		t.Fatalf("empty id: want (false, nil), got (%v, %v)", ok, err)
	}
	if n := countCalls(t, db); n != 0 {
		t.Fatalf("want zero call logs, got %d", n)
	}
}

func TestCallLogService_Record_AmbiguousIsDropped(t *testing.T) {
	db := newSvcDB(t)
	seedLink(t, db, "U1", "PN123", "asst-1", "+447700900123")
	seedLink(t, db, "U2", "PN123", "asst-2", "+447700900124")
	s := &CallLogService{DB: db}

	ok, err := s.Record(context.Background(), completion("PN123"))
	if err != nil || ok {
		t.Fatalf("want (false, nil), got (%v, %v)", ok, err)
	}
	if n := countCalls(t, db); n != 0 {
		t.Fatalf("want zero call logs, got %d", n)
	}
}

func TestCallLogService_Record_InsertFailure(t *testing.T) {
	db := newSvcDB(t)
	seedLink(t, db, "U1", "PN123", "asst-1", "+447700900123")
	if err := db.Migrator().DropTable(&domain.CallLog{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	s := &CallLogService{DB: db}

	ok, err := s.Record(context.Background(), completion("PN123"))
	if err == nil || ok {
		t.Fatalf("want insert error, got (%v, %v)", ok, err)
	}
}

func TestCallLogService_ListPage(t *testing.T) {
	db := newSvcDB(t)
	s := &CallLogService{DB: db}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := repo.CreateCallLog(ctx, db, &domain.CallLog{UserID: "U1", VapiPhoneNumberID: "PN1"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := repo.CreateCallLog(ctx, db, &domain.CallLog{UserID: "U2", VapiPhoneNumberID: "PN2"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	items, total, err := s.ListPage(ctx, "U1", 2, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Fatalf("want total=3 len=1, got total=%d len=%d", total, len(items))
	}

	if _, _, err := s.ListPage(ctx, "", 1, 10); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("want ErrUserRequired, got %v", err)
	}

	// out-of-range inputs are normalized
	items, _, err = s.ListPage(ctx, "U1", 0, 0)
	if err != nil || len(items) != 3 {
		t.Fatalf("normalized page: len=%d err=%v", len(items), err)
	}
}

func TestCallLogService_Stats(t *testing.T) {
	db := newSvcDB(t)
	s := &CallLogService{DB: db}
	ctx := context.Background()

	n, newest, err := s.Stats(ctx, "U1")
	if err != nil || n != 0 || newest != nil {
		t.Fatalf("empty stats: n=%d newest=%v err=%v", n, newest, err)
	}
	if err := repo.CreateCallLog(ctx, db, &domain.CallLog{UserID: "U1", VapiPhoneNumberID: "PN1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, newest, err = s.Stats(ctx, "U1")
	if err != nil || n != 1 || newest == nil {
		t.Fatalf("stats: n=%d newest=%v err=%v", n, newest, err)
	}
}

func TestCallLogService_Search(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	seed := []domain.CallLog{
		{UserID: "U1", VapiPhoneNumberID: "PN1", Transcript: "AI: Hello.\nUser: My boiler is leaking badly.", Summary: "Leaking boiler."},
		{UserID: "U1", VapiPhoneNumberID: "PN1", Transcript: "AI: Hello.\nUser: Can I book a gutter clean?", Summary: "Gutter cleaning booking."},
		{UserID: "U2", VapiPhoneNumberID: "PN2", Transcript: "User: boiler leaking here too", Summary: "Other tenant."},
	}
	for i := range seed {
		if err := repo.CreateCallLog(ctx, db, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	s := &CallLogService{DB: db, Stopwords: []string{"my", "is"}}

	hits, err := s.Search(ctx, "U1", "boiler leaking", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("want 1 hit, got %d: %+v", len(hits), hits)
	}
	if hits[0].Call.ID != seed[0].ID || hits[0].Call.UserID != "U1" {
		t.Fatalf("wrong call: %+v", hits[0].Call)
	}
	if !strings.Contains(strings.ToLower(hits[0].Snippet), "boiler") || hits[0].Score <= 0 {
		t.Fatalf("unexpected hit: %+v", hits[0])
	}

	hits, err = s.Search(ctx, "U1", "   ", 5)
	if err != nil || len(hits) != 0 {
		t.Fatalf("blank query: hits=%v err=%v", hits, err)
	}
	if _, err := s.Search(ctx, "", "boiler", 5); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("want ErrUserRequired, got %v", err)
	}
}
