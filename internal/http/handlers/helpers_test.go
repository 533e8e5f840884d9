package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/http/middleware"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

// ---------- test DB ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, userID, phoneNumberID, assistantID, businessName string) {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.CreateLink(ctx, db, repo.NewLink{
		UserID:            userID,
		TwilioPhoneNumber: "+447700900001",
		TwilioPhoneSID:    "PN" + phoneNumberID,
		VapiPhoneNumberID: phoneNumberID,
		VapiAssistantID:   assistantID,
	}); err != nil {
		t.Fatalf("seed link: %v", err)
	}
	if err := repo.UpsertProfile(ctx, db, repo.ProfileFields{UserID: userID, BusinessName: businessName}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

// ---------- HTTP helpers ----------

// newTestRouter mounts the handler under path with a fixed request id and,
// when user is non-empty, an authenticated tenant.
func newTestRouter(method, path, user string, h gin.HandlerFunc, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-test")
		if user != "" {
			c.Set(middleware.UserIDKey, user)
		}
		c.Next()
	})
	r.Use(pre...)
	r.Handle(method, path, h)
	return r
}

func do(r http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code = %q, want %q", er.Code, code)
	}
	if msg != "" && er.Message != msg {
		t.Fatalf("message = %q, want %q", er.Message, msg)
	}
	if er.RequestID != "rid-test" {
		t.Fatalf("request_id = %q", er.RequestID)
	}
}

// ---------- idempotency store fake ----------

type memIdem struct {
	recs  map[string]domain.Idempotency
	saves int
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]domain.Idempotency{}} }

func (m *memIdem) Get(_ context.Context, userID, scope, key string, _ time.Time) (*domain.Idempotency, error) {
	rec, ok := m.recs[userID+"|"+scope+"|"+key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memIdem) Save(_ context.Context, userID, scope, key string, status int, body []byte) error {
	m.saves++
	m.recs[userID+"|"+scope+"|"+key] = domain.Idempotency{UserID: userID, Scope: scope, Key: key, Status: status, Body: string(body)}
	return nil
}

func (m *memIdem) lookup(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	rec, err := m.Get(ctx, userID, scope, key, now)
	return rec != nil, err
}
