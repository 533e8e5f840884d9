package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newBareDB opens a database without tables so every query fails.
func newBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:bare_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func seedLink(t *testing.T, db *gorm.DB, userID, phoneNumberID, assistantID, number string) *domain.AssistantLink {
	t.Helper()
	l, err := repo.CreateLink(context.Background(), db, repo.NewLink{
		UserID:            userID,
		TwilioPhoneNumber: number,
		TwilioPhoneSID:    "PN" + phoneNumberID,
		VapiPhoneNumberID: phoneNumberID,
		VapiAssistantID:   assistantID,
	})
	if err != nil {
		t.Fatalf("seed link: %v", err)
	}
	return l
}

func seedProfile(t *testing.T, db *gorm.DB, userID, businessName, voice string) {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Profile{ID: userID, BusinessName: businessName, SelectedVoice: voice, SubscriptionStatus: domain.SubscriptionPending, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func countCalls(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.CallLog{}).Count(&n).Error; err != nil {
		t.Fatalf("count call logs: %v", err)
	}
	return n
}

func testCatalog() domain.PersonaCatalog {
	return domain.NewPersonaCatalog(map[string]string{
		"tradie": "bp-tradie",
		"pro":    "bp-pro",
		"coach":  "",
	}, "tradie")
}
