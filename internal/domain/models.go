// Package domain defines the persistence models for tenant phone-number
// links, tenant profiles, and call logs. These types are mapped with GORM
// and form the core data layer of the receptionist backend.
package domain

import (
	"time"
)

// Subscription states stored on Profile.SubscriptionStatus.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// AssistantLink binds a purchased phone number to a tenant and to the voice
// assistant that answers it. Links are created during provisioning and only
// their assistant id changes afterwards; they are never deleted.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owning tenant; indexed for dashboard lookups.
//   - TwilioPhoneNumber: purchased number in E.164 form; indexed for support lookups.
//   - TwilioPhoneSID: provider resource id of the purchased number.
//   - VapiPhoneNumberID: voice-platform id of the imported number. The index is
//     deliberately non-unique; lookups report ambiguity instead.
//   - VapiAssistantID: assistant currently answering the number.
type AssistantLink struct {
	ID                string    `json:"id"                   gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"user_id"              gorm:"type:varchar(64);not null;index:idx_links_user"`
	TwilioPhoneNumber string    `json:"twilio_phone_number"  gorm:"type:varchar(32);not null;index:idx_links_number"`
	TwilioPhoneSID    string    `json:"twilio_phone_sid"     gorm:"type:varchar(64)"`
	VapiPhoneNumberID string    `json:"vapi_phone_number_id" gorm:"type:varchar(64);not null;index:idx_links_vapi_number"`
	VapiAssistantID   string    `json:"vapi_assistant_id"    gorm:"type:varchar(64);not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for AssistantLink.
func (AssistantLink) TableName() string { return "assistants" }

// Profile holds tenant-level settings. Its primary key is the tenant's user id.
type Profile struct {
	ID                 string    `json:"id"                  gorm:"type:varchar(64);primaryKey"`
	BusinessName       string    `json:"business_name"       gorm:"type:varchar(255)"`
	SelectedVoice      string    `json:"selected_voice"      gorm:"type:varchar(32)"`
	SubscriptionStatus string    `json:"subscription_status" gorm:"type:varchar(16);not null;default:'pending'"`
	OnboardingComplete bool      `json:"onboarding_complete" gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// CallLog is the immutable record of one completed call, written once per
// end-of-call report. Fields are copied verbatim from the report.
type CallLog struct {
	ID                string    `json:"id"                   gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"user_id"              gorm:"type:varchar(64);not null;index:idx_calls_user,priority:1"`
	VapiPhoneNumberID string    `json:"vapi_phone_number_id" gorm:"type:varchar(64);not null"`
	VapiCallID        string    `json:"vapi_call_id"         gorm:"type:varchar(64);index"`
	CallerNumber      string    `json:"caller_number"        gorm:"type:text"` // E.164 or SIP URI
	Transcript        string    `json:"transcript"           gorm:"type:text"`
	Summary           string    `json:"summary"              gorm:"type:text"`
	DurationSeconds   float64   `json:"duration_seconds"`
	RecordingURL      string    `json:"recording_url"        gorm:"type:text"`
	Status            string    `json:"status"               gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"           gorm:"index:idx_calls_user,priority:2"`
}

// TableName returns the database table name for CallLog.
func (CallLog) TableName() string { return "call_logs" }
