// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, rate limiting, observability, and the credentials and
// routing defaults for the telephony, voice-platform, and billing providers.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
)

// DefaultAssistantID is the assistant used when an inbound call cannot be
// routed to a tenant-specific assistant.
const DefaultAssistantID = "6af03c9c-2797-4818-8dfc-eb604c247f3d"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path
	URL    string // Postgres DSN
}

// AuthConfig verifies bearer tokens minted by the hosted identity service.
// An empty JWTSecret switches the API to development mode, where the
// caller is taken from the X-User-ID header.
type AuthConfig struct {
	JWTSecret string
	Audience  string
}

// RoutingConfig holds the fallbacks used by the inbound call router.
type RoutingConfig struct {
	DefaultAssistantID   string
	FallbackBusinessName string
}

// PersonaConfig maps persona ids to the blueprint assistant each one is
// cloned from.
type PersonaConfig struct {
	Blueprints map[string]string
	Default    string
}

// VapiConfig defines the voice-platform API client and webhook settings.
type VapiConfig struct {
	APIKey            string
	BaseURL           string
	WebhookSecret     string
	Timeout           time.Duration
	MasterAssistantID string
	MaxBodyBytes      int64 // end-of-call reports carry full transcripts
}

// TwilioConfig defines phone-number purchase settings.
type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	Country        string // ISO country for number search, e.g. "GB"
	FriendlyPrefix string
}

// BillingConfig defines the subscription checkout product and Stripe keys.
type BillingConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	UnitAmount    int64 // minor units
	Interval      string
	ProductName   string
	PublicBaseURL string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64 // request body cap outside the voice webhook
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	DB DBConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)
	RedisURL  string  // optional; enables the shared limiter

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration

	OTEL OTELConfig

	Auth     AuthConfig
	Routing  RoutingConfig
	Personas PersonaConfig
	Vapi     VapiConfig
	Twilio   TwilioConfig
	Billing  BillingConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "receptionist.db"),
			URL:    getenv("DATABASE_URL", ""),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),
		RedisURL:  getenv("REDIS_URL", ""),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "receptionist-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},

		Auth: AuthConfig{
			JWTSecret: getenv("AUTH_JWT_SECRET", ""),
			Audience:  getenv("AUTH_JWT_AUDIENCE", "authenticated"),
		},

		Routing: RoutingConfig{
			DefaultAssistantID:   getenv("ROUTING_DEFAULT_ASSISTANT_ID", DefaultAssistantID),
			FallbackBusinessName: getenv("ROUTING_FALLBACK_BUSINESS_NAME", "the business"),
		},

		Personas: PersonaConfig{
			Default: strings.ToLower(getenv("PERSONA_DEFAULT", "tradie")),
		},

		Vapi: VapiConfig{
			APIKey:        getenv("VAPI_API_KEY", ""),
			BaseURL:       strings.TrimRight(getenv("VAPI_BASE_URL", "https://api.vapi.ai"), "/"),
			WebhookSecret: getenv("VAPI_WEBHOOK_SECRET", ""),
			Timeout:       getdur("VAPI_TIMEOUT", 15*time.Second),
			MaxBodyBytes:  int64(getint("VAPI_MAX_BODY_BYTES", 16<<20)),
		},

		Twilio: TwilioConfig{
			AccountSID:     getenv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:      getenv("TWILIO_AUTH_TOKEN", ""),
			Country:        strings.ToUpper(getenv("TWILIO_COUNTRY", "GB")),
			FriendlyPrefix: getenv("NUMBER_FRIENDLY_PREFIX", "ScotVoice"),
		},

		Billing: BillingConfig{
			SecretKey:     getenv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getenv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getenv("BILLING_CURRENCY", "gbp")),
			UnitAmount:    int64(getint("BILLING_UNIT_AMOUNT", 2000)),
			Interval:      strings.ToLower(getenv("BILLING_INTERVAL", "month")),
			ProductName:   getenv("BILLING_PRODUCT_NAME", "NessDial AI Receptionist"),
			PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		},
	}
	cfg.Vapi.MasterAssistantID = getenv("VAPI_MASTER_ASSISTANT_ID", cfg.Routing.DefaultAssistantID)

	blueprints, err := parsePairs(getenv("PERSONA_BLUEPRINTS", ""))
	if err != nil {
		return cfg, fmt.Errorf("PERSONA_BLUEPRINTS: %w", err)
	}
	if len(blueprints) == 0 {
		blueprints = map[string]string{"tradie": cfg.Routing.DefaultAssistantID}
	}
	cfg.Personas.Blueprints = blueprints

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 || cfg.Vapi.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES and VAPI_MAX_BODY_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if strings.TrimSpace(cfg.Routing.DefaultAssistantID) == "" {
		return cfg, errors.New("ROUTING_DEFAULT_ASSISTANT_ID must not be empty")
	}
	if strings.TrimSpace(cfg.Routing.FallbackBusinessName) == "" {
		return cfg, errors.New("ROUTING_FALLBACK_BUSINESS_NAME must not be empty")
	}
	if _, ok := domain.NewPersonaCatalog(cfg.Personas.Blueprints, cfg.Personas.Default).Default(); !ok {
		return cfg, fmt.Errorf("PERSONA_DEFAULT %q is neither a built-in persona nor in PERSONA_BLUEPRINTS", cfg.Personas.Default)
	}
	if cfg.Vapi.Timeout <= 0 {
		return cfg, errors.New("VAPI_TIMEOUT must be > 0")
	}
	if len(cfg.Twilio.Country) != 2 {
		return cfg, errors.New("TWILIO_COUNTRY must be a two-letter country code")
	}
	if cfg.Billing.UnitAmount <= 0 {
		return cfg, errors.New("BILLING_UNIT_AMOUNT must be > 0")
	}
	if strings.TrimSpace(cfg.Billing.Currency) == "" {
		return cfg, errors.New("BILLING_CURRENCY must not be empty")
	}
	switch cfg.Billing.Interval {
	case "day", "week", "month", "year":
	default:
		return cfg, errors.New("BILLING_INTERVAL must be one of: day, week, month, year")
	}

	return cfg, nil
}

// AuthEnabled reports whether bearer tokens are verified.
func (c Config) AuthEnabled() bool { return strings.TrimSpace(c.Auth.JWTSecret) != "" }

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parsePairs parses "a=1,b=2" into a map with lower-cased keys.
func parsePairs(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, item := range splitCSV(s) {
		k, v, ok := strings.Cut(item, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("malformed entry %q (want key=value)", item)
		}
		out[k] = v
	}
	return out, nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
