package app

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jun/babymemories/internal/adapter/huawei"
	"github.com/jun/babymemories/internal/handler"
	"github.com/jun/babymemories/internal/ticket"
)

// Photo providers.
const (
	ProviderHuawei      = "huawei"
	ProviderGoogleDrive = "googledrive"
	ProviderMemory      = "memory"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
	StoreSQLite   = "sqlite"
)

// Config is the process configuration, read from the environment.
type Config struct {
	DevMode bool

	Provider                string
	AlbumName               string
	HuaweiClientID          string
	HuaweiClientSecret      string
	HuaweiClientSecretParam string
	GoogleCredentialsJSON   string

	ErrorMode        handler.ErrorMode
	URLMode          huawei.URLMode
	FetchConcurrency int
	FetchRate        float64
	TokenCache       bool
	GalleryTimeout   time.Duration

	TicketSecret      string
	TicketSecretParam string
	TicketTTL         time.Duration
	PublicBaseURL     string

	StoreBackend string
	StoreTable   string
	SQLitePath   string
	KMSKeyID     string

	OriginVerifySecretParam string
}

// LoadConfig reads Config from the environment. Malformed values fall back to
// their defaults with a warning.
func LoadConfig() Config {
	devMode := os.Getenv("DEV_MODE") == "true"

	cfg := Config{
		DevMode:                 devMode,
		Provider:                envOr("PHOTO_PROVIDER", ProviderHuawei),
		AlbumName:               envOr("HUAWEI_ALBUM_NAME", huawei.DefaultAlbumName),
		HuaweiClientID:          os.Getenv("HUAWEI_CLIENT_ID"),
		HuaweiClientSecret:      os.Getenv("HUAWEI_CLIENT_SECRET"),
		HuaweiClientSecretParam: os.Getenv("HUAWEI_CLIENT_SECRET_PARAM"),
		GoogleCredentialsJSON:   os.Getenv("GOOGLE_CREDENTIALS_JSON"),

		ErrorMode:        handler.ErrorMode(strings.ToLower(envOr("ERROR_MODE", string(handler.ErrorModePermissive)))),
		URLMode:          huawei.URLMode(strings.ToLower(envOr("DOWNLOAD_URL_MODE", string(huawei.URLModeToken)))),
		FetchConcurrency: envInt("FETCH_CONCURRENCY", 8),
		FetchRate:        envFloat("FETCH_RATE", 0),
		TokenCache:       os.Getenv("TOKEN_CACHE") == "true",
		GalleryTimeout:   envDuration("GALLERY_TIMEOUT", 10*time.Second),

		TicketSecret:      os.Getenv("TICKET_SECRET"),
		TicketSecretParam: os.Getenv("TICKET_SECRET_PARAM"),
		TicketTTL:         envDuration("TICKET_TTL", ticket.DefaultTTL),
		PublicBaseURL:     strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),

		StoreTable: envOr("STORE_TABLE", "KeyedValues"),
		SQLitePath: envOr("SQLITE_PATH", "babymemories.db"),
		KMSKeyID:   envOr("KMS_KEY_ID", "alias/babymemories-token-key"),

		OriginVerifySecretParam: os.Getenv("ORIGIN_VERIFY_SECRET_PARAM"),
	}

	defaultStore := StoreDynamoDB
	if devMode {
		defaultStore = StoreMemory
	}
	cfg.StoreBackend = envOr("STORE_BACKEND", defaultStore)

	switch cfg.ErrorMode {
	case handler.ErrorModePermissive, handler.ErrorModeStrict:
	default:
		slog.Warn("Unknown ERROR_MODE, using permissive", "value", cfg.ErrorMode)
		cfg.ErrorMode = handler.ErrorModePermissive
	}
	switch cfg.URLMode {
	case huawei.URLModeToken, huawei.URLModeLink, huawei.URLModeProxy:
	default:
		slog.Warn("Unknown DOWNLOAD_URL_MODE, using token", "value", cfg.URLMode)
		cfg.URLMode = huawei.URLModeToken
	}
	return cfg
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("Invalid integer setting, using default", "name", name, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envFloat(name string, fallback float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		slog.Warn("Invalid number setting, using default", "name", name, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration setting, using default", "name", name, "value", v, "default", fallback)
		return fallback
	}
	return d
}
