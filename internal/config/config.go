// Package config loads run configuration from the environment, an optional
// config file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for optional settings read from the environment,
// e.g. RECENTLY_PLAYED_OUTPUT_FILE.
const EnvPrefix = "RECENTLY_PLAYED"

// Keys shared between viper and the command-line flags.
const (
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyRefreshToken = "refresh_token"
	KeyCursorFile   = "cursor_file"
	KeyArchiveDir   = "archive_dir"
	KeyOutputFile   = "output_file"
	KeyLimit        = "limit"
	KeyRecentCount  = "recent_count"
	KeyRenderMode   = "render_mode"
	KeyTrimArchive  = "trim_archive"
	KeyLogLevel     = "log_level"
	KeyHTTPTimeout  = "http_timeout"
)

// MaxLimit is the largest page the recently-played endpoint serves.
const MaxLimit = 50

var (
	// ErrMissingCredentials is returned when CLIENT_ID, CLIENT_SECRET or
	// REFRESH_TOKEN is not set.
	ErrMissingCredentials = errors.New("missing required environment variable")

	// ErrInvalidRenderMode is returned for an unknown render_mode value.
	ErrInvalidRenderMode = errors.New("invalid render mode")

	// ErrInvalidLogLevel is returned for an unknown log_level value.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// RenderMode selects what the shared output file shows after a run.
type RenderMode string

const (
	// RenderPerDate re-renders the output after each archived date, so the
	// last date processed wins.
	RenderPerDate RenderMode = "per-date"

	// RenderCombined renders once, from the most recent plays across every
	// date touched in the run.
	RenderCombined RenderMode = "combined"
)

// ParseRenderMode validates s as a RenderMode.
func ParseRenderMode(s string) (RenderMode, error) {
	switch m := RenderMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RenderPerDate, RenderCombined:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidRenderMode, s, RenderPerDate, RenderCombined)
	}
}

// ParseLogLevel maps one of debug, info, warn or error to its zerolog level.
func ParseLogLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLogLevel, s)
	}
}

// Credentials holds the Spotify app and user credentials.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Config holds everything a run needs. It is built once at startup and
// passed down explicitly.
type Config struct {
	Credentials Credentials

	CursorFile string
	// ArchiveDir holds one JSON file per calendar date. Empty means a fresh
	// temporary directory per run.
	ArchiveDir string
	OutputFile string

	Limit       int
	RecentCount int
	RenderMode  RenderMode
	TrimArchive bool

	LogLevel zerolog.Level
	// HTTPTimeout of zero leaves outbound requests without a deadline.
	HTTPTimeout time.Duration
}

// SetDefaults registers default values for every optional key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCursorFile, "./info-schema.json")
	v.SetDefault(KeyArchiveDir, "")
	v.SetDefault(KeyOutputFile, "./README.md")
	v.SetDefault(KeyLimit, MaxLimit)
	v.SetDefault(KeyRecentCount, 10)
	v.SetDefault(KeyRenderMode, string(RenderPerDate))
	v.SetDefault(KeyTrimArchive, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPTimeout, time.Duration(0))
}

// Load reads configuration from v. Credentials come from the unprefixed
// CLIENT_ID, CLIENT_SECRET and REFRESH_TOKEN variables; everything else may
// also come from flags, RECENTLY_PLAYED_* variables or a config file.
// Returns ErrMissingCredentials naming every absent credential.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for key, env := range map[string]string{
		KeyClientID:     "CLIENT_ID",
		KeyClientSecret: "CLIENT_SECRET",
		KeyRefreshToken: "REFRESH_TOKEN",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	creds := Credentials{
		ClientID:     v.GetString(KeyClientID),
		ClientSecret: v.GetString(KeyClientSecret),
		RefreshToken: v.GetString(KeyRefreshToken),
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if creds.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if creds.RefreshToken == "" {
		missing = append(missing, "REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	mode, err := ParseRenderMode(v.GetString(KeyRenderMode))
	if err != nil {
		return nil, err
	}

	level, err := ParseLogLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, err
	}

	limit := v.GetInt(KeyLimit)
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", MaxLimit, limit)
	}

	recent := v.GetInt(KeyRecentCount)
	if recent < 1 {
		return nil, fmt.Errorf("recent_count must be positive, got %d", recent)
	}

	return &Config{
		Credentials: creds,
		CursorFile:  v.GetString(KeyCursorFile),
		ArchiveDir:  v.GetString(KeyArchiveDir),
		OutputFile:  v.GetString(KeyOutputFile),
		Limit:       limit,
		RecentCount: recent,
		RenderMode:  mode,
		TrimArchive: v.GetBool(KeyTrimArchive),
		LogLevel:    level,
		HTTPTimeout: v.GetDuration(KeyHTTPTimeout),
	}, nil
}

// LoadDotEnv loads variables from a .env file at path without overriding
// ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
