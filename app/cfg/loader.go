package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" default:"http://localhost:8080" description:"Public base URL of this service, used to build the hub callback URL"`

	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/streamer.db" description:"Path to the SQLite database file"`

	// PubSubHubbub configuration
	DefaultHub          string `long:"default-hub" env:"DEFAULT_HUB" default:"https://pubsubhubbub.appspot.com/" description:"Hub used for feeds that do not declare one"`
	AlwaysUseDefaultHub bool   `long:"always-use-default-hub" env:"ALWAYS_USE_DEFAULT_HUB" description:"Ignore hubs declared inside feeds and always use the default hub"`
	VerifyToken         string `long:"verify-token" env:"VERIFY_TOKEN" description:"Shared secret sent to the hub and required back on verification challenges (empty disables the check)"`
	VerifyIncomingPosts bool   `long:"verify-incoming-posts" env:"VERIFY_INCOMING_POSTS" description:"Reject pushed content for feeds we have no subscription for"`

	// Background task configuration
	WorkerCount     int  `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for subscription tasks"`
	RefreshInterval int  `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"0" description:"Interval in seconds between automatic refreshes of all subscriptions (0 disables)"`
	MaxTaskRetries  int  `long:"max-task-retries" env:"MAX_TASK_RETRIES" default:"10" description:"How often a background task is retried before being abandoned"`
	ExtractContent  bool `long:"extract-content" env:"EXTRACT_CONTENT" description:"Fetch post pages and store readable article content"`

	// Storage limits
	MaxFetch int `long:"max-fetch" env:"MAX_FETCH" default:"500" description:"Maximum number of records fetched or deleted in one bulk operation"`

	// Access control
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key guarding the admin endpoints (empty means open access)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Streamer/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		DBPath:              raw.DBPath,
		DefaultHub:          raw.DefaultHub,
		AlwaysUseDefaultHub: raw.AlwaysUseDefaultHub,
		VerifyToken:         raw.VerifyToken,
		VerifyIncomingPosts: raw.VerifyIncomingPosts,
		WorkerCount:         raw.WorkerCount,
		RefreshInterval:     raw.RefreshInterval,
		MaxTaskRetries:      raw.MaxTaskRetries,
		ExtractContent:      raw.ExtractContent,
		MaxFetch:            raw.MaxFetch,
		APIAccessKey:        raw.APIAccessKey,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
