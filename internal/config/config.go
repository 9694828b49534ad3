package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds in minutes for the shift lifecycle. Test mode uses values
// loose enough to exercise every path against a live calendar.
const (
	ProdMinutesNotify  = 10
	ProdMinutesDanger  = 1
	ProdMinutesNoUsers = 20

	TestMinutesNotify  = 120
	TestMinutesDanger  = 5
	TestMinutesNoUsers = 55 // max is 60, won't be checked before current hour
)

// OverrideKey is the fixed key-value store namespace for amended
// name→identity pairs.
const OverrideKey = "rosterbot:amended_realnametoslack"

type Config struct {
	SlackToken    string    `yaml:"slack_token"`     // bot token (xoxb-...)
	SlackAppToken string    `yaml:"slack_app_token"` // app-level token for Socket Mode (xapp-...)
	CalendarURL   string    `yaml:"calendar_url"`
	Channel       string    `yaml:"channel"`
	OhnoUsers     []string  `yaml:"ohno_users"` // fallback operator identity ids
	RedisAddress  string    `yaml:"redis_address"`
	RedisDB       int       `yaml:"redis_db"`
	StartAt       time.Time `yaml:"start_at"` // no actions before this instant

	LogDir     string `yaml:"log_dir"`
	StatusAddr string `yaml:"status_addr"`
	RosterURL  string `yaml:"roster_url"` // link offered when an hour has no coverage

	PollInterval time.Duration `yaml:"poll_interval"`
	ResyncCron   string        `yaml:"resync_cron"` // directory re-sync schedule

	// Active window for coverage checks, in local hours-of-day, plus the
	// fixed offset from UTC of that local zone.
	ActiveHourStart int `yaml:"active_hour_start"`
	ActiveHourEnd   int `yaml:"active_hour_end"`
	TZOffsetHours   int `yaml:"tz_offset_hours"`

	MinutesNotify  int `yaml:"-"`
	MinutesDanger  int `yaml:"-"`
	MinutesNoUsers int `yaml:"-"`

	TestMode bool `yaml:"-"`
	Silent   bool `yaml:"-"` // log instead of sending (for testing)
}

// Load builds the configuration from an optional YAML file named by
// ROSTERBOT_CONFIG plus environment variables; environment always wins.
// Missing required settings are the only fatal startup error class.
func Load(testMode bool) (Config, error) {
	cfg := Config{
		LogDir:          "logs",
		StatusAddr:      "127.0.0.1:8080",
		RosterURL:       "https://python.gl/tutor-roster",
		PollInterval:    time.Minute,
		ResyncCron:      "0 4 * * *",
		ActiveHourStart: 8,
		ActiveHourEnd:   21,
		TZOffsetHours:   10,
		TestMode:        testMode,
	}

	if path := os.Getenv("ROSTERBOT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("SLACK_API_TOKEN"); v != "" {
		cfg.SlackToken = v
	}
	if v := os.Getenv("SLACK_APP_TOKEN"); v != "" {
		cfg.SlackAppToken = v
	}
	if v := os.Getenv("CALENDAR_URL"); v != "" {
		cfg.CalendarURL = v
	}
	if v := os.Getenv("CHANNEL"); v != "" {
		cfg.Channel = v
	}
	if v := os.Getenv("OHNO_USERS"); v != "" {
		cfg.OhnoUsers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.RedisAddress = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("START_DATETIME"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Config{}, fmt.Errorf("START_DATETIME: %w", err)
		}
		cfg.StartAt = t
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("STATUS_ADDR"); v != "" {
		cfg.StatusAddr = v
	}
	if v := os.Getenv("ROSTER_URL"); v != "" {
		cfg.RosterURL = v
	}
	if v := os.Getenv("POLL_INTERVAL_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("POLL_INTERVAL_SEC: bad value %q", v)
		}
		cfg.PollInterval = time.Duration(n) * time.Second
	}
	if v := os.Getenv("DIRECTORY_RESYNC_CRON"); v != "" {
		cfg.ResyncCron = v
	}
	if v := os.Getenv("ACTIVE_HOUR_START"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("ACTIVE_HOUR_START: %w", err)
		}
		cfg.ActiveHourStart = n
	}
	if v := os.Getenv("ACTIVE_HOUR_END"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("ACTIVE_HOUR_END: %w", err)
		}
		cfg.ActiveHourEnd = n
	}
	if v := os.Getenv("TZ_OFFSET_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("TZ_OFFSET_HOURS: %w", err)
		}
		cfg.TZOffsetHours = n
	}

	if testMode {
		cfg.MinutesNotify = TestMinutesNotify
		cfg.MinutesDanger = TestMinutesDanger
		cfg.MinutesNoUsers = TestMinutesNoUsers
	} else {
		cfg.MinutesNotify = ProdMinutesNotify
		cfg.MinutesDanger = ProdMinutesDanger
		cfg.MinutesNoUsers = ProdMinutesNoUsers
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var missing []string
	if c.SlackToken == "" {
		missing = append(missing, "SLACK_API_TOKEN")
	}
	if c.SlackAppToken == "" {
		missing = append(missing, "SLACK_APP_TOKEN")
	}
	if c.CalendarURL == "" {
		missing = append(missing, "CALENDAR_URL")
	}
	if c.Channel == "" {
		missing = append(missing, "CHANNEL")
	}
	if len(c.OhnoUsers) == 0 {
		missing = append(missing, "OHNO_USERS")
	}
	if c.RedisAddress == "" {
		missing = append(missing, "REDIS_ADDRESS")
	}
	if c.StartAt.IsZero() {
		missing = append(missing, "START_DATETIME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
