// Package config loads Ash's operational settings (channel ids, AI
// provider order, timezone, global rate-limit quota, log settings) from a
// YAML file, following the teacher's root-level yaml.v3 config convention
// minus its Matrix-specific config-upgrade tooling (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is Ash's service configuration, loaded once at startup.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	AI        AIConfig        `yaml:"ai"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
}

// DiscordConfig names the channels the router and scheduler treat specially.
type DiscordConfig struct {
	ViolationChannelID    string   `yaml:"violation_channel_id"`
	ModeratorChannelIDs   []string `yaml:"moderator_channel_ids"`
	TriviaChannelID       string   `yaml:"trivia_channel_id"`
	AnnouncementChannelID string   `yaml:"announcement_channel_id"`
	YouTubePostChannelID  string   `yaml:"youtube_post_channel_id"`
	StreamerUserID        string   `yaml:"streamer_user_id"`
	CreatorUserID         string   `yaml:"creator_user_id"`
	GuildID               string   `yaml:"guild_id"`
	OperatorRoleIDs       []string `yaml:"operator_role_ids"`
	YouTubeChannelID      string   `yaml:"youtube_channel_id"`
	TwitchUserID          string   `yaml:"twitch_user_id"`
}

// AIConfig configures provider ordering and the persona directory.
// PrimaryModel and BackupModel are not read anywhere; each provider uses
// its own default model.
type AIConfig struct {
	PrimaryProvider string `yaml:"primary_provider"`
	BackupProvider  string `yaml:"backup_provider"`
	PrimaryModel    string `yaml:"primary_model"`
	BackupModel     string `yaml:"backup_model"`
	PersonaDir      string `yaml:"persona_dir"`
}

// SchedulerConfig sets the timezone the two clock-aligned sweeps use.
type SchedulerConfig struct {
	Timezone string `yaml:"timezone"`
}

// CacheConfig holds an AIResponseCache similarity threshold. cmd/ash does
// not pass it to aicache.New, which always uses its built-in TTL table and
// 0.85 threshold.
type CacheConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// RateLimitConfig sets the global provider quota window.
type RateLimitConfig struct {
	GlobalRequestsPerWindow int           `yaml:"global_requests_per_window"`
	GlobalWindow            time.Duration `yaml:"global_window"`
}

// DatabaseConfig names a local SQLite file. cmd/ash does not read it: it
// always opens DATABASE_URL with the Postgres backend and exits with a
// config error when DATABASE_URL is unset.
type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// LogConfig configures the zerolog/lumberjack logging setup.
type LogConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{Timezone: "Europe/London"},
		Cache:     CacheConfig{SimilarityThreshold: 0.85},
		RateLimit: RateLimitConfig{GlobalRequestsPerWindow: 50, GlobalWindow: time.Minute},
		Database:  DatabaseConfig{SQLitePath: "ash.db"},
		Log:       LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14},
		AI:        AIConfig{PrimaryProvider: "openai", BackupProvider: "anthropic", PersonaDir: "personas"},
	}
}

// Load reads and parses the YAML config file at path, overlaying it onto
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	contents, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Location resolves the scheduler timezone, falling back to UTC on an
// unrecognized name rather than failing startup over a typo'd config value.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
