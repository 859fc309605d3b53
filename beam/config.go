package beam

import (
	"os"
	"strconv"
	"time"
)

// Owner identifies which side's arena death destroys the beam.
type Owner int

const (
	OwnerProducer Owner = iota
	OwnerConsumer
)

// BlockMode selects how Send/Receive behave when they would otherwise
// suspend: wait for room/data, or return immediately.
type BlockMode int

const (
	Blocking BlockMode = iota
	NonBlocking
)

// Config carries the beam's tunables. It follows the shape of
// proxy/stream/config.go's StreamConfig: env-loaded with sane defaults.
type Config struct {
	// MaxBufSize bounds buffered bytes in `send`. 0 means unbounded.
	MaxBufSize int64
	// Timeout bounds a blocking wait. 0 means wait indefinitely.
	Timeout time.Duration
	// MinSplitSize is the smallest head a backpressure split admits,
	// capped at MaxBufSize; the tail left over by the split may be
	// smaller.
	MinSplitSize int64
	// CleanupInterval is loaded from the environment but is not read by
	// the reaper or any other code in this module; the reaper's cadence
	// comes from ReaperSchedule.
	CleanupInterval time.Duration
	// AuthCacheTTL bounds how long a file-beam-authorization decision is
	// cached per file name.
	AuthCacheTTL time.Duration
	// ReaperSchedule is a cron expression for the beam/reaper sweep:
	// either a standard 5-field expression or a descriptor such as
	// "@every 30s".
	ReaperSchedule string
}

// NewDefaultConfig returns a Config populated from environment variables,
// mirroring proxy/stream/config.NewDefaultStreamConfig's
// LookupEnv-then-parse-then-fall-back-to-default shape.
func NewDefaultConfig() *Config {
	cfg := &Config{
		MaxBufSize:      0,
		Timeout:         0,
		MinSplitSize:    8 * 1024,
		CleanupInterval: 30 * time.Second,
		AuthCacheTTL:    5 * time.Minute,
		ReaperSchedule:  "@every 30s",
	}

	if v, ok := os.LookupEnv("BEAM_MAX_BUF_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.MaxBufSize = n
		}
	}
	if v, ok := os.LookupEnv("BEAM_TIMEOUT_MS"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.Timeout = time.Duration(n) * time.Millisecond
		}
	}
	if v, ok := os.LookupEnv("BEAM_MIN_SPLIT_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MinSplitSize = n
		}
	}
	if v, ok := os.LookupEnv("BEAM_CLEANUP_INTERVAL_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CleanupInterval = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("BEAM_AUTH_CACHE_TTL_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuthCacheTTL = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("BEAM_REAPER_SCHEDULE"); ok && v != "" {
		cfg.ReaperSchedule = v
	}

	return cfg
}
