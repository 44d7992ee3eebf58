package resilience

import "time"

// Config bounds one Executor. Zero fields take the DefaultConfig value.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig dispatches every call once; only the breaker is on.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      20 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// ClientConfig is DefaultConfig with the two knobs the client exposes.
func ClientConfig(maxAttempts int, breakerEnabled bool) Config {
	cfg := DefaultConfig()
	cfg.RetryMaxAttempts = maxAttempts
	cfg.BreakerEnabled = breakerEnabled
	return cfg.normalize()
}

func (c Config) Retries() bool {
	return c.normalize().RetryMaxAttempts > 1
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c

	out.RetryMaxAttempts = orDefault(out.RetryMaxAttempts, def.RetryMaxAttempts)
	out.RetryInitialBackoff = orDefault(out.RetryInitialBackoff, def.RetryInitialBackoff)
	out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	out.BreakerMinRequests = orDefault(out.BreakerMinRequests, def.BreakerMinRequests)
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	out.BreakerOpenTimeout = orDefault(out.BreakerOpenTimeout, def.BreakerOpenTimeout)
	out.BreakerHalfOpenMaxCalls = orDefault(out.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)
	return out
}

func orDefault[T int | uint32 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
