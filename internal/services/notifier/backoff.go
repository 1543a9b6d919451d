package notifier

import "time"

type BackoffConfig struct {
	Attempts int           // default: 4
	Initial  time.Duration // default: 200ms
	Max      time.Duration // default: 5s

	// Restart is the pause before consuming again after the consumer failed.
	Restart time.Duration // default: 2s
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Attempts: 4,
		Initial:  200 * time.Millisecond,
		Max:      5 * time.Second,
		Restart:  2 * time.Second,
	}
}

type Backoff struct {
	cfg BackoffConfig
}

func NewBackoff(cfg BackoffConfig) *Backoff {
	def := DefaultBackoffConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Initial <= 0 {
		cfg.Initial = def.Initial
	}
	if cfg.Max <= 0 {
		cfg.Max = def.Max
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if cfg.Restart <= 0 {
		cfg.Restart = def.Restart
	}
	return &Backoff{cfg: cfg}
}

func (b *Backoff) Attempts() int { return b.cfg.Attempts }

// Delay is the wait after the given failed attempt (1-based), doubling up to Max.
func (b *Backoff) Delay(attempt int) time.Duration {
	d := b.cfg.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= b.cfg.Max {
			return b.cfg.Max
		}
	}
	return d
}

func (b *Backoff) Restart() time.Duration { return b.cfg.Restart }
