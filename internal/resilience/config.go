package resilience

import (
	"time"

	"github.com/sells-group/docextract/internal/config"
)

// FromConfig builds a Policy from the retry section, keeping defaults for
// unset values.
func FromConfig(c config.RetryConfig) Policy {
	p := DefaultPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoff > 0 {
		p.InitialBackoff = time.Duration(c.InitialBackoff) * time.Millisecond
	}
	if c.MaxBackoff > 0 {
		p.MaxBackoff = time.Duration(c.MaxBackoff) * time.Millisecond
	}
	if c.Multiplier > 0 {
		p.Multiplier = c.Multiplier
	}
	if c.JitterFraction >= 0 {
		p.JitterFraction = c.JitterFraction
	}
	return p
}

// BreakerFromConfig builds a named breaker from the retry section.
func BreakerFromConfig(name string, c config.RetryConfig) *Breaker {
	return NewBreaker(name, c.BreakerThreshold, time.Duration(c.BreakerCooldownSecs)*time.Second)
}
