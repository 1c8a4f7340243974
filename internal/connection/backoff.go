package connection

import "time"

// Default reconnect policy values.
const (
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxAttempts = 5
)

// LinearBackoff delays retry n by Base × n and allows at most MaxAttempts
// consecutive retries.
type LinearBackoff struct {
	Base        time.Duration
	MaxAttempts int
}

// DefaultBackoff returns the 2s × attempt, 5 attempt policy.
func DefaultBackoff() LinearBackoff {
	return LinearBackoff{Base: DefaultBaseDelay, MaxAttempts: DefaultMaxAttempts}
}

// Next returns the delay before retry number attempt (1-based) and whether
// that retry is allowed at all.
func (b LinearBackoff) Next(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > b.MaxAttempts {
		return 0, false
	}
	return b.Base * time.Duration(attempt), true
}
