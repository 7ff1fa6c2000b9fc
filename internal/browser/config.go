package browser

import "time"

const (
	DefaultRetries           = 3
	DefaultBackoffBase       = 2 * time.Second
	DefaultBackoffCap        = 30 * time.Second
	DefaultTimeout           = 30 * time.Second
	DefaultCooldown          = 5 * time.Minute
	DefaultRequestsPerSecond = 1.0
	DefaultBurst             = 2
	DefaultActionDelayMin    = 1 * time.Second
	DefaultActionDelayMax    = 3 * time.Second
	DefaultTypeDelayMin      = 20 * time.Millisecond
	DefaultTypeDelayMax      = 80 * time.Millisecond
)

// Config tunes one browsing session. Pauses set to zero disable the
// corresponding pacing entirely, which is what tests want.
type Config struct {
	// Retries bounds the total attempts made by Do, including the first one.
	Retries int `mapstructure:"retries"`
	// BackoffBase is the first retry delay; it doubles per attempt up to
	// BackoffCap, with jitter on top.
	BackoffBase time.Duration `mapstructure:"backoff-base"`
	BackoffCap  time.Duration `mapstructure:"backoff-cap"`
	// Timeout bounds every single page load.
	Timeout time.Duration `mapstructure:"timeout"`
	// Cooldown is how long the session refuses to talk to the network after a
	// rate-limit signature matched.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// Proxy routes egress through an intermediary. http(s):// and socks5://
	// URLs are accepted.
	Proxy string `mapstructure:"proxy"`
	// DataDir, when set, is locked exclusively for the lifetime of the
	// session so two automations never share one identity.
	DataDir string `mapstructure:"data-dir"`
	// UserAgents is the identity rotation pool; one entry is picked per
	// session.
	UserAgents []string `mapstructure:"user-agents"`

	RequestsPerSecond float64 `mapstructure:"requests-per-second"`
	Burst             int     `mapstructure:"burst"`

	ActionDelayMin time.Duration `mapstructure:"action-delay-min"`
	ActionDelayMax time.Duration `mapstructure:"action-delay-max"`
	TypeDelayMin   time.Duration `mapstructure:"type-delay-min"`
	TypeDelayMax   time.Duration `mapstructure:"type-delay-max"`

	RateLimitSignatures []string `mapstructure:"rate-limit-signatures"`
}

// DefaultConfig returns a fully populated configuration, human pacing
// included.
func DefaultConfig() Config {
	return Config{
		Retries:             DefaultRetries,
		BackoffBase:         DefaultBackoffBase,
		BackoffCap:          DefaultBackoffCap,
		Timeout:             DefaultTimeout,
		Cooldown:            DefaultCooldown,
		UserAgents:          DefaultUserAgents(),
		RequestsPerSecond:   DefaultRequestsPerSecond,
		Burst:               DefaultBurst,
		ActionDelayMin:      DefaultActionDelayMin,
		ActionDelayMax:      DefaultActionDelayMax,
		TypeDelayMin:        DefaultTypeDelayMin,
		TypeDelayMax:        DefaultTypeDelayMax,
		RateLimitSignatures: DefaultRateLimitSignatures(),
	}
}

func (c Config) withDefaults() Config {
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = DefaultBackoffCap
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if len(c.UserAgents) == 0 {
		c.UserAgents = DefaultUserAgents()
	}
	if len(c.RateLimitSignatures) == 0 {
		c.RateLimitSignatures = DefaultRateLimitSignatures()
	}

	return c
}

// DefaultUserAgents returns the identity rotation pool: current desktop
// browsers across the common platforms.
func DefaultUserAgents() []string {
	return []string{
		// Chrome on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		// Chrome on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		// Chrome on Linux
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		// Firefox on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		// Firefox on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
		// Edge on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	}
}

// DefaultRateLimitSignatures returns the page-content markers treated as
// throttling or blocking. The list is data so deployments can extend it
// without code changes.
func DefaultRateLimitSignatures() []string {
	return []string{
		"rate limit",
		"too many requests",
		"please slow down",
		"unusual activity",
		"temporarily blocked",
		"security check",
		"prove you're not a robot",
	}
}
