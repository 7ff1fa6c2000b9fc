package browser

import "fmt"

// NavigationError reports a page load that never reached a usable state:
// a transport failure, an error status, or an unparseable body.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("navigating to %s: status %d", e.URL, e.Status)
	}

	return fmt.Sprintf("navigating to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError reports a semantic locator for which every strategy
// came up empty.
type ElementNotFoundError struct {
	Role string
}

func (e *ElementNotFoundError) Error() string {
	role := e.Role
	if role == "" {
		role = "element"
	}

	return fmt.Sprintf("no match for %s after exhausting locator strategies", role)
}

// RetryExhaustedError wraps the last error once the retry budget is spent.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// RateLimitError reports page content that matched a rate-limit or block
// signature. The session arms its cooldown gate before returning it.
type RateLimitError struct {
	Signature string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (matched %q)", e.Signature)
}
