package jobs

import (
	"net/url"
	"strings"
	"time"
)

// ATSKind identifies the application tracking system behind a posting's apply
// URL. The set is closed: recognized hosts map to their system, any other well
// formed URL maps to ATSGeneric and an unusable URL maps to ATSUnknown.
type ATSKind string

const (
	ATSWorkday    ATSKind = "workday"
	ATSGreenhouse ATSKind = "greenhouse"
	ATSLever      ATSKind = "lever"
	ATSGeneric    ATSKind = "generic"
	ATSUnknown    ATSKind = "unknown"
)

// Posting is one discovered job. It is immutable once scored; application
// status lives in the store, not here.
type Posting struct {
	ID           string
	Title        string
	Company      string
	Location     string
	Description  string
	Source       string
	ATS          ATSKind
	ApplyURL     string
	DiscoveredAt time.Time
}

// DetectATS classifies an apply URL by host signature.
func DetectATS(applyURL string) ATSKind {
	u, err := url.Parse(strings.TrimSpace(applyURL))
	if err != nil || u.Host == "" {
		return ATSUnknown
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "myworkdayjobs.com"), strings.Contains(host, "workday.com"):
		return ATSWorkday
	case strings.Contains(host, "greenhouse.io"):
		return ATSGreenhouse
	case strings.Contains(host, "lever.co"):
		return ATSLever
	default:
		return ATSGeneric
	}
}
