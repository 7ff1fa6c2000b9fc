package filtering

import (
	"context"
	"strings"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type companyBlocklistFilter struct {
	toggle
	companies []string
}

// NewCompanyBlocklist creates a filter that removes postings from the
// configured companies. An empty list passes everything through.
func NewCompanyBlocklist(companies []string) Filter {
	return &companyBlocklistFilter{companies: companies}
}

func (f *companyBlocklistFilter) Name() string { return "company-blocklist" }

func (f *companyBlocklistFilter) Apply(_ context.Context, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)

	if len(f.companies) == 0 {
		return postings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	blocked := map[string]bool{}
	for _, company := range f.companies {
		name := strings.ToLower(strings.TrimSpace(company))
		if name == "" {
			continue
		}
		blocked[name] = true
	}

	kept := make([]jobs.Posting, 0, len(postings))
	for _, p := range postings {
		if blocked[strings.ToLower(strings.TrimSpace(p.Company))] {
			continue
		}
		kept = append(kept, p)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

func (f *companyBlocklistFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
