package autofill

import (
	"fmt"

	"go.uber.org/zap"
)

// verify settles the outcome after the submit click. Anything short of a
// positive confirmation stays a failure: a page that still shows fillable
// fields, or that neither confirms nor redirects, is never counted as
// submitted.
func (m *Machine) verify(p *pass) state {
	if sig, ok := p.page.ContainsAny(m.cfg.SuccessSignatures); ok {
		p.log.Info("submission confirmed", zap.String("signature", sig))
		return p.end(OutcomeSubmitted, fmt.Sprintf("confirmation: %q", sig))
	}

	if banner, ok := p.page.ContainsAny(m.cfg.ErrorBanners); ok {
		return p.end(OutcomeUnverified, fmt.Sprintf("error banner after submit: %q", banner))
	}

	if url := p.page.URL(); url != "" && url != p.formURL && !hasFillableFields(p.page) {
		p.log.Info("submission confirmed", zap.String("redirect", url))
		return p.end(OutcomeSubmitted, "left the form after submit")
	}

	return p.end(OutcomeUnverified, "no confirmation found after submit")
}
