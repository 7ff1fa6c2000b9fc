package browser

import "strings"

// Locator describes a form field by its semantic role instead of a fixed
// selector. Each list feeds one matching strategy; strategies run in the
// order attribute, label, placeholder, ARIA and the first hit wins. Pages
// whose markup changes shape keep resolving as long as any one signal
// survives.
type Locator struct {
	// Role names the field in errors and logs, e.g. "email input".
	Role         string
	Attributes   []string
	Labels       []string
	Placeholders []string
	Aria         []string
}

type strategy struct {
	name  string
	match func(*Element, Locator) bool
}

var strategies = []strategy{
	{"attribute", func(el *Element, loc Locator) bool {
		return anyFold(el.Name, loc.Attributes) || anyFold(el.ID, loc.Attributes)
	}},
	{"label", func(el *Element, loc Locator) bool {
		return anyFold(el.Label, loc.Labels)
	}},
	{"placeholder", func(el *Element, loc Locator) bool {
		return anyFold(el.Placeholder, loc.Placeholders)
	}},
	{"aria", func(el *Element, loc Locator) bool {
		return anyFold(el.Aria, loc.Aria)
	}},
}

// Find resolves the locator against the page's fillable fields. Every field
// is tried under one strategy before the next strategy runs, so a weak
// placeholder match never shadows an attribute match elsewhere on the page.
func (p *Page) Find(loc Locator) (*Element, error) {
	for _, st := range strategies {
		for _, el := range p.fields {
			if st.match(el, loc) {
				return el, nil
			}
		}
	}

	return nil, &ElementNotFoundError{Role: loc.Role}
}

// anyFold reports whether haystack contains any of the needles, case
// insensitively.
func anyFold(haystack string, needles []string) bool {
	if haystack == "" || len(needles) == 0 {
		return false
	}

	haystack = strings.ToLower(haystack)
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(needle)) {
			return true
		}
	}

	return false
}
