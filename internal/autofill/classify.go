package autofill

import (
	"strings"

	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/materials"
)

// role is the semantic meaning assigned to a form field. Unknown fields are
// never guessed at and never filled.
type role int

const (
	roleUnknown role = iota
	roleEmail
	rolePhone
	roleFirstName
	roleLastName
	roleFullName
	roleResumeFile
	roleCoverLetterFile
)

func (r role) String() string {
	switch r {
	case roleEmail:
		return "email"
	case rolePhone:
		return "phone"
	case roleFirstName:
		return "first-name"
	case roleLastName:
		return "last-name"
	case roleFullName:
		return "full-name"
	case roleResumeFile:
		return "resume-file"
	case roleCoverLetterFile:
		return "cover-letter-file"
	default:
		return "unknown"
	}
}

// strong reports whether the role only appears on application forms. Email
// and name fields also show up on login and signup walls, so they do not
// count when deciding whether a page is an application form.
func (r role) strong() bool {
	switch r {
	case rolePhone, roleFirstName, roleLastName, roleResumeFile, roleCoverLetterFile:
		return true
	default:
		return false
	}
}

// binding ties a discovered element to the value or file that fills it.
// Bindings live for one form page only.
type binding struct {
	element *browser.Element
	role    role
	value   string
	file    string
}

type roleRule struct {
	role    role
	markers []string
}

// Ordered most specific first: "first name" has to win before the bare
// "name" marker of roleFullName gets a look.
var textRoles = []roleRule{
	{roleEmail, []string{"email", "e-mail"}},
	{rolePhone, []string{"phone", "mobile"}},
	{roleFirstName, []string{"first name", "first_name", "firstname", "given name", "given-name"}},
	{roleLastName, []string{"last name", "last_name", "lastname", "family name", "surname"}},
	{roleFullName, []string{"full name", "full_name", "fullname", "your name", "name"}},
}

var fileRoles = []roleRule{
	{roleCoverLetterFile, []string{"cover letter", "cover_letter", "cover-letter", "coverletter"}},
	{roleResumeFile, []string{"resume", "cv", "curriculum"}},
}

// classify maps a field to its semantic role using the field's own signals:
// type attribute first, then label, aria label, placeholder, name and id.
func classify(el *browser.Element) role {
	switch el.Type {
	case "email":
		return roleEmail
	case "tel":
		return rolePhone
	}

	signals := fieldSignals(el)

	rules := textRoles
	if el.Type == "file" {
		rules = fileRoles
	}

	for _, rule := range rules {
		if containsAnyMarker(signals, rule.markers) {
			return rule.role
		}
	}

	return roleUnknown
}

func fieldSignals(el *browser.Element) string {
	parts := []string{el.Label, el.Aria, el.Placeholder, el.Name, el.ID}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAnyMarker(signals string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(signals, marker) {
			return true
		}
	}
	return false
}

// valueFor resolves what a role gets filled with. ok is false when the
// profile or material set has nothing to offer for it.
func valueFor(r role, candidate *jobs.Candidate, set materials.Set) (value, file string, ok bool) {
	switch r {
	case roleEmail:
		value = candidate.Contact.Email
	case rolePhone:
		value = candidate.Contact.Phone
	case roleFirstName:
		value = candidate.Contact.FirstName
	case roleLastName:
		value = candidate.Contact.LastName
	case roleFullName:
		value = candidate.FullName()
	case roleResumeFile:
		file = set.ResumePath
	case roleCoverLetterFile:
		file = set.CoverLetterPath
	}

	value = strings.TrimSpace(value)
	file = strings.TrimSpace(file)
	return value, file, value != "" || file != ""
}

// findButton returns the first clickable control whose visible text, value
// or accessible name contains one of the words.
func findButton(page *browser.Page, words []string) (*browser.Element, bool) {
	for _, el := range page.Buttons() {
		signals := strings.ToLower(strings.Join([]string{el.Text, el.Value, el.Aria, el.Name, el.ID}, " "))
		for _, word := range words {
			if strings.Contains(signals, word) {
				return el, true
			}
		}
	}
	return nil, false
}

// hasFillableFields reports whether any field on the page classifies to a
// known role. Job description pages fail this check and trigger the apply
// control probe.
func hasFillableFields(page *browser.Page) bool {
	for _, el := range page.Fields() {
		if classify(el) != roleUnknown {
			return true
		}
	}
	return false
}
