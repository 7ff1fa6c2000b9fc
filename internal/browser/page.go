package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is one loaded document: the resolved URL, the parsed DOM and the form
// controls extracted from it in document order.
type Page struct {
	url     *url.URL
	doc     *goquery.Document
	forms   []*form
	fields  []*Element
	buttons []*Element
}

// form mirrors one <form> on the page: where it submits to and the values the
// controls currently hold. Filling a field updates values; attaching a file
// registers it for a multipart submission.
type form struct {
	action  string
	method  string
	enctype string
	values  url.Values
	files   map[string]string
}

func (f *form) cloneValues() url.Values {
	clone := make(url.Values, len(f.values))
	for key, vals := range f.values {
		clone[key] = append([]string(nil), vals...)
	}

	return clone
}

// Element is one interactable control: a fillable field, a button or a link.
type Element struct {
	form *form

	Tag         string
	Type        string
	Name        string
	ID          string
	Label       string
	Placeholder string
	Aria        string
	Value       string
	Text        string
	Options     []string

	href    string
	checked bool
}

func (el *Element) describe() string {
	for _, id := range []string{el.Name, el.ID, el.Aria, el.Label, el.Placeholder, el.Text} {
		if id = strings.TrimSpace(id); id != "" {
			return fmt.Sprintf("%s[%s]", el.Tag, id)
		}
	}

	return el.Tag
}

func (el *Element) setValue(value string) {
	el.Value = value
	if el.form != nil && el.Name != "" {
		el.form.values.Set(el.Name, value)
	}
}

func (el *Element) attachFile(path string) {
	if el.form != nil && el.Name != "" {
		el.form.files[el.Name] = path
	}
}

func newPage(u *url.URL, doc *goquery.Document) *Page {
	p := &Page{url: u, doc: doc}

	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		f := &form{
			action:  sel.AttrOr("action", ""),
			method:  sel.AttrOr("method", ""),
			enctype: sel.AttrOr("enctype", ""),
			values:  url.Values{},
			files:   map[string]string{},
		}
		p.forms = append(p.forms, f)

		sel.Find("input, textarea, select, button").Each(func(_ int, control *goquery.Selection) {
			p.addControl(f, control)
		})
	})

	// Controls living outside any form are still enumerated so they can be
	// classified, they just cannot be submitted.
	doc.Find("input, textarea, select, button").Each(func(_ int, control *goquery.Selection) {
		if control.Closest("form").Length() > 0 {
			return
		}
		p.addControl(nil, control)
	})

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		p.buttons = append(p.buttons, &Element{
			Tag:  "a",
			ID:   anchor.AttrOr("id", ""),
			Aria: anchor.AttrOr("aria-label", ""),
			Text: strings.TrimSpace(anchor.Text()),
			href: anchor.AttrOr("href", ""),
		})
	})

	return p
}

func (p *Page) addControl(f *form, sel *goquery.Selection) {
	if _, disabled := sel.Attr("disabled"); disabled {
		return
	}

	el := &Element{
		form:        f,
		Tag:         goquery.NodeName(sel),
		Type:        strings.ToLower(sel.AttrOr("type", "")),
		Name:        sel.AttrOr("name", ""),
		ID:          sel.AttrOr("id", ""),
		Placeholder: sel.AttrOr("placeholder", ""),
		Aria:        sel.AttrOr("aria-label", ""),
		Value:       sel.AttrOr("value", ""),
	}
	_, el.checked = sel.Attr("checked")

	switch el.Tag {
	case "textarea":
		el.Value = strings.TrimSpace(sel.Text())
	case "select":
		sel.Find("option").Each(func(i int, opt *goquery.Selection) {
			value := opt.AttrOr("value", strings.TrimSpace(opt.Text()))
			el.Options = append(el.Options, value)
			if _, selected := opt.Attr("selected"); selected || i == 0 {
				el.Value = value
			}
		})
	case "button":
		el.Text = strings.TrimSpace(sel.Text())
		if el.Type == "" {
			// An untyped <button> submits its form.
			el.Type = "submit"
		}
	}

	if el.ID != "" {
		el.Label = p.labelFor(el.ID)
	}
	if el.Label == "" {
		if parent := sel.Closest("label"); parent.Length() > 0 {
			el.Label = strings.TrimSpace(parent.Text())
		}
	}

	p.seedValue(el)

	switch {
	case el.Type == "reset":
	case el.Tag == "button" || el.Type == "submit" || el.Type == "button" || el.Type == "image":
		if el.Text == "" {
			el.Text = el.Value
		}
		p.buttons = append(p.buttons, el)
	case el.Type == "hidden":
	default:
		p.fields = append(p.fields, el)
	}
}

// seedValue records the control's current value in its form, the way a real
// browser would submit an untouched field.
func (p *Page) seedValue(el *Element) {
	if el.form == nil || el.Name == "" {
		return
	}

	switch {
	case el.Tag == "select", el.Tag == "textarea":
		if el.Value != "" {
			el.form.values.Set(el.Name, el.Value)
		}
	case el.Type == "checkbox", el.Type == "radio":
		if el.checked {
			value := el.Value
			if value == "" {
				value = "on"
			}
			el.form.values.Add(el.Name, value)
		}
	case el.Type == "submit", el.Type == "button", el.Type == "image", el.Type == "reset", el.Type == "file":
	default:
		if el.Value != "" {
			el.form.values.Set(el.Name, el.Value)
		}
	}
}

func (p *Page) labelFor(id string) string {
	label := p.doc.Find(fmt.Sprintf("label[for=%q]", id)).First()
	if label.Length() == 0 {
		return ""
	}

	return strings.TrimSpace(label.Text())
}

// URL reports the page's resolved address, redirects included.
func (p *Page) URL() string {
	if p.url == nil {
		return ""
	}

	return p.url.String()
}

// Text returns the page's rendered text content.
func (p *Page) Text() string {
	return p.doc.Text()
}

// Fields returns the fillable controls in document order. Hidden and disabled
// inputs are excluded.
func (p *Page) Fields() []*Element {
	return p.fields
}

// Buttons returns the clickable controls: submit inputs, buttons and links.
func (p *Page) Buttons() []*Element {
	return p.buttons
}

// ContainsAny scans the page text for the first matching phrase, case
// insensitively.
func (p *Page) ContainsAny(phrases []string) (string, bool) {
	text := strings.ToLower(p.Text())
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(phrase)) {
			return phrase, true
		}
	}

	return "", false
}

// resolve makes href absolute against the page URL.
func (p *Page) resolve(href string) string {
	if p.url == nil {
		return href
	}

	u, err := p.url.Parse(href)
	if err != nil {
		return href
	}

	return u.String()
}
