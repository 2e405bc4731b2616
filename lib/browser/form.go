package browser

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form is what a browser would send when the form is submitted through its
// first submit button.
type Form struct {
	Method string
	Action *url.URL
	Values url.Values
}

// ReadForm collects the successful controls of a form element, overrides
// them with values and resolves the action against the page url.
func ReadForm(form *goquery.Selection, pageUrl *url.URL, values map[string]string) (Form, error) {
	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "")))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	action := pageUrl
	if raw := strings.TrimSpace(form.AttrOr("action", "")); raw != "" {
		ref, err := url.Parse(raw)
		if err != nil {
			return Form{}, err
		}
		action = pageUrl.ResolveReference(ref)
	}

	fields := url.Values{}
	submitted := false
	form.Find("input, select, textarea, button").Each(func(_ int, control *goquery.Selection) {
		name, ok := control.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := control.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(control) {
		case "select":
			option := control.Find("option[selected]").First()
			if option.Length() == 0 {
				option = control.Find("option").First()
			}
			if option.Length() > 0 {
				fields.Add(name, optionValue(option))
			}
		case "textarea":
			fields.Add(name, control.Text())
		case "button":
			kind := strings.ToLower(control.AttrOr("type", "submit"))
			if kind == "submit" && !submitted {
				fields.Add(name, control.AttrOr("value", ""))
				submitted = true
			}
		default:
			kind := strings.ToLower(control.AttrOr("type", "text"))
			switch kind {
			case "submit", "image":
				if !submitted {
					fields.Add(name, control.AttrOr("value", ""))
					submitted = true
				}
			case "button", "reset", "file":
			case "checkbox", "radio":
				if _, checked := control.Attr("checked"); checked {
					fields.Add(name, control.AttrOr("value", "on"))
				}
			default:
				fields.Add(name, control.AttrOr("value", ""))
			}
		}
	})

	for name, value := range values {
		fields.Set(name, value)
	}

	return Form{Method: method, Action: action, Values: fields}, nil
}

func optionValue(option *goquery.Selection) string {
	if value, ok := option.Attr("value"); ok {
		return value
	}
	return strings.TrimSpace(option.Text())
}
