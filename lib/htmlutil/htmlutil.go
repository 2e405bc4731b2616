package htmlutil

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var tracer = otel.Tracer("waterbill.lib.htmlutil")

// GetText concatenates every text node under node in document order.
func GetText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var out strings.Builder
	stack := []*html.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
			continue
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return out.String()
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText trims a fragment of text, drops non-printable characters and
// collapses inner runs of whitespace.
func CleanText(text string) string {
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	return innerWhitespace.ReplaceAllString(text, " ")
}

// GetAnchors returns the cleaned label and href of every anchor in sel.
// Anchors without an href or with an href that does not parse as a url
// are skipped.
func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "htmlutil:GetAnchors")
	defer span.End()

	var anchors []Anchor
	sel.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "skipped anchor with a malformed href")
			return
		}
		anchor := Anchor{
			Name: CleanText(GetText(a.Get(0))),
			Href: link.String(),
		}
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", anchor.Name),
			attribute.String("url", anchor.Href),
		))
		anchors = append(anchors, anchor)
	})
	return anchors
}

var skippedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Input:    true,
	atom.Button:   true,
	atom.Select:   true,
	atom.Textarea: true,
}

var blockElements = map[atom.Atom]bool{
	atom.Address:    true,
	atom.Article:    true,
	atom.Aside:      true,
	atom.Blockquote: true,
	atom.Body:       true,
	atom.Caption:    true,
	atom.Dd:         true,
	atom.Div:        true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Fieldset:   true,
	atom.Figcaption: true,
	atom.Figure:     true,
	atom.Footer:     true,
	atom.Form:       true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Header:     true,
	atom.Hr:         true,
	atom.Legend:     true,
	atom.Li:         true,
	atom.Main:       true,
	atom.Nav:        true,
	atom.Ol:         true,
	atom.P:          true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Table:      true,
	atom.Tbody:      true,
	atom.Tfoot:      true,
	atom.Thead:      true,
	atom.Tr:         true,
	atom.Ul:         true,
}

// innerTextWriter approximates what a browser's `innerText` produces for a
// rendered page: block boundaries become newlines, adjacent table cells are
// separated by tabs and runs of whitespace inside text collapse to one space.
type innerTextWriter struct {
	out          strings.Builder
	pendingSpace bool
	pendingTab   bool
	pendingBreak bool
}

func (w *innerTextWriter) flush() {
	if w.out.Len() == 0 {
		w.pendingSpace, w.pendingTab, w.pendingBreak = false, false, false
		return
	}
	switch {
	case w.pendingBreak:
		w.out.WriteByte('\n')
	case w.pendingTab:
		w.out.WriteByte('\t')
	case w.pendingSpace:
		w.out.WriteByte(' ')
	}
	w.pendingSpace, w.pendingTab, w.pendingBreak = false, false, false
}

func (w *innerTextWriter) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" {
			w.pendingSpace = true
		}
		return
	}
	if unicode.IsSpace(rune(s[0])) {
		w.pendingSpace = true
	}
	w.flush()
	w.out.WriteString(strings.Join(words, " "))
	w.pendingSpace = unicode.IsSpace(rune(s[len(s)-1]))
}

func hidden(node *html.Node) bool {
	for _, a := range node.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") {
				return true
			}
		}
	}
	return false
}

func isCell(node *html.Node) bool {
	return node != nil && node.Type == html.ElementNode &&
		(node.DataAtom == atom.Td || node.DataAtom == atom.Th)
}

func previousElement(node *html.Node) *html.Node {
	for sib := node.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode {
			return sib
		}
	}
	return nil
}

func (w *innerTextWriter) walk(node *html.Node) {
	switch node.Type {
	case html.TextNode:
		w.text(node.Data)
		return
	case html.ElementNode:
		if skippedElements[node.DataAtom] || hidden(node) {
			return
		}
		if node.DataAtom == atom.Br {
			w.flush()
			w.out.WriteByte('\n')
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		w.pendingBreak = true
	}
	if isCell(node) && isCell(previousElement(node)) && !w.pendingBreak {
		w.pendingTab = true
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		w.walk(child)
	}

	if block {
		w.pendingBreak = true
	}
}

// InnerText renders the text of a selection the way a browser lays it out.
func InnerText(sel *goquery.Selection) string {
	w := &innerTextWriter{}
	for _, n := range sel.Nodes {
		w.walk(n)
		w.pendingBreak = true
	}
	return w.out.String()
}

// Lines splits rendered text into trimmed, non-empty lines. Tabs inside a
// line (table cell separators) are preserved.
func Lines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
