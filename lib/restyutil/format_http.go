package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

// writeHeaders writes "Name: value" lines sorted by name so two dumps of
// the same exchange diff cleanly.
func writeHeaders(out *strings.Builder, headers http.Header) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, v := range headers[name] {
			fmt.Fprintf(out, "%s: %s\n", name, v)
		}
	}
}

// RequestBody reads a sent request's body again through GetBody. Requests
// without a body (GetBody unset or returning a nil reader) give "".
func RequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<failed to get request body: %v>", err)
	}
	if body == nil {
		return ""
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<failed to read request body: %v>", err)
	}
	return string(contents)
}

// formatHttpMessage renders an exchange the way .http files do: the request
// line, headers and body, then the status line of the response with the
// url it ended up at (after redirects), its headers and body.
func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder

	out.WriteString("### request\n")
	fmt.Fprintf(&out, "%s %s\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		writeHeaders(&out, res.Request.RawRequest.Header)
		if body := RequestBody(res.Request.RawRequest); body != "" {
			out.WriteString("\n")
			out.WriteString(body)
			out.WriteString("\n")
		}
	}

	out.WriteString("\n### response\n")
	proto := "HTTP/1.1"
	finalUrl := res.Request.URL
	if res.RawResponse != nil {
		proto = res.RawResponse.Proto
		if res.RawResponse.Request != nil {
			finalUrl = res.RawResponse.Request.URL.String()
		}
	}
	fmt.Fprintf(&out, "%s %s\n", proto, res.Status())
	fmt.Fprintf(&out, "# url: %s\n", finalUrl)
	writeHeaders(&out, res.Header())
	out.WriteString("\n")
	out.WriteString(res.String())

	return out.String()
}
