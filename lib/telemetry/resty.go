package telemetry

import (
	"fmt"
	"net/http"
	"strings"
	"waterbill-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// portal pages are large, only the head of a body is kept on the span.
const bodyAttributeLimit = 4096

// session cookies are never recorded.
var redactedHeaders = map[string]bool{
	"Cookie":        true,
	"Set-Cookie":    true,
	"Authorization": true,
}

// InstrumentResty opens a span per request made by client. Headers and the
// head of both bodies are attached as attributes.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), "http "+req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func headerAttributes(prefix string, headers http.Header) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for name, values := range headers {
		key := fmt.Sprintf("%s/header: %s", prefix, name)
		if redactedHeaders[http.CanonicalHeaderKey(name)] {
			attrs = append(attrs, attribute.String(key, "<redacted>"))
			continue
		}
		attrs = append(attrs, attribute.String(key, strings.Join(values, ", ")))
	}
	return attrs
}

func truncateBody(body string) string {
	if len(body) <= bodyAttributeLimit {
		return body
	}
	return body[:bodyAttributeLimit] + fmt.Sprintf("... (%d bytes)", len(body))
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// RawRequest is only known once the request has been sent.
	if res.Request.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
		span.SetAttributes(attribute.String("request/body", truncateBody(restyutil.RequestBody(res.Request.RawRequest))))
	}
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	}
	span.SetAttributes(headerAttributes("request", res.Request.Header)...)
	span.SetAttributes(headerAttributes("response", res.Header())...)
	span.SetAttributes(attribute.String("response/body", truncateBody(res.String())))

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(headerAttributes("request", req.Header)...)
	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}
}
