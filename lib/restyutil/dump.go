package restyutil

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Output receives one formatted request/response exchange per call.
type Output interface {
	Write(id string, contents string)
}

type dumpCtxKey struct{}

// DumpTraffic writes every exchange made through client to output, numbered
// in the order the requests were started.
func DumpTraffic(client *resty.Client, output Output) {
	if output == nil {
		return
	}

	var counter uint64
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		slog.DebugContext(
			req.Context(), "start request",
			"method", req.Method,
			"url", req.URL,
			"message_id", id,
		)
		req.SetContext(context.WithValue(req.Context(), dumpCtxKey{}, id))
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id, ok := res.Request.Context().Value(dumpCtxKey{}).(string)
		if !ok {
			return nil
		}
		output.Write(id, formatHttpMessage(res))
		slog.DebugContext(
			res.Request.Context(), "request finished",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"message_id", id,
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		id, _ := req.Context().Value(dumpCtxKey{}).(string)
		slog.WarnContext(
			req.Context(), "request failed",
			"method", req.Method,
			"url", req.URL,
			"message_id", id,
			"err", err,
		)
	})
}
