package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"waterbill-backend/lib/htmlutil"
	"waterbill-backend/lib/restyutil"
	"waterbill-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type httpPage struct {
	opts   Options
	client *resty.Client

	url    *url.URL
	body   []byte
	closed bool
}

func newHttpPage(opts Options) (*httpPage, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(opts.IdleTimeout)

	telemetry.InstrumentResty(client, "waterbill.lib.browser/http")
	if opts.Traffic != nil {
		restyutil.DumpTraffic(client, opts.Traffic)
	}

	return &httpPage{opts: opts, client: client}, nil
}

func (p *httpPage) do(ctx context.Context, req *resty.Request, method, target string) error {
	if p.closed {
		return ErrClosed
	}

	res, err := req.SetContext(ctx).Execute(method, target)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: %s %s: %v", ErrIdleTimeout, method, target, err)
		}
		return err
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %s %s returned %d", ErrStatus, method, target, res.StatusCode())
	}

	final := res.RawResponse.Request.URL
	p.url = final
	p.body = res.Body()
	return nil
}

func (p *httpPage) Goto(ctx context.Context, target string) error {
	ctx, span := tracer.Start(ctx, "http:Goto")
	defer span.End()
	span.SetAttributes(attribute.String("url", target))

	err := p.do(ctx, p.client.R(), http.MethodGet, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return err
	}
	return nil
}

func (p *httpPage) document() (*goquery.Document, error) {
	if p.closed {
		return nil, ErrClosed
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(p.body))
}

func (p *httpPage) SubmitForm(ctx context.Context, formSelector string, values map[string]string) error {
	ctx, span := tracer.Start(ctx, "http:SubmitForm")
	defer span.End()
	span.SetAttributes(attribute.String("form", formSelector))

	if p.url == nil {
		return fmt.Errorf("%w: no page loaded", ErrElementNotFound)
	}
	doc, err := p.document()
	if err != nil {
		return err
	}
	sel := doc.Find(formSelector).First()
	if sel.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, formSelector)
	}

	form, err := ReadForm(sel, p.url, values)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read form")
		return err
	}

	req := p.client.R()
	target := *form.Action
	if form.Method == http.MethodPost {
		req.SetFormDataFromValues(form.Values)
	} else {
		target.RawQuery = form.Values.Encode()
	}

	err = p.do(ctx, req, form.Method, target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form submission failed")
		return err
	}
	return nil
}

func (p *httpPage) Follow(ctx context.Context, href string) error {
	if p.url == nil {
		return p.Goto(ctx, href)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return err
	}
	return p.Goto(ctx, p.url.ResolveReference(ref).String())
}

func (p *httpPage) URL() string {
	if p.url == nil {
		return ""
	}
	return p.url.String()
}

func (p *httpPage) HTML(ctx context.Context) (string, error) {
	if p.closed {
		return "", ErrClosed
	}
	return string(p.body), nil
}

func (p *httpPage) Text(ctx context.Context) (string, error) {
	doc, err := p.document()
	if err != nil {
		return "", err
	}
	return htmlutil.InnerText(doc.Find("body")), nil
}

func (p *httpPage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.body = nil
	p.client.GetClient().CloseIdleConnections()
	return nil
}
