package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"waterbill-backend/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("waterbill.lib.browser")

var (
	ErrLaunch          = errors.New("browser failed to launch")
	ErrStatus          = errors.New("unexpected response status")
	ErrIdleTimeout     = errors.New("timed out waiting for network idle")
	ErrElementNotFound = errors.New("element not found")
	ErrClosed          = errors.New("page is closed")
)

type Driver string

const (
	// DriverHTTP speaks plain HTTP with a cookie jar, it does not run
	// javascript.
	DriverHTTP Driver = "http"
	// DriverChrome drives a real (headless) chrome over the devtools
	// protocol.
	DriverChrome Driver = "chrome"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Viewport struct {
	Width  int
	Height int
}

type Options struct {
	Driver    Driver
	Headless  bool
	UserAgent string
	Viewport  Viewport
	// IdleTimeout bounds every wait for the network to go idle.
	IdleTimeout time.Duration
	// SettleDelay is slept after the network goes idle so late scripts can
	// finish rendering.
	SettleDelay time.Duration

	// Traffic receives a dump of every request made by the http driver.
	Traffic restyutil.Output
}

func DefaultOptions() Options {
	return Options{
		Driver:      DriverHTTP,
		Headless:    true,
		UserAgent:   DefaultUserAgent,
		Viewport:    Viewport{Width: 1280, Height: 720},
		IdleTimeout: 30 * time.Second,
		SettleDelay: time.Second,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.Driver == "" {
		o.Driver = defaults.Driver
	}
	if o.UserAgent == "" {
		o.UserAgent = defaults.UserAgent
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = defaults.Viewport
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = defaults.IdleTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	return o
}

// Page is a live page of one isolated browser session. A page is owned by a
// single lookup and must not be shared.
type Page interface {
	// Goto navigates to an absolute url and waits for the network to go
	// idle.
	Goto(ctx context.Context, url string) error
	// SubmitForm fills the named fields of the first form matching
	// formSelector, submits it and waits for the network to go idle.
	SubmitForm(ctx context.Context, formSelector string, values map[string]string) error
	// Follow navigates to a link found on the current page, as if it had
	// been clicked.
	Follow(ctx context.Context, href string) error

	URL() string
	HTML(ctx context.Context) (string, error)
	// Text is the rendered text of the page body.
	Text(ctx context.Context) (string, error)

	// Close releases every resource held by the session, it is safe to call
	// more than once.
	Close() error
}

// Open launches a new isolated session with the given options.
func Open(ctx context.Context, opts Options) (Page, error) {
	ctx, span := tracer.Start(ctx, "browser:Open")
	defer span.End()

	opts = opts.withDefaults()
	slog.DebugContext(ctx, "opening browser session", "driver", opts.Driver, "headless", opts.Headless)

	var page Page
	var err error
	switch opts.Driver {
	case DriverHTTP:
		page, err = newHttpPage(opts)
	case DriverChrome:
		page, err = newChromePage(ctx, opts)
	default:
		err = fmt.Errorf("%w: unknown driver %q", ErrLaunch, opts.Driver)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open session")
		return nil, err
	}
	return page, nil
}

// With opens a session, runs fn with its page and closes the session on
// every exit path.
func With(ctx context.Context, opts Options, fn func(page Page) error) error {
	page, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		err := page.Close()
		if err != nil {
			slog.WarnContext(ctx, "failed to close browser session", "err", err)
		}
	}()
	return fn(page)
}

// Document parses the current page's html.
func Document(ctx context.Context, page Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
