package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type chromePage struct {
	opts Options

	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	url    string
	closed bool
}

func newChromePage(ctx context.Context, opts Options) (*chromePage, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	// chrome refuses to start its sandbox as root (containers).
	if os.Geteuid() == 0 {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	// the session outlives the context it was opened with, Close ends it.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	p := &chromePage{
		opts:        opts,
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// the first Run starts chrome and ties it to the context it is given,
	// so it must run on the tab itself. A timer bounds the launch instead.
	launchTimer := time.AfterFunc(opts.IdleTimeout, cancelTab)
	err := chromedp.Run(tab, cdppage.SetLifecycleEventsEnabled(true))
	launched := launchTimer.Stop()
	if err == nil && !launched {
		err = ErrIdleTimeout
	}
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return p, nil
}

// run executes actions on the tab, bounded by the idle timeout and by ctx.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.tab, p.opts.IdleTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// navigate runs actions that are expected to trigger a navigation, then
// waits for the new document to reach network idle and settles.
func (p *chromePage) navigate(ctx context.Context, actions ...chromedp.Action) error {
	if p.closed {
		return ErrClosed
	}

	runCtx, cancel := context.WithTimeout(p.tab, p.opts.IdleTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	idle := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(runCtx)
	defer stopListening()
	loaderId := ""
	chromedp.ListenTarget(listenCtx, func(ev any) {
		lifecycle, ok := ev.(*cdppage.EventLifecycleEvent)
		if !ok {
			return
		}
		switch lifecycle.Name {
		case "init":
			// subframes report init after the main frame.
			if loaderId == "" {
				loaderId = string(lifecycle.LoaderID)
			}
		case "networkIdle":
			if loaderId == "" || string(lifecycle.LoaderID) != loaderId {
				return
			}
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	res, err := chromedp.RunResponse(runCtx, actions...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrIdleTimeout, err)
		}
		return err
	}
	if res != nil && res.Status != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrStatus, res.URL, res.Status)
	}

	select {
	case <-idle:
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrIdleTimeout
	}

	var location string
	err = p.run(ctx, chromedp.Location(&location))
	if err != nil {
		return err
	}
	p.url = location

	return sleep(ctx, p.opts.SettleDelay)
}

func (p *chromePage) Goto(ctx context.Context, target string) error {
	ctx, span := tracer.Start(ctx, "chrome:Goto")
	defer span.End()
	span.SetAttributes(attribute.String("url", target))

	err := p.navigate(ctx, chromedp.Navigate(target))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return err
	}
	return nil
}

func (p *chromePage) SubmitForm(ctx context.Context, formSelector string, values map[string]string) error {
	ctx, span := tracer.Start(ctx, "chrome:SubmitForm")
	defer span.End()
	span.SetAttributes(attribute.String("form", formSelector))

	doc, err := Document(ctx, p)
	if err != nil {
		return err
	}
	form := doc.Find(formSelector).First()
	if form.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, formSelector)
	}

	var fill chromedp.Tasks
	for name, value := range values {
		fill = append(fill, chromedp.SetValue(
			fmt.Sprintf(`%s [name="%s"]`, formSelector, name),
			value,
			chromedp.ByQuery,
		))
	}
	err = p.run(ctx, fill)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill form")
		return err
	}

	var submit chromedp.Action = chromedp.Submit(formSelector, chromedp.ByQuery)
	if form.Find(`input[type="submit"]`).Length() > 0 {
		submit = chromedp.Click(formSelector+` input[type="submit"]`, chromedp.ByQuery)
	}
	err = p.navigate(ctx, submit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form submission failed")
		return err
	}
	return nil
}

func (p *chromePage) Follow(ctx context.Context, href string) error {
	target := href
	if base, err := url.Parse(p.url); err == nil && p.url != "" {
		ref, err := url.Parse(href)
		if err != nil {
			return err
		}
		target = base.ResolveReference(ref).String()
	}
	return p.Goto(ctx, target)
}

func (p *chromePage) URL() string {
	return p.url
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	if p.closed {
		return "", ErrClosed
	}
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromePage) Text(ctx context.Context) (string, error) {
	if p.closed {
		return "", ErrClosed
	}
	var text string
	err := p.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	return strings.ReplaceAll(text, "\r\n", "\n"), err
}

func (p *chromePage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := chromedp.Cancel(p.tab)
	p.cancelTab()
	p.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
