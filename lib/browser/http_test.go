package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<form action="/Search/Account" method="post">
  <input type="hidden" name="__RequestVerificationToken" value="tok">
  <input type="text" name="AccountNumber" value="">
  <input type="checkbox" name="Remember" value="yes">
  <input type="submit" name="Go" value="Search">
</form>
<form action="/Search/Address" method="get">
  <select name="Kind"><option value="a">A</option><option value="b" selected>B</option></select>
  <input type="text" name="Address">
  <input type="submit" value="Search">
</form>
</body></html>`

func testOptions() Options {
	opts := DefaultOptions()
	opts.IdleTimeout = 2 * time.Second
	opts.SettleDelay = 0
	return opts
}

func newPortal(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		fmt.Fprint(w, searchPage)
	})
	mux.HandleFunc("/Search/Account", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "abc" {
			http.Error(w, "no session", http.StatusForbidden)
			return
		}
		fmt.Fprintf(
			w,
			`<html><body><div>Account: %s</div><div>token %s</div><div>go %s</div><div>remember [%s]</div></body></html>`,
			r.PostForm.Get("AccountNumber"),
			r.PostForm.Get("__RequestVerificationToken"),
			r.PostForm.Get("Go"),
			r.PostForm.Get("Remember"),
		)
	})
	mux.HandleFunc("/Search/Address", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><p>%s / %s</p><a href="Detail?id=7">open</a></body></html>`,
			r.URL.Query().Get("Address"), r.URL.Query().Get("Kind"))
	})
	mux.HandleFunc("/Search/Detail", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>detail %s</body></html>`, r.URL.Query().Get("id"))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/Search/Detail?id=9", http.StatusFound)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHttpSubmitPostForm(t *testing.T) {
	server := newPortal(t)
	ctx := context.Background()

	err := With(ctx, testOptions(), func(page Page) error {
		require.NoError(t, page.Goto(ctx, server.URL+"/search"))
		require.NoError(t, page.SubmitForm(ctx, `form[action*="Account"]`, map[string]string{
			"AccountNumber": "302913026",
		}))
		require.Equal(t, server.URL+"/Search/Account", page.URL())

		text, err := page.Text(ctx)
		require.NoError(t, err)
		expected := []string{
			"Account: 302913026",
			"token tok",
			"go Search",
			"remember []",
		}
		if diff := cmp.Diff(expected, strings.Split(text, "\n")); diff != "" {
			t.Fatal(diff)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestHttpSubmitGetFormAndFollow(t *testing.T) {
	server := newPortal(t)
	ctx := context.Background()

	page, err := Open(ctx, testOptions())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto(ctx, server.URL+"/search"))
	require.NoError(t, page.SubmitForm(ctx, `form[action*="Address"]`, map[string]string{
		"Address": "42 Elm St",
	}))
	text, err := page.Text(ctx)
	require.NoError(t, err)
	require.Contains(t, text, "42 Elm St / b")

	doc, err := Document(ctx, page)
	require.NoError(t, err)
	href := doc.Find("a").AttrOr("href", "")
	require.NoError(t, page.Follow(ctx, href))
	require.Equal(t, server.URL+"/Search/Detail?id=7", page.URL())

	text, err = page.Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "detail 7", text)
}

func TestHttpRedirectUpdatesUrl(t *testing.T) {
	server := newPortal(t)
	ctx := context.Background()

	page, err := Open(ctx, testOptions())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto(ctx, server.URL+"/redirect"))
	require.Equal(t, server.URL+"/Search/Detail?id=9", page.URL())
}

func TestHttpErrors(t *testing.T) {
	server := newPortal(t)
	ctx := context.Background()

	opts := testOptions()
	opts.IdleTimeout = 200 * time.Millisecond
	page, err := Open(ctx, opts)
	require.NoError(t, err)

	require.ErrorIs(t, page.Goto(ctx, server.URL+"/down"), ErrStatus)
	require.ErrorIs(t, page.Goto(ctx, server.URL+"/slow"), ErrIdleTimeout)

	require.NoError(t, page.Goto(ctx, server.URL+"/search"))
	require.ErrorIs(t, page.SubmitForm(ctx, `form[action*="Nope"]`, nil), ErrElementNotFound)

	require.NoError(t, page.Close())
	require.NoError(t, page.Close())
	_, err = page.Text(ctx)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, page.Goto(ctx, server.URL+"/search"), ErrClosed)
}

func TestOpenUnknownDriver(t *testing.T) {
	opts := testOptions()
	opts.Driver = "netscape"
	_, err := Open(context.Background(), opts)
	require.ErrorIs(t, err, ErrLaunch)
}

func TestSessionsAreIsolated(t *testing.T) {
	server := newPortal(t)
	ctx := context.Background()

	first, err := Open(ctx, testOptions())
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.Goto(ctx, server.URL+"/search"))

	second, err := Open(ctx, testOptions())
	require.NoError(t, err)
	defer second.Close()

	// the session cookie was only ever set on the first page.
	err = second.Goto(ctx, server.URL+"/Search/Account")
	require.ErrorIs(t, err, ErrStatus)
}

func TestReadForm(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(searchPage))
	require.NoError(t, err)
	pageUrl, err := url.Parse("https://portal.test/OnlinePayment/Search?uid=305")
	require.NoError(t, err)

	form, err := ReadForm(doc.Find(`form[action*="Account"]`), pageUrl, map[string]string{
		"AccountNumber": "1",
	})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, form.Method)
	require.Equal(t, "https://portal.test/Search/Account", form.Action.String())
	expected := url.Values{
		"__RequestVerificationToken": {"tok"},
		"AccountNumber":              {"1"},
		"Go":                         {"Search"},
	}
	if diff := cmp.Diff(expected, form.Values); diff != "" {
		t.Fatal(diff)
	}

	form, err = ReadForm(doc.Find(`form[action*="Address"]`), pageUrl, nil)
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, form.Method)
	require.Equal(t, url.Values{"Kind": {"b"}, "Address": {""}}, form.Values)
}
