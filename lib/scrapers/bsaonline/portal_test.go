package bsaonline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"waterbill-backend/lib/browser"

	"github.com/stretchr/testify/require"
)

const searchPage = `<html><head><title>Online Payments</title></head><body>
<h1>Utility Billing</h1>
<form action="/OnlinePayment/SearchByAccount" method="post">
  <label>Account Number</label>
  <input type="hidden" name="uid" value="305">
  <input type="text" name="AccountNumber">
  <input type="submit" value="Search">
</form>
<form action="/OnlinePayment/SearchByAddress" method="post">
  <label>Street Address</label>
  <input type="text" name="Address">
  <input type="submit" value="Search">
</form>
</body></html>`

const maintenancePage = `<html><body><p>We are updating our site, please come back later.</p></body></html>`

const noRecordsPage = `<html><body><table><tbody><tr><td>No records to display.</td></tr></tbody></table></body></html>`

func detailPage(account, owner, street, amount string) string {
	return fmt.Sprintf(`<html><body>
<h2>Step 3: Make Payment</h2>
<div>Account: %s</div>
<div>%s %s</div>
<div>%s</div>
<div>Warren, MI 48091-2498</div>
<table>
  <tr><td>WATER</td><td>$60.10</td></tr>
  <tr><td>SEWER</td><td>$56.87</td></tr>
</table>
<div>Due Date: 03/15/2024</div>
<div>Amount to Pay:</div>
<div>%s</div>
</body></html>`, account, account, owner, street, amount)
}

func listingPage(rows ...string) string {
	return fmt.Sprintf(`<html><body>
<table><tbody>
<tr><td>Search:</td><td>By: Address</td><td>criteria</td><td><a href="/OnlinePayment/Detail?ref=criteria">x</a></td></tr>
<tr><td>Address</td><td>Reference #</td><td>Name</td><td><a href="/OnlinePayment/Detail?ref=header">x</a></td></tr>
%s
</tbody></table>
</body></html>`, strings.Join(rows, "\n"))
}

func listingRow(street, ref, name string) string {
	return fmt.Sprintf(
		`<tr><td>%s</td><td>%s</td><td>%s</td><td><a href="/OnlinePayment/Detail?ref=%s">Pay Now</a></td></tr>`,
		street, ref, name, ref,
	)
}

type fakePortal struct {
	server *httptest.Server

	mutex sync.Mutex
	// account number -> page served for an account search
	accounts map[string]string
	// street -> page served for an address search
	addresses map[string]string
	// reference -> page served by the detail link
	details map[string]string
	// search page hits (1-based) that are served without any form
	broken map[int]bool
	// search page hits that fail with a 503
	down map[int]bool

	searchHits     int
	accountQueries []string
	addressQueries []string
	detailQueries  []string
}

func newFakePortal(t testing.TB) *fakePortal {
	p := &fakePortal{
		accounts:  map[string]string{},
		addresses: map[string]string{},
		details:   map[string]string{},
		broken:    map[int]bool{},
		down:      map[int]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/OnlinePayment/OnlinePaymentSearch", func(w http.ResponseWriter, r *http.Request) {
		p.mutex.Lock()
		p.searchHits++
		hit := p.searchHits
		broken := p.broken[hit]
		down := p.down[hit]
		p.mutex.Unlock()

		if r.URL.Query().Get("uid") != "305" || r.URL.Query().Get("PaymentApplicationType") != "10" {
			http.NotFound(w, r)
			return
		}
		if down {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		if broken {
			fmt.Fprint(w, maintenancePage)
			return
		}
		fmt.Fprint(w, searchPage)
	})
	mux.HandleFunc("/OnlinePayment/SearchByAccount", func(w http.ResponseWriter, r *http.Request) {
		account := r.PostFormValue("AccountNumber")
		p.mutex.Lock()
		p.accountQueries = append(p.accountQueries, account)
		page, ok := p.accounts[account]
		p.mutex.Unlock()
		if !ok {
			page = noRecordsPage
		}
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/OnlinePayment/SearchByAddress", func(w http.ResponseWriter, r *http.Request) {
		address := r.PostFormValue("Address")
		p.mutex.Lock()
		p.addressQueries = append(p.addressQueries, address)
		page, ok := p.addresses[address]
		p.mutex.Unlock()
		if !ok {
			page = noRecordsPage
		}
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/OnlinePayment/Detail", func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Query().Get("ref")
		p.mutex.Lock()
		p.detailQueries = append(p.detailQueries, ref)
		page, ok := p.details[ref]
		p.mutex.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) hits() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.searchHits
}

func (p *fakePortal) queries() (accounts, addresses, details []string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.accountQueries, p.addressQueries, p.detailQueries
}

func (p *fakePortal) client(t testing.TB) *Client {
	config := DefaultConfig()
	config.BaseUrl = p.server.URL

	opts := browser.DefaultOptions()
	opts.IdleTimeout = 5 * time.Second
	opts.SettleDelay = 0

	client, err := NewClient(config, opts)
	require.NoError(t, err)
	return client
}

func TestSearchUrl(t *testing.T) {
	config := DefaultConfig()
	target, err := config.SearchUrl()
	require.NoError(t, err)
	require.Equal(t, "https://bsaonline.com/OnlinePayment/OnlinePaymentSearch?PaymentApplicationType=10&uid=305", target)

	config.Municipality.UID = "42"
	config.BaseUrl = "http://localhost:8080/"
	target, err = config.SearchUrl()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/OnlinePayment/OnlinePaymentSearch?PaymentApplicationType=10&uid=42", target)

	config.BaseUrl = "bsaonline.com"
	_, err = config.SearchUrl()
	require.Error(t, err)
}
