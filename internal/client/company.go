package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/piquette/finance-go/quote"

	"github.com/nhatphongdo/stock-agent-sub001/internal/cache"
)

const companyCacheTTL = 24 * time.Hour

// CompanyResolver maps a symbol to its display company name. The stream
// request carries both symbol and company name, so the name is resolved
// before a session starts: quote lookup first, a listing-page scrape as
// fallback, the bare symbol as last resort.
type CompanyResolver struct {
	http      *resty.Client
	cache     *cache.Memory
	scrapeURL string
}

// NewCompanyResolver creates a resolver. scrapeURL is a printf pattern with
// one %s for the symbol; empty disables the scrape fallback.
func NewCompanyResolver(scrapeURL string) *CompanyResolver {
	return &CompanyResolver{
		http:      resty.New().SetTimeout(10 * time.Second),
		cache:     cache.NewMemory(),
		scrapeURL: scrapeURL,
	}
}

// SetScrapeURL swaps the listing-page pattern, e.g. after a config reload.
// Cached names are kept; they do not depend on the page layout.
func (r *CompanyResolver) SetScrapeURL(pattern string) {
	r.scrapeURL = pattern
}

// Resolve never fails; it degrades to the symbol itself.
func (r *CompanyResolver) Resolve(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ""
	}
	if cached, ok := r.cache.Get("company:" + symbol); ok {
		return cached.(string)
	}

	name := r.fromQuote(symbol)
	if name == "" {
		name = r.fromScrape(symbol)
	}
	if name == "" {
		name = symbol
	}
	r.cache.Set("company:"+symbol, name, companyCacheTTL)
	return name
}

func (r *CompanyResolver) fromQuote(symbol string) string {
	q, err := quote.Get(symbol)
	if err != nil || q == nil {
		log.WithError(err).WithField("symbol", symbol).Debug("quote lookup failed")
		return ""
	}
	return strings.TrimSpace(q.ShortName)
}

func (r *CompanyResolver) fromScrape(symbol string) string {
	if r.scrapeURL == "" {
		return ""
	}
	resp, err := r.http.R().Get(fmt.Sprintf(r.scrapeURL, symbol))
	if err != nil || resp.StatusCode() != 200 {
		log.WithError(err).WithField("symbol", symbol).Debug("listing page fetch failed")
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return ""
	}
	name := doc.Find("h1").First().Text()
	// Listing pages title as "COMPANY NAME (SYMBOL)".
	if idx := strings.LastIndex(name, "("); idx > 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}
