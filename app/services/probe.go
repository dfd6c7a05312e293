package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/yfeng-ca/fengdock/app/configs"
)

const probeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var productCodeRe = regexp.MustCompile(`(?i)/p/([^/?#]+)`)

// ExtractProductCode pulls the store SKU out of a product detail page URL.
// Loblaws PDP URLs embed it as /p/<code>.
func ExtractProductCode(url string) (string, error) {
	match := productCodeRe.FindStringSubmatch(url)
	if match == nil {
		return "", NewValidationError("could not extract a product code from the URL, expected a /p/<code> segment")
	}
	code := strings.TrimSpace(strings.SplitN(match[1], "?", 2)[0])
	if code == "" {
		return "", NewValidationError("extracted product code is empty")
	}
	return strings.ToUpper(code), nil
}

// ProbeTarget identifies one product to fetch.
type ProbeTarget struct {
	ProductCode string
	StoreID     string
	URL         string
}

// ProbeResult is the normalized outcome of a successful probe.
type ProbeResult struct {
	ProductCode   string
	Name          string
	Brand         string
	ImageURL      string
	CurrentPrice  *decimal.Decimal
	PriceUnit     string
	RegularPrice  *decimal.Decimal
	SaleText      string
	SaleType      string
	SaleBadgeName string
	SaleExpiry    *time.Time
	StockStatus   string
}

// Prober fetches current product metadata. Implementations may fail or time
// out; callers decide what a failure means for stored state.
type Prober interface {
	Fetch(ctx context.Context, target ProbeTarget) (*ProbeResult, error)
}

// LoblawsProbe talks to the pcexpress product API, falling back to scraping
// the product page itself when the API call fails.
type LoblawsProbe struct {
	baseURL      string
	apiKey       string
	banner       string
	lang         string
	pickupType   string
	defaultStore string
	client       *http.Client
	storeTZ      *time.Location
}

func NewLoblawsProbe(env configs.ENV) *LoblawsProbe {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		loc = time.UTC
	}
	return &LoblawsProbe{
		baseURL:      env.LoblawsAPIBase,
		apiKey:       env.LoblawsAPIKey,
		banner:       env.LoblawsBanner,
		lang:         env.LoblawsLang,
		pickupType:   env.LoblawsPickupType,
		defaultStore: env.LoblawsStore,
		client:       &http.Client{Timeout: 15 * time.Second},
		storeTZ:      loc,
	}
}

type productPayload struct {
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Brand       string       `json:"brand"`
	ImageAssets []imageAsset `json:"imageAssets"`
	Offers      []offer      `json:"offers"`
}

type imageAsset struct {
	LargeURL      string `json:"largeUrl"`
	ExtraLargeURL string `json:"extraLargeUrl"`
	MediumURL     string `json:"mediumUrl"`
}

type offer struct {
	Price       priceBlock  `json:"price"`
	WasPrice    priceBlock  `json:"wasPrice"`
	Badges      offerBadges `json:"badges"`
	StockStatus string      `json:"stockStatus"`
}

type priceBlock struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	Type       string   `json:"type"`
	ExpiryDate string   `json:"expiryDate"`
}

type offerBadges struct {
	DealBadge *dealBadge `json:"dealBadge"`
}

type dealBadge struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Name       string `json:"name"`
	ExpiryDate string `json:"expiryDate"`
}

func (p *LoblawsProbe) Fetch(ctx context.Context, target ProbeTarget) (*ProbeResult, error) {
	result, apiErr := p.fetchFromAPI(ctx, target)
	if apiErr == nil {
		return result, nil
	}

	if target.URL != "" {
		if result, pageErr := p.fetchFromPage(ctx, target); pageErr == nil {
			return result, nil
		}
	}
	return nil, apiErr
}

func (p *LoblawsProbe) fetchFromAPI(ctx context.Context, target ProbeTarget) (*ProbeResult, error) {
	storeID := target.StoreID
	if storeID == "" {
		storeID = p.defaultStore
	}

	url := fmt.Sprintf("%s/v1/products/%s", p.baseURL, target.ProductCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProbeError{Message: err.Error(), Err: err}
	}

	query := req.URL.Query()
	query.Set("lang", p.lang)
	query.Set("date", time.Now().In(p.storeTZ).Format("02012006"))
	query.Set("pickupType", p.pickupType)
	query.Set("storeId", storeID)
	query.Set("banner", p.banner)
	req.URL.RawQuery = query.Encode()

	req.Header.Set("x-apikey", p.apiKey)
	req.Header.Set("accept", "application/json, text/plain, */*")
	req.Header.Set("user-agent", probeUserAgent)
	req.Header.Set("referer", "https://www.loblaws.ca/")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProbeError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProbeError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProbeError{Message: fmt.Sprintf("unparseable response: %v", err), Err: err}
	}

	return p.resultFromPayload(target.ProductCode, &payload), nil
}

func (p *LoblawsProbe) resultFromPayload(fallbackCode string, payload *productPayload) *ProbeResult {
	result := &ProbeResult{
		ProductCode: payload.Code,
		Name:        payload.Name,
		Brand:       payload.Brand,
		ImageURL:    extractImage(payload.ImageAssets),
	}
	if result.ProductCode == "" {
		result.ProductCode = fallbackCode
	}

	primary := selectPrimaryOffer(payload.Offers)
	if primary == nil {
		return result
	}

	result.CurrentPrice = toDecimal(primary.Price.Value)
	result.PriceUnit = primary.Price.Unit
	result.RegularPrice = toDecimal(primary.WasPrice.Value)
	result.StockStatus = strings.ToLower(primary.StockStatus)

	badge := primary.Badges.DealBadge
	if badge != nil {
		result.SaleText = badge.Text
		result.SaleBadgeName = badge.Name
	}

	result.SaleType = primary.Price.Type
	if result.SaleType == "" && badge != nil {
		result.SaleType = badge.Type
	}

	expiryRaw := primary.Price.ExpiryDate
	if badge != nil && badge.ExpiryDate != "" {
		expiryRaw = badge.ExpiryDate
	}
	result.SaleExpiry = p.parseExpiry(expiryRaw)

	return result
}

// selectPrimaryOffer prefers an offer carrying a deal badge so promotions
// survive multi-offer payloads.
func selectPrimaryOffer(offers []offer) *offer {
	if len(offers) == 0 {
		return nil
	}
	for i := range offers {
		if offers[i].Badges.DealBadge != nil {
			return &offers[i]
		}
	}
	return &offers[0]
}

func extractImage(assets []imageAsset) string {
	for _, asset := range assets {
		for _, url := range []string{asset.LargeURL, asset.ExtraLargeURL, asset.MediumURL} {
			if url != "" {
				return url
			}
		}
	}
	return ""
}

// parseExpiry accepts the API's ISO-8601 variants: a trailing Z, an explicit
// offset, or a naive local timestamp (assumed store timezone). Malformed
// values are treated as missing, never as an error.
func (p *LoblawsProbe) parseExpiry(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if layout != time.RFC3339 {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
				parsed.Hour(), parsed.Minute(), parsed.Second(), 0, p.storeTZ)
		}
		utc := parsed.UTC()
		return &utc
	}
	return nil
}

func toDecimal(value *float64) *decimal.Decimal {
	if value == nil {
		return nil
	}
	d := decimal.NewFromFloat(*value)
	return &d
}

var jsonLDPriceRe = regexp.MustCompile(`"price"\s*:\s*"?([0-9]+(?:\.[0-9]+)?)"?`)

// fetchFromPage scrapes the product page directly. It recovers name, image
// and a bare price from meta tags and JSON-LD; sale descriptors are only
// available through the API.
func (p *LoblawsProbe) fetchFromPage(ctx context.Context, target ProbeTarget) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return nil, &ProbeError{Message: err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", probeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProbeError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProbeError{StatusCode: resp.StatusCode, Message: "product page fetch failed"}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &ProbeError{Message: err.Error(), Err: err}
	}

	result := &ProbeResult{ProductCode: target.ProductCode}

	result.Name = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if result.Name == "" {
		result.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	result.ImageURL = doc.Find(`meta[property="og:image"]`).AttrOr("content", "")
	result.Brand = doc.Find(`meta[property="product:brand"]`).AttrOr("content", "")

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		match := jsonLDPriceRe.FindStringSubmatch(s.Text())
		if len(match) > 1 {
			if value, err := strconv.ParseFloat(match[1], 64); err == nil {
				result.CurrentPrice = toDecimal(&value)
				return false
			}
		}
		return true
	})

	if result.Name == "" && result.CurrentPrice == nil {
		return nil, &ProbeError{Message: "no product data found on page"}
	}
	return result, nil
}
