package services

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/leekchan/accounting"
	"github.com/yfeng-ca/fengdock/app/models"
)

// Notifier pushes board alerts to an ntfy compatible endpoint: plain text
// body plus Title and Click headers. With no endpoint configured it logs
// instead, so callers always get signal somewhere.
type Notifier struct {
	endpoint string
	client   *http.Client
	money    accounting.Accounting
	storeTZ  *time.Location
}

func NewNotifier(endpoint string) *Notifier {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		loc = time.UTC
	}
	return &Notifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		money:    accounting.Accounting{Symbol: "$", Precision: 2},
		storeTZ:  loc,
	}
}

// NotifyWatch formats and sends a sale-change alert for one watch.
func (n *Notifier) NotifyWatch(watch *models.LoblawsWatch, sale SaleStatus) {
	title := watch.Label
	if title == "" {
		title = watch.Name
	}
	if title == "" {
		title = watch.ProductCode
	}

	var parts []string
	if sale.Label != "" {
		parts = append(parts, sale.Label)
	}
	if watch.CurrentPrice.Valid {
		unit := watch.PriceUnit
		if unit == "" {
			unit = "ea"
		}
		parts = append(parts, fmt.Sprintf("Now %s/%s", n.money.FormatMoneyDecimal(watch.CurrentPrice.Decimal), unit))
	}
	if watch.RegularPrice.Valid {
		parts = append(parts, fmt.Sprintf("Was %s", n.money.FormatMoneyDecimal(watch.RegularPrice.Decimal)))
	}
	if sale.Expiry != nil {
		parts = append(parts, "Exp. "+sale.Expiry.In(n.storeTZ).Format("2006-01-02"))
	}
	if watch.StockStatus != "" {
		parts = append(parts, titleCase(watch.StockStatus))
	}

	message := "Sale update"
	if len(parts) > 0 {
		message = strings.Join(parts, " | ")
	}
	n.Send(title, message, watch.URL)
}

// titleCase renders an API status code like "out_of_stock" as "Out Of
// Stock". Statuses are plain ASCII.
func titleCase(status string) string {
	words := strings.Fields(strings.ReplaceAll(status, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func (n *Notifier) Send(title, message, link string) {
	if n.endpoint == "" {
		log.Printf("[notify] %s -- %s", title, message)
		return
	}

	req, err := http.NewRequest(http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		log.Printf("Failed to build notification request: %v", err)
		return
	}
	req.Header.Set("Title", title)
	if link != "" {
		req.Header.Set("Click", link)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("Failed to send notification to %s: %v", n.endpoint, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("Notification endpoint %s returned status %d", n.endpoint, resp.StatusCode)
	}
}
