package services

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yfeng-ca/fengdock/app/models"
)

func TestNotifyWatch_MessageFormat(t *testing.T) {
	var gotTitle, gotClick, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotClick = r.Header.Get("Click")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	expiry := time.Date(2025, 12, 3, 23, 59, 59, 0, time.UTC)
	watch := &models.LoblawsWatch{
		Label:        "bread",
		URL:          "https://www.loblaws.ca/bread/p/20077874001_EA",
		CurrentPrice: decimal.NullDecimal{Decimal: decimal.NewFromFloat(6.75), Valid: true},
		RegularPrice: decimal.NullDecimal{Decimal: decimal.NewFromFloat(7.14), Valid: true},
		PriceUnit:    "ea",
		StockStatus:  "out_of_stock",
	}

	notifier := NewNotifier(server.URL)
	notifier.NotifyWatch(watch, SaleStatus{Active: true, Label: "SAVE $0.39", Expiry: &expiry})

	if gotTitle != "bread" {
		t.Fatalf("expected label as title, got %q", gotTitle)
	}
	if gotClick != watch.URL {
		t.Fatalf("expected watch URL in Click header, got %q", gotClick)
	}
	for _, want := range []string{"SAVE $0.39", "Now $6.75/ea", "Was $7.14", "Out Of Stock"} {
		if !strings.Contains(gotBody, want) {
			t.Fatalf("message %q missing %q", gotBody, want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"ok":           "Ok",
		"out_of_stock": "Out Of Stock",
		"low stock":    "Low Stock",
		"":             "",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Fatalf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
