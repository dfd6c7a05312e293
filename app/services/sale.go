package services

import (
	"sort"
	"strings"
	"time"

	"github.com/yfeng-ca/fengdock/app/models"
)

// saleTypeLabels maps known API sale type codes to display labels. REGULAR
// and unknown codes carry no label.
var saleTypeLabels = map[string]string{
	"SPECIAL":   "Special offer",
	"CLEARANCE": "Clearance",
	"DEAL":      "Deal",
	"SALE":      "Sale",
}

// SaleStatus is the classified sale state of a watch, computed once and
// consumed by ranking, board responses and notifications alike.
type SaleStatus struct {
	Active bool       `json:"active"`
	Label  string     `json:"label,omitempty"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// ClassifySale inspects the three sale descriptor fields in priority order:
// sale_text, then sale_badge_name, then sale_type. Probes from different
// sources populate different subsets of the three, so classification
// degrades instead of requiring all of them.
func ClassifySale(watch *models.LoblawsWatch) SaleStatus {
	status := SaleStatus{Expiry: watch.SaleExpiry}

	if text := strings.TrimSpace(watch.SaleText); text != "" {
		status.Active = true
		status.Label = text
		return status
	}
	if badge := strings.TrimSpace(watch.SaleBadgeName); badge != "" {
		status.Active = true
		status.Label = badge
		return status
	}

	saleType := strings.ToUpper(strings.TrimSpace(watch.SaleType))
	if saleType == "" || saleType == "REGULAR" {
		return SaleStatus{}
	}

	status.Active = true
	status.Label = saleTypeLabels[saleType]
	return status
}

func HasActiveSale(watch *models.LoblawsWatch) bool {
	return ClassifySale(watch).Active
}

// SaleLabel returns the display label for an active sale, or nil when there
// is no sale or the type code is unknown.
func SaleLabel(watch *models.LoblawsWatch) *string {
	status := ClassifySale(watch)
	if !status.Active || status.Label == "" {
		return nil
	}
	return &status.Label
}

// RankWatches prepares the board ordering:
//
//  1. Dedup by product_code, first seen wins (input arrives in insertion
//     order from the store).
//  2. Watches with an active sale sort before the rest.
//  3. Active sales order by expiry ascending; a missing expiry counts as
//     infinitely far away, never as epoch.
//  4. Everything else falls back to last_checked_at descending, missing
//     treated as oldest.
//
// The sort is stable so remaining ties keep input order.
func RankWatches(watches []models.LoblawsWatch) []models.LoblawsWatch {
	seen := make(map[string]bool, len(watches))
	ranked := make([]models.LoblawsWatch, 0, len(watches))
	for _, watch := range watches {
		if watch.ProductCode != "" && seen[watch.ProductCode] {
			continue
		}
		seen[watch.ProductCode] = true
		ranked = append(ranked, watch)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		saleA, saleB := ClassifySale(a), ClassifySale(b)

		if saleA.Active != saleB.Active {
			return saleA.Active
		}

		if saleA.Active && saleB.Active {
			expiryA, expiryB := expiryKey(saleA.Expiry), expiryKey(saleB.Expiry)
			if !expiryA.Equal(expiryB) {
				return expiryA.Before(expiryB)
			}
		}

		checkedA, checkedB := checkedKey(a.LastCheckedAt), checkedKey(b.LastCheckedAt)
		return checkedA.After(checkedB)
	})

	return ranked
}

var farFuture = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

func expiryKey(expiry *time.Time) time.Time {
	if expiry == nil {
		return farFuture
	}
	return *expiry
}

func checkedKey(checked *time.Time) time.Time {
	if checked == nil {
		return time.Time{}
	}
	return *checked
}

// BoardEntry is one ranked row of the board with its classified sale state
// attached, so clients never re-derive sale logic from raw descriptor
// fields.
type BoardEntry struct {
	models.LoblawsWatch
	Sale SaleStatus `json:"sale"`
}

// BuildBoard ranks the raw watch list and attaches classified sale status
// to every surviving row.
func BuildBoard(watches []models.LoblawsWatch) []BoardEntry {
	ranked := RankWatches(watches)
	entries := make([]BoardEntry, 0, len(ranked))
	for _, watch := range ranked {
		entries = append(entries, BoardEntry{LoblawsWatch: watch, Sale: ClassifySale(&watch)})
	}
	return entries
}
