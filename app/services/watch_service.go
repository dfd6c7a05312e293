package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yfeng-ca/fengdock/app/models"
	"github.com/yfeng-ca/fengdock/app/repositories"
)

// WatchService owns the add/refresh lifecycle of watched products.
type WatchService struct {
	repo        repositories.WatchRepositoryImpl
	probe       Prober
	notifier    *Notifier
	concurrency int
}

func NewWatchService(repo repositories.WatchRepositoryImpl, probe Prober, notifier *Notifier, concurrency int) *WatchService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WatchService{
		repo:        repo,
		probe:       probe,
		notifier:    notifier,
		concurrency: concurrency,
	}
}

func (s *WatchService) List(ctx context.Context) ([]models.LoblawsWatch, error) {
	return s.repo.GetAll(ctx)
}

func (s *WatchService) Get(ctx context.Context, id string) (*models.LoblawsWatch, error) {
	watch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return watch, nil
}

// Add validates the URL, probes it synchronously and persists a fully
// populated watch. A probe failure aborts the whole operation; no partial
// record is written. Re-adding a URL that is already watched refreshes the
// existing row instead of duplicating it.
func (s *WatchService) Add(ctx context.Context, url, label, storeID string) (*models.LoblawsWatch, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, NewValidationError("url cannot be empty")
	}

	code, err := ExtractProductCode(url)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByURL(ctx, url); err == nil {
		return s.RefreshOne(ctx, existing.ID)
	}

	result, err := s.probe.Fetch(ctx, ProbeTarget{ProductCode: code, StoreID: storeID, URL: url})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	watch := &models.LoblawsWatch{
		ID:            uuid.NewString(),
		URL:           url,
		ProductCode:   code,
		Label:         label,
		LastCheckedAt: &now,
	}
	if storeID != "" {
		watch.StoreID = storeID
	}

	applyProbeResult(watch, result)
	watch.LastSignature = signature(watch)

	if err := s.repo.Create(ctx, watch); err != nil {
		return nil, fmt.Errorf("create watch: %w", err)
	}
	return watch, nil
}

// RefreshOne re-probes a stored watch and overwrites its price, sale, stock
// and image fields in place. The probe is treated as authoritative for the
// current SKU mapping, so a changed product code overwrites the stored one.
// On probe failure the stored record is left untouched.
func (s *WatchService) RefreshOne(ctx context.Context, id string) (*models.LoblawsWatch, error) {
	watch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	result, err := s.probe.Fetch(ctx, ProbeTarget{
		ProductCode: watch.ProductCode,
		StoreID:     watch.StoreID,
		URL:         watch.URL,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	previousSignature := watch.LastSignature
	applyProbeResult(watch, result)
	watch.LastCheckedAt = &now
	watch.LastSignature = signature(watch)

	changed := watch.LastSignature != previousSignature
	if changed {
		watch.LastChangeAt = &now
	}

	sale := ClassifySale(watch)
	notified := false
	if changed && sale.Active && s.notifier != nil {
		s.notifier.NotifyWatch(watch, sale)
		watch.LastNotifiedAt = &now
		notified = true
	}

	fields := map[string]interface{}{
		"product_code":    watch.ProductCode,
		"name":            watch.Name,
		"brand":           watch.Brand,
		"image_url":       watch.ImageURL,
		"current_price":   watch.CurrentPrice,
		"price_unit":      watch.PriceUnit,
		"regular_price":   watch.RegularPrice,
		"sale_text":       watch.SaleText,
		"sale_type":       watch.SaleType,
		"sale_badge_name": watch.SaleBadgeName,
		"sale_expiry":     watch.SaleExpiry,
		"stock_status":    watch.StockStatus,
		"last_checked_at": watch.LastCheckedAt,
		"last_signature":  watch.LastSignature,
	}
	if changed {
		fields["last_change_at"] = watch.LastChangeAt
	}
	if notified {
		fields["last_notified_at"] = watch.LastNotifiedAt
	}

	rows, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update watch %s: %w", id, err)
	}
	if rows == 0 {
		// The watch was deleted while the probe was in flight.
		return nil, ErrNotFound
	}
	return watch, nil
}

// RefreshOutcome is the per-item result of a batch refresh.
type RefreshOutcome struct {
	ID  string
	Err error
}

// RefreshAll re-probes every stored watch with bounded concurrency. Each
// item's outcome is collected independently; the returned error is non-nil
// only when at least one item failed.
func (s *WatchService) RefreshAll(ctx context.Context) ([]RefreshOutcome, error) {
	watches, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]RefreshOutcome, len(watches))
	semaphore := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, watch := range watches {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			_, err := s.RefreshOne(ctx, id)
			outcomes[i] = RefreshOutcome{ID: id, Err: err}
		}(i, watch.ID)
	}
	wg.Wait()

	var failed int
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			log.Printf("RefreshAll: watch %s failed: %v", outcome.ID, outcome.Err)
		}
	}
	if failed > 0 {
		return outcomes, fmt.Errorf("%d of %d watches failed to refresh", failed, len(outcomes))
	}
	return outcomes, nil
}

// UpdateMeta patches user-editable fields (label, store, url) and then
// re-probes so the stored snapshot matches the new target.
func (s *WatchService) UpdateMeta(ctx context.Context, id string, label, storeID, url *string) (*models.LoblawsWatch, error) {
	fields := map[string]interface{}{}
	if label != nil {
		fields["label"] = strings.TrimSpace(*label)
	}
	if storeID != nil && *storeID != "" {
		fields["store_id"] = *storeID
	}
	if url != nil {
		trimmed := strings.TrimSpace(*url)
		if trimmed == "" {
			return nil, NewValidationError("url cannot be empty")
		}
		code, err := ExtractProductCode(trimmed)
		if err != nil {
			return nil, err
		}
		fields["url"] = trimmed
		fields["product_code"] = code
	}

	if len(fields) > 0 {
		rows, err := s.repo.Update(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrNotFound
		}
	}
	return s.RefreshOne(ctx, id)
}

func (s *WatchService) Delete(ctx context.Context, id string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// applyProbeResult overwrites the probe-owned fields. Name, brand and image
// keep their previous value when the probe comes back empty, matching how
// sparse payloads behave upstream.
func applyProbeResult(watch *models.LoblawsWatch, result *ProbeResult) {
	if result.ProductCode != "" {
		watch.ProductCode = result.ProductCode
	}
	if result.Name != "" {
		watch.Name = result.Name
	}
	if result.Brand != "" {
		watch.Brand = result.Brand
	}
	if result.ImageURL != "" {
		watch.ImageURL = result.ImageURL
	}
	watch.CurrentPrice = toNullDecimal(result.CurrentPrice)
	watch.PriceUnit = result.PriceUnit
	watch.RegularPrice = toNullDecimal(result.RegularPrice)
	watch.SaleText = result.SaleText
	watch.SaleType = result.SaleType
	watch.SaleBadgeName = result.SaleBadgeName
	watch.SaleExpiry = result.SaleExpiry
	watch.StockStatus = result.StockStatus
}

// signature fingerprints the sale-relevant fields for change detection.
func signature(watch *models.LoblawsWatch) string {
	saleType := watch.SaleType
	if saleType == "" {
		saleType = "NONE"
	}
	expiry := ""
	if watch.SaleExpiry != nil {
		expiry = watch.SaleExpiry.UTC().Format(time.RFC3339)
	}
	parts := []string{
		saleType,
		watch.SaleText,
		expiry,
		nullDecimalString(watch.CurrentPrice),
		nullDecimalString(watch.RegularPrice),
		watch.StockStatus,
	}
	return strings.Join(parts, "|")
}

func toNullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

func nullDecimalString(value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.StringFixed(2)
}
