package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yfeng-ca/fengdock/app/models"
	"gorm.io/gorm"
)

// fakeWatchRepo is an in-memory stand-in mirroring the gorm repository's
// row-count semantics, so the delete-during-refresh race is testable without
// a database.
type fakeWatchRepo struct {
	mu    sync.Mutex
	items []*models.LoblawsWatch
}

func (f *fakeWatchRepo) GetAll(ctx context.Context) ([]models.LoblawsWatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LoblawsWatch, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeWatchRepo) find(id string) *models.LoblawsWatch {
	for _, item := range f.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (f *fakeWatchRepo) GetByID(ctx context.Context, id string) (*models.LoblawsWatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item := f.find(id); item != nil {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWatchRepo) GetByURL(ctx context.Context, url string) (*models.LoblawsWatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.URL == url {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWatchRepo) Create(ctx context.Context, watch *models.LoblawsWatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *watch
	f.items = append(f.items, &copied)
	return nil
}

func (f *fakeWatchRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.find(id)
	if item == nil {
		return 0, nil
	}
	for key, value := range fields {
		switch key {
		case "label":
			item.Label = value.(string)
		case "url":
			item.URL = value.(string)
		case "store_id":
			item.StoreID = value.(string)
		case "product_code":
			item.ProductCode = value.(string)
		case "name":
			item.Name = value.(string)
		case "sale_text":
			item.SaleText = value.(string)
		case "sale_type":
			item.SaleType = value.(string)
		case "stock_status":
			item.StockStatus = value.(string)
		case "current_price":
			item.CurrentPrice = value.(decimal.NullDecimal)
		case "regular_price":
			item.RegularPrice = value.(decimal.NullDecimal)
		case "last_signature":
			item.LastSignature = value.(string)
		case "last_checked_at":
			item.LastCheckedAt = value.(*time.Time)
		case "last_change_at":
			item.LastChangeAt = value.(*time.Time)
		case "last_notified_at":
			item.LastNotifiedAt = value.(*time.Time)
		}
	}
	return 1, nil
}

func (f *fakeWatchRepo) Delete(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// fakeProbe returns canned results per product code, with optional per-code
// failures and a hook that runs before every fetch.
type fakeProbe struct {
	mu         sync.Mutex
	results    map[string]*ProbeResult
	failures   map[string]error
	beforeEach func(target ProbeTarget)
	calls      int
}

func (f *fakeProbe) Fetch(ctx context.Context, target ProbeTarget) (*ProbeResult, error) {
	f.mu.Lock()
	f.calls++
	hook := f.beforeEach
	f.mu.Unlock()
	if hook != nil {
		hook(target)
	}
	if err, ok := f.failures[target.ProductCode]; ok {
		return nil, err
	}
	if result, ok := f.results[target.ProductCode]; ok {
		copied := *result
		return &copied, nil
	}
	return &ProbeResult{ProductCode: target.ProductCode, Name: "Item " + target.ProductCode}, nil
}

func newTestService(repo *fakeWatchRepo, probe *fakeProbe) *WatchService {
	return NewWatchService(repo, probe, NewNotifier(""), 2)
}

const testURL = "https://www.loblaws.ca/bread/p/20077874001_EA"

func TestAdd_EmptyURL(t *testing.T) {
	repo := &fakeWatchRepo{}
	service := newTestService(repo, &fakeProbe{})

	_, err := service.Add(context.Background(), "   ", "", "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatal("no row should be written for an invalid URL")
	}
}

func TestAdd_URLWithoutProductCode(t *testing.T) {
	service := newTestService(&fakeWatchRepo{}, &fakeProbe{})
	_, err := service.Add(context.Background(), "https://www.loblaws.ca/aisles/bread", "", "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdd_ProbeFailureWritesNothing(t *testing.T) {
	repo := &fakeWatchRepo{}
	probe := &fakeProbe{failures: map[string]error{
		"20077874001_EA": &ProbeError{StatusCode: 503, Message: "upstream down"},
	}}
	service := newTestService(repo, probe)

	_, err := service.Add(context.Background(), testURL, "", "")
	var pErr *ProbeError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatal("a failed probe must not leave a partial row behind")
	}
}

func TestAdd_PersistsProbedSnapshot(t *testing.T) {
	price := decimal.NewFromFloat(6.75)
	was := decimal.NewFromFloat(7.14)
	repo := &fakeWatchRepo{}
	probe := &fakeProbe{results: map[string]*ProbeResult{
		"20077874001_EA": {
			ProductCode:  "20077874001_EA",
			Name:         "White Bread",
			Brand:        "Wonder",
			CurrentPrice: &price,
			RegularPrice: &was,
			SaleText:     "SAVE $0.39",
			SaleType:     "SALE",
			StockStatus:  "ok",
		},
	}}
	service := newTestService(repo, probe)

	watch, err := service.Add(context.Background(), testURL, "bread", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if watch.ID == "" {
		t.Fatal("expected a generated id")
	}
	if watch.ProductCode != "20077874001_EA" {
		t.Fatalf("unexpected product code %s", watch.ProductCode)
	}
	if watch.Label != "bread" {
		t.Fatalf("unexpected label %s", watch.Label)
	}
	if !watch.CurrentPrice.Valid || watch.CurrentPrice.Decimal.StringFixed(2) != "6.75" {
		t.Fatalf("unexpected current price %+v", watch.CurrentPrice)
	}
	if watch.LastCheckedAt == nil {
		t.Fatal("expected last_checked_at to be set")
	}
	if watch.LastSignature == "" {
		t.Fatal("expected a change signature")
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(repo.items))
	}
}

func TestAdd_DuplicateURLRefreshesExisting(t *testing.T) {
	repo := &fakeWatchRepo{}
	probe := &fakeProbe{}
	service := newTestService(repo, probe)

	first, err := service.Add(context.Background(), testURL, "", "")
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	second, err := service.Add(context.Background(), testURL, "", "")
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("re-adding the same URL must not create a new watch")
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(repo.items))
	}
}

func TestRefreshOne_UnknownID(t *testing.T) {
	service := newTestService(&fakeWatchRepo{}, &fakeProbe{})
	_, err := service.RefreshOne(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshOne_DeletedDuringProbe(t *testing.T) {
	repo := &fakeWatchRepo{}
	probe := &fakeProbe{}
	service := newTestService(repo, probe)

	watch, err := service.Add(context.Background(), testURL, "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	probe.beforeEach = func(ProbeTarget) {
		_, _ = repo.Delete(context.Background(), watch.ID)
	}

	_, err = service.RefreshOne(context.Background(), watch.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("refresh of a concurrently deleted watch should be ErrNotFound, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatal("refresh must not resurrect a deleted row")
	}
}

func TestRefreshOne_ChangeDetection(t *testing.T) {
	price := decimal.NewFromFloat(5.00)
	repo := &fakeWatchRepo{}
	probe := &fakeProbe{results: map[string]*ProbeResult{
		"20077874001_EA": {ProductCode: "20077874001_EA", Name: "Bread", CurrentPrice: &price},
	}}
	service := newTestService(repo, probe)

	watch, err := service.Add(context.Background(), testURL, "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// Same payload again: nothing changed.
	refreshed, err := service.RefreshOne(context.Background(), watch.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.LastChangeAt != nil {
		t.Fatal("identical snapshot should not record a change")
	}

	// Price drop with an active sale: change recorded and notification sent.
	dropped := decimal.NewFromFloat(3.99)
	probe.results["20077874001_EA"] = &ProbeResult{
		ProductCode:  "20077874001_EA",
		Name:         "Bread",
		CurrentPrice: &dropped,
		SaleText:     "SAVE $1.01",
		SaleType:     "SALE",
	}
	refreshed, err = service.RefreshOne(context.Background(), watch.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.LastChangeAt == nil {
		t.Fatal("price change should set last_change_at")
	}
	if refreshed.LastNotifiedAt == nil {
		t.Fatal("sale change should trigger a notification timestamp")
	}
}

func TestRefreshAll_PartialFailure(t *testing.T) {
	repo := &fakeWatchRepo{}
	probe := &fakeProbe{}
	service := newTestService(repo, probe)

	good, err := service.Add(context.Background(), "https://www.loblaws.ca/a/p/GOOD1", "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	bad, err := service.Add(context.Background(), "https://www.loblaws.ca/b/p/BAD1", "", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	probe.failures = map[string]error{"BAD1": &ProbeError{StatusCode: 500, Message: "boom"}}
	before, _ := repo.GetByID(context.Background(), bad.ID)

	outcomes, err := service.RefreshAll(context.Background())
	if err == nil {
		t.Fatal("expected an aggregate error for the failed item")
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}

	byID := map[string]error{}
	for _, outcome := range outcomes {
		byID[outcome.ID] = outcome.Err
	}
	if byID[good.ID] != nil {
		t.Fatalf("good watch should refresh cleanly, got %v", byID[good.ID])
	}
	if byID[bad.ID] == nil {
		t.Fatal("bad watch should report its probe error")
	}

	after, _ := repo.GetByID(context.Background(), bad.ID)
	if before.LastSignature != after.LastSignature || !before.LastCheckedAt.Equal(*after.LastCheckedAt) {
		t.Fatal("failed refresh must leave the stored row untouched")
	}
}

func TestUpdateMeta_RelabelAndRetarget(t *testing.T) {
	repo := &fakeWatchRepo{}
	service := newTestService(repo, &fakeProbe{})

	watch, err := service.Add(context.Background(), testURL, "old", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	label := "new label"
	newURL := "https://www.loblaws.ca/milk/p/MILK99"
	updated, err := service.UpdateMeta(context.Background(), watch.ID, &label, nil, &newURL)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Label != "new label" {
		t.Fatalf("unexpected label %q", updated.Label)
	}
	if updated.ProductCode != "MILK99" {
		t.Fatalf("url change should re-derive the product code, got %s", updated.ProductCode)
	}
}

func TestDelete_Unknown(t *testing.T) {
	service := newTestService(&fakeWatchRepo{}, &fakeProbe{})
	if err := service.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
