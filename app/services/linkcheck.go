package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/yfeng-ca/fengdock/app/models"
	"github.com/yfeng-ca/fengdock/app/repositories"
)

// LinkCheckService probes every active homepage link and persists an
// up/degraded/down/error status for the dashboard.
type LinkCheckService struct {
	repo   repositories.LinkRepositoryImpl
	client *http.Client
}

func NewLinkCheckService(repo repositories.LinkRepositoryImpl) *LinkCheckService {
	return &LinkCheckService{
		repo:   repo,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Run checks all active links once. Individual failures only mark that link;
// they never abort the sweep.
func (s *LinkCheckService) Run(ctx context.Context) error {
	links, err := s.repo.GetAll(ctx, false, "order", 0)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	updates := make([]repositories.LinkStatusUpdate, 0, len(links))
	for _, link := range links {
		status := s.CheckURL(ctx, link.URL)
		updates = append(updates, repositories.LinkStatusUpdate{ID: link.ID, Status: status})
	}

	if err := s.repo.BulkUpdateStatus(ctx, updates); err != nil {
		return err
	}
	log.Printf("Health check updated %d links", len(updates))
	return nil
}

// CheckURL classifies one URL with a HEAD request, following redirects:
// 2xx/3xx up, 4xx degraded, 5xx down, transport failure error.
func (s *LinkCheckService) CheckURL(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return models.LinkStatusError
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Health check failed for %s: %v", url, err)
		return models.LinkStatusError
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode < 400:
		return models.LinkStatusUp
	case resp.StatusCode < 500:
		return models.LinkStatusDegraded
	default:
		return models.LinkStatusDown
	}
}
