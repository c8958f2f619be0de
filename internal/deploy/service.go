package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/media"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/page"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/restclient"
)

const navigationPath = "/wp/v2/navigation"

// Deployment stages, logged as each run progresses.
const (
	StageUploadingMedia     = "uploading_media"
	StagePublishingPages    = "publishing_pages"
	StageUpdatingNavigation = "updating_navigation"
	StageDone               = "done"
)

// Deploy outcomes reported to metrics.
const (
	outcomeSuccess = "success"
	outcomePartial = "partial_failure"
	outcomeFailed  = "failed"
)

// MediaUploader is the uploader surface the orchestrator needs.
type MediaUploader interface {
	UploadBatch(ctx context.Context, images []domain.SiteImage, opts media.BatchOptions) ([]media.UploadResult, error)
	DeleteByID(ctx context.Context, id int) error
}

// PageManager is the page surface the orchestrator needs.
type PageManager interface {
	CreateOrUpdate(ctx context.Context, in page.Input) (*domain.Page, error)
	Delete(ctx context.Context, id int, force bool) error
}

type navigationAPI interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Options controls a single deployment run.
type Options struct {
	// DryRun publishes every page as a draft regardless of its requested
	// status, for preview without going live.
	DryRun bool
	// ContinueOnError skips a failed page instead of stopping the sequence.
	ContinueOnError bool
	// UpdateNavigation replaces the remote menu after pages are published.
	UpdateNavigation bool
	// MediaConcurrency bounds simultaneous media uploads (default 3).
	MediaConcurrency int
}

// Service sequences media upload, content rewrite, page publish and
// navigation update, records every run, and can roll a run back.
type Service struct {
	media   MediaUploader
	pages   PageManager
	rest    navigationAPI
	store   Store
	logger  *slog.Logger
	metrics *metrics
}

// New returns a deployment orchestrator. A nil store defaults to the
// in-process memory store.
func New(uploader MediaUploader, pages PageManager, rest *restclient.Client, store Store, logger *slog.Logger) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		media:   uploader,
		pages:   pages,
		rest:    rest,
		store:   store,
		logger:  logger,
		metrics: newMetrics(),
	}
}

type navigationItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Order int    `json:"order"`
}

type navigationPayload struct {
	Items []navigationItem `json:"items"`
}

type urlPair struct {
	from string
	to   string
}

// Deploy publishes site in one run. Failures are accumulated into the
// result's Errors list; only a wholesale media-batch failure aborts the
// run before any page is attempted.
func (s *Service) Deploy(ctx context.Context, site domain.Site, opts Options) (*domain.DeploymentResult, error) {
	start := time.Now().UTC()
	result := &domain.DeploymentResult{
		DeploymentID: newDeploymentID(start),
		Pages:        []domain.PageDeploymentResult{},
		Media:        []domain.MediaDeploymentResult{},
	}
	log := s.logger.With("deployment_id", result.DeploymentID)
	log.Info("deployment started", "pages", len(site.Pages), "images", len(site.Images))

	rewrites, fatal := s.uploadMedia(ctx, log, site.Images, opts, result)
	if fatal {
		return result, s.finish(ctx, log, result, start)
	}

	s.publishPages(ctx, log, site.Pages, rewrites, opts, result)

	if opts.UpdateNavigation && len(site.Navigation.Items) > 0 {
		s.updateNavigation(ctx, log, site.Navigation, result)
	}

	return result, s.finish(ctx, log, result, start)
}

func (s *Service) uploadMedia(ctx context.Context, log *slog.Logger, images []domain.SiteImage, opts Options, result *domain.DeploymentResult) ([]urlPair, bool) {
	if len(images) == 0 {
		return nil, false
	}
	log.Info("uploading media", "stage", StageUploadingMedia, "count", len(images))
	batch, err := s.media.UploadBatch(ctx, images, media.BatchOptions{
		Concurrency:     opts.MediaConcurrency,
		ContinueOnError: true,
	})
	if err != nil {
		// Without media there is no reliable way to know which pages
		// reference broken assets, so the whole run is abandoned.
		log.Error("media batch failed, aborting deployment", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("media upload batch failed: %v", err))
		return nil, true
	}

	rewrites := make([]urlPair, 0, len(batch))
	for _, item := range batch {
		if item.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("media %s: %v", item.SourceURL, item.Err))
			continue
		}
		rewrites = append(rewrites, urlPair{from: item.SourceURL, to: item.Item.URL})
		result.Media = append(result.Media, domain.MediaDeploymentResult{
			ID:          item.Item.ID,
			OriginalURL: item.SourceURL,
			URL:         item.Item.URL,
		})
	}
	return rewrites, false
}

func (s *Service) publishPages(ctx context.Context, log *slog.Logger, pages []domain.SitePage, rewrites []urlPair, opts Options, result *domain.DeploymentResult) {
	log.Info("publishing pages", "stage", StagePublishingPages, "count", len(pages))
	for _, p := range pages {
		status := p.Status
		if opts.DryRun {
			status = domain.StatusDraft
		}
		published, err := s.pages.CreateOrUpdate(ctx, page.Input{
			Title:   p.Title,
			Slug:    p.Slug,
			Content: rewriteContent(p.Content, rewrites),
			Status:  status,
			Meta:    p.Meta,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("page %s: %v", p.Slug, err))
			if !opts.ContinueOnError {
				log.Error("page publish failed, stopping sequence", "slug", p.Slug, "error", err)
				return
			}
			log.Warn("page publish failed, skipping", "slug", p.Slug, "error", err)
			continue
		}
		result.Pages = append(result.Pages, domain.PageDeploymentResult{
			ID:     published.ID,
			Slug:   published.Slug,
			Title:  published.Title,
			URL:    published.URL,
			Status: published.Status,
		})
	}
}

func (s *Service) updateNavigation(ctx context.Context, log *slog.Logger, nav domain.Navigation, result *domain.DeploymentResult) {
	log.Info("updating navigation", "stage", StageUpdatingNavigation, "items", len(nav.Items))
	items := make([]navigationItem, len(nav.Items))
	for i, item := range nav.Items {
		items[i] = navigationItem{Title: item.Title, URL: item.URL, Order: i}
	}
	if err := s.rest.Post(ctx, navigationPath, navigationPayload{Items: items}, nil); err != nil {
		// Pages already published stay up; the menu failure is recorded
		// but does not abort or roll anything back.
		log.Warn("navigation update failed", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("navigation update failed: %v", err))
	}
}

func (s *Service) finish(ctx context.Context, log *slog.Logger, result *domain.DeploymentResult, start time.Time) error {
	completed := time.Now().UTC()
	result.Timing = domain.DeploymentTiming{
		StartedAt:   start,
		CompletedAt: completed,
		DurationMs:  completed.Sub(start).Milliseconds(),
	}
	result.Success = len(result.Errors) == 0

	outcome := outcomeSuccess
	switch {
	case !result.Success && len(result.Pages) == 0 && len(result.Media) == 0:
		outcome = outcomeFailed
	case !result.Success:
		outcome = outcomePartial
	}
	s.metrics.recordDeploy(outcome, len(result.Pages), len(result.Media), completed.Sub(start))

	if err := s.store.Save(ctx, result); err != nil {
		return fmt.Errorf("save deployment %s: %w", result.DeploymentID, err)
	}
	log.Info("deployment finished",
		"stage", StageDone,
		"success", result.Success,
		"pages", len(result.Pages),
		"media", len(result.Media),
		"errors", len(result.Errors),
		"duration_ms", result.Timing.DurationMs,
	)
	return nil
}

// Rollback force-deletes everything a prior deployment created. The
// record is removed only when every deletion succeeds, so a partially
// failed rollback can be retried.
func (s *Service) Rollback(ctx context.Context, deploymentID string) error {
	result, err := s.store.Get(ctx, deploymentID)
	if err != nil {
		return err
	}
	log := s.logger.With("deployment_id", deploymentID)
	log.Info("rollback started", "pages", len(result.Pages), "media", len(result.Media))

	var failures []error
	for _, p := range result.Pages {
		if err := s.pages.Delete(ctx, p.ID, true); err != nil {
			failures = append(failures, fmt.Errorf("page %d (%s): %w", p.ID, p.Slug, err))
		}
	}
	for _, m := range result.Media {
		if err := s.media.DeleteByID(ctx, m.ID); err != nil {
			failures = append(failures, fmt.Errorf("media %d: %w", m.ID, err))
		}
	}
	if len(failures) > 0 {
		s.metrics.recordRollback(outcomeFailed)
		log.Error("rollback incomplete", "failures", len(failures))
		return fmt.Errorf("rollback of %s incomplete: %w", deploymentID, errors.Join(failures...))
	}
	if err := s.store.Delete(ctx, deploymentID); err != nil {
		return err
	}
	s.metrics.recordRollback(outcomeSuccess)
	log.Info("rollback finished")
	return nil
}

// DeploymentStatus returns the stored record for id, or nil when the id
// is unknown. No remote calls are made.
func (s *Service) DeploymentStatus(ctx context.Context, id string) (*domain.DeploymentResult, error) {
	result, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrDeploymentNotFound) {
		return nil, nil
	}
	return result, err
}

// rewriteContent substitutes every occurrence of each original media URL,
// including URLs embedded in serialized attribute strings.
func rewriteContent(content string, rewrites []urlPair) string {
	for _, pair := range rewrites {
		content = strings.ReplaceAll(content, pair.from, pair.to)
	}
	return content
}

func newDeploymentID(ts time.Time) string {
	return fmt.Sprintf("d-%d-%s", ts.UnixMilli(), uuid.NewString()[:8])
}
