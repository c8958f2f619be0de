package page

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/restclient"
)

const (
	pagesPath = "/wp/v2/pages"

	// listPageSize collapses remote pagination into one request.
	listPageSize = 100
)

type restAPI interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, params url.Values) error
}

// Manager maps generic pages onto the remote content API and provides
// slug-keyed upsert.
type Manager struct {
	rest   restAPI
	logger *slog.Logger
}

// New returns a Manager backed by the given REST client.
func New(rest *restclient.Client, logger *slog.Logger) *Manager {
	return &Manager{rest: rest, logger: logger}
}

// Input carries the fields for page creation or upsert.
type Input struct {
	Title   string
	Slug    string
	Content string
	Status  string
	Meta    map[string]string
	Parent  int
}

// Update carries a partial update; zero-valued fields are not sent.
type Update struct {
	Title   string
	Content string
	Status  string
	Meta    map[string]string
}

type pageResponse struct {
	ID      int    `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link"`
	Status  string `json:"status"`
	Parent  int    `json:"parent"`
}

func (r pageResponse) toDomain() *domain.Page {
	return &domain.Page{
		ID:      r.ID,
		Slug:    r.Slug,
		Title:   r.Title,
		Content: r.Content,
		URL:     r.Link,
		Status:  r.Status,
		Parent:  r.Parent,
	}
}

// Create makes a new remote page. Status defaults to draft so nothing
// goes live without an explicit request.
func (m *Manager) Create(ctx context.Context, in Input) (*domain.Page, error) {
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	body := map[string]any{
		"title":   in.Title,
		"slug":    in.Slug,
		"content": in.Content,
		"status":  status,
	}
	if len(in.Meta) > 0 {
		body["meta"] = in.Meta
	}
	if in.Parent > 0 {
		body["parent"] = in.Parent
	}
	var resp pageResponse
	if err := m.rest.Post(ctx, pagesPath, body, &resp); err != nil {
		return nil, fmt.Errorf("create page %q: %w", in.Slug, err)
	}
	return resp.toDomain(), nil
}

// UpdateByID sends only the populated fields of upd to the remote page.
func (m *Manager) UpdateByID(ctx context.Context, id int, upd Update) (*domain.Page, error) {
	body := map[string]any{}
	if upd.Title != "" {
		body["title"] = upd.Title
	}
	if upd.Content != "" {
		body["content"] = upd.Content
	}
	if upd.Status != "" {
		body["status"] = upd.Status
	}
	if len(upd.Meta) > 0 {
		body["meta"] = upd.Meta
	}
	var resp pageResponse
	if err := m.rest.Put(ctx, fmt.Sprintf("%s/%d", pagesPath, id), body, &resp); err != nil {
		return nil, fmt.Errorf("update page %d: %w", id, err)
	}
	return resp.toDomain(), nil
}

// Delete removes a page. With force the deletion is permanent; without it
// the page moves to the remote trash.
func (m *Manager) Delete(ctx context.Context, id int, force bool) error {
	params := url.Values{"force": {strconv.FormatBool(force)}}
	if err := m.rest.Delete(ctx, fmt.Sprintf("%s/%d", pagesPath, id), params); err != nil {
		return fmt.Errorf("delete page %d: %w", id, err)
	}
	return nil
}

// GetBySlug looks a page up by slug, taking the first match. Lookup
// failures of any kind collapse to a nil page.
func (m *Manager) GetBySlug(ctx context.Context, slug, status string) (*domain.Page, error) {
	if status == "" {
		status = "any"
	}
	params := url.Values{"slug": {slug}, "status": {status}}
	var resp []pageResponse
	if err := m.rest.Get(ctx, pagesPath, params, &resp); err != nil {
		m.logger.Debug("slug lookup failed", "slug", slug, "error", err)
		return nil, nil
	}
	if len(resp) == 0 {
		return nil, nil
	}
	return resp[0].toDomain(), nil
}

// GetByID resolves a page by remote id. Lookup failures of any kind
// collapse to a nil page.
func (m *Manager) GetByID(ctx context.Context, id int) (*domain.Page, error) {
	var resp pageResponse
	if err := m.rest.Get(ctx, fmt.Sprintf("%s/%d", pagesPath, id), nil, &resp); err != nil {
		m.logger.Debug("page lookup failed", "page_id", id, "error", err)
		return nil, nil
	}
	return resp.toDomain(), nil
}

// ListAll fetches every page regardless of status in a single request.
func (m *Manager) ListAll(ctx context.Context) ([]domain.Page, error) {
	params := url.Values{
		"per_page": {strconv.Itoa(listPageSize)},
		"status":   {"any"},
	}
	var resp []pageResponse
	if err := m.rest.Get(ctx, pagesPath, params, &resp); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make([]domain.Page, 0, len(resp))
	for _, r := range resp {
		pages = append(pages, *r.toDomain())
	}
	return pages, nil
}

// CreateOrUpdate upserts by slug: an existing page is updated in place,
// otherwise a new one is created. Deploying the same slug twice yields a
// single remote page.
func (m *Manager) CreateOrUpdate(ctx context.Context, in Input) (*domain.Page, error) {
	existing, err := m.GetBySlug(ctx, in.Slug, "any")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m.logger.Info("updating existing page", "slug", in.Slug, "page_id", existing.ID)
		return m.UpdateByID(ctx, existing.ID, Update{
			Title:   in.Title,
			Content: in.Content,
			Status:  in.Status,
			Meta:    in.Meta,
		})
	}
	m.logger.Info("creating page", "slug", in.Slug)
	return m.Create(ctx, in)
}

var _ restAPI = (*restclient.Client)(nil)
