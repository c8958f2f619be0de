package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/restclient"
)

const (
	mediaPath = "/wp/v2/media"

	// DefaultConcurrency bounds simultaneous in-flight uploads in a batch.
	DefaultConcurrency = 3

	defaultContentType = "image/jpeg"
)

// ErrDownload indicates the source image could not be fetched.
var ErrDownload = errors.New("media: download failed")

var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".avif": "image/avif",
}

type restAPI interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, params url.Values) error
}

// Uploader mirrors externally hosted images into the remote media library.
type Uploader struct {
	rest       restAPI
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns an Uploader backed by the given REST client.
func New(rest *restclient.Client, logger *slog.Logger) *Uploader {
	return &Uploader{
		rest:       rest,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// UploadOptions carries asset metadata for a single upload.
type UploadOptions struct {
	Title   string
	Alt     string
	Caption string
}

// BatchOptions controls batch processing.
type BatchOptions struct {
	// Concurrency is the maximum number of simultaneous uploads.
	Concurrency int
	// ContinueOnError records a failed item instead of aborting the batch.
	ContinueOnError bool
}

// UploadResult is the per-input outcome of a batch upload. Exactly one
// result is produced per input, in input order; Err is set when that
// item failed and the batch was allowed to continue.
type UploadResult struct {
	SourceURL string
	Item      *domain.MediaItem
	Err       error
}

type mediaPayload struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	File     string `json:"file"`
	Title    string `json:"title,omitempty"`
	AltText  string `json:"alt_text,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type mediaResponse struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text"`
	Title     string `json:"title"`
}

// Upload fetches imageURL and re-uploads the bytes as a library asset.
func (u *Uploader) Upload(ctx context.Context, imageURL string, opts UploadOptions) (*domain.MediaItem, error) {
	data, contentType, err := u.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	payload := mediaPayload{
		Filename: filenameFor(imageURL, contentType),
		MimeType: contentType,
		File:     base64.StdEncoding.EncodeToString(data),
		Title:    opts.Title,
		AltText:  opts.Alt,
		Caption:  opts.Caption,
	}
	var resp mediaResponse
	if err := u.rest.Post(ctx, mediaPath, payload, &resp); err != nil {
		return nil, fmt.Errorf("upload %s: %w", imageURL, err)
	}
	u.logger.Info("media uploaded", "source", imageURL, "media_id", resp.ID, "url", resp.SourceURL)
	return &domain.MediaItem{ID: resp.ID, URL: resp.SourceURL, Alt: resp.AltText, Title: resp.Title}, nil
}

// UploadBatch uploads every image with at most opts.Concurrency in flight.
// Without ContinueOnError the first failure aborts the whole batch.
func (u *Uploader) UploadBatch(ctx context.Context, images []domain.SiteImage, opts BatchOptions) ([]UploadResult, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]UploadResult, len(images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			item, err := u.Upload(ctx, img.OriginalURL, UploadOptions{Title: img.Title, Alt: img.Alt})
			results[i] = UploadResult{SourceURL: img.OriginalURL, Item: item, Err: err}
			if err != nil {
				if opts.ContinueOnError {
					u.logger.Warn("media upload skipped", "source", img.OriginalURL, "error", err)
					return nil
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID resolves a library asset, returning nil without error when the
// id does not exist.
func (u *Uploader) GetByID(ctx context.Context, id int) (*domain.MediaItem, error) {
	var resp mediaResponse
	err := u.rest.Get(ctx, fmt.Sprintf("%s/%d", mediaPath, id), nil, &resp)
	if err != nil {
		if restclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.MediaItem{ID: resp.ID, URL: resp.SourceURL, Alt: resp.AltText, Title: resp.Title}, nil
}

// DeleteByID permanently removes a library asset.
func (u *Uploader) DeleteByID(ctx context.Context, id int) error {
	return u.rest.Delete(ctx, fmt.Sprintf("%s/%d", mediaPath, id), url.Values{"force": {"true"}})
}

func (u *Uploader) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDownload, imageURL, err)
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDownload, imageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: %s: status %d", ErrDownload, imageURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDownload, imageURL, err)
	}
	return data, inferContentType(resp.Header.Get("Content-Type"), imageURL), nil
}

func inferContentType(header, rawURL string) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if mt, ok := mimeByExt[strings.ToLower(path.Ext(u.Path))]; ok {
			return mt
		}
	}
	return defaultContentType
}

func filenameFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	for ext, mt := range mimeByExt {
		if mt == contentType && ext != ".jpeg" {
			return "image" + ext
		}
	}
	return "image.jpg"
}
