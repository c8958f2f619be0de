package domain

// Page status values accepted by the remote system.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// SiteImage references an externally hosted image that must be mirrored
// into the remote media library before pages referencing it go live.
type SiteImage struct {
	OriginalURL string `json:"original_url"`
	Alt         string `json:"alt,omitempty"`
	Title       string `json:"title,omitempty"`
}

// SitePage is a generated page awaiting publication. Content is opaque
// serialized block markup; Slug is the natural identity key.
type SitePage struct {
	Title   string            `json:"title"`
	Slug    string            `json:"slug"`
	Content string            `json:"content"`
	Status  string            `json:"status"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// NavigationItem is a single menu entry. Position in the parent slice is
// significant.
type NavigationItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Navigation is the ordered site menu.
type Navigation struct {
	Items []NavigationItem `json:"items"`
}

// Site bundles everything a single deployment publishes.
type Site struct {
	Pages      []SitePage  `json:"pages"`
	Images     []SiteImage `json:"images,omitempty"`
	Navigation Navigation  `json:"navigation"`
}

// MediaItem is a successfully uploaded library asset.
type MediaItem struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

// Page mirrors the remote content object after create or update.
type Page struct {
	ID      int    `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	Parent  int    `json:"parent,omitempty"`
}
