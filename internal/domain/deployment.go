package domain

import "time"

// PageDeploymentResult records one successfully published page.
type PageDeploymentResult struct {
	ID     int    `json:"id"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// MediaDeploymentResult records one successfully mirrored image.
type MediaDeploymentResult struct {
	ID          int    `json:"id"`
	OriginalURL string `json:"original_url"`
	URL         string `json:"url"`
}

// DeploymentTiming captures wall-clock bounds of a deployment run.
type DeploymentTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// DeploymentResult is the unit of record for one deploy invocation.
// Success is true only when Errors is empty.
type DeploymentResult struct {
	Success      bool                    `json:"success"`
	DeploymentID string                  `json:"deployment_id"`
	Pages        []PageDeploymentResult  `json:"pages"`
	Media        []MediaDeploymentResult `json:"media"`
	Errors       []string                `json:"errors,omitempty"`
	Timing       DeploymentTiming        `json:"timing"`
}
