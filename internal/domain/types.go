package domain

import "time"

// MediaKind distinguishes the two selection lists.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// SubmissionStatus tracks one merge attempt from request to outcome.
type SubmissionStatus string

const (
	SubmissionStatusIdle      SubmissionStatus = "idle"
	SubmissionStatusLoading   SubmissionStatus = "loading"
	SubmissionStatusSucceeded SubmissionStatus = "succeeded"
	SubmissionStatusFailed    SubmissionStatus = "failed"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	EndpointURL           string `json:"endpointUrl"`
	OutputDir             string `json:"outputDir"`
	LogLevel              string `json:"logLevel"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds"`
}

// MediaFile is one picked file. Content is read from Path when submitted.
type MediaFile struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Size int64     `json:"size"`
	Kind MediaKind `json:"kind"`
}

// MergedMedia references a merged video held in memory by the media store.
type MergedMedia struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Submission is the tagged state of the current merge attempt.
// Media is set only when succeeded, Error only when failed.
type Submission struct {
	ID     string           `json:"id"`
	Status SubmissionStatus `json:"status"`
	Media  *MergedMedia     `json:"media,omitempty"`
	Error  string           `json:"error,omitempty"`
}
