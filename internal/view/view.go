// Package view renders the widget's display model from selection and submission state.
package view

import (
	"media-merger/internal/domain"
	"media-merger/internal/selection"
)

// Submit button labels.
const (
	LabelIdle       = "Merge and Download"
	LabelProcessing = "Processing..."
)

// View is everything the frontend needs to draw the widget.
type View struct {
	AudioNames     []string                `json:"audioNames"`
	VideoNames     []string                `json:"videoNames"`
	Status         domain.SubmissionStatus `json:"status"`
	Error          string                  `json:"error,omitempty"`
	SubmitLabel    string                  `json:"submitLabel"`
	SubmitDisabled bool                    `json:"submitDisabled"`
	CanCancel      bool                    `json:"canCancel"`
	MediaURL       string                  `json:"mediaUrl,omitempty"`
	MediaType      string                  `json:"mediaType,omitempty"`
	HasResult      bool                    `json:"hasResult"`
}

// Render builds a View. result is the latest merged media, which stays
// visible across later failures until a new merge replaces it.
func Render(sel selection.Snapshot, sub domain.Submission, result *domain.MergedMedia) View {
	loading := sub.Status == domain.SubmissionStatusLoading

	v := View{
		AudioNames:     selection.Names(sel.Audio),
		VideoNames:     selection.Names(sel.Video),
		Status:         sub.Status,
		SubmitLabel:    LabelIdle,
		SubmitDisabled: loading,
		CanCancel:      loading,
	}
	if loading {
		v.SubmitLabel = LabelProcessing
	}
	if sub.Status == domain.SubmissionStatusFailed {
		v.Error = sub.Error
	}

	media := result
	if sub.Status == domain.SubmissionStatusSucceeded && sub.Media != nil {
		media = sub.Media
	}
	if media != nil {
		v.MediaURL = media.URL
		v.MediaType = media.ContentType
		v.HasResult = true
	}
	return v
}
