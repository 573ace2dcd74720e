package jobs

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"media-merger/internal/domain"
)

// ErrSubmissionInFlight is returned when a merge is started while one is loading.
var ErrSubmissionInFlight = errors.New("merge already in progress")

// ErrNoRunningSubmission is returned when cancel is requested with nothing loading.
var ErrNoRunningSubmission = errors.New("no merge in progress")

// ErrStaleSubmission is returned when an outcome arrives for a submission that is no longer current.
var ErrStaleSubmission = errors.New("stale submission")

// CancelledMessage is the error text shown after a user cancels a merge.
const CancelledMessage = "Merge cancelled."

// Manager tracks the single allowed in-flight submission and its outcome.
// The latest successful result outlives later failures until superseded.
type Manager struct {
	mu      sync.RWMutex
	current domain.Submission
	result  *domain.MergedMedia
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Submission{
			Status: domain.SubmissionStatusIdle,
		},
	}
}

// Start moves a new submission into loading and clears any prior error.
func (m *Manager) Start(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isValidTransition(m.current.Status, domain.SubmissionStatusLoading) {
		return ErrSubmissionInFlight
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("submission id is required")
	}

	m.current = domain.Submission{
		ID:     id,
		Status: domain.SubmissionStatusLoading,
	}
	return nil
}

// Reject records a local validation failure without entering loading.
func (m *Manager) Reject(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.SubmissionStatusLoading {
		return ErrSubmissionInFlight
	}

	m.current = domain.Submission{
		Status: domain.SubmissionStatusFailed,
		Error:  message,
	}
	return nil
}

// Succeed settles the loading submission with a merged result and returns
// the result it supersedes, if any, so the caller can release it.
func (m *Manager) Succeed(id string, media domain.MergedMedia) (*domain.MergedMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkSettle(id, domain.SubmissionStatusSucceeded); err != nil {
		return nil, err
	}

	previous := m.result
	stored := media
	m.result = &stored
	m.current = domain.Submission{
		ID:     id,
		Status: domain.SubmissionStatusSucceeded,
		Media:  &stored,
	}
	return previous, nil
}

// Fail settles the loading submission with an error message.
func (m *Manager) Fail(id, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkSettle(id, domain.SubmissionStatusFailed); err != nil {
		return err
	}

	m.current = domain.Submission{
		ID:     id,
		Status: domain.SubmissionStatusFailed,
		Error:  message,
	}
	return nil
}

// Cancel moves the loading submission to failed and returns its id.
func (m *Manager) Cancel() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.SubmissionStatusLoading {
		return "", ErrNoRunningSubmission
	}
	id := m.current.ID
	m.current = domain.Submission{
		ID:     id,
		Status: domain.SubmissionStatusFailed,
		Error:  CancelledMessage,
	}
	return id, nil
}

// Current returns a snapshot of the current submission.
func (m *Manager) Current() domain.Submission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySubmission(m.current)
}

// Result returns the latest merged media, or nil when nothing has succeeded.
func (m *Manager) Result() *domain.MergedMedia {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.result == nil {
		return nil
	}
	out := *m.result
	return &out
}

// IsLoading reports whether a submission is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Status == domain.SubmissionStatusLoading
}

// Reset returns to idle and drops the current result, which is returned for release.
// Reset while loading is rejected.
func (m *Manager) Reset() (*domain.MergedMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.SubmissionStatusLoading {
		return nil, ErrSubmissionInFlight
	}
	previous := m.result
	m.result = nil
	m.current = domain.Submission{Status: domain.SubmissionStatusIdle}
	return previous, nil
}

// checkSettle validates that id is the loading submission. Caller holds mu.
func (m *Manager) checkSettle(id string, to domain.SubmissionStatus) error {
	if m.current.ID != id {
		return fmt.Errorf("%w: %s", ErrStaleSubmission, id)
	}
	if m.current.Status != domain.SubmissionStatusLoading || !isValidTransition(m.current.Status, to) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, to)
	}
	return nil
}

// isValidTransition enforces the allowed submission state machine edges.
func isValidTransition(from, to domain.SubmissionStatus) bool {
	switch from {
	case domain.SubmissionStatusIdle, domain.SubmissionStatusSucceeded, domain.SubmissionStatusFailed:
		return to == domain.SubmissionStatusLoading || to == domain.SubmissionStatusFailed
	case domain.SubmissionStatusLoading:
		return to == domain.SubmissionStatusSucceeded || to == domain.SubmissionStatusFailed
	default:
		return false
	}
}

func copySubmission(s domain.Submission) domain.Submission {
	if s.Media != nil {
		media := *s.Media
		s.Media = &media
	}
	return s
}
