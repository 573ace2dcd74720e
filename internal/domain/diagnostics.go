package domain

import "time"

// DiagnosticStatus is the outcome of one merge setup check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem reports one check: endpoint, service reachability or output dir.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
	// Fixable is set when App.FixDiagnostic can repair the item in place.
	Fixable bool `json:"fixable"`
}

type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// Failed returns the failing items in report order.
func (r DiagnosticReport) Failed() []DiagnosticItem {
	var failed []DiagnosticItem
	for _, item := range r.Items {
		if item.Status == DiagnosticStatusFail {
			failed = append(failed, item)
		}
	}
	return failed
}
