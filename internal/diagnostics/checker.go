package diagnostics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"media-merger/internal/domain"
	"media-merger/internal/merge"
)

// Diagnostic item ids.
const (
	ItemMergeEndpoint = "merge_endpoint"
	ItemMergeService  = "merge_service"
	ItemOutputDir     = "output_dir"
)

const probeTimeout = 3 * time.Second

// Checker validates the merge service configuration and local export paths.
type Checker struct {
	probe      func(ctx context.Context, url string) (int, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real network and OS dependencies.
func NewChecker() *Checker {
	client := &http.Client{Timeout: probeTimeout}
	return &Checker{
		probe: func(ctx context.Context, target string) (int, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return 0, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return 0, err
			}
			defer resp.Body.Close()
			return resp.StatusCode, nil
		},
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkEndpoint(settings.EndpointURL),
		c.checkService(settings.EndpointURL),
		c.checkOutputDir(settings.OutputDir),
	}

	report := domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}
	report.HasFailures = len(report.Failed()) > 0
	return report
}

// checkEndpoint validates the configured merge URL.
func (c *Checker) checkEndpoint(endpoint string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   ItemMergeEndpoint,
		Name: "Merge endpoint",
	}

	if err := merge.ValidateEndpoint(endpoint); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Invalid merge endpoint: %v", err)
		item.Hint = "Set an absolute http:// or https:// URL, for example http://localhost:5000/merge."
		item.Fixable = true
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using %s", strings.TrimSpace(endpoint))
	return item
}

// checkService probes the service root, which answers plain GET when running.
func (c *Checker) checkService(endpoint string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   ItemMergeService,
		Name: "Merge service",
	}

	root, err := serviceRoot(endpoint)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Merge service cannot be probed without a valid endpoint."
		item.Hint = "Fix the merge endpoint first."
		return item
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	status, err := c.probe(ctx, root)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Merge service is not reachable at %s", root)
		item.Hint = "Start the merge service and make sure it listens on the configured address."
		return item
	}
	if status >= http.StatusInternalServerError {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Merge service at %s answered HTTP %d", root, status)
		item.Hint = "Check the merge service logs."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Merge service reachable at %s", root)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   ItemOutputDir,
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set a directory where merged videos can be saved."
		item.Fixable = true
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		item.Fixable = true
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for merged videos."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// serviceRoot returns scheme://host/ of the merge endpoint.
func serviceRoot(endpoint string) (string, error) {
	if err := merge.ValidateEndpoint(endpoint); err != nil {
		return "", err
	}
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String(), nil
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	probe func(ctx context.Context, url string) (int, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		probe:      probe,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
