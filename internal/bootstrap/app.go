package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"media-merger/internal/config"
	"media-merger/internal/diagnostics"
	"media-merger/internal/domain"
	"media-merger/internal/jobs"
	"media-merger/internal/media"
	"media-merger/internal/merge"
	"media-merger/internal/metrics"
	"media-merger/internal/selection"
	"media-merger/internal/view"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// eventName is the runtime event the frontend listens on.
const eventName = "merge:event"

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio files",
		Pattern:     "*.mp3;*.wav;*.m4a;*.aac;*.flac;*.ogg;*.opus;*.wma",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.webm;*.m4v",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires selection, submission, merge client, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Selection   *selection.Selection
	Merger      merger
	Media       *media.Store
	Metrics     *metrics.Recorder
	Logger      logger.Logger
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	logLevel    logger.LogLevel
	stat        func(string) (os.FileInfo, error)

	mu         sync.Mutex
	activeID   string
	cancel     context.CancelFunc
	events     *jobs.EventBus
	runtimeCtx context.Context
}

// merger isolates the merge service client behind an interface.
type merger interface {
	Merge(ctx context.Context, req merge.Request) (merge.Result, error)
}

// New builds the application from persisted settings.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
// Embedded builds log to a file next to the settings.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(appDir(homeDir), "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = effectiveSettings(settings)

	logPath := ""
	if assets != nil {
		logPath = filepath.Join(appDir(homeDir), "media-merger.log")
	}
	level := parseLogLevel(settings.LogLevel)
	log := newLogger(level, logPath)
	log.Info(fmt.Sprintf("settings loaded from %s, endpoint %s", store.Path(), settings.EndpointURL))

	// Diagnostics probe the merge service over the network, so the first
	// pass runs from Startup instead of here.
	return &App{
		Settings:  settings,
		Store:     store,
		Jobs:      jobs.NewManager(),
		Selection: selection.New(),
		Merger:    merge.NewClient(0),
		Media:     media.NewStore(),
		Metrics:   metrics.NewRecorder(),
		Logger:    log,
		assets:    assets,
		checker:   diagnostics.NewChecker(),
		logLevel:  level,
		stat:      os.Stat,
		events:    jobs.NewEventBus(500),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{
		Assets:  a.assets,
		Handler: a.AssetHandler(),
	}

	return wails.Run(&options.App{
		Title:       "Media Merger",
		Width:       880,
		Height:      760,
		AssetServer: assetOptions,
		Logger:      a.Logger,
		LogLevel:    a.logLevel,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.cancel != nil {
				a.cancel()
			}
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// AssetHandler serves merged media references, metrics, and, without
// embedded assets, the frontend directory from disk.
func (a *App) AssetHandler() http.Handler {
	mux := http.NewServeMux()
	if a.Media != nil {
		mux.Handle(media.PathPrefix, a.Media)
	}
	if a.Metrics != nil {
		mux.Handle(metrics.Path, a.Metrics.Handler())
	}
	if a.assets == nil {
		mux.Handle("/", http.FileServer(http.Dir("./frontend")))
	}
	return mux
}

// Startup stores Wails runtime context for push events and kicks off
// the first diagnostics pass in the background.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	go a.runStartupDiagnostics()
}

// runStartupDiagnostics checks the current settings and logs failing items.
func (a *App) runStartupDiagnostics() domain.DiagnosticReport {
	report := a.refreshDiagnosticsFromSettings(a.currentSettings())
	for _, item := range report.Failed() {
		a.logWarning("diagnostic %s: %s", item.ID, item.Message)
	}
	return report
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = effectiveSettings(settings)
	a.applySettings(settings)

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := merge.ValidateEndpoint(normalized.EndpointURL); err != nil {
		return domain.Settings{}, fmt.Errorf("merge endpoint: %w", err)
	}
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(effectiveSettings(normalized))
	a.logInfo("settings saved, endpoint %s", a.currentSettings().EndpointURL)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns merge service checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(effectiveSettings(settings)), nil
}

// PickAudioFiles opens a native multi-select dialog and replaces the audio selection.
func (a *App) PickAudioFiles() (view.View, error) {
	paths, err := a.pickFiles("Select audio files", audioDialogFilter)
	if err != nil {
		return a.View(), err
	}
	if len(paths) == 0 {
		return a.View(), nil
	}
	return a.SelectAudio(paths)
}

// PickVideoFiles opens a native multi-select dialog and replaces the video selection.
func (a *App) PickVideoFiles() (view.View, error) {
	paths, err := a.pickFiles("Select video files", videoDialogFilter)
	if err != nil {
		return a.View(), err
	}
	if len(paths) == 0 {
		return a.View(), nil
	}
	return a.SelectVideo(paths)
}

// SelectAudio replaces the audio selection with the given paths.
func (a *App) SelectAudio(paths []string) (view.View, error) {
	return a.selectFiles(domain.MediaKindAudio, paths)
}

// SelectVideo replaces the video selection with the given paths.
func (a *App) SelectVideo(paths []string) (view.View, error) {
	return a.selectFiles(domain.MediaKindVideo, paths)
}

// ClearSelection empties both selections.
func (a *App) ClearSelection() view.View {
	a.Selection.Clear()
	a.publishEvent(jobs.Event{Type: jobs.EventTypeSelection, Message: "Selection cleared"})
	return a.View()
}

// Submit validates the selection and starts one merge asynchronously.
// A missing audio or video pick fails immediately without network access.
func (a *App) Submit() (view.View, error) {
	audio, video, err := a.Selection.Snapshot().Pair()
	if err != nil {
		if rejectErr := a.Jobs.Reject(merge.MessageMissingFiles); rejectErr != nil {
			return a.View(), rejectErr
		}
		if a.Metrics != nil {
			a.Metrics.ObserveRejected()
		}
		a.publishEvent(jobs.Event{
			Type:    jobs.EventTypeError,
			Status:  domain.SubmissionStatusFailed,
			Message: merge.MessageMissingFiles,
		})
		return a.View(), nil
	}

	id := uuid.NewString()
	settings := a.currentSettings()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if settings.RequestTimeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(settings.RequestTimeoutSeconds)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Cancel must be reachable as soon as the submission shows as loading.
	a.mu.Lock()
	if err := a.Jobs.Start(id); err != nil {
		a.mu.Unlock()
		cancel()
		return a.View(), err
	}
	a.activeID = id
	a.cancel = cancel
	a.mu.Unlock()

	a.logInfo("merge %s started: video=%s audio=%s", id, video.Name, audio.Name)
	a.publishStatus(id, domain.SubmissionStatusLoading, "Merging "+video.Name+" with "+audio.Name)

	go a.runMerge(ctx, id, merge.Request{
		EndpointURL: settings.EndpointURL,
		Audio:       audio,
		Video:       video,
	})
	return a.View(), nil
}

// CancelSubmission cancels the in-flight merge, if any.
func (a *App) CancelSubmission() error {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningSubmission
	}

	cancel()
	id, err := a.Jobs.Cancel()
	if err != nil && !errors.Is(err, jobs.ErrNoRunningSubmission) {
		return err
	}
	if id != "" {
		a.publishStatus(id, domain.SubmissionStatusFailed, jobs.CancelledMessage)
	}
	return nil
}

// ClearResult drops the current merged video and returns to idle.
func (a *App) ClearResult() (view.View, error) {
	previous, err := a.Jobs.Reset()
	if err != nil {
		return a.View(), err
	}
	a.release(previous)
	return a.View(), nil
}

// View renders the current widget state.
func (a *App) View() view.View {
	return view.Render(a.Selection.Snapshot(), a.Jobs.Current(), a.Jobs.Result())
}

// CurrentSubmission returns current submission state.
func (a *App) CurrentSubmission() domain.Submission {
	return a.Jobs.Current()
}

// SubmissionEvents returns all events with sequence greater than sinceSeq.
func (a *App) SubmissionEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// OpenOutputFolder opens the given path (or configured output dir) in file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.currentSettings().OutputDir
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// runMerge calls the merge service and settles the submission exactly once.
func (a *App) runMerge(ctx context.Context, id string, req merge.Request) {
	defer a.clearActive(id)

	endInFlight := func() {}
	if a.Metrics != nil {
		endInFlight = a.Metrics.Begin()
	}
	started := time.Now()

	result, err := a.Merger.Merge(ctx, req)
	endInFlight()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = a.Jobs.Fail(id, jobs.CancelledMessage)
			a.observe(metrics.OutcomeCancelled, started, 0)
			a.logInfo("merge %s cancelled", id)
			return
		}

		message := merge.UserMessage(err)
		if failErr := a.Jobs.Fail(id, message); failErr != nil {
			a.logDebug("merge %s outcome dropped: %v", id, failErr)
			return
		}
		a.observe(metrics.OutcomeFailed, started, 0)
		a.logError("merge %s failed: %v", id, err)

		statusCode := 0
		var mergeErr *merge.Error
		if errors.As(err, &mergeErr) {
			statusCode = mergeErr.StatusCode
		}
		a.publishStatus(id, domain.SubmissionStatusFailed, "Merge failed")
		a.publishEvent(jobs.Event{
			SubmissionID: id,
			Type:         jobs.EventTypeError,
			Status:       domain.SubmissionStatusFailed,
			Message:      message,
			StatusCode:   statusCode,
		})
		return
	}

	ref := a.Media.Create(result.Data, result.ContentType)
	previous, err := a.Jobs.Succeed(id, ref)
	if err != nil {
		_ = a.Media.Revoke(ref.ID)
		a.logDebug("merge %s outcome dropped: %v", id, err)
		return
	}
	a.release(previous)
	a.observeDuration(metrics.OutcomeSucceeded, result.Duration, ref.Size)
	a.logInfo("merge %s succeeded: %d bytes (%s)", id, ref.Size, ref.ContentType)

	a.publishStatus(id, domain.SubmissionStatusSucceeded, "Merge completed")
	a.publishEvent(jobs.Event{
		SubmissionID: id,
		Type:         jobs.EventTypeResult,
		Status:       domain.SubmissionStatusSucceeded,
		Message:      "Merged video ready",
		MediaURL:     ref.URL,
		StatusCode:   result.StatusCode,
		Bytes:        ref.Size,
	})
}

// selectFiles resolves picked paths and replaces one selection list.
func (a *App) selectFiles(kind domain.MediaKind, paths []string) (view.View, error) {
	stat := a.stat
	if stat == nil {
		stat = os.Stat
	}
	files, err := selection.FilesFromPaths(kind, paths, stat)
	if err != nil {
		return a.View(), err
	}

	if kind == domain.MediaKindAudio {
		a.Selection.SetAudio(files)
	} else {
		a.Selection.SetVideo(files)
	}

	a.logDebug("%s selection: %d file(s)", kind, len(files))
	a.publishEvent(jobs.Event{
		Type:    jobs.EventTypeSelection,
		Kind:    kind,
		Message: fmt.Sprintf("%d %s file(s) selected", len(files), kind),
	})
	return a.View(), nil
}

// pickFiles opens a native multi-file dialog.
func (a *App) pickFiles(title string, filters []wailsruntime.FileFilter) ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   title,
		Filters: filters,
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// release revokes a superseded media reference.
func (a *App) release(previous *domain.MergedMedia) {
	if previous == nil {
		return
	}
	if err := a.Media.Revoke(previous.ID); err != nil && !errors.Is(err, media.ErrNotFound) {
		a.logWarning("release media %s: %v", previous.ID, err)
	}
}

// observe records a settled request timed from started.
func (a *App) observe(outcome string, started time.Time, bytes int64) {
	a.observeDuration(outcome, time.Since(started), bytes)
}

// observeDuration records a settled request when metrics are configured.
func (a *App) observeDuration(outcome string, d time.Duration, bytes int64) {
	if a.Metrics != nil {
		a.Metrics.ObserveRequest(outcome, d, bytes)
	}
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(id string, status domain.SubmissionStatus, message string) {
	a.publishEvent(jobs.Event{
		SubmissionID: id,
		Type:         jobs.EventTypeStatus,
		Status:       status,
		Message:      message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, eventName, published)
	}
}

// clearActive clears cancellation handles for settled submission IDs.
func (a *App) clearActive(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeID == id {
		if a.cancel != nil {
			a.cancel()
		}
		a.activeID = ""
		a.cancel = nil
	}
}

// currentSettings returns the in-memory settings snapshot.
func (a *App) currentSettings() domain.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Settings
}

// refreshDiagnosticsFromSettings makes settings current and reruns checks.
// The checker runs without holding a.mu since it waits on the network.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.applySettings(settings)
	if a.checker == nil {
		return a.GetDiagnostics()
	}

	report := a.checker.Run(settings)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Diagnostics = report
	return report
}

// applySettings swaps in-memory settings and follows log level changes.
func (a *App) applySettings(settings domain.Settings) {
	level := parseLogLevel(settings.LogLevel)

	a.mu.Lock()
	a.Settings = settings
	a.logLevel = level
	ctx := a.runtimeCtx
	a.mu.Unlock()

	if l, ok := a.Logger.(*levelLogger); ok {
		l.SetLevel(level)
	}
	if ctx != nil {
		wailsruntime.LogSetLogLevel(ctx, level)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

func (a *App) logDebug(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Debug(fmt.Sprintf(format, args...))
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Info(fmt.Sprintf(format, args...))
	}
}

func (a *App) logWarning(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Warning(fmt.Sprintf(format, args...))
	}
}

func (a *App) logError(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Error(fmt.Sprintf(format, args...))
	}
}

// effectiveSettings overlays environment overrides on persisted settings.
func effectiveSettings(settings domain.Settings) domain.Settings {
	return normalizeSettings(config.ApplyEnv(settings))
}

// normalizeSettings trims user inputs and fills defaults for blank fields.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.EndpointURL = strings.TrimSpace(settings.EndpointURL)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	if settings.EndpointURL == "" {
		settings.EndpointURL = config.DefaultEndpointURL
	}
	if _, err := logger.StringToLogLevel(settings.LogLevel); err != nil {
		settings.LogLevel = config.DefaultLogLevel
	}
	if settings.RequestTimeoutSeconds < 0 {
		settings.RequestTimeoutSeconds = 0
	}
	return settings
}

func appDir(homeDir string) string {
	return filepath.Join(homeDir, ".media-merger")
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
