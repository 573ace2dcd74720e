package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-merger/internal/domain"
)

// Multipart field names expected by the merge service.
const (
	FieldVideo = "video"
	FieldAudio = "audio"
)

// User-facing messages.
const (
	MessageMissingFiles     = "Please upload both audio and video files."
	MessageProcessingFailed = "Error processing the video."
	MessageBadEndpoint      = "Merge service address is not configured."
)

// Kind separates local validation problems from remote failures.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRemote     Kind = "remote"
)

// Request is one merge call: the first audio and video of the selection.
type Request struct {
	EndpointURL string
	Audio       domain.MediaFile
	Video       domain.MediaFile
}

// Result is the merged video returned by the service.
type Result struct {
	Data        []byte
	ContentType string
	StatusCode  int
	Duration    time.Duration
}

// Error is a merge failure with the text to show the user.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Err        error  `json:"-"`
}

// Error formats merge failures for logs.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Kind, e.Message, e.StatusCode)
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage returns the text to display for any error from Merge.
func UserMessage(err error) string {
	var mergeErr *Error
	if errors.As(err, &mergeErr) && mergeErr.Message != "" {
		return mergeErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// httpDoer abstracts the HTTP transport for testability.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts selections to the merge service.
type Client struct {
	http httpDoer
	open func(name string) (io.ReadCloser, error)
	now  func() time.Time
}

// NewClient builds a client. A zero timeout leaves the deadline to ctx.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		open: func(name string) (io.ReadCloser, error) { return os.Open(name) },
		now:  time.Now,
	}
}

// Merge uploads video then audio as multipart fields and returns the merged body.
// Any non-2xx status or transport fault is a KindRemote error. No retry.
func (c *Client) Merge(ctx context.Context, req Request) (Result, error) {
	endpoint, err := validateEndpoint(req.EndpointURL)
	if err != nil {
		return Result{}, &Error{Kind: KindValidation, Message: MessageBadEndpoint, Err: err}
	}
	if strings.TrimSpace(req.Audio.Path) == "" || strings.TrimSpace(req.Video.Path) == "" {
		return Result{}, &Error{Kind: KindValidation, Message: MessageMissingFiles}
	}

	video, err := c.open(req.Video.Path)
	if err != nil {
		return Result{}, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("Cannot read video file %s.", displayName(req.Video)),
			Err:     err,
		}
	}
	audio, err := c.open(req.Audio.Path)
	if err != nil {
		_ = video.Close()
		return Result{}, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("Cannot read audio file %s.", displayName(req.Audio)),
			Err:     err,
		}
	}

	body, contentType := streamParts([]part{
		{field: FieldVideo, file: req.Video, content: video},
		{field: FieldAudio, file: req.Audio, content: audio},
	})
	defer body.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Result{}, &Error{Kind: KindRemote, Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)

	started := c.now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Result{}, &Error{
			Kind:       KindRemote,
			Message:    MessageProcessingFailed,
			StatusCode: resp.StatusCode,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, transportError(ctx, err)
	}

	return Result{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Duration:    c.now().Sub(started),
	}, nil
}

// part is one file field of the multipart body.
type part struct {
	field   string
	file    domain.MediaFile
	content io.ReadCloser
}

// streamParts writes parts into a pipe so files are never fully buffered.
// All part readers are closed once writing ends.
func streamParts(parts []part) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		defer func() {
			for _, p := range parts {
				_ = p.content.Close()
			}
		}()

		for _, p := range parts {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, displayName(p.file)))
			header.Set("Content-Type", partContentType(p.file))

			dst, err := writer.CreatePart(header)
			if err != nil {
				_ = pw.CloseWithError(err)
				return
			}
			if _, err := io.Copy(dst, p.content); err != nil {
				_ = pw.CloseWithError(fmt.Errorf("write %s part: %w", p.field, err))
				return
			}
		}
		_ = pw.CloseWithError(writer.Close())
	}()

	return pr, writer.FormDataContentType()
}

// transportError maps a transport fault to a remote error carrying its description.
func transportError(ctx context.Context, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Kind: KindRemote, Message: ctxErr.Error(), Err: ctxErr}
	}
	return &Error{Kind: KindRemote, Message: err.Error(), Err: err}
}

// validateEndpoint requires an absolute http(s) URL.
func validateEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("endpoint url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported endpoint scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint url has no host: %s", trimmed)
	}
	return u.String(), nil
}

// ValidateEndpoint reports whether raw is usable as a merge endpoint.
func ValidateEndpoint(raw string) error {
	_, err := validateEndpoint(raw)
	return err
}

// partContentType guesses a MIME type from the file extension.
func partContentType(file domain.MediaFile) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func displayName(file domain.MediaFile) string {
	if file.Name != "" {
		return file.Name
	}
	return filepath.Base(file.Path)
}

// NewClientForTests constructs a client with injectable dependencies.
func NewClientForTests(doer httpDoer, open func(string) (io.ReadCloser, error), now func() time.Time) *Client {
	if now == nil {
		now = time.Now
	}
	return &Client{
		http: doer,
		open: open,
		now:  now,
	}
}
