// Package backend is the HTTP client for the upstream eBR REST API. Every
// call returns either decoded data or a *Error carrying the single message
// the UI shows to the user.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize caps how much of an upstream body is read (10 MB).
const maxResponseSize = 10 << 20

// User-facing fallback messages.
const (
	MsgUnexpected = "an unexpected error occurred"
	MsgConnection = "connection to server failed"
)

// Error is returned for every failed call. Detail is safe to show to users.
type Error struct {
	StatusCode int
	Detail     string
	// Transport is set when the request never produced a usable response
	// (dial failure, timeout, undecodable body).
	Transport bool
	Err       error
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Err }

// StatusCode extracts the upstream status from err, or 0 when err is not a
// backend error.
func StatusCode(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the bearer token.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveBackendCall(endpoint, method string, statusCode int, seconds float64)
}

// Request describes a JSON call. Path is relative to the base URL and
// written the way the upstream documents it (e.g. "auth/admin-login").
type Request struct {
	Name   string // stable label for metrics, e.g. "auth.login"
	Method string
	Path   string
	Query  url.Values
	Body   any
	Token  string
	Out    any
}

// Field is one multipart form value; order is preserved on the wire.
type Field struct {
	Name  string
	Value string
}

// FilePart is an optional file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string // application/octet-stream when empty
	Content     io.Reader
}

// MultipartRequest describes a multipart/form-data call.
type MultipartRequest struct {
	Name   string
	Method string
	Path   string
	Token  string
	Fields []Field
	File   *FilePart
	Out    any
}

// Client talks to the upstream API.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

// NewClient creates a client for baseURL with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetObserver sets the optional call observer.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do performs a JSON request and decodes a successful body into req.Out.
func (c *Client) Do(ctx context.Context, req Request) error {
	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", req.Name, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.endpoint(req.Path, req.Query), body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", req.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	setBearer(httpReq, req.Token)

	return c.send(httpReq, req.Name, req.Out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func createFilePart(mw *multipart.Writer, f *FilePart) (io.Writer, error) {
	if f.ContentType == "" {
		return mw.CreateFormFile(f.Field, f.Filename)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
	h.Set("Content-Type", f.ContentType)
	return mw.CreatePart(h)
}

// DoMultipart performs a multipart/form-data request. The Content-Type with
// boundary is set here; callers never set it themselves.
func (c *Client) DoMultipart(ctx context.Context, req MultipartRequest) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range req.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("writing field %s: %w", f.Name, err)
		}
	}
	if req.File != nil {
		part, err := createFilePart(mw, req.File)
		if err != nil {
			return fmt.Errorf("creating file part: %w", err)
		}
		if _, err := io.Copy(part, req.File.Content); err != nil {
			return fmt.Errorf("copying file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.endpoint(req.Path, nil), &buf)
	if err != nil {
		return fmt.Errorf("building %s request: %w", req.Name, err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	setBearer(httpReq, req.Token)

	return c.send(httpReq, req.Name, req.Out)
}

func setBearer(r *http.Request, token string) {
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) send(httpReq *http.Request, name string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(name, httpReq.Method, 0, start)
		return &Error{StatusCode: http.StatusInternalServerError, Detail: MsgConnection, Transport: true, Err: err}
	}
	defer resp.Body.Close()
	c.observe(name, httpReq.Method, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{StatusCode: http.StatusInternalServerError, Detail: MsgConnection, Transport: true, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Detail: detailFrom(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Detail: MsgConnection, Transport: true, Err: fmt.Errorf("decoding %s response: %w", name, err)}
	}
	return nil
}

func (c *Client) observe(name, method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(name, method, status, time.Since(start).Seconds())
	}
}

// detailFrom pulls the human-readable message out of an error body. The
// upstream sends {"detail": "..."} for business errors and a list of
// {"msg": "..."} objects for request validation failures.
func detailFrom(data []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &env); err != nil || len(env.Detail) == 0 {
		return MsgUnexpected
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return MsgUnexpected
		}
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return MsgUnexpected
}
