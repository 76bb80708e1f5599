package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the API mounted at baseURL (for example
// "http://localhost:8000/api"). A nil session starts signed out.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// call is one request. Protected calls fail with ErrUnauthenticated before
// touching the network when no token is held.
type call struct {
	method    string
	path      string
	query     url.Values
	body      io.Reader
	ctype     string
	protected bool
}

func jsonCall(method, path string, in any, protected bool) (call, error) {
	cl := call{method: method, path: path, protected: protected}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return cl, err
		}
		cl.body = bytes.NewReader(b)
		cl.ctype = "application/json"
	}
	return cl, nil
}

// do sends cl and returns the open response on 2xx. Callers close the body.
func (c *Client) do(ctx context.Context, cl call) (*http.Response, error) {
	var token string
	if cl.protected {
		token = c.session.State().Access
		if token == "" {
			return nil, ErrUnauthenticated
		}
	}

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, cl.body)
	if err != nil {
		return nil, err
	}
	if cl.ctype != "" {
		req.Header.Set("Content-Type", cl.ctype)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && cl.protected {
		c.session.Dispatch(LogoutAction())
		return nil, ErrUnauthenticated
	}
	return nil, decodeAPIError(resp)
}

// doJSON sends cl and decodes a 2xx body into out when out is not nil.
func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", cl.method, cl.path, err)
	}
	return nil
}

// downloadPDF fetches a document and insists on application/pdf. Any other
// answer, including a JSON body served with 200, fails with ErrNotPDF.
func (c *Client) downloadPDF(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: path, protected: true})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %w", ErrNotPDF, apiErr)
		}
		return nil, err
	}
	defer resp.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/pdf" {
		apiErr := decodeAPIError(resp)
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, apiErr.Message)
	}
	return io.ReadAll(resp.Body)
}

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func decodeAPIError(resp *http.Response) *APIError {
	e := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		e.Code, e.Message, e.Details = body.Code, body.Error, body.Details
		return e
	}
	e.Message = strings.TrimSpace(string(raw))
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// FilePart is a file to upload in a multipart form.
type FilePart struct {
	Field  string
	Name   string
	Reader io.Reader
}

func multipartCall(method, path string, fields map[string]string, files ...FilePart) (call, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return call{}, err
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return call{}, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return call{}, err
		}
	}
	if err := w.Close(); err != nil {
		return call{}, err
	}
	return call{method: method, path: path, body: &buf, ctype: w.FormDataContentType(), protected: true}, nil
}

func isAPIStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
