package pureservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
)

const (
	contentType  = "application/vnd.api+json"
	apiKeyHeader = "X-Authorization-Key"
	pageLimit    = 500
	maxPages     = 200
)

// Recorder is told about every request sent to Pureservice.
type Recorder interface {
	Record()
}

// RequestError is returned for responses with status code 300 or above.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("%s Pureservice \"%s\" error: %s", e.Method, e.Path, e.Body)
	}
	return fmt.Sprintf("%s Pureservice \"%s\" error: Status code %d", e.Method, e.Path, e.StatusCode)
}

// Caller sends JSON:API requests to one Pureservice instance.
type Caller struct {
	baseUrl  string
	apiKey   string
	client   *http.Client
	recorder Recorder
	metrics  metrics.Counter
	log      logrus.FieldLogger
}

type CallerOption func(*Caller)

func WithHTTPClient(client *http.Client) CallerOption {
	return func(c *Caller) {
		c.client = client
	}
}

func WithRecorder(recorder Recorder) CallerOption {
	return func(c *Caller) {
		c.recorder = recorder
	}
}

func WithMetrics(counter metrics.Counter) CallerOption {
	return func(c *Caller) {
		c.metrics = counter
	}
}

func WithLogger(log logrus.FieldLogger) CallerOption {
	return func(c *Caller) {
		c.log = log
	}
}

func NewCaller(baseUrl string, apiKey string, opts ...CallerOption) *Caller {
	var c = &Caller{
		baseUrl: baseUrl,
		apiKey:  apiKey,
		client:  http.DefaultClient,
		metrics: metrics.Discard{},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Caller) composeUrl(path string, query url.Values) (result *url.URL, err error) {
	var uri *url.URL
	if uri, err = url.Parse(c.baseUrl); err != nil {
		return
	}
	var ruri *url.URL
	if ruri, err = url.Parse(path); err != nil {
		return
	}
	if !strings.HasSuffix(uri.Path, "/") {
		uri.Path += "/"
	}
	uri = uri.ResolveReference(ruri)
	if len(query) > 0 {
		uri.RawQuery = query.Encode()
	}
	result = uri
	return
}

func (c *Caller) executeRequest(ctx context.Context, method string, path string, query url.Values, payload any) (body []byte, err error) {
	var metricName = fmt.Sprintf("pureservice_api_%s_request", strings.ToLower(method))
	defer func() {
		c.metrics.Count(metricName, fmt.Sprintf("Pureservice %s requests", method), err == nil)
	}()

	var uri *url.URL
	if uri, err = c.composeUrl(path, query); err != nil {
		return
	}

	var reader io.Reader
	if payload != nil {
		var data []byte
		if data, err = json.Marshal(payload); err != nil {
			return
		}
		reader = bytes.NewReader(data)
	}

	var rq *http.Request
	if rq, err = http.NewRequestWithContext(ctx, method, uri.String(), reader); err != nil {
		return
	}
	rq.Header.Set(apiKeyHeader, c.apiKey)
	rq.Header.Set("Accept", contentType)
	if payload != nil {
		rq.Header.Set("Content-Type", contentType)
	}

	if c.recorder != nil {
		c.recorder.Record()
	}
	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debug("Pureservice request")

	var rs *http.Response
	if rs, err = c.client.Do(rq); err != nil {
		return
	}
	defer func() {
		_ = rs.Body.Close()
	}()
	if body, err = io.ReadAll(rs.Body); err != nil {
		return
	}
	if rs.StatusCode >= 300 {
		err = &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: rs.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		body = nil
	}
	return
}

func decode(body []byte, out any) (err error) {
	if out == nil || len(body) == 0 {
		return
	}
	err = json.Unmarshal(body, out)
	return
}

func (c *Caller) Get(ctx context.Context, path string, query url.Values, out any) (err error) {
	var body []byte
	if body, err = c.executeRequest(ctx, http.MethodGet, path, query, nil); err != nil {
		return
	}
	err = decode(body, out)
	return
}

func (c *Caller) Post(ctx context.Context, path string, payload any, out any) (err error) {
	var body []byte
	if body, err = c.executeRequest(ctx, http.MethodPost, path, nil, payload); err != nil {
		return
	}
	err = decode(body, out)
	return
}

func (c *Caller) Patch(ctx context.Context, path string, payload any) (err error) {
	_, err = c.executeRequest(ctx, http.MethodPatch, path, nil, payload)
	return
}

func (c *Caller) Put(ctx context.Context, path string, payload any, out any) (err error) {
	var body []byte
	if body, err = c.executeRequest(ctx, http.MethodPut, path, nil, payload); err != nil {
		return
	}
	err = decode(body, out)
	return
}

// GetPaged requests path page by page until a page comes back empty.
// The page callback decodes one page and returns the number of items in it.
func (c *Caller) GetPaged(ctx context.Context, path string, query url.Values, page func([]byte) (int, error)) (err error) {
	var start = 0
	var attempt = 0
	for {
		attempt += 1
		if attempt > maxPages {
			err = fmt.Errorf("get Pureservice resource \"%s\" canceled after %d pages", path, maxPages)
			return
		}
		var pq = url.Values{}
		for k, v := range query {
			pq[k] = v
		}
		pq.Set("start", strconv.Itoa(start))
		pq.Set("limit", strconv.Itoa(pageLimit))

		var body []byte
		if body, err = c.executeRequest(ctx, http.MethodGet, path, pq, nil); err != nil {
			return
		}
		var count int
		if count, err = page(body); err != nil {
			return
		}
		if count == 0 {
			return
		}
		start += count
	}
}
