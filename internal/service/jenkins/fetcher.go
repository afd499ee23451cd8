package jenkins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/oshokin/build-tv/internal/domain/build"
)

const (
	// UserAgent is sent with every request to a build server.
	UserAgent = "Build TV"

	// jobsPath asks Jenkins for the name and ball colour of every job only.
	jobsPath = "/api/json?tree=jobs[name,color]"
)

var (
	// ErrUnexpectedStatus is returned for a non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrResponseTooLarge is returned when the body exceeds the buffer cap.
	ErrResponseTooLarge = errors.New("response exceeds max buffer size")

	//nolint:gochecknoglobals // Stateless codec shared by every fetch.
	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Fetcher returns the jobs of a single host.
type Fetcher interface {
	Fetch(ctx context.Context, host build.Host) ([]build.Job, error)
}

// HTTPFetcher queries the Jenkins JSON API over HTTP.
type HTTPFetcher struct {
	// client performs requests; its timeout bounds connect and read.
	client *http.Client
	// maxBufferBytes caps the size of a response body.
	maxBufferBytes int64
}

// jobsResponse is the subset of the Jenkins API response we read.
type jobsResponse struct {
	Jobs []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"jobs"`
}

// NewHTTPFetcher creates a fetcher with a per-request timeout and body cap.
func NewHTTPFetcher(timeout time.Duration, maxBufferBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:         &http.Client{Timeout: timeout},
		maxBufferBytes: maxBufferBytes,
	}
}

// Fetch downloads and decodes the job list of host.
func (f *HTTPFetcher) Fetch(ctx context.Context, host build.Host) ([]build.Job, error) {
	endpoint, err := jobsURL(host.URL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", host.Name, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBufferBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", host.Name, err)
	}

	if int64(len(body)) > f.maxBufferBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrResponseTooLarge, f.maxBufferBytes)
	}

	var decoded jobsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode %s: %w", host.Name, err)
	}

	jobs := make([]build.Job, 0, len(decoded.Jobs))
	for _, job := range decoded.Jobs {
		jobs = append(jobs, build.Job{Name: job.Name, Color: job.Color})
	}

	return jobs, nil
}

// jobsURL appends the API path to a base URL, with or without a trailing slash.
func jobsURL(base string) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid host url: %w", err)
	}

	return parsed.String() + jobsPath, nil
}
