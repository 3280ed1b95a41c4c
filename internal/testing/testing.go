// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/chartlist/internal/models"
)

// MockCatalog is a test double for services.Catalog.
//
// SearchFunc decides search results; when nil every query matches a synthetic track whose URI is derived from the query.
// All calls are recorded.
type MockCatalog struct {
	SearchFunc func(query string) ([]models.Track, error)
	CreateErr  error
	AddErr     error

	mu       sync.Mutex
	Queries  []string
	Created  []models.PlaylistRequest
	Added    []string
	AddCalls int
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(query)
	}
	return []models.Track{{ID: query, URI: "spotify:track:" + query, Title: query}}, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Created = append(m.Created, req)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	id := fmt.Sprintf("mock-playlist-%d", len(m.Created))
	return &models.Playlist{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
		URL:         "https://open.spotify.com/playlist/" + id,
	}, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Added = append(m.Added, uris...)
	return nil
}

// CreateCalls returns the number of CreatePlaylist calls.
func (m *MockCatalog) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
