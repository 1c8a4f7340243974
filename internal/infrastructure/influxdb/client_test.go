package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/neurobot-client/internal/infrastructure/config"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol posted to /write.
type fakeInflux struct {
	mu    sync.Mutex
	lines []string
	srv   *httptest.Server
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/write"):
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
				if line != "" {
					f.lines = append(f.lines, line)
				}
			}
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "neurobot-dev-token",
		Org:           "neurobot",
		Bucket:        "eeg",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func connect(t *testing.T, f *fakeInflux) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(context.Background(), testConfig(f.srv.URL), "session-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	client := connect(t, newFakeInflux(t))

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if client.Session() != "session-1" {
		t.Errorf("Session() = %q, want session-1", client.Session())
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg, "s")
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := influxdb.Connect(context.Background(), testConfig(url), "s")
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	f := newFakeInflux(t)
	cfg := testConfig(f.srv.URL)
	cfg.BatchSize = -5
	cfg.FlushInterval = 0

	client, err := influxdb.Connect(context.Background(), cfg, "s")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false with default batch settings")
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWriteSamples(t *testing.T) {
	f := newFakeInflux(t)
	client := connect(t, f)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client.WriteSamples([]float64{0.5, -1.25, 3}, at)
	client.Flush()

	lines := f.written()
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %v", len(lines), lines)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "eeg_samples,session=session-1 value=") {
			t.Errorf("unexpected line %q", line)
		}
	}
	if !strings.Contains(lines[1], "value=-1.25") {
		t.Errorf("second line = %q, want value=-1.25", lines[1])
	}

	// Points of one batch must carry distinct timestamps.
	ts := make(map[string]bool)
	for _, line := range lines {
		fields := strings.Fields(line)
		ts[fields[len(fields)-1]] = true
	}
	if len(ts) != 3 {
		t.Errorf("distinct timestamps = %d, want 3", len(ts))
	}
}

func TestWriteEmotionAndConnection(t *testing.T) {
	f := newFakeInflux(t)
	client := connect(t, f)

	now := time.Now()
	client.WriteEmotion("happy", now)
	client.WriteConnection("connected", 0, now)
	client.WriteFeatures(map[string]float64{"mean": 2.5}, now)
	client.WriteFeatures(nil, now)
	client.Flush()

	joined := strings.Join(f.written(), "\n")
	for _, want := range []string{
		`emotion,session=session-1 label="happy"`,
		`connection,session=session-1 attempts=0i,state="connected"`,
		`eeg_features,session=session-1 mean=2.5`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
	if n := len(f.written()); n != 3 {
		t.Errorf("lines = %d, want 3 (empty features skipped)", n)
	}
}

func TestWriteAfterClose(t *testing.T) {
	f := newFakeInflux(t)
	client, err := influxdb.Connect(context.Background(), testConfig(f.srv.URL), "s")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	client.WriteSamples([]float64{1}, time.Now())
	client.Flush()

	if len(f.written()) != 0 {
		t.Errorf("points written after Close(): %v", f.written())
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close() error = %v, want ErrNotConnected", err)
	}
}

func TestClose_Nil(t *testing.T) {
	client := &influxdb.Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}
