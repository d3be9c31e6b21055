package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/taxa/am"
	taxatest "github.com/teranos/taxa/internal/testing"
	"github.com/teranos/taxa/taxonomy"
	tt "github.com/teranos/taxa/taxonomy/taxonomytest"
)

func testConfig(dbPath string) *am.Config {
	return &am.Config{
		Database: am.DatabaseConfig{Path: dbPath},
		Engine:   am.EngineConfig{PathCacheSize: 64},
		Server:   am.ServerConfig{Port: am.DefaultServerPort},
	}
}

// newTestServer serves the fixture engine without touching disk
func newTestServer(t *testing.T, cfg *am.Config) (*TaxaServer, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(filepath.Join(t.TempDir(), "unused.db"))
	}
	s, err := New(context.Background(), cfg,
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithEngine(tt.Engine(t)),
	)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandlers(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, body []byte)
	}{
		{"record", "/api/record/1", http.StatusOK, func(t *testing.T, body []byte) {
			var r taxonomy.Record
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, taxonomy.Record{Taxid: 1, Name: "root", Rank: "no rank", ParentTaxid: 1}, r)
		}},
		{"parent of root", "/api/parent/1", http.StatusOK, func(t *testing.T, body []byte) {
			var r ParentResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, tt.Root, r.Parent)
		}},
		{"lineage", "/api/lineage/562", http.StatusOK, func(t *testing.T, body []byte) {
			var recs []taxonomy.Record
			require.NoError(t, json.Unmarshal(body, &recs))
			require.Len(t, recs, 10)
			assert.Equal(t, tt.EColi, recs[0].Taxid)
			assert.Equal(t, tt.Root, recs[len(recs)-1].Taxid)
		}},
		{"genus", "/api/genus/562", http.StatusOK, func(t *testing.T, body []byte) {
			var r RankResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, tt.Escherichia, r.Found)
			assert.Equal(t, "genus", r.Rank)
		}},
		{"species of strain", "/api/species/83333", http.StatusOK, func(t *testing.T, body []byte) {
			var r RankResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, tt.EColi, r.Found)
		}},
		{"superkingdom under domain rank", "/api/superkingdom/562", http.StatusOK, func(t *testing.T, body []byte) {
			var r RankResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, tt.Bacteria, r.Found)
		}},
		{"merged status", "/api/status/12", http.StatusOK, func(t *testing.T, body []byte) {
			assert.JSONEq(t, `{"isCurrent":false,"isDeleted":false,"isMerged":74109}`, string(body))
		}},
		{"deleted status", "/api/status/3400745", http.StatusOK, func(t *testing.T, body []byte) {
			assert.JSONEq(t, `{"isCurrent":false,"isDeleted":true,"isMerged":false}`, string(body))
		}},
		{"common", "/api/common/562/623", http.StatusOK, func(t *testing.T, body []byte) {
			var r CommonResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, "Enterobacteriaceae", r.LCA.Name)
			assert.Equal(t, 2, r.DistanceA)
			assert.Equal(t, 2, r.DistanceB)
		}},
		{"levels", "/api/levels/562/9612", http.StatusOK, func(t *testing.T, body []byte) {
			assert.JSONEq(t, `{"left_levels_to_common_parent":26,"right_levels_to_common_parent":8,"total_levels_between_taxa":34}`, string(body))
		}},
		{"clade member", "/api/clade/phage/2560487", http.StatusOK, func(t *testing.T, body []byte) {
			var r CladeResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.True(t, r.Member)
		}},
		{"clade non-member", "/api/clade/virus/34199", http.StatusOK, func(t *testing.T, body []byte) {
			var r CladeResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.False(t, r.Member)
		}},
		{"clades", "/api/clades/9612", http.StatusOK, func(t *testing.T, body []byte) {
			var r CladesResponse
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, []string{"eukaryote"}, r.Clades)
		}},
		{"follow merged", "/api/record/12?follow_merged=true", http.StatusOK, func(t *testing.T, body []byte) {
			var r taxonomy.Record
			require.NoError(t, json.Unmarshal(body, &r))
			assert.Equal(t, tt.PProfundum, r.Taxid)
		}},
		{"graph", "/api/graph?taxid=562&taxid=623", http.StatusOK, func(t *testing.T, body []byte) {
			var g struct {
				Nodes []json.RawMessage `json:"nodes"`
				Links []json.RawMessage `json:"links"`
			}
			require.NoError(t, json.Unmarshal(body, &g))
			assert.Len(t, g.Nodes, 12)
			assert.Len(t, g.Links, 11)
		}},

		{"bad taxid", "/api/record/abc", http.StatusBadRequest, nil},
		{"negative taxid", "/api/record/-4", http.StatusBadRequest, nil},
		{"unknown taxid", "/api/record/999999999", http.StatusNotFound, nil},
		{"merged without follow", "/api/record/12", http.StatusNotFound, nil},
		{"unknown clade", "/api/clade/dragons/562", http.StatusNotFound, nil},
		{"no genus above root", "/api/genus/1", http.StatusNotFound, nil},
		{"graph without ids", "/api/graph", http.StatusBadRequest, nil},
		{"unknown route", "/api/nothing/562", http.StatusNotFound, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tc.path)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			if tc.check != nil {
				assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
				tc.check(t, body)
			}
		})
	}
}

func TestHandlers_ErrorBody(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/api/record/12")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e.Error, "unknown taxid")
	assert.NotEmpty(t, e.Hints, "merged ids hint at their replacement")
	assert.Equal(t, resp.Header.Get(RequestIDHeader), e.RequestID)
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/record/562", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestNoCache(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.db"))
	s, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err, "a missing cache is not fatal")
	assert.Nil(t, s.Engine())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/api/record/562")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var h HealthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, cfg.Database.Path, h.DatabasePath)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.db"))
	s, err := New(ctx, cfg, WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)
	require.Nil(t, s.Engine())

	// A failed reload keeps the server as it was
	assert.Error(t, s.Reload(ctx, cfg))
	assert.Nil(t, s.Engine())

	_, path := taxatest.CreateCachedDB(t, taxonomy.Snapshot{})
	cfg.Database.Path = path
	require.NoError(t, s.Reload(ctx, cfg))
	require.NotNil(t, s.Engine())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, body := get(t, ts.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h HealthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, len(tt.Snapshot().Records), h.Records)
	require.NotNil(t, h.Cache)
	assert.Equal(t, taxatest.TestSourceURL, h.Cache.SourceURL)
}

func TestNew_LoadsCache(t *testing.T) {
	_, path := taxatest.CreateCachedDB(t, taxonomy.Snapshot{})
	cfg := testConfig(path)
	cfg.Taxonomy.Clades = map[string]int64{"canids": int64(tt.Canis)}

	s, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)
	require.NotNil(t, s.Engine())

	ok, err := s.Engine().IsClade(tt.CanisLupus, "canids")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMetricsEndpoint(t *testing.T) {
	_, path := taxatest.CreateCachedDB(t, taxonomy.Snapshot{})
	s, err := New(context.Background(), testConfig(path), WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	get(t, ts.URL+"/api/record/562")
	get(t, ts.URL+"/api/record/999999999")

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, `taxa_engine_queries_total{operation="record",result="success"} 1`)
	assert.Contains(t, text, `taxa_engine_queries_total{operation="record",result="unknown_taxid"} 1`)
	assert.Contains(t, text, `taxa_http_requests_total{code="200",route="GET /api/record/{taxid}"} 1`)
	assert.Contains(t, text, "go_goroutines")
}

func TestRequestID(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, _ := get(t, ts.URL+"/health")
	minted := resp.Header.Get(RequestIDHeader)
	_, err := uuid.Parse(minted)
	assert.NoError(t, err, "minted id is a uuid")

	const callerID = "0b6f8a52-3c1d-4e8e-9a57-2f0d6c1b9e44"
	tests := []struct {
		name   string
		header string
		kept   bool
	}{
		{"uuid is kept", callerID, true},
		{"upper case uuid is normalised", strings.ToUpper(callerID), true},
		{"free text is replaced", "abc-123", false},
		{"oversized value is replaced", strings.Repeat("a", 4096), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
			require.NoError(t, err)
			req.Header[RequestIDHeader] = []string{tc.header}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			got := resp.Header.Get(RequestIDHeader)
			_, err = uuid.Parse(got)
			require.NoError(t, err)
			if tc.kept {
				assert.Equal(t, callerID, got)
			} else {
				assert.NotEqual(t, tc.header, got)
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "unused.db"))
	cfg.Server.RequestsPerSecond = 0.001
	cfg.Server.Burst = 2
	_, ts := newTestServer(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, _ := get(t, ts.URL+"/api/record/562")
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	resp, _ := get(t, ts.URL+"/api/record/562")
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	resp, _ = get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is never limited")
}

func TestRateLimit_Disabled(t *testing.T) {
	_, ts := newTestServer(t, nil)
	for i := 0; i < 20; i++ {
		resp, _ := get(t, ts.URL+"/api/record/562")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestApplyLimits(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "unused.db"))
	cfg.Server.RequestsPerSecond = 5
	cfg.Server.Burst = 5
	s, _ := newTestServer(t, cfg)

	s.applyLimits(am.ServerConfig{RequestsPerSecond: 50, Burst: 9})
	assert.Equal(t, 9, s.limiter.Burst())
	assert.InDelta(t, 50.0, float64(s.limiter.Limit()), 0.001)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s, err := New(context.Background(), testConfig(filepath.Join(t.TempDir(), "unused.db")),
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithEngine(tt.Engine(t)),
	)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, ServerStateStopped, s.getState())
}

func TestStatusFor(t *testing.T) {
	e := tt.Engine(t)

	_, err := e.Record(tt.Absent)
	assert.Equal(t, http.StatusNotFound, statusFor(err))

	_, err = taxonomy.ParseTaxid("x")
	assert.Equal(t, http.StatusBadRequest, statusFor(err))

	_, err = e.GenusOf(tt.Root)
	assert.Equal(t, http.StatusNotFound, statusFor(err))

	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
