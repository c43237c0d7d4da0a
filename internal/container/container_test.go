package container

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"pokedex/catalog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []string{"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon"}

type fakeAPI struct {
	*httptest.Server
	listHits atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/pokemon", func(w http.ResponseWriter, r *http.Request) {
		api.listHits.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		end := min(offset+limit, len(catalog))
		next := "null"
		if end < len(catalog) {
			next = fmt.Sprintf(`"%s/api/v2/pokemon?offset=%d&limit=%d"`, api.URL, end, limit)
		}

		var results bytes.Buffer
		for i := offset; i < end; i++ {
			if i > offset {
				results.WriteString(",")
			}
			fmt.Fprintf(&results, `{"name": %q, "url": "%s/api/v2/pokemon/%d/"}`, catalog[i], api.URL, i+1)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"count": %d, "next": %s, "results": [%s]}`, len(catalog), next, results.String())
	})
	mux.HandleFunc("/api/v2/pokemon/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "4" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 4, "name": "charmander", "height": 6, "weight": 85,
			"types": [{"slot": 1, "type": {"name": "fire", "url": ""}}],
			"stats": [{"base_stat": 39, "effort": 0, "stat": {"name": "hp", "url": ""}}],
			"abilities": [{"ability": {"name": "solar-power", "url": ""}, "is_hidden": true, "slot": 3}],
			"moves": [{"move": {"name": "scratch", "url": ""}}],
			"sprites": {"front_default": null}
		}`))
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:   baseURL,
			PageSize:  2,
			Timeout:   5 * time.Second,
			UserAgent: "test",
		},
		Cache: config.CacheConfig{
			Backend:   config.CacheBackendMemory,
			Freshness: time.Hour,
			Capacity:  100,
			Retention: time.Hour,
		},
		List: config.ListConfig{Debounce: 10 * time.Millisecond},
		Warm: config.WarmConfig{SaveInterval: 1},
	}
}

func newTestContainer(t *testing.T) (*Container, *fakeAPI, *bytes.Buffer) {
	t.Helper()

	api := newFakeAPI(t)
	c, err := New(context.Background(), testConfig(api.URL+"/api/v2"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	var out bytes.Buffer
	c.SetOutput(&out)
	return c, api, &out
}

func runWithTimeout(t *testing.T, c *Container, opts RunOptions) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Run(ctx, opts)
}

func TestNew_MemoryBackend(t *testing.T) {
	c, _, _ := newTestContainer(t)

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Repository)
	assert.NotNil(t, c.Warmer)
	assert.Nil(t, c.StateManager)
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestRun_BrowsePages(t *testing.T) {
	c, _, out := newTestContainer(t)

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeBrowse, Pages: 2}))

	assert.Contains(t, out.String(), "    1  bulbasaur")
	assert.Contains(t, out.String(), "    4  charmander")
	assert.NotContains(t, out.String(), "charmeleon")
	assert.Contains(t, out.String(), "4 of 4 loaded, more available: true")
}

func TestRun_BrowseWithQuery(t *testing.T) {
	c, _, out := newTestContainer(t)

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeBrowse, Pages: 10, Query: "char"}))

	assert.Contains(t, out.String(), "    4  charmander")
	assert.Contains(t, out.String(), "    5  charmeleon")
	assert.NotContains(t, out.String(), "bulbasaur")
	assert.Contains(t, out.String(), "2 of 5 loaded, more available: false")
}

func TestRun_BrowseServedFromCache(t *testing.T) {
	c, api, _ := newTestContainer(t)

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeBrowse, Pages: 3}))
	hits := api.listHits.Load()
	assert.EqualValues(t, 3, hits)

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeBrowse, Pages: 3}))
	assert.Equal(t, hits, api.listHits.Load())

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeClear}))
	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeBrowse, Pages: 1}))
	assert.Equal(t, hits+1, api.listHits.Load())
}

func TestRun_Detail(t *testing.T) {
	c, _, out := newTestContainer(t)

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeDetail, ID: 4}))

	assert.Contains(t, out.String(), "#4 charmander")
	assert.Contains(t, out.String(), "height: 0.6 m, weight: 8.5 kg")
	assert.Contains(t, out.String(), "type: fire")
	assert.Contains(t, out.String(), "ability: solar-power (hidden)")
}

func TestRun_DetailNotFound(t *testing.T) {
	c, _, _ := newTestContainer(t)

	err := runWithTimeout(t, c, RunOptions{Mode: ModeDetail, ID: 9999})
	assert.ErrorContains(t, err, "failed to load details for 9999")

	err = runWithTimeout(t, c, RunOptions{Mode: ModeDetail})
	assert.ErrorContains(t, err, "positive id")
}

func TestRun_Warm(t *testing.T) {
	c, api, out := newTestContainer(t)

	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeWarm}))
	assert.Contains(t, out.String(), "warmed 3 pages, 5 items, exhausted=true")
	assert.EqualValues(t, 3, api.listHits.Load())

	// Everything is cached now
	require.NoError(t, runWithTimeout(t, c, RunOptions{Mode: ModeBrowse, Pages: 3}))
	assert.EqualValues(t, 3, api.listHits.Load())
}

func TestRun_UnknownMode(t *testing.T) {
	c, _, _ := newTestContainer(t)
	assert.ErrorContains(t, runWithTimeout(t, c, RunOptions{Mode: "dance"}), "unknown mode")
}
