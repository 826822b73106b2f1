package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/plus3/tickbox/config"
	"github.com/plus3/tickbox/match"
	"github.com/plus3/tickbox/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

func testConfig() config.Config {
	return config.Config{
		Port:         8000,
		SecretKey:    testSecret,
		Ticks:        3,
		MatchTimeout: 5 * time.Second,
		LogLevel:     "info",
	}
}

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	results := store.NewMemoryStore()
	s, err := New(testConfig(), results)
	require.NoError(t, err)
	return s, results
}

func doJSON(t *testing.T, s *Server, method, path string, body any, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(bz)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	res, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, out
}

func decodeLog(t *testing.T, encoded string) string {
	t.Helper()
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	raw, err := match.Decompress(compressed)
	require.NoError(t, err)
	return string(raw)
}

func TestNewRequiresSecretAndStore(t *testing.T) {
	cfg := testConfig()
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg.SecretKey = ""
	_, err = New(cfg, store.NewMemoryStore())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	res, body := doJSON(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"isServerRunning":true}`, string(body))
}

func TestExecuteRejectsBadSecret(t *testing.T) {
	s, results := newTestServer(t)

	res, body := doJSON(t, s, http.MethodPost, "/execute", ExecuteRequest{SecretString: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"Unauthorized!"}`, string(body))

	ids, err := results.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestExecuteRunsMatch(t *testing.T) {
	s, results := newTestServer(t)

	res, body := doJSON(t, s, http.MethodPost, "/execute", ExecuteRequest{
		SecretString: testSecret,
		MatchID:      "match-42",
	}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "match-42", resp.MatchID)
	assert.Equal(t, "0 0 TIE", resp.Results)
	assert.Equal(t, strings.Repeat("Hello World!\n", 3), decodeLog(t, resp.Player1LogCompressed))
	assert.Equal(t, strings.Repeat("Hello World!\n", 3), decodeLog(t, resp.Player2LogCompressed))
	assert.Len(t, strings.Split(strings.TrimSpace(decodeLog(t, resp.Log)), "\n"), 3)

	saved, err := results.Get(context.Background(), "match-42")
	require.NoError(t, err)
	assert.Equal(t, match.StatusTie, saved.Status)
}

func TestExecuteTicksOverride(t *testing.T) {
	s, _ := newTestServer(t)

	ticks := uint64(5)
	res, body := doJSON(t, s, http.MethodPost, "/execute", ExecuteRequest{SecretString: testSecret, Ticks: &ticks}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.NotEmpty(t, resp.MatchID)
	assert.Equal(t, strings.Repeat("Hello World!\n", 5), decodeLog(t, resp.Player1LogCompressed))

	for _, bad := range []uint64{0, MaxTicks + 1} {
		res, _ := doJSON(t, s, http.MethodPost, "/execute", ExecuteRequest{SecretString: testSecret, Ticks: &bad}, nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "ticks=%d", bad)
	}
}

func TestExecuteTimeoutIsUndefined(t *testing.T) {
	cfg := testConfig()
	cfg.TickRate = time.Hour
	cfg.MatchTimeout = 20 * time.Millisecond
	s, err := New(cfg, store.NewMemoryStore())
	require.NoError(t, err)

	res, body := doJSON(t, s, http.MethodPost, "/execute", ExecuteRequest{SecretString: testSecret, MatchID: "slow"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "0 0 UNDEFINED", resp.Results)
	assert.Empty(t, resp.Log)
	assert.Empty(t, resp.Player1LogCompressed)
	assert.Empty(t, resp.Player2LogCompressed)
}

func TestExecuteBadBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	res, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMatchRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	auth := map[string]string{SecretHeader: testSecret}

	res, _ := doJSON(t, s, http.MethodPost, "/execute", ExecuteRequest{SecretString: testSecret, MatchID: "m1"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, s, http.MethodGet, "/matches/m1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, body := doJSON(t, s, http.MethodGet, "/matches/m1", nil, auth)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "0 0 TIE", resp.Results)

	res, _ = doJSON(t, s, http.MethodGet, "/matches/missing", nil, auth)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = doJSON(t, s, http.MethodGet, "/matches?limit=5", nil, auth)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"matchIds":["m1"]}`, string(body))

	res, _ = doJSON(t, s, http.MethodGet, "/matches?limit=1000", nil, auth)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	res, body := doJSON(t, s, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"Not Found"}`, string(body))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 18471
	s, err := New(cfg, store.NewMemoryStore())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://127.0.0.1:18471/health")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
