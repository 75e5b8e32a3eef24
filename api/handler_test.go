package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-screener/loader"
	"stock-screener/models"
	"stock-screener/query"
	"stock-screener/screener"
)

func newServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	universe, err := loader.Sample()
	require.NoError(t, err)
	engine, err := screener.New(universe)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	h := NewHandler(engine, nil, zap.NewNop())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, h
}

func postQuery(t *testing.T, url, session, q string) (int, QueryResponse) {
	t.Helper()
	body, err := json.Marshal(QueryRequest{Session: session, Q: q})
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/query", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out QueryResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestQueryThreadsSession(t *testing.T) {
	srv, h := newServer(t)

	status, first := postQuery(t, srv.URL, "", "stocks with PE < 15 and ROE > 20%")
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, first.Session)
	assert.Equal(t, query.TypeScreener, first.Type)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 1, h.Sessions.Len())

	status, second := postQuery(t, srv.URL, first.Session, "+1 exclude energy")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first.Session, second.Session)
	require.Len(t, second.Data, 1)
	assert.Equal(t, "VEDL", second.Data[0].Symbol)
}

func TestQueryErrors(t *testing.T) {
	srv, _ := newServer(t)

	status, _ := postQuery(t, srv.URL, "no-such-session", "help")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = postQuery(t, srv.URL, "", "   ")
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := http.Post(srv.URL+"/api/query", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHelpOverHTTP(t *testing.T) {
	srv, _ := newServer(t)
	status, out := postQuery(t, srv.URL, "", "help")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, query.TypeHelp, out.Type)
	assert.NotNil(t, out.Data)
	assert.Zero(t, out.Total)

	resp, err := http.Get(srv.URL + "/api/help")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	srv, h := newServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["session"]
	require.NotEmpty(t, id)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, h.Sessions.Len())

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchAndStock(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/search?q=infosys")
	require.NoError(t, err)
	var hits []models.Stock
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hits))
	resp.Body.Close()
	require.NotEmpty(t, hits)
	assert.Equal(t, "INFY", hits[0].Symbol)

	resp, err = http.Get(srv.URL + "/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/stock?symbol=tcs")
	require.NoError(t, err)
	var stock models.Stock
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stock))
	resp.Body.Close()
	assert.Equal(t, "TCS", stock.Symbol)
	assert.Equal(t, 30.1, stock.Metrics["pe"])

	resp, err = http.Get(srv.URL + "/api/stock?symbol=tcs&exchange=nse")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/stock?symbol=TCS&exchange=BSE")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "TCS is listed on NSE only")

	resp, err = http.Get(srv.URL + "/api/stock?symbol=NOPE")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionStoreSerializesAndEvicts(t *testing.T) {
	universe, err := loader.Sample()
	require.NoError(t, err)
	engine, err := screener.New(universe)
	require.NoError(t, err)
	defer engine.Close()

	store := NewSessionStore(engine, 2)
	a := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.With(a, func(s *screener.Session) {
				s.Query("stocks with pe < 20")
			}))
		}()
	}
	wg.Wait()
	require.NoError(t, store.With(a, func(s *screener.Session) {
		assert.Len(t, s.Context().History(), 8)
	}))

	store.Create()
	store.Create()
	assert.Equal(t, 2, store.Len())
	assert.ErrorIs(t, store.With(a, func(*screener.Session) {}), ErrSessionNotFound, "the least recently used session is evicted")
}
