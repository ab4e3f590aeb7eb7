package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mhobbs/tradelog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTrade(t *testing.T, srv *Server, body interface{}) map[string]interface{} {
	t.Helper()
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.handleTradesRoot(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleTradeCreate_Success(t *testing.T) {
	srv := newTestServer(t)

	resp := createTrade(t, srv, map[string]interface{}{
		"symbol":    "AAPL.US",
		"name":      "Apple Inc",
		"buy_price": 150.25,
		"shares":    10,
		"bought_at": "2025-03-10",
	})

	assert.Contains(t, resp["id"].(string), "td_")
	assert.Equal(t, "open", resp["status"])
	assert.Nil(t, resp["profit"])
	assert.Equal(t, 150.25, resp["buy_price"])
	// Sparkline fetched from the market client when absent
	assert.Len(t, resp["sparkline"].([]interface{}), 3)
}

func TestHandleTradeCreate_StringAmounts(t *testing.T) {
	srv := newTestServer(t)

	resp := createTrade(t, srv, map[string]interface{}{
		"symbol":    "MSFT.US",
		"buy_price": "150.50",
		"shares":    "2.5",
	})

	assert.Equal(t, 150.50, resp["buy_price"])
	assert.Equal(t, 2.5, resp["shares"])
}

func TestHandleTradeCreate_NameDefaultsToSymbol(t *testing.T) {
	srv := newTestServer(t)

	resp := createTrade(t, srv, map[string]interface{}{
		"symbol":    "VOO.US",
		"buy_price": 400,
		"shares":    1,
	})

	assert.Equal(t, "VOO.US", resp["name"])
}

func TestHandleTradeCreate_ClosedWithProfit(t *testing.T) {
	srv := newTestServer(t)

	resp := createTrade(t, srv, map[string]interface{}{
		"symbol":     "TSLA.US",
		"buy_price":  100,
		"sell_price": 110,
		"shares":     5,
		"bought_at":  "2025-01-02",
		"sold_at":    "2025-02-02",
	})

	assert.Equal(t, "closed", resp["status"])
	assert.Equal(t, 50.0, resp["profit"])
}

func TestHandleTradeCreate_ValidationFailures(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing symbol", map[string]interface{}{"buy_price": 10, "shares": 1}},
		{"missing buy price", map[string]interface{}{"symbol": "X", "shares": 1}},
		{"too many decimals", map[string]interface{}{"symbol": "X", "buy_price": "10.555", "shares": 1}},
		{"negative price", map[string]interface{}{"symbol": "X", "buy_price": -5, "shares": 1}},
		{"exponent price", map[string]interface{}{"symbol": "X", "buy_price": "1e3", "shares": 1}},
		{"zero shares", map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 0}},
		{"negative shares", map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": "-2"}},
		{"sold date without sell price", map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 1, "sold_at": "2025-02-02"}},
		{"sell price without sold date", map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 1, "sell_price": 12}},
		{"zero leverage", map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 1, "leverage": 0}},
		{"bad date", map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 1, "bought_at": "not-a-date"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(t, tc.body)))
			rec := httptest.NewRecorder()
			srv.handleTradesRoot(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleTradeCreate_AuthGate(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 1}

	// No identity
	req := httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(t, body))
	rec := httptest.NewRecorder()
	srv.handleTradesRoot(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong role
	req = asRole(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(t, body)), "viewer")
	rec = httptest.NewRecorder()
	srv.handleTradesRoot(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleTradeCreate_Bulk(t *testing.T) {
	srv := newTestServer(t)

	body := []map[string]interface{}{
		{"symbol": "AAPL.US", "buy_price": 10, "shares": 1},
		{"symbol": "MSFT.US", "buy_price": 20, "shares": 2},
	}
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.handleTradesRoot(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(2), resp["created"])
	assert.Len(t, resp["ids"].([]interface{}), 2)
}

func TestHandleTradeCreate_BulkOneInvalidCreatesNothing(t *testing.T) {
	srv := newTestServer(t)

	body := []map[string]interface{}{
		{"symbol": "AAPL.US", "buy_price": 10, "shares": 1},
		{"symbol": "BAD", "buy_price": "10.999", "shares": 1},
	}
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.handleTradesRoot(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "trade 1")

	listRec := httptest.NewRecorder()
	srv.handleTradesRoot(listRec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	var list map[string]interface{}
	require.NoError(t, json.NewDecoder(listRec.Body).Decode(&list))
	assert.Equal(t, float64(0), list["total"])
}

func TestHandleTradeCreate_SparklineDegradesOnFetchError(t *testing.T) {
	srv := newTestServer(t)
	srv.app.MarketData = &fakeMarketClient{err: context.DeadlineExceeded}

	resp := createTrade(t, srv, map[string]interface{}{
		"symbol": "AAPL.US", "buy_price": 10, "shares": 1,
	})
	assert.Len(t, resp["sparkline"].([]interface{}), 0)
}

func TestHandleTradeList_FiltersAndPaging(t *testing.T) {
	srv := newTestServer(t)

	createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "name": "Apple", "buy_price": 10, "shares": 1})
	createTrade(t, srv, map[string]interface{}{"symbol": "MSFT.US", "name": "Microsoft", "buy_price": 10, "shares": 2})
	createTrade(t, srv, map[string]interface{}{
		"symbol": "TSLA.US", "buy_price": 100, "sell_price": 150, "shares": 3, "sold_at": "2025-02-02",
	})

	do := func(query string) map[string]interface{} {
		rec := httptest.NewRecorder()
		srv.handleTradesRoot(rec, httptest.NewRequest(http.MethodGet, "/api/trades"+query, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		return resp
	}

	resp := do("")
	assert.Equal(t, float64(3), resp["total"])
	assert.Equal(t, float64(1), resp["page"])
	assert.Equal(t, float64(20), resp["page_size"])

	resp = do("?q=apple")
	assert.Equal(t, float64(1), resp["total"])

	resp = do("?status=closed")
	assert.Equal(t, float64(1), resp["total"])
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "TSLA.US", items[0].(map[string]interface{})["symbol"])

	resp = do("?page=2&page_size=2")
	assert.Equal(t, float64(3), resp["total"])
	assert.Len(t, resp["items"].([]interface{}), 1)
}

func TestHandleTradeList_InvalidStatusAndSort(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleTradesRoot(rec, httptest.NewRequest(http.MethodGet, "/api/trades?status=weird", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleTradesRoot(rec, httptest.NewRequest(http.MethodGet, "/api/trades?sort=alphabetical", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTradeList_SortByProfit(t *testing.T) {
	srv := newTestServer(t)

	createTrade(t, srv, map[string]interface{}{
		"symbol": "LOW", "buy_price": 100, "sell_price": 101, "shares": 1, "sold_at": "2025-02-02",
	})
	createTrade(t, srv, map[string]interface{}{
		"symbol": "HIGH", "buy_price": 100, "sell_price": 200, "shares": 1, "sold_at": "2025-02-02",
	})
	createTrade(t, srv, map[string]interface{}{"symbol": "OPEN", "buy_price": 100, "shares": 1})

	rec := httptest.NewRecorder()
	srv.handleTradesRoot(rec, httptest.NewRequest(http.MethodGet, "/api/trades?sort=profit", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	items := resp["items"].([]interface{})
	require.Len(t, items, 3)
	assert.Equal(t, "HIGH", items[0].(map[string]interface{})["symbol"])
	assert.Equal(t, "LOW", items[1].(map[string]interface{})["symbol"])
	// Open trades have no profit and sort last
	assert.Equal(t, "OPEN", items[2].(map[string]interface{})["symbol"])
}

func TestHandleTradeGet(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 10, "shares": 1})
	id := created["id"].(string)

	rec := httptest.NewRecorder()
	srv.routeTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, id, resp["id"])

	rec = httptest.NewRecorder()
	srv.routeTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades/td_00000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTradeUpdate(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 100, "shares": 10})
	id := created["id"].(string)

	body := map[string]interface{}{
		"symbol": "AAPL.US", "buy_price": 100, "sell_price": 120, "shares": 10, "sold_at": "2025-06-01",
	}
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/api/trades/"+id, jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.routeTrades(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	getRec := httptest.NewRecorder()
	srv.routeTrades(getRec, httptest.NewRequest(http.MethodGet, "/api/trades/"+id, nil))
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&got))
	assert.Equal(t, "closed", got["status"])
	assert.Equal(t, 200.0, got["profit"])
}

func TestHandleTradeUpdate_SymbolNotRequired(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 100, "shares": 10})
	id := created["id"].(string)

	// Price and share fields only; the symbol is fixed at creation
	body := map[string]interface{}{"buy_price": 150, "shares": 10}
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/api/trades/"+id, jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.routeTrades(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	getRec := httptest.NewRecorder()
	srv.routeTrades(getRec, httptest.NewRequest(http.MethodGet, "/api/trades/"+id, nil))
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&got))
	assert.Equal(t, "AAPL.US", got["symbol"])
	assert.Equal(t, 150.0, got["buy_price"])
	assert.Equal(t, "open", got["status"])
}

func TestHandleTradeUpdate_NotFound(t *testing.T) {
	srv := newTestServer(t)

	body := map[string]interface{}{"symbol": "X", "buy_price": 10, "shares": 1}
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/api/trades/td_00000000", jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.routeTrades(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTradeDelete(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 10, "shares": 1})
	id := created["id"].(string)

	req := asAdmin(httptest.NewRequest(http.MethodDelete, "/api/trades/"+id, nil))
	rec := httptest.NewRecorder()
	srv.routeTrades(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = asAdmin(httptest.NewRequest(http.MethodDelete, "/api/trades/"+id, nil))
	rec = httptest.NewRecorder()
	srv.routeTrades(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTradeBulkDelete(t *testing.T) {
	srv := newTestServer(t)

	ids := make([]string, 0, 3)
	for _, sym := range []string{"A", "B", "C"} {
		created := createTrade(t, srv, map[string]interface{}{"symbol": sym, "buy_price": 10, "shares": 1})
		ids = append(ids, created["id"].(string))
	}

	body := map[string]interface{}{
		"ids": []string{ids[0], ids[1], "garbage", "td_00000000"},
	}
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades/bulk-delete", jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.handleTradeBulkDelete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(2), resp["deleted_count"])
	assert.Equal(t, float64(4), resp["requested"])
	// Well-formed ids: the two real ones plus td_00000000
	assert.Equal(t, float64(3), resp["processed"])
}

func TestHandleTradeBulkDelete_EmptyIDs(t *testing.T) {
	srv := newTestServer(t)

	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades/bulk-delete", jsonBody(t, map[string]interface{}{"ids": []string{}})))
	rec := httptest.NewRecorder()
	srv.handleTradeBulkDelete(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTradeBulkDelete_AllInvalidIDs(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 10, "shares": 1})

	body := map[string]interface{}{"ids": []string{"garbage", "td_NOTHEX99"}}
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/trades/bulk-delete", jsonBody(t, body)))
	rec := httptest.NewRecorder()
	srv.handleTradeBulkDelete(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was deleted
	getRec := httptest.NewRecorder()
	srv.routeTrades(getRec, httptest.NewRequest(http.MethodGet, "/api/trades/"+created["id"].(string), nil))
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestHandleTradeSparklinePNG(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 10, "shares": 1})
	id := created["id"].(string)

	rec := httptest.NewRecorder()
	srv.routeTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades/"+id+"/sparkline.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// PNG magic bytes
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestHandleTradeSparklinePNG_NoData(t *testing.T) {
	srv := newTestServer(t)
	srv.app.MarketData = nil // created trades get an empty sparkline

	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 10, "shares": 1})
	id := created["id"].(string)

	rec := httptest.NewRecorder()
	srv.routeTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades/"+id+"/sparkline.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.routeTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades/td_00000000/sparkline.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTradeIDsAreWellFormed(t *testing.T) {
	srv := newTestServer(t)
	created := createTrade(t, srv, map[string]interface{}{"symbol": "AAPL.US", "buy_price": 10, "shares": 1})
	assert.True(t, models.ValidTradeID(created["id"].(string)))
}
