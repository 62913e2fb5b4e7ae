package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/batchbook/internal/bridge"
	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/report"
	"github.com/Spok95/batchbook/internal/store"
	"github.com/Spok95/batchbook/internal/syncer"
)

type fakeSync struct {
	err     error
	synced  int
	refresh error
}

func (f *fakeSync) Status() syncer.Status {
	return syncer.Status{State: syncer.StateSynced, Remote: "fake"}
}

func (f *fakeSync) SyncNow(context.Context) error {
	f.synced++
	return f.err
}

func (f *fakeSync) Refresh(context.Context) error { return f.refresh }

const testToken = "s3cret"

func newTestMux(t *testing.T, fs *fakeSync) (*http.ServeMux, *store.Store) {
	t.Helper()
	st := store.New()
	st.Replace(store.Snapshot{
		Orders: []orders.Order{
			{ID: "1", BatchName: "B1", CustomerName: "Ann", PhoneNumber: "077", SellingPrice: 250, Quantity: 2, AdvancePaid: 100,
				CreatedAt: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC).UnixMilli()},
			{ID: "2", BatchName: "B1", CustomerName: "Bob", SellingPrice: 100, Quantity: 1, IsFullPaymentReceived: true,
				CreatedAt: time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC).UnixMilli()},
		},
		BatchCosts: []batches.Cost{{BatchName: "B1", TotalCostPrice: 300, OatInputValue: 1}},
	})
	api := NewAPI(slog.New(slog.NewTextHandler(io.Discard, nil)), st, report.New(batches.DefaultRates(), time.UTC), fs)
	return NewMux(Options{Token: testToken}, api.Register), st
}

func get(t *testing.T, mux http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	return call(t, mux, http.MethodGet, target)
}

func call(t *testing.T, mux http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t, &fakeSync{})
	rec := get(t, mux, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestStats(t *testing.T) {
	mux, _ := newTestMux(t, &fakeSync{})
	rec := get(t, mux, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var st report.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 2, st.TotalOrders)
	assert.Equal(t, 600.0, st.TotalRevenue)
	assert.Equal(t, 400.0, st.TotalOutstanding)
	assert.Equal(t, 3, st.TotalItems)
	// 300 + 1*28 + 3*100
	assert.Equal(t, 628.0, st.TotalExpenses)
	assert.Equal(t, -28.0, st.NetProfit)
}

func TestOrders_Filter(t *testing.T) {
	mux, _ := newTestMux(t, &fakeSync{})
	rec := get(t, mux, "/api/orders?status=pending")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ann", list[0].CustomerName)

	rec = get(t, mux, "/api/orders?search=nobody")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestBatchesAndMonths(t *testing.T) {
	mux, _ := newTestMux(t, &fakeSync{})

	var rows []report.Summary
	require.NoError(t, json.Unmarshal(get(t, mux, "/api/batches").Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "B1", rows[0].BatchName)
	assert.Equal(t, "2025-01", rows[0].MonthYear)

	require.NoError(t, json.Unmarshal(get(t, mux, "/api/months").Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, report.AllBatches, rows[0].BatchName)
}

func TestCustomers(t *testing.T) {
	mux, _ := newTestMux(t, &fakeSync{})
	var rows []report.CustomerTrend
	require.NoError(t, json.Unmarshal(get(t, mux, "/api/customers").Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Ann", rows[0].CustomerName)
}

func TestSync(t *testing.T) {
	fs := &fakeSync{}
	mux, _ := newTestMux(t, fs)

	rec := call(t, mux, http.MethodPost, "/api/sync")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fs.synced)

	fs.err = errors.New("down")
	rec = call(t, mux, http.MethodPost, "/api/sync")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "down")

	fs.refresh = bridge.ErrNotConfigured
	rec = call(t, mux, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = get(t, mux, "/api/sync")
	assert.Contains(t, rec.Body.String(), `"state":"synced"`)
}

func TestReportWorkbook(t *testing.T) {
	mux, _ := newTestMux(t, &fakeSync{})
	rec := get(t, mux, "/api/report.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Batches", "Months", "Customers"}, f.GetSheetList())
}

func TestAuth(t *testing.T) {
	fs := &fakeSync{}
	mux, _ := newTestMux(t, fs)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/orders"},
		{http.MethodPost, "/api/sync"},
		{http.MethodPost, "/api/refresh"},
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.target)

		req := httptest.NewRequest(tc.method, tc.target, nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.target)
	}
	assert.Zero(t, fs.synced)

	// токен в query: так приходят ссылки оплаты из бота
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats?token="+testToken, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// health открыт
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNoToken_RoutesNotMounted(t *testing.T) {
	st := store.New()
	api := NewAPI(slog.New(slog.NewTextHandler(io.Discard, nil)), st, report.New(batches.DefaultRates(), time.UTC), &fakeSync{})
	mux := NewMux(Options{}, api.Register)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
