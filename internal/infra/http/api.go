package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Spok95/batchbook/internal/bridge"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/report"
	"github.com/Spok95/batchbook/internal/store"
	"github.com/Spok95/batchbook/internal/syncer"
)

// Syncer то, что API нужно от синхронизации.
type Syncer interface {
	Status() syncer.Status
	SyncNow(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// API только чтение отчётов плюс ручной запуск синхронизации.
type API struct {
	log    *slog.Logger
	store  *store.Store
	engine *report.Engine
	sync   Syncer
	title  string
	now    func() time.Time
}

func NewAPI(log *slog.Logger, st *store.Store, engine *report.Engine, sync Syncer) *API {
	return &API{log: log, store: st, engine: engine, sync: sync, title: "Batchbook", now: time.Now}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders", a.handleOrders)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	mux.HandleFunc("GET /api/batches", a.handleBatches)
	mux.HandleFunc("GET /api/months", a.handleMonths)
	mux.HandleFunc("GET /api/customers", a.handleCustomers)
	mux.HandleFunc("GET /api/sync", a.handleSyncStatus)
	mux.HandleFunc("POST /api/sync", a.handleSyncNow)
	mux.HandleFunc("POST /api/refresh", a.handleRefresh)
	mux.HandleFunc("GET /api/report.xlsx", a.handleWorkbook)
}

// filterFrom ?search=&batch=&status=all|paid|pending
func filterFrom(r *http.Request) orders.Filter {
	q := r.URL.Query()
	return orders.Filter{
		Search: q.Get("search"),
		Batch:  q.Get("batch"),
		Status: orders.PaymentStatus(q.Get("status")),
	}
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	list := filterFrom(r).Apply(a.store.Orders())
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	list := filterFrom(r).Apply(a.store.Orders())
	writeJSON(w, http.StatusOK, a.engine.Stats(list, a.store.BatchCosts()))
}

func (a *API) handleBatches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(a.engine.Batches(a.store.Orders(), a.store.BatchCosts())))
}

func (a *API) handleMonths(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(a.engine.Months(a.store.Orders(), a.store.BatchCosts())))
}

func (a *API) handleCustomers(w http.ResponseWriter, _ *http.Request) {
	list := a.engine.Customers(a.store.Orders(), a.store.BatchCosts())
	if list == nil {
		list = []report.CustomerTrend{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.sync.Status())
}

func (a *API) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	if err := a.sync.SyncNow(r.Context()); err != nil {
		a.log.Error("manual sync failed", "err", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Status: a.sync.Status()})
		return
	}
	writeJSON(w, http.StatusOK, a.sync.Status())
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := a.sync.Refresh(r.Context()); err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, bridge.ErrNotConfigured) || errors.Is(err, syncer.ErrChanged) {
			code = http.StatusConflict
		}
		writeJSON(w, code, errorBody{Error: err.Error(), Status: a.sync.Status()})
		return
	}
	writeJSON(w, http.StatusOK, a.sync.Status())
}

func (a *API) handleWorkbook(w http.ResponseWriter, _ *http.Request) {
	now := a.now()
	wb := a.engine.BuildWorkbook(a.title, a.store.Orders(), a.store.BatchCosts(), now)

	var buf bytes.Buffer
	if err := a.engine.WriteWorkbook(&buf, wb); err != nil {
		a.log.Error("report workbook failed", "err", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="report_`+now.Format("20060102_1504")+`.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

type errorBody struct {
	Error  string        `json:"error"`
	Status syncer.Status `json:"status"`
}

func nonNil(list []report.Summary) []report.Summary {
	if list == nil {
		return []report.Summary{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
