package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

func TestNewWebApp_RequiresHTTPS(t *testing.T) {
	_, err := NewWebApp("", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewWebApp("http://script.google.com/macros/s/x/exec", nil)
	assert.ErrorIs(t, err, ErrInsecureURL)

	w, err := NewWebApp("https://script.google.com/macros/s/x/exec", nil)
	require.NoError(t, err)
	assert.Equal(t, "webapp", w.Name())
}

func TestWebApp_Load(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.URL.Query().Get("t"))
		_, _ = io.WriteString(w, `{
			"orders": [
				["o-1","",1736000000000,"B1","Ann","","077","Cream",250,2,0,"Taxi","TRUE",""],
				["","",1,"B1","ghost"]
			],
			"costs": [["B1",500,10,""]]
		}`)
	}))
	defer srv.Close()

	w, err := NewWebApp(srv.URL, srv.Client())
	require.NoError(t, err)

	snap, err := w.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "o-1", snap.Orders[0].ID)
	assert.Equal(t, orders.TransportTaxi, snap.Orders[0].TransportMode)
	assert.True(t, snap.Orders[0].IsFullPaymentReceived)
	require.Len(t, snap.BatchCosts, 1)
	assert.Nil(t, snap.BatchCosts[0].DeliveryFeeQuantity)
}

func TestWebApp_LoadStatusError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w, err := NewWebApp(srv.URL, srv.Client())
	require.NoError(t, err)
	_, err = w.Load(context.Background())
	assert.Error(t, err)
}

func TestWebApp_Save(t *testing.T) {
	var (
		mu  sync.Mutex
		got []webappAction
	)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "text/plain")
		var a webappAction
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		mu.Lock()
		got = append(got, a)
		mu.Unlock()
	}))
	defer srv.Close()

	w, err := NewWebApp(srv.URL, srv.Client())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.SaveOrders(ctx, []orders.Order{sampleOrder()}))
	require.NoError(t, w.SaveBatchCosts(ctx, []batches.Cost{{BatchName: "B1", TotalCostPrice: 500}}))

	require.Len(t, got, 2)
	assert.Equal(t, actionSyncOrders, got[0].Action)
	require.Len(t, got[0].Data, 1)
	assert.Len(t, got[0].Data[0], len(OrderHeader))
	assert.Equal(t, "o-1", got[0].Data[0][0])

	assert.Equal(t, actionSyncCosts, got[1].Action)
	assert.Equal(t, []any{"B1", 500.0, 0.0, ""}, got[1].Data[0])
}

func TestWorkbook_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	w, err := NewWorkbook(path)
	require.NoError(t, err)
	ctx := context.Background()

	// файла ещё нет
	snap, err := w.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Orders)

	o := sampleOrder()
	require.NoError(t, w.SaveOrders(ctx, []orders.Order{o}))
	costs := []batches.Cost{
		{BatchName: "B1", TotalCostPrice: 500, OatInputValue: 10},
		{BatchName: "B2", TotalCostPrice: 20, DeliveryFeeQuantity: batches.Qty(4)},
	}
	require.NoError(t, w.SaveBatchCosts(ctx, costs))

	snap, err = w.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Orders, 1, "saving costs must keep the orders sheet")
	assert.Equal(t, o, snap.Orders[0])
	require.Len(t, snap.BatchCosts, 2)
	assert.Nil(t, snap.BatchCosts[0].DeliveryFeeQuantity)
	require.NotNil(t, snap.BatchCosts[1].DeliveryFeeQuantity)
	assert.Equal(t, 4.0, *snap.BatchCosts[1].DeliveryFeeQuantity)
}

func TestNewWorkbook_Validates(t *testing.T) {
	_, err := NewWorkbook("")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewWorkbook("orders.csv")
	assert.Error(t, err)
}

func TestLocal_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir)
	ctx := context.Background()

	snap, err := l.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snap.Orders)
	assert.Empty(t, snap.Orders)

	snap.Orders = []orders.Order{sampleOrder()}
	snap.BatchCosts = []batches.Cost{{BatchName: "B1", DeliveryFeeQuantity: batches.Qty(2)}}
	require.NoError(t, l.Save(ctx, snap))

	assert.FileExists(t, filepath.Join(dir, LocalOrdersFile))
	assert.FileExists(t, filepath.Join(dir, LocalCostsFile))

	got, err := NewLocal(dir).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}
