package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/batchbook/internal/bridge"
	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

type fakeRemote struct {
	mu        sync.Mutex
	snap      store.Snapshot
	loadErr   error
	saveErr   error
	saves     int
	lastSaved []orders.Order
	block     chan struct{}
	waiting   int
	echo      bool // сохранённое сразу видно в Load, как у настоящего хранилища
}

func (f *fakeRemote) Name() string { return "fake" }

func (f *fakeRemote) Load(context.Context) (store.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.loadErr
}

func (f *fakeRemote) SaveOrders(ctx context.Context, list []orders.Order) error {
	f.mu.Lock()
	block := f.block
	if block != nil {
		f.waiting++
	}
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.lastSaved = list
	if f.echo {
		f.snap.Orders = list
	}
	return nil
}

func (f *fakeRemote) SaveBatchCosts(context.Context, []batches.Cost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveErr
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func testLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func input(customer string) orders.Input {
	return orders.Input{
		BatchName:     "B1",
		CustomerName:  customer,
		SellingPrice:  100,
		Quantity:      1,
		TransportMode: orders.DefaultTransport,
	}
}

func newSyncer(t *testing.T, remote bridge.Remote) (*Syncer, *store.Store, *bridge.Local) {
	t.Helper()
	st := store.New()
	local := bridge.NewLocal(t.TempDir())
	s := New(testLog(), st, remote, local, Options{Debounce: 30 * time.Millisecond, RetryDelay: time.Millisecond})
	st.OnChange(s.Schedule)
	t.Cleanup(s.Stop)
	return s, st, local
}

func TestLoad_FromRemote(t *testing.T) {
	remote := &fakeRemote{snap: store.Snapshot{Orders: []orders.Order{{ID: "a", BatchName: "B1"}}}}
	s, st, local := newSyncer(t, remote)

	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, st.Orders(), 1)
	assert.Equal(t, StateSynced, s.Status().State)

	// локальная копия обновлена
	snap, err := local.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Orders, 1)
}

func TestLoad_FallsBackToLocal(t *testing.T) {
	remote := &fakeRemote{loadErr: errors.New("blocked")}
	s, st, local := newSyncer(t, remote)

	require.NoError(t, local.Save(context.Background(), store.Snapshot{
		Orders: []orders.Order{{ID: "x"}, {ID: "y"}},
	}))

	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, st.Orders(), 2)
	assert.Equal(t, StateLocal, s.Status().State)
}

func TestSchedule_CollapsesBurst(t *testing.T) {
	remote := &fakeRemote{}
	s, st, _ := newSyncer(t, remote)

	for i := 0; i < 5; i++ {
		st.CreateOrders(input("c"))
	}
	assert.Equal(t, StatePending, s.Status().State)

	require.Eventually(t, func() bool { return s.Status().State == StateSynced }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, remote.saveCount())
	assert.Len(t, remote.lastSaved, 5)
	assert.False(t, s.Status().Dirty)
}

func TestPush_FailureLeavesPending(t *testing.T) {
	remote := &fakeRemote{saveErr: errors.New("503")}
	s, st, local := newSyncer(t, remote)

	st.CreateOrders(input("c"))
	err := s.Flush(context.Background())
	require.Error(t, err)

	status := s.Status()
	assert.Equal(t, StatePending, status.State)
	assert.Equal(t, "503", status.LastError)
	assert.True(t, status.Dirty)

	// локальная копия пишется и при ошибке хранилища
	snap, err := local.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Orders, 1)
}

func TestPush_NewerPushSupersedesOlder(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{})}
	s, st, _ := newSyncer(t, remote)
	st.CreateOrders(input("first"))

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.SyncNow(context.Background()) }()

	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.waiting == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, StateSyncing, s.Status().State)

	// вторая отправка отменяет первую
	remote.mu.Lock()
	remote.block = nil
	remote.mu.Unlock()
	st.CreateOrders(input("second"))
	require.NoError(t, s.SyncNow(context.Background()))

	assert.NoError(t, <-firstDone, "stale push result is dropped")
	assert.Equal(t, StateSynced, s.Status().State)
	assert.Empty(t, s.Status().LastError)
	assert.Len(t, remote.lastSaved, 2)
}

func TestFlush_NothingPending(t *testing.T) {
	remote := &fakeRemote{}
	s, _, _ := newSyncer(t, remote)

	require.NoError(t, s.Flush(context.Background()))
	assert.Zero(t, remote.saveCount())
}

func TestLocalOnly(t *testing.T) {
	s, st, local := newSyncer(t, nil)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, StateLocal, s.Status().State)
	assert.Equal(t, "local", s.Status().Remote)

	st.CreateOrders(input("c"))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, StateLocal, s.Status().State)

	snap, err := local.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Orders, 1)

	assert.ErrorIs(t, s.Refresh(context.Background()), bridge.ErrNotConfigured)
}

func TestRefresh_KeepsStateOnError(t *testing.T) {
	remote := &fakeRemote{}
	s, st, _ := newSyncer(t, remote)
	st.Replace(store.Snapshot{Orders: []orders.Order{{ID: "keep"}}})

	remote.loadErr = errors.New("offline")
	require.Error(t, s.Refresh(context.Background()))
	assert.Len(t, st.Orders(), 1)

	remote.loadErr = nil
	remote.snap = store.Snapshot{Orders: []orders.Order{{ID: "a"}, {ID: "b"}}}
	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, st.Orders(), 2)
}

func TestRefresh_WaitsForRunningPush(t *testing.T) {
	release := make(chan struct{})
	remote := &fakeRemote{block: release, echo: true}
	s, st, _ := newSyncer(t, remote)

	st.CreateOrders(input("alice"))
	// отправка по таймеру висит внутри SaveOrders
	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.waiting == 1
	}, time.Second, time.Millisecond)

	refreshed := make(chan error, 1)
	go func() { refreshed <- s.Refresh(context.Background()) }()

	select {
	case err := <-refreshed:
		t.Fatalf("refresh returned before the running push finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-refreshed)
	require.Len(t, st.Orders(), 1)
	assert.Equal(t, "alice", st.Orders()[0].CustomerName)

	st.CreateOrders(input("bob"))
	require.NoError(t, s.Flush(context.Background()))

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Len(t, remote.lastSaved, 2)
}

func TestRefresh_SkipsReplaceWhenStoreChanged(t *testing.T) {
	remote := &fakeRemote{}
	s, st, _ := newSyncer(t, remote)

	// Load вызывает мутацию, как если бы бот сохранил заказ посреди обновления
	remote.snap = store.Snapshot{Orders: []orders.Order{{ID: "remote"}}}
	hooked := &hookRemote{fakeRemote: remote, onLoad: func() { st.CreateOrders(input("late")) }}
	s.remote = hooked

	assert.ErrorIs(t, s.Refresh(context.Background()), ErrChanged)
	require.Len(t, st.Orders(), 1)
	assert.Equal(t, "late", st.Orders()[0].CustomerName)
}

type hookRemote struct {
	*fakeRemote
	onLoad func()
}

func (h *hookRemote) Load(ctx context.Context) (store.Snapshot, error) {
	h.onLoad()
	return h.fakeRemote.Load(ctx)
}

func TestLoad_CorruptLocalCopy(t *testing.T) {
	remote := &fakeRemote{loadErr: errors.New("offline")}
	st := store.New()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, bridge.LocalOrdersFile), []byte("{broken"), 0o644))
	s := New(testLog(), st, remote, bridge.NewLocal(dir), Options{Debounce: time.Hour})
	t.Cleanup(s.Stop)

	require.Error(t, s.Load(context.Background()))
	assert.Empty(t, st.Orders())
	status := s.Status()
	assert.Equal(t, StateLocal, status.State)
	assert.NotEmpty(t, status.LastError)

	// работа продолжается с пустым store
	st.OnChange(s.Schedule)
	st.CreateOrders(input("c"))
	assert.Len(t, st.Orders(), 1)
}
