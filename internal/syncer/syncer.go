// Package syncer переносит состояние store во внешнее хранилище.
// Мутации копятся и уходят одним пакетом после паузы (debounce), каждая отправка
// перезаписывает удалённые коллекции целиком. Локальная копия пишется всегда.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/Spok95/batchbook/internal/bridge"
	"github.com/Spok95/batchbook/internal/store"
)

// ErrChanged во время Refresh в store появились новые изменения; загруженное не применяется.
var ErrChanged = errors.New("syncer: local changes arrived during refresh")

type State string

const (
	StateSynced  State = "synced"
	StateSyncing State = "syncing"
	StatePending State = "pending" // есть неотправленные изменения или последняя отправка упала
	StateLocal   State = "local"   // работаем только с локальной копией
)

const DefaultDebounce = 2 * time.Second

type Options struct {
	Debounce   time.Duration
	Retries    uint64
	RetryDelay time.Duration
}

// Status снимок для /status и /api/sync.
type Status struct {
	State     State     `json:"state"`
	Remote    string    `json:"remote"`
	LastSync  time.Time `json:"lastSync"`
	LastError string    `json:"lastError,omitempty"`
	Dirty     bool      `json:"dirty"`
}

type Syncer struct {
	log    *slog.Logger
	store  *store.Store
	remote bridge.Remote // nil -> только локальная копия
	local  *bridge.Local
	opts   Options

	mu       sync.Mutex
	timer    *time.Timer
	cancel   context.CancelFunc
	inflight chan struct{} // закрывается, когда текущая отправка завершилась
	seq      uint64
	state    State
	dirty    bool
	lastSync time.Time
	lastErr  error
}

func New(log *slog.Logger, st *store.Store, remote bridge.Remote, local *bridge.Local, opts Options) *Syncer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	state := StateSynced
	if remote == nil {
		state = StateLocal
	}
	return &Syncer{log: log, store: st, remote: remote, local: local, opts: opts, state: state}
}

func (s *Syncer) remoteName() string {
	if s.remote == nil {
		return s.local.Name()
	}
	return s.remote.Name()
}

// Load первичная загрузка. Недоступное хранилище не считается ошибкой, берём локальную копию
// и переходим в локальный режим. Если не читается и она, store остаётся пустым,
// ошибка возвращается только для лога.
func (s *Syncer) Load(ctx context.Context) error {
	if s.remote != nil {
		snap, err := s.remote.Load(ctx)
		if err == nil {
			s.store.Replace(snap)
			s.saveLocal(ctx, snap)
			s.setState(StateSynced, nil, true)
			s.log.Info("data loaded", "remote", s.remote.Name(),
				"orders", len(snap.Orders), "batch_costs", len(snap.BatchCosts))
			return nil
		}
		s.log.Warn("remote load failed, falling back to local copy", "remote", s.remote.Name(), "err", err)
	}

	snap, err := s.local.Load(ctx)
	if err != nil {
		s.store.Replace(store.Snapshot{})
		s.setState(StateLocal, err, false)
		return fmt.Errorf("syncer: local copy: %w", err)
	}
	s.store.Replace(snap)
	s.setState(StateLocal, nil, false)
	s.log.Info("data loaded", "remote", s.local.Name(),
		"orders", len(snap.Orders), "batch_costs", len(snap.BatchCosts))
	return nil
}

// Refresh перечитывает хранилище. Неотправленное и уже летящее сначала доезжает до хранилища,
// при ошибке состояние в памяти не трогаем. Мутация во время Refresh отменяет подмену (ErrChanged).
func (s *Syncer) Refresh(ctx context.Context) error {
	if s.remote == nil {
		return bridge.ErrNotConfigured
	}
	rev := s.store.Revision()
	if err := s.Flush(ctx); err != nil {
		return err
	}
	snap, err := s.remote.Load(ctx)
	if err != nil {
		s.log.Warn("refresh failed", "remote", s.remote.Name(), "err", err)
		return err
	}
	if !s.store.ReplaceIf(snap, rev) {
		s.log.Info("refresh skipped, store changed meanwhile", "remote", s.remote.Name())
		return ErrChanged
	}
	s.saveLocal(ctx, snap)
	s.setState(StateSynced, nil, true)
	return nil
}

// Schedule вызывается на каждую мутацию store; серия мутаций даёт одну отправку.
func (s *Syncer) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
	if s.state != StateSyncing {
		s.state = StatePending
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() {
		_ = s.push(context.Background())
	})
}

// Flush дожидается текущей отправки и отправляет немедленно, если ещё есть что отправлять
// (остановка, Refresh).
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	inflight := s.inflight
	s.mu.Unlock()

	if inflight != nil {
		select {
		case <-inflight:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.push(ctx)
}

// SyncNow отправить текущее состояние без ожидания.
func (s *Syncer) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.push(ctx)
}

// push отменяет предыдущую незавершённую отправку; результат устаревшей отправки
// (seq не совпал) в состояние не попадает.
func (s *Syncer) push(parent context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	done := make(chan struct{})
	s.inflight = done
	s.dirty = false
	if s.remote != nil {
		s.state = StateSyncing
	}
	s.mu.Unlock()
	defer cancel()
	defer close(done)

	snap := s.store.Snapshot()

	syncInFlight.Inc()
	defer syncInFlight.Dec()
	start := time.Now()

	s.saveLocal(ctx, snap)

	if s.remote == nil {
		s.finish(seq, nil)
		syncTotal.WithLabelValues("local").Inc()
		return nil
	}

	err := s.save(ctx, snap)
	syncDuration.Observe(time.Since(start).Seconds())

	if !s.finish(seq, err) {
		syncTotal.WithLabelValues("stale").Inc()
		s.log.Debug("stale sync result dropped", "seq", seq)
		return nil
	}
	if err != nil {
		syncTotal.WithLabelValues("error").Inc()
		s.log.Error("sync failed", "remote", s.remote.Name(), "err", err)
		return err
	}
	syncTotal.WithLabelValues("ok").Inc()
	s.log.Debug("synced", "remote", s.remote.Name(),
		"orders", len(snap.Orders), "batch_costs", len(snap.BatchCosts))
	return nil
}

// save обе коллекции параллельно, временные ошибки повторяются.
func (s *Syncer) save(ctx context.Context, snap store.Snapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.remote.SaveOrders(ctx, snap.Orders)
		})
	})
	g.Go(func() error {
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.remote.SaveBatchCosts(ctx, snap.BatchCosts)
		})
	})
	return g.Wait()
}

func (s *Syncer) withRetry(ctx context.Context, fn func(context.Context) error) error {
	b := retry.WithMaxRetries(s.opts.Retries, retry.NewExponential(s.opts.RetryDelay))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// finish false: отправку уже вытеснила более новая.
func (s *Syncer) finish(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.cancel = nil
	s.inflight = nil
	switch {
	case s.remote == nil:
		s.state = StateLocal
		s.lastSync = time.Now()
	case err != nil:
		s.state = StatePending
		s.lastErr = err
		s.dirty = true
	case s.dirty:
		// пока шла отправка, пришли новые изменения, таймер уже взведён
		s.state = StatePending
		s.lastErr = nil
		s.lastSync = time.Now()
	default:
		s.state = StateSynced
		s.lastErr = nil
		s.lastSync = time.Now()
	}
	return true
}

func (s *Syncer) saveLocal(ctx context.Context, snap store.Snapshot) {
	if err := s.local.Save(ctx, snap); err != nil {
		s.log.Error("local copy write failed", "err", err)
	}
}

func (s *Syncer) setState(st State, err error, synced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.lastErr = err
	if synced {
		s.lastSync = time.Now()
	}
}

func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:    s.state,
		Remote:   s.remoteName(),
		LastSync: s.lastSync,
		Dirty:    s.dirty,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Stop гасит таймер и отменяет текущую отправку, не дожидаясь её.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
