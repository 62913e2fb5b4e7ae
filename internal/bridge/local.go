package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

const (
	LocalOrdersFile = "nn_orders.json"
	LocalCostsFile  = "nn_costs.json"
)

// Local резервная копия на диске: два json-файла в каталоге.
// Пишется при каждой синхронизации, читается, когда основное хранилище недоступно.
type Local struct {
	dir string
	mu  sync.Mutex
}

func NewLocal(dir string) *Local {
	if dir == "" {
		dir = "."
	}
	return &Local{dir: dir}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Load(_ context.Context) (store.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := emptySnapshot()
	if err := l.readJSON(LocalOrdersFile, &snap.Orders); err != nil {
		return store.Snapshot{}, err
	}
	if err := l.readJSON(LocalCostsFile, &snap.BatchCosts); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

func (l *Local) SaveOrders(_ context.Context, list []orders.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if list == nil {
		list = []orders.Order{}
	}
	return l.writeJSON(LocalOrdersFile, list)
}

func (l *Local) SaveBatchCosts(_ context.Context, list []batches.Cost) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if list == nil {
		list = []batches.Cost{}
	}
	return l.writeJSON(LocalCostsFile, list)
}

// Save обе коллекции разом.
func (l *Local) Save(ctx context.Context, snap store.Snapshot) error {
	if err := l.SaveOrders(ctx, snap.Orders); err != nil {
		return err
	}
	return l.SaveBatchCosts(ctx, snap.BatchCosts)
}

func (l *Local) readJSON(name string, v any) error {
	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bridge: decode %s: %w", name, err)
	}
	return nil
}

func (l *Local) writeJSON(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(l.dir, "."+name+"-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(l.dir, name))
}
