package dialog

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemRepo состояния в памяти процесса, когда Postgres не подключён.
// Payload проходит через JSON, как и в Repo, чтобы числа всегда были float64.
type MemRepo struct {
	mu    sync.Mutex
	items map[int64]memItem
	ttl   time.Duration
	now   func() time.Time
}

type memItem struct {
	state   State
	raw     []byte
	updated time.Time
}

func NewMemRepo(ttl time.Duration) *MemRepo {
	return &MemRepo{items: map[int64]memItem{}, ttl: ttl, now: time.Now}
}

func (r *MemRepo) Get(_ context.Context, chatID int64) (*Item, error) {
	r.mu.Lock()
	it, ok := r.items[chatID]
	if ok && expired(it.updated, r.ttl, r.now()) {
		delete(r.items, chatID)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return idle(chatID), nil
	}
	p := Payload{}
	_ = json.Unmarshal(it.raw, &p)
	return &Item{ChatID: chatID, State: it.state, Payload: p}, nil
}

func (r *MemRepo) Set(_ context.Context, chatID int64, state State, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.items[chatID] = memItem{state: state, raw: raw, updated: r.now()}
	r.mu.Unlock()
	return nil
}

func (r *MemRepo) Reset(_ context.Context, chatID int64) error {
	r.mu.Lock()
	delete(r.items, chatID)
	r.mu.Unlock()
	return nil
}
