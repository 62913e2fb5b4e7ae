package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo состояния диалогов в таблице dialog_states.
type Repo struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewRepo ttl <= 0: состояние живёт, пока его не сбросят.
func NewRepo(pool *pgxpool.Pool, ttl time.Duration) *Repo { return &Repo{pool: pool, ttl: ttl} }

func (r *Repo) Get(ctx context.Context, chatID int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT state, payload, updated_at FROM dialog_states WHERE chat_id = $1`, chatID)
	var (
		state   string
		raw     []byte
		updated time.Time
	)
	if err := row.Scan(&state, &raw, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return idle(chatID), nil
		}
		return nil, fmt.Errorf("dialog: load state: %w", err)
	}
	if expired(updated, r.ttl, time.Now()) {
		return idle(chatID), nil
	}
	p := Payload{}
	_ = json.Unmarshal(raw, &p)
	return &Item{ChatID: chatID, State: State(state), Payload: p}, nil
}

func (r *Repo) Set(ctx context.Context, chatID int64, state State, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dialog: encode payload: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO dialog_states (chat_id, state, payload, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (chat_id) DO UPDATE SET
		  state = EXCLUDED.state, payload = EXCLUDED.payload, updated_at = now()
	`, chatID, string(state), raw)
	return err
}

func (r *Repo) Reset(ctx context.Context, chatID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM dialog_states WHERE chat_id = $1`, chatID)
	return err
}

func idle(chatID int64) *Item {
	return &Item{ChatID: chatID, State: StateIdle, Payload: Payload{}}
}

func expired(updated time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(updated) > ttl
}

// GetString безопасное чтение строки из payload
func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
