package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

const (
	actionSyncOrders = "syncOrders"
	actionSyncCosts  = "syncCosts"
)

// WebApp таблица за Apps Script веб-приложением.
// GET отдаёт {"orders": [[...]], "costs": [[...]]}, POST принимает {"action", "data"}.
type WebApp struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewWebApp(rawURL string, client *http.Client) (*WebApp, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("bridge: parse webapp url: %w", err)
	}
	if u.Scheme != "https" {
		return nil, ErrInsecureURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebApp{url: rawURL, client: client, now: time.Now}, nil
}

func (w *WebApp) Name() string { return "webapp" }

type webappPayload struct {
	Orders [][]any `json:"orders"`
	Costs  [][]any `json:"costs"`
}

type webappAction struct {
	Action string  `json:"action"`
	Data   [][]any `json:"data"`
}

// Load t=<ms> в запросе, чтобы обойти кеш на стороне Google.
func (w *WebApp) Load(ctx context.Context) (store.Snapshot, error) {
	u, _ := url.Parse(w.url)
	q := u.Query()
	q.Set("t", strconv.FormatInt(w.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return store.Snapshot{}, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("bridge: webapp get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return store.Snapshot{}, fmt.Errorf("bridge: webapp get: status %d", resp.StatusCode)
	}

	var p webappPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return store.Snapshot{}, fmt.Errorf("bridge: webapp decode: %w", err)
	}

	now := w.now().UnixMilli()
	return store.Snapshot{
		Orders:     ParseOrderRows(p.Orders, now),
		BatchCosts: ParseCostRows(p.Costs),
	}, nil
}

func (w *WebApp) SaveOrders(ctx context.Context, list []orders.Order) error {
	return w.post(ctx, webappAction{Action: actionSyncOrders, Data: OrderRows(list)})
}

func (w *WebApp) SaveBatchCosts(ctx context.Context, list []batches.Cost) error {
	return w.post(ctx, webappAction{Action: actionSyncCosts, Data: CostRows(list)})
}

// post text/plain: Apps Script не принимает preflight-запросы.
func (w *WebApp) post(ctx context.Context, a webappAction) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("bridge: webapp %s: %w", a.Action, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("bridge: webapp %s: status %d", a.Action, resp.StatusCode)
	}
	return nil
}
