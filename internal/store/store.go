// Package store держит заказы и затраты партий в памяти: источник истины на время сессии.
// Валидацию бизнес-правил store не делает, это ответственность вызывающего.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

var ErrNotFound = errors.New("store: order not found")

// Snapshot копия всех записей (то, что уходит в bridge).
type Snapshot struct {
	Orders     []orders.Order `json:"orders"`
	BatchCosts []batches.Cost `json:"batchCosts"`
}

type Store struct {
	mu     sync.RWMutex
	orders []orders.Order // новые сверху
	costs  []batches.Cost
	rev    uint64 // растёт на каждой мутации и Replace

	listeners []func()

	now   func() time.Time
	newID func() string
}

func New() *Store {
	return &Store{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// OnChange подписка на любую мутацию; вызывается после снятия блокировки.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	s.rev++
	ls := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

func (s *Store) newOrder(in orders.Input, groupID string) orders.Order {
	o := orders.Order{
		ID:        s.newID(),
		GroupID:   groupID,
		CreatedAt: s.now().UnixMilli(),
	}
	return o.Apply(in)
}

// CreateOrders создаёт позиции; если их больше одной: у всех общий новый GroupID.
// Новые записи ставятся в начало списка.
func (s *Store) CreateOrders(inputs ...orders.Input) []orders.Order {
	if len(inputs) == 0 {
		return nil
	}
	gid := ""
	if len(inputs) > 1 {
		gid = s.newID()
	}

	s.mu.Lock()
	created := make([]orders.Order, 0, len(inputs))
	for _, in := range inputs {
		created = append(created, s.newOrder(in, gid))
	}
	s.orders = append(append([]orders.Order{}, created...), s.orders...)
	s.mu.Unlock()

	s.notify()
	return cloneOrders(created)
}

func (s *Store) indexOf(id string) int {
	for i, o := range s.orders {
		if orders.SameID(o.ID, id) {
			return i
		}
	}
	return -1
}

// UpdateOrder заменяет все поля, кроме ID/CreatedAt/GroupID.
func (s *Store) UpdateOrder(id string, in orders.Input) (orders.Order, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return orders.Order{}, ErrNotFound
	}
	s.orders[i] = s.orders[i].Apply(in)
	updated := s.orders[i]
	s.mu.Unlock()

	s.notify()
	return updated, nil
}

// UpdateOrderGroup редактирование позиции, которое превратилось в несколько позиций:
// первая заменяет запись на месте (ID/CreatedAt сохраняются), остальные добавляются
// новыми записями с тем же GroupID (существующим либо новым).
func (s *Store) UpdateOrderGroup(id string, inputs []orders.Input) ([]orders.Order, error) {
	if len(inputs) == 0 {
		return nil, orders.ErrEmptySubmission
	}
	if len(inputs) == 1 {
		o, err := s.UpdateOrder(id, inputs[0])
		if err != nil {
			return nil, err
		}
		return []orders.Order{o}, nil
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	gid := s.orders[i].GroupID
	if gid == "" {
		gid = s.newID()
	}
	s.orders[i] = s.orders[i].Apply(inputs[0])
	s.orders[i].GroupID = gid

	result := []orders.Order{s.orders[i]}
	added := make([]orders.Order, 0, len(inputs)-1)
	for _, in := range inputs[1:] {
		added = append(added, s.newOrder(in, gid))
	}
	s.orders = append(append([]orders.Order{}, added...), s.orders...)
	result = append(result, added...)
	s.mu.Unlock()

	s.notify()
	return cloneOrders(result), nil
}

// BulkUpdate заменяет записи с совпадающими (после trim) ID; незнакомые игнорируются.
func (s *Store) BulkUpdate(list []orders.Order) int {
	s.mu.Lock()
	n := 0
	for _, u := range list {
		if i := s.indexOf(u.ID); i >= 0 {
			s.orders[i] = u
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.notify()
	}
	return n
}

// MarkPaid выставляет флаг полной оплаты на месте, остальные поля записи не трогает.
func (s *Store) MarkPaid(ids ...string) int {
	s.mu.Lock()
	n := 0
	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 && !s.orders[i].IsFullPaymentReceived {
			s.orders[i].IsFullPaymentReceived = true
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.notify()
	}
	return n
}

// DeleteOrders удаляет по ID (сравнение обрезанных строк), возвращает сколько удалено.
func (s *Store) DeleteOrders(ids ...string) int {
	kill := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		kill[trimID(id)] = struct{}{}
	}

	s.mu.Lock()
	kept := s.orders[:0:0]
	for _, o := range s.orders {
		if _, ok := kill[trimID(o.ID)]; !ok {
			kept = append(kept, o)
		}
	}
	removed := len(s.orders) - len(kept)
	s.orders = kept
	s.mu.Unlock()

	if removed > 0 {
		s.notify()
	}
	return removed
}

// DeleteCustomer удаляет всю историю клиента с данным ключом.
func (s *Store) DeleteCustomer(key orders.CustomerKey) int {
	return s.DeleteOrders(s.CustomerOrderIDs(key)...)
}

func (s *Store) CustomerOrderIDs(key orders.CustomerKey) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, o := range s.orders {
		if o.Key() == key {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// UpsertBatchCost заменяет запись с тем же именем партии или добавляет новую.
func (s *Store) UpsertBatchCost(c batches.Cost) {
	s.mu.Lock()
	replaced := false
	for i := range s.costs {
		if s.costs[i].BatchName == c.BatchName {
			s.costs[i] = cloneCost(c)
			replaced = true
			break
		}
	}
	if !replaced {
		s.costs = append(s.costs, cloneCost(c))
	}
	s.mu.Unlock()

	s.notify()
}

func (s *Store) Order(id string) (orders.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.orders[i], true
	}
	return orders.Order{}, false
}

func (s *Store) Orders() []orders.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders)
}

func (s *Store) BatchCosts() []batches.Cost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCosts(s.costs)
}

func (s *Store) BatchCost(name string) (batches.Cost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := batches.Find(s.costs, name)
	return cloneCost(c), ok
}

// BatchNames уникальные имена партий в порядке первого появления.
func (s *Store) BatchNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, o := range s.orders {
		if _, ok := seen[o.BatchName]; !ok {
			seen[o.BatchName] = struct{}{}
			out = append(out, o.BatchName)
		}
	}
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Orders: cloneOrders(s.orders), BatchCosts: cloneCosts(s.costs)}
}

// Replace подменяет всё состояние (загрузка/обновление из хранилища); подписчиков не дёргает.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	s.replace(snap)
	s.mu.Unlock()
}

// ReplaceIf как Replace, но только если с ревизии rev ничего не менялось.
func (s *Store) ReplaceIf(snap Snapshot, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev != rev {
		return false
	}
	s.replace(snap)
	return true
}

func (s *Store) replace(snap Snapshot) {
	s.orders = cloneOrders(snap.Orders)
	s.costs = cloneCosts(snap.BatchCosts)
	s.rev++
}

// Revision номер версии содержимого для ReplaceIf.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func trimID(id string) string { return strings.TrimSpace(id) }

func cloneOrders(in []orders.Order) []orders.Order {
	if in == nil {
		return []orders.Order{}
	}
	return append(make([]orders.Order, 0, len(in)), in...)
}

func cloneCost(c batches.Cost) batches.Cost {
	if c.DeliveryFeeQuantity != nil {
		c.DeliveryFeeQuantity = batches.Qty(*c.DeliveryFeeQuantity)
	}
	return c
}

func cloneCosts(in []batches.Cost) []batches.Cost {
	out := make([]batches.Cost, 0, len(in))
	for _, c := range in {
		out = append(out, cloneCost(c))
	}
	return out
}
