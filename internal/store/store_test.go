package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

// newTestStore детерминированные id и время.
func newTestStore() *Store {
	s := New()
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.now = func() time.Time { return time.UnixMilli(1000) }
	return s
}

func in(customer string, qty int) orders.Input {
	return orders.Input{
		BatchName:     "B1",
		CustomerName:  customer,
		SellingPrice:  100,
		Quantity:      qty,
		TransportMode: orders.DefaultTransport,
	}
}

func TestCreateOrders_Single(t *testing.T) {
	s := newTestStore()
	created := s.CreateOrders(in("Ann", 1))
	require.Len(t, created, 1)

	o := created[0]
	assert.Equal(t, "id-1", o.ID)
	assert.Empty(t, o.GroupID)
	assert.Equal(t, int64(1000), o.CreatedAt)
	assert.Equal(t, "Ann", o.CustomerName)
}

func TestCreateOrders_GroupAndPrepend(t *testing.T) {
	s := newTestStore()
	s.CreateOrders(in("Old", 1))
	created := s.CreateOrders(in("Ann", 1), in("Ann", 2))
	require.Len(t, created, 2)

	assert.NotEmpty(t, created[0].GroupID)
	assert.Equal(t, created[0].GroupID, created[1].GroupID)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	all := s.Orders()
	require.Len(t, all, 3)
	assert.Equal(t, created[0].ID, all[0].ID)
	assert.Equal(t, "Old", all[2].CustomerName)

	assert.Empty(t, s.CreateOrders())
}

func TestUpdateOrder(t *testing.T) {
	s := newTestStore()
	o := s.CreateOrders(in("Ann", 1))[0]

	upd := o.Input()
	upd.Quantity = 5
	got, err := s.UpdateOrder(" "+o.ID+" ", upd)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.CreatedAt, got.CreatedAt)

	_, err = s.UpdateOrder("missing", upd)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderGroup(t *testing.T) {
	s := newTestStore()
	o := s.CreateOrders(in("Ann", 1))[0]

	res, err := s.UpdateOrderGroup(o.ID, []orders.Input{in("Ann", 2), in("Ann", 3)})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, o.ID, res[0].ID)
	assert.NotEmpty(t, res[0].GroupID)
	assert.Equal(t, res[0].GroupID, res[1].GroupID)
	assert.Len(t, s.Orders(), 2)

	_, err = s.UpdateOrderGroup(o.ID, nil)
	assert.ErrorIs(t, err, orders.ErrEmptySubmission)
}

func TestDeleteOrders_TrimmedIDs(t *testing.T) {
	s := newTestStore()
	s.Replace(Snapshot{Orders: []orders.Order{{ID: " 1 "}, {ID: "2"}, {ID: "3"}}})

	n := s.DeleteOrders("1", " 3")
	assert.Equal(t, 2, n)
	require.Len(t, s.Orders(), 1)
	assert.Equal(t, "2", s.Orders()[0].ID)

	assert.Zero(t, s.DeleteOrders("nope"))
}

func TestDeleteCustomer(t *testing.T) {
	s := newTestStore()
	s.Replace(Snapshot{Orders: []orders.Order{
		{ID: "1", CustomerName: "Ann", PhoneNumber: "077"},
		{ID: "2", CustomerName: " ann", PhoneNumber: "077 "},
		{ID: "3", CustomerName: "Ann", PhoneNumber: "078"},
		{ID: "4", CustomerName: "Bob"},
	}})

	n := s.DeleteCustomer(orders.NewCustomerKey("ANN", "077"))
	assert.Equal(t, 2, n)

	var left []string
	for _, o := range s.Orders() {
		left = append(left, o.ID)
	}
	assert.Equal(t, []string{"3", "4"}, left)
}

func TestMarkPaid(t *testing.T) {
	s := newTestStore()
	s.Replace(Snapshot{Orders: []orders.Order{{ID: "1"}, {ID: "2", IsFullPaymentReceived: true}}})

	assert.Equal(t, 1, s.MarkPaid("1", "2", "missing"))
	o, _ := s.Order("1")
	assert.True(t, o.IsFullPaymentReceived)
}

func TestMarkPaid_KeepsConcurrentEdits(t *testing.T) {
	s := newTestStore()
	var ids []string
	for i := 0; i < 200; i++ {
		ids = append(ids, s.CreateOrders(in("Ann", 1))[0].ID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			o, _ := s.Order(id)
			upd := o.Input()
			upd.ProductName = "edited"
			upd.IsFullPaymentReceived = o.IsFullPaymentReceived
			_, _ = s.UpdateOrder(id, upd)
		}
	}()
	go func() {
		defer wg.Done()
		s.MarkPaid(ids...)
	}()
	wg.Wait()

	for _, o := range s.Orders() {
		assert.Equal(t, "edited", o.ProductName, o.ID)
	}
}

func TestReplaceIf(t *testing.T) {
	s := newTestStore()
	rev := s.Revision()
	s.CreateOrders(in("Ann", 1))
	assert.NotEqual(t, rev, s.Revision())

	assert.False(t, s.ReplaceIf(Snapshot{}, rev))
	assert.Len(t, s.Orders(), 1)

	assert.True(t, s.ReplaceIf(Snapshot{}, s.Revision()))
	assert.Empty(t, s.Orders())
}

func TestUpsertBatchCost(t *testing.T) {
	s := newTestStore()
	s.UpsertBatchCost(batches.Cost{BatchName: "B1", TotalCostPrice: 100})
	s.UpsertBatchCost(batches.Cost{BatchName: "B2", TotalCostPrice: 5})
	s.UpsertBatchCost(batches.Cost{BatchName: "B1", TotalCostPrice: 200, DeliveryFeeQuantity: batches.Qty(3)})

	costs := s.BatchCosts()
	require.Len(t, costs, 2)
	assert.Equal(t, 200.0, costs[0].TotalCostPrice)

	c, ok := s.BatchCost("B1")
	require.True(t, ok)
	require.NotNil(t, c.DeliveryFeeQuantity)

	// копия не связана с внутренним состоянием
	*c.DeliveryFeeQuantity = 99
	c, _ = s.BatchCost("B1")
	assert.Equal(t, 3.0, *c.DeliveryFeeQuantity)

	_, ok = s.BatchCost("none")
	assert.False(t, ok)
}

func TestOnChange(t *testing.T) {
	s := newTestStore()
	calls := 0
	s.OnChange(func() {
		calls++
		// слушатель может читать store: блокировка уже снята
		_ = s.Orders()
	})

	o := s.CreateOrders(in("Ann", 1))[0]
	_, _ = s.UpdateOrder(o.ID, o.Input())
	s.UpsertBatchCost(batches.Cost{BatchName: "B1"})
	s.DeleteOrders("missing")
	s.DeleteOrders(o.ID)
	s.Replace(Snapshot{})

	assert.Equal(t, 4, calls)
}

func TestBatchNames(t *testing.T) {
	s := newTestStore()
	s.Replace(Snapshot{Orders: []orders.Order{{ID: "1", BatchName: "B2"}, {ID: "2", BatchName: "B1"}, {ID: "3", BatchName: "B2"}}})
	assert.Equal(t, []string{"B2", "B1"}, s.BatchNames())
}

func TestSnapshot_NeverNil(t *testing.T) {
	snap := newTestStore().Snapshot()
	assert.NotNil(t, snap.Orders)
	assert.NotNil(t, snap.BatchCosts)
}
