package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

func sampleOrder() orders.Order {
	return orders.Order{
		ID:                    "o-1",
		GroupID:               "g-1",
		CreatedAt:             1736000000000,
		BatchName:             "NN-2025-01-1",
		CustomerName:          "Ann",
		Address:               "Main st 1",
		PhoneNumber:           "0771234567",
		ProductName:           "Cream",
		SellingPrice:          250,
		Quantity:              2,
		AdvancePaid:           100,
		TransportMode:         orders.TransportBus,
		IsFullPaymentReceived: true,
		Note:                  "gift",
	}
}

func TestOrderRow_Positions(t *testing.T) {
	row := OrderRow(sampleOrder())
	require.Len(t, row, len(OrderHeader))

	assert.Equal(t, "o-1", row[0])
	assert.Equal(t, "g-1", row[1])
	assert.Equal(t, int64(1736000000000), row[2])
	assert.Equal(t, "NN-2025-01-1", row[3])
	assert.Equal(t, 250.0, row[8])
	assert.Equal(t, 2, row[9])
	assert.Equal(t, "Bus", row[11])
	assert.Equal(t, true, row[12])
	assert.Equal(t, "gift", row[13])
}

func TestParseOrderRow_JSONCells(t *testing.T) {
	// так строки приходят после json.Unmarshal из веб-приложения
	row := []any{" o-1 ", "g-1", 1736000000000.0, "NN-2025-01-1", "Ann", "Main st 1",
		"0771234567", "Cream", 250.0, 2.0, 100.0, "Bus", true, "gift"}

	o, ok := ParseOrderRow(row, 1)
	require.True(t, ok)
	assert.Equal(t, sampleOrder(), o)
}

func TestParseOrderRow_Flags(t *testing.T) {
	for _, v := range []any{true, "TRUE", "true", "YES", "1", 1.0} {
		row := []any{"x", "", 1.0, "b", "c", "", "", "", 1.0, 1.0, 0.0, "", v}
		o, ok := ParseOrderRow(row, 0)
		require.True(t, ok)
		assert.True(t, o.IsFullPaymentReceived, "%v", v)
	}
	for _, v := range []any{false, "FALSE", "no", "", nil, 0.0} {
		row := []any{"x", "", 1.0, "b", "c", "", "", "", 1.0, 1.0, 0.0, "", v}
		o, _ := ParseOrderRow(row, 0)
		assert.False(t, o.IsFullPaymentReceived, "%v", v)
	}
}

func TestParseOrderRow_Defaults(t *testing.T) {
	o, ok := ParseOrderRow([]any{"x", "", "not a date", "b", "c"}, 42)
	require.True(t, ok)
	assert.Equal(t, int64(42), o.CreatedAt)
	assert.Equal(t, orders.DefaultTransport, o.TransportMode)
	assert.Zero(t, o.Quantity)
	assert.Empty(t, o.Note)
}

func TestParseOrderRows_DropsBlankIDs(t *testing.T) {
	rows := [][]any{
		{"", "g", 1.0},
		{"   "},
		{},
		{"keep", "", 1.0, "b", "c"},
	}
	list := ParseOrderRows(rows, 0)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].ID)
}

func TestCostRow_RoundTrip(t *testing.T) {
	c := batches.Cost{BatchName: "B1", TotalCostPrice: 500, OatInputValue: 10}
	row := CostRow(c)
	assert.Equal(t, []any{"B1", 500.0, 10.0, ""}, row)

	back, ok := ParseCostRow(row)
	require.True(t, ok)
	assert.Nil(t, back.DeliveryFeeQuantity)

	c.DeliveryFeeQuantity = batches.Qty(3)
	back, ok = ParseCostRow(CostRow(c))
	require.True(t, ok)
	require.NotNil(t, back.DeliveryFeeQuantity)
	assert.Equal(t, 3.0, *back.DeliveryFeeQuantity)
}

func TestParseCostRow_StringCells(t *testing.T) {
	c, ok := ParseCostRow([]any{"B1", "1500", "2,5", "0"})
	require.True(t, ok)
	assert.Equal(t, 1500.0, c.TotalCostPrice)
	assert.Equal(t, 2.5, c.OatInputValue)
	require.NotNil(t, c.DeliveryFeeQuantity)
	assert.Zero(t, *c.DeliveryFeeQuantity)

	_, ok = ParseCostRow([]any{"", "1"})
	assert.False(t, ok)
}
