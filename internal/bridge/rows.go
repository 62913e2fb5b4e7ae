package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

// Позиционный формат строк таблицы. Порядок колонок и есть схема, версий нет.
var (
	OrderHeader = []string{
		"ID", "Group ID", "Created At", "Batch Name", "Customer Name",
		"Address", "Phone Number", "Product Name", "Selling Price",
		"Quantity", "Advance Paid", "Transport Mode",
		"Is Full Payment Received", "Note",
	}
	CostHeader = []string{"Batch Name", "Total Cost Price", "Oat Input Value", "Delivery Fee Quantity"}
)

func OrderRow(o orders.Order) []any {
	mode := o.TransportMode
	if mode == "" {
		mode = orders.DefaultTransport
	}
	return []any{
		strings.TrimSpace(o.ID),
		strings.TrimSpace(o.GroupID),
		o.CreatedAt,
		strings.TrimSpace(o.BatchName),
		strings.TrimSpace(o.CustomerName),
		strings.TrimSpace(o.Address),
		strings.TrimSpace(o.PhoneNumber),
		strings.TrimSpace(o.ProductName),
		o.SellingPrice,
		o.Quantity,
		o.AdvancePaid,
		string(mode),
		o.IsFullPaymentReceived,
		strings.TrimSpace(o.Note),
	}
}

// ParseOrderRow строка без id (или пустая) отбрасывается: ok=false.
// fallbackCreated подставляется, если дата создания не число.
func ParseOrderRow(row []any, fallbackCreated int64) (orders.Order, bool) {
	id := cellString(cell(row, 0))
	if id == "" {
		return orders.Order{}, false
	}

	created, ok := cellNumber(cell(row, 2))
	if !ok {
		created = float64(fallbackCreated)
	}

	return orders.Order{
		ID:                    id,
		GroupID:               cellString(cell(row, 1)),
		CreatedAt:             int64(created),
		BatchName:             cellString(cell(row, 3)),
		CustomerName:          cellString(cell(row, 4)),
		Address:               cellString(cell(row, 5)),
		PhoneNumber:           cellString(cell(row, 6)),
		ProductName:           cellString(cell(row, 7)),
		SellingPrice:          cellFloat(cell(row, 8)),
		Quantity:              int(math.Round(cellFloat(cell(row, 9)))),
		AdvancePaid:           cellFloat(cell(row, 10)),
		TransportMode:         orders.ParseTransport(cellString(cell(row, 11))),
		IsFullPaymentReceived: cellBool(cell(row, 12)),
		Note:                  cellString(cell(row, 13)),
	}, true
}

func CostRow(c batches.Cost) []any {
	var qty any = ""
	if c.DeliveryFeeQuantity != nil {
		qty = *c.DeliveryFeeQuantity
	}
	return []any{strings.TrimSpace(c.BatchName), c.TotalCostPrice, c.OatInputValue, qty}
}

// ParseCostRow пустое 4-е поле: ручного количества нет.
func ParseCostRow(row []any) (batches.Cost, bool) {
	name := cellString(cell(row, 0))
	if name == "" {
		return batches.Cost{}, false
	}
	c := batches.Cost{
		BatchName:      name,
		TotalCostPrice: cellFloat(cell(row, 1)),
		OatInputValue:  cellFloat(cell(row, 2)),
	}
	if v, ok := cellNumber(cell(row, 3)); ok {
		c.DeliveryFeeQuantity = batches.Qty(v)
	}
	return c, true
}

func OrderRows(list []orders.Order) [][]any {
	out := make([][]any, 0, len(list))
	for _, o := range list {
		out = append(out, OrderRow(o))
	}
	return out
}

func CostRows(list []batches.Cost) [][]any {
	out := make([][]any, 0, len(list))
	for _, c := range list {
		out = append(out, CostRow(c))
	}
	return out
}

func ParseOrderRows(rows [][]any, fallbackCreated int64) []orders.Order {
	out := make([]orders.Order, 0, len(rows))
	for _, r := range rows {
		if o, ok := ParseOrderRow(r, fallbackCreated); ok {
			out = append(out, o)
		}
	}
	return out
}

func ParseCostRows(rows [][]any) []batches.Cost {
	out := make([]batches.Cost, 0, len(rows))
	for _, r := range rows {
		if c, ok := ParseCostRow(r); ok {
			out = append(out, c)
		}
	}
	return out
}

func cell(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// cellNumber число из ячейки; пустая строка и мусор: ok=false.
func cellNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		return f, err == nil
	}
	return 0, false
}

func cellFloat(v any) float64 {
	f, _ := cellNumber(v)
	return f
}

// cellBool принимает true, "TRUE", "YES", 1, "1".
func cellBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case int:
		return t == 1
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "TRUE", "YES", "1":
			return true
		}
	}
	return false
}
