package report

import (
	"sort"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

type CustomerTrend struct {
	Key            string  `json:"key"`
	PhoneNumber    string  `json:"phoneNumber"`
	CustomerName   string  `json:"customerName"`
	PrimaryAddress string  `json:"primaryAddress"`
	TotalOrders    int     `json:"totalOrders"`
	TotalSales     float64 `json:"totalSales"`
	TotalCostPrice float64 `json:"totalCostPrice"`
	TotalOat       float64 `json:"totalOat"`
	TotalDelivery  float64 `json:"totalDelivery"`
	NetProfit      float64 `json:"netProfit"`
	LastOrderDate  int64   `json:"lastOrderDate"`
}

// UnitCost затраты партии, приходящиеся на одну штуку.
type UnitCost struct {
	CostPrice float64
	Oat       float64
	Delivery  float64
}

func (u UnitCost) Sum() float64 { return u.CostPrice + u.Oat + u.Delivery }

// UnitCosts делит затраты каждой партии поровну на все её штуки, независимо от того,
// кто что купил. Партия без штук даёт нули.
func (e *Engine) UnitCosts(list []orders.Order, costs []batches.Cost) map[string]UnitCost {
	items := map[string]int{}
	for _, o := range list {
		items[o.BatchName] += o.Quantity
	}
	names := make([]string, 0, len(items)+len(costs))
	for name := range items {
		names = append(names, name)
	}
	for _, c := range costs {
		if _, ok := items[c.BatchName]; !ok {
			names = append(names, c.BatchName)
		}
	}

	out := make(map[string]UnitCost, len(names))
	for _, name := range names {
		n := items[name]
		if n == 0 {
			out[name] = UnitCost{}
			continue
		}
		c, _ := batches.Find(costs, name)
		qty := float64(n)
		out[name] = UnitCost{
			CostPrice: c.TotalCostPrice / qty,
			Oat:       c.OatPayment(e.rates) / qty,
			Delivery:  c.DeliveryFee(n, e.rates) / qty,
		}
	}
	return out
}

// Customers отчёт по клиентам (ключ: телефон, иначе имя), по убыванию продаж.
func (e *Engine) Customers(list []orders.Order, costs []batches.Cost) []CustomerTrend {
	unit := e.UnitCosts(list, costs)

	idx := map[string]int{}
	var out []CustomerTrend
	for _, o := range list {
		key := o.TrendKey()
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, CustomerTrend{
				Key:            key,
				PhoneNumber:    o.PhoneNumber,
				CustomerName:   o.CustomerName,
				PrimaryAddress: o.Address,
			})
		}
		c := &out[i]
		c.TotalOrders++

		sales := o.Total()
		u := unit[o.BatchName]
		qty := float64(o.Quantity)

		c.TotalSales += sales
		c.TotalCostPrice += u.CostPrice * qty
		c.TotalOat += u.Oat * qty
		c.TotalDelivery += u.Delivery * qty
		c.NetProfit += sales - u.Sum()*qty
		c.LastOrderDate = max(c.LastOrderDate, o.CreatedAt)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSales > out[j].TotalSales })
	return out
}

// CustomerTotals итог по всем клиентам.
func CustomerTotals(rows []CustomerTrend) CustomerTrend {
	t := CustomerTrend{CustomerName: "Total"}
	for _, r := range rows {
		t.TotalOrders += r.TotalOrders
		t.TotalSales += r.TotalSales
		t.TotalCostPrice += r.TotalCostPrice
		t.TotalOat += r.TotalOat
		t.TotalDelivery += r.TotalDelivery
		t.NetProfit += r.NetProfit
	}
	return t
}
