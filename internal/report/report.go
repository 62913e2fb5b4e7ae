// Package report считает сводки по заказам и затратам партий.
// Всё пересчитывается из сырых записей на каждый запрос, ничего не кешируется.
package report

import (
	"sort"
	"time"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

const AllBatches = "All Batches"

type Engine struct {
	rates batches.Rates
	loc   *time.Location
}

// New loc: часовой пояс, в котором определяется месяц партии (nil -> UTC).
func New(rates batches.Rates, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{rates: rates, loc: loc}
}

func (e *Engine) Rates() batches.Rates { return e.rates }

type Stats struct {
	TotalOrders      int     `json:"totalOrders"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalOutstanding float64 `json:"totalOutstanding"`
	TotalItems       int     `json:"totalItems"`
	TotalExpenses    float64 `json:"totalExpenses"`
	NetProfit        float64 `json:"netProfit"`
}

// Summary строка отчёта по партии (или по месяцу, тогда BatchName = AllBatches).
type Summary struct {
	BatchName  string `json:"batchName"`
	OrderCount int    `json:"orderCount"`
	TotalItems int    `json:"totalItems"`

	TotalSales float64 `json:"totalSales"`

	DeliveryFee    float64 `json:"deliveryFee"`
	OatPayment     float64 `json:"oatPayment"`
	TotalCostPrice float64 `json:"totalCostPrice"`

	NetProfit float64 `json:"netProfit"`
	MonthYear string  `json:"monthYear"` // YYYY-MM

	OatInputValue       float64 `json:"oatInputValue"`
	DeliveryFeeQuantity float64 `json:"deliveryFeeQuantity"`
}

func (s Summary) Expenses() float64 { return s.DeliveryFee + s.OatPayment + s.TotalCostPrice }

// batchGroup заказы одной партии в порядке появления в списке.
type batchGroup struct {
	name   string
	orders []orders.Order
	items  int
	sales  float64
}

func groupByBatch(list []orders.Order) []*batchGroup {
	idx := map[string]*batchGroup{}
	var out []*batchGroup
	for _, o := range list {
		g, ok := idx[o.BatchName]
		if !ok {
			g = &batchGroup{name: o.BatchName}
			idx[o.BatchName] = g
			out = append(out, g)
		}
		g.orders = append(g.orders, o)
		g.items += o.Quantity
		g.sales += o.Total()
	}
	return out
}

// Stats общая сводка. Расходы считаются только по партиям, в которых есть заказы;
// доставка начисляется даже без записи затрат (по количеству штук).
func (e *Engine) Stats(list []orders.Order, costs []batches.Cost) Stats {
	var st Stats
	for _, o := range list {
		st.TotalOrders++
		st.TotalRevenue += o.Total()
		st.TotalOutstanding += o.Due()
		st.TotalItems += o.Quantity
	}
	for _, g := range groupByBatch(list) {
		c, _ := batches.Find(costs, g.name)
		st.TotalExpenses += c.Expenses(g.items, e.rates)
	}
	st.NetProfit = st.TotalRevenue - st.TotalExpenses
	return st
}

func (e *Engine) monthYear(ms int64) string {
	return time.UnixMilli(ms).In(e.loc).Format("2006-01")
}

// Batches по строке на партию; месяц партии: месяц первого заказа партии в списке.
// Сортировка по месяцу по убыванию, при равенстве порядок сохраняется.
func (e *Engine) Batches(list []orders.Order, costs []batches.Cost) []Summary {
	groups := groupByBatch(list)
	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		c, _ := batches.Find(costs, g.name)
		s := Summary{
			BatchName:           g.name,
			OrderCount:          len(g.orders),
			TotalItems:          g.items,
			TotalSales:          g.sales,
			DeliveryFee:         c.DeliveryFee(g.items, e.rates),
			OatPayment:          c.OatPayment(e.rates),
			TotalCostPrice:      c.TotalCostPrice,
			MonthYear:           e.monthYear(g.orders[0].CreatedAt),
			OatInputValue:       c.OatInputValue,
			DeliveryFeeQuantity: c.DeliveryQty(g.items),
		}
		s.NetProfit = s.TotalSales - s.Expenses()
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MonthYear > out[j].MonthYear })
	return out
}

// Months суммирует сводки партий по месяцу.
func (e *Engine) Months(list []orders.Order, costs []batches.Cost) []Summary {
	return RollupMonths(e.Batches(list, costs))
}

func RollupMonths(rows []Summary) []Summary {
	idx := map[string]int{}
	var out []Summary
	for _, b := range rows {
		i, ok := idx[b.MonthYear]
		if !ok {
			i = len(out)
			idx[b.MonthYear] = i
			out = append(out, Summary{BatchName: AllBatches, MonthYear: b.MonthYear})
		}
		m := &out[i]
		m.OrderCount += b.OrderCount
		m.TotalItems += b.TotalItems
		m.TotalSales += b.TotalSales
		m.DeliveryFee += b.DeliveryFee
		m.OatPayment += b.OatPayment
		m.TotalCostPrice += b.TotalCostPrice
		m.NetProfit += b.NetProfit
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MonthYear > out[j].MonthYear })
	return out
}

// Totals итоговая строка таблицы (для подвала выгрузки).
func Totals(rows []Summary) Summary {
	t := Summary{BatchName: "Total"}
	for _, r := range rows {
		t.OrderCount += r.OrderCount
		t.TotalItems += r.TotalItems
		t.TotalSales += r.TotalSales
		t.DeliveryFee += r.DeliveryFee
		t.OatPayment += r.OatPayment
		t.TotalCostPrice += r.TotalCostPrice
		t.NetProfit += r.NetProfit
	}
	return t
}

type Ranking struct {
	BatchName string  `json:"batchName"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	Items     int     `json:"items"`
}

// BatchRanking партии по прибыли, самые прибыльные сверху.
func (e *Engine) BatchRanking(list []orders.Order, costs []batches.Cost) []Ranking {
	var out []Ranking
	for _, g := range groupByBatch(list) {
		c, _ := batches.Find(costs, g.name)
		out = append(out, Ranking{
			BatchName: g.name,
			Revenue:   g.sales,
			Profit:    g.sales - c.Expenses(g.items, e.rates),
			Items:     g.items,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Profit > out[j].Profit })
	return out
}
