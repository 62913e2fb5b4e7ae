package orders

import (
	"sort"
	"strings"
)

// CustomerKey идентичность клиента для группировки: имя (lower+trim) + телефон (trim).
// Двое разных людей с одинаковым именем и пустым телефоном попадут в одну группу -
// более сильного ключа в данных нет.
type CustomerKey struct {
	Name  string
	Phone string
}

func NewCustomerKey(name, phone string) CustomerKey {
	return CustomerKey{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Phone: strings.TrimSpace(phone),
	}
}

func (k CustomerKey) String() string { return k.Name + "_" + k.Phone }

// ParseCustomerKey обратная операция к String; телефон: всё после последнего "_".
func ParseCustomerKey(s string) CustomerKey {
	i := strings.LastIndex(s, "_")
	if i < 0 {
		return NewCustomerKey(s, "")
	}
	return NewCustomerKey(s[:i], s[i+1:])
}

// TrendKey ключ для отчёта по клиентам: телефон, а если он пуст, то имя (lower+trim).
func (o Order) TrendKey() string {
	if o.PhoneNumber != "" {
		return o.PhoneNumber
	}
	return strings.ToLower(strings.TrimSpace(o.CustomerName))
}

type CustomerTotals struct {
	Quantity  int
	Sales     float64
	Advance   float64
	Remaining float64
}

type CustomerGroup struct {
	Key    CustomerKey
	Orders []Order // новые сверху
	Totals CustomerTotals
	Notes  []string
}

func (g CustomerGroup) Customer() Order { return g.Orders[0] }

func (g CustomerGroup) IDs() []string {
	ids := make([]string, 0, len(g.Orders))
	for _, o := range g.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func (g CustomerGroup) lastOrder() int64 {
	var last int64
	for _, o := range g.Orders {
		last = max(last, o.CreatedAt)
	}
	return last
}

// GroupByCustomer группирует заказы по CustomerKey; группы отсортированы по самому свежему заказу.
func GroupByCustomer(list []Order) []CustomerGroup {
	idx := map[CustomerKey]int{}
	var groups []CustomerGroup

	for _, o := range list {
		k := o.Key()
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, CustomerGroup{Key: k})
		}
		groups[i].Orders = append(groups[i].Orders, o)
	}

	for i := range groups {
		g := &groups[i]
		sort.SliceStable(g.Orders, func(a, b int) bool { return g.Orders[a].CreatedAt > g.Orders[b].CreatedAt })

		seen := map[string]struct{}{}
		for _, o := range g.Orders {
			g.Totals.Quantity += o.Quantity
			g.Totals.Sales += o.Total()
			g.Totals.Advance += o.AdvancePaid
			g.Totals.Remaining += o.Due()

			n := strings.TrimSpace(o.Note)
			if n == "" {
				continue
			}
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				g.Notes = append(g.Notes, n)
			}
		}
	}

	sort.SliceStable(groups, func(a, b int) bool { return groups[a].lastOrder() > groups[b].lastOrder() })
	return groups
}

type PaymentStatus string

const (
	StatusAll     PaymentStatus = "all"
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
)

// Filter фильтр списка заказов; пустые поля не ограничивают.
type Filter struct {
	Search string
	Batch  string
	Status PaymentStatus
}

func (f Filter) Match(o Order) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		hit := strings.Contains(strings.ToLower(o.CustomerName), q) ||
			strings.Contains(o.PhoneNumber, f.Search) ||
			strings.Contains(strings.ToLower(o.Address), q) ||
			strings.Contains(strings.ToLower(o.ProductName), q)
		if !hit {
			return false
		}
	}
	if f.Batch != "" && f.Batch != "all" && o.BatchName != f.Batch {
		return false
	}
	switch f.Status {
	case StatusPaid:
		return o.IsFullPaymentReceived
	case StatusPending:
		return !o.IsFullPaymentReceived
	}
	return true
}

func (f Filter) Apply(list []Order) []Order {
	var out []Order
	for _, o := range list {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}
