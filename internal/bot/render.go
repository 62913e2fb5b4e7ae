package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/infra/payments"
	"github.com/Spok95/batchbook/internal/report"
	"github.com/Spok95/batchbook/internal/syncer"
)

const listLimit = 15

// money "BTN 12,345" или "BTN 12,345.50".
func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	v = math.Round(v*100) / 100
	whole := int64(v)
	frac := v - float64(whole)

	s := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac > 0.004 {
		b.WriteString(fmt.Sprintf(".%02d", int64(math.Round(frac*100))))
	}
	return "BTN " + sign + b.String()
}

func renderStats(st report.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Сводка\n\n")
	fmt.Fprintf(&b, "Заказов: %d (шт: %d)\n", st.TotalOrders, st.TotalItems)
	fmt.Fprintf(&b, "Выручка: %s\n", money(st.TotalRevenue))
	fmt.Fprintf(&b, "К получению: %s\n", money(st.TotalOutstanding))
	fmt.Fprintf(&b, "Расходы: %s\n", money(st.TotalExpenses))
	fmt.Fprintf(&b, "Чистая прибыль: %s", money(st.NetProfit))
	return b.String()
}

func renderSummaries(title string, rows []report.Summary, byMonth bool) string {
	if len(rows) == 0 {
		return title + "\n\nДанных пока нет."
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	for _, r := range rows {
		head := r.BatchName + " · " + r.MonthYear
		if byMonth {
			head = r.MonthYear
		}
		fmt.Fprintf(&b, "\n%s\n", head)
		fmt.Fprintf(&b, "  заказов %d, шт %d, продажи %s\n", r.OrderCount, r.TotalItems, money(r.TotalSales))
		fmt.Fprintf(&b, "  себест. %s, доставка %s, OAT %s\n", money(r.TotalCostPrice), money(r.DeliveryFee), money(r.OatPayment))
		fmt.Fprintf(&b, "  прибыль %s\n", money(r.NetProfit))
	}
	t := report.Totals(rows)
	fmt.Fprintf(&b, "\nИтого: продажи %s, прибыль %s", money(t.TotalSales), money(t.NetProfit))
	return b.String()
}

func renderCustomers(rows []report.CustomerTrend) string {
	if len(rows) == 0 {
		return "👥 Клиенты\n\nДанных пока нет."
	}
	var b strings.Builder
	b.WriteString("👥 Клиенты по продажам\n")
	for i, r := range rows {
		if i == listLimit {
			fmt.Fprintf(&b, "\n… и ещё %d", len(rows)-listLimit)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s %s\n", i+1, r.CustomerName, r.PhoneNumber)
		fmt.Fprintf(&b, "  заказов %d, продажи %s, прибыль %s\n", r.TotalOrders, money(r.TotalSales), money(r.NetProfit))
	}
	return b.String()
}

func paidMark(o orders.Order) string {
	if o.IsFullPaymentReceived {
		return "✅"
	}
	return "⏳"
}

func renderGroups(groups []orders.CustomerGroup) string {
	if len(groups) == 0 {
		return "Ничего не найдено."
	}
	var b strings.Builder
	for i, g := range groups {
		if i == listLimit {
			fmt.Fprintf(&b, "\n… и ещё %d клиентов, уточните поиск /find", len(groups)-listLimit)
			break
		}
		c := g.Customer()
		fmt.Fprintf(&b, "%s %s · позиций %d, шт %d\n", c.CustomerName, c.PhoneNumber, len(g.Orders), g.Totals.Quantity)
		fmt.Fprintf(&b, "  сумма %s, остаток %s\n", money(g.Totals.Sales), money(g.Totals.Remaining))
		fmt.Fprintf(&b, "  /customer %s\n\n", g.Key.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderGroup(g orders.CustomerGroup, links *payments.Links, loc *time.Location) string {
	c := g.Customer()
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", c.CustomerName)
	if c.PhoneNumber != "" {
		fmt.Fprintf(&b, "📞 %s\n", c.PhoneNumber)
	}
	if c.Address != "" {
		fmt.Fprintf(&b, "📍 %s\n", c.Address)
	}
	for _, o := range g.Orders {
		fmt.Fprintf(&b, "\n%s %s · %s\n", paidMark(o), o.ProductName, o.BatchName)
		fmt.Fprintf(&b, "  %d × %s = %s, аванс %s, остаток %s\n",
			o.Quantity, money(o.SellingPrice), money(o.Total()), money(o.AdvancePaid), money(o.Due()))
		fmt.Fprintf(&b, "  %s, %s\n", o.TransportMode, o.Created().In(loc).Format("02.01.2006"))
		fmt.Fprintf(&b, "  id: %s\n", o.ID)
		if url := links.PaidURL(o.ID); url != "" && !o.IsFullPaymentReceived {
			fmt.Fprintf(&b, "  оплата: %s\n", url)
		}
	}
	if len(g.Notes) > 0 {
		fmt.Fprintf(&b, "\n📝 %s\n", strings.Join(g.Notes, "; "))
	}
	fmt.Fprintf(&b, "\nИтого %s, аванс %s, остаток %s\n", money(g.Totals.Sales), money(g.Totals.Advance), money(g.Totals.Remaining))
	if url := links.CustomerPaidURL(g.Key.String()); url != "" && g.Totals.Remaining > 0 {
		fmt.Fprintf(&b, "Оплата всех заказов: %s\n", url)
	}
	fmt.Fprintf(&b, "\n/paidall %s\n/delcustomer %s\n/add %s", g.Key.String(), g.Key.String(), c.ID)
	return b.String()
}

func renderDraft(d orderDraft, surcharge float64) string {
	var b strings.Builder
	if d.EditID != "" {
		b.WriteString("✏️ Редактирование заказа\n\n")
	} else {
		b.WriteString("🧾 Новый заказ\n\n")
	}
	fmt.Fprintf(&b, "Партия: %s\n", d.Batch)
	fmt.Fprintf(&b, "Клиент: %s\n", d.Customer)
	if d.Phone != "" {
		fmt.Fprintf(&b, "Телефон: %s\n", d.Phone)
	}
	if d.Address != "" {
		fmt.Fprintf(&b, "Адрес: %s\n", d.Address)
	}
	fmt.Fprintf(&b, "Доставка: %s\n", orders.ParseTransport(d.Transport))

	alloc := orders.Allocate(d.itemInputs(), surcharge, d.Advance, d.Paid)
	total := 0.0
	b.WriteString("\nПозиции:\n")
	for i, it := range d.Items {
		price := it.Price + surcharge
		sub := price * float64(it.Qty)
		total += sub
		fmt.Fprintf(&b, "%d. %s — %d × %s = %s (аванс %s)\n", i+1, it.Product, it.Qty, money(price), money(sub), money(alloc[i]))
	}
	fmt.Fprintf(&b, "\nИтого: %s\n", money(total))
	if d.Paid {
		b.WriteString("Оплачено полностью\n")
	} else {
		fmt.Fprintf(&b, "Аванс: %s, остаток: %s\n", money(d.Advance), money(math.Max(0, total-d.Advance)))
	}
	if d.Note != "" {
		fmt.Fprintf(&b, "Заметка: %s\n", d.Note)
	}
	return b.String()
}

// renderCosts затраты по партиям: ручные значения и то, что из них получается.
func renderCosts(rows []report.Summary, costs []batches.Cost) string {
	var b strings.Builder
	b.WriteString("💰 Затраты партий\n")
	if len(rows) == 0 {
		b.WriteString("\nПартий пока нет.\n")
	}
	for _, r := range rows {
		c, manual := batches.Find(costs, r.BatchName)
		qty := strconv.FormatFloat(r.DeliveryFeeQuantity, 'f', -1, 64)
		if c.DeliveryFeeQuantity == nil {
			qty += " (авто)"
		}
		mark := ""
		if !manual {
			mark = " ⚠️ затраты не заданы"
		}
		fmt.Fprintf(&b, "\n%s%s\n", r.BatchName, mark)
		fmt.Fprintf(&b, "  себест. %s, OAT ввод %s → %s\n", money(r.TotalCostPrice),
			strconv.FormatFloat(r.OatInputValue, 'f', -1, 64), money(r.OatPayment))
		fmt.Fprintf(&b, "  доставка: %s шт → %s\n", qty, money(r.DeliveryFee))
	}
	b.WriteString("\nИзменить: /cost <партия> <себестоимость> <OAT> [кол-во доставки|-]")
	return b.String()
}

func renderStatus(st syncer.Status, loc *time.Location) string {
	var b strings.Builder
	switch st.State {
	case syncer.StateSynced:
		b.WriteString("☁️ Синхронизировано")
	case syncer.StateSyncing:
		b.WriteString("🔄 Идёт синхронизация")
	case syncer.StatePending:
		b.WriteString("⏳ Есть неотправленные изменения")
	case syncer.StateLocal:
		b.WriteString("💾 Локальный режим")
	}
	fmt.Fprintf(&b, "\nХранилище: %s", st.Remote)
	if !st.LastSync.IsZero() {
		fmt.Fprintf(&b, "\nПоследняя синхронизация: %s", st.LastSync.In(loc).Format("02.01.2006 15:04:05"))
	}
	if st.LastError != "" {
		fmt.Fprintf(&b, "\nОшибка: %s", st.LastError)
	}
	return b.String()
}

const helpText = `Команды:
/new — новый заказ
/add <id> — добавить позиции тому же клиенту
/edit <id> — изменить заказ
/find <текст> — поиск клиентов
/customer <ключ> — заказы клиента
/paid <id>, /paidall <ключ> — отметить оплату
/del <id>, /delcustomer <ключ> — удалить
/cost <партия> <себестоимость> <OAT> [кол-во доставки|-]
/costs — затраты партий
/stats, /batches, /months, /customers, /xlsx — отчёты
/sync — загрузить из хранилища, /push — отправить, /status
/cancel — отменить текущий ввод`
