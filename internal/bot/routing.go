package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/batchbook/internal/dialog"
	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		_ = b.states.Reset(ctx, chatID)
		m := tgbotapi.NewMessage(chatID, "Привет! Заказы, партии и отчёты доступны через меню с кнопками. Список команд: /help")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "help":
		b.reply(chatID, helpText)

	case "cancel":
		_ = b.states.Reset(ctx, chatID)
		m := tgbotapi.NewMessage(chatID, "Отменено.")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "new":
		b.startOrder(ctx, chatID)

	case "add":
		if arg == "" {
			b.reply(chatID, "Использование: /add <id заказа>")
			return
		}
		b.startAddMore(ctx, chatID, arg)

	case "edit":
		if arg == "" {
			b.reply(chatID, "Использование: /edit <id заказа>")
			return
		}
		b.startEdit(ctx, chatID, arg)

	case "find":
		b.showCustomers(chatID, arg)

	case "customer":
		b.showCustomer(chatID, arg)

	case "paid":
		if arg == "" {
			b.reply(chatID, "Использование: /paid <id заказа>")
			return
		}
		o, ok := b.store.Order(arg)
		if !ok {
			b.reply(chatID, "Заказ не найден.")
			return
		}
		if b.store.MarkPaid(o.ID) == 0 {
			b.reply(chatID, "Заказ уже отмечен оплаченным.")
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ %s: %s отмечен оплаченным.", o.CustomerName, o.ProductName))

	case "paidall":
		key := orders.ParseCustomerKey(arg)
		ids := b.store.CustomerOrderIDs(key)
		if arg == "" || len(ids) == 0 {
			b.reply(chatID, "Клиент не найден. Использование: /paidall <ключ клиента>")
			return
		}
		n := b.store.MarkPaid(ids...)
		b.reply(chatID, fmt.Sprintf("✅ Отмечено оплаченными: %d из %d.", n, len(ids)))

	case "del":
		if arg == "" {
			b.reply(chatID, "Использование: /del <id заказа>")
			return
		}
		if b.store.DeleteOrders(arg) == 0 {
			b.reply(chatID, "Заказ не найден.")
			return
		}
		b.log.Info("order deleted", "chat_id", chatID, "order_id", arg)
		b.reply(chatID, "🗑 Заказ удалён.")

	case "delcustomer":
		b.askDeleteCustomer(ctx, chatID, arg)

	case "cost":
		b.setBatchCost(chatID, arg)

	case "costs":
		b.showCosts(chatID)

	case "stats":
		b.showStats(chatID)
	case "batches":
		b.showBatches(chatID)
	case "months":
		b.showMonths(chatID)
	case "customers":
		b.showTrends(chatID)
	case "xlsx":
		b.sendWorkbook(chatID)

	case "sync":
		b.refresh(ctx, chatID)
	case "push":
		b.push(ctx, chatID)
	case "status":
		b.showSyncStatus(chatID)

	default:
		b.reply(chatID, "Неизвестная команда. Список команд: /help")
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// кнопки нижней панели работают из любого состояния
	switch text {
	case btnNewOrder:
		b.startOrder(ctx, chatID)
		return
	case btnOrders:
		b.showCustomers(chatID, "")
		return
	case btnReports:
		m := tgbotapi.NewMessage(chatID, "Какой отчёт?")
		m.ReplyMarkup = reportsKeyboard()
		b.send(m)
		return
	case btnCosts:
		b.showCosts(chatID)
		return
	case btnSync:
		m := tgbotapi.NewMessage(chatID, renderStatus(b.sync.Status(), b.loc))
		m.ReplyMarkup = syncKeyboard()
		b.send(m)
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("dialog state load failed", "chat_id", chatID, "err", err)
		b.reply(chatID, "Не удалось прочитать состояние диалога, попробуйте /cancel.")
		return
	}

	switch {
	case stepIndex(st.State) >= 0:
		b.handleOrderText(ctx, chatID, st, msg.Text)
	case st.State == dialog.StateDeleteCustomer:
		b.reply(chatID, "Подтвердите удаление кнопкой выше или /cancel.")
	default:
		b.reply(chatID, "Выберите действие в меню или посмотрите /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case data == "nav:cancel":
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, cb.Message.MessageID, "Отменено.")
		_ = b.answerCallback(cb, "", false)

	case data == "nav:back":
		st, err := b.states.Get(ctx, chatID)
		if err != nil || stepIndex(st.State) < 0 {
			_ = b.answerCallback(cb, "", false)
			return
		}
		b.orderBack(ctx, cb, st)

	case strings.HasPrefix(data, "ord:"):
		st, err := b.states.Get(ctx, chatID)
		if err != nil {
			b.log.Error("dialog state load failed", "chat_id", chatID, "err", err)
			_ = b.answerCallback(cb, "Ошибка, попробуйте ещё раз", true)
			return
		}
		b.handleOrderCallback(ctx, cb, st)

	case strings.HasPrefix(data, "rep:"):
		_ = b.answerCallback(cb, "", false)
		switch strings.TrimPrefix(data, "rep:") {
		case "stats":
			b.showStats(chatID)
		case "batches":
			b.showBatches(chatID)
		case "months":
			b.showMonths(chatID)
		case "customers":
			b.showTrends(chatID)
		case "xlsx":
			b.sendWorkbook(chatID)
		}

	case data == "sync:refresh":
		_ = b.answerCallback(cb, "Загружаю…", false)
		b.refresh(ctx, chatID)

	case data == "sync:push":
		_ = b.answerCallback(cb, "Отправляю…", false)
		b.push(ctx, chatID)

	case data == "del:cust:yes":
		b.confirmDeleteCustomer(ctx, cb)

	default:
		_ = b.answerCallback(cb, "", false)
	}
}

func (b *Bot) customerGroup(key orders.CustomerKey) (orders.CustomerGroup, bool) {
	for _, g := range orders.GroupByCustomer(b.store.Orders()) {
		if g.Key == key {
			return g, true
		}
	}
	return orders.CustomerGroup{}, false
}

func (b *Bot) showCustomers(chatID int64, search string) {
	list := orders.Filter{Search: search}.Apply(b.store.Orders())
	b.reply(chatID, renderGroups(orders.GroupByCustomer(list)))
}

func (b *Bot) showCustomer(chatID int64, arg string) {
	if arg == "" {
		b.reply(chatID, "Использование: /customer <ключ клиента>")
		return
	}
	g, ok := b.customerGroup(orders.ParseCustomerKey(arg))
	if !ok {
		b.reply(chatID, "Клиент не найден.")
		return
	}
	// в карточке ссылки оплаты: превью Telegram не должно по ним ходить
	m := tgbotapi.NewMessage(chatID, renderGroup(g, b.links, b.loc))
	m.DisableWebPagePreview = true
	b.send(m)
}

func (b *Bot) askDeleteCustomer(ctx context.Context, chatID int64, arg string) {
	key := orders.ParseCustomerKey(arg)
	g, ok := b.customerGroup(key)
	if arg == "" || !ok {
		b.reply(chatID, "Клиент не найден. Использование: /delcustomer <ключ клиента>")
		return
	}
	if err := b.states.Set(ctx, chatID, dialog.StateDeleteCustomer, dialog.Payload{"key": key.String()}); err != nil {
		b.log.Error("dialog state save failed", "chat_id", chatID, "err", err)
		return
	}
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Удалить все заказы клиента %s (%d шт.)?", g.Customer().CustomerName, len(g.Orders)))
	m.ReplyMarkup = deleteCustomerKeyboard()
	b.send(m)
}

func (b *Bot) confirmDeleteCustomer(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	st, err := b.states.Get(ctx, chatID)
	if err != nil || st.State != dialog.StateDeleteCustomer {
		_ = b.answerCallback(cb, "Запрос устарел", true)
		return
	}
	raw, _ := dialog.GetString(st.Payload, "key")
	n := b.store.DeleteCustomer(orders.ParseCustomerKey(raw))
	_ = b.states.Reset(ctx, chatID)

	b.log.Info("customer deleted", "chat_id", chatID, "customer", raw, "orders", n)
	b.editTextAndClear(chatID, cb.Message.MessageID, fmt.Sprintf("🗑 Удалено заказов: %d", n))
	_ = b.answerCallback(cb, "", false)
}

// setBatchCost /cost <партия> <себестоимость> <OAT> [кол-во доставки|-]
func (b *Bot) setBatchCost(chatID int64, arg string) {
	const usage = "Использование: /cost <партия> <себестоимость> <OAT> [кол-во доставки|-]"
	parts := args(arg)
	if len(parts) < 3 || len(parts) > 4 {
		b.reply(chatID, usage)
		return
	}
	name, ok := normalizeBatch(parts[0])
	if !ok {
		b.reply(chatID, "Не похоже на партию. Пример: BATCH-202501-01")
		return
	}
	price, err := parseMoney(parts[1])
	if err != nil {
		b.reply(chatID, "Себестоимость: "+err.Error())
		return
	}
	oat, err := parseMoney(parts[2])
	if err != nil {
		b.reply(chatID, "OAT: "+err.Error())
		return
	}
	c := batches.Cost{BatchName: name, TotalCostPrice: price, OatInputValue: oat}
	if len(parts) == 4 && parts[3] != "-" {
		qty, err := parseMoney(parts[3])
		if err != nil {
			b.reply(chatID, "Кол-во доставки: "+err.Error())
			return
		}
		c.DeliveryFeeQuantity = batches.Qty(qty)
	}
	b.store.UpsertBatchCost(c)
	b.log.Info("batch cost saved", "chat_id", chatID, "batch", name)
	b.showCosts(chatID)
}
