package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/batchbook/internal/dialog"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

// Порядок шагов нового заказа.
var orderSteps = []dialog.State{
	dialog.StateOrderBatch,
	dialog.StateOrderCustomer,
	dialog.StateOrderAddress,
	dialog.StateOrderPhone,
	dialog.StateOrderTransport,
	dialog.StateOrderItems,
	dialog.StateOrderAdvance,
	dialog.StateOrderPaid,
	dialog.StateOrderNote,
	dialog.StateOrderConfirm,
}

var stepByName = map[string]dialog.State{
	"batch":     dialog.StateOrderBatch,
	"customer":  dialog.StateOrderCustomer,
	"address":   dialog.StateOrderAddress,
	"phone":     dialog.StateOrderPhone,
	"transport": dialog.StateOrderTransport,
	"items":     dialog.StateOrderItems,
	"advance":   dialog.StateOrderAdvance,
	"paid":      dialog.StateOrderPaid,
	"note":      dialog.StateOrderNote,
}

func stepIndex(st dialog.State) int {
	for i, s := range orderSteps {
		if s == st {
			return i
		}
	}
	return -1
}

func nextStep(st dialog.State, d orderDraft) dialog.State {
	if d.Jump {
		return dialog.StateOrderConfirm
	}
	i := stepIndex(st)
	if i < 0 || i+1 >= len(orderSteps) {
		return dialog.StateOrderConfirm
	}
	return orderSteps[i+1]
}

func prevStep(st dialog.State) dialog.State {
	i := stepIndex(st)
	if i <= 0 {
		return orderSteps[0]
	}
	return orderSteps[i-1]
}

func (b *Bot) defaultBatch() string {
	return orders.DefaultBatchName(b.store.BatchNames(), b.now().In(b.loc))
}

// startOrder новый заказ с выбора партии.
func (b *Bot) startOrder(ctx context.Context, chatID int64) {
	b.goStep(ctx, chatID, dialog.StateOrderBatch, orderDraft{Transport: string(orders.DefaultTransport)})
}

// startAddMore позиции для клиента существующего заказа: клиент и партия уже заполнены.
func (b *Bot) startAddMore(ctx context.Context, chatID int64, id string) {
	o, ok := b.store.Order(id)
	if !ok {
		b.reply(chatID, "Заказ не найден.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Новые позиции для %s (%s).", o.CustomerName, o.BatchName))
	b.goStep(ctx, chatID, dialog.StateOrderItems, draftFromOrder(o))
}

func (b *Bot) startEdit(ctx context.Context, chatID int64, id string) {
	o, ok := b.store.Order(id)
	if !ok {
		b.reply(chatID, "Заказ не найден.")
		return
	}
	b.goStep(ctx, chatID, dialog.StateOrderConfirm, draftForEdit(o, b.surcharge))
}

// goStep сохраняет черновик и задаёт вопрос шага.
func (b *Bot) goStep(ctx context.Context, chatID int64, st dialog.State, d orderDraft) {
	if st == dialog.StateOrderConfirm {
		d.Jump = false
	}
	if err := b.states.Set(ctx, chatID, st, d.payload()); err != nil {
		b.log.Error("dialog state save failed", "chat_id", chatID, "err", err)
		b.reply(chatID, "Не удалось сохранить шаг, попробуйте ещё раз.")
		return
	}

	var m tgbotapi.MessageConfig
	switch st {
	case dialog.StateOrderBatch:
		m = tgbotapi.NewMessage(chatID, "Партия? Формат BATCH-YYYYMM-NN или YYYYMM-NN.")
		m.ReplyMarkup = batchKeyboard(b.defaultBatch())
	case dialog.StateOrderCustomer:
		m = tgbotapi.NewMessage(chatID, "Имя клиента:")
		m.ReplyMarkup = navKeyboard(true, true)
	case dialog.StateOrderAddress:
		m = tgbotapi.NewMessage(chatID, "Адрес (или «-»):")
		m.ReplyMarkup = skipKeyboard()
	case dialog.StateOrderPhone:
		m = tgbotapi.NewMessage(chatID, "Телефон (или «-»):")
		m.ReplyMarkup = skipKeyboard()
	case dialog.StateOrderTransport:
		m = tgbotapi.NewMessage(chatID, "Способ доставки:")
		m.ReplyMarkup = transportKeyboard()
	case dialog.StateOrderItems:
		m = tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Позиции, по одной в строке: «товар; цена; кол-во».\nЦена без надбавки, к каждой позиции добавится %s.", money(b.surcharge)))
		m.ReplyMarkup = navKeyboard(true, true)
	case dialog.StateOrderAdvance:
		m = tgbotapi.NewMessage(chatID, "Аванс одной суммой (0, если не было):")
		m.ReplyMarkup = navKeyboard(true, true)
	case dialog.StateOrderPaid:
		m = tgbotapi.NewMessage(chatID, "Заказ оплачен полностью?")
		m.ReplyMarkup = paidKeyboard()
	case dialog.StateOrderNote:
		m = tgbotapi.NewMessage(chatID, "Заметка (или «-»):")
		m.ReplyMarkup = skipKeyboard()
	case dialog.StateOrderConfirm:
		m = tgbotapi.NewMessage(chatID, renderDraft(d, b.surcharge))
		m.ReplyMarkup = confirmKeyboard()
	default:
		return
	}
	b.send(m)
}

// handleOrderText ввод текста на одном из шагов заказа.
func (b *Bot) handleOrderText(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	d := loadDraft(st.Payload)

	switch st.State {
	case dialog.StateOrderBatch:
		name, ok := normalizeBatch(text)
		if !ok {
			b.reply(chatID, "Не похоже на партию. Пример: BATCH-202501-01")
			return
		}
		d.Batch = name
	case dialog.StateOrderCustomer:
		name := strings.TrimSpace(text)
		if name == "" {
			b.reply(chatID, "Имя не может быть пустым.")
			return
		}
		d.Customer = name
	case dialog.StateOrderAddress:
		d.Address = optional(text)
	case dialog.StateOrderPhone:
		d.Phone = optional(text)
	case dialog.StateOrderItems:
		items, err := parseItems(text)
		if err != nil {
			b.reply(chatID, "Не удалось разобрать позиции: "+err.Error())
			return
		}
		d.Items = items
	case dialog.StateOrderAdvance:
		v, err := parseMoney(text)
		if err != nil {
			b.reply(chatID, "Аванс: "+err.Error())
			return
		}
		d.Advance = v
	case dialog.StateOrderNote:
		d.Note = optional(text)
	case dialog.StateOrderTransport, dialog.StateOrderPaid, dialog.StateOrderConfirm:
		b.reply(chatID, "Выберите вариант кнопкой выше.")
		return
	default:
		return
	}
	b.goStep(ctx, chatID, nextStep(st.State, d), d)
}

// handleOrderCallback кнопки шагов заказа (ord:*).
func (b *Bot) handleOrderCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	data := strings.TrimPrefix(cb.Data, "ord:")
	d := loadDraft(st.Payload)

	if stepIndex(st.State) < 0 {
		_ = b.answerCallback(cb, "Черновик не найден, начните заново", true)
		return
	}

	switch {
	case data == "batch:default" && st.State == dialog.StateOrderBatch:
		d.Batch = b.defaultBatch()
	case data == "skip":
		switch st.State {
		case dialog.StateOrderAddress:
			d.Address = ""
		case dialog.StateOrderPhone:
			d.Phone = ""
		case dialog.StateOrderNote:
			d.Note = ""
		default:
			_ = b.answerCallback(cb, "", false)
			return
		}
	case strings.HasPrefix(data, "tr:") && st.State == dialog.StateOrderTransport:
		d.Transport = string(orders.ParseTransport(strings.TrimPrefix(data, "tr:")))
	case strings.HasPrefix(data, "paid:") && st.State == dialog.StateOrderPaid:
		d.Paid = data == "paid:yes"
	case strings.HasPrefix(data, "step:") && st.State == dialog.StateOrderConfirm:
		step, ok := stepByName[strings.TrimPrefix(data, "step:")]
		if !ok {
			_ = b.answerCallback(cb, "", false)
			return
		}
		d.Jump = true
		b.clearMarkup(chatID, cb.Message.MessageID)
		_ = b.answerCallback(cb, "", false)
		b.goStep(ctx, chatID, step, d)
		return
	case data == "save" && st.State == dialog.StateOrderConfirm:
		b.saveOrder(ctx, cb, d)
		return
	default:
		// кнопка от устаревшего шага
		_ = b.answerCallback(cb, "Этот шаг уже пройден", false)
		return
	}

	b.clearMarkup(chatID, cb.Message.MessageID)
	_ = b.answerCallback(cb, "", false)
	b.goStep(ctx, chatID, nextStep(st.State, d), d)
}

func (b *Bot) saveOrder(ctx context.Context, cb *tgbotapi.CallbackQuery, d orderDraft) {
	chatID := cb.Message.Chat.ID
	inputs, err := d.inputs(b.surcharge)
	if err != nil {
		_ = b.answerCallback(cb, "Заказ не сохранён", true)
		b.reply(chatID, "Проверьте данные: "+err.Error())
		return
	}

	var saved []orders.Order
	if d.EditID != "" {
		saved, err = b.store.UpdateOrderGroup(d.EditID, inputs)
		if err != nil {
			_ = b.answerCallback(cb, "Заказ не найден", true)
			b.reply(chatID, "Заказ уже удалён, изменения не сохранены.")
			_ = b.states.Reset(ctx, chatID)
			return
		}
	} else {
		saved = b.store.CreateOrders(inputs...)
	}
	_ = b.states.Reset(ctx, chatID)

	b.log.Info("orders saved",
		"chat_id", chatID,
		"edit_id", d.EditID,
		"count", len(saved),
		"batch", d.Batch,
	)

	b.editTextAndClear(chatID, cb.Message.MessageID, renderDraft(d, b.surcharge))
	_ = b.answerCallback(cb, "Сохранено", false)

	ids := make([]string, 0, len(saved))
	for _, o := range saved {
		ids = append(ids, o.ID)
	}
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Сохранено позиций: %d\n%s\n\n/customer %s",
		len(saved), strings.Join(ids, "\n"), orders.NewCustomerKey(d.Customer, d.Phone).String()))
	m.ReplyMarkup = mainReplyKeyboard()
	b.send(m)
}

// orderBack шаг назад внутри заказа.
func (b *Bot) orderBack(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	d := loadDraft(st.Payload)
	b.clearMarkup(cb.Message.Chat.ID, cb.Message.MessageID)
	_ = b.answerCallback(cb, "", false)
	if d.Jump {
		b.goStep(ctx, cb.Message.Chat.ID, dialog.StateOrderConfirm, d)
		return
	}
	b.goStep(ctx, cb.Message.Chat.ID, prevStep(st.State), d)
}
