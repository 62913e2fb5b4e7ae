package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/batchbook/internal/domain/orders"
)

// Кнопки нижней панели
const (
	btnNewOrder = "Новый заказ"
	btnOrders   = "Заказы"
	btnReports  = "Отчёты"
	btnCosts    = "Затраты партий"
	btnSync     = "Синхронизация"
)

func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnNewOrder), tgbotapi.NewKeyboardButton(btnOrders)},
			{tgbotapi.NewKeyboardButton(btnReports), tgbotapi.NewKeyboardButton(btnCosts)},
			{tgbotapi.NewKeyboardButton(btnSync)},
		},
	}
}

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "nav:back"))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", "nav:cancel"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func batchKeyboard(def string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 "+def, "ord:batch:default"),
		),
		navKeyboard(false, true).InlineKeyboard[0],
	)
}

// skipKeyboard для необязательных полей
func skipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пропустить", "ord:skip"),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
}

func transportKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	for _, m := range orders.TransportModes {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(m), "ord:tr:"+string(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, navKeyboard(true, true).InlineKeyboard[0])
}

func paidKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Оплачено полностью", "ord:paid:yes"),
			tgbotapi.NewInlineKeyboardButtonData("Нет", "ord:paid:no"),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Сохранить", "ord:save"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Партия", "ord:step:batch"),
			tgbotapi.NewInlineKeyboardButtonData("Клиент", "ord:step:customer"),
			tgbotapi.NewInlineKeyboardButtonData("Адрес", "ord:step:address"),
			tgbotapi.NewInlineKeyboardButtonData("Телефон", "ord:step:phone"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Доставка", "ord:step:transport"),
			tgbotapi.NewInlineKeyboardButtonData("Позиции", "ord:step:items"),
			tgbotapi.NewInlineKeyboardButtonData("Аванс", "ord:step:advance"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оплата", "ord:step:paid"),
			tgbotapi.NewInlineKeyboardButtonData("Заметка", "ord:step:note"),
		),
		navKeyboard(false, true).InlineKeyboard[0],
	)
}

func reportsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сводка", "rep:stats"),
			tgbotapi.NewInlineKeyboardButtonData("По партиям", "rep:batches"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("По месяцам", "rep:months"),
			tgbotapi.NewInlineKeyboardButtonData("Клиенты", "rep:customers"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Excel", "rep:xlsx"),
		),
	)
}

func syncKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Загрузить", "sync:refresh"),
			tgbotapi.NewInlineKeyboardButtonData("⬆️ Отправить", "sync:push"),
		),
	)
}

func deleteCustomerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", "del:cust:yes"),
		),
		navKeyboard(false, true).InlineKeyboard[0],
	)
}
