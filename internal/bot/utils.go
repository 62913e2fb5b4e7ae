package bot

import (
	"bytes"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) error {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	_, err := b.out.Request(resp)
	return err
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

// clearMarkup убирает кнопки у уже отвеченного вопроса.
func (b *Bot) clearMarkup(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.out.Request(edit); err != nil {
		b.log.Debug("clear markup failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) sendDocument(chatID int64, name string, buf *bytes.Buffer, caption string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	doc.Caption = caption
	b.send(doc)
}

// args аргументы команды через пробел.
func args(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}
