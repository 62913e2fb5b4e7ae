package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/batchbook/internal/bridge"
)

const syncTimeout = 60 * time.Second

func (b *Bot) showStats(chatID int64) {
	b.reply(chatID, renderStats(b.engine.Stats(b.store.Orders(), b.store.BatchCosts())))
}

func (b *Bot) showBatches(chatID int64) {
	b.reply(chatID, renderSummaries("📦 По партиям", b.engine.Batches(b.store.Orders(), b.store.BatchCosts()), false))
}

func (b *Bot) showMonths(chatID int64) {
	b.reply(chatID, renderSummaries("📅 По месяцам", b.engine.Months(b.store.Orders(), b.store.BatchCosts()), true))
}

func (b *Bot) showTrends(chatID int64) {
	b.reply(chatID, renderCustomers(b.engine.Customers(b.store.Orders(), b.store.BatchCosts())))
}

func (b *Bot) showCosts(chatID int64) {
	costs := b.store.BatchCosts()
	b.reply(chatID, renderCosts(b.engine.Batches(b.store.Orders(), costs), costs))
}

func (b *Bot) sendWorkbook(chatID int64) {
	now := b.now()
	wb := b.engine.BuildWorkbook("Batchbook", b.store.Orders(), b.store.BatchCosts(), now)

	var buf bytes.Buffer
	if err := b.engine.WriteWorkbook(&buf, wb); err != nil {
		b.log.Error("report workbook failed", "chat_id", chatID, "err", err)
		b.reply(chatID, "Не удалось собрать отчёт.")
		return
	}
	name := fmt.Sprintf("report_%s.xlsx", now.In(b.loc).Format("20060102_1504"))
	b.sendDocument(chatID, name, &buf, "Отчёт по партиям, месяцам и клиентам")
}

func (b *Bot) showSyncStatus(chatID int64) {
	b.reply(chatID, renderStatus(b.sync.Status(), b.loc))
}

// refresh заново загружает данные из внешнего хранилища.
func (b *Bot) refresh(ctx context.Context, chatID int64) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	if err := b.sync.Refresh(ctx); err != nil {
		if errors.Is(err, bridge.ErrNotConfigured) {
			b.reply(chatID, "Внешнее хранилище не настроено, работаем локально.")
			return
		}
		b.log.Warn("refresh failed", "chat_id", chatID, "err", err)
		b.reply(chatID, "Не удалось загрузить данные: "+err.Error())
		return
	}
	b.reply(chatID, fmt.Sprintf("🔄 Загружено заказов: %d\n\n%s", len(b.store.Orders()), renderStatus(b.sync.Status(), b.loc)))
}

// push отправка без ожидания таймера.
func (b *Bot) push(ctx context.Context, chatID int64) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	if err := b.sync.SyncNow(ctx); err != nil {
		b.log.Warn("manual sync failed", "chat_id", chatID, "err", err)
	}
	b.showSyncStatus(chatID)
}
