package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/batchbook/internal/dialog"
	"github.com/Spok95/batchbook/internal/infra/payments"
	"github.com/Spok95/batchbook/internal/report"
	"github.com/Spok95/batchbook/internal/store"
	"github.com/Spok95/batchbook/internal/syncer"
)

// sender часть BotAPI, через которую бот отвечает (подменяется в тестах).
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Syncer interface {
	Status() syncer.Status
	SyncNow(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type Deps struct {
	Log       *slog.Logger
	States    dialog.Store
	Store     *store.Store
	Engine    *report.Engine
	Sync      Syncer
	Links     *payments.Links
	IsAdmin   func(chatID int64) bool
	Surcharge float64
	Location  *time.Location
}

type Bot struct {
	api       *tgbotapi.BotAPI
	out       sender
	log       *slog.Logger
	states    dialog.Store
	store     *store.Store
	engine    *report.Engine
	sync      Syncer
	links     *payments.Links
	isAdmin   func(int64) bool
	surcharge float64
	loc       *time.Location
	now       func() time.Time
}

func New(api *tgbotapi.BotAPI, d Deps) *Bot {
	b := newBot(api, d)
	b.api = api
	return b
}

func newBot(out sender, d Deps) *Bot {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	isAdmin := d.IsAdmin
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Bot{
		out: out, log: d.Log, states: d.States, store: d.Store,
		engine: d.Engine, sync: d.Sync, links: d.Links,
		isAdmin: isAdmin, surcharge: d.Surcharge, loc: loc, now: time.Now,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	if b.api == nil {
		return errors.New("bot: telegram api is not configured")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		b.onMessage(ctx, upd)
	} else if upd.CallbackQuery != nil {
		b.onCallback(ctx, upd)
	}
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg.Chat == nil {
		return
	}
	if !b.isAdmin(msg.Chat.ID) {
		b.log.Warn("rejected message from unknown chat", "chat_id", msg.Chat.ID)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Доступ запрещён."))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	cb := upd.CallbackQuery
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	if !b.isAdmin(cb.Message.Chat.ID) {
		_ = b.answerCallback(cb, "Доступ запрещён", true)
		return
	}
	b.handleCallback(ctx, cb)
}

func (b *Bot) send(msg tgbotapi.Chattable) tgbotapi.Message {
	m, err := b.out.Send(msg)
	if err != nil {
		b.log.Error("send failed", "err", err)
	}
	return m
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
