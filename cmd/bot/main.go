package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Spok95/batchbook/internal/bot"
	"github.com/Spok95/batchbook/internal/bridge"
	"github.com/Spok95/batchbook/internal/config"
	"github.com/Spok95/batchbook/internal/dialog"
	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/infra/db"
	httpx "github.com/Spok95/batchbook/internal/infra/http"
	"github.com/Spok95/batchbook/internal/infra/logger"
	"github.com/Spok95/batchbook/internal/infra/payments"
	"github.com/Spok95/batchbook/internal/report"
	"github.com/Spok95/batchbook/internal/store"
	"github.com/Spok95/batchbook/internal/syncer"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

// openRemote внешнее хранилище по конфигу; nil: только локальная копия.
func openRemote(cfg config.Config, pool *pgxpool.Pool) (bridge.Remote, error) {
	switch cfg.Sync.Remote {
	case config.RemoteWebApp:
		w, err := bridge.NewWebApp(cfg.Sync.WebAppURL, nil)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.RemoteWorkbook:
		w, err := bridge.NewWorkbook(cfg.Sync.WorkbookPath)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.RemotePostgres:
		if pool == nil {
			return nil, errors.New("postgres remote requires postgres.dsn")
		}
		return bridge.NewPostgres(orders.NewRepo(pool), batches.NewRepo(pool)), nil
	}
	return nil, nil
}

func main() {
	cfgPath := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	loc, err := cfg.Location()
	if err != nil {
		log.Error("bad timezone", "tz", cfg.App.Timezone, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pool   *pgxpool.Pool
		states dialog.Store = dialog.NewMemRepo(cfg.Telegram.DialogTTL)
	)
	if cfg.Postgres.DSN != "" {
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		pool, err = db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		states = dialog.NewRepo(pool, cfg.Telegram.DialogTTL)
		log.Info("db connected")
	}

	remote, err := openRemote(cfg, pool)
	if err != nil {
		log.Error("remote storage init failed", "remote", cfg.Sync.Remote, "err", err)
		os.Exit(1)
	}

	st := store.New()
	engine := report.New(batches.Rates{
		OatRate:            cfg.Rates.OatRate,
		DeliveryFeePerItem: cfg.Rates.DeliveryFeePerItem,
	}, loc)

	sync := syncer.New(logger.Component(log, "sync"), st, remote, bridge.NewLocal(cfg.Sync.LocalDir), syncer.Options{
		Debounce: cfg.Sync.Debounce,
		Retries:  cfg.Sync.Retries,
	})
	defer sync.Stop()

	if err := sync.Load(ctx); err != nil {
		log.Error("initial load failed, starting with empty data", "err", err)
	}
	st.OnChange(sync.Schedule)
	log.Info("storage ready", "storage", sync.Status().Remote, "state", sync.Status().State)

	api := httpx.NewAPI(logger.Component(log, "http"), st, engine, sync)
	paid := payments.NewHandler(logger.Component(log, "payments"), st)
	if cfg.HTTP.APIToken == "" {
		log.Warn("http.api_token is empty, /api and /payments are disabled")
	}
	srv := httpx.New(cfg.HTTP.Addr, httpx.Options{
		Metrics: cfg.Metrics.Enabled,
		Token:   cfg.HTTP.APIToken,
	}, api.Register, paid.Register)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if cfg.Telegram.Token != "" {
		tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			os.Exit(1)
		}
		log.Info("telegram bot authorized", "username", tg.Self.UserName)

		b := bot.New(tg, bot.Deps{
			Log:       logger.Component(log, "bot"),
			States:    states,
			Store:     st,
			Engine:    engine,
			Sync:      sync,
			Links:     payments.NewLinks(cfg.HTTP.PublicURL, cfg.HTTP.APIToken),
			IsAdmin:   cfg.IsAdmin,
			Surcharge: cfg.Rates.FixedCharge,
			Location:  loc,
		})
		go func() {
			if err := b.Run(ctx, cfg.Telegram.Timeout); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
	} else {
		log.Warn("telegram token is empty, bot disabled")
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sync.Flush(shutdownCtx); err != nil {
		log.Error("final sync failed", "err", err)
	}
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
