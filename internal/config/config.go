package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	RemoteNone     = ""
	RemoteWebApp   = "webapp"
	RemoteWorkbook = "workbook"
	RemotePostgres = "postgres"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token        string
		AdminChatIDs []int64 `mapstructure:"admin_chat_ids"`
		Timeout      int     // long polling, сек
		// брошенный на полпути диалог после этого срока начинается заново
		DialogTTL time.Duration `mapstructure:"dialog_ttl"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr      string
		PublicURL string `mapstructure:"public_url"` // для ссылок оплаты в боте
		// ключ для /api и /payments; пустой: эти маршруты выключены
		APIToken string `mapstructure:"api_token"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Sync struct {
		Remote       string
		WebAppURL    string        `mapstructure:"webapp_url"`
		WorkbookPath string        `mapstructure:"workbook_path"`
		LocalDir     string        `mapstructure:"local_dir"`
		Debounce     time.Duration `mapstructure:"debounce"`
		Retries      uint64        `mapstructure:"retries"`
	} `mapstructure:"sync"`

	Rates struct {
		FixedCharge        float64 `mapstructure:"fixed_charge"`
		OatRate            float64 `mapstructure:"oat_rate"`
		DeliveryFeePerItem float64 `mapstructure:"delivery_fee_per_item"`
	} `mapstructure:"rates"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Thimphu")
	v.SetDefault("telegram.timeout", 30)
	v.SetDefault("telegram.dialog_ttl", "24h")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.api_token", "") // без default AutomaticEnv ключ не увидит
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("sync.remote", RemoteNone)
	v.SetDefault("sync.local_dir", "data")
	v.SetDefault("sync.debounce", "2s")
	v.SetDefault("sync.retries", 2)
	v.SetDefault("rates.fixed_charge", 150.0)
	v.SetDefault("rates.oat_rate", 28.0)
	v.SetDefault("rates.delivery_fee_per_item", 100.0)
}

func Load(path string) (Config, error) {
	// .env необязателен
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	// APP_SYNC_WEBAPP_URL -> sync.webapp_url
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	c.Sync.Remote = strings.ToLower(strings.TrimSpace(c.Sync.Remote))
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Sync.Remote {
	case RemoteNone:
	case RemoteWebApp:
		if !strings.HasPrefix(c.Sync.WebAppURL, "https://") {
			return errors.New("config: sync.webapp_url must be an https url")
		}
	case RemoteWorkbook:
		if c.Sync.WorkbookPath == "" {
			return errors.New("config: sync.workbook_path is required for workbook remote")
		}
	case RemotePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for postgres remote")
		}
	default:
		return fmt.Errorf("config: unknown sync.remote %q", c.Sync.Remote)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: app.timezone: %w", err)
	}
	return nil
}

// Location часовой пояс для месяцев партий и дат в отчётах.
func (c Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

// IsAdmin пустой список: бот никому не отвечает.
func (c Config) IsAdmin(chatID int64) bool {
	for _, id := range c.Telegram.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
