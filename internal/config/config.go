package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	goerrors "github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
// 環境変数 > config.yaml > default の順で決まる
type Config struct {
	Port string `env:"PORT" default:"8080" usage:"サーバーポート"`

	// DATABASE_URL があれば最優先で使う
	DatabaseURL      string `env:"DATABASE_URL" usage:"PostgreSQL接続URL"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresHost     string `env:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" default:"5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" default:"disable"`

	JWTSecret      string        `env:"JWT_SECRET" usage:"JWT署名シークレット"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" default:"15m"`

	GoEnv     string `env:"GO_ENV" default:"dev" usage:"dev/prod"`
	APIDomain string `env:"API_DOMAIN" usage:"APIのベースURL（コールバックURLの組み立てに使う）"`
	FEURL     string `env:"FE_URL" usage:"フロントURL（CORSと決済後のリダイレクト先）"`

	Payment  PaymentConfig  `env:"PAYMENT"`
	Shipping ShippingConfig `env:"SHIPPING"`
	Sweep    SweepConfig    `env:"SWEEP"`
	Graceful GracefulConfig `env:"GRACEFUL"`
}

// 決済プロバイダ
type PaymentConfig struct {
	// http: 本番のフォームAPI / fake: ローカル用
	Provider    string        `env:"PROVIDER" default:"fake"`
	BaseURL     string        `env:"BASE_URL"`
	APIKey      string        `env:"API_KEY"`
	Timeout     time.Duration `env:"TIMEOUT" default:"10s"`
	CallbackURL string        `env:"CALLBACK_URL"`
}

// 送料設定の初期値（DBに行が無いときだけ使う）
type ShippingConfig struct {
	DefaultBaseFee       int64 `env:"DEFAULT_BASE_FEE" default:"5000"`
	DefaultFreeThreshold int64 `env:"DEFAULT_FREE_THRESHOLD" default:"100000"`
}

// PENDING注文の掃除
type SweepConfig struct {
	Interval time.Duration `env:"INTERVAL" default:"5m"`
	MaxAge   time.Duration `env:"MAX_AGE" default:"30m"`
}

type GracefulConfig struct {
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Loadは .env → 環境変数/config.yaml の順に読む
func Load() (Config, error) {
	if err := loadDotenv(".env", "../.env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		Files:              []string{"config.yaml", "/etc/oliveshop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return Config{}, goerrors.Wrap(err, "load config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// 必須チェック
func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.PostgresPassword == "" {
			return fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.APIDomain == "" {
		return fmt.Errorf("API_DOMAIN is required")
	}
	if c.FEURL == "" {
		return fmt.Errorf("FE_URL is required")
	}

	switch c.Payment.Provider {
	case "fake":
	case "http":
		if c.Payment.BaseURL == "" {
			return fmt.Errorf("PAYMENT_BASE_URL is required")
		}
		if c.Payment.APIKey == "" {
			return fmt.Errorf("PAYMENT_API_KEY is required")
		}
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be http or fake: %q", c.Payment.Provider)
	}

	if c.Sweep.MaxAge <= 0 {
		return fmt.Errorf("SWEEP_MAX_AGE must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Payment.CallbackURL == "" {
		c.Payment.CallbackURL = strings.TrimRight(c.APIDomain, "/") + "/payment/callback"
	}
}

// Addr はlisten用アドレス（":8080"）
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSN はgorm用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// 無い.envは無視する
func loadDotenv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return goerrors.Wrapf(err, "load %s", f)
	}
	return nil
}
