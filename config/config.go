package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/aowotoys/catalog-sync/models"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	RendererAuto     = "auto"
	RendererHTTP     = "http"
	RendererChromeDP = "chromedp"
	RendererSelenium = "selenium"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

const (
	ExportModeAll        = "all"
	ExportModePerProduct = "per-product"
)

// Config is the whole runtime configuration. It is built once by Load and
// handed to each component's constructor.
type Config struct {
	Env  string `env:"APP_ENV" env-default:"local"`
	Port string `env:"PORT" env-default:"8080"`

	Source  Source
	Fetch   Fetch
	Storage Storage
	Redis   Redis
	Images  Images
	AWS     AWS
	Export  Export
	Ruten   Ruten
}

type Source struct {
	ListingURL string `env:"SOURCE_LISTING_URL" env-default:"https://www.aowotoys.com/categories/aowobox-displaybox?sort_by=created_at&order_by=desc&limit=72&page="`
	MaxPage    int    `env:"SOURCE_MAX_PAGE" env-default:"33"`
	Locale     string `env:"SOURCE_LOCALE" env-default:"zh-hant"`
}

type Fetch struct {
	Renderer         string        `env:"FETCH_RENDERER" env-default:"auto"`
	Timeout          time.Duration `env:"FETCH_TIMEOUT" env-default:"60s"`
	MinDelay         time.Duration `env:"FETCH_MIN_DELAY" env-default:"2s"`
	MaxDelay         time.Duration `env:"FETCH_MAX_DELAY" env-default:"5s"`
	ChromeDriverPath string        `env:"CHROMEDRIVER_PATH" env-default:"/usr/local/bin/chromedriver"`
	SeleniumPort     int           `env:"SELENIUM_PORT" env-default:"4444"`
}

type Storage struct {
	Driver        string `env:"STORE_DRIVER" env-default:"postgres"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	AutoMigrate   bool   `env:"DB_AUTO_MIGRATE" env-default:"false"`
	MongoURI      string `env:"MONGO_URI" env-default:"mongodb://localhost:27017/"`
	MongoDatabase string `env:"MONGO_DATABASE" env-default:"aowotoy"`
}

type Redis struct {
	Addr string        `env:"REDIS_ADDR"`
	DB   int           `env:"REDIS_DB" env-default:"0"`
	TTL  time.Duration `env:"REDIS_TTL" env-default:"720h"`
}

type Images struct {
	Root      string  `env:"IMAGES_ROOT" env-default:"products"`
	RPS       float64 `env:"IMAGES_RPS" env-default:"0"`
	Overwrite bool    `env:"IMAGES_OVERWRITE" env-default:"false"`
}

type AWS struct {
	Region     string `env:"AWS_REGION" env-default:"ap-northeast-1"`
	BucketName string `env:"AWS_BUCKET_NAME"`
}

type Export struct {
	Markup string `env:"EXPORT_MARKUP" env-default:"1.6"`
	Output string `env:"EXPORT_OUTPUT" env-default:"all_products.csv"`
	Mode   string `env:"EXPORT_MODE" env-default:"all"`
	Limit  int    `env:"EXPORT_LIMIT" env-default:"0"`
}

type Ruten struct {
	APIKey    string `env:"RUTEN_API_KEY"`
	SecretKey string `env:"RUTEN_SECRET_KEY"`
	SaltKey   string `env:"RUTEN_SALT_KEY"`
	BaseURL   string `env:"RUTEN_BASE_URL" env-default:"https://partner.ruten.com.tw/api/v1"`
	UserAgent string `env:"RUTEN_USER_AGENT" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// MustLoad is Load for command entry points.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.MaxPage < 1 {
		errs = append(errs, fmt.Errorf("SOURCE_MAX_PAGE must be >= 1, got %d", c.Source.MaxPage))
	}
	if _, ok := models.ParseLocale(c.Source.Locale); !ok {
		errs = append(errs, fmt.Errorf("unsupported SOURCE_LOCALE %q", c.Source.Locale))
	}

	switch c.Fetch.Renderer {
	case RendererAuto, RendererHTTP, RendererChromeDP, RendererSelenium:
	default:
		errs = append(errs, fmt.Errorf("unknown FETCH_RENDERER %q", c.Fetch.Renderer))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT must be positive"))
	}
	if c.Fetch.MinDelay < 0 || c.Fetch.MaxDelay < c.Fetch.MinDelay {
		errs = append(errs, fmt.Errorf("invalid fetch delay range [%s, %s]", c.Fetch.MinDelay, c.Fetch.MaxDelay))
	}

	switch c.Storage.Driver {
	case StoreMemory, StoreMongo:
	case StorePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Export.Mode {
	case ExportModeAll, ExportModePerProduct:
	default:
		errs = append(errs, fmt.Errorf("unknown EXPORT_MODE %q", c.Export.Mode))
	}

	return errors.Join(errs...)
}

// Locale returns the configured source locale. Validate guarantees it parses.
func (c *Config) Locale() models.Locale {
	l, _ := models.ParseLocale(c.Source.Locale)
	return l
}
