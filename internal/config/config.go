package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/proxy"
)

// maxNumberedProxies bounds the GEONODE_PROXY_<n>_* scan.
const maxNumberedProxies = 9

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Login    LoginConfig
	Captcha  CaptchaConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	TargetURL          string
	TargetDomain       string
	MaxAttempts        int
	NavTimeout         time.Duration
	PostNavSettle      time.Duration
	PostLoginSettleMin time.Duration
	PostLoginSettleMax time.Duration
	ArtifactDir        string
	Proxies            []proxy.Config
}

type BrowserConfig struct {
	Headless      bool
	UserDataDir   string
	LaunchTimeout time.Duration
}

type LoginConfig struct {
	Email      string
	Password   string
	PopupWait  time.Duration
	FieldWait  time.Duration
	ManualWait time.Duration
}

type CaptchaConfig struct {
	APIKey       string
	ExtensionDir string
	Wait         time.Duration
}

// DatabaseConfig is optional: an empty URL disables the attempt store.
type DatabaseConfig struct {
	URL string
}

// RedisConfig is optional: an empty Addr disables event publishing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8000"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Scraper: ScraperConfig{
			TargetURL:          getEnvOrDefault("TARGET_URL", "https://shopee.tw/---i.31188538.19323502897"),
			TargetDomain:       getEnvOrDefault("TARGET_DOMAIN", "shopee"),
			MaxAttempts:        getIntOrDefault("SCRAPER_MAX_ATTEMPTS", 10),
			NavTimeout:         getDurationOrDefault("SCRAPER_NAV_TIMEOUT", 2*time.Minute),
			PostNavSettle:      getDurationOrDefault("SCRAPER_POST_NAV_SETTLE", 10*time.Second),
			PostLoginSettleMin: getDurationOrDefault("SCRAPER_POST_LOGIN_SETTLE_MIN", 5*time.Second),
			PostLoginSettleMax: getDurationOrDefault("SCRAPER_POST_LOGIN_SETTLE_MAX", 8*time.Second),
			ArtifactDir:        getEnvOrDefault("SCRAPER_ARTIFACT_DIR", "artifacts"),
			Proxies:            loadProxiesFromEnv(),
		},
		Browser: BrowserConfig{
			Headless:      getBoolOrDefault("BROWSER_HEADLESS", false),
			UserDataDir:   getEnvOrDefault("BROWSER_USER_DATA_DIR", ".user_data"),
			LaunchTimeout: getDurationOrDefault("BROWSER_LAUNCH_TIMEOUT", 2*time.Minute),
		},
		Login: LoginConfig{
			Email:      os.Getenv("GOOGLE_EMAIL"),
			Password:   os.Getenv("GOOGLE_PASSWORD"),
			PopupWait:  getDurationOrDefault("LOGIN_POPUP_WAIT", time.Minute),
			FieldWait:  getDurationOrDefault("LOGIN_FIELD_WAIT", 10*time.Second),
			ManualWait: getDurationOrDefault("LOGIN_MANUAL_WAIT", 2*time.Minute),
		},
		Captcha: CaptchaConfig{
			APIKey:       os.Getenv("SADCAPTCHA_API_KEY"),
			ExtensionDir: os.Getenv("SADCAPTCHA_EXTENSION_DIR"),
			Wait:         getDurationOrDefault("CAPTCHA_WAIT", 4*time.Minute),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "scraper:attempts"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MaxAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS must be at least 1")
	}
	if c.Scraper.PostLoginSettleMin > c.Scraper.PostLoginSettleMax {
		return fmt.Errorf("SCRAPER_POST_LOGIN_SETTLE_MIN cannot be greater than SCRAPER_POST_LOGIN_SETTLE_MAX")
	}
	if c.Scraper.TargetURL == "" {
		return fmt.Errorf("TARGET_URL must not be empty")
	}
	return nil
}

// loadProxiesFromEnv gathers the proxy pool in a stable order: the custom
// proxy first, then the base geonode proxy, then the numbered ones.
func loadProxiesFromEnv() []proxy.Config {
	var proxies []proxy.Config

	if server := os.Getenv("CUSTOM_PROXY_SERVER"); server != "" {
		proxies = append(proxies, proxy.Config{
			Server:   server,
			Username: os.Getenv("CUSTOM_PROXY_USERNAME"),
			Password: os.Getenv("CUSTOM_PROXY_PASSWORD"),
		})
	}

	if server := os.Getenv("GEONODE_PROXY_SERVER"); server != "" {
		proxies = append(proxies, proxy.Config{
			Server:   server,
			Username: os.Getenv("GEONODE_PROXY_USERNAME"),
			Password: os.Getenv("GEONODE_PROXY_PASSWORD"),
		})
	}

	for i := 1; i <= maxNumberedProxies; i++ {
		prefix := fmt.Sprintf("GEONODE_PROXY_%d", i)
		server := os.Getenv(prefix + "_SERVER")
		if server == "" {
			continue
		}
		proxies = append(proxies, proxy.Config{
			Server:   server,
			Username: os.Getenv(prefix + "_USERNAME"),
			Password: os.Getenv(prefix + "_PASSWORD"),
		})
	}

	return proxies
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
