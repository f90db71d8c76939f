package utils

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Signing   SigningConfig
	Password  PasswordConfig
	Email     EmailConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Captcha   CaptchaConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	BaseURL string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessMinutes int
	RefreshHours  int
}

// SigningConfig drives the activation link signer. MaxAgeHours of zero
// means activation links never expire.
type SigningConfig struct {
	Secret      string
	Salt        string
	MaxAgeHours int
}

type PasswordConfig struct {
	MinLength int
	MinScore  int
}

type EmailConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	QueueSize int
}

type SessionConfig struct {
	CookieName  string
	ExpiryHours int
}

type CatalogConfig struct {
	HomePageLimit    int
	CategoryPageSize int
}

type CaptchaConfig struct {
	Length     int
	TTLMinutes int
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

type SchedulerConfig struct {
	SessionCleanupSpec string
	PendingReportSpec  string
}

func (c SessionConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c SigningConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

func (c CaptchaConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "storefront")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_MINUTES", 5)
	viper.SetDefault("JWT_REFRESH_HOURS", 24)
	viper.SetDefault("SIGNING_SALT", "storefront.activation")
	viper.SetDefault("ACTIVATION_MAX_AGE_HOURS", 0)
	viper.SetDefault("PASSWORD_MIN_LENGTH", 8)
	viper.SetDefault("PASSWORD_MIN_SCORE", 1)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_QUEUE_SIZE", 100)
	viper.SetDefault("SESSION_COOKIE", "sessionid")
	viper.SetDefault("SESSION_EXPIRY_HOURS", 336)
	viper.SetDefault("HOME_PAGE_LIMIT", 20)
	viper.SetDefault("CATEGORY_PAGE_SIZE", 2)
	viper.SetDefault("CAPTCHA_LENGTH", 5)
	viper.SetDefault("CAPTCHA_TTL_MINUTES", 5)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("SESSION_CLEANUP_CRON", "@hourly")
	viper.SetDefault("PENDING_REPORT_CRON", "@daily")

	// .env is optional, environment variables alone are enough in containers
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
			BaseURL: viper.GetString("BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessMinutes: viper.GetInt("JWT_ACCESS_MINUTES"),
			RefreshHours:  viper.GetInt("JWT_REFRESH_HOURS"),
		},
		Signing: SigningConfig{
			Secret:      viper.GetString("SIGNING_SECRET"),
			Salt:        viper.GetString("SIGNING_SALT"),
			MaxAgeHours: viper.GetInt("ACTIVATION_MAX_AGE_HOURS"),
		},
		Password: PasswordConfig{
			MinLength: viper.GetInt("PASSWORD_MIN_LENGTH"),
			MinScore:  viper.GetInt("PASSWORD_MIN_SCORE"),
		},
		Email: EmailConfig{
			Host:      viper.GetString("SMTP_HOST"),
			Port:      viper.GetInt("SMTP_PORT"),
			User:      viper.GetString("SMTP_USER"),
			Password:  viper.GetString("SMTP_PASS"),
			From:      viper.GetString("EMAIL_FROM"),
			QueueSize: viper.GetInt("EMAIL_QUEUE_SIZE"),
		},
		Session: SessionConfig{
			CookieName:  viper.GetString("SESSION_COOKIE"),
			ExpiryHours: viper.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Catalog: CatalogConfig{
			HomePageLimit:    viper.GetInt("HOME_PAGE_LIMIT"),
			CategoryPageSize: viper.GetInt("CATEGORY_PAGE_SIZE"),
		},
		Captcha: CaptchaConfig{
			Length:     viper.GetInt("CAPTCHA_LENGTH"),
			TTLMinutes: viper.GetInt("CAPTCHA_TTL_MINUTES"),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetInt("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
		Scheduler: SchedulerConfig{
			SessionCleanupSpec: viper.GetString("SESSION_CLEANUP_CRON"),
			PendingReportSpec:  viper.GetString("PENDING_REPORT_CRON"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if config.Signing.Secret == "" {
		return nil, errors.New("SIGNING_SECRET is required")
	}

	return config, nil
}
