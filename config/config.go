package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultGatewayEndpointURL = "https://sandbox.jazzcash.com.pk/CustomerPortal/transactionmanagement/merchantform/"
	defaultBankID             = "TBANK"
	defaultProductID          = "RETL"
)

type Config struct {
	App     AppConfig
	HTTP    ServerConfig
	MySQL   MySQLConfig
	Log     LogConfig
	Auth    AuthConfig
	Gateway GatewayConfig
	Billing BillingConfig
	Jobs    JobsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type AuthConfig struct {
	JWTSecret string
}

type GatewayConfig struct {
	MerchantID         string
	Password           string
	IntegritySalt      string
	ReturnURL          string
	BankID             string
	ProductID          string
	EndpointURL        string
	SuccessRedirectURL string
	FailRedirectURL    string
}

type BillingConfig struct {
	Currency           string
	SubscriptionPeriod time.Duration
	PendingTimeout     time.Duration
	JobBatchSize       int32
}

type JobsConfig struct {
	ExpirePendingInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET environment variable is required")
	}

	gateway := GatewayConfig{
		MerchantID:         os.Getenv("GATEWAY_MERCHANT_ID"),
		Password:           os.Getenv("GATEWAY_PASSWORD"),
		IntegritySalt:      os.Getenv("GATEWAY_INTEGRITY_SALT"),
		ReturnURL:          os.Getenv("GATEWAY_RETURN_URL"),
		BankID:             getEnv("GATEWAY_BANK_ID", defaultBankID),
		ProductID:          getEnv("GATEWAY_PRODUCT_ID", defaultProductID),
		EndpointURL:        getEnv("GATEWAY_ENDPOINT_URL", defaultGatewayEndpointURL),
		SuccessRedirectURL: os.Getenv("GATEWAY_SUCCESS_REDIRECT_URL"),
		FailRedirectURL:    os.Getenv("GATEWAY_FAIL_REDIRECT_URL"),
	}
	if err := gateway.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "billing-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
		},
		Gateway: gateway,
		Billing: BillingConfig{
			Currency:           getEnv("BILLING_CURRENCY", "PKR"),
			SubscriptionPeriod: getDaysEnv("BILLING_SUBSCRIPTION_PERIOD_DAYS", 30*24*time.Hour),
			PendingTimeout:     getMinutesEnv("BILLING_PENDING_TIMEOUT_MINUTES", 60*time.Minute),
			JobBatchSize:       int32(getIntEnv("BILLING_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			ExpirePendingInterval: getMinutesEnv("BILLING_EXPIRE_PENDING_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

// Validate fails fast on missing gateway credentials so nothing is ever
// signed or verified against a partially configured processor.
func (c GatewayConfig) Validate() error {
	if c.MerchantID == "" {
		return errors.New("GATEWAY_MERCHANT_ID environment variable is required")
	}
	if c.Password == "" {
		return errors.New("GATEWAY_PASSWORD environment variable is required")
	}
	if c.IntegritySalt == "" {
		return errors.New("GATEWAY_INTEGRITY_SALT environment variable is required")
	}
	if c.ReturnURL == "" {
		return errors.New("GATEWAY_RETURN_URL environment variable is required")
	}
	if c.SuccessRedirectURL == "" {
		return errors.New("GATEWAY_SUCCESS_REDIRECT_URL environment variable is required")
	}
	if c.FailRedirectURL == "" {
		return errors.New("GATEWAY_FAIL_REDIRECT_URL environment variable is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getDaysEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if days, err := strconv.Atoi(value); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return defaultValue
}
