package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DevJWTSigningKey is the fallback HS256 key for local development.
	// cmd/creditctl mints tokens with it; production refuses to start with it.
	DevJWTSigningKey = "dev-secret-key-change-in-production"

	EnvProduction = "production"
)

// Server captures process level configuration for cmd/server and cmd/compliance-monitor.
type Server struct {
	Addr string
	// MonitorAddr serves health and metrics for cmd/compliance-monitor.
	MonitorAddr string
	Environment string
	LogLevel    string

	// StoreBackend selects the audit store: "memory" or "postgres".
	StoreBackend string
	// PolicyFile optionally points at a YAML purpose policy; empty uses the built-in table.
	PolicyFile string
	// ConsumerIDPepper keys the identifier hasher.
	ConsumerIDPepper string
	TrustedProxies   []netip.Prefix
	RequestTimeout   time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Bureau   BureauConfig
	Outbox   OutboxConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// DedupeTTL bounds how long the compliance monitor remembers a delivered event.
	DedupeTTL time.Duration
}

type KafkaConfig struct {
	Brokers         string
	ClientID        string
	ConsumerGroup   string
	AuditTopic      string
	EscalationTopic string
}

// Enabled reports whether Kafka brokers are configured.
func (k KafkaConfig) Enabled() bool { return strings.TrimSpace(k.Brokers) != "" }

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

type BureauConfig struct {
	// BaseURL of the credit bureau gateway; empty selects the fixture retriever.
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// BreakerThreshold consecutive outages open the circuit for BreakerCooldown.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (*Server, error) {
	cfg := &Server{
		Addr:             getEnv("ADDR", ":8080"),
		MonitorAddr:      getEnv("MONITOR_ADDR", ":9091"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		StoreBackend:     getEnv("STORE_BACKEND", "memory"),
		PolicyFile:       os.Getenv("POLICY_FILE"),
		ConsumerIDPepper: os.Getenv("CONSUMER_ID_PEPPER"),
		RequestTimeout:   getDuration("REQUEST_TIMEOUT", 15*time.Second),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectAttempts: getInt("DB_CONNECT_ATTEMPTS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			DedupeTTL:    getDuration("REDIS_DEDUPE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			ClientID:        getEnv("KAFKA_CLIENT_ID", "creditgate"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "creditgate-compliance-monitor"),
			AuditTopic:      getEnv("CREDIT_AUDIT_TOPIC_PREFIX", "credit.audit"),
			EscalationTopic: getEnv("CREDIT_ESCALATION_TOPIC", "credit.compliance.escalations"),
		},
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", DevJWTSigningKey),
			Issuer:        getEnv("JWT_ISSUER", "creditgate"),
			Audience:      getEnv("JWT_AUDIENCE", "creditgate-api"),
		},
		Bureau: BureauConfig{
			BaseURL:          os.Getenv("BUREAU_BASE_URL"),
			APIKey:           os.Getenv("BUREAU_API_KEY"),
			Timeout:          getDuration("BUREAU_TIMEOUT", 10*time.Second),
			BreakerThreshold: getInt("BUREAU_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("BUREAU_BREAKER_COOLDOWN", 30*time.Second),
		},
		Outbox: OutboxConfig{
			PollInterval: getDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
			BatchSize:    getInt("OUTBOX_BATCH_SIZE", 100),
			Retention:    getDuration("OUTBOX_RETENTION", 7*24*time.Hour),
		},
	}

	proxies, err := parsePrefixes(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}
	cfg.TrustedProxies = proxies

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that would weaken the audit trail.
func (c *Server) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be memory or postgres, got %q", c.StoreBackend))
	}
	if c.StoreBackend == "postgres" && c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres"))
	}
	if c.IsProduction() {
		if c.StoreBackend != "postgres" {
			errs = append(errs, errors.New("production requires STORE_BACKEND=postgres"))
		}
		if c.Auth.JWTSigningKey == DevJWTSigningKey {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
		}
		if c.ConsumerIDPepper == "" {
			errs = append(errs, errors.New("CONSUMER_ID_PEPPER must be set in production"))
		}
		if c.Bureau.BaseURL == "" {
			errs = append(errs, errors.New("BUREAU_BASE_URL must be set in production"))
		}
	}
	return errors.Join(errs...)
}

// ValidateMonitor checks the settings cmd/compliance-monitor cannot run without.
func (c *Server) ValidateMonitor() error {
	var errs []error
	if !c.Kafka.Enabled() {
		errs = append(errs, errors.New("KAFKA_BROKERS is required for the compliance monitor"))
	}
	if c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required for the compliance monitor"))
	}
	return errors.Join(errs...)
}

func (c *Server) IsProduction() bool { return c.Environment == EnvProduction }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parsePrefixes(raw string) ([]netip.Prefix, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", part, err)
		}
		out = append(out, p)
	}
	return out, nil
}
