package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Logger   LoggerConfig
	Security SecurityConfig
	Analysis AnalysisConfig
}

type ServerConfig struct {
	Host            string
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gte=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DataConfig points at the transaction file (.csv or .xlsx) and the
// directory holding its parsed gob snapshot. An empty CacheDir disables
// the snapshot.
type DataConfig struct {
	File     string `validate:"required"`
	CacheDir string
}

type LoggerConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int `validate:"gt=0"`
	RateLimitBurst  int `validate:"gt=0"`
	AllowedOrigins  []string
	TrustedProxies  []string
}

// AnalysisConfig holds request defaults and the result cache bounds.
type AnalysisConfig struct {
	TimeFrameMonths int           `validate:"min=1,max=24"`
	TopProducts     int           `validate:"gt=0"`
	ExpectedROI     float64       `validate:"gte=0,lte=100"`
	CacheTTL        time.Duration `validate:"gt=0"`
	CacheMaxEntries int           `validate:"gt=0"`
}

// Load reads the configuration from the environment. Malformed values are
// reported rather than replaced by their defaults.
func Load() (*Config, error) {
	var env envReader

	cfg := &Config{
		Server: ServerConfig{
			Host:            env.str("SERVER_HOST", "localhost"),
			Port:            env.integer("SERVER_PORT", 8084),
			ReadTimeout:     env.duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			File:     env.str("DATA_FILE", "online_retail.csv"),
			CacheDir: env.str("DATA_CACHE_DIR", ".cache"),
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(env.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(env.str("LOG_FORMAT", "json")),
		},
		Security: SecurityConfig{
			EnableRateLimit: env.boolean("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    env.integer("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  env.integer("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  env.list("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  env.list("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Analysis: AnalysisConfig{
			TimeFrameMonths: env.integer("ANALYSIS_TIME_FRAME_MONTHS", 12),
			TopProducts:     env.integer("ANALYSIS_TOP_PRODUCTS", 5),
			ExpectedROI:     env.float("ANALYSIS_EXPECTED_ROI", 15),
			CacheTTL:        env.duration("ANALYSIS_CACHE_TTL", time.Hour),
			CacheMaxEntries: env.integer("ANALYSIS_CACHE_MAX_ENTRIES", 256),
		},
	}

	if err := stderrors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	err := validator.New().Struct(c)

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fmt.Sprintf("%s: %v fails %s", fe.Namespace(), fe.Value(), fe.ActualTag())
	}
	return stderrors.New(strings.Join(msgs, "; "))
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// envReader looks up variables and collects parse failures.
type envReader struct {
	errs []error
}

func lookup[T any](r *envReader, key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}

func (r *envReader) str(key, def string) string {
	return lookup(r, key, def, func(s string) (string, error) { return s, nil })
}

func (r *envReader) integer(key string, def int) int {
	return lookup(r, key, def, strconv.Atoi)
}

func (r *envReader) float(key string, def float64) float64 {
	return lookup(r, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (r *envReader) boolean(key string, def bool) bool {
	return lookup(r, key, def, strconv.ParseBool)
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	return lookup(r, key, def, time.ParseDuration)
}

func (r *envReader) list(key string, def []string) []string {
	return lookup(r, key, def, func(s string) ([]string, error) {
		parts := strings.Split(s, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}
