package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"microservices-demo/internal/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

type Config struct {
	AppName           string `envconfig:"APP_NAME"`
	AppPort           string `envconfig:"APP_PORT"`
	GrpcPort          string `envconfig:"GRPC_PORT"`
	Env               string `envconfig:"ENV" default:"development"`
	ShutdownTimeoutMs int64  `envconfig:"SHUTDOWN_TIMEOUT_MS" default:"10000"`

	// Gateway upstreams and outbound calls
	UserServiceURL    string `envconfig:"USER_SERVICE_URL" default:"http://localhost:5001"`
	ProductServiceURL string `envconfig:"PRODUCT_SERVICE_URL" default:"http://localhost:5002"`
	UpstreamTimeoutMs int64  `envconfig:"UPSTREAM_TIMEOUT_MS" default:"0"`

	// Backend storage
	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	MongoURI     string `envconfig:"MONGO_URI"`
	MongoDBName  string `envconfig:"MONGO_DB_NAME" default:"microservices"`

	// Entity events
	AmqpURI   string `envconfig:"AMQP_URI"`
	AmqpQueue string `envconfig:"AMQP_QUEUE" default:"entity-events"`

	// Smoke client
	GatewayURL    string `envconfig:"GATEWAY_URL" default:"http://localhost:5000"`
	ClientDelayMs int64  `envconfig:"CLIENT_DELAY_MS" default:"1000"`

	RemoteLogHttpURI       string `envconfig:"REMOTE_LOG_HTTP_URI"`
	RemoteTraceRpcURI      string `envconfig:"REMOTE_TRACE_RPC_URI"`
	RemoteProfilingHttpURI string `envconfig:"REMOTE_PROFILING_HTTP_URI"`
	TraceStdout            bool   `envconfig:"TRACE_STDOUT"`
}

// SafeConfig is the projection of Config that may be logged (no credentials).
type SafeConfig struct {
	AppName                string `json:"app_name"`
	AppPort                string `json:"app_port"`
	GrpcPort               string `json:"grpc_port"`
	Env                    string `json:"env"`
	UserServiceURL         string `json:"user_service_url"`
	ProductServiceURL      string `json:"product_service_url"`
	UpstreamTimeoutMs      int64  `json:"upstream_timeout_ms"`
	StoreBackend           string `json:"store_backend"`
	MongoDBName            string `json:"mongo_db_name"`
	AmqpQueue              string `json:"amqp_queue"`
	AmqpEnabled            bool   `json:"amqp_enabled"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppName:                c.AppName,
		AppPort:                c.AppPort,
		GrpcPort:               c.GrpcPort,
		Env:                    c.Env,
		UserServiceURL:         c.UserServiceURL,
		ProductServiceURL:      c.ProductServiceURL,
		UpstreamTimeoutMs:      c.UpstreamTimeoutMs,
		StoreBackend:           c.StoreBackend,
		MongoDBName:            c.MongoDBName,
		AmqpQueue:              c.AmqpQueue,
		AmqpEnabled:            c.AmqpURI != "",
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
	}
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMs) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

func (c *Config) ClientDelay() time.Duration {
	return time.Duration(c.ClientDelayMs) * time.Millisecond
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) ➜ []slog.Attr{ slog.String("data.app_port", "5001"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := prefix + "." + jsonKey(f)

		switch v.Field(i).Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, v.Field(i).String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, v.Field(i).Int()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, v.Field(i).Bool()))
		default:
			attrs = append(attrs, slog.Any(key, v.Field(i).Interface()))
		}
	}
	return attrs
}

// jsonKey takes the `json:"..."` tag name if present, snake_case of the field otherwise.
func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

// Load reads .env (optional) and the environment. appName and appPort are the
// binary's defaults, used when APP_NAME / APP_PORT are unset.
func Load(appName, appPort string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Instance().Debug("No .env file found, using system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.AppName == "" {
		cfg.AppName = appName
	}
	if cfg.AppPort == "" {
		cfg.AppPort = appPort
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.AppName == "" {
		missing = append(missing, "APP_NAME")
	}
	if c.AppPort == "" {
		missing = append(missing, "APP_PORT")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	if c.UpstreamTimeoutMs < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_MS must not be negative, got %d", c.UpstreamTimeoutMs)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads the configuration once per process and exits on failure.
func Instance(appName, appPort string) *Config {
	configOnce.Do(func() {
		log := logger.Instance()

		cfg, err := Load(appName, appPort)
		if err != nil {
			log.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		// Optional but recommended
		if cfg.RemoteLogHttpURI == "" {
			log.Warn("Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.RemoteTraceRpcURI == "" {
			log.Warn("Missing REMOTE_TRACE_RPC_URI will skip sending trace")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			log.Warn("Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		attrs := StructAttrs("data", cfg.ToSafeConfig())
		anyAttrs := make([]any, len(attrs))
		for i, a := range attrs {
			anyAttrs[i] = a
		}
		log.Info("Configuration loaded successfully", anyAttrs...)

		configInstance = cfg
	})

	return configInstance
}
