package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type StorageConfig struct {
	Root string `yaml:"root"`
}

type JobStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxJobs       int    `yaml:"max_jobs"`
}

// SynthesisConfig tunes the text-to-audio pipeline.
type SynthesisConfig struct {
	Mode            string `yaml:"mode"` // mock, edge
	DefaultLanguage string `yaml:"default_language"`
	ChunkCharLimit  int    `yaml:"chunk_char_limit"`
	MaxAttempts     int    `yaml:"max_attempts"`
	InitialDelayMS  int    `yaml:"initial_delay_ms"`
	MaxDelayMS      int    `yaml:"max_delay_ms"`
	ChunkTimeoutMS  int    `yaml:"chunk_timeout_ms"`
	Rate            string `yaml:"rate"`
	Volume          string `yaml:"volume"`
	Pitch           string `yaml:"pitch"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Storage     StorageConfig   `yaml:"storage"`
	JobStore    JobStoreConfig  `yaml:"job_store"`
	Synthesis   SynthesisConfig `yaml:"synthesis"`
}

func Default() Config {
	return Config{
		ServiceName: "lecture-audio",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Storage: StorageConfig{
			Root: "./storage/chapter_lectures",
		},
		JobStore: JobStoreConfig{
			Path:          "./data/lecture-jobs.db",
			RetentionDays: 30,
			MaxJobs:       10000,
		},
		Synthesis: SynthesisConfig{
			Mode:            "edge",
			DefaultLanguage: "English",
			ChunkCharLimit:  2000,
			MaxAttempts:     3,
			InitialDelayMS:  500,
			MaxDelayMS:      8000,
			ChunkTimeoutMS:  45000,
			Rate:            "+0%",
			Volume:          "+0%",
			Pitch:           "+0Hz",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "EDINAI_SERVICE_NAME")
	overrideString(&cfg.Environment, "EDINAI_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "EDINAI_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "EDINAI_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "EDINAI_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "EDINAI_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "EDINAI_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "EDINAI_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "EDINAI_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "EDINAI_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "EDINAI_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "EDINAI_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "EDINAI_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "EDINAI_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "EDINAI_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "EDINAI_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "EDINAI_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Storage.Root, "EDINAI_STORAGE_ROOT")
	overrideString(&cfg.JobStore.Path, "EDINAI_JOB_STORE_PATH")
	overrideInt(&cfg.JobStore.RetentionDays, "EDINAI_JOB_STORE_RETENTION_DAYS")
	overrideInt(&cfg.JobStore.MaxJobs, "EDINAI_JOB_STORE_MAX_JOBS")
	overrideString(&cfg.Synthesis.Mode, "EDINAI_SYNTHESIS_MODE")
	overrideString(&cfg.Synthesis.DefaultLanguage, "EDINAI_SYNTHESIS_DEFAULT_LANGUAGE")
	overrideInt(&cfg.Synthesis.ChunkCharLimit, "EDINAI_SYNTHESIS_CHUNK_CHAR_LIMIT")
	overrideInt(&cfg.Synthesis.MaxAttempts, "EDINAI_SYNTHESIS_MAX_ATTEMPTS")
	overrideInt(&cfg.Synthesis.InitialDelayMS, "EDINAI_SYNTHESIS_INITIAL_DELAY_MS")
	overrideInt(&cfg.Synthesis.MaxDelayMS, "EDINAI_SYNTHESIS_MAX_DELAY_MS")
	overrideInt(&cfg.Synthesis.ChunkTimeoutMS, "EDINAI_SYNTHESIS_CHUNK_TIMEOUT_MS")
	overrideString(&cfg.Synthesis.Rate, "EDINAI_SYNTHESIS_RATE")
	overrideString(&cfg.Synthesis.Volume, "EDINAI_SYNTHESIS_VOLUME")
	overrideString(&cfg.Synthesis.Pitch, "EDINAI_SYNTHESIS_PITCH")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Storage.Root == "" {
		return errors.New("storage.root must not be empty")
	}
	if cfg.JobStore.Path == "" {
		return errors.New("job_store.path must not be empty")
	}
	if cfg.JobStore.RetentionDays < 0 {
		return errors.New("job_store.retention_days must be >= 0")
	}
	switch cfg.Synthesis.Mode {
	case "mock", "edge":
	default:
		return errors.New("synthesis.mode must be one of mock|edge")
	}
	if cfg.Synthesis.ChunkCharLimit <= 0 {
		return errors.New("synthesis.chunk_char_limit must be positive")
	}
	if cfg.Synthesis.MaxAttempts <= 0 {
		return errors.New("synthesis.max_attempts must be >= 1")
	}
	if cfg.Synthesis.InitialDelayMS <= 0 {
		return errors.New("synthesis.initial_delay_ms must be positive")
	}
	if cfg.Synthesis.MaxDelayMS < cfg.Synthesis.InitialDelayMS {
		return errors.New("synthesis.max_delay_ms must be >= initial_delay_ms")
	}
	if cfg.Synthesis.ChunkTimeoutMS <= 0 {
		return errors.New("synthesis.chunk_timeout_ms must be positive")
	}
	return nil
}
