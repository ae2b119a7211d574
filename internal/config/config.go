package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mediaup/internal/transport"

	"github.com/ilyakaznacheev/cleanenv"
)

// Client is the configuration shared by the mediaup commands. Values come
// from an optional YAML file, then the environment; flags override both.
type Client struct {
	BaseURL     string        `yaml:"base_url" env:"MEDIAUP_BASE_URL" env-default:"https://localhost:8001"`
	UploadPath  string        `yaml:"upload_path" env:"MEDIAUP_UPLOAD_PATH" env-default:"/whispers/process_videos"`
	Field       string        `yaml:"field" env:"MEDIAUP_FIELD" env-default:"files"`
	Timeout     time.Duration `yaml:"timeout" env:"MEDIAUP_TIMEOUT" env-default:"5m"`
	InsecureTLS bool          `yaml:"insecure_tls" env:"MEDIAUP_INSECURE_TLS" env-default:"false"`
	Extensions  []string      `yaml:"extensions" env:"MEDIAUP_EXTENSIONS" env-default:".mp4,.webm"`
	OutputDir   string        `yaml:"output_dir" env:"MEDIAUP_OUTPUT_DIR" env-default:"."`
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// LoadClient reads path (if non-empty) and the environment into a Client.
func LoadClient(path string) (*Client, error) {
	cfg := &Client{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Endpoint resolves the upload URL: an explicit endpoint wins, otherwise
// UploadPath is joined onto BaseURL.
func (c *Client) Endpoint(explicit string) (string, error) {
	if explicit != "" {
		if err := transport.CheckEndpoint(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}
	return transport.Join(c.BaseURL, c.UploadPath)
}

func (c *Client) Validate() error {
	if err := transport.CheckEndpoint(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if strings.TrimSpace(c.Field) == "" {
		return errors.New("field name is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// Server configures the stub transcription/report service.
type Server struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"8001"`
	ReportDBDSN     string        `yaml:"report_db_dsn" env:"REPORT_DB_DSN"`
	MembersSeed     string        `yaml:"members_seed" env:"MEMBERS_SEED"`
	OpenAPISpecPath string        `yaml:"openapi_spec_path" env:"OPENAPI_SPEC_PATH"`
	MaxMemory       int64         `yaml:"max_memory" env:"MULTIPART_MAX_MEMORY" env-default:"33554432"`
	GCPProjectID    string        `yaml:"gcp_project_id" env:"GCP_PROJECT_ID"`
	PubSubTopic     string        `yaml:"pubsub_topic" env:"PUBSUB_TOPIC"`
	PubSubMode      string        `yaml:"pubsub_mode" env:"PUBSUB_MODE" env-default:"cloud"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	TLSCertFile     string        `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile      string        `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

func LoadServer(path string) (*Server, error) {
	cfg := &Server{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	if cfg.PubSubTopic != "" && cfg.GCPProjectID == "" {
		return nil, errors.New("GCP_PROJECT_ID is required when PUBSUB_TOPIC is set")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return cfg, nil
}

func load(path string, cfg any) error {
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return nil
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
