package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Duration decodes yaml values written as Go duration strings, e.g. "30s"
// or "24h", which yaml.v3 does not handle for time.Duration directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Env string `yaml:"env"`
	// BaseURL is the public base of issued short links. When empty, it is
	// derived per-request from forwarded headers.
	BaseURL    string `yaml:"base_url"`
	StaticDir  string `yaml:"static_dir"`
	HTTPServer `yaml:"http_server"`
	Grist      `yaml:"grist"`
	Session    `yaml:"session"`
}

type HTTPServer struct {
	Port           int      `yaml:"port"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	IdleTimeout    Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int      `yaml:"max_header_bytes"`
	CertFile       string   `yaml:"cert_file"`
	KeyFile        string   `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           3000,
	ReadTimeout:    Duration(5 * time.Second),
	WriteTimeout:   Duration(10 * time.Second),
	IdleTimeout:    Duration(time.Minute),
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Grist struct {
	BaseURL        string   `yaml:"base_url"`
	DocID          string   `yaml:"doc_id"`
	APIKey         string   `yaml:"api_key"`
	UrlsTable      string   `yaml:"urls_table"`
	UsersTable     string   `yaml:"users_table"`
	LoginLogsTable string   `yaml:"login_logs_table"`
	Timeout        Duration `yaml:"timeout"`
}

var defaultGrist = Grist{
	UrlsTable:      "Urls",
	UsersTable:     "Users",
	LoginLogsTable: "LoginLogs",
	Timeout:        Duration(10 * time.Second),
}

type Session struct {
	CookieName string   `yaml:"cookie_name"`
	TTL        Duration `yaml:"ttl"`
}

var defaultSession = Session{
	CookieName: "sid",
	TTL:        Duration(24 * time.Hour),
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	// secrets may come from the environment instead of the file
	if v := os.Getenv("GRIST_API_KEY"); v != "" {
		cfg.Grist.APIKey = v
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	var missing []string
	if cfg.Grist.BaseURL == "" {
		missing = append(missing, "grist.base_url")
	}
	if cfg.Grist.DocID == "" {
		missing = append(missing, "grist.doc_id")
	}
	if cfg.Grist.APIKey == "" {
		missing = append(missing, "grist.api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.HTTPServer = defaultHTTPServer
	cfg.Grist = defaultGrist
	cfg.Session = defaultSession
}
