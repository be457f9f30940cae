// internal/config/config.go
//
// YAML configuration for both binaries. Missing files fall back to
// defaults so `taskdeck` against a local `taskdeckd` works with no setup.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL is where the client looks for taskdeckd.
	DefaultServerURL = "http://127.0.0.1:8080"
	// DefaultListenAddr is where taskdeckd binds.
	DefaultListenAddr = "127.0.0.1:8080"
	// DefaultRequestTimeout bounds each gateway call.
	DefaultRequestTimeout = 10 * time.Second

	// BackendMemory keeps tasks in process memory.
	BackendMemory = "memory"
	// BackendNeo4j persists tasks in a Neo4j database.
	BackendNeo4j = "neo4j"
)

// ServerRef points the client at a taskdeckd instance.
type ServerRef struct {
	BaseURL               string `yaml:"base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// JournalConfig locates the client's activity journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Client models the taskdeck client configuration file.
type Client struct {
	Version int           `yaml:"version"`
	Server  ServerRef     `yaml:"server"`
	Journal JournalConfig `yaml:"journal"`
}

// Neo4jConfig carries connection details for the Neo4j backend.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Neo4j   Neo4jConfig `yaml:"neo4j"`
}

// Service models the taskdeckd configuration file.
type Service struct {
	Version int           `yaml:"version"`
	Listen  string        `yaml:"listen"`
	Storage StorageConfig `yaml:"storage"`
}

// RequestTimeout returns the per-call timeout for the gateway client.
func (r ServerRef) RequestTimeout() time.Duration {
	if r.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(r.RequestTimeoutSeconds) * time.Second
}

// LoadClient reads the client configuration from path. A missing file
// yields defaults rather than an error.
func LoadClient(path string) (Client, error) {
	cfg := defaultClient()
	if err := readYAML(path, &cfg); err != nil {
		return Client{}, err
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return Client{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadService reads the taskdeckd configuration from path. A missing file
// yields defaults rather than an error.
func LoadService(path string) (Service, error) {
	cfg := defaultService()
	if err := readYAML(path, &cfg); err != nil {
		return Service{}, err
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return Service{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func readYAML(path string, out any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func defaultClient() Client {
	return Client{
		Version: 1,
		Server: ServerRef{
			BaseURL: DefaultServerURL,
		},
		Journal: JournalConfig{
			Path: defaultJournalPath(),
		},
	}
}

func defaultService() Service {
	return Service{
		Version: 1,
		Listen:  DefaultListenAddr,
		Storage: StorageConfig{
			Backend: BackendMemory,
			Neo4j: Neo4jConfig{
				URI:      "neo4j://127.0.0.1:7687",
				Username: "neo4j",
			},
		},
	}
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "taskdeck.log")
	}
	return filepath.Join(home, ".taskdeck", "journal.log")
}

func (c *Client) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		c.Server.BaseURL = DefaultServerURL
	}
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath()
	}
}

func (c *Client) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("TASKDECK_SERVER_URL")); v != "" {
		c.Server.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKDECK_JOURNAL")); v != "" {
		c.Journal.Path = v
	}
}

func (c Client) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	url := strings.TrimSpace(c.Server.BaseURL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("server.base_url must be an http(s) URL, got %q", url)
	}
	return nil
}

func (s *Service) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
	if strings.TrimSpace(s.Listen) == "" {
		s.Listen = DefaultListenAddr
	}
	s.Storage.Backend = strings.ToLower(strings.TrimSpace(s.Storage.Backend))
	if s.Storage.Backend == "" {
		s.Storage.Backend = BackendMemory
	}
}

func (s *Service) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("TASKDECK_LISTEN")); v != "" {
		s.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKDECK_STORAGE")); v != "" {
		s.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("TASKDECK_NEO4J_URI")); v != "" {
		s.Storage.Neo4j.URI = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKDECK_NEO4J_USER")); v != "" {
		s.Storage.Neo4j.Username = v
	}
	if v := os.Getenv("TASKDECK_NEO4J_PASSWORD"); v != "" {
		s.Storage.Neo4j.Password = v
	}
}

func (s Service) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	switch s.Storage.Backend {
	case BackendMemory:
	case BackendNeo4j:
		if strings.TrimSpace(s.Storage.Neo4j.URI) == "" {
			return fmt.Errorf("storage.neo4j.uri is required for the neo4j backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q", BackendMemory, BackendNeo4j)
	}
	return nil
}
