package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
	// BackendFirestore keeps snapshots in Firestore and chat history in memory.
	BackendFirestore = "firestore"
)

// DefaultFiles are probed, in order, when no config path is given.
var DefaultFiles = []string{"easel.yaml", "easel.yml", "easel.json"}

// Config is the complete server configuration.
type Config struct {
	Server       ServerConfig  `yaml:"server" json:"server"`
	OpenAI       OpenAIConfig  `yaml:"openai" json:"openai"`
	Store        StoreConfig   `yaml:"store" json:"store"`
	Log          LogConfig     `yaml:"log" json:"log"`
	Canvas       domain.Canvas `yaml:"canvas" json:"canvas"`
	MaxInputSize int           `yaml:"max_input_size" json:"max_input_size"`
	// MaxSessions caps the session documents kept live in memory.
	MaxSessions int `yaml:"max_sessions" json:"max_sessions"`
}

type ServerConfig struct {
	Port           int    `yaml:"port" json:"port"`
	FrontendOrigin string `yaml:"frontend_origin" json:"frontend_origin"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	// Model is the default for edit requests that name none.
	Model string `yaml:"model" json:"model"`
	// SlideModel is used for slide rewrites.
	SlideModel string `yaml:"slide_model" json:"slide_model"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
}

type StoreConfig struct {
	Backend       string   `yaml:"backend" json:"backend"`
	RedisAddr     string   `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string   `yaml:"redis_password" json:"redis_password"`
	RedisDB       int      `yaml:"redis_db" json:"redis_db"`
	TTL           Duration `yaml:"ttl" json:"ttl"`
	DataDir       string   `yaml:"data_dir" json:"data_dir"`
	// FirestoreProject is the Google Cloud project of the firestore backend.
	FirestoreProject    string `yaml:"firestore_project" json:"firestore_project"`
	FirestoreCollection string `yaml:"firestore_collection" json:"firestore_collection"`
	// EncryptionKey enables at-rest encryption of snapshots (32 bytes, hex or base64).
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	JSON  bool   `yaml:"json" json:"json"`
}

// Duration accepts "90s"-style strings in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           5000,
			FrontendOrigin: "http://localhost:5173",
		},
		OpenAI: OpenAIConfig{
			Model:      "gpt-4",
			SlideModel: "gpt-4.1",
			BaseURL:    "https://api.openai.com/v1",
		},
		Store: StoreConfig{
			Backend:   BackendMemory,
			RedisAddr: "localhost:6379",
			DataDir:   filepath.Join(".easel", "canvas"),
		},
		Log:          LogConfig{Level: "info"},
		Canvas:       domain.DefaultCanvas,
		MaxInputSize: 4096,
		MaxSessions:  1024,
	}
}

// Load reads the config file at path, applies environment overrides and
// validates the result. An empty path probes DefaultFiles in the working
// directory and falls back to defaults when none exists.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range DefaultFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	str("FRONTEND_URL", &c.Server.FrontendOrigin)
	str("FRONTEND_ORIGIN", &c.Server.FrontendOrigin)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.SlideModel)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("EASEL_STORE", &c.Store.Backend)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PASSWORD", &c.Store.RedisPassword)
	str("EASEL_DATA_DIR", &c.Store.DataDir)
	str("GOOGLE_CLOUD_PROJECT", &c.Store.FirestoreProject)
	str("FIRESTORE_PROJECT", &c.Store.FirestoreProject)
	str("EASEL_ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("EASEL_LOG_LEVEL", &c.Log.Level)
	if err := num("EASEL_MAX_INPUT_SIZE", &c.MaxInputSize); err != nil {
		return err
	}
	return num("EASEL_MAX_SESSIONS", &c.MaxSessions)
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendFile:
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("store backend firestore needs firestore_project")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want memory, redis, file or firestore)", c.Store.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Canvas.MaxX() < 0 || c.Canvas.MaxY() < 0 {
		return fmt.Errorf("canvas %dx%d is smaller than its element allowance", c.Canvas.Width, c.Canvas.Height)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("max_input_size must be positive, got %d", c.MaxInputSize)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", c.MaxSessions)
	}
	return nil
}
