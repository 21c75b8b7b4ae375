package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is used when no secret is configured. Override it in any
// deployment that leaves the default credentials behind.
const DefaultJWTSecret = "messaging-api-secret-key-2025"

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		DataFile   string `yaml:"data_file"`
		UploadsDir string `yaml:"uploads_dir"`
	} `yaml:"storage"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Login     struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"login_rate_limit"`
	} `yaml:"auth"`
	AutoReply struct {
		// Delay is a Go duration string, e.g. "2s".
		Delay string `yaml:"delay"`
	} `yaml:"auto_reply"`
	Backup struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		Dir     string `yaml:"dir"`
	} `yaml:"backup"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// DataFile returns the snapshot document path, defaulted.
func (c *Config) DataFile() string {
	if c.Storage.DataFile != "" {
		return c.Storage.DataFile
	}
	return "./data/database.json"
}

// UploadsDir returns the image upload directory, defaulted.
func (c *Config) UploadsDir() string {
	if c.Storage.UploadsDir != "" {
		return c.Storage.UploadsDir
	}
	return "./uploads"
}

// JWTSecret returns the token signing secret, defaulted.
func (c *Config) JWTSecret() string {
	if c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	return DefaultJWTSecret
}

// ReplyDelay returns the auto-reply delay, defaulted to 2s. Unparsable
// values fall back to the default.
func (c *Config) ReplyDelay() time.Duration {
	if c.AutoReply.Delay != "" {
		if d, err := time.ParseDuration(c.AutoReply.Delay); err == nil && d > 0 {
			return d
		}
	}
	return 2 * time.Second
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dataFile string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dataPtr := flag.String("data", "./data/database.json", "Path to the snapshot document")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dataPtr, *cfgPtr, setFlags
}

// ResolveConfigPath picks the config file path: explicit flag wins over
// CHATRELAY_CONFIG, which wins over the flag default.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if v := os.Getenv("CHATRELAY_CONFIG"); v != "" {
		return v
	}
	return flagPath
}

// LoadEnvOverrides applies CHATRELAY_* environment overrides onto cfg and
// reports whether any were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false

	if v := os.Getenv("CHATRELAY_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATRELAY_DATA_FILE"); v != "" {
		envUsed = true
		cfg.Storage.DataFile = v
	}
	if v := os.Getenv("CHATRELAY_UPLOADS_DIR"); v != "" {
		envUsed = true
		cfg.Storage.UploadsDir = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		envUsed = true
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CHATRELAY_REPLY_DELAY"); v != "" {
		if _, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.AutoReply.Delay = strings.TrimSpace(v)
		}
	}
	if v := os.Getenv("CHATRELAY_LOGIN_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Auth.Login.RPS = f
		}
	}
	if v := os.Getenv("CHATRELAY_LOGIN_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Auth.Login.Burst = n
		}
	}
	if v := os.Getenv("CHATRELAY_BACKUP_CRON"); v != "" {
		envUsed = true
		cfg.Backup.Enabled = true
		cfg.Backup.Cron = v
	}
	if v := os.Getenv("CHATRELAY_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	return envUsed
}

// LoadEffective merges the config file (when present) with environment
// overrides. A missing file is not an error; env and defaults still apply.
func LoadEffective(path string) (*Config, bool, error) {
	cfg := &Config{}
	fileUsed := false
	if path != "" {
		if loaded, err := Load(path); err == nil {
			cfg = loaded
			fileUsed = true
		} else if !strings.Contains(err.Error(), "not found") {
			return nil, false, err
		}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, fileUsed || envUsed, nil
}
