// Package config loads the monitor's configuration file. The file may be
// JSON or YAML; both decode through the YAML parser.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ethmon/pkg/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath          = "config.json"
	DefaultTitle         = "ethmon"
	DefaultListen        = ":3000"
	DefaultPollMillis    = 5000
	DefaultTimeoutMillis = 5000
	DefaultWebRefresh    = 10
)

// File mirrors the on-disk configuration.
type File struct {
	Title            string       `yaml:"title"`
	Header           string       `yaml:"header"`
	Animation        bool         `yaml:"animation"`
	WebRefresh       int          `yaml:"web_refresh"`
	Tolerance        float64      `yaml:"tolerance"`
	Temperature      interface{}  `yaml:"temperature"`
	Hashrates        interface{}  `yaml:"hashrates"`
	MinerPoll        int          `yaml:"miner_poll"`
	MinerTimeout     int          `yaml:"miner_timeout"`
	ObjectID         string       `yaml:"object_id"`
	Listen           string       `yaml:"listen"`
	LogLevel         string       `yaml:"log_level"`
	LogstashEnable   bool         `yaml:"logstash_enable"`
	LogstashHost     string       `yaml:"logstash_host"`
	LogstashPort     int          `yaml:"logstash_port"`
	LogstashURL      string       `yaml:"logstash_url"`
	UseAnotherConfig string       `yaml:"use_another_config"`
	Miners           []MinerEntry `yaml:"miners"`
}

// MinerEntry is one rig as written in the file. Poll and timeout are
// milliseconds; when absent the global values apply.
type MinerEntry struct {
	Name      string   `yaml:"name"`
	Host      string   `yaml:"host"`
	Port      int      `yaml:"port"`
	Hostname  string   `yaml:"hostname"`
	Poll      *int     `yaml:"poll"`
	Timeout   *int     `yaml:"timeout"`
	TargetEth *float64 `yaml:"target_eth"`
	TargetDcr *float64 `yaml:"target_dcr"`
	Comments  string   `yaml:"comments"`
	Offline   bool     `yaml:"offline"`
}

// Logstash selects the optional event shipping targets.
type Logstash struct {
	UDPAddr string // Empty when UDP shipping is disabled
	URL     string // Empty when HTTP shipping is disabled
}

// Config is the resolved configuration handed to the rest of the process.
type Config struct {
	Source    string
	Title     string
	Header    string
	Animation bool
	Refresh   int
	Tolerance float64
	// Display thresholds handed to the dashboard as written.
	Temperature interface{}
	Hashrates   interface{}
	ObjectID    string
	Listen      string
	LogLevel    string
	Logstash    Logstash
	Rigs        []models.RigConfig
}

// Load reads .env (if present), the file at path and environment overrides.
// A use_another_config entry redirects to another file once, resolved
// relative to the first file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if file.UseAnotherConfig != "" {
		next := file.UseAnotherConfig
		if !filepath.IsAbs(next) {
			next = filepath.Join(filepath.Dir(path), next)
		}
		path = next
		if file, err = readFile(path); err != nil {
			return nil, err
		}
	}

	applyEnv(file)

	cfg, err := file.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

func readFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes configuration text.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &file, nil
}

func applyEnv(file *File) {
	if value, ok := os.LookupEnv("ETHMON_LISTEN"); ok && value != "" {
		file.Listen = value
	}
	if value, ok := os.LookupEnv("ETHMON_LOG_LEVEL"); ok && value != "" {
		file.LogLevel = value
	}
}

// Resolve applies defaults and per-rig overrides and validates the result.
func (f *File) Resolve() (*Config, error) {
	if len(f.Miners) == 0 {
		return nil, ErrNoMiners
	}
	if f.Tolerance < 0 || f.Tolerance >= 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTolerance, f.Tolerance)
	}
	if f.WebRefresh < 0 {
		return nil, fmt.Errorf("%w: web_refresh %d", ErrInvalidSetting, f.WebRefresh)
	}

	cfg := &Config{
		Title:       valueOr(f.Title, DefaultTitle),
		Header:      f.Header,
		Animation:   f.Animation,
		Refresh:     f.WebRefresh,
		Tolerance:   f.Tolerance,
		Temperature: f.Temperature,
		Hashrates:   f.Hashrates,
		ObjectID:    f.ObjectID,
		Listen:      valueOr(f.Listen, DefaultListen),
		LogLevel:    f.LogLevel,
	}
	if cfg.Refresh == 0 {
		cfg.Refresh = DefaultWebRefresh
	}

	if f.LogstashEnable {
		if f.LogstashHost == "" || f.LogstashPort <= 0 || f.LogstashPort > 65535 {
			return nil, fmt.Errorf("%w: logstash_host and logstash_port are required when logstash_enable is set", ErrInvalidSetting)
		}
		cfg.Logstash.UDPAddr = net.JoinHostPort(f.LogstashHost, strconv.Itoa(f.LogstashPort))
	}
	if f.LogstashURL != "" {
		if !strings.HasPrefix(f.LogstashURL, "http://") && !strings.HasPrefix(f.LogstashURL, "https://") {
			return nil, fmt.Errorf("%w: logstash_url must start with http:// or https://", ErrInvalidSetting)
		}
		cfg.Logstash.URL = f.LogstashURL
	}

	poll := millisOr(f.MinerPoll, DefaultPollMillis)
	timeout := millisOr(f.MinerTimeout, DefaultTimeoutMillis)

	cfg.Rigs = make([]models.RigConfig, len(f.Miners))
	for i, entry := range f.Miners {
		rig, err := entry.resolve(poll, timeout)
		if err != nil {
			return nil, fmt.Errorf("miners[%d]: %w", i, err)
		}
		cfg.Rigs[i] = rig
	}
	return cfg, nil
}

func (m MinerEntry) resolve(poll, timeout time.Duration) (models.RigConfig, error) {
	if strings.TrimSpace(m.Name) == "" {
		return models.RigConfig{}, fmt.Errorf("%w: name is required", ErrInvalidMiner)
	}
	if strings.TrimSpace(m.Host) == "" {
		return models.RigConfig{}, fmt.Errorf("%w: %s: host is required", ErrInvalidMiner, m.Name)
	}
	if m.Port <= 0 || m.Port > 65535 {
		return models.RigConfig{}, fmt.Errorf("%w: %s: port %d out of range", ErrInvalidMiner, m.Name, m.Port)
	}
	if m.Poll != nil {
		poll = time.Duration(*m.Poll) * time.Millisecond
	}
	if m.Timeout != nil {
		timeout = time.Duration(*m.Timeout) * time.Millisecond
	}
	if poll <= 0 || timeout <= 0 {
		return models.RigConfig{}, fmt.Errorf("%w: %s: poll and timeout must be positive", ErrInvalidMiner, m.Name)
	}

	return models.RigConfig{
		Name:            m.Name,
		Host:            strings.TrimSpace(m.Host),
		Port:            m.Port,
		Hostname:        m.Hostname,
		Poll:            poll,
		Timeout:         timeout,
		TargetPrimary:   m.TargetEth,
		TargetSecondary: m.TargetDcr,
		Comment:         m.Comments,
		Offline:         m.Offline,
	}, nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func millisOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}
