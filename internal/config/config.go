package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// current holds the most recently loaded configuration.
var current atomic.Pointer[Config]

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Study    StudyConfig    `mapstructure:"study"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	// AdminTokenHash is the bcrypt hash of the experimenter bearer token.
	AdminTokenHash string `mapstructure:"admin_token_hash"`
	// CreateLimit is the number of sessions one client may create per minute.
	CreateLimit uint `mapstructure:"create_limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres or sqlite
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// StudyConfig points at the study design and controls live sessions.
type StudyConfig struct {
	DesignFile string `mapstructure:"design_file"`
	DataDir    string `mapstructure:"data_dir"`
	// Clock is "client" (elapsed time comes from tick events) or "server"
	// (elapsed time is measured between received events).
	Clock       string        `mapstructure:"clock"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	ReapEvery   time.Duration `mapstructure:"reap_every"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me")
	v.SetDefault("server.admin_token_hash", "")
	v.SetDefault("server.create_limit", 10)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "fitts-db")
	v.SetDefault("database.path", "data/fitts.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Study defaults
	v.SetDefault("study.design_file", "config/study.yaml")
	v.SetDefault("study.data_dir", "data")
	v.SetDefault("study.clock", "client")
	v.SetDefault("study.idle_timeout", 30*time.Minute)
	v.SetDefault("study.reap_every", time.Minute)
}

// Load reads config/config.yaml under projectRoot, overlays FITTS_*
// environment variables and publishes the result through Current.
func Load(projectRoot string) (*viper.Viper, *Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FITTS") // e.g., FITTS_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	conf, err := decode(v, projectRoot)
	if err != nil {
		return nil, nil, err
	}
	current.Store(conf)
	return v, conf, nil
}

// Watch hot-reloads the configuration when the file changes. A file that
// fails to decode keeps the previous configuration in place.
func Watch(v *viper.Viper, projectRoot string, log *zap.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		conf, err := decode(v, projectRoot)
		if err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		current.Store(conf)
	})
	v.WatchConfig()
}

// Current returns the active configuration, or nil before Load.
func Current() *Config {
	return current.Load()
}

func decode(v *viper.Viper, projectRoot string) (*Config, error) {
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	switch conf.Study.Clock {
	case "client", "server":
	default:
		return nil, fmt.Errorf("unknown study clock %q", conf.Study.Clock)
	}
	if conf.Database.Driver != "postgres" && conf.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unknown database driver %q", conf.Database.Driver)
	}
	conf.Study.DesignFile = resolve(projectRoot, conf.Study.DesignFile)
	conf.Study.DataDir = resolve(projectRoot, conf.Study.DataDir)
	conf.Logging.Directory = resolve(projectRoot, conf.Logging.Directory)
	if conf.Database.Driver == "sqlite" && conf.Database.Path != ":memory:" {
		conf.Database.Path = resolve(projectRoot, conf.Database.Path)
	}
	return &conf, nil
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
