package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Solr      SolrConfig      `mapstructure:"solr"`
	Languages LanguagesConfig `mapstructure:"languages"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SolrConfig contains Schema API connection settings
type SolrConfig struct {
	BaseURL   string `mapstructure:"base_url"` // e.g. http://localhost:8983/solr
	Core      string `mapstructure:"core"`     // core or collection whose schema is managed
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Timeout   int    `mapstructure:"timeout"`    // in seconds
	// BatchSize is the number of operations per Schema API request, 0 sends the whole
	// plan at once. Batches commit independently: if a later batch fails, the fields
	// removed by earlier ones stay missing until the next successful run.
	BatchSize int `mapstructure:"batch_size"`
}

// LanguagesConfig selects where configured language codes come from
type LanguagesConfig struct {
	Source   string                 `mapstructure:"source"` // static, mongodb or postgres
	Codes    []string               `mapstructure:"codes"`  // used by the static source
	MongoDB  MongoLanguagesConfig   `mapstructure:"mongodb"`
	Postgres PostgresLanguageConfig `mapstructure:"postgres"`
}

// MongoLanguagesConfig reads language codes from a MongoDB collection
type MongoLanguagesConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	Field      string `mapstructure:"field"` // document field holding the ISO code
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Timeout    int    `mapstructure:"timeout"` // in seconds
}

// PostgresLanguageConfig reads language codes with a single-column query
type PostgresLanguageConfig struct {
	DSN   string `mapstructure:"dsn"`
	Query string `mapstructure:"query"`
}

// ReconcileConfig contains reconciliation loop settings
type ReconcileConfig struct {
	Interval  int    `mapstructure:"interval"` // in seconds, 0 disables periodic runs
	DryRun    bool   `mapstructure:"dry_run"`
	StatePath string `mapstructure:"state_path"`
	LockPath  string `mapstructure:"lock_path"`    // empty disables the inter-process lock
	LockWait  int    `mapstructure:"lock_timeout"` // in seconds
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/solr-schema-sync")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("SOLRSCHEMA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("solr.base_url", "http://localhost:8983/solr")
	viper.SetDefault("solr.core", "")
	viper.SetDefault("solr.username", "")
	viper.SetDefault("solr.password", "")
	viper.SetDefault("solr.timeout", 30)
	viper.SetDefault("solr.batch_size", 0)
	viper.SetDefault("languages.source", "static")
	viper.SetDefault("languages.codes", []string{"en"})
	viper.SetDefault("languages.mongodb.uri", "")
	viper.SetDefault("languages.mongodb.database", "")
	viper.SetDefault("languages.mongodb.username", "")
	viper.SetDefault("languages.mongodb.password", "")
	viper.SetDefault("languages.mongodb.collection", "languages")
	viper.SetDefault("languages.mongodb.field", "iso")
	viper.SetDefault("languages.mongodb.timeout", 30)
	viper.SetDefault("languages.postgres.dsn", "")
	viper.SetDefault("languages.postgres.query", "SELECT iso FROM languages")
	viper.SetDefault("reconcile.interval", 0)
	viper.SetDefault("reconcile.dry_run", false)
	viper.SetDefault("reconcile.state_path", "./reconcile_state.json")
	viper.SetDefault("reconcile.lock_path", "")
	viper.SetDefault("reconcile.lock_timeout", 30)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.Solr.Core == "" {
		return fmt.Errorf("solr.core is required")
	}
	switch c.Languages.Source {
	case "static":
	case "mongodb":
		if c.Languages.MongoDB.Database == "" {
			return fmt.Errorf("languages.mongodb.database is required for the mongodb source")
		}
	case "postgres":
		if c.Languages.Postgres.DSN == "" {
			return fmt.Errorf("languages.postgres.dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown languages.source %q", c.Languages.Source)
	}
	return nil
}

// RequestTimeout returns the Schema API timeout
func (c *SolrConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SchemaURL returns the Schema API endpoint of the configured core
func (c *SolrConfig) SchemaURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.Core + "/schema"
}

// GetMongoURI returns the complete MongoDB connection URI
func (c *MongoLanguagesConfig) GetMongoURI() string {
	if c.URI != "" {
		return c.URI
	}

	// Build URI from components if not provided directly
	uri := "mongodb://"
	if c.Username != "" && c.Password != "" {
		uri += fmt.Sprintf("%s:%s@", c.Username, c.Password)
	}
	uri += "localhost:27017"
	return uri
}

// IntervalDuration returns the periodic reconcile interval
func (c *ReconcileConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// LockTimeout returns how long to wait for the reconcile lock
func (c *ReconcileConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockWait) * time.Second
}
