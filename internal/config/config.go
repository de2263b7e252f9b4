package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminSeedConfig `mapstructure:"admin"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres, sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cacheTTL"` // seconds, 0 keeps entries forever
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type AdminSeedConfig struct {
	DefaultUsername string `mapstructure:"defaultUsername"`
	DefaultPassword string `mapstructure:"defaultPassword"`
}

type OptimizerConfig struct {
	Workers     int `mapstructure:"workers"`
	ShardSize   int `mapstructure:"shardSize"`
	MaxPoolSize int `mapstructure:"maxPoolSize"`
}

type DatasetConfig struct {
	MaxHandSize int `mapstructure:"maxHandSize"`
	MaxItems    int `mapstructure:"maxItems"`
	Workers     int `mapstructure:"workers"`
}

type LLMConfig struct {
	BaseURL   string `mapstructure:"baseURL"`
	APIKey    string `mapstructure:"apiKey"`
	Model     string `mapstructure:"model"`
	Timeout   int    `mapstructure:"timeout"` // seconds
	RulesPath string `mapstructure:"rulesPath"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("redis.cacheTTL", 86400)
	v.SetDefault("jwt.expire", 24)
	v.SetDefault("optimizer.workers", 4)
	v.SetDefault("optimizer.shardSize", 64)
	v.SetDefault("optimizer.maxPoolSize", 16)
	v.SetDefault("dataset.maxHandSize", 8)
	v.SetDefault("dataset.maxItems", 5000)
	v.SetDefault("dataset.workers", 4)
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.rulesPath", "README.md")
}

// Load reads the YAML file at path. Keys can be overridden from the
// environment, e.g. BALLMATRO_DATABASE_DSN for database.dsn.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BALLMATRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}
	GlobalConfig = cfg
}
