// server/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring the YAML layout ---

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

type MongoConfig struct {
	URI             string        `mapstructure:"uri"`
	DBName          string        `mapstructure:"dbName"`
	CredentialsFile string        `mapstructure:"credentialsFile"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// Enabled reports whether scan images should be archived.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type ScanConfig struct {
	Cooldown      time.Duration `mapstructure:"cooldown"`
	MaxImageBytes int64         `mapstructure:"maxImageBytes"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// --- Root config ---

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	S3     S3Config     `mapstructure:"s3"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Admin  AdminConfig  `mapstructure:"admin"`
}

var envBindings = map[string]string{
	"server.port":           "SERVER_PORT",
	"server.mode":           "GIN_MODE",
	"server.allowedOrigins": "CORS_ALLOWED_ORIGINS",
	"log.level":             "LOG_LEVEL",
	"log.env":               "APP_ENV",
	"mongo.uri":             "MONGO_URI",
	"mongo.dbName":          "MONGO_DBNAME",
	"mongo.credentialsFile": "MONGO_CREDENTIALS_FILE",
	"mongo.timeout":         "MONGO_TIMEOUT",
	"redis.addr":            "REDIS_ADDR",
	"redis.password":        "REDIS_PASSWORD",
	"redis.db":              "REDIS_DB",
	"jwt.secret":            "JWT_SECRET",
	"jwt.expiration":        "JWT_EXPIRATION",
	"jwt.issuer":            "JWT_ISSUER",
	"s3.bucket":             "S3_BUCKET",
	"s3.region":             "S3_REGION",
	"s3.accessKeyID":        "S3_ACCESS_KEY_ID",
	"s3.secretAccessKey":    "S3_SECRET_ACCESS_KEY",
	"s3.cloudFrontDomain":   "S3_CLOUDFRONT_DOMAIN",
	"scan.cooldown":         "SCAN_COOLDOWN",
	"scan.maxImageBytes":    "SCAN_MAX_IMAGE_BYTES",
	"admin.email":           "ADMIN_EMAIL",
	"admin.password":        "ADMIN_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "production")
	v.SetDefault("mongo.dbName", "reagent_inventory")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("jwt.issuer", "reagent-inventory")
	v.SetDefault("scan.cooldown", 3*time.Second)
	v.SetDefault("scan.maxImageBytes", int64(8<<20))
	v.SetDefault("admin.email", "admin@example.com")
}

// LoadConfig reads config.yaml from path and overrides it with environment variables.
// A missing file is not an error; the environment and defaults are used instead.
func LoadConfig(path string) (Config, error) {
	var config Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return config, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}

	if config.Mongo.CredentialsFile != "" {
		creds, err := LoadMongoCredentials(config.Mongo.CredentialsFile)
		if err != nil {
			return config, err
		}
		if creds.URI != "" {
			config.Mongo.URI = creds.URI
		}
	}

	return config, config.Validate()
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	if c.Scan.Cooldown < 0 {
		return errors.New("scan.cooldown must not be negative")
	}
	if c.Scan.MaxImageBytes <= 0 {
		return errors.New("scan.maxImageBytes must be positive")
	}
	if c.S3.Enabled() && c.S3.Region == "" {
		return errors.New("s3.region is required when s3.bucket is set")
	}
	return nil
}
