package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MongoCredentials is the persisted account file for the document store.
type MongoCredentials struct {
	URI        string `mapstructure:"uri"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	AuthSource string `mapstructure:"authSource"`
}

// HasAccount reports whether the file carries a username/password pair.
func (c MongoCredentials) HasAccount() bool {
	return c.Username != ""
}

// LoadMongoCredentials reads a JSON or YAML credential file.
func LoadMongoCredentials(path string) (MongoCredentials, error) {
	var creds MongoCredentials

	v := viper.New()
	v.SetConfigFile(path)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "json", "yaml", "yml":
		v.SetConfigType(ext)
	default:
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		return creds, fmt.Errorf("read mongo credentials %s: %w", path, err)
	}
	if err := v.Unmarshal(&creds); err != nil {
		return creds, fmt.Errorf("decode mongo credentials %s: %w", path, err)
	}
	return creds, nil
}
