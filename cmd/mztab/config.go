package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "mztab"
	configFileType = "yaml"
	envPrefix      = "MZTAB"

	cfgKeyLogLevel  = "log_level"
	cfgKeyLogPretty = "log_pretty"
	cfgKeyStrict    = "strict"
	cfgKeyCRLF      = "crlf"
)

// loadConfig reads mztab.yaml with Viper. An explicit path must exist; a
// missing file in the default locations is not an error.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogPretty, false)
	v.SetDefault(cfgKeyStrict, false)
	v.SetDefault(cfgKeyCRLF, false)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mztab"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
