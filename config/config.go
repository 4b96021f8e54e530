// Package config wires the viper configuration engine: defaults, environment bindings and the toml config file.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/filesystem"
	"github.com/vidora/vidora/where"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.Vidora)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Vidora)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// Seconds reads an integer key holding a number of seconds as a time.Duration.
// Non-positive values fall back to the registered default.
func Seconds(key string) time.Duration {
	n := viper.GetInt(key)
	if n <= 0 {
		if f, ok := Default[key]; ok {
			if v, ok := f.Value.(int); ok {
				n = v
			}
		}
	}
	return time.Duration(n) * time.Second
}
