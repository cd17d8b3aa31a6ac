package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/daybook/internal/paths"
	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyExportDir  = "export_dir"
	cfgKeyKVDriver   = "kv.driver"
	cfgKeyKVAddr     = "kv.addr"
	cfgKeyKVPassword = "kv.password"
	cfgKeyKVDB       = "kv.db"
	cfgKeyChartType  = "chart.type"
	cfgKeyChartRange = "chart.range"
)

// Environment variables read for the Redis connection, so the password need
// not live in config.yaml.
const (
	envRedisAddr     = "DAYBOOK_REDIS_ADDR"
	envRedisPassword = "DAYBOOK_REDIS_PASSWORD"
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend   string      `yaml:"backend"`
	DataDir   string      `yaml:"data_dir,omitempty"`
	ExportDir string      `yaml:"export_dir,omitempty"`
	KV        kvSection   `yaml:"kv"`
	Chart     chartConfig `yaml:"chart"`
}

type kvSection struct {
	Driver string `yaml:"driver"`
	Addr   string `yaml:"addr,omitempty"`
	DB     int    `yaml:"db,omitempty"`
}

type chartConfig struct {
	Type  string `yaml:"type"`
	Range string `yaml:"range"`
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error; the defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyKVDriver, types.KVDriverFile)
	v.SetDefault(cfgKeyChartType, string(views.ChartCategory))
	v.SetDefault(cfgKeyChartRange, string(views.RangeWeek))
	_ = v.BindEnv(cfgKeyKVAddr, envRedisAddr)
	_ = v.BindEnv(cfgKeyKVPassword, envRedisPassword)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		KV:      kvSection{Driver: types.KVDriverFile},
		Chart:   chartConfig{Type: string(views.ChartCategory), Range: string(views.RangeWeek)},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}

// dataDir resolves the data directory from flag, config.yaml, env or default.
func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.conf.GetString(cfgKeyDataDir))
}

// exportDir resolves where exports and auto-saves are written.
func (a *app) exportDir(flag string) (string, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return "", err
	}
	return paths.ResolveExportDir(flag, a.conf.GetString(cfgKeyExportDir), dataDir)
}

// storeConfig builds the backend configuration for this invocation.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	backend := a.flags.backend
	if backend == "" {
		backend = a.conf.GetString(cfgKeyBackend)
	}
	cfg := types.Config{
		Backend: backend,
		DataDir: dataDir,
		KV: types.KVConfig{
			Driver:   a.conf.GetString(cfgKeyKVDriver),
			Addr:     a.conf.GetString(cfgKeyKVAddr),
			Password: a.conf.GetString(cfgKeyKVPassword),
			DB:       a.conf.GetInt(cfgKeyKVDB),
		},
	}
	return cfg, cfg.Validate()
}

// chartDefaults returns the chart type and range configured in config.yaml.
// Invalid values are reported and replaced with the built-in defaults.
func (a *app) chartDefaults() (views.ChartType, views.Range) {
	chart, err := views.ParseChartType(a.conf.GetString(cfgKeyChartType))
	if err != nil {
		a.logger.Warn("ignoring chart.type in config.yaml", "error", err)
		chart = views.ChartCategory
	}
	r, err := views.ParseRange(a.conf.GetString(cfgKeyChartRange))
	if err != nil {
		a.logger.Warn("ignoring chart.range in config.yaml", "error", err)
		r = views.RangeWeek
	}
	return chart, r
}

func configPath(configDir string) string {
	return filepath.Join(configDir, configFileExt)
}
