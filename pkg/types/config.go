package types

import "errors"

// Config holds backend selection and parameters for opening a store.
type Config struct {
	Backend string   `json:"backend" yaml:"backend"`
	DataDir string   `json:"data_dir" yaml:"data_dir"`
	KV      KVConfig `json:"kv" yaml:"kv"`
}

// KVConfig selects the blob store behind the key-value fallback backend.
type KVConfig struct {
	Driver   string `json:"driver" yaml:"driver"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
}

// Supported backend names. BackendSQLite is the embedded document store;
// BackendKV is the key-value fallback.
const (
	BackendSQLite = "sqlite"
	BackendKV     = "kv"
)

// Supported key-value drivers.
const (
	KVDriverFile  = "file"
	KVDriverRedis = "redis"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrKVDriverUnknown = errors.New("unknown kv driver")
	ErrKVAddrEmpty     = errors.New("redis kv driver requires an address")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendKV:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. An empty KV driver means the file driver.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.KV.Driver {
	case "", KVDriverFile:
	case KVDriverRedis:
		if c.KV.Addr == "" {
			return ErrKVAddrEmpty
		}
	default:
		return ErrKVDriverUnknown
	}
	return nil
}
