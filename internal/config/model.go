// internal/config/model.go
//
// Typed configuration model for the catalog service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `.env`                           – dotenv values,
//   - `conf/global.yaml`                        – primary static file,
//   - `CATALOG_`-prefixed environment overrides – highest precedence.
//
// A `database.password` of the form `vault:<mount>/<path>#<key>` is
// resolved through Vault before validation, so the model never hands a
// Vault URI to the driver.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	StaticDir  string `koanf:"static_dir"`
	GeoIPDB    string `koanf:"geoip_db"` // optional GeoLite2-Country.mmdb path
}

//
// Database section
//

// Database describes the MySQL server and the application database.
//
// LockTimeout > 0 enables the advisory lock that serialises concurrent
// initialisations across replicas.
type Database struct {
	Host        string        `koanf:"host"         validate:"required"`
	Port        int           `koanf:"port"         validate:"omitempty,min=1,max=65535"`
	User        string        `koanf:"user"         validate:"required"`
	Password    string        `koanf:"password"`
	Name        string        `koanf:"name"         validate:"required,max=64"`
	SchemaFile  string        `koanf:"schema_file"`
	MaxOpen     int           `koanf:"max_open"     validate:"omitempty,min=1"`
	MaxIdle     int           `koanf:"max_idle"`
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

//
// Log section
//

// Log controls the process logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CATALOG_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}
