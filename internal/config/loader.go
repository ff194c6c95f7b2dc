// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env` file.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `CATALOG_`, where `__` maps to “.”
     (e.g., `CATALOG_DATABASE__HOST → database.host`).

After merging, the tree is unmarshalled into typed structs, defaults are
applied, Vault references are resolved, and the result is validated and
cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  - DEBUG spans: root discovery, YAML read.
  - ERROR spans: YAML parse, env overlay, unmarshal, secret, validation.
  - INFO span: final “config loaded” with key highlights.
  - Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface before the file logger is installed.

Notes
-----
  - `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  - Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/animecatalog/internal/vault"
)

const envPrefix = "CATALOG_"

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves CATALOG_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root directory and loads from it.  Vault references
// are resolved with a client built from VAULT_* variables.
func Load() (*Config, error) {
	return LoadDir(context.Background(), rootDir(), nil)
}

// LoadDir reads .env, YAML, and env overrides under root, resolves secrets
// through sec (a Vault client is created on demand when sec is nil),
// validates, and caches the Config.
func LoadDir(ctx context.Context, root string, sec SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: CATALOG_DATABASE__HOST → database.host
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}
	cfg.Paths.Root = root
	applyDefaults(&cfg)

	if vault.IsRef(cfg.Database.Password) {
		if err := resolvePassword(ctx, &cfg, sec); err != nil {
			zap.S().Errorw("config secret resolution failed", "err", err)
			return nil, err
		}
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"db_host", cfg.Database.Host,
		"db_name", cfg.Database.Name,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func applyDefaults(c *Config) {
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.SchemaFile != "" && !filepath.IsAbs(c.Database.SchemaFile) {
		c.Database.SchemaFile = filepath.Join(c.Paths.Root, c.Database.SchemaFile)
	}
}

func resolvePassword(ctx context.Context, c *Config, sec SecretResolver) error {
	if sec == nil {
		cli, err := vault.New(zap.S())
		if err != nil {
			return err
		}
		sec = cli
	}
	pw, err := sec.Resolve(ctx, c.Database.Password, 0)
	if err != nil {
		return fmt.Errorf("database.password: %w", err)
	}
	c.Database.Password = pw
	return nil
}

// Get returns the last loaded Config, or nil before the first Load.
func Get() *Config { return current.Load() }

// Reload re-reads configuration from the discovered root.
func Reload() error { _, err := Load(); return err }
