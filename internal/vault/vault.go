// internal/vault/vault.go
//
// Vault client wrapper used to resolve secret references in configuration.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK with KV-v2 reads and per-key caching.
//   - Configuration values of the form `vault:<mount>/<path>#<key>` are
//     resolved once at startup, so no token-renewal loop is kept.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(zap.S())                 // during boot.
//  2. pw,  err := cli.Resolve(ctx, "vault:kv/db#pw")  // or GetKV directly.
//
// Notes
// -----
//   - VAULT_ADDR and VAULT_TOKEN are read from the environment.
//   - Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Prefix marks a configuration value as a Vault reference.
const Prefix = "vault:"

// ErrBadRef is returned for references that are not `vault:mount/path#key`.
var ErrBadRef = errors.New("vault: malformed secret reference")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a client from VAULT_* environment variables.
func New(log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.S()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	return &Client{
		api:   apiCli,
		log:   log,
		cache: make(map[string]cached),
	}, nil
}

// IsRef reports whether s is a Vault reference.
func IsRef(s string) bool { return strings.HasPrefix(s, Prefix) }

// ParseRef splits `vault:mount/path#key` into its secret path and key.
func ParseRef(ref string) (secretPath, key string, err error) {
	if !IsRef(ref) {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	body := strings.TrimPrefix(ref, Prefix)
	secretPath, key, ok := strings.Cut(body, "#")
	if !ok || key == "" || !strings.Contains(secretPath, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return secretPath, key, nil
}

// Resolve returns the secret a reference points to.  Values are cached
// for ttl; pass 0 to bypass the cache.
func (c *Client) Resolve(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	p, k, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, p, k, ttl)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	c.log.Debugw("vault secret resolved", "path", secretPath, "key", key)

	return sval, nil
}

//
// SECTION 2.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return
}
