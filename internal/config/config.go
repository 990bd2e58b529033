// Package config loads memex-vc settings from $HOME/.memex-vc/config.toml,
// MEMEX_VC_* environment variables and defaults, in that precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/systemshift/memex-vc/internal/dag"
	"github.com/systemshift/memex-vc/internal/policy"
	"github.com/systemshift/memex-vc/internal/store"
)

const (
	configDirName = ".memex-vc"
	envPrefix     = "MEMEX_VC"
)

// Config holds every setting the CLI wires together.
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Store    StoreConfig    `mapstructure:"store"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Identity IdentityConfig `mapstructure:"identity"`
}

// StoreConfig selects the content store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	KuboAPI string `mapstructure:"kubo_api"`
}

// PolicyConfig tunes the publication policy.
type PolicyConfig struct {
	LinkCheck string `mapstructure:"link_check"`
	MaxChain  int    `mapstructure:"max_chain"`
}

// IdentityConfig locates the author keypair.
type IdentityConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads cfgFile, or the default config file when cfgFile is empty. A
// missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("config: home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(filepath.Join(home, configDirName))
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
	}
	cfg.expand(home)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("data_dir", filepath.Join(home, configDirName))
	v.SetDefault("store.backend", store.BackendFile)
	v.SetDefault("store.dir", "")
	v.SetDefault("store.kubo_api", store.DefaultKuboAPI)
	v.SetDefault("policy.link_check", policy.LinkOptimistic.String())
	v.SetDefault("policy.max_chain", 0)
	v.SetDefault("identity.path", "")
}

// expand resolves "~" prefixes and fills paths derived from DataDir.
func (c *Config) expand(home string) {
	c.DataDir = expandHome(c.DataDir, home)
	c.Store.Dir = expandHome(c.Store.Dir, home)
	c.Identity.Path = expandHome(c.Identity.Path, home)

	if c.Store.Dir == "" {
		switch strings.ToLower(c.Store.Backend) {
		case store.BackendFile:
			c.Store.Dir = filepath.Join(c.DataDir, "objects")
		case store.BackendBolt:
			c.Store.Dir = filepath.Join(c.DataDir, "entries.db")
		}
	}
	if c.Identity.Path == "" {
		if p, err := dag.DefaultIdentityPath(); err == nil {
			c.Identity.Path = p
		}
	}
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		KuboAPI: c.Store.KuboAPI,
	}
}

// Validator returns the publication policy described by c.
func (c *Config) Validator() (policy.Validator, error) {
	lc, err := policy.ParseLinkCheck(c.Policy.LinkCheck)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLinkCheck, err)
	}
	return &policy.Policy{LinkCheck: lc}, nil
}
