package main

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/logging"
)

// ticketKeyEnv overrides auth.session.ticket_key so the secret can stay out
// of config files.
const ticketKeyEnv = "AUTHCORE_TICKET_KEY"

type databaseConfig struct {
	Driver string `koanf:"driver" yaml:"driver"`
	DSN    string `koanf:"dsn" yaml:"dsn"`
}

type redisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password"`
	DB       int    `koanf:"db" yaml:"db"`
}

type serverConfig struct {
	Addr           string `koanf:"addr" yaml:"addr"`
	InsecureCookie bool   `koanf:"insecure_cookie" yaml:"insecure_cookie"`
	AutoMigrate    bool   `koanf:"auto_migrate" yaml:"auto_migrate"`
}

type logConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// cliConfig is the file layout read by every command.
type cliConfig struct {
	Auth     authcore.Config `koanf:"auth" yaml:"auth"`
	Database databaseConfig  `koanf:"database" yaml:"database"`
	Redis    redisConfig     `koanf:"redis" yaml:"redis"`
	Server   serverConfig    `koanf:"server" yaml:"server"`
	Log      logConfig       `koanf:"log" yaml:"log"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Auth: authcore.DefaultConfig(),
		Database: databaseConfig{
			Driver: "sqlite",
			DSN:    "authcore.db",
		},
		Server: serverConfig{
			Addr: ":8080",
		},
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadConfig layers defaults, the --config file and explicitly set flags, in
// that order, then applies the ticket key environment override.
func loadConfig(cmd *cobra.Command) (*cliConfig, error) {
	cfg := defaultCLIConfig()
	k := koanf.New(".")

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}

	if key, ok := os.LookupEnv(ticketKeyEnv); ok && key != "" {
		cfg.Auth.Session.TicketKey = key
	}

	return &cfg, nil
}

func (c *cliConfig) logger(cmd *cobra.Command) *slog.Logger {
	return logging.Setup(logging.Options{
		Service: "authcorectl",
		Version: version,
		Format:  c.Log.Format,
		Level:   c.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
}

// ephemeralTicketKey lets offline commands build an Engine without a
// configured key. Tickets signed with it are never handed out.
func ephemeralTicketKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
