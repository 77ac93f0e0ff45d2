package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the config subcommand group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML with secrets redacted",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shown := *cfg
	shown.Auth = cfg.Auth.Redacted()
	if shown.Redis.Password != "" {
		shown.Redis.Password = "REDACTED"
	}

	out, err := yaml.Marshal(shown)
	if err != nil {
		return oops.Code("INTERNAL").With("operation", "encode config").Wrap(err)
	}
	cmd.Print(string(out))
	return nil
}
