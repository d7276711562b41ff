package main

import (
	"fmt"
	"io"
	"sort"

	"collapsible/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and save configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and where each value came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, meta, err := cli.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg, meta)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			path, err := config.Save(cfg, config.WithConfigPath(cli.flags.GetString("config")))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("✓ Saved "+path))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolveConfigPath(config.WithConfigPath(cli.flags.GetString("config")))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

func printConfig(w io.Writer, cfg config.RuntimeConfig, meta config.Metadata) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintln(w, bold("Effective configuration"))
	fmt.Fprintln(w, string(data))

	sources := meta.Sources()
	if len(sources) == 0 {
		fmt.Fprintln(w, gray("All values are defaults."))
		return nil
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, bold("Sources"))
	for _, key := range keys {
		fmt.Fprintf(w, "  %s %s\n", cyan(key), gray(string(sources[key])))
	}
	return nil
}
