package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"collapsible/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const version = "0.1.0"

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// isTTY checks if stdin and stdout are attached to a terminal
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// CLI holds flag state shared by every subcommand.
type CLI struct {
	flags *viper.Viper

	container *Container
}

func newRootCommand() *cobra.Command {
	cli := &CLI{flags: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "collapsible",
		Short: "Disclosure panels with attachment type resolution",
		Long: fmt.Sprintf(`%s

Renders reasoning traces, tool calls and file attachments as collapsible
panels. Attachment types are resolved from data: markers or header-only
probes, one reference at a time.

%s
  collapsible render attrs.yaml --open     # Print an opened panel
  collapsible probe https://h/a.png a.pdf  # Resolve types and branches
  collapsible tui attrs.json               # Toggle a panel interactively
  collapsible serve --port 8787            # Start the preview server
  collapsible config show                  # Show effective configuration`,
			bold("collapsible "+version),
			bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default $COLLAPSIBLE_CONFIG or ~/.collapsible.yaml)")
	flags.String("base-url", "", "Base address for relative attachment references")
	flags.String("environment", "", "development or production")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("catalog", "", "YAML catalog overriding the English labels")
	flags.StringP("output", "o", "cli", "Output format: cli or json")
	flags.Bool("sniff-inline", false, "Sniff data: URIs that declare no media type")
	_ = cli.flags.BindPFlags(flags)

	rootCmd.AddCommand(newRenderCommand(cli))
	rootCmd.AddCommand(newProbeCommand(cli))
	rootCmd.AddCommand(newTUICommand(cli))
	rootCmd.AddCommand(newServeCommand(cli))
	rootCmd.AddCommand(newConfigCommand(cli))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// overrides collects the persistent flags the user actually set.
func (cli *CLI) overrides(cmd *cobra.Command) config.Overrides {
	var overrides config.Overrides
	changed := func(name string) bool {
		flag := cmd.Flags().Lookup(name)
		return flag != nil && flag.Changed
	}
	if changed("base-url") {
		value := cli.flags.GetString("base-url")
		overrides.BaseURL = &value
	}
	if changed("environment") {
		value := cli.flags.GetString("environment")
		overrides.Environment = &value
	}
	if changed("log-level") {
		value := cli.flags.GetString("log-level")
		overrides.LogLevel = &value
	}
	if changed("sniff-inline") {
		value := cli.flags.GetBool("sniff-inline")
		overrides.SniffInline = &value
	}
	return overrides
}

func (cli *CLI) loadConfig(cmd *cobra.Command, extra func(*config.Overrides)) (config.RuntimeConfig, config.Metadata, error) {
	overrides := cli.overrides(cmd)
	if extra != nil {
		extra(&overrides)
	}
	return config.Load(
		config.WithConfigPath(cli.flags.GetString("config")),
		config.WithOverrides(overrides),
	)
}

// initialize loads configuration and builds the container once per process.
func (cli *CLI) initialize(cmd *cobra.Command, extra func(*config.Overrides)) (*Container, error) {
	if cli.container != nil {
		return cli.container, nil
	}
	cfg, meta, err := cli.loadConfig(cmd, extra)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	container, err := buildContainer(cfg, meta, cli.flags.GetString("catalog"))
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	cli.container = container
	return container, nil
}

func (cli *CLI) cleanup() {
	if cli.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cli.container.Cleanup(ctx); err != nil {
		fmt.Fprintln(os.Stderr, gray("cleanup: "+err.Error()))
	}
}

func (cli *CLI) outputFormat() string {
	return strings.ToLower(strings.TrimSpace(cli.flags.GetString("output")))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "collapsible", version)
		},
	}
}
