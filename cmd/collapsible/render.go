package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"collapsible/internal/output"
	"collapsible/internal/panel"

	"github.com/spf13/cobra"
)

type renderOptions struct {
	open    bool
	title   string
	body    string
	width   int
	hide    bool
	chevron bool
	timeout time.Duration
}

func newRenderCommand(cli *CLI) *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <attributes.(json|yaml)>",
		Short: "Resolve a panel's attachments and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := cli.initialize(cmd, nil)
			if err != nil {
				return err
			}
			defer cli.cleanup()

			attrs, err := readAttributes(args[0])
			if err != nil {
				return err
			}
			body, err := readBody(opts.body)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			p := container.NewPanel(ctx, panel.Options{
				Open:       opts.open,
				Title:      opts.title,
				Attributes: attrs,
				Chevron:    opts.chevron,
				Hide:       opts.hide,
				Body:       body,
			})
			defer p.Close()

			if err := p.Wait(ctx); err != nil {
				container.Logger.Warn("Rendering before resolution finished: %v", err)
			}

			manager := newOutputManager(opts.width)
			return writeRendered(cmd.OutOrStdout(), manager, cli.outputFormat(), func(r output.Renderer) string {
				return r.RenderPanel(p.View())
			})
		},
	}

	cmd.Flags().BoolVar(&opts.open, "open", false, "Render the panel opened")
	cmd.Flags().StringVar(&opts.title, "title", "", "Title shown for generic content")
	cmd.Flags().StringVar(&opts.body, "body", "", "Markdown file rendered in the default slot")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Wrap width (default: terminal width)")
	cmd.Flags().BoolVar(&opts.hide, "hide", false, "Hide the content slot")
	cmd.Flags().BoolVar(&opts.chevron, "chevron", true, "Show the open/closed chevron")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "Give up waiting for attachment resolution after this long")

	return cmd
}

func readAttributes(path string) (panel.AttributeSet, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return panel.AttributeSet{}, fmt.Errorf("read attributes: %w", err)
	}
	return panel.DecodeAttributes(data)
}

func readBody(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func newOutputManager(width int) *output.OutputManager {
	if width <= 0 {
		width = output.TerminalWidth()
	}
	manager := output.NewOutputManager()
	manager.RegisterRenderer(output.NewCLIRenderer(width))
	manager.RegisterRenderer(output.NewJSONRenderer())
	return manager
}

func writeRendered(w io.Writer, manager *output.OutputManager, format string, render func(output.Renderer) string) error {
	target := output.OutputTarget(format)
	if manager.GetRenderer(target) == nil {
		return fmt.Errorf("unknown output format %q", format)
	}
	_, err := io.WriteString(w, manager.RenderFor(target, render))
	return err
}
