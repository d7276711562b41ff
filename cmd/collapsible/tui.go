package main

import (
	"context"
	"fmt"

	"collapsible/internal/output"
	"collapsible/internal/panel"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// panelViewMsg carries a view published by the panel.
type panelViewMsg struct {
	view panel.View
}

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C792EA"))
	tuiFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// panelModel is an interactive single-panel viewer.
type panelModel struct {
	panel    *panel.Panel
	renderer output.Renderer
	viewport viewport.Model
	view     panel.View
	width    int
	height   int
	ready    bool
}

func newPanelModel(p *panel.Panel, renderer output.Renderer) panelModel {
	return panelModel{
		panel:    p,
		renderer: renderer,
		viewport: viewport.New(80, 20),
		view:     p.View(),
	}
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 3
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter", " ":
			// The transition comes back as a panelViewMsg.
			m.panel.Toggle()
			return m, nil
		}

	case panelViewMsg:
		m.view = msg.view
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *panelModel) refresh() {
	m.viewport.SetContent(m.renderer.RenderPanel(m.view))
}

func (m panelModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := "resolved"
	if !m.view.Resolved {
		status = fmt.Sprintf("resolving (%d in flight)", m.view.Pending)
	}
	if m.view.Disabled {
		status += " · disabled"
	}
	header := tuiTitleStyle.Render("collapsible") + " " + tuiFooterStyle.Render(m.view.ID)
	footer := tuiFooterStyle.Render("enter/space toggle · ↑/↓ scroll · q quit · " + status)
	return header + "\n" + m.viewport.View() + "\n" + footer
}

// forwardViews relays panel views to the program without ever blocking the
// publisher; only the newest pending view is kept.
func forwardViews(ctx context.Context, p *panel.Panel, program *tea.Program) func() {
	latest := make(chan panel.View, 1)
	unsubscribe := p.Subscribe(func(view panel.View) {
		select {
		case latest <- view:
			return
		default:
		}
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- view:
		default:
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case view := <-latest:
				program.Send(panelViewMsg{view: view})
			}
		}
	}()
	return unsubscribe
}

func newTUICommand(cli *CLI) *cobra.Command {
	var (
		open     bool
		title    string
		body     string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "tui <attributes.(json|yaml)>",
		Short: "Open a panel interactively and watch its attachments resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTTY() {
				return fmt.Errorf("tui needs an interactive terminal; use render instead")
			}
			container, err := cli.initialize(cmd, nil)
			if err != nil {
				return err
			}
			defer cli.cleanup()

			attrs, err := readAttributes(args[0])
			if err != nil {
				return err
			}
			markdown, err := readBody(body)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			p := container.NewPanel(ctx, panel.Options{
				Open:       open,
				Title:      title,
				Attributes: attrs,
				Chevron:    true,
				Disabled:   disabled,
				Body:       markdown,
			})
			defer p.Close()

			program := tea.NewProgram(
				newPanelModel(p, output.NewCLIRenderer(output.TerminalWidth())),
				tea.WithAltScreen(),
			)
			unsubscribe := forwardViews(ctx, p, program)
			defer unsubscribe()

			if _, err := program.Run(); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Start with the panel opened")
	cmd.Flags().StringVar(&title, "title", "", "Title shown for generic content")
	cmd.Flags().StringVar(&body, "body", "", "Markdown file rendered in the default slot")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Ignore toggles")
	return cmd
}
