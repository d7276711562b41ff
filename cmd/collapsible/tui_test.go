package main

import (
	"context"
	"testing"
	"time"

	"collapsible/internal/output"
	"collapsible/internal/panel"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainMarkdown struct{}

func (plainMarkdown) Render(text string) (string, error) { return text, nil }

func TestPanelModelTogglesOnEnter(t *testing.T) {
	done := "true"
	p := panel.New(context.Background(), panel.Options{
		Chevron: true,
		Attributes: panel.AttributeSet{
			Kind:  "tool_calls",
			Done:  &done,
			Name:  "search",
			Files: `["data:text/plain;base64,aGVsbG8="]`,
		},
	}, panel.Deps{})
	defer p.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))

	var model tea.Model = newPanelModel(p, output.NewCLIRendererWithMarkdown(0, plainMarkdown{}))
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, model.View(), "View Result from search")
	assert.NotContains(t, model.View(), "hello")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, p.Open())

	model, _ = model.Update(panelViewMsg{view: p.View()})
	assert.Contains(t, model.View(), "hello")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
