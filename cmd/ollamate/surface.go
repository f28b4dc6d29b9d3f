package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/ollamate/core/core/protocol"
	"github.com/ollamate/core/surface"
)

var (
	modelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	roleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// terminalSurface renders broadcast events to a writer. It is the one
// presentation surface the CLI attaches.
type terminalSurface struct {
	out io.Writer
}

func newTerminalSurface(out io.Writer) *terminalSurface {
	return &terminalSurface{out: out}
}

func (t *terminalSurface) Deliver(_ context.Context, event surface.Event) error {
	switch e := event.(type) {
	case surface.ModelUpdated:
		model := e.Model
		if model == "" {
			model = "none"
		}
		fmt.Fprintf(t.out, "%s %s\n", dimStyle.Render("model:"), modelStyle.Render(model))
	case surface.ResponseChunk:
		if e.First {
			fmt.Fprintf(t.out, "%s ", roleStyle.Render("assistant:"))
		}
		fmt.Fprint(t.out, e.Text)
	case surface.SessionLoaded:
		fmt.Fprintln(t.out, separatorStyle.Render("── resumed session ──"))
		for _, turn := range e.Messages {
			t.renderTurn(turn)
		}
		fmt.Fprintf(t.out, "%s %s\n", dimStyle.Render("model:"), modelStyle.Render(e.Model))
	case surface.DisplayCleared:
		fmt.Fprintln(t.out, separatorStyle.Render("── new session ──"))
	case surface.ThinkingChanged:
		if !e.Thinking {
			fmt.Fprintln(t.out)
		}
	}
	return nil
}

func (t *terminalSurface) renderTurn(turn protocol.Turn) {
	fmt.Fprintf(t.out, "%s %s\n", roleStyle.Render(string(turn.Role)+":"), turn.Content)
}

func printError(out io.Writer, msg string) {
	fmt.Fprintln(out, errorStyle.Render(msg))
}
