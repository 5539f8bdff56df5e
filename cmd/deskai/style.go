package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deskai/deskai/pkg/protocol"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	resultStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// printEnvelope renders an envelope for the terminal.
func printEnvelope(w io.Writer, env protocol.Envelope) {
	fmt.Fprintln(w, resultStyle.Render(env.Result))
	meta := "route " + env.Route
	if len(env.ToolsUsed) > 0 {
		meta += " · tools " + strings.Join(env.ToolsUsed, ",")
	}
	if env.Deterministic {
		meta += " · deterministic"
	}
	fmt.Fprintln(w, dimStyle.Render(meta))
}

func printTools(w io.Writer, list []protocol.ToolDescriptor) {
	fmt.Fprintln(w, titleStyle.Render("Tools"))
	for _, d := range list {
		fmt.Fprintf(w, "  %s  %s\n", nameStyle.Render(d.Name), d.Description)
		names := make([]string, 0, len(d.Parameters))
		for n := range d.Parameters {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			p := d.Parameters[n]
			req := ""
			if p.Required {
				req = " (required)"
			}
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("      %s: %s%s", n, p.Description, req)))
		}
	}
}

func printModels(w io.Writer, list []protocol.ModelDescriptor) {
	fmt.Fprintln(w, titleStyle.Render("Models"))
	for _, m := range list {
		fmt.Fprintf(w, "  %s  %s\n", nameStyle.Render(m.ID), m.Description)
		if len(m.Capabilities) > 0 {
			fmt.Fprintln(w, dimStyle.Render("      "+strings.Join(m.Capabilities, ", ")))
		}
	}
}
