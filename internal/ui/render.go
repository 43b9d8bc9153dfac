// Package ui renders operator-facing terminal output: status tables,
// manual DNS instructions, and destroy reports. Styling is disabled
// automatically when stdout is not a terminal.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/outpost-sh/outpost/internal/destroy"
	"github.com/outpost-sh/outpost/internal/dns"
	"github.com/outpost-sh/outpost/internal/state"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	badStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// IsInteractive reports whether stdout is a terminal.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// RenderStatus produces the human-readable cluster summary.
func RenderStatus(st *state.State) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  outpost: %s", st.Inputs.Domain)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	phase := string(st.Phase)
	if st.Phase.Terminal() {
		phase = okStyle.Render(phase)
	} else {
		phase = sectionStyle.Render(phase)
	}
	b.WriteString(fmt.Sprintf("  Phase:    %s\n", phase))
	b.WriteString(fmt.Sprintf("  DNS mode: %s\n", st.Inputs.DNSMode))
	b.WriteString(fmt.Sprintf("  Updated:  %s\n", st.UpdatedAt.Format("2006-01-02 15:04:05 MST")))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Nodes"))
	b.WriteString("\n")
	for i := range st.Nodes {
		node := &st.Nodes[i]
		addr := node.PublicIPv4
		if addr == "" {
			addr = dimStyle.Render("pending")
		}
		status := node.Status
		switch node.Status {
		case "running":
			status = okStyle.Render(node.Status)
		case "":
			status = dimStyle.Render("not created")
		}
		b.WriteString(fmt.Sprintf("    %-4s %-28s %-16s %s\n", node.Code, node.Label, addr, status))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  DNS"))
	b.WriteString("\n")
	for i := range st.DNS {
		entry := &st.DNS[i]
		mark := badStyle.Render("✗")
		if entry.Satisfied() {
			mark = okStyle.Render("✓")
		}
		detail := entry.Target
		if detail == "" {
			detail = dimStyle.Render("unconfigured")
		}
		b.WriteString(fmt.Sprintf("    %s %-28s %s\n", mark, entry.Hostname, detail))
	}
	return b.String()
}

// RenderManualRecords produces the record list an operator must enter
// by hand, with fully qualified names alongside the zone-relative ones.
func RenderManualRecords(st *state.State, required []dns.Record) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Create these DNS records"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  zone: %s", st.Inputs.Domain)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("    %-6s %-12s %-16s %s\n", "TYPE", "NAME", "VALUE", "TTL")))
	for _, r := range required {
		b.WriteString(fmt.Sprintf("    %-6s %-12s %-16s %d\n", r.Type, r.Name, r.Value, r.TTL))
	}
	return b.String()
}

// RenderDestroyReport produces the per-resource destroy outcome.
func RenderDestroyReport(report *destroy.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Destroy report"))
	b.WriteString("\n\n")
	for _, res := range report.Results {
		var mark string
		switch res.Status {
		case destroy.StatusDeleted:
			mark = okStyle.Render("✓")
		case destroy.StatusAlreadyGone:
			mark = dimStyle.Render("✓")
		case destroy.StatusSkipped:
			mark = dimStyle.Render("-")
		default:
			mark = badStyle.Render("✗")
		}
		line := fmt.Sprintf("    %s %s", mark, res.Resource)
		if res.Detail != "" {
			line += " " + dimStyle.Render("("+res.Detail+")")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n  " + report.Summary() + "\n")
	if report.ArchivePath != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  state archived to %s", report.ArchivePath)) + "\n")
	}
	return b.String()
}
