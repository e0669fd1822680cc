package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// RenderSchema lays out the fields of s as a column/type/SQL type table.
// Without styling the borders are plain ASCII.
func RenderSchema(s pgingest.Schema, styled bool) string {
	t := table.New().Headers("#", "COLUMN", "TYPE", "SQL TYPE")
	for i, f := range s.Fields {
		t.Row(strconv.Itoa(i+1), f.Name, f.Type.String(), f.Type.SQLType())
	}

	if !styled {
		return t.Border(lipgloss.ASCIIBorder()).String()
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return t.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

// RenderSQL dims SQL text when styled.
func RenderSQL(sql string, styled bool) string {
	if !styled {
		return sql
	}
	lines := strings.Split(sql, "\n")
	for i, l := range lines {
		lines[i] = MutedStyle.Render(l)
	}
	return strings.Join(lines, "\n")
}
