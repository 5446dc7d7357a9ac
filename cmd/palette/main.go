// Package main prints the board's lane and priority palette next to the ANSI 256 colors.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evanschultz/lanes/internal/domain"
)

func main() {
	showANSI := len(os.Args) > 1 && os.Args[1] == "--ansi"
	if err := writePalette(os.Stdout, showANSI); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// writePalette renders the lane and priority tables, plus the ANSI grid when asked.
func writePalette(w io.Writer, showANSI bool) error {
	sections := []string{
		"=== LANES ===",
		laneTable(),
		"",
		"=== PRIORITY TAGS ===",
		priorityTable(),
	}
	if showANSI {
		sections = append(sections, "", "=== ANSI 256 COLORS ===", ansiGrid())
	}
	_, err := fmt.Fprintln(w, strings.Join(sections, "\n"))
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func swatch(hex string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color("15")).
		Width(10).
		Align(lipgloss.Center).
		Render(hex)
}

func laneTable() string {
	t := newTable("Lane", "Hex", "Sample")
	for _, lane := range domain.Lanes() {
		t.Row(string(lane.Status), lane.Color, swatch(lane.Color))
	}
	return t.Render()
}

func priorityTable() string {
	t := newTable("Class", "Priority", "Hex", "Sample")
	priorities := map[domain.PriorityClass]string{domain.PriorityClassDefault: "(other)"}
	for _, p := range domain.Priorities() {
		priorities[p.Class()] = string(p)
	}
	for _, class := range domain.PriorityClasses() {
		t.Row(string(class), priorities[class], class.Color(), swatch(class.Color()))
	}
	return t.Render()
}

// ansiGrid lays out colors 0-255 sixteen per row.
func ansiGrid() string {
	var b strings.Builder
	for i := 0; i < 256; i++ {
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(strconv.Itoa(i))).
			Foreground(contrastColor(i)).
			Width(5).
			Align(lipgloss.Center)
		b.WriteString(style.Render(fmt.Sprintf("%3d", i)))
		if i%16 == 15 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// contrastColor picks white text for dark backgrounds and black for light ones.
func contrastColor(index int) lipgloss.Color {
	switch {
	case index < 16:
		if index == 0 || index == 1 || index == 4 || index == 5 || index == 8 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	case index >= 232:
		if index < 244 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	default:
		return lipgloss.Color("15")
	}
}
