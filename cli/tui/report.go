package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/chunkyard/upload"
)

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var reportStates = []upload.UploadState{
	upload.StateFinalized,
	upload.StateReady,
	upload.StateIncomplete,
	upload.StateOpen,
	upload.StateFailed,
	upload.StateAborted,
	upload.StateExpired,
}

// ReportModel lists the uploads of a Report with a detail panel for the
// selected one.
type ReportModel struct {
	report   *upload.Report
	cursor   int
	width    int
	quitting bool
}

// NewReportModel creates a report viewer. data must be an *upload.Report.
func NewReportModel(data any) (ReportModel, error) {
	r, ok := data.(*upload.Report)
	if !ok || r == nil {
		return ReportModel{}, fmt.Errorf("report view needs *upload.Report, got %T", data)
	}
	return ReportModel{report: r}, nil
}

// Cursor returns the index of the selected upload.
func (m ReportModel) Cursor() int {
	return m.cursor
}

// Init implements tea.Model.
func (m ReportModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.report.Uploads)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m ReportModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := "Ingest Report"
	if m.report.DryRun {
		title = "Inspect Report (dry run)"
	}
	b.WriteString(TitleStyle.Render(title))
	fmt.Fprintf(&b, "  %d frames, %d uploads\n\n", m.report.Frames, len(m.report.Uploads))

	b.WriteString(m.renderCounts())
	b.WriteString("\n")

	if len(m.report.Uploads) == 0 {
		b.WriteString(ValueStyle.Render("(no uploads)"))
		b.WriteString("\n")
	} else {
		b.WriteString(BoxStyle.Render(m.renderList()))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(m.renderDetail(m.report.Uploads[m.cursor])))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("↑/↓ select • q quit"))
	return b.String()
}

func (m ReportModel) renderCounts() string {
	counts := m.report.Counts()
	var boxes []string
	for _, s := range reportStates {
		if counts[s] == 0 {
			continue
		}
		boxes = append(boxes, CountStyle.Render(
			StateStyle(string(s)).Render(fmt.Sprintf("%d", counts[s]))+"\n"+string(s)))
	}
	if len(boxes) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n"
}

func (m ReportModel) renderList() string {
	var b strings.Builder
	for i, u := range m.report.Uploads {
		line := fmt.Sprintf("%-24s %s", truncate(u.UploadID, 24), StateStyle(string(u.State)).Render(string(u.State)))
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		if i < len(m.report.Uploads)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m ReportModel) renderDetail(u *upload.UploadReport) string {
	rows := [][2]string{
		{"Upload ID", u.UploadID},
		{"Session", u.SessionID},
		{"State", string(u.State)},
		{"Mode", u.Mode},
		{"Key", u.Key},
		{"Frames", fmt.Sprintf("%d (%d ignored)", u.Frames, u.Ignored)},
		{"Size", fmt.Sprintf("%d bytes", u.Size)},
		{"Sequential", fmt.Sprintf("%d bytes", u.Status.BufferSize)},
		{"Parallel", fmt.Sprintf("%d chunks, %d bytes", u.Status.ParallelChunkCount, u.Status.ParallelBufferSize)},
	}
	if u.ExpectedCount > 0 {
		rows = append(rows,
			[2]string{"Expected", fmt.Sprintf("%d", u.ExpectedCount)},
			[2]string{"Complete", fmt.Sprintf("%t", u.Complete)})
	}
	if len(u.Missing) > 0 {
		rows = append(rows, [2]string{"Missing", formatIndices(u.Missing)})
	}
	if u.Error != "" {
		rows = append(rows, [2]string{"Error", u.Error})
	}

	var b strings.Builder
	for i, row := range rows {
		value := ValueStyle.Render(row[1])
		if row[0] == "State" {
			value = StateStyle(row[1]).Render(row[1])
		}
		b.WriteString(LabelStyle.Render(row[0]+":") + " " + value)
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatIndices prints at most 16 indices.
func formatIndices(idx []uint32) string {
	const limit = 16
	if len(idx) <= limit {
		return fmt.Sprint(idx)
	}
	return fmt.Sprintf("%v ... (+%d more)", idx[:limit], len(idx)-limit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
