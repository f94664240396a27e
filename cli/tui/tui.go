package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// View names accepted by Run.
const (
	// ViewReport browses an *upload.Report from inspect or ingest.
	ViewReport = "inspect_report"
	// ViewObject shows a *blob.Manifest from object stat.
	ViewObject = "inspect_object"
)

// Run starts the viewer for view and blocks until the user quits.
func Run(view string, data any) error {
	m, err := newModel(view, data)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// IsTUISupported reports whether view has an interactive viewer.
func IsTUISupported(view string) bool {
	return slices.Contains(SupportedTUIViews(), view)
}

// SupportedTUIViews lists the views with an interactive viewer.
func SupportedTUIViews() []string {
	return []string{ViewReport, ViewObject}
}

// RenderStatic renders a view once without starting a program.
func RenderStatic(view string, data any) (string, error) {
	m, err := newModel(view, data)
	if err != nil {
		return "", err
	}
	return m.View(), nil
}

func newModel(view string, data any) (tea.Model, error) {
	if !IsTUISupported(view) {
		return nil, fmt.Errorf("TUI mode is not supported for %s", view)
	}
	switch view {
	case ViewReport:
		return NewReportModel(data)
	default:
		return NewObjectModel(data)
	}
}
