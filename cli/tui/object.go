package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/chunkyard/blob"
)

// ObjectModel shows the manifest of one stored object.
type ObjectModel struct {
	manifest *blob.Manifest
	quitting bool
}

// NewObjectModel creates an object viewer. data must be a *blob.Manifest.
func NewObjectModel(data any) (ObjectModel, error) {
	m, ok := data.(*blob.Manifest)
	if !ok || m == nil {
		return ObjectModel{}, fmt.Errorf("object view needs *blob.Manifest, got %T", data)
	}
	return ObjectModel{manifest: m}, nil
}

// Init implements tea.Model.
func (m ObjectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ObjectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m ObjectModel) View() string {
	if m.quitting {
		return ""
	}
	mf := m.manifest

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Object"))
	b.WriteString("\n\n")
	for _, row := range [][2]string{
		{"Key", mf.Key},
		{"Size", fmt.Sprintf("%d bytes", mf.Size)},
		{"Chunks", fmt.Sprintf("%d", mf.ChunkCount)},
		{"Mode", mf.Mode},
		{"Content Type", mf.ContentType},
		{"Session", mf.SessionID},
		{"Principal", mf.Principal},
		{"Created", mf.CreatedAt.Format(time.DateTime)},
		{"Finalized", mf.FinalizedAt.Format(time.DateTime)},
	} {
		b.WriteString(LabelStyle.Render(row[0]+":") + " " + ValueStyle.Render(row[1]) + "\n")
	}

	return BoxStyle.Render(strings.TrimSuffix(b.String(), "\n")) + "\n" + HelpStyle.Render("q quit")
}
