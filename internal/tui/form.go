package tui

import (
	"fmt"
	"os"
	"strings"

	"tiledash/internal/model"
	"tiledash/internal/mutate"
	"tiledash/internal/urlutil"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldName = iota
	fieldURL
	fieldGroup
	fieldImage
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "URL", "Group", "Image file"}

// tileForm is the add/edit dialog. editID is empty when adding.
type tileForm struct {
	editID string
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newTileForm(editing *model.Tile, group string) tileForm {
	f := tileForm{}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 2048
		ti.Width = 40
		f.inputs[i] = ti
	}
	f.inputs[fieldURL].Placeholder = "example.com"
	f.inputs[fieldGroup].Placeholder = model.DefaultGroup
	f.inputs[fieldImage].Placeholder = "optional path to an image"

	if editing != nil {
		f.editID = editing.ID
		f.inputs[fieldName].SetValue(editing.Name)
		// The scheme is implied; FixURL adds it back on save.
		f.inputs[fieldURL].SetValue(urlutil.StripScheme(editing.URL))
		f.inputs[fieldGroup].SetValue(editing.Group)
	} else {
		f.inputs[fieldGroup].SetValue(group)
	}
	f.inputs[fieldName].Focus()
	return f
}

func (f *tileForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f tileForm) update(msg tea.Msg) (tileForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// input collects the form into a TileInput, reading the image file if one was given.
func (f tileForm) input() (mutate.TileInput, error) {
	in := mutate.TileInput{
		Name:  f.inputs[fieldName].Value(),
		URL:   f.inputs[fieldURL].Value(),
		Group: f.inputs[fieldGroup].Value(),
	}
	if p := strings.TrimSpace(f.inputs[fieldImage].Value()); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return in, fmt.Errorf("read image: %w", err)
		}
		in.Image = &mutate.Upload{Data: data, Filename: p}
	}
	return in, nil
}

func (f tileForm) view(width int) string {
	title := "Add tile"
	if f.editID != "" {
		title = "Edit tile"
	}
	label := lipgloss.NewStyle().Width(11)
	rows := []string{}
	for i, in := range f.inputs {
		l := label.Render(fieldLabels[i])
		if i == f.focus {
			l = label.Foreground(colorAccent).Bold(true).Render(fieldLabels[i])
		}
		rows = append(rows, l+" "+in.View())
	}
	if f.err != "" {
		rows = append(rows, "", styleError().Render(f.err))
	}
	rows = append(rows, "", styleMuted().Render("tab: next field   enter: save   esc: cancel"))
	return renderModalBox(width, title, strings.Join(rows, "\n"))
}
