package tui

import (
	"fmt"
	"strings"

	"tiledash/internal/urlutil"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const cardInnerWidth = 16

func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return m.form.view(m.width)
	case ModeHelp:
		return m.renderedHelp() + "\n" + styleMuted().Render("press any key to close")
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	if len(m.tiles) == 0 {
		b.WriteString(styleMuted().Render("No tiles yet. Press a to add one."))
		b.WriteString("\n")
	}
	for si := range m.sections {
		b.WriteString(m.viewSection(si))
		b.WriteString("\n")
	}

	switch {
	case m.mode == ModeConfirmDelete:
		t, _ := m.current()
		b.WriteString(renderConfirmModal(m.width, "Delete tile", fmt.Sprintf("Delete %q?", t.Name)))
		b.WriteString("\n")
	case m.rename == Renaming:
		b.WriteString(m.renameInput.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		st := styleMuted()
		if m.statusErr {
			st = styleError()
		}
		b.WriteString(st.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m Model) viewHeader() string {
	title := "tiledash"
	if m.opts.BoardName != "" {
		title += " " + glyphBullet() + " " + m.opts.BoardName
	}
	count := fmt.Sprintf("%d tiles", len(m.tiles))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(count)
	if gap < 1 {
		gap = 1
	}
	return styleGroupHeader().Render(title) + strings.Repeat(" ", gap) + styleMuted().Render(count)
}

func (m Model) perRow() int {
	cardW := cardInnerWidth + 4
	n := m.width / cardW
	if n < 1 {
		n = 1
	}
	return n
}

func (m Model) viewSection(si int) string {
	sec := m.sections[si]
	header := styleGroupHeader().Render(sec.Group) + " " + styleMuted().Render(fmt.Sprintf("(%d)", len(sec.Indexes)))

	cards := make([]string, 0, len(sec.Indexes))
	for _, idx := range sec.Indexes {
		t := m.tiles[idx]
		name := ansi.Truncate(t.Name, cardInnerWidth, glyphEllipsis())
		host, ok := urlutil.Host(t.URL)
		if !ok {
			host = urlutil.StripScheme(t.URL)
		}
		sub := ansi.Truncate(host, cardInnerWidth, glyphEllipsis())
		if t.HasEmbeddedImage() {
			sub = ansi.Truncate(glyphEmbedded()+" "+host, cardInnerWidth, glyphEllipsis())
		}
		body := lipgloss.NewStyle().Width(cardInnerWidth).Render(name) + "\n" +
			styleMuted().Width(cardInnerWidth).Render(sub)
		cards = append(cards, styleCard(t.ID == m.cursorID).Render(body))
	}

	rows := []string{header}
	n := m.perRow()
	for i := 0; i < len(cards); i += n {
		end := i + n
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return strings.Join(rows, "\n")
}
