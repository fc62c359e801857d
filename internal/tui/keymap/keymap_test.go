package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlR}, km.Rewrite))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlA}, km.Accept))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlD}, km.Discard))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, km.Send))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, km.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
}

func TestDefaultKeyMap_LettersAreFree(t *testing.T) {
	km := DefaultKeyMap()
	q := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
	for _, b := range []key.Binding{km.Quit, km.Send, km.Rewrite, km.Accept, km.Discard, km.Refresh} {
		assert.False(t, key.Matches(q, b))
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()
	help := km.ShortHelp()
	assert.Len(t, help, 5)
	assert.Equal(t, "enter", help[0].Help().Key)
}
