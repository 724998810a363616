package output

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSpinnerModel(t *testing.T) {
	m := spinnerModel{spinner: spinner.New(), message: "Analyzing..."}
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Analyzing...")

	next, cmd := m.Update(stopMsg{})
	assert.Empty(t, next.View())
	assert.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
