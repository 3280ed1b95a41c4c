package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chartlist/internal/chart"
	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
)

// DatePrompt asks for a chart date and validates it before accepting.
type DatePrompt struct {
	input     textinput.Model
	help      help.Model
	keys      keyMap
	title     string
	notice    string
	invalid   string
	value     string
	done      bool
	cancelled bool
}

// NewDatePrompt creates a focused [DatePrompt]. notice is shown above the input, typically the
// reason a previous date was rejected.
func NewDatePrompt(title, notice string) DatePrompt {
	input := textinput.New()
	input.Placeholder = "YYYY-MM-DD"
	input.CharLimit = len(models.DateLayout)
	input.Width = len(models.DateLayout) + 1
	input.Prompt = "📅 "
	input.Focus()

	if title == "" {
		title = "Enter a chart date"
	}

	return DatePrompt{
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
		title:  title,
		notice: notice,
	}
}

func (m DatePrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (m DatePrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			value := strings.TrimSpace(m.input.Value())
			if _, err := chart.ParseDate(value); err != nil {
				m.invalid = "Invalid format! Please use YYYY-MM-DD."
				return m, nil
			}
			m.value = value
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.invalid = ""
	}
	return m, cmd
}

func (m DatePrompt) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Title(m.title))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(styles.Warn(m.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.invalid != "" {
		b.WriteString(styles.Err("✗ " + m.invalid))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Value returns the accepted date, or [shared.ErrCancelled] when the prompt was dismissed.
func (m DatePrompt) Value() (string, error) {
	if m.cancelled || !m.done {
		return "", fmt.Errorf("%w: no date entered", shared.ErrCancelled)
	}
	return m.value, nil
}

// PromptDate runs a [DatePrompt] on in/out until a valid date is entered or the user quits.
func PromptDate(ctx context.Context, in io.Reader, out io.Writer, title, notice string) (string, error) {
	program := tea.NewProgram(NewDatePrompt(title, notice),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}
		return "", fmt.Errorf("date prompt failed: %w", err)
	}

	prompt, ok := final.(DatePrompt)
	if !ok {
		return "", fmt.Errorf("date prompt failed: unexpected model %T", final)
	}
	return prompt.Value()
}
