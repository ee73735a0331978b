// Package tui implements the interactive chat session. It is a Bubble Tea
// program: a text input for the question, a viewport holding the transcript,
// and a spinner while retrieval and generation run. Generation is streamed,
// so tokens appear as the backend produces them.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/folioqa/folio/internal/appconfig"
	"github.com/folioqa/folio/internal/llm"
	"github.com/folioqa/folio/internal/rag"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	citationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	transcriptWrap = lipgloss.NewStyle().Padding(0, 1)
)

// Streamer is the generation surface the chat session needs: a streaming
// chat completion that reports deltas as they arrive.
type Streamer interface {
	Stream(ctx context.Context, req llm.ChatRequest, onDelta func(string) error) (string, error)
}

// exchange is one completed or in-flight question/answer pair in the
// transcript.
type exchange struct {
	question  string
	answer    string
	citations []rag.Citation
	err       error
}

type deltaMsg string

type doneMsg struct {
	answer    string
	citations []rag.Citation
	err       error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	cfg      *appconfig.Config
	engine   *rag.Engine
	streamer Streamer

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	history   []llm.Message
	exchanges []exchange
	streaming bool
	ready     bool

	deltas chan tea.Msg
	cancel context.CancelFunc
}

// New creates a chat model over the given engine and streaming client.
func New(cfg *appconfig.Config, engine *rag.Engine, streamer Streamer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		cfg:      cfg,
		engine:   engine,
		streamer: streamer,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and streaming events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + ih + 2 // title line, spacer, input frame, status line
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.streaming {
				return m, nil
			}
			m.input.Reset()
			m.streaming = true
			m.exchanges = append(m.exchanges, exchange{question: question})
			m.refresh()
			return m, tea.Batch(m.ask(question), m.spin.Tick, m.waitForStream())
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case deltaMsg:
		cur := &m.exchanges[len(m.exchanges)-1]
		cur.answer += string(msg)
		m.refresh()
		return m, m.waitForStream()

	case doneMsg:
		m.streaming = false
		m.cancel = nil
		cur := &m.exchanges[len(m.exchanges)-1]
		cur.citations = msg.citations
		cur.err = msg.err
		if msg.err == nil {
			cur.answer = msg.answer
			m.history = append(m.history,
				llm.Message{Role: llm.RoleUser, Content: cur.question},
				llm.Message{Role: llm.RoleAssistant, Content: msg.answer},
			)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs retrieval and starts the streamed generation in a goroutine that
// feeds the deltas channel. The command itself returns nothing; deltas and
// the final result arrive through waitForStream.
func (m *Model) ask(question string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	ch := make(chan tea.Msg, 32)
	m.deltas = ch

	engine := m.engine
	streamer := m.streamer
	cfg := m.cfg
	history := m.history

	go func() {
		defer close(ch)
		messages, citations, err := engine.Prompt(ctx, question, history)
		if err != nil {
			ch <- doneMsg{err: err}
			return
		}
		answer, err := streamer.Stream(ctx, llm.ChatRequest{
			Model:       cfg.Model,
			Messages:    messages,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, func(delta string) error {
			ch <- deltaMsg(delta)
			return nil
		})
		ch <- doneMsg{answer: answer, citations: citations, err: err}
	}()

	return nil
}

// waitForStream delivers the next streaming event to Update.
func (m Model) waitForStream() tea.Cmd {
	ch := m.deltas
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		return <-ch
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(transcriptWrap.Width(m.viewport.Width).Render(renderTranscript(m.exchanges)))
	m.viewport.GotoBottom()
}

// View renders the transcript, input box, and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render(fmt.Sprintf("folio chat: %s", m.cfg.Source()))
	status := statusStyle.Render("Enter to ask, Ctrl+C to quit.")
	if m.streaming {
		status = m.spin.View() + statusStyle.Render("Thinking...")
	}
	return title + "\n\n" + m.viewport.View() + "\n" + inputBoxStyle.Render(m.input.View()) + "\n" + status
}

// renderTranscript formats completed and in-flight exchanges, newest last.
func renderTranscript(exchanges []exchange) string {
	if len(exchanges) == 0 {
		return "Ask a question about the indexed text."
	}
	var parts []string
	for _, ex := range exchanges {
		var b strings.Builder
		b.WriteString(questionStyle.Render("You: "+ex.question) + "\n")
		switch {
		case ex.err != nil:
			b.WriteString(errorStyle.Render("Error: " + ex.err.Error()))
		case ex.answer == "":
			b.WriteString("...")
		default:
			b.WriteString(ex.answer)
		}
		if len(ex.citations) > 0 {
			b.WriteString("\n" + citationStyle.Render(renderCitations(ex.citations)))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// renderCitations lists the context sources, one marker per line.
func renderCitations(citations []rag.Citation) string {
	lines := make([]string, len(citations))
	for i, c := range citations {
		lines[i] = c.String()
	}
	return "Sources:\n" + strings.Join(lines, "\n")
}

// Run starts the chat program and blocks until the user quits.
func Run(cfg *appconfig.Config, engine *rag.Engine, streamer Streamer) error {
	_, err := tea.NewProgram(New(cfg, engine, streamer), tea.WithAltScreen()).Run()
	return err
}
