package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"finrag/internal/chat"
	"finrag/internal/domain"
	"finrag/internal/pipeline"
)

// QueryPort is the TUI-facing subset of the pipeline client.
type QueryPort interface {
	Query(ctx context.Context, input pipeline.QueryInput) (domain.QueryResult, error)
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	service QueryPort
	history *chat.Store
	session chat.Chat
	results []domain.QueryResult

	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
}

// New creates a chat model backed by the given query port and history store.
func New(service QueryPort, history *chat.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		history:  history,
		session:  chat.Chat{ID: uuid.NewString()},
		input:    ti,
		viewport: vp,
		status:   "Connected. Ask a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderConversation())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.ask(q)
				m.input.SetValue("")
				m.viewport.SetContent(m.renderConversation())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(3)
			return m, nil
		case "down":
			m.viewport.LineDown(3)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the query synchronously and appends both turns to the session.
func (m *Model) ask(question string) {
	if m.session.Title == "" {
		m.session.Title = title(question)
	}
	m.session.Messages = append(m.session.Messages, chat.Message{Role: "user", Content: question})

	res, err := m.service.Query(context.Background(), pipeline.QueryInput{Question: question})
	if err != nil {
		m.status = "Error: " + err.Error()
		res = domain.QueryResult{Answer: "(no answer: " + err.Error() + ")"}
	} else {
		m.status = fmt.Sprintf("Answered from %d contexts", res.NumContexts)
	}
	m.results = append(m.results, res)
	m.session.Messages = append(m.session.Messages, chat.Message{
		Role:    "assistant",
		Content: res.Answer,
		Sources: res.Sources,
	})
	if m.history != nil {
		if err := m.history.Save(m.session); err != nil {
			m.status = "History not saved: " + err.Error()
		}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("finrag — financial document chat")
	conversation := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + conversation + "\n" + input + "\n" + status
}

func (m Model) renderConversation() string {
	if len(m.session.Messages) == 0 {
		return "No messages yet."
	}
	var sb strings.Builder
	answered := 0
	for _, msg := range m.session.Messages {
		switch msg.Role {
		case "user":
			sb.WriteString(userStyle.Render("You: ") + msg.Content + "\n\n")
		case "assistant":
			sb.WriteString(assistantStyle.Render("Analyst:") + "\n" + msg.Content + "\n")
			if len(msg.Sources) > 0 {
				sb.WriteString(sourceStyle.Render("Sources: "+strings.Join(msg.Sources, ", ")) + "\n")
			}
			if answered < len(m.results) {
				if table := renderChart(m.results[answered].ChartData); table != "" {
					sb.WriteString(table + "\n")
				}
			}
			answered++
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderChart(points []domain.ChartPoint) string {
	if len(points) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(sourceStyle.Render("Chart data:") + "\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("  %-20s %10.2f\n", p.Category, p.Amount))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func title(question string) string {
	const maxTitle = 40
	q := []rune(strings.TrimSpace(question))
	if len(q) > maxTitle {
		return string(q[:maxTitle]) + "…"
	}
	return string(q)
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
