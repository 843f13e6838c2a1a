// Package tui is an interactive console channel for talking to the bot
// without a WhatsApp bridge.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// MessageHandler processes one inbound message and delivers its reply.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg model.Message) error
}

type speaker int

const (
	speakerUser speaker = iota
	speakerBot
	speakerSystem
)

type entry struct {
	at   time.Time
	text string
	who  speaker
}

// handledMsg reports that the engine finished a message.
type handledMsg struct {
	err error
}

// Model is the bubbletea chat model.
type Model struct {
	ctx        context.Context
	handler    MessageHandler
	replies    *Replier
	theme      themes.Theme
	keymap     KeyMap
	help       help.Model
	input      textinput.Model
	viewport   viewport.Model
	sender     string
	transcript []entry
	pending    int
	width      int
	height     int
	ready      bool
	quitting   bool
}

// NewModel creates a chat model that sends messages as sender.
func NewModel(ctx context.Context, handler MessageHandler, replies *Replier, sender string) Model {
	input := textinput.New()
	input.Placeholder = "catat pengeluaran 50rb untuk makan"
	input.Prompt = "› "
	input.CharLimit = 500
	input.Focus()

	return Model{
		ctx:      ctx,
		handler:  handler,
		replies:  replies,
		theme:    themes.Default,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		input:    input,
		viewport: viewport.New(80, 20),
		sender:   sender,
		width:    80,
		height:   24,
	}
}

// Init starts listening for replies.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.replies.waitForReply)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			m.replies.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Send):
			return m.send()
		case key.Matches(msg, m.keymap.Clear):
			m.transcript = nil
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keymap.ScrollUp, m.keymap.ScrollDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case botReplyMsg:
		m.pending--
		m.append(entry{who: speakerBot, text: msg.text, at: msg.at})
		return m, m.replies.waitForReply

	case handledMsg:
		if msg.err != nil {
			m.pending--
			m.append(entry{who: speakerSystem, text: msg.err.Error(), at: time.Now()})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.pending++
	m.append(entry{who: speakerUser, text: text, at: time.Now()})

	msg := model.Message{
		ID:         uuid.NewString(),
		From:       m.sender,
		Body:       text,
		ReceivedAt: time.Now(),
	}
	handler, ctx := m.handler, m.ctx
	return m, func() tea.Msg {
		return handledMsg{err: handler.HandleMessage(ctx, msg)}
	}
}

func (m *Model) append(e entry) {
	m.transcript = append(m.transcript, e)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) resize() {
	headerHeight := lipgloss.Height(m.renderHeader())
	footerHeight := lipgloss.Height(m.renderFooter())
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-headerHeight-footerHeight, 3)
	m.input.Width = max(m.width-4, 10)
	m.help.Width = m.width
	m.refresh()
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("catat")
	who := m.theme.Subtitle.Render(" sebagai " + m.sender)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, who)
}

func (m Model) renderFooter() string {
	status := ""
	if m.pending > 0 {
		status = m.theme.StatusInfo.Render("mengetik…")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		m.theme.BorderedBox.Width(max(m.width-2, 10)).Render(m.input.View()),
		m.help.View(m.keymap),
	)
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return m.theme.Subtitle.Render(`Ketik "bantuan" untuk melihat perintah yang tersedia.`)
	}

	width := max(m.width-4, 20)
	blocks := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		stamp := m.theme.Timestamp.Render(e.at.Format("15:04"))
		var label, body string
		switch e.who {
		case speakerUser:
			label = m.theme.UserLabel.Render("Anda")
			body = m.theme.UserMessage.Width(width).Render(e.text)
		case speakerBot:
			label = m.theme.BotLabel.Render("Bot")
			body = m.theme.BotMessage.Width(width).Render(e.text)
		default:
			label = m.theme.StatusError.Render("Error")
			body = m.theme.BotMessage.Width(width).Render(e.text)
		}
		blocks = append(blocks, fmt.Sprintf("%s %s\n%s", label, stamp, body))
	}
	return strings.Join(blocks, "\n\n")
}
