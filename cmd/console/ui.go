package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

type entryKind int

const (
	entryNarrator entryKind = iota
	entryPlayer
	entryNotice
	entryError
)

type entry struct {
	kind entryKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx          context.Context
	game         game
	playerName   string
	saveDir      string
	entries      []entry
	status       chat.Status
	lastReply    string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type startedMsg struct {
	result *turnResult
	err    error
}

type turnMsg struct {
	result *turnResult
	err    error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(ctx context.Context, g game, playerName, saveDir string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		ctx:          ctx,
		game:         g,
		playerName:   playerName,
		saveDir:      saveDir,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		loading:      true,
	}
}

func writeMetadata(status chat.Status, playerName, sessionID string) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STORY") + "\n\n")

	if playerName != "" {
		content.WriteString("Player:\n")
		content.WriteString(playerName + "\n\n")
	}

	content.WriteString("Turn:\n")
	if status.GameEnded {
		content.WriteString(fmt.Sprintf("%d of %d (ended)\n\n", status.Turn, status.MaxTurns))
	} else {
		content.WriteString(fmt.Sprintf("%d of %d\n\n", status.Turn, status.MaxTurns))
	}

	if status.Phase != "" {
		content.WriteString("Phase:\n")
		content.WriteString(status.Phase + "\n\n")
	}

	if status.Location != "" {
		content.WriteString("Location:\n")
		content.WriteString(status.Location + "\n\n")
	}

	content.WriteString("Health:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", status.Health))

	if len(sessionID) >= 8 {
		content.WriteString("Session:\n")
		content.WriteString(sessionID[:8] + "...\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• look, status\n")
	content.WriteString("• summarize, help\n")
	content.WriteString("• save [name]\n")
	content.WriteString("• Ctrl+Y: Copy reply\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

// writeChatContent builds the transcript for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("STORY CREW") + "\n\n")
	content.WriteString("Type what you want to do. Every request uses a turn.\n")
	content.WriteString("look, status, summarize, save and help are free.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, e := range m.entries {
		switch e.kind {
		case entryNarrator:
			content.WriteString(formatNarratorResponse(e.text, chatWidth) + "\n\n")
		case entryPlayer:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(e.text, chatWidth-6) + "\n\n")
		case entryNotice:
			content.WriteString(loadingStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		case entryError:
			content.WriteString(errorStyle.Render("Error: "+e.text) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) refreshMetadata() {
	id := ""
	if gid := m.game.ID(); gid != uuid.Nil {
		id = gid.String()
	}
	m.metaViewport.SetContent(writeMetadata(m.status, m.playerName, id))
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.start(), progressTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		// Reformat everything for the new width
		m.ready = true
		m.writeChatContent()
		m.refreshMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			if m.lastReply != "" {
				if err := clipboard.WriteAll(m.lastReply); err != nil {
					m.entries = append(m.entries, entry{entryError, "could not copy to clipboard: " + err.Error()})
				} else {
					m.entries = append(m.entries, entry{entryNotice, "Copied the last reply to the clipboard."})
				}
				m.writeChatContent()
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			return m.handleInput(input)
		}

	case startedMsg:
		m.loading = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{entryError, msg.err.Error()})
		} else {
			m.applyResult(msg.result)
		}
		m.writeChatContent()
		m.refreshMetadata()
		return m, nil

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{entryError, msg.err.Error()})
		} else {
			m.applyResult(msg.result)
		}
		m.writeChatContent()
		m.refreshMetadata()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()     // Refresh the chat content to update the progress bar
			return m, progressTick() // Continue the animation
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleInput runs the commands the console owns and sends everything else
// to the game.
func (m ConsoleUI) handleInput(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.ToLower(input))

	switch fields[0] {
	case "quit", "exit":
		m.showQuitModal = true
		return m, nil
	case "save":
		m.entries = append(m.entries, entry{entryPlayer, input})
		path := savePath(m.saveDir, strings.TrimSpace(input[len("save"):]), m.game.ID())
		if err := m.game.Save(path); err != nil {
			m.entries = append(m.entries, entry{entryError, err.Error()})
		} else {
			m.entries = append(m.entries, entry{entryNotice, "Game saved to " + path})
		}
		m.writeChatContent()
		return m, nil
	}

	m.entries = append(m.entries, entry{entryPlayer, input})
	m.loading = true
	m.progressTick = 0
	m.writeChatContent()
	return m, tea.Batch(m.send(input), progressTick())
}

func (m *ConsoleUI) applyResult(r *turnResult) {
	m.status = r.Status
	m.lastReply = r.Text
	m.entries = append(m.entries, entry{entryNarrator, r.Text})
	if r.Degraded {
		m.entries = append(m.entries, entry{entryNotice, "Part of this reply could not be produced."})
	}
	if r.GameEnded {
		m.entries = append(m.entries, entry{entryNotice, "The story has ended. Type save to keep it or quit to leave."})
	}
}

func formatNarratorResponse(response string, width int) string {
	// Check if response already has a speaker prefix
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	// If no prefix, we'll add "Narrator: " so reduce available width
	wrapWidth := width
	if !hasPrefix {
		narratorPrefix := AgentName + ": "
		wrapWidth = width - len(narratorPrefix)
	}

	wrappedResponse := wordwrap.String(response, wrapWidth)
	lines := strings.Split(wrappedResponse, "\n")
	var formattedLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}

	return result
}

func (m ConsoleUI) start() tea.Cmd {
	return func() tea.Msg {
		r, err := m.game.Start(m.ctx, m.playerName)
		return startedMsg{r, err}
	}
}

func (m ConsoleUI) send(text string) tea.Cmd {
	return func() tea.Msg {
		r, err := m.game.Send(m.ctx, text)
		return turnMsg{r, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}

	case startedMsg, turnMsg:
		// A reply that lands while the modal is open is still shown.
		m.showQuitModal = false
		next, cmd := m.Update(msg)
		model := next.(ConsoleUI)
		model.showQuitModal = true
		return model, cmd
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n")
	content.WriteString("Unsaved progress will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"", // Add empty line for spacing
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
