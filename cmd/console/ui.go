package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kmarlowe/frontier-engine/internal/handlers"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "Type an action, or a number to pick a choice..."
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *handlers.SessionResponse
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Transcript of narration and player input shown in the chat panel
	transcript []transcriptEntry

	// Story selection state
	showStoryModal bool
	stories        []handlers.StorySummary
	selectedStory  int
	loadingStories bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type transcriptEntry struct {
	speaker string // "you", "narrator" or "system"
	text    string
}

type turnResponseMsg struct {
	turn *handlers.TurnResponse
	err  error
}

type actionResultMsg struct {
	session *handlers.SessionResponse
	err     error
}

type storiesLoadedMsg struct {
	stories []handlers.StorySummary
	err     error
}

type sessionCreatedMsg struct {
	session *handlers.SessionResponse
	err     error
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
			Foreground(lipgloss.Color("172")). // amber
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("180")) // sand

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("108")) // sage

	decisionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("167")). // clay red
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("172")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("172")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("172")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
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
		config:         cfg,
		client:         client,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		ready:          false,
		showStoryModal: true,
		loadingStories: true,
		selectedStory:  0,
	}
}

func writeMetadata(sess *handlers.SessionResponse) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("FRONTIER ENGINE") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(sess.ID.String()[:8] + "...\n\n")

	content.WriteString("Story:\n")
	content.WriteString(sess.StoryID + "\n\n")

	state := sess.State
	if state.CurrentStoryPoint != nil {
		content.WriteString("Location:\n")
		content.WriteString(state.CurrentStoryPoint.ID + "\n\n")
	}

	content.WriteString("Visited:\n")
	content.WriteString(fmt.Sprintf("%d points\n\n", len(state.VisitedPoints)))

	content.WriteString("Decisions:\n")
	content.WriteString(fmt.Sprintf("%d recorded\n\n", len(state.Context.DecisionHistory)))

	if is := state.Context.ImpactState; is != nil {
		if len(is.Reputations) > 0 {
			content.WriteString("Reputation:\n")
			for k, v := range is.Reputations {
				content.WriteString(fmt.Sprintf("• %s: %+.1f\n", k, v))
			}
			content.WriteString("\n")
		}
		if len(is.Relationships) > 0 {
			content.WriteString("Relationships:\n")
			for k, v := range is.Relationships {
				content.WriteString(fmt.Sprintf("• %s: %+.1f\n", k, v))
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /impacts: Impacts\n")
	content.WriteString("• /copy: Copy last line\n")

	return content.String()
}

// writeChatContent rebuilds the chat panel from the transcript for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("FRONTIER ENGINE") + "\n\n")
	content.WriteString("Ride into the story. Type your actions below.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, entry := range m.transcript {
		switch entry.speaker {
		case "you":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, chatWidth-6) + "\n\n")
		case "narrator":
			prefix := narratorStyle.Render(AgentName + ": ")
			content.WriteString(prefix + wordwrap.String(entry.text, chatWidth-len(AgentName)-2) + "\n\n")
		default:
			content.WriteString(wordwrap.String(entry.text, chatWidth) + "\n\n")
		}
	}

	if m.session != nil {
		content.WriteString(m.renderChoices(chatWidth))
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// renderChoices shows the pending decision's options, or the current
// point's choices, numbered for quick selection.
func (m *ConsoleUI) renderChoices(chatWidth int) string {
	var content strings.Builder
	state := m.session.State

	if d := state.CurrentDecision; d != nil {
		content.WriteString(decisionStyle.Render("Decision: "+d.Prompt) + "\n")
		for i, opt := range d.Options {
			content.WriteString(choiceStyle.Render(fmt.Sprintf("  %d. %s", i+1, opt.Text)) + "\n")
		}
		content.WriteString("\n")
		return content.String()
	}

	if len(state.AvailableChoices) > 0 {
		for i, c := range state.AvailableChoices {
			line := fmt.Sprintf("  %d. %s", i+1, c.Text)
			content.WriteString(choiceStyle.Render(wordwrap.String(line, chatWidth)) + "\n")
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showStoryModal {
		return m.loadStories()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showStoryModal {
		return m.updateStoryModal(msg)
	}

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
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		if m.session != nil {
			m.metaViewport.SetContent(writeMetadata(m.session))
		}
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.transcript = append(m.transcript, transcriptEntry{speaker: "you", text: input})
			m.writeChatContent()

			if n, err := strconv.Atoi(input); err == nil {
				return m, tea.Batch(m.pickNumbered(n), progressTick())
			}
			return m, tea.Batch(m.sendTurnCmd(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: errorStyle.Render("Error: " + msg.err.Error())})
		} else {
			m.session = &msg.turn.Session
			m.transcript = append(m.transcript, transcriptEntry{speaker: "narrator", text: msg.turn.Narrative})
			m.metaViewport.SetContent(writeMetadata(m.session))
		}
		m.writeChatContent()
		return m, nil

	case actionResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: errorStyle.Render("Error: " + msg.err.Error())})
			m.writeChatContent()
			return m, nil
		}
		m.session = msg.session
		if msg.session.ErrorMessage != "" {
			m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: errorStyle.Render(msg.session.ErrorMessage)})
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.session))
			return m, nil
		}
		m.metaViewport.SetContent(writeMetadata(m.session))
		// Follow a successful move with fresh narration
		m.loading = true
		return m, tea.Batch(m.sendTurnCmd(""), progressTick())

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// pickNumbered resolves a numeric input against the pending decision or
// the current point's choices.
func (m ConsoleUI) pickNumbered(n int) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		state := sess.State

		if d := state.CurrentDecision; d != nil {
			if n < 1 || n > len(d.Options) {
				return actionResultMsg{nil, fmt.Errorf("pick a number between 1 and %d", len(d.Options))}
			}
			opt := d.Options[n-1]
			updated, err := dispatchAction(m.client, m.config.APIBaseURL, sess.ID,
				narrative.RecordDecision(d.ID, opt.ID, opt.Text))
			return actionResultMsg{updated, err}
		}

		if n < 1 || n > len(state.AvailableChoices) {
			return actionResultMsg{nil, fmt.Errorf("pick a number between 1 and %d", len(state.AvailableChoices))}
		}
		choice := state.AvailableChoices[n-1]

		if _, err := dispatchAction(m.client, m.config.APIBaseURL, sess.ID,
			narrative.SelectChoice(choice.ID)); err != nil {
			return actionResultMsg{nil, err}
		}
		updated, err := dispatchAction(m.client, m.config.APIBaseURL, sess.ID,
			narrative.NavigateToPoint(choice.LeadsTo))
		return actionResultMsg{updated, err}
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /impacts - Show how your decisions ripple
• /copy - Copy the last narration to the clipboard
• Ctrl+C - Quit

How to play:
• Type your actions and press Enter
• Type a choice number to take that path
• When a decision is posed, answer with its number
`
		m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: titleStyle.Render("Help:") + helpText})
		m.writeChatContent()

	case "/impacts":
		var text strings.Builder
		text.WriteString(titleStyle.Render("Impacts:") + "\n")
		is := m.session.State.Context.ImpactState
		if is == nil || (len(is.Reputations) == 0 && len(is.Relationships) == 0 && len(is.WorldState) == 0 && len(is.StoryArcs) == 0) {
			text.WriteString("Nothing has rippled out yet.\n")
		} else {
			for k, v := range is.Reputations {
				text.WriteString(fmt.Sprintf("• reputation %s = %+.2f\n", k, v))
			}
			for k, v := range is.Relationships {
				text.WriteString(fmt.Sprintf("• relationship %s = %+.2f\n", k, v))
			}
			for k, v := range is.WorldState {
				text.WriteString(fmt.Sprintf("• world %s = %+.2f\n", k, v))
			}
			for k, v := range is.StoryArcs {
				text.WriteString(fmt.Sprintf("• arc %s = %+.2f\n", k, v))
			}
		}
		m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: text.String()})
		m.writeChatContent()

	case "/copy":
		last := ""
		for i := len(m.transcript) - 1; i >= 0; i-- {
			if m.transcript[i].speaker == "narrator" {
				last = m.transcript[i].text
				break
			}
		}
		if last == "" {
			m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: "Nothing to copy yet."})
		} else if err := clipboard.WriteAll(last); err != nil {
			m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: errorStyle.Render("Copy failed: " + err.Error())})
		} else {
			m.transcript = append(m.transcript, transcriptEntry{speaker: "system", text: "Copied last narration."})
		}
		m.writeChatContent()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendTurnCmd(input string) tea.Cmd {
	sessionID := m.session.ID
	return func() tea.Msg {
		turn, err := sendTurn(m.client, m.config.APIBaseURL, sessionID, input)
		return turnResponseMsg{turn, err}
	}
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		stories, err := listStories(m.client, m.config.APIBaseURL)
		return storiesLoadedMsg{stories, err}
	}
}

func (m ConsoleUI) createSessionFromStory(storyID string) tea.Cmd {
	return func() tea.Msg {
		sess, err := createSession(m.client, m.config.APIBaseURL, storyID)
		return sessionCreatedMsg{sess, err}
	}
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case storiesLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.stories = msg.stories
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showStoryModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.session))
			m.textarea.Focus()
			m.ready = true
			// Open with the first narration
			m.loading = true
			return m, tea.Batch(m.sendTurnCmd(""), progressTick(), textarea.Blink)
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingStories {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if len(m.stories) > 0 {
				m.loading = true
				return m, m.createSessionFromStory(m.stories[m.selectedStory].ID)
			}
		}
	}

	return m, nil
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
				if !m.showStoryModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Ride Off?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the trail?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingStories {
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching the story library..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load stories: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Saddling Up..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Creating your session..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Pick a Story"))
		content.WriteString("\n\n")

		for i, s := range m.stories {
			label := s.Title
			if s.Rating != "" {
				label = fmt.Sprintf("%s [%s]", s.Title, s.Rating)
			}
			if i == m.selectedStory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showStoryModal {
		return m.renderStoryModal()
	}

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
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
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
		usable = 30
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
			bar.WriteString("▓")
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
