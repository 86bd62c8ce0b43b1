package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/codeblock/log"
	"github.com/ardnew/codeblock/manifest"
)

// editDoneMsg is sent when the editor exits without error.
type editDoneMsg struct{ saved bool }

// editDeclinedMsg is sent when the user declined to re-edit after a load
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-load error.
type editErrorMsg struct{ err error }

const (
	buildPrompt = "➜ "
	ctrlPrompt  = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help       Print this cruft
  show       Print the parts of the fragment being built
  format     Print the format string of the fragment being built
  undo       Remove the last step
  reset      Remove all steps
  list       List manifest fragments
  load PATH  Load a manifest
  edit       Edit the manifest in external $EDITOR
  clear      Clear screen
  quit       Exit REPL

Steps (build mode):

  add "format" [expr, ...]        statement "format" [expr, ...]
  begin "construct" [expr, ...]   next "construct" [expr, ...]
  end ["construct" [expr, ...]]   indent [count]   unindent [count]
  embed fragment-name

  Arguments are expressions; manifest vars, env(name), and fragment(name)
  are in scope.

Usage:
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between build and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeBuild inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the step echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(buildPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and
// input styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	buildText    string
	buildCursor  int
	ctrlText     string
	ctrlCursor   int
}

// Config selects the manifest and environment of a REPL session.
type Config struct {
	// Manifest is the path of the manifest to load, if any.
	Manifest string
	// CacheDir is the directory holding the history file.
	CacheDir string
	// Options configure loading of manifests.
	Options []manifest.Option
	Logger  log.Logger
}

// Run starts the REPL.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := cfg.Logger

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.String("manifest", cfg.Manifest),
	)

	s := newSession(ctx, logger, cfg.Options...)

	if cfg.Manifest != "" {
		// Every fragment must build before the session starts.
		if err := s.load(cfg.Manifest); err != nil {
			return err
		}
	}

	history := NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
	if err := history.Load(); err != nil {
		fmt.Printf("Warning: could not load history: %v\n", err)
	}

	logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, s, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(buildPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeBuild,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(buildPrompt) - 2

		return m, nil

	case editDoneMsg:
		if !msg.saved {
			return m, tea.Println(hintStyle.Render("🗴 — edit cancelled."))
		}

		if err := m.session.load(m.session.path); err != nil {
			return m, tea.Println(errorStyle.Render("🗴 — error: " + err.Error()))
		}

		return m, tea.Println(resultStyle.Render("✔ — manifest reloaded"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit discarded."))

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 — error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	usage, hasUsage := m.stepUsage(input)

	switch {
	case m.historyIdx < m.history.Len():
		pos := m.historyIdx + 1
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(pos)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		var hint string
		if m.mode == modeBuild {
			hint = "Type a step (add, statement, begin, ...) or press Esc for commands"
		} else {
			hint = "Type: help, show, undo, list, load, edit, quit (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width,
		))

	case hasUsage:
		b.WriteString(hintStyle.Render(usage))
	}

	b.WriteString("\n")

	return b.String()
}

// stepUsage returns the operand syntax of the step named by the first word
// of input in build mode.
func (m model) stepUsage(input string) (string, bool) {
	if m.mode != modeBuild {
		return "", false
	}

	word, _, _ := strings.Cut(strings.TrimSpace(input), " ")

	kind, ok := manifest.ParseStepKind(word)
	if !ok {
		return "", false
	}

	return stepUsage[kind], true
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.historyPrev()

	case tea.KeyDown:
		return m.historyNext()

	case tea.KeyShiftUp:
		return m.historyPrevInMode()

	case tea.KeyShiftDown:
		return m.historyNextInMode()

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes:
		// Space breaks out of tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by dir (1 forward, -1 backward).
func (m model) cycle(dir int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	// Single candidate: complete and confirm immediately.
	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + len(m.matches)) % len(m.matches)

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.buildText = ""
	m.buildCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	refreshMatches(&m, false)

	_, _ = m.history.Write(input, m.mode)
	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		m.logger.TraceContext(m.ctxFunc(), "repl command",
			slog.String("input", input),
		)

		return m.executeCommand(input)
	}

	echoCmd := tea.Println(formatCommand(input))

	if err := m.session.step(input); err != nil {
		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	return m, tea.Sequence(
		echoCmd,
		tea.Println(resultStyle.Render(m.session.show())),
	)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	echoCmd := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(m.ctxFunc(), "repl exec command",
		slog.String("command", cmd),
		slog.String("arg", arg),
	)

	reply := func(s string) (model, tea.Cmd) {
		return m, tea.Sequence(echoCmd, tea.Println(s))
	}

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return reply(helpMessage())

	case "s", "show":
		return reply(resultStyle.Render(m.session.show()))

	case "f", "format":
		return reply(resultStyle.Render(strconv.Quote(m.session.frag.Format())))

	case "u", "undo":
		line, ok := m.session.undo()
		if !ok {
			return reply(hintStyle.Render("nothing to undo"))
		}

		return reply(hintStyle.Render("undo: "+line) + "\n" +
			resultStyle.Render(m.session.show()))

	case "reset":
		m.session.reset()

		return reply(hintStyle.Render("✔ — steps cleared"))

	case "l", "list":
		return reply(m.session.list())

	case "load":
		if arg == "" {
			arg = m.session.path
		}

		if arg == "" {
			return reply(errorStyle.Render("error: " + ErrNoManifest.Error()))
		}

		if err := m.session.load(arg); err != nil {
			return reply(errorStyle.Render("error: " + err.Error()))
		}

		return reply(resultStyle.Render(
			fmt.Sprintf("✔ — loaded %d fragments", m.session.set.Len())))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		if m.session.path == "" {
			return reply(errorStyle.Render("error: " + ErrNoManifest.Error()))
		}

		return m, tea.Sequence(echoCmd, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editManifestCommand{
		path:    m.session.path,
		opts:    m.session.opts,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		return editDoneMsg{saved: cmd.saved}
	})
}

// recall replaces the input with history entry i, switching mode if needed.
func (m model) recall(i int) model {
	entry, err := m.history.GetEntry(i)
	if err != nil {
		return m
	}

	m.historyIdx = i

	if m.mode != entry.Mode {
		m, _ = m.switchToMode(entry.Mode)
	}

	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	refreshMatches(&m, false)

	return m
}

// clearRecall leaves history navigation with an empty input.
func (m model) clearRecall() model {
	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(&m, false)

	return m
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		return m.recall(m.historyIdx - 1), nil
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		return m.recall(m.historyIdx + 1), nil
	}

	return m.clearRecall(), nil
}

func (m model) historyPrevInMode() (model, tea.Cmd) {
	for i := m.historyIdx - 1; i >= 0; i-- {
		if entry, err := m.history.GetEntry(i); err == nil && entry.Mode == m.mode {
			return m.recall(i), nil
		}
	}

	return m, nil
}

func (m model) historyNextInMode() (model, tea.Cmd) {
	for i := m.historyIdx + 1; i < m.history.Len(); i++ {
		if entry, err := m.history.GetEntry(i); err == nil && entry.Mode == m.mode {
			return m.recall(i), nil
		}
	}

	if m.historyIdx < m.history.Len() {
		return m.clearRecall(), nil
	}

	return m, nil
}

// toggleMode switches between build and control modes, preserving input
// state.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeBuild {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeBuild)
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeBuild {
		m.buildText = m.input.Value()
		m.buildCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeBuild {
		m.input.Prompt = promptStyle.Render(buildPrompt)
		m.input.SetValue(m.buildText)
		m.input.SetCursor(m.buildCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
