package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/db"
)

// RefreshFunc runs one sync cycle in the background.
type RefreshFunc func(ctx context.Context) error

type model struct {
	settings    *config.Settings
	store       *db.Store
	refresh     RefreshFunc
	searchInput textinput.Model
	list        list.Model
	cards       []db.CardRecord
	boards      []string // known boards, for the filter
	board       string   // "" shows every board
	lastRun     string
	refreshing  bool
	width       int
	height      int
	searching   bool
	err         error
}

type cardItem struct {
	card db.CardRecord
}

func (c cardItem) Title() string {
	return fmt.Sprintf("%s : %s", c.card.PostedDate.Format("2006-01-02"), c.card.Title)
}

func (c cardItem) Description() string {
	return fmt.Sprintf("[%s] %s", c.card.BoardName, c.card.Href)
}

func (c cardItem) FilterValue() string {
	return c.card.Title + " " + c.card.Href
}

func initialModel(settings *config.Settings, refresh RefreshFunc) model {
	ti := textinput.New()
	ti.Placeholder = "Search cards..."
	ti.CharLimit = 256
	ti.Width = 50

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Adboard"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)

	return model{
		settings:    settings,
		refresh:     refresh,
		searchInput: ti,
		list:        l,
	}
}

type initMsg struct {
	store   *db.Store
	cards   []db.CardRecord
	lastRun string
	err     error
}

type searchMsg struct {
	cards []db.CardRecord
	err   error
}

type refreshMsg struct {
	err error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.initStore,
	)
}

func (m model) initStore() tea.Msg {
	store, err := db.NewStore(m.settings.DataDir)
	if err != nil {
		return initMsg{err: err}
	}

	lastRun, _ := store.GetMetadata("last_run_at")

	cards, err := store.ListCards("", 200)
	if err != nil {
		return initMsg{store: store, err: err}
	}

	return initMsg{store: store, cards: cards, lastRun: lastRun}
}

func (m model) doSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if m.store == nil {
			return searchMsg{err: fmt.Errorf("store not initialized")}
		}

		cards, err := m.store.SearchCards(query, 200)
		return searchMsg{cards: cards, err: err}
	}
}

func (m model) doRefresh() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	return refreshMsg{err: m.refresh(ctx)}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.searching {
				return m, tea.Quit
			}
		case "esc":
			if m.searching {
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			}
		case "/":
			if !m.searching {
				m.searching = true
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "enter":
			if m.searching {
				m.searching = false
				m.searchInput.Blur()
				return m, m.doSearch(m.searchInput.Value())
			}
		case "j", "down":
			if !m.searching {
				m.list.CursorDown()
				return m, nil
			}
		case "k", "up":
			if !m.searching {
				m.list.CursorUp()
				return m, nil
			}
		case "g":
			if !m.searching {
				m.list.Select(0)
				return m, nil
			}
		case "G":
			if !m.searching {
				items := m.list.Items()
				if len(items) > 0 {
					m.list.Select(len(items) - 1)
				}
				return m, nil
			}
		case "o":
			if !m.searching {
				if item, ok := m.list.SelectedItem().(cardItem); ok {
					openBrowser(item.card.Href)
				}
				return m, nil
			}
		case "b":
			if !m.searching {
				m.board = nextBoard(m.boards, m.board)
				m.list.SetItems(m.cardsToItems(m.cards))
				return m, nil
			}
		case "r":
			if !m.searching && m.refresh != nil && !m.refreshing {
				m.refreshing = true
				return m, m.doRefresh
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-6)
		m.searchInput.Width = msg.Width - 20

	case initMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.store = msg.store
		m.lastRun = msg.lastRun
		m.setCards(msg.cards)

	case searchMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.setCards(msg.cards)

	case refreshMsg:
		m.refreshing = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.lastRun = time.Now().Format(time.RFC3339)
		return m, m.doSearch(m.searchInput.Value())
	}

	if m.searching {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)

		// Live search on input change
		if _, ok := msg.(tea.KeyMsg); ok {
			cmds = append(cmds, m.doSearch(m.searchInput.Value()))
		}
	} else {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) setCards(cards []db.CardRecord) {
	m.cards = cards

	seen := make(map[string]bool)
	for _, b := range m.boards {
		seen[b] = true
	}
	for _, c := range cards {
		if !seen[c.BoardName] {
			seen[c.BoardName] = true
			m.boards = append(m.boards, c.BoardName)
		}
	}
	sort.Strings(m.boards)

	m.list.SetItems(m.cardsToItems(cards))
}

func (m model) cardsToItems(cards []db.CardRecord) []list.Item {
	items := make([]list.Item, 0, len(cards))
	for _, c := range cards {
		if m.board == "" || c.BoardName == m.board {
			items = append(items, cardItem{card: c})
		}
	}
	return items
}

// nextBoard cycles the filter: all boards, then each board in turn.
func nextBoard(boards []string, current string) string {
	if len(boards) == 0 {
		return ""
	}
	if current == "" {
		return boards[0]
	}
	for i, b := range boards {
		if b == current && i+1 < len(boards) {
			return boards[i+1]
		}
	}
	return ""
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	var b strings.Builder

	searchStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	activeFilter := lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")).
		Bold(true)

	filter := "all boards"
	if m.board != "" {
		filter = m.board
	}
	status := activeFilter.Render(filter)
	switch {
	case m.refreshing:
		status += statusStyle.Render("  syncing...")
	case m.lastRun != "":
		status += statusStyle.Render("  last run " + m.lastRun)
	}

	searchBox := searchStyle.Render(m.searchInput.View())

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, searchBox, "  ", status))
	b.WriteString("\n\n")

	b.WriteString(m.list.View())

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginTop(1)

	help := "[j/k]nav [g/G]top/end [/]search [o]pen [b]oard filter [r]un sync [q]uit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		cmd.Start()
	}
}

// Run starts the review browser. refresh may be nil, which disables the
// sync key.
func Run(settings *config.Settings, refresh RefreshFunc) error {
	p := tea.NewProgram(initialModel(settings, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
