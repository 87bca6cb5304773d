package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tunez/mixtape/internal/library"
	"github.com/tunez/mixtape/internal/mixes"
	"github.com/tunez/mixtape/internal/queue"
	"github.com/tunez/mixtape/internal/ui"
)

type screen int

const (
	screenMixes screen = iota
	screenMix
	screenQueue
	screenCount
)

// Generator produces the current set of mixes.
type Generator interface {
	Generate(ctx context.Context) (*mixes.Playlists, error)
}

// QueueSaver persists the queue after it changes.
type QueueSaver interface {
	Save(ctx context.Context, snap queue.Snapshot, mixID string) error
}

// Options configures the browser. Queue and Saver may be nil.
type Options struct {
	Theme    ui.Theme
	NoEmoji  bool
	PageSize int
	Queue    *queue.Queue
	MixID    string
	Saver    QueueSaver
	Logger   *slog.Logger
}

type Model struct {
	gen    Generator
	writer *queueWriter
	logger *slog.Logger
	queue  *queue.Queue
	theme  ui.Theme

	noEmoji  bool
	pageSize int

	screen    screen
	mixes     []mixes.Playlist
	openMix   int
	queuedMix string
	selection int
	loading   bool
	status    string
	errorMsg  string
	width     int
	height    int
	showHelp  bool
	showDiag  bool
	filter    *FilterState
	diag      *DiagnosticsState
}

func New(gen Generator, opts Options) Model {
	q := opts.Queue
	if q == nil {
		q = queue.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return Model{
		gen:       gen,
		writer:    newQueueWriter(opts.Saver),
		logger:    logger,
		queue:     q,
		theme:     opts.Theme,
		noEmoji:   opts.NoEmoji,
		pageSize:  pageSize,
		screen:    screenMixes,
		openMix:   -1,
		queuedMix: opts.MixID,
		loading:   true,
		status:    "Generating mixes…",
		filter:    NewFilterState(),
		diag:      NewDiagnosticsState(),
	}
}

type mixesMsg struct {
	lists *mixes.Playlists
	took  time.Duration
	err   error
}

type savedMsg struct {
	err error
}

type clearErrorMsg struct{}

func (m Model) Init() tea.Cmd {
	return m.generateCmd()
}

func (m Model) generateCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		start := time.Now()
		lists, err := m.gen.Generate(ctx)
		return mixesMsg{lists: lists, took: time.Since(start), err: err}
	}
}

// saveQueueCmd snapshots the queue on the update goroutine. The command
// only ever sees the copy.
func (m Model) saveQueueCmd() tea.Cmd {
	if m.writer == nil {
		return nil
	}
	w, seq := m.writer, m.writer.next()
	snap, mixID := m.queue.Snapshot(), m.queuedMix
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := w.write(ctx, seq, snap, mixID)
		return savedMsg{err: err}
	}
}

func (m Model) clearErrorCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

func (m Model) setError(err error) (Model, tea.Cmd) {
	m.errorMsg = err.Error()
	return m, m.clearErrorCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case mixesMsg:
		m.loading = false
		m.diag.RecordGeneration(msg.took, msg.lists, msg.err)
		if msg.err != nil {
			m.logger.Error("generate mixes", "err", msg.err)
			m.status = "Generation failed"
			return m.setError(msg.err)
		}
		m.mixes = msg.lists.All()
		m.filter.SetMixes(m.mixes)
		m.selection = clamp(m.selection, 0, max(len(m.mixes)-1, 0))
		if m.openMix >= len(m.mixes) {
			m.openMix = -1
			if m.screen == screenMix {
				m.screen = screenMixes
			}
		}
		m.status = fmt.Sprintf("%d mixes", len(m.mixes))
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.logger.Warn("save queue", "err", msg.err)
			return m.setError(msg.err)
		}
		return m, nil
	case clearErrorMsg:
		m.errorMsg = ""
		return m, nil
	case tea.KeyMsg:
		if m.filter.Active() {
			return m.updateFilter(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "esc":
		m.showHelp = false
		m.showDiag = false
		if m.screen == screenMix {
			m.screen = screenMixes
			m.selection = max(m.openMix, 0)
		}
		return m, nil
	case "ctrl+d":
		m.showDiag = !m.showDiag
		return m, nil
	case "tab":
		m.screen = (m.screen + 1) % screenCount
		if m.screen == screenMix && m.openMix < 0 {
			m.screen++
		}
		m.selection = 0
		return m, nil
	case "shift+tab":
		m.screen = (m.screen + screenCount - 1) % screenCount
		if m.screen == screenMix && m.openMix < 0 {
			m.screen--
		}
		m.selection = 0
		return m, nil
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.status = "Regenerating mixes…"
		return m, m.generateCmd()
	case "/":
		if m.screen == screenMixes {
			m.filter.Open()
		}
		return m, nil
	case "j", "down":
		if m.selection < m.currentListLen()-1 {
			m.selection++
		}
		return m, nil
	case "k", "up":
		if m.selection > 0 {
			m.selection--
		}
		return m, nil
	case "g", "home":
		m.selection = 0
		return m, nil
	case "G", "end":
		m.selection = max(m.currentListLen()-1, 0)
		return m, nil
	case "enter":
		return m.handleEnter()
	case "a":
		return m.queueMix()
	case "A":
		if m.screen == screenMix {
			return m.playNext()
		}
	case "n", "p":
		if m.screen == screenQueue {
			return m.step(msg.String() == "n")
		}
	case "s":
		if m.screen == screenQueue {
			m.queue.ToggleShuffle()
			return m, m.saveQueueCmd()
		}
	case "R":
		if m.screen == screenQueue {
			mode := m.queue.CycleRepeat()
			m.status = "Repeat: " + mode.String()
			return m, m.saveQueueCmd()
		}
	case "d":
		if m.screen == screenQueue {
			if err := m.queue.Remove(m.selection); err != nil {
				return m, nil
			}
			m.selection = clamp(m.selection, 0, max(m.queue.Len()-1, 0))
			return m, m.saveQueueCmd()
		}
	case "J":
		if m.screen == screenQueue && m.selection < m.queue.Len()-1 {
			_ = m.queue.Move(m.selection, m.selection+1)
			m.selection++
			return m, m.saveQueueCmd()
		}
	case "K":
		if m.screen == screenQueue && m.selection > 0 {
			_ = m.queue.Move(m.selection, m.selection-1)
			m.selection--
			return m, m.saveQueueCmd()
		}
	case "c":
		if m.screen == screenQueue {
			m.queue.Clear()
			m.queuedMix = ""
			m.selection = 0
			m.status = "Queue cleared"
			return m, m.saveQueueCmd()
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.Close()
		return m, nil
	case tea.KeyEnter:
		idx, ok := m.filter.Selected()
		m.filter.Close()
		if !ok {
			return m, nil
		}
		m.selection = idx
		return m.handleEnter()
	case tea.KeyUp:
		m.filter.SelectUp()
	case tea.KeyDown:
		m.filter.SelectDown()
	case tea.KeyBackspace:
		m.filter.Backspace()
	case tea.KeyRunes, tea.KeySpace:
		for _, r := range msg.Runes {
			m.filter.InsertChar(r)
		}
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenMixes:
		if len(m.mixes) == 0 {
			return m, nil
		}
		m.openMix = clamp(m.selection, 0, len(m.mixes)-1)
		m.screen = screenMix
		m.selection = 0
		m.status = m.mixes[m.openMix].Name
	case screenQueue:
		if err := m.queue.SetCurrent(m.selection); err != nil {
			return m.setError(err)
		}
		return m, m.saveQueueCmd()
	}
	return m, nil
}

// queueMix appends the selected (or open) mix to the queue, skipping songs
// already queued.
func (m Model) queueMix() (tea.Model, tea.Cmd) {
	var idx int
	switch m.screen {
	case screenMixes:
		idx = m.selection
	case screenMix:
		idx = m.openMix
	default:
		return m, nil
	}
	if idx < 0 || idx >= len(m.mixes) {
		return m, nil
	}
	mix := m.mixes[idx]
	added := m.queue.AddUnique(mix.Songs...)
	m.queuedMix = mix.ID
	m.status = fmt.Sprintf("Queued %d songs from %s", added, mix.Name)
	m.logger.Info("queued mix", "mix", mix.ID, "added", added)
	return m, m.saveQueueCmd()
}

// playNext lines up the selected song of the open mix right after the
// current one.
func (m Model) playNext() (tea.Model, tea.Cmd) {
	if m.openMix < 0 || m.openMix >= len(m.mixes) {
		return m, nil
	}
	songs := m.mixes[m.openMix].Songs
	if m.selection < 0 || m.selection >= len(songs) {
		return m, nil
	}
	song := songs[m.selection]
	m.queue.AddNext(song)
	m.status = "Up next: " + ui.SongLine(song)
	return m, m.saveQueueCmd()
}

// step moves the current song forward or back, following the repeat mode.
func (m Model) step(forward bool) (tea.Model, tea.Cmd) {
	var (
		song library.Song
		err  error
	)
	if forward {
		song, err = m.queue.Next()
	} else {
		song, err = m.queue.Prev()
	}
	switch {
	case errors.Is(err, queue.ErrEnd):
		m.status = "End of queue"
		return m, nil
	case errors.Is(err, queue.ErrEmpty):
		return m, nil
	case err != nil:
		return m.setError(err)
	}
	m.selection = m.queue.CurrentIndex()
	m.status = "Now: " + ui.SongLine(song)
	return m, m.saveQueueCmd()
}

func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showDiag {
		return m.diag.Render(&m)
	}
	if m.filter.Active() {
		return m.filter.Render(&m)
	}
	var main string
	switch m.screen {
	case screenMixes:
		main = m.renderMixes()
	case screenMix:
		main = m.renderMix()
	case screenQueue:
		main = m.renderQueue()
	}
	top := m.theme.Title.Render("Mixtape ▸ " + m.screenTitle())
	status := m.theme.Dim.Render(m.status)
	if m.errorMsg != "" {
		status = m.theme.Error.Render(m.errorMsg)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, main, status, m.renderQueueBar())
}

func (m Model) renderMixes() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Mixes") + "\n")
	if m.loading && len(m.mixes) == 0 {
		b.WriteString(m.theme.Dim.Render("Loading…") + "\n")
		return b.String()
	}
	if len(m.mixes) == 0 {
		b.WriteString(m.theme.Dim.Render("No mixes yet. Play some music or add patterns.") + "\n")
		return b.String()
	}
	start, end := m.window(len(m.mixes))
	for i := start; i < end; i++ {
		mix := m.mixes[i]
		prefix := "  "
		if i == m.selection {
			prefix = "⏵ "
		}
		fav := isFavorite(mix.ID)
		icon := ui.MixIcon(fav, m.noEmoji)
		style := m.theme.Mood
		if fav {
			style = m.theme.Favorite
		}
		line := fmt.Sprintf("%s %s (%d songs)", icon, mix.Name, len(mix.Songs))
		if i == m.selection {
			b.WriteString(prefix + m.theme.Selected.Render(line) + "\n")
		} else {
			b.WriteString(prefix + style.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderMix() string {
	var b strings.Builder
	if m.openMix < 0 || m.openMix >= len(m.mixes) {
		return m.theme.Dim.Render("No mix selected") + "\n"
	}
	mix := m.mixes[m.openMix]
	b.WriteString(m.theme.Title.Render(mix.Name) + "\n")
	start, end := m.window(len(mix.Songs))
	for i := start; i < end; i++ {
		prefix := "  "
		if i == m.selection {
			prefix = "⏵ "
		}
		line := fmt.Sprintf("%2d. %s", i+1, ui.SongLine(mix.Songs[i]))
		if m.width > 0 {
			line = ui.Truncate(line, m.width-2)
		}
		b.WriteString(prefix + m.theme.Text.Render(line) + "\n")
	}
	b.WriteString(m.theme.Dim.Render("a: queue this mix  A: play song next  esc: back") + "\n")
	return b.String()
}

func (m Model) renderQueue() string {
	var b strings.Builder
	items := m.queue.Items()
	currentIdx := m.queue.CurrentIndex()
	b.WriteString(m.theme.Title.Render("Queue") + "\n")
	if len(items) == 0 {
		b.WriteString(m.theme.Dim.Render("Queue is empty") + "\n")
		return b.String()
	}
	marker := "🔊"
	if m.noEmoji {
		marker = "> "
	}
	start, end := m.window(len(items))
	for i := start; i < end; i++ {
		prefix := "   "
		if i == currentIdx {
			prefix = " " + marker
		}
		if i == m.selection {
			if i == currentIdx {
				prefix = "⏵" + marker
			} else {
				prefix = "⏵  "
			}
		}
		b.WriteString(prefix + fmt.Sprintf("%d. %s\n", i+1, ui.SongLine(items[i])))
	}
	return b.String()
}

func (m Model) renderHelp() string {
	lines := []string{
		m.theme.Title.Render("Help"),
		"",
		m.theme.Accent.Render("Global"),
		"  tab/shift+tab : Switch screens",
		"  r             : Regenerate mixes",
		"  ?             : Toggle help",
		"  ctrl+d        : Toggle diagnostics",
		"  q / ctrl+c    : Quit",
		"",
		m.theme.Accent.Render("Mixes"),
		"  j / k         : Move selection down / up",
		"  enter         : Open mix",
		"  a             : Queue the whole mix",
		"  A             : Play selected song next",
		"  /             : Filter mixes",
		"  esc           : Back to mixes",
		"",
		m.theme.Accent.Render("Queue"),
		"  enter         : Make current",
		"  n / p         : Next / previous song",
		"  d             : Remove item",
		"  J / K         : Move item down / up",
		"  s / R         : Shuffle / Repeat",
		"  c             : Clear queue",
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderQueueBar() string {
	name := "(empty queue)"
	if cur, err := m.queue.Current(); err == nil {
		name = ui.SongLine(cur)
	}
	shuffle := ""
	if m.queue.IsShuffled() {
		shuffle = " shuffle"
	}
	repeat := ""
	if mode := m.queue.RepeatMode(); mode != queue.RepeatOff {
		repeat = " repeat:" + mode.String()
	}
	from := ""
	if m.queuedMix != "" {
		from = " from " + m.queuedMix
	}
	return m.theme.Border.Render(fmt.Sprintf("%s  [%d queued%s]%s%s", name, m.queue.Len(), from, shuffle, repeat))
}

func (m Model) screenTitle() string {
	switch m.screen {
	case screenMixes:
		return "Mixes"
	case screenMix:
		if m.openMix >= 0 && m.openMix < len(m.mixes) {
			return m.mixes[m.openMix].Name
		}
		return "Mix"
	case screenQueue:
		return "Queue"
	default:
		return ""
	}
}

func (m Model) currentListLen() int {
	switch m.screen {
	case screenMixes:
		return len(m.mixes)
	case screenMix:
		if m.openMix >= 0 && m.openMix < len(m.mixes) {
			return len(m.mixes[m.openMix].Songs)
		}
		return 0
	case screenQueue:
		return m.queue.Len()
	default:
		return 0
	}
}

// window returns the visible slice bounds keeping the selection on screen.
func (m Model) window(n int) (int, int) {
	size := m.pageSize
	if m.height > 6 && m.height-6 < size {
		size = m.height - 6
	}
	start := 0
	if m.selection >= size {
		start = m.selection - size + 1
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}

func isFavorite(id string) bool {
	switch id {
	case mixes.RecentFavoritesID, mixes.PastFavoritesID, mixes.AllTimeFavoritesID:
		return true
	}
	return false
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
