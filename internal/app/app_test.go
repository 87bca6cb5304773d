package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tunez/mixtape/internal/library"
	"github.com/tunez/mixtape/internal/mixes"
	"github.com/tunez/mixtape/internal/queue"
	"github.com/tunez/mixtape/internal/ui"
)

var testSongs = []library.Song{
	{Path: "/m/a.mp3", Title: "Morning Song", Artist: "Sun", Genre: "pop", BPM: library.Float(100)},
	{Path: "/m/b.mp3", Title: "Gym Song", Artist: "Iron", Genre: "rock", BPM: library.Float(150)},
	{Path: "/m/c.mp3", Title: "Night Song", Artist: "Moon", Genre: "ambient", BPM: library.Float(70)},
}

var testPatterns = []mixes.Pattern{
	{ID: "all", Name: "Everything", Components: map[string]mixes.Component{
		mixes.KindTitle: {Phrases: []string{"song"}, Score: 1},
	}},
	{ID: "workout", Name: "Workout", Components: map[string]mixes.Component{
		mixes.KindBPM: {BPMRange: &mixes.Span{Low: 120, High: 200}, Score: 1},
	}},
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *fakeGenerator) Generate(context.Context) (*mixes.Playlists, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return mixes.Situations(library.NewCatalog(testSongs), testPatterns, time.Now()), nil
}

type fakeSaver struct {
	mu    sync.Mutex
	saves int
	mixID string
	items int
	paths []string
}

func (s *fakeSaver) Save(_ context.Context, snap queue.Snapshot, mixID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.mixID = mixID
	s.items = len(snap.Songs)
	s.paths = s.paths[:0]
	for _, song := range snap.Songs {
		s.paths = append(s.paths, song.Path)
	}
	return nil
}

func queuePaths(q *queue.Queue) []string {
	var out []string
	for _, s := range q.Items() {
		out = append(out, s.Path)
	}
	return out
}

func updateModel(m Model, msg tea.Msg) (Model, tea.Cmd) {
	nm, cmd := m.Update(msg)
	return nm.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadedModel returns a model with mixes already generated.
func loadedModel(t *testing.T, saver QueueSaver) Model {
	t.Helper()
	gen := &fakeGenerator{}
	m := New(gen, Options{Theme: ui.NoColor(), Saver: saver, PageSize: 50})
	msg := m.Init()()
	m, _ = updateModel(m, msg)
	if len(m.mixes) != 2 {
		t.Fatalf("expected 2 mixes, got %d", len(m.mixes))
	}
	return m
}

func TestGenerateFillsMixes(t *testing.T) {
	m := loadedModel(t, nil)
	if m.loading {
		t.Error("loading should be cleared")
	}
	if m.mixes[0].ID != "all" || len(m.mixes[0].Songs) != 3 {
		t.Errorf("unexpected first mix: %+v", m.mixes[0])
	}
	if m.diag.Runs != 1 || m.diag.MixCount != 2 || m.diag.SongCount != 4 {
		t.Errorf("diagnostics not recorded: %+v", m.diag)
	}
}

func TestGenerateFailureSetsError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("db locked")}
	m := New(gen, Options{Theme: ui.NoColor()})
	m, cmd := updateModel(m, m.Init()())
	if m.errorMsg != "db locked" {
		t.Errorf("expected error message, got %q", m.errorMsg)
	}
	if cmd == nil {
		t.Error("expected clear-error tick")
	}
	if m.diag.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", m.diag.Failures)
	}
}

func TestEnterOpensMixAndEscReturns(t *testing.T) {
	m := loadedModel(t, nil)
	m, _ = updateModel(m, key("j"))
	m, _ = updateModel(m, key("enter"))
	if m.screen != screenMix || m.openMix != 1 {
		t.Fatalf("expected mix screen for mix 1, got screen %d mix %d", m.screen, m.openMix)
	}
	if !strings.Contains(m.View(), "Gym Song") {
		t.Errorf("mix view should list its songs:\n%s", m.View())
	}
	m, _ = updateModel(m, key("esc"))
	if m.screen != screenMixes || m.selection != 1 {
		t.Errorf("esc should return to the mix list at the opened mix, got %d/%d", m.screen, m.selection)
	}
}

func TestQueueMixSkipsDuplicates(t *testing.T) {
	saver := &fakeSaver{}
	m := loadedModel(t, saver)

	m, cmd := updateModel(m, key("a"))
	if cmd == nil {
		t.Fatal("queueing should save the queue")
	}
	m, _ = updateModel(m, cmd())
	if m.queue.Len() != 3 {
		t.Fatalf("expected 3 queued songs, got %d", m.queue.Len())
	}

	m, _ = updateModel(m, key("j"))
	m, cmd = updateModel(m, key("a"))
	m, _ = updateModel(m, cmd())
	if m.queue.Len() != 3 {
		t.Errorf("workout songs are already queued, len = %d", m.queue.Len())
	}
	if saver.saves != 2 || saver.mixID != "workout" || saver.items != 3 {
		t.Errorf("unexpected saves: %d saves, mix %q, %d items", saver.saves, saver.mixID, saver.items)
	}
}

func TestTabCyclesScreens(t *testing.T) {
	m := loadedModel(t, nil)
	m, _ = updateModel(m, key("tab"))
	if m.screen != screenQueue {
		t.Fatalf("without an open mix tab should skip to queue, got %d", m.screen)
	}
	m, _ = updateModel(m, key("tab"))
	if m.screen != screenMixes {
		t.Fatalf("tab should wrap to mixes, got %d", m.screen)
	}
	m, _ = updateModel(m, key("enter"))
	m, _ = updateModel(m, key("tab"))
	if m.screen != screenQueue {
		t.Errorf("expected queue after mix, got %d", m.screen)
	}
	m, _ = updateModel(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.screen != screenMix {
		t.Errorf("shift+tab should return to the open mix, got %d", m.screen)
	}
}

func TestQueueScreenEditing(t *testing.T) {
	saver := &fakeSaver{}
	m := loadedModel(t, saver)
	m, _ = updateModel(m, key("a"))
	m.screen = screenQueue

	m, _ = updateModel(m, key("J"))
	if m.selection != 1 || m.queue.Items()[1].Path != "/m/a.mp3" {
		t.Fatalf("J should move the song down, got %v", m.queue.Items())
	}
	m, _ = updateModel(m, key("d"))
	if m.queue.Len() != 2 {
		t.Fatalf("d should remove, len = %d", m.queue.Len())
	}
	m, _ = updateModel(m, key("c"))
	if m.queue.Len() != 0 || m.queuedMix != "" {
		t.Errorf("c should clear the queue")
	}
	if !strings.Contains(m.View(), "Queue is empty") {
		t.Errorf("expected empty queue view:\n%s", m.View())
	}
}

func TestRegenerate(t *testing.T) {
	gen := &fakeGenerator{}
	m := New(gen, Options{Theme: ui.NoColor()})
	m, _ = updateModel(m, m.Init()())

	m, cmd := updateModel(m, key("r"))
	if cmd == nil || !m.loading {
		t.Fatal("r should start a regeneration")
	}
	if _, again := updateModel(m, key("r")); again != nil {
		t.Error("r while loading should be ignored")
	}
	m, _ = updateModel(m, cmd())
	if gen.calls != 2 || m.loading {
		t.Errorf("expected 2 generator calls, got %d", gen.calls)
	}
}

func TestFilterOpensMatchingMix(t *testing.T) {
	m := loadedModel(t, nil)
	m, _ = updateModel(m, key("/"))
	if !m.filter.Active() {
		t.Fatal("/ should open the filter")
	}
	for _, r := range "wrk" {
		m, _ = updateModel(m, key(string(r)))
	}
	if len(m.filter.matches) != 1 {
		t.Errorf("expected only Workout to match, got %v", m.filter.matches)
	}
	m, _ = updateModel(m, key("enter"))
	if m.filter.Active() || m.screen != screenMix || m.openMix != 1 {
		t.Errorf("enter should open the matched mix, screen %d mix %d", m.screen, m.openMix)
	}
}

func TestHelpToggle(t *testing.T) {
	m := loadedModel(t, nil)
	m, _ = updateModel(m, key("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Queue the whole mix") {
		t.Error("? should show help")
	}
	m, _ = updateModel(m, key("esc"))
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestViewListsMixes(t *testing.T) {
	m := loadedModel(t, nil)
	out := m.View()
	for _, want := range []string{"Mixtape", "Everything (3 songs)", "Workout (1 songs)", "(empty queue)"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

// Saves run on command goroutines while keys keep editing the queue. Run
// with -race.
func TestQueueSavesWhileEditing(t *testing.T) {
	saver := &fakeSaver{}
	m := loadedModel(t, saver)
	m, _ = updateModel(m, key("a"))
	m.screen = screenQueue

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		if m.selection == m.queue.Len()-1 {
			m, _ = updateModel(m, key("g"))
		}
		var cmd tea.Cmd
		m, cmd = updateModel(m, key("J"))
		if cmd == nil {
			t.Fatalf("press %d: J should save the queue", i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd()
		}()
	}
	wg.Wait()

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if saver.saves == 0 {
		t.Fatal("no save went through")
	}
	if got, want := saver.paths, queuePaths(m.queue); !reflect.DeepEqual(got, want) {
		t.Errorf("persisted order %v, want latest %v", got, want)
	}
}

func TestQueueWriterDropsStaleSaves(t *testing.T) {
	saver := &fakeSaver{}
	w := newQueueWriter(saver)
	older, newer := w.next(), w.next()

	fresh := queue.Snapshot{Songs: testSongs[:2], CurrentIndex: 0}
	stale := queue.Snapshot{Songs: testSongs, CurrentIndex: 0}

	if wrote, err := w.write(context.Background(), newer, fresh, "all"); !wrote || err != nil {
		t.Fatalf("newer save: wrote %v err %v", wrote, err)
	}
	if wrote, _ := w.write(context.Background(), older, stale, "all"); wrote {
		t.Error("older save should be dropped once a newer one is written")
	}
	if saver.saves != 1 || saver.items != 2 {
		t.Errorf("expected the newer snapshot only, got %d saves of %d items", saver.saves, saver.items)
	}
	if newQueueWriter(nil) != nil {
		t.Error("no saver should mean no writer")
	}
}

func TestQueueStepKeys(t *testing.T) {
	saver := &fakeSaver{}
	m := loadedModel(t, saver)
	m, _ = updateModel(m, key("a"))
	m.screen = screenQueue

	m, cmd := updateModel(m, key("n"))
	if cmd == nil || m.queue.CurrentIndex() != 1 || m.selection != 1 {
		t.Fatalf("n should advance and save, current %d selection %d", m.queue.CurrentIndex(), m.selection)
	}
	m, _ = updateModel(m, key("n"))
	m, cmd = updateModel(m, key("n"))
	if cmd != nil || m.status != "End of queue" || m.queue.CurrentIndex() != 2 {
		t.Errorf("n at the end should stop, status %q current %d", m.status, m.queue.CurrentIndex())
	}
	m, _ = updateModel(m, key("p"))
	if m.queue.CurrentIndex() != 1 {
		t.Errorf("p should go back, current %d", m.queue.CurrentIndex())
	}

	m, _ = updateModel(m, key("R")) // repeat all
	m, _ = updateModel(m, key("n"))
	m, _ = updateModel(m, key("n"))
	if m.queue.CurrentIndex() != 0 {
		t.Errorf("repeat all should wrap, current %d", m.queue.CurrentIndex())
	}
}

func TestPlayNextFromMix(t *testing.T) {
	saver := &fakeSaver{}
	m := loadedModel(t, saver)
	m, _ = updateModel(m, key("j"))
	m, _ = updateModel(m, key("enter")) // Workout: Gym Song
	m, _ = updateModel(m, key("g"))
	m, _ = updateModel(m, key("k"))

	m, cmd := updateModel(m, key("A"))
	if cmd == nil {
		t.Fatal("A should save the queue")
	}
	m, _ = updateModel(m, cmd())
	if got := queuePaths(m.queue); !reflect.DeepEqual(got, []string{"/m/b.mp3"}) {
		t.Fatalf("expected the selected song queued, got %v", got)
	}

	m, _ = updateModel(m, key("esc"))
	m, _ = updateModel(m, key("g"))
	m, _ = updateModel(m, key("enter")) // Everything
	m, _ = updateModel(m, key("G"))
	m, _ = updateModel(m, key("A"))
	want := []string{"/m/b.mp3", "/m/c.mp3"}
	if got := queuePaths(m.queue); !reflect.DeepEqual(got, want) {
		t.Errorf("queue = %v, want %v", got, want)
	}
	if !strings.HasPrefix(m.status, "Up next: ") {
		t.Errorf("unexpected status %q", m.status)
	}
}
