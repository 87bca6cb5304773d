package app

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tunez/mixtape/internal/mixes"
)

// DiagnosticsState holds metrics for the debug overlay.
type DiagnosticsState struct {
	// Generation
	Runs          int
	Failures      int
	LastDuration  time.Duration
	TotalDuration time.Duration
	LastError     string
	LastErrorAt   time.Time
	MixCount      int
	SongCount     int

	// App stats
	StartTime      time.Time
	LastUpdate     time.Time
	MemoryUsage    uint64
	GoroutineCount int
}

func NewDiagnosticsState() *DiagnosticsState {
	return &DiagnosticsState{StartTime: time.Now()}
}

// RecordGeneration records the outcome of one generation run.
func (d *DiagnosticsState) RecordGeneration(took time.Duration, lists *mixes.Playlists, err error) {
	d.Runs++
	d.LastDuration = took
	d.TotalDuration += took
	if err != nil {
		d.Failures++
		d.LastError = err.Error()
		d.LastErrorAt = time.Now()
		return
	}
	d.MixCount = lists.Len()
	d.SongCount = 0
	for _, pl := range lists.All() {
		d.SongCount += len(pl.Songs)
	}
}

// AverageDuration returns the mean generation time.
func (d *DiagnosticsState) AverageDuration() time.Duration {
	if d.Runs == 0 {
		return 0
	}
	return d.TotalDuration / time.Duration(d.Runs)
}

// Update refreshes runtime stats.
func (d *DiagnosticsState) Update() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	d.MemoryUsage = m.Alloc
	d.GoroutineCount = runtime.NumGoroutine()
	d.LastUpdate = time.Now()
}

func (d *DiagnosticsState) Uptime() time.Duration {
	return time.Since(d.StartTime)
}

// Render renders the diagnostics overlay.
func (d *DiagnosticsState) Render(m *Model) string {
	d.Update()

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(" ═══ Diagnostics ═══ "))
	b.WriteString("\n\n")

	b.WriteString(m.theme.Dim.Render("Uptime: "))
	b.WriteString(m.theme.Text.Render(d.Uptime().Round(time.Second).String()))
	b.WriteString("\n\n")

	b.WriteString(m.theme.Accent.Render("Runtime"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Memory: %s\n", formatBytes(d.MemoryUsage)))
	b.WriteString(fmt.Sprintf("  Goroutines: %d\n", d.GoroutineCount))
	b.WriteString("\n")

	b.WriteString(m.theme.Accent.Render("Generation"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Runs: %d (failed %d)\n", d.Runs, d.Failures))
	if d.Runs > 0 {
		b.WriteString(fmt.Sprintf("  Last: %s\n", d.LastDuration.Round(time.Millisecond)))
		b.WriteString(fmt.Sprintf("  Avg: %s\n", d.AverageDuration().Round(time.Millisecond)))
	}
	b.WriteString(fmt.Sprintf("  Mixes: %d  Songs: %d\n", d.MixCount, d.SongCount))
	if d.LastError != "" && time.Since(d.LastErrorAt) < 5*time.Minute {
		b.WriteString(m.theme.Error.Render(fmt.Sprintf("  Last error: %s", d.LastError)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.theme.Accent.Render("Queue"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Items: %d\n", m.queue.Len()))
	b.WriteString(fmt.Sprintf("  Current: %d\n", m.queue.CurrentIndex()))
	b.WriteString(fmt.Sprintf("  Shuffle: %v\n", m.queue.IsShuffled()))
	b.WriteString(fmt.Sprintf("  Repeat: %v\n", m.queue.RepeatMode()))

	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render("Press Ctrl+D to close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(40).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Top, box)
}

// formatBytes formats bytes as human-readable string.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
