package downloader

import (
	"fmt"
	"sync"
	"time"
)

// ProgressPhase distinguishes byte transfer from post-processing.
type ProgressPhase string

const (
	PhaseDownloading ProgressPhase = "downloading"
	PhaseConverting  ProgressPhase = "converting"
)

// ProgressStatus is the lifecycle position of an event within its phase.
type ProgressStatus string

const (
	StatusStarted     ProgressStatus = "started"
	StatusDownloading ProgressStatus = "downloading"
	StatusFinished    ProgressStatus = "finished"
)

// ProgressEvent is a purely observational snapshot of an in-flight transfer
// or conversion. Total, Percent and ETA are zero when the size is unknown.
// Converting-phase events carry only the started/finished transitions.
type ProgressEvent struct {
	Phase   ProgressPhase
	Status  ProgressStatus
	Bytes   int64 // transferred this session, excluding any resumed offset
	Total   int64 // full file size including resumed offset, 0 when unknown
	Speed   float64 // bytes per second over this session
	Percent float64
	ETA     time.Duration
	Path    string
}

// Broadcaster fans progress events out to subscribers. Delivery is
// synchronous and in subscription order; a slow subscriber slows the
// download.
type Broadcaster struct {
	mu    sync.Mutex
	sinks []func(ProgressEvent)
}

// Subscribe registers fn for all future events.
func (b *Broadcaster) Subscribe(fn func(ProgressEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, fn)
}

// Publish delivers ev to every subscriber, synchronously.
func (b *Broadcaster) Publish(ev ProgressEvent) {
	b.mu.Lock()
	sinks := b.sinks
	b.mu.Unlock()
	for _, fn := range sinks {
		fn(ev)
	}
}

// FormatBytes renders a byte count in binary units for display.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders a duration as m:ss or h:mm:ss for display.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "??:??"
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	if m > 60 {
		h := m / 60
		m = m % 60
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
