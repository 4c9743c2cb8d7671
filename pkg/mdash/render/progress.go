package render

import (
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Progress draws a single progress bar for a running scan. Update is safe to
// pass as scan.Scanner.Progress.
type Progress struct {
	pw      progress.Writer
	tracker *progress.Tracker
	total   int
	once    sync.Once
}

// NewProgress starts rendering a bar of total steps to w.
func NewProgress(w io.Writer, message string, total int) *Progress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true
	pw.Style().Visibility.Value = true

	t := &progress.Tracker{Message: message, Total: int64(total), Units: progress.UnitsDefault}
	pw.AppendTracker(t)
	go pw.Render()
	return &Progress{pw: pw, tracker: t, total: total}
}

// Update records that done of total symbols have finished.
func (p *Progress) Update(done, total int, _ string) {
	if total != p.total {
		p.total = total
		p.tracker.UpdateTotal(int64(total))
	}
	p.tracker.SetValue(int64(done))
}

// Stop marks the bar done and waits for the final frame.
func (p *Progress) Stop() {
	p.once.Do(func() {
		p.tracker.MarkAsDone()
		time.Sleep(150 * time.Millisecond)
		p.pw.Stop()
		for p.pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	})
}
