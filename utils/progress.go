package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker renders transfer progress for a single stream
type ProgressTracker struct {
	bar       *pb.ProgressBar
	quiet     bool
	output    io.Writer
	startTime time.Time
	start     int64
	total     int64

	mutex    sync.Mutex
	current  int64
	filename string
}

// TransferSummary contains final transfer statistics
type TransferSummary struct {
	TotalBytes   int64
	Transferred  int64
	TotalTime    time.Duration
	AverageSpeed float64 // bytes per second
	Filename     string
}

// NewProgressTracker creates a tracker for total bytes of which start are already on disk.
// A total of zero or less means the size is unknown.
func NewProgressTracker(total, start int64, quiet bool) *ProgressTracker {
	tracker := &ProgressTracker{
		quiet:     quiet,
		output:    os.Stderr,
		startTime: time.Now(),
		start:     start,
		total:     total,
		current:   start,
	}

	if !quiet {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`
		bar := pb.New64(total).SetTemplateString(tmpl)
		bar.Set(pb.Bytes, true)
		bar.Set("prefix", "Downloading: ")
		bar.SetWriter(tracker.output)
		bar.SetCurrent(start)
		tracker.bar = bar.Start()
	}

	return tracker
}

// Wrap returns a reader that advances the tracker as it is consumed
func (p *ProgressTracker) Wrap(r io.Reader) io.Reader {
	return &progressReader{reader: r, tracker: p}
}

// Add records n more transferred bytes
func (p *ProgressTracker) Add(n int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current += n
	if p.bar != nil {
		p.bar.SetCurrent(p.current)
	}
}

// Current returns the number of bytes on disk so far
func (p *ProgressTracker) Current() int64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}

// SetFilename sets the filename reported in the summary
func (p *ProgressTracker) SetFilename(filename string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.filename = filename
}

// Finish completes the progress bar and returns the transfer summary
func (p *ProgressTracker) Finish() *TransferSummary {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}

	totalTime := time.Since(p.startTime)
	transferred := p.current - p.start

	var averageSpeed float64
	if seconds := totalTime.Seconds(); seconds > 0 {
		averageSpeed = float64(transferred) / seconds
	}

	summary := &TransferSummary{
		TotalBytes:   p.current,
		Transferred:  transferred,
		TotalTime:    totalTime,
		AverageSpeed: averageSpeed,
		Filename:     p.filename,
	}

	if !p.quiet {
		p.displaySummary(summary)
	}

	return summary
}

// Abort stops the progress bar without printing a summary
func (p *ProgressTracker) Abort() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

// displaySummary prints the transfer summary statistics
func (p *ProgressTracker) displaySummary(summary *TransferSummary) {
	fmt.Fprintf(p.output, "\n")
	fmt.Fprintf(p.output, "Download completed successfully!\n")
	fmt.Fprintf(p.output, "Total size: %s\n", FormatSize(summary.TotalBytes))
	fmt.Fprintf(p.output, "Total time: %v\n", summary.TotalTime.Round(time.Millisecond))
	fmt.Fprintf(p.output, "Average speed: %s/s\n", FormatSize(int64(summary.AverageSpeed)))
	if summary.Filename != "" {
		fmt.Fprintf(p.output, "Saved to: %s\n", summary.Filename)
	}
}

// IsQuiet returns whether the tracker is in quiet mode
func (p *ProgressTracker) IsQuiet() bool {
	return p.quiet
}

type progressReader struct {
	reader  io.Reader
	tracker *ProgressTracker
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.reader.Read(b)
	if n > 0 {
		r.tracker.Add(int64(n))
	}
	return n, err
}
