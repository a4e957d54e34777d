package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestProgressTracker_QuietMode(t *testing.T) {
	tracker := NewProgressTracker(1024, 0, true)

	if !tracker.IsQuiet() {
		t.Error("Tracker should be quiet")
	}
	if tracker.bar != nil {
		t.Error("Quiet tracker should not create a progress bar")
	}
}

func TestProgressTracker_Wrap(t *testing.T) {
	tracker := NewProgressTracker(11, 0, true)

	out, err := io.ReadAll(tracker.Wrap(strings.NewReader("hello world")))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "hello world" {
		t.Errorf("Unexpected data %q", out)
	}
	if tracker.Current() != 11 {
		t.Errorf("Expected 11 bytes tracked, got %d", tracker.Current())
	}
}

func TestProgressTracker_ResumeOffset(t *testing.T) {
	tracker := NewProgressTracker(100, 40, true)
	tracker.Add(60)
	tracker.SetFilename("file.bin")

	summary := tracker.Finish()
	if summary.TotalBytes != 100 {
		t.Errorf("Expected total 100, got %d", summary.TotalBytes)
	}
	if summary.Transferred != 60 {
		t.Errorf("Expected 60 transferred, got %d", summary.Transferred)
	}
	if summary.Filename != "file.bin" {
		t.Errorf("Expected filename in summary, got %q", summary.Filename)
	}
}

func TestProgressTracker_Summary(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(2048, 0, true)
	tracker.output = &buf
	tracker.Add(2048)
	tracker.SetFilename("out.bin")

	tracker.displaySummary(&TransferSummary{TotalBytes: 2048, Filename: "out.bin"})

	out := buf.String()
	if !strings.Contains(out, "2.00 KB") {
		t.Errorf("Summary should show formatted size, got %q", out)
	}
	if !strings.Contains(out, "Saved to: out.bin") {
		t.Errorf("Summary should show filename, got %q", out)
	}
}

func TestProgressTracker_BarStartsAtOffset(t *testing.T) {
	tracker := NewProgressTracker(1000, 100, false)
	if tracker.bar == nil {
		t.Fatal("Expected a progress bar when not quiet")
	}
	if tracker.bar.Total() != 1000 || tracker.bar.Current() != 100 {
		t.Errorf("Unexpected bar state %d/%d", tracker.bar.Current(), tracker.bar.Total())
	}

	tracker.Abort()
	if tracker.bar != nil {
		t.Error("Abort should stop and release the bar")
	}

	tracker.Add(10)
	if tracker.Current() != 110 {
		t.Errorf("Counting should continue after Abort, got %d", tracker.Current())
	}
}
