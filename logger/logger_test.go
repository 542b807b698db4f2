package logger_test

import (
	"strings"
	"testing"

	"github.com/pixeldrift/goba/logger"
)

func TestLogger(t *testing.T) {
	logger.Clear()

	var b strings.Builder
	logger.Write(&b)
	if b.String() != "" {
		t.Fatalf("expected empty log, got %q", b.String())
	}

	logger.Log("test", "this is a test")
	b.Reset()
	logger.Write(&b)
	if b.String() != "test: this is a test\n" {
		t.Fatalf("unexpected log contents: %q", b.String())
	}

	logger.Log("test2", "this is another test")
	b.Reset()
	logger.Write(&b)
	want := "test: this is a test\ntest2: this is another test\n"
	if b.String() != want {
		t.Fatalf("got %q, want %q", b.String(), want)
	}

	b.Reset()
	logger.Tail(&b, 1)
	if b.String() != "test2: this is another test\n" {
		t.Fatalf("unexpected tail contents: %q", b.String())
	}

	b.Reset()
	logger.Tail(&b, 100)
	if b.String() != want {
		t.Fatalf("tail with excess count should return everything: %q", b.String())
	}

	b.Reset()
	logger.Tail(&b, 0)
	if b.String() != "" {
		t.Fatalf("tail with zero count should return nothing: %q", b.String())
	}
}

func TestLoggerCapsEntries(t *testing.T) {
	logger.Clear()
	for i := 0; i < 2000; i++ {
		logger.Log("spam", "entry %d", i)
	}

	var b strings.Builder
	logger.Write(&b)
	lines := strings.Count(b.String(), "\n")
	if lines > 1000 {
		t.Fatalf("expected log to be capped at 1000 entries, got %d", lines)
	}
}
