package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortTextReturnsSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)

	chunks := s.Split("  short document body  ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "short document body" {
		t.Fatalf("expected trimmed chunk, got %q", chunks[0])
	}
}

func TestSplitEmptyAndBlankTextReturnsNoChunks(t *testing.T) {
	s := NewSplitter(1000, 200)

	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
	if chunks := s.Split("   \n\t  "); chunks != nil {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestSplitLongTextWindowsOverlap(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := strings.Repeat("a", 2500)

	chunks := s.Split(text)
	// Windows start at 0, 800 and 1600; the last one is capped at 2500.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 || len(chunks[2]) != 900 {
		t.Fatalf("unexpected chunk lengths: %d, %d, %d",
			len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("word ", 200)

	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitCoversEveryRune(t *testing.T) {
	s := NewSplitter(100, 0)
	text := strings.Repeat("x", 955)

	chunks := s.Split(text)
	total := 0
	for _, chunk := range chunks {
		total += len([]rune(chunk))
	}
	if total != 955 {
		t.Fatalf("expected all 955 runes covered with zero overlap, got %d", total)
	}
}

func TestSplitOverlapAtLeastChunkSizeStillTerminates(t *testing.T) {
	s := &Splitter{ChunkSize: 10, Overlap: 10}
	text := strings.Repeat("b", 50)

	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks despite degenerate overlap")
	}
	// Window advances by one rune at minimum, so the last chunk ends at the
	// final rune.
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Fatalf("last chunk does not reach end of text")
	}
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	s := NewSplitter(10, 0)
	text := strings.Repeat("文", 25)

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 25 runes at size 10, got %d", len(chunks))
	}
	if got := len([]rune(chunks[0])); got != 10 {
		t.Fatalf("expected 10 runes in first chunk, got %d", got)
	}
}
