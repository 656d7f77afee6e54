package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func Test_Split_ShortInputSingleChunk(t *testing.T) {
	t.Parallel()

	got := Split("  hello world  ", 512, 50)
	if len(got) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(got))
	}
	if got[0] != "hello world" {
		t.Errorf("want trimmed input, got %q", got[0])
	}
}

func Test_Split_EmptyInput(t *testing.T) {
	t.Parallel()

	if got := Split("", 512, 50); got != nil {
		t.Errorf("want nil for empty input, got %v", got)
	}
}

func Test_Split_WhitespaceOnlyInput(t *testing.T) {
	t.Parallel()

	if got := Split("   \n\t ", 512, 50); got != nil {
		t.Errorf("want nil for whitespace-only input, got %v", got)
	}
}

func Test_Split_OverlappingChunks(t *testing.T) {
	t.Parallel()

	// 50 characters of unique words, chunk_size=20, overlap=5.
	text := "alpha bravo charlie delta echo foxtrot golf hotel"
	got := Split(text, 20, 5)

	if len(got) < 2 {
		t.Fatalf("want >= 2 chunks, got %d: %v", len(got), got)
	}
	for i, c := range got {
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if len(c) > 20 {
			t.Errorf("chunk %d exceeds window: %q (%d bytes)", i, c, len(c))
		}
	}
}

func Test_Split_WordBoundaries(t *testing.T) {
	t.Parallel()

	// Window ends must back off to whitespace, so every chunk ends on a
	// complete word. (Chunk starts may land mid-word: overlap is byte-based,
	// and the final chunk is the trailing overlap remnant, not a backed-off
	// window, so it is exempt.)
	text := strings.Repeat("commonword ", 30)
	chunks := Split(text, 25, 5)
	if len(chunks) < 2 {
		t.Fatalf("want >= 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, "commonword") {
			t.Errorf("chunk %d ends mid-word: %q", i, c)
		}
	}
	if last := chunks[len(chunks)-1]; !strings.HasSuffix(strings.TrimSpace(text), last) {
		t.Errorf("final chunk is not a suffix of the input: %q", last)
	}
}

func Test_Split_MultiByteRunesStayIntact(t *testing.T) {
	t.Parallel()

	// CJK prose has no whitespace to back off to; windows must still land
	// on rune boundaries so every chunk is valid UTF-8.
	text := strings.Repeat("网络设备管理", 20)
	for _, overlap := range []int{0, 5} {
		chunks := Split(text, 25, overlap)
		if len(chunks) < 2 {
			t.Fatalf("overlap %d: want >= 2 chunks, got %d", overlap, len(chunks))
		}
		for i, c := range chunks {
			if !utf8.ValidString(c) {
				t.Errorf("overlap %d: chunk %d is not valid UTF-8: %q", overlap, i, c)
			}
		}
	}
}

func Test_Split_TerminatesWithPathologicalOverlap(t *testing.T) {
	t.Parallel()

	// overlap >= chunk size must still terminate and cover the text.
	text := strings.Repeat("x", 100)
	got := Split(text, 10, 10)
	if len(got) == 0 {
		t.Fatal("want chunks for non-empty input")
	}

	var total int
	for _, c := range got {
		total += len(c)
	}
	if total < len(text) {
		t.Errorf("chunks cover %d bytes, want >= %d", total, len(text))
	}
}

func Test_Split_DefaultsApplied(t *testing.T) {
	t.Parallel()

	// Non-positive size falls back to DefaultSize rather than looping.
	got := Split("short text", 0, -1)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("want single chunk with defaults, got %v", got)
	}
}

func Test_Split_CoversFullText(t *testing.T) {
	t.Parallel()

	words := []string{"router", "switch", "firewall", "gateway", "subnet", "prefix", "circuit", "rack"}
	text := strings.Join(words, " ")
	text = strings.Repeat(text+" ", 10)

	chunks := Split(text, 40, 10)
	joined := strings.Join(chunks, " ")
	for _, w := range words {
		if !strings.Contains(joined, w) {
			t.Errorf("word %q lost during chunking", w)
		}
	}
}
