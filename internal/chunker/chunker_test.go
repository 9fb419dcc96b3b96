package chunker

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.ChunkSize())
		}
		if c.Overlap() != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		c, err := New(WithChunkSize(500), WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.ChunkSize() != 500 || c.Overlap() != 100 {
			t.Errorf("expected 500/100, got %d/%d", c.ChunkSize(), c.Overlap())
		}
	})

	t.Run("overlap equal to chunk size rejected", func(t *testing.T) {
		if _, err := New(WithChunkSize(100), WithOverlap(100)); err == nil {
			t.Error("expected error for overlap == chunkSize")
		}
	})

	t.Run("overlap above chunk size rejected", func(t *testing.T) {
		if _, err := New(WithChunkSize(100), WithOverlap(150)); err == nil {
			t.Error("expected error for overlap > chunkSize")
		}
	})

	t.Run("zero and negative options ignored", func(t *testing.T) {
		c, err := New(WithChunkSize(0), WithOverlap(-1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.ChunkSize() != DefaultChunkSize || c.Overlap() != DefaultOverlap {
			t.Errorf("expected defaults, got %d/%d", c.ChunkSize(), c.Overlap())
		}
	})
}

func TestChunk_EmptyInput(t *testing.T) {
	c, _ := New()

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if got := c.Chunk(input); len(got) != 0 {
			t.Errorf("Chunk(%q): expected no chunks, got %d", input, len(got))
		}
	}
}

func TestChunk_SmallInput(t *testing.T) {
	c, _ := New()

	chunks := c.Chunk("FastAPI is a web framework. Streamlit is used for data apps.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "FastAPI is a web framework. Streamlit is used for data apps." {
		t.Errorf("unexpected chunk text: %q", chunks[0])
	}
}

func TestChunk_WhitespaceNormalization(t *testing.T) {
	c, _ := New()

	chunks := c.Chunk("  hello \n\t world  \r\n again ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world again" {
		t.Errorf("expected normalized text, got %q", chunks[0])
	}
}

func TestChunk_CoversNormalizedText(t *testing.T) {
	c, _ := New(WithChunkSize(120), WithOverlap(30))

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %d talks about retrieval engines. ", i)
	}
	normalized := strings.Join(strings.Fields(b.String()), " ")

	chunks := c.Chunk(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Every chunk must be non-empty and locatable; together they must
	// cover the whole normalized text.
	covered := make([]bool, len(normalized))
	searchFrom := 0
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is empty", i)
		}
		at := strings.Index(normalized[searchFrom:], chunk)
		if at < 0 {
			t.Fatalf("chunk %d not found in normalized text", i)
		}
		start := searchFrom + at
		for j := start; j < start+len(chunk); j++ {
			covered[j] = true
		}
		// Later chunks may start before the previous end (overlap), but
		// never before the previous start.
		searchFrom = start
	}
	for i, ok := range covered {
		if !ok && normalized[i] != ' ' {
			t.Fatalf("normalized text position %d (%q) not covered by any chunk", i, normalized[i])
		}
	}
}

func TestChunk_OverlapInvariant(t *testing.T) {
	// With no sentence boundary present, consecutive window starts differ
	// by exactly chunkSize - overlap.
	c, _ := New(WithChunkSize(800), WithOverlap(120))

	text := strings.Repeat("x", 3000)
	chunks := c.Chunk(text)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		if len(chunks[i]) != 800 {
			t.Errorf("chunk %d: expected full window of 800, got %d", i, len(chunks[i]))
		}
	}
	// Window starts advance by 680 = 800 - 120.
	wantChunks := 1 + (3000-800+679)/680
	if len(chunks) != wantChunks {
		t.Errorf("expected %d chunks, got %d", wantChunks, len(chunks))
	}
}

func TestChunk_SentenceBoundary(t *testing.T) {
	c, _ := New(WithChunkSize(400), WithOverlap(50))

	// A period past the 200-character floor followed by more text: the
	// first window should end just after that period instead of at 400.
	first := strings.Repeat("a", 250) + ". "
	rest := strings.Repeat("b", 500)
	chunks := c.Chunk(first + rest)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("expected first chunk to end at sentence boundary, got suffix %q", chunks[0][len(chunks[0])-10:])
	}
	if len(chunks[0]) != 251 {
		t.Errorf("expected first chunk of 251 chars, got %d", len(chunks[0]))
	}
}

func TestChunk_SentenceBoundaryBelowFloorIgnored(t *testing.T) {
	c, _ := New(WithChunkSize(400), WithOverlap(50))

	// The only period sits before the 200-character floor, so the window
	// keeps its full width.
	text := strings.Repeat("a", 100) + ". " + strings.Repeat("b", 600)
	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 400 {
		t.Errorf("expected full 400-char window, got %d", len(chunks[0]))
	}
}

func TestChunk_OverlapLargerThanShrunkWindowAdvances(t *testing.T) {
	// A sentence break just past the 200-character floor shrinks the
	// effective window below the overlap; the next start must still move
	// forward instead of sliding backwards forever.
	c, _ := New(WithChunkSize(800), WithOverlap(250))

	text := strings.Repeat("a", 210) + ". " + strings.Repeat("b", 800)

	done := make(chan []string, 1)
	go func() { done <- c.Chunk(text) }()

	select {
	case chunks := <-done:
		if len(chunks) < 2 {
			t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
		}
		last := chunks[len(chunks)-1]
		if !strings.HasSuffix(last, "b") {
			t.Errorf("expected final chunk to reach end of text, got suffix %q", last[len(last)-10:])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Chunk did not terminate")
	}
}

func TestBuildRecords(t *testing.T) {
	records := BuildRecords("demo", []string{"first", "second"}, map[string]any{"type": "demo"})

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "demo::chunk_1" || records[1].ID != "demo::chunk_2" {
		t.Errorf("unexpected chunk IDs: %q, %q", records[0].ID, records[1].ID)
	}
	for _, r := range records {
		if r.SourceID != "demo" {
			t.Errorf("expected source 'demo', got %q", r.SourceID)
		}
		if r.Metadata["type"] != "demo" {
			t.Errorf("metadata not attached: %v", r.Metadata)
		}
	}
}

func TestBuildRecords_NilMetadata(t *testing.T) {
	records := BuildRecords("demo", []string{"text"}, nil)
	if records[0].Metadata == nil {
		t.Error("expected empty metadata map, got nil")
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c1, _ := New()
	c2, _ := New()

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
	a := c1.Chunk(text)
	b := c2.Chunk(text)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}

	ra := BuildRecords("src", a, nil)
	rb := BuildRecords("src", b, nil)
	for i := range ra {
		if ra[i].ID != rb[i].ID {
			t.Errorf("record ID %d differs: %q vs %q", i, ra[i].ID, rb[i].ID)
		}
	}
}
