package chunker

import (
	"strings"
	"testing"
)

func TestWindow_CoverageReconstruction(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		size    int
		overlap int
	}{
		{"exact multiple", 2500, 1000, 100},
		{"short tail", 1950, 1000, 100},
		{"single chunk", 800, 1000, 100},
		{"tiny window", 53, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := makeText(tt.length)
			chunks := Window(text, tt.size, tt.overlap)

			if len(chunks) == 0 {
				t.Fatal("expected at least one chunk")
			}
			for i, c := range chunks {
				if c == "" {
					t.Errorf("chunk %d is empty", i)
				}
				if len(c) > tt.size {
					t.Errorf("chunk %d has %d chars, limit %d", i, len(c), tt.size)
				}
			}

			// Removing each chunk's leading overlap must reconstruct the
			// original text exactly.
			rebuilt := chunks[0]
			for _, c := range chunks[1:] {
				if len(c) < tt.overlap {
					t.Fatalf("trailing chunk smaller than overlap: %d", len(c))
				}
				rebuilt += c[tt.overlap:]
			}
			if rebuilt != text {
				t.Errorf("reconstruction mismatch: got %d chars, want %d", len(rebuilt), len(text))
			}
		})
	}
}

func TestWindow_ChunkCount(t *testing.T) {
	// 2500 chars at size 1000 / overlap 100 must give exactly 3 chunks.
	text := makeText(2500)
	chunks := Window(text, 1000, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != text[0:1000] || chunks[1] != text[900:1900] || chunks[2] != text[1800:] {
		t.Error("chunk boundaries do not advance by size-overlap")
	}
}

func TestWindow_Deterministic(t *testing.T) {
	text := makeText(3333)
	a := Window(text, 500, 50)
	b := Window(text, 500, 50)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 30) // ~150 chars
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	chunks := Split(text, 300, 50)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 300 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestSplit_ShortAndEmptyInput(t *testing.T) {
	if got := Split("   \n ", 1000, 100); got != nil {
		t.Errorf("blank input should produce no chunks, got %v", got)
	}
	small := "fits in one chunk"
	got := Split(small, 1000, 100)
	if len(got) != 1 || got[0] != small {
		t.Errorf("small input should be returned whole, got %v", got)
	}
}

func TestSplit_CarryNeverExceedsSize(t *testing.T) {
	// A near-size part following a short one used to be glued onto the
	// full overlap carry, emitting a chunk of size+overlap+separator chars.
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"carry plus large part", strings.Repeat("a", 200) + "\n\n" + strings.Repeat("b", 990), 1000, 100},
		{"part exactly at size", strings.Repeat("a", 500) + "\n\n" + strings.Repeat("b", 1000), 1000, 100},
		{"many alternating parts", strings.Repeat(strings.Repeat("c", 170)+"\n\n", 12), 300, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.size, tt.overlap)
			if len(chunks) < 2 {
				t.Fatalf("expected multiple chunks, got %d", len(chunks))
			}
			for i, c := range chunks {
				if len(c) > tt.size {
					t.Errorf("chunk %d has %d chars, limit %d", i, len(c), tt.size)
				}
			}
		})
	}
}

func TestSplit_ShortChunkIsCarriedWhole(t *testing.T) {
	// When the flushed chunk is shorter than the overlap, all of it should
	// ride along into the next chunk instead of being dropped.
	text := strings.Repeat("x", 80) + "\n\n" + strings.Repeat("y", 150)
	chunks := Split(text, 200, 100)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[1]) > 200 {
		t.Fatalf("second chunk has %d chars, limit 200", len(chunks[1]))
	}
	if !strings.Contains(chunks[1], "x") {
		t.Error("second chunk lost all carried context from the first")
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := Split(text, 1000, 100)
	if len(chunks) != 3 {
		t.Fatalf("separator-free text should fall back to the window, got %d chunks", len(chunks))
	}
}

func makeText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}
