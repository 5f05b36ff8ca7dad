package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name:    "shorter than window",
			text:    "hello",
			size:    10,
			overlap: 2,
			want:    []string{"hello"},
		},
		{
			name:    "exact window",
			text:    "abcde",
			size:    5,
			overlap: 1,
			want:    []string{"abcde"},
		},
		{
			name:    "overlapping windows",
			text:    "abcdefghij",
			size:    4,
			overlap: 1,
			want:    []string{"abcd", "defg", "ghij"},
		},
		{
			name:    "no overlap",
			text:    "abcdef",
			size:    3,
			overlap: 0,
			want:    []string{"abc", "def"},
		},
		{
			name:    "empty text",
			text:    "",
			size:    4,
			overlap: 1,
			want:    nil,
		},
		{
			name:    "whitespace only",
			text:    "   \n\t  ",
			size:    4,
			overlap: 1,
			want:    nil,
		},
		{
			name:    "overlap not smaller than size",
			text:    "abcdef",
			size:    3,
			overlap: 3,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.size, tt.overlap)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitText() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitTextRuneSafe(t *testing.T) {
	// Multi-byte characters must never be cut mid-rune.
	text := strings.Repeat("日本語テキスト", 50)
	for _, chunk := range SplitText(text, 100, 20) {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk contains invalid UTF-8: %q", chunk)
		}
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("abcdefghij", 100)
	chunks := SplitText(text, 80, 10)

	// Reassembling with overlaps stripped restores the original text.
	var sb strings.Builder
	for i, c := range chunks {
		runes := []rune(c)
		if i == 0 {
			sb.WriteString(c)
		} else {
			sb.WriteString(string(runes[10:]))
		}
	}
	if sb.String() != text {
		t.Error("chunks do not cover the full input")
	}
}

func TestChunkKeyDeterministic(t *testing.T) {
	if ChunkKey("faq.md", 0) != "faq.md#0" {
		t.Errorf("ChunkKey(faq.md, 0) = %q", ChunkKey("faq.md", 0))
	}
	if ChunkKey("faq.md", 1) != ChunkKey("faq.md", 1) {
		t.Error("ChunkKey is not deterministic")
	}
}
