package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and collapses whitespace", "  hello   world  ", "hello world"},
		{"strips punctuation", "DPF-제거! (파워업)", "DPF제거 파워업"},
		{"keeps word characters and underscore", "stage_1 tune v2", "stage_1 tune v2"},
		{"keeps hangul syllables", "김철수 고객", "김철수 고객"},
		{"strips symbols between hangul", "EGR/DPF 제거+파워업", "EGRDPF 제거파워업"},
		{"empty input", "", ""},
		{"only symbols", "!@#$%", ""},
		{"tabs and newlines collapse", "a\t\nb", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercases and splits", "DPF Removal Tune", []string{"dpf", "removal", "tune"}},
		{"drops single-rune tokens", "a bc d ef", []string{"bc", "ef"}},
		{"single hangul rune dropped", "차 제거", []string{"제거"}},
		{"drops purely numeric tokens", "2024 stage2 300", []string{"stage2"}},
		{"splits on punctuation", "bosch,edc17 md1.cs018", []string{"bosch", "edc17", "md1", "cs018"}},
		{"deduplicates preserving order", "tune dpf tune egr dpf", []string{"tune", "dpf", "egr"}},
		{"empty query", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Keywords(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNGrams(t *testing.T) {
	got := NGrams("파워업 작업", 3)
	want := []string{"파워업", "워업작", "업작업"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams = %v, want %v", got, want)
	}
}

func TestNGramsShorterThanWindow(t *testing.T) {
	if got := NGrams("제거", 3); got != nil {
		t.Errorf("expected no shingles for 2-rune input, got %v", got)
	}
}

func TestNGramsCoverage(t *testing.T) {
	// Every distinct length-3 substring of the stripped content must appear
	// exactly once, in encounter order.
	input := "abc abcd"
	stripped := "abcabcd"
	got := NGrams(input, 3)
	seen := make(map[string]int)
	for _, g := range got {
		seen[g]++
	}
	for i := 0; i+3 <= len(stripped); i++ {
		sub := stripped[i : i+3]
		if seen[sub] != 1 {
			t.Errorf("shingle %q appears %d times, want 1", sub, seen[sub])
		}
	}
	if len(got) != len(seen) {
		t.Errorf("duplicate shingles in %v", got)
	}
}

func TestNGramsDeduplicates(t *testing.T) {
	got := NGrams("aaaa", 3)
	if !reflect.DeepEqual(got, []string{"aaa"}) {
		t.Errorf("NGrams(aaaa) = %v, want [aaa]", got)
	}
}

func BenchmarkKeywords(b *testing.B) {
	text := strings.Repeat("현대 아반떼 DPF 제거 파워업 bosch edc17 stage1 ", 20)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		Keywords(text)
	}
}

func BenchmarkNGrams(b *testing.B) {
	text := strings.Repeat("현대 아반떼 DPF 제거 파워업 ", 20)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		NGrams(text, 3)
	}
}
