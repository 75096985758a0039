package passgen

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{name: "explicit", length: 24, want: 24},
		{name: "zero defaults", length: 0, want: 16},
		{name: "negative defaults", length: -3, want: 16},
		{name: "single char", length: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Length = tt.length
			result, err := Generate(opts)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(result.Password) != tt.want {
				t.Fatalf("len(password) = %d, want %d", len(result.Password), tt.want)
			}
		})
	}
}

func TestGenerateClassExclusion(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		forbidden string
	}{
		{
			name:      "no symbols",
			opts:      Options{Length: 64, Lowercase: true, Uppercase: true, Digits: true},
			forbidden: symbolChars,
		},
		{
			name:      "no digits",
			opts:      Options{Length: 64, Lowercase: true, Uppercase: true, Symbols: true},
			forbidden: digitChars,
		},
		{
			name:      "lowercase only excludes uppercase",
			opts:      Options{Length: 64, Lowercase: true},
			forbidden: upperChars + digitChars + symbolChars,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Generate(tt.opts)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if i := strings.IndexAny(result.Password, tt.forbidden); i >= 0 {
				t.Fatalf("password contains forbidden char %q", result.Password[i])
			}
		})
	}
}

func TestGenerateExcludeSimilar(t *testing.T) {
	opts := Options{Length: 256, Lowercase: true, Uppercase: true, Digits: true, ExcludeSimilar: true}
	result, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if i := strings.IndexAny(result.Password, "iloILO01"); i >= 0 {
		t.Fatalf("password contains similar char %q", result.Password[i])
	}
}

func TestGenerateEmptyCharset(t *testing.T) {
	_, err := Generate(Options{Length: 16})
	if err != ErrEmptyCharset {
		t.Fatalf("Generate() error = %v, want ErrEmptyCharset", err)
	}
}

func TestEntropyAndStrength(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantBits int
		want     string
	}{
		{
			name:     "20 chars no symbols",
			opts:     Options{Length: 20, Lowercase: true, Uppercase: true, Digits: true},
			wantBits: 119,
			want:     StrengthStrong,
		},
		{
			name:     "full charset default length",
			opts:     DefaultOptions(),
			wantBits: 103,
			want:     StrengthStrong,
		},
		{
			name:     "long full charset",
			opts:     Options{Length: 20, Lowercase: true, Uppercase: true, Digits: true, Symbols: true},
			wantBits: 129,
			want:     StrengthVeryStrong,
		},
		{
			name:     "short digits only",
			opts:     Options{Length: 8, Digits: true},
			wantBits: 26,
			want:     StrengthWeak,
		},
		{
			name:     "medium band",
			opts:     Options{Length: 11, Lowercase: true, Uppercase: true, Digits: true},
			wantBits: 65,
			want:     StrengthMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Generate(tt.opts)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if result.EntropyBits != tt.wantBits {
				t.Fatalf("EntropyBits = %d, want %d", result.EntropyBits, tt.wantBits)
			}
			if result.Strength != tt.want {
				t.Fatalf("Strength = %q, want %q", result.Strength, tt.want)
			}
		})
	}
}

func TestEntropyBitsDegenerate(t *testing.T) {
	if got := EntropyBits(0, 62); got != 0 {
		t.Fatalf("EntropyBits(0, 62) = %d, want 0", got)
	}
	if got := EntropyBits(16, 0); got != 0 {
		t.Fatalf("EntropyBits(16, 0) = %d, want 0", got)
	}
}
