// Package passgen generates random passwords from configurable character
// classes.
//
// Characters are drawn from crypto/rand and indexed modulo the charset
// length. Reducing a uniform 32-bit value mod a length that does not
// divide 2^32 carries a negligible but nonzero bias; at these charset
// sizes (at most 94) it is far below anything observable.
package passgen

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
)

const (
	lowerChars     = "abcdefghijklmnopqrstuvwxyz"
	lowerCharsSafe = "abcdefghjkmnpqrstuvwxyz"
	upperChars     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	upperCharsSafe = "ABCDEFGHJKMNPQRSTUVWXYZ"
	digitChars     = "0123456789"
	digitCharsSafe = "23456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	defaultLength  = 16
)

// Strength buckets by entropy, matching the product's strength meter.
const (
	StrengthWeak       = "weak"
	StrengthMedium     = "medium"
	StrengthStrong     = "strong"
	StrengthVeryStrong = "very_strong"
)

// ErrEmptyCharset is returned when every character class is disabled.
var ErrEmptyCharset = errors.New("at least one character type must be selected")

// Options selects the character classes to draw from. ExcludeSimilar
// drops easily-confused characters (i, l, o / I, L, O / 0, 1); symbols
// are unaffected.
type Options struct {
	Length         int
	Lowercase      bool
	Uppercase      bool
	Digits         bool
	Symbols        bool
	ExcludeSimilar bool
}

// DefaultOptions enables every class at the default length.
func DefaultOptions() Options {
	return Options{
		Length:    defaultLength,
		Lowercase: true,
		Uppercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

// Result is a generated password with its entropy estimate.
type Result struct {
	Password    string
	Strength    string
	EntropyBits int
}

// Generate produces a random password per the options. Length defaults to
// 16 when unset or negative.
func Generate(opts Options) (Result, error) {
	if opts.Length <= 0 {
		opts.Length = defaultLength
	}

	charset := buildCharset(opts)
	if len(charset) == 0 {
		return Result{}, ErrEmptyCharset
	}

	buf := make([]byte, 4*opts.Length)
	if _, err := rand.Read(buf); err != nil {
		return Result{}, err
	}

	password := make([]byte, opts.Length)
	for i := 0; i < opts.Length; i++ {
		v := binary.BigEndian.Uint32(buf[4*i:])
		password[i] = charset[v%uint32(len(charset))]
	}

	bits := EntropyBits(opts.Length, len(charset))
	return Result{
		Password:    string(password),
		Strength:    strengthFor(bits),
		EntropyBits: bits,
	}, nil
}

// EntropyBits is floor(length * log2(charsetSize)).
func EntropyBits(length, charsetSize int) int {
	if length <= 0 || charsetSize <= 0 {
		return 0
	}
	return int(math.Floor(float64(length) * math.Log2(float64(charsetSize))))
}

func buildCharset(opts Options) string {
	var charset string
	if opts.Lowercase {
		if opts.ExcludeSimilar {
			charset += lowerCharsSafe
		} else {
			charset += lowerChars
		}
	}
	if opts.Uppercase {
		if opts.ExcludeSimilar {
			charset += upperCharsSafe
		} else {
			charset += upperChars
		}
	}
	if opts.Digits {
		if opts.ExcludeSimilar {
			charset += digitCharsSafe
		} else {
			charset += digitChars
		}
	}
	if opts.Symbols {
		charset += symbolChars
	}
	return charset
}

func strengthFor(bits int) string {
	switch {
	case bits >= 128:
		return StrengthVeryStrong
	case bits >= 80:
		return StrengthStrong
	case bits >= 60:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
