package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	dashes          = "-‐‑‒–—―"
	dashesWithSpace = " " + dashes
)

func isNumericRune(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlphanumeric(r rune) bool {
	return isNumericRune(r) || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isHexRune(r rune) bool {
	return isNumericRune(r) || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNumericRune(r) {
			return false
		}
	}
	return true
}

func isAlphanumericString(s string) bool {
	for _, r := range s {
		if !isAlphanumeric(r) {
			return false
		}
	}
	return true
}

func isCRC32(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if !isHexRune(r) {
			return false
		}
	}
	return true
}

func isDash(s string) bool {
	return utf8.RuneCountInString(s) == 1 && strings.ContainsAny(s, dashes)
}

// isMostlyLatin reports whether at least half the runes are Latin script
// (up to Latin Extended-B).
func isMostlyLatin(s string) bool {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return false
	}
	latin := 0
	for _, r := range s {
		if r <= 'ɏ' {
			latin++
		}
	}
	return float64(latin)/float64(n) >= 0.5
}

// isResolution matches "1280x720", "1920×1080" and "720p".
func isResolution(s string) bool {
	const minWidth, minHeight = 3, 3
	rs := []rune(s)
	if len(rs) >= minWidth+1+minHeight {
		pos := -1
		for i, r := range rs {
			if r == 'x' || r == 'X' || r == '×' {
				pos = i
				break
			}
		}
		if pos < minWidth || pos > len(rs)-(minHeight+1) {
			return false
		}
		for i, r := range rs {
			if i != pos && !isNumericRune(r) {
				return false
			}
		}
		return true
	}
	if len(rs) >= minHeight+1 {
		last := rs[len(rs)-1]
		if last != 'p' && last != 'P' {
			return false
		}
		for _, r := range rs[:len(rs)-1] {
			if !isNumericRune(r) {
				return false
			}
		}
		return true
	}
	return false
}

// indexNumber returns the byte offset of the first digit in s, or len(s).
func indexNumber(s string) int {
	if i := strings.IndexFunc(s, isNumericRune); i >= 0 {
		return i
	}
	return len(s)
}

// leadingInt parses the leading run of digits, so "07.5" is 7 and "4a" is 4.
// A run too long for an int saturates at math.MaxInt.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && isNumericRune(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil {
		return 0
	}
	return n
}

var ordinals = []struct {
	words  []string
	number string
}{
	{[]string{"1st", "first"}, "1"},
	{[]string{"2nd", "second"}, "2"},
	{[]string{"3rd", "third"}, "3"},
	{[]string{"4th", "fourth"}, "4"},
	{[]string{"5th", "fifth"}, "5"},
	{[]string{"6th", "sixth"}, "6"},
	{[]string{"7th", "seventh"}, "7"},
	{[]string{"8th", "eighth"}, "8"},
	{[]string{"9th", "ninth"}, "9"},
}

func numberFromOrdinal(word string) string {
	for _, o := range ordinals {
		for _, w := range o.words {
			if strings.EqualFold(word, w) {
				return o.number
			}
		}
	}
	return ""
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

// indexNonNumber returns the byte offset of the first non-digit in s, or len(s).
func indexNonNumber(s string) int {
	if i := strings.IndexFunc(s, func(r rune) bool { return !isNumericRune(r) }); i >= 0 {
		return i
	}
	return len(s)
}

func trim(s, cutset string) string {
	return strings.Trim(s, cutset)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
