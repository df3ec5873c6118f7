package parser

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// bracketPairs maps each opening glyph to its closing glyph.
var bracketPairs = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
	'「': '」',
	'『': '』',
	'【': '】',
	'（': '）',
}

type tokenizer struct {
	input []rune
	opts  Options
	elems *Elements
	toks  arena
}

func newTokenizer(filename string, opts Options, elems *Elements) *tokenizer {
	return &tokenizer{
		input: []rune(filename),
		opts:  opts,
		elems: elems,
		toks:  make(arena, 0, 32),
	}
}

// tokenize splits the input at brackets. While a group is open only its
// own closing glyph ends it, and a closing glyph with no open group is
// plain text.
func (t *tokenizer) tokenize() arena {
	open := false
	var closing rune
	begin := 0
	for begin < len(t.input) {
		cur := begin
		for ; cur < len(t.input); cur++ {
			r := t.input[cur]
			if open {
				if r == closing {
					break
				}
			} else if c, ok := bracketPairs[r]; ok {
				closing = c
				break
			}
		}
		if cur > begin {
			t.tokenizeByPreidentified(open, begin, cur)
		}
		if cur == len(t.input) {
			break
		}
		t.add(tokenBracket, true, cur, cur+1)
		open = !open
		begin = cur + 1
	}
	return t.toks
}

type span struct {
	from, to int
	category Category
}

// peek records the preidentified keywords found in [begin, end).
func (t *tokenizer) peek(begin, end int) []span {
	text := string(t.input[begin:end])
	var found []span
	for _, entry := range preidentified {
		for _, kw := range entry.keywords {
			i := strings.Index(text, kw)
			if i < 0 {
				continue
			}
			from := begin + utf8.RuneCountInString(text[:i])
			t.elems.insert(entry.category, kw)
			found = append(found, span{from: from, to: from + utf8.RuneCountInString(kw), category: entry.category})
		}
	}
	return found
}

func (t *tokenizer) tokenizeByPreidentified(enclosed bool, begin, end int) {
	found := t.peek(begin, end)
	sub := begin
	for offset := begin; offset < end; {
		hit := slices.IndexFunc(found, func(s span) bool { return s.from == offset })
		if hit < 0 {
			offset++
			continue
		}
		if offset > sub {
			t.tokenizeByDelimiters(enclosed, sub, offset)
		}
		s := found[hit]
		t.add(tokenIdentifier, enclosed, s.from, s.to)
		t.toks[len(t.toks)-1].element = s.category
		offset = s.to
		sub = offset
	}
	if end > sub {
		t.tokenizeByDelimiters(enclosed, sub, end)
	}
}

func (t *tokenizer) tokenizeByDelimiters(enclosed bool, begin, end int) {
	hasDelimiter := slices.ContainsFunc(t.input[begin:end], t.opts.isDelimiter)
	if !hasDelimiter {
		t.add(tokenUnknown, enclosed, begin, end)
		return
	}
	start := begin
	for i := begin; i < end; i++ {
		if !t.opts.isDelimiter(t.input[i]) {
			continue
		}
		if i > start {
			t.add(tokenUnknown, enclosed, start, i)
		}
		t.add(tokenDelimiter, enclosed, i, i+1)
		start = i + 1
	}
	if end > start {
		t.add(tokenUnknown, enclosed, start, end)
	}
	t.validateDelimiters()
}

// validateDelimiters undoes splits that would break group names, keywords
// and episode numbers apart.
func (t *tokenizer) validateDelimiters() {
	toks := t.toks
	isDelimiter := func(i int) bool { return toks.is(i, tokenDelimiter) }
	isUnknown := func(i int) bool { return toks.is(i, tokenUnknown) }
	isSingleChar := func(i int) bool {
		return isUnknown(i) && utf8.RuneCountInString(toks[i].content) == 1 && toks[i].content != "-"
	}
	appendTo := func(from, to int) {
		toks[to].content += toks[from].content
		toks[from].category = tokenInvalid
	}

	for i := range toks {
		if toks[i].category != tokenDelimiter {
			continue
		}
		delim := firstRune(toks[i].content)
		prev := toks.prev(i, flagValid)
		next := toks.next(i, flagValid)

		// "A.B.C", "Vol.1"
		if delim != ' ' && delim != '_' {
			if isSingleChar(prev) {
				appendTo(i, prev)
				for isUnknown(next) {
					appendTo(next, prev)
					next = toks.next(next, flagValid)
					if isDelimiter(next) && firstRune(toks[next].content) == delim {
						appendTo(next, prev)
						next = toks.next(next, flagValid)
					}
				}
				continue
			}
			if isSingleChar(next) && prev >= 0 && !toks.is(prev, tokenBracket) {
				appendTo(i, prev)
				appendTo(next, prev)
				continue
			}
		}

		// Adjacent delimiters
		if isUnknown(prev) && isDelimiter(next) {
			nextDelim := firstRune(toks[next].content)
			if delim != nextDelim && delim != ',' && (nextDelim == ' ' || nextDelim == '_') {
				appendTo(i, prev)
			}
		} else if isDelimiter(prev) && isDelimiter(next) {
			prevDelim := firstRune(toks[prev].content)
			nextDelim := firstRune(toks[next].content)
			if prevDelim == nextDelim && prevDelim != delim {
				toks[i].category = tokenUnknown // "&" in "_&_"
			}
		}

		// "01+02", "8&10"
		if delim == '&' || delim == '+' {
			if isUnknown(prev) && isUnknown(next) && isNumeric(toks[prev].content) && isNumeric(toks[next].content) {
				appendTo(i, prev)
				appendTo(next, prev)
			}
		}
	}

	t.toks = slices.DeleteFunc(t.toks, func(tk token) bool { return tk.category == tokenInvalid })
}

func (t *tokenizer) add(c tokenCategory, enclosed bool, from, to int) {
	t.toks = append(t.toks, token{
		category: c,
		content:  string(t.input[from:to]),
		enclosed: enclosed,
	})
}
