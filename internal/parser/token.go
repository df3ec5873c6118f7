package parser

type tokenCategory uint8

const (
	tokenUnknown tokenCategory = iota
	tokenBracket
	tokenDelimiter
	tokenIdentifier
	tokenInvalid
)

type token struct {
	category tokenCategory
	content  string
	enclosed bool
	// element is the category that claimed the token, if any.
	element Category
}

type flag uint16

const flagNone flag = 0

const (
	flagBracket flag = 1 << iota
	flagNotBracket
	flagDelimiter
	flagNotDelimiter
	flagIdentifier
	flagNotIdentifier
	flagUnknown
	flagNotUnknown
	flagValid
	flagNotValid
	flagEnclosed
	flagNotEnclosed

	flagMaskCategories = flagBracket | flagNotBracket | flagDelimiter | flagNotDelimiter |
		flagIdentifier | flagNotIdentifier | flagUnknown | flagNotUnknown |
		flagValid | flagNotValid
	flagMaskEnclosed = flagEnclosed | flagNotEnclosed
)

// matches reports whether t satisfies f. The enclosed flags must hold;
// among the category flags any one match is enough.
func (t token) matches(f flag) bool {
	if f&flagMaskEnclosed != 0 {
		if t.enclosed != (f&flagEnclosed != 0) {
			return false
		}
	}
	if f&flagMaskCategories == 0 {
		return true
	}
	check := func(is, isNot flag, c tokenCategory) bool {
		switch {
		case f&is != 0:
			return t.category == c
		case f&isNot != 0:
			return t.category != c
		}
		return false
	}
	return check(flagBracket, flagNotBracket, tokenBracket) ||
		check(flagDelimiter, flagNotDelimiter, tokenDelimiter) ||
		check(flagIdentifier, flagNotIdentifier, tokenIdentifier) ||
		check(flagUnknown, flagNotUnknown, tokenUnknown) ||
		check(flagNotValid, flagValid, tokenInvalid)
}

// arena is the token sequence of one parse. Tokens are addressed by index;
// -1 means "no token".
type arena []token

// find returns the first index in [from, to) matching f.
func (a arena) find(from, to int, f flag) int {
	if from < 0 {
		return -1
	}
	for i := from; i < to && i < len(a); i++ {
		if a[i].matches(f) {
			return i
		}
	}
	return -1
}

func (a arena) next(i int, f flag) int {
	if i < 0 {
		return -1
	}
	return a.find(i+1, len(a), f)
}

// prev searches backwards from i-1. Passing len(a) searches from the end.
func (a arena) prev(i int, f flag) int {
	if i > len(a) {
		i = len(a)
	}
	for j := i - 1; j >= 0; j-- {
		if a[j].matches(f) {
			return j
		}
	}
	return -1
}

func (a arena) is(i int, c tokenCategory) bool {
	return i >= 0 && i < len(a) && a[i].category == c
}

// TokenKind is the lexical kind of a token.
type TokenKind int

const (
	KindFree TokenKind = iota
	KindDelimiter
	KindOpenBracket
	KindCloseBracket
)

func (k TokenKind) String() string {
	switch k {
	case KindDelimiter:
		return "delimiter"
	case KindOpenBracket:
		return "open"
	case KindCloseBracket:
		return "close"
	}
	return "free"
}

func (k TokenKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is the exported view of an arena entry after a parse.
type Token struct {
	Text       string    `json:"text"`
	Kind       TokenKind `json:"kind"`
	Enclosed   bool      `json:"enclosed"`
	Identified bool      `json:"identified"`
	Category   Category  `json:"category"`
}

func (a arena) export() []Token {
	out := make([]Token, 0, len(a))
	for _, t := range a {
		if t.category == tokenInvalid {
			continue
		}
		tok := Token{
			Text:       t.content,
			Enclosed:   t.enclosed,
			Identified: t.category == tokenIdentifier,
			Category:   t.element,
		}
		switch t.category {
		case tokenDelimiter:
			tok.Kind = KindDelimiter
		case tokenBracket:
			tok.Kind = KindCloseBracket
			if _, ok := bracketPairs[firstRune(t.content)]; ok {
				tok.Kind = KindOpenBracket
			}
		}
		out = append(out, tok)
	}
	return out
}
