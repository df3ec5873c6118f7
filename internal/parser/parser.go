// Package parser extracts anime metadata from media filenames.
//
// A filename is split into tokens at brackets and delimiters, then an
// ordered list of passes classifies them: dictionary keywords first, then
// number heuristics, and finally the unclaimed runs left over become the
// anime title, release group and episode title.
package parser

import (
	"strings"
	"unicode/utf8"
)

// Parser parses filenames against a keyword dictionary. It holds no
// per-parse state and is safe for concurrent use.
type Parser struct {
	dict *Dictionary
}

// New returns a Parser using dict, or the built-in dictionary when dict is
// nil.
func New(dict *Dictionary) *Parser {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Parser{dict: dict}
}

var defaultParser = New(nil)

// Parse parses filename with the built-in dictionary.
func Parse(filename string, opts Options) (bool, *Elements) {
	return defaultParser.Parse(filename, opts)
}

// Tokenize parses filename with the built-in dictionary and returns the
// resulting tokens.
func Tokenize(filename string, opts Options) []Token {
	return defaultParser.Tokenize(filename, opts)
}

// Parse reports whether an anime title was found. The elements are
// returned either way; they are empty for an empty filename.
func (ps *Parser) Parse(filename string, opts Options) (bool, *Elements) {
	p := ps.newParser(opts)
	ok := p.run(filename)
	return ok, p.elems
}

// Tokenize runs a full parse and returns the token sequence with the
// category that claimed each token.
func (ps *Parser) Tokenize(filename string, opts Options) []Token {
	p := ps.newParser(opts)
	p.run(filename)
	return p.toks.export()
}

// Dictionary returns the dictionary the parser matches keywords against.
func (ps *Parser) Dictionary() *Dictionary {
	return ps.dict
}

// parser is the state of a single parse.
type parser struct {
	dict  *Dictionary
	opts  Options
	norm  normalizer
	elems *Elements
	toks  arena

	foundEpisodeKeywords bool
}

func (ps *Parser) newParser(opts Options) *parser {
	return &parser{
		dict:  ps.dict,
		opts:  opts.Clone(),
		norm:  newNormalizer(),
		elems: newElements(),
	}
}

type pass struct {
	name string
	when func(p *parser) bool
	run  func(p *parser)
}

// passes run in order over the token arena once it is built.
var passes = []pass{
	{name: "keywords", run: (*parser).searchForKeywords},
	{name: "isolated_numbers", run: (*parser).searchForIsolatedNumbers},
	{
		name: "episode_number",
		when: func(p *parser) bool { return p.opts.ParseEpisodeNumber },
		run:  (*parser).searchForEpisodeNumber,
	},
	{name: "anime_title", run: (*parser).searchForAnimeTitle},
	{
		name: "release_group",
		when: func(p *parser) bool { return p.opts.ParseReleaseGroup && p.elems.empty(ReleaseGroup) },
		run:  (*parser).searchForReleaseGroup,
	},
	{
		name: "episode_title",
		when: func(p *parser) bool { return p.opts.ParseEpisodeTitle && p.elems.Has(EpisodeNumber) },
		run:  (*parser).searchForEpisodeTitle,
	},
	{name: "validate", run: (*parser).validateElements},
}

func (p *parser) run(filename string) bool {
	for _, ignored := range p.opts.IgnoredStrings {
		if ignored != "" {
			filename = strings.Replace(filename, ignored, "", 1)
		}
	}

	if p.opts.ParseFileExtension {
		if name, ext, ok := p.splitExtension(filename); ok {
			p.elems.insert(FileExtension, ext)
			filename = name
		}
	}

	if filename == "" {
		return false
	}
	p.elems.insert(FileName, filename)

	p.toks = newTokenizer(filename, p.opts, p.elems).tokenize()
	if len(p.toks) == 0 {
		return false
	}

	for _, ps := range passes {
		if ps.when != nil && !ps.when(p) {
			continue
		}
		ps.run(p)
	}
	return p.elems.Has(AnimeTitle)
}

// splitExtension accepts a short alphanumeric suffix that the dictionary
// knows as an extension.
func (p *parser) splitExtension(filename string) (string, string, bool) {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return filename, "", false
	}
	ext := filename[dot+1:]
	if ext == "" || utf8.RuneCountInString(ext) > 4 || !isAlphanumericString(ext) {
		return filename, "", false
	}
	if !p.dict.findIn(FileExtension, p.norm.normalize(ext)) {
		return filename, "", false
	}
	return filename[:dot], ext, true
}

func (p *parser) searchForKeywords() {
	for i := range p.toks {
		if p.toks[i].category != tokenUnknown {
			continue
		}
		word := trim(p.toks[i].content, " -")
		if word == "" {
			continue
		}
		// Only an 8 digit number can still be a checksum.
		if len(word) != 8 && isNumeric(word) {
			continue
		}

		category := Unknown
		opts := defaultKeyword
		if kw, ok := p.dict.find(p.norm.normalize(word)); ok {
			category, opts = kw.category, kw.options
			if category == ReleaseGroup && !p.opts.ParseReleaseGroup {
				continue
			}
			if !category.searchable() || !opts.Searchable {
				continue
			}
			if category.singular() && p.elems.Has(category) {
				continue
			}
			switch category {
			case AnimeSeasonPrefix:
				p.checkAnimeSeasonKeyword(i)
				continue
			case EpisodePrefix:
				if opts.Valid && p.opts.ParseEpisodeNumber {
					p.checkExtentKeyword(EpisodeNumber, i)
				}
				continue
			case VolumePrefix:
				p.checkExtentKeyword(VolumeNumber, i)
				continue
			case ReleaseVersion:
				_, size := utf8.DecodeRuneInString(word)
				word = word[size:] // drop the "v"
			}
		} else {
			switch {
			case p.elems.empty(FileChecksum) && isCRC32(word):
				category = FileChecksum
			case p.elems.empty(VideoResolution) && isResolution(word):
				category = VideoResolution
			}
		}

		if category != Unknown {
			p.elems.insert(category, word)
			if opts.Identifiable {
				p.claim(i, category)
			}
		}
	}
}

func (p *parser) searchForAnimeTitle() {
	enclosedTitle := false

	begin := p.toks.find(0, len(p.toks), flagNotEnclosed|flagUnknown)

	// Everything is enclosed: assume the first group is the release group
	// and take the first Latin group after it.
	if begin < 0 {
		enclosedTitle = true
		skippedPreviousGroup := false
		for cur := 0; cur >= 0; {
			cur = p.toks.find(cur, len(p.toks), flagUnknown)
			if cur < 0 {
				break
			}
			if isMostlyLatin(p.toks[cur].content) && skippedPreviousGroup {
				begin = cur
				break
			}
			cur = p.toks.find(cur, len(p.toks), flagBracket)
			skippedPreviousGroup = true
		}
	}
	if begin < 0 {
		return
	}

	endFlags := flagIdentifier
	if enclosedTitle {
		endFlags |= flagBracket
	}
	end := p.toks.find(begin, len(p.toks), endFlags)
	if end < 0 {
		end = len(p.toks)
	}

	if !enclosedTitle {
		// Stop at a bracket left open inside the title.
		lastBracket, open := end, false
		for i := begin; i < end; i++ {
			if p.toks[i].category == tokenBracket {
				lastBracket, open = i, !open
			}
		}
		if open {
			end = lastBracket
		}

		// Leave out a trailing group such as "[Fansub]" but keep "(TV)".
		prev := p.toks.prev(end, flagNotDelimiter)
		for p.toks.is(prev, tokenBracket) && firstRune(p.toks[prev].content) != ')' {
			prev = p.toks.prev(prev, flagBracket)
			if prev >= 0 {
				end = prev
				prev = p.toks.prev(end, flagNotDelimiter)
			}
		}
	}

	p.buildElement(AnimeTitle, false, begin, end)
}

// searchForReleaseGroup takes the first enclosed run that fills its group
// up to the closing bracket.
func (p *parser) searchForReleaseGroup() {
	end := 0
	for {
		begin := p.toks.find(end, len(p.toks), flagEnclosed|flagUnknown)
		if begin < 0 {
			return
		}
		end = p.toks.find(begin, len(p.toks), flagBracket|flagIdentifier)
		if end < 0 {
			return
		}
		if p.toks[end].category != tokenBracket {
			continue
		}
		if prev := p.toks.prev(begin, flagNotDelimiter); prev >= 0 && p.toks[prev].category != tokenBracket {
			continue
		}
		last := p.toks.prev(end, flagValid)
		p.buildElement(ReleaseGroup, true, begin, last+1)
		return
	}
}

func (p *parser) searchForEpisodeTitle() {
	end := 0
	for {
		begin := p.toks.find(end, len(p.toks), flagNotEnclosed|flagUnknown)
		if begin < 0 {
			return
		}
		end = p.toks.find(begin, len(p.toks), flagBracket|flagIdentifier)
		if end < 0 {
			end = len(p.toks)
		}
		// A lone dash between two claimed tokens.
		if end-begin <= 2 && isDash(p.toks[begin].content) {
			continue
		}
		p.buildElement(EpisodeTitle, false, begin, end)
		return
	}
}

// buildElement joins tokens [begin, end) into one value, claiming the
// unknown ones. Unless keepDelimiters is set, delimiters other than ","
// and "&" become spaces and surrounding spaces and dashes are trimmed.
func (p *parser) buildElement(c Category, keepDelimiters bool, begin, end int) {
	var b strings.Builder
	for i := begin; i < end && i < len(p.toks); i++ {
		t := p.toks[i]
		switch t.category {
		case tokenUnknown:
			b.WriteString(t.content)
			p.claim(i, c)
		case tokenBracket:
			b.WriteString(t.content)
		case tokenDelimiter:
			delim := firstRune(t.content)
			switch {
			case keepDelimiters:
				b.WriteRune(delim)
			case i == begin:
			case delim == ',' || delim == '&':
				b.WriteRune(delim)
			default:
				b.WriteByte(' ')
			}
		}
	}

	value := b.String()
	if !keepDelimiters {
		value = trim(value, dashesWithSpace)
	}
	if value != "" {
		p.elems.insert(c, value)
	}
}

// validateElements drops an episode title that is only an anime type, and
// anime type keywords that are part of the episode title.
func (p *parser) validateElements() {
	if p.elems.empty(AnimeType) || p.elems.empty(EpisodeTitle) {
		return
	}
	episodeTitle, _ := p.elems.Get(EpisodeTitle)
	dropTitle := false
	kept := make([]Element, 0, len(p.elems.items))
	for _, el := range p.elems.items {
		if el.Category == AnimeType && strings.Contains(episodeTitle, el.Value) {
			if len(episodeTitle) == len(el.Value) {
				dropTitle = true
			} else if p.dict.findIn(AnimeType, p.norm.normalize(el.Value)) {
				continue
			}
		}
		kept = append(kept, el)
	}
	p.elems.items = kept
	if dropTitle {
		p.elems.remove(EpisodeTitle)
	}
}
