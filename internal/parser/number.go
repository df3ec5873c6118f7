package parser

import (
	"regexp"
	"strconv"
)

const (
	animeYearMin     = 1900
	animeYearMax     = 2050
	episodeNumberMax = animeYearMin - 1
	volumeNumberMax  = 20
)

var (
	singleEpisodeRe   = regexp.MustCompile(`^(\d{1,4})[vV](\d)$`)
	multiEpisodeRe    = regexp.MustCompile(`^(\d{1,4})(?:[vV](\d))?[-~&+](\d{1,4})(?:[vV](\d))?$`)
	seasonEpisodeRe   = regexp.MustCompile(`(?i)^S?(\d{1,2})(?:-S?(\d{1,2}))?(?:x|[ ._\-x]?E)(\d{1,4})(?:-E?(\d{1,4}))?(?:[vV](\d))?$`)
	fractionalRe      = regexp.MustCompile(`^\d+\.5$`)
	numberSignRe      = regexp.MustCompile(`^#(\d{1,4})(?:[-~&+](\d{1,4}))?(?:[vV](\d))?$`)
	japaneseCounterRe = regexp.MustCompile(`^(\d{1,4})話$`)
	singleVolumeRe    = regexp.MustCompile(`^(\d{1,2})[vV](\d)$`)
	multiVolumeRe     = regexp.MustCompile(`^(\d{1,2})[-~&+](\d{1,2})(?:[vV](\d))?$`)
)

func validEpisodeNumber(number string) bool {
	return leadingInt(number) <= episodeNumberMax
}

func validVolumeNumber(number string) bool {
	return leadingInt(number) <= volumeNumberMax
}

func (p *parser) claim(i int, c Category) {
	p.toks[i].category = tokenIdentifier
	p.toks[i].element = c
}

// setEpisodeNumber records number for token i. Once an episode number is
// known from a keyword, a second, different number turns the larger of the
// two into the alternative number.
func (p *parser) setEpisodeNumber(number string, i int, validate bool) bool {
	if validate && !validEpisodeNumber(number) {
		return false
	}
	p.claim(i, EpisodeNumber)

	category := EpisodeNumber
	if p.foundEpisodeKeywords {
		for j, el := range p.elems.items {
			if el.Category != EpisodeNumber {
				continue
			}
			diff := leadingInt(number) - leadingInt(el.Value)
			switch {
			case diff > 0:
				category = EpisodeNumberAlt
			case diff < 0:
				p.elems.items[j].Category = EpisodeNumberAlt
			default:
				return false
			}
			break
		}
	}
	p.elems.insert(category, number)
	return true
}

func (p *parser) setAlternativeEpisodeNumber(number string, i int) {
	p.elems.insert(EpisodeNumberAlt, number)
	p.claim(i, EpisodeNumberAlt)
}

func (p *parser) setVolumeNumber(number string, i int, validate bool) bool {
	if validate && !validVolumeNumber(number) {
		return false
	}
	p.elems.insert(VolumeNumber, number)
	p.claim(i, VolumeNumber)
	return true
}

func (p *parser) setAnimeSeason(first, second int, number string) {
	p.elems.insert(AnimeSeason, number)
	p.claim(first, AnimeSeason)
	p.claim(second, AnimeSeason)
}

// checkAnimeSeasonKeyword handles "2nd Season" and "Season 2".
func (p *parser) checkAnimeSeasonKeyword(i int) bool {
	if prev := p.toks.prev(i, flagNotDelimiter); prev >= 0 {
		if number := numberFromOrdinal(p.toks[prev].content); number != "" {
			p.setAnimeSeason(prev, i, number)
			return true
		}
	}
	if next := p.toks.next(i, flagNotDelimiter); next >= 0 && isNumeric(p.toks[next].content) {
		p.setAnimeSeason(i, next, p.toks[next].content)
		return true
	}
	return false
}

// checkExtentKeyword handles a prefix keyword followed by a separate number
// token, e.g. "Episode 05" or "Vol 3".
func (p *parser) checkExtentKeyword(c Category, i int) bool {
	next := p.toks.next(i, flagNotDelimiter)
	if !p.toks.is(next, tokenUnknown) {
		return false
	}
	content := p.toks[next].content
	if indexNumber(content) != 0 {
		return false
	}
	switch c {
	case EpisodeNumber:
		if !p.matchEpisodePatterns(content, next) {
			p.setEpisodeNumber(content, next, false)
		}
	case VolumeNumber:
		if !p.matchVolumePatterns(content, next) {
			p.setVolumeNumber(content, next, false)
		}
	}
	p.claim(i, c)
	return true
}

// numberComesAfterPrefix handles a prefix glued to its number, "EP.1".
func (p *parser) numberComesAfterPrefix(c Category, i int) bool {
	content := p.toks[i].content
	begin := indexNumber(content)
	prefix := p.norm.normalize(content[:begin])
	if !p.dict.findIn(c, prefix) {
		return false
	}
	number := content[begin:]
	switch c {
	case EpisodePrefix:
		if !p.matchEpisodePatterns(number, i) {
			p.setEpisodeNumber(number, i, false)
		}
		return true
	case VolumePrefix:
		if !p.matchVolumePatterns(number, i) {
			p.setVolumeNumber(number, i, false)
		}
		return true
	}
	return false
}

// numberComesBeforeAnotherNumber handles "8 & 10" and "01 of 24".
func (p *parser) numberComesBeforeAnotherNumber(i int) bool {
	sep := p.toks.next(i, flagNotDelimiter)
	if sep < 0 {
		return false
	}
	separators := []struct {
		text string
		both bool
	}{
		{"&", true},
		{"of", false},
	}
	for _, s := range separators {
		if !equalFold(p.toks[sep].content, s.text) {
			continue
		}
		other := p.toks.next(sep, flagNotDelimiter)
		if other < 0 || !isNumeric(p.toks[other].content) {
			continue
		}
		p.setEpisodeNumber(p.toks[i].content, i, false)
		if s.both {
			p.setEpisodeNumber(p.toks[other].content, other, false)
		} else {
			p.claim(other, Unknown)
		}
		p.claim(sep, Unknown)
		return true
	}
	return false
}

func (p *parser) matchEpisodePatterns(word string, i int) bool {
	if isNumeric(word) {
		return false
	}
	word = trim(word, " -")
	if word == "" {
		return false
	}
	numericFront := isNumericRune(firstRune(word))
	numericBack := isNumericRune(lastRune(word))

	// "01v2"
	if numericFront && numericBack && p.matchSingleEpisodePattern(word, i) {
		return true
	}
	// "01-02", "03-05v2"
	if numericFront && numericBack && p.matchMultiEpisodePattern(word, i) {
		return true
	}
	// "2x01", "S01E03", "S01-02xE001-150"
	if numericBack && p.matchSeasonAndEpisodePattern(word, i) {
		return true
	}
	// "ED1", "OP4a", "OVA2"
	if !numericFront && p.matchTypeAndEpisodePattern(word, i) {
		return true
	}
	// "07.5"
	if numericFront && numericBack && p.matchFractionalEpisodePattern(word, i) {
		return true
	}
	// "4a", "111C"
	if numericFront && !numericBack && p.matchPartialEpisodePattern(word, i) {
		return true
	}
	// "#01", "#02-03v2"
	if numericBack && p.matchNumberSignPattern(word, i) {
		return true
	}
	// "01話"
	if numericFront && p.matchJapaneseCounterPattern(word, i) {
		return true
	}
	return false
}

func (p *parser) matchSingleEpisodePattern(word string, i int) bool {
	m := singleEpisodeRe.FindStringSubmatch(word)
	if m == nil {
		return false
	}
	p.setEpisodeNumber(m[1], i, false)
	p.elems.insert(ReleaseVersion, m[2])
	return true
}

func (p *parser) matchMultiEpisodePattern(word string, i int) bool {
	m := multiEpisodeRe.FindStringSubmatch(word)
	if m == nil {
		return false
	}
	lower, upper := m[1], m[3]
	// "009-1" and "5-2" are not ranges
	if leadingInt(lower) >= leadingInt(upper) {
		return false
	}
	if !p.setEpisodeNumber(lower, i, true) {
		return false
	}
	p.setEpisodeNumber(upper, i, false)
	if m[2] != "" {
		p.elems.insert(ReleaseVersion, m[2])
	}
	if m[4] != "" {
		p.elems.insert(ReleaseVersion, m[4])
	}
	return true
}

func (p *parser) matchSeasonAndEpisodePattern(word string, i int) bool {
	m := seasonEpisodeRe.FindStringSubmatch(word)
	if m == nil {
		return false
	}
	if leadingInt(m[1]) == 0 {
		return false
	}
	p.elems.insert(AnimeSeason, m[1])
	if m[2] != "" {
		p.elems.insert(AnimeSeason, m[2])
	}
	p.setEpisodeNumber(m[3], i, false)
	if m[4] != "" {
		p.setEpisodeNumber(m[4], i, false)
	}
	return true
}

// matchTypeAndEpisodePattern splits "OVA2" into a type token and a number
// token.
func (p *parser) matchTypeAndEpisodePattern(word string, i int) bool {
	begin := indexNumber(word)
	prefix := word[:begin]
	kw, ok := p.dict.find(p.norm.normalize(prefix))
	if !ok || kw.category != AnimeType {
		return false
	}
	p.elems.insert(AnimeType, prefix)
	number := word[begin:]
	if !p.matchEpisodePatterns(number, i) && !p.setEpisodeNumber(number, i, true) {
		return false
	}
	p.toks[i].content = number
	split := token{category: tokenUnknown, content: prefix, enclosed: p.toks[i].enclosed}
	if kw.options.Identifiable {
		split.category = tokenIdentifier
		split.element = AnimeType
	}
	p.toks = append(p.toks[:i], append(arena{split}, p.toks[i:]...)...)
	return true
}

func (p *parser) matchFractionalEpisodePattern(word string, i int) bool {
	if !fractionalRe.MatchString(word) {
		return false
	}
	return p.setEpisodeNumber(word, i, true)
}

func (p *parser) matchPartialEpisodePattern(word string, i int) bool {
	suffix := word[indexNonNumber(word):]
	if len(suffix) != 1 {
		return false
	}
	switch suffix[0] {
	case 'A', 'B', 'C', 'a', 'b', 'c':
		return p.setEpisodeNumber(word, i, true)
	}
	return false
}

func (p *parser) matchNumberSignPattern(word string, i int) bool {
	m := numberSignRe.FindStringSubmatch(word)
	if m == nil {
		return false
	}
	if !p.setEpisodeNumber(m[1], i, true) {
		return false
	}
	if m[2] != "" {
		p.setEpisodeNumber(m[2], i, false)
	}
	if m[3] != "" {
		p.elems.insert(ReleaseVersion, m[3])
	}
	return true
}

func (p *parser) matchJapaneseCounterPattern(word string, i int) bool {
	m := japaneseCounterRe.FindStringSubmatch(word)
	if m == nil {
		return false
	}
	p.setEpisodeNumber(m[1], i, false)
	return true
}

func (p *parser) matchVolumePatterns(word string, i int) bool {
	if isNumeric(word) {
		return false
	}
	word = trim(word, " -")
	if word == "" || !isNumericRune(firstRune(word)) || !isNumericRune(lastRune(word)) {
		return false
	}
	// "01v2"
	if m := singleVolumeRe.FindStringSubmatch(word); m != nil {
		p.setVolumeNumber(m[1], i, false)
		p.elems.insert(ReleaseVersion, m[2])
		return true
	}
	// "01-02", "03-05v2"
	m := multiVolumeRe.FindStringSubmatch(word)
	if m == nil {
		return false
	}
	lower, upper := m[1], m[2]
	if leadingInt(lower) >= leadingInt(upper) {
		return false
	}
	if !p.setVolumeNumber(lower, i, true) {
		return false
	}
	p.setVolumeNumber(upper, i, false)
	if m[3] != "" {
		p.elems.insert(ReleaseVersion, m[3])
	}
	return true
}

// searchForEpisodeNumber tries the strong patterns on every unclaimed token
// holding a digit, then falls back to positional guesses over plain numbers.
func (p *parser) searchForEpisodeNumber() {
	var candidates []int
	for i, t := range p.toks {
		if t.category == tokenUnknown && indexNumber(t.content) < len(t.content) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}

	p.foundEpisodeKeywords = p.elems.Has(EpisodeNumber)

	if p.searchForEpisodePatterns(candidates) {
		return
	}
	if p.elems.Has(EpisodeNumber) {
		return
	}

	numeric := candidates[:0]
	for _, i := range candidates {
		if isNumeric(p.toks[i].content) {
			numeric = append(numeric, i)
		}
	}
	if len(numeric) == 0 {
		return
	}

	fallbacks := []func([]int) bool{
		p.searchForEquivalentNumbers, // "01 (176)"
		p.searchForSeparatedNumbers,  // " - 08"
		p.searchForIsolatedEpisode,   // "[12]"
		p.searchForLastNumber,
	}
	for _, search := range fallbacks {
		if search(numeric) {
			return
		}
	}
}

func (p *parser) searchForEpisodePatterns(candidates []int) bool {
	for _, i := range candidates {
		if p.toks[i].category != tokenUnknown {
			continue
		}
		if !isNumericRune(firstRune(p.toks[i].content)) {
			// "EP.1", "Vol.1"
			if p.numberComesAfterPrefix(EpisodePrefix, i) {
				return true
			}
			if p.numberComesAfterPrefix(VolumePrefix, i) {
				continue
			}
		} else if p.numberComesBeforeAnotherNumber(i) {
			return true
		}
		if p.matchEpisodePatterns(p.toks[i].content, i) {
			return true
		}
	}
	return false
}

func (p *parser) searchForEquivalentNumbers(numeric []int) bool {
	for _, i := range numeric {
		if p.isolated(i) || !validEpisodeNumber(p.toks[i].content) {
			continue
		}
		next := p.toks.next(i, flagNotDelimiter)
		if !p.toks.is(next, tokenBracket) {
			continue
		}
		next = p.toks.next(next, flagEnclosed|flagNotDelimiter)
		if !p.toks.is(next, tokenUnknown) {
			continue
		}
		content := p.toks[next].content
		if !p.isolated(next) || !isNumeric(content) || !validEpisodeNumber(content) {
			continue
		}
		lo, hi := i, next
		if leadingInt(p.toks[hi].content) < leadingInt(p.toks[lo].content) {
			lo, hi = hi, lo
		}
		p.setEpisodeNumber(p.toks[lo].content, lo, false)
		p.setAlternativeEpisodeNumber(p.toks[hi].content, hi)
		return true
	}
	return false
}

func (p *parser) searchForSeparatedNumbers(numeric []int) bool {
	for _, i := range numeric {
		prev := p.toks.prev(i, flagNotDelimiter)
		if !p.toks.is(prev, tokenUnknown) || !isDash(p.toks[prev].content) {
			continue
		}
		if p.setEpisodeNumber(p.toks[i].content, i, true) {
			p.claim(prev, Unknown)
			return true
		}
	}
	return false
}

func (p *parser) searchForIsolatedEpisode(numeric []int) bool {
	for _, i := range numeric {
		if !p.toks[i].enclosed || !p.isolated(i) {
			continue
		}
		if p.setEpisodeNumber(p.toks[i].content, i, true) {
			return true
		}
	}
	return false
}

// searchForLastNumber is the last resort: the rightmost free number that
// cannot be the start of the title.
func (p *parser) searchForLastNumber(numeric []int) bool {
	for k := len(numeric) - 1; k >= 0; k-- {
		i := numeric[k]
		if i == 0 || p.toks[i].enclosed {
			continue
		}
		firstFree := true
		for _, t := range p.toks[:i] {
			if !t.enclosed && t.category != tokenDelimiter {
				firstFree = false
				break
			}
		}
		if firstFree {
			continue
		}
		prev := p.toks.prev(i, flagNotDelimiter)
		if p.toks.is(prev, tokenUnknown) {
			word := p.toks[prev].content
			if equalFold(word, "Movie") || equalFold(word, "Part") {
				continue
			}
		}
		if p.setEpisodeNumber(p.toks[i].content, i, true) {
			return true
		}
	}
	return false
}

// searchForIsolatedNumbers treats a number alone in brackets as a year or
// a bare resolution.
func (p *parser) searchForIsolatedNumbers() {
	for i, t := range p.toks {
		if t.category != tokenUnknown || !isNumeric(t.content) || !p.isolated(i) {
			continue
		}
		n, err := strconv.Atoi(t.content)
		if err != nil {
			continue
		}
		if n >= animeYearMin && n <= animeYearMax && p.elems.empty(AnimeYear) {
			p.elems.insert(AnimeYear, t.content)
			p.claim(i, AnimeYear)
			continue
		}
		if (n == 480 || n == 720 || n == 1080) && p.elems.empty(VideoResolution) {
			p.elems.insert(VideoResolution, t.content)
			p.claim(i, VideoResolution)
		}
	}
}

func (p *parser) isolated(i int) bool {
	prev := p.toks.prev(i, flagNotDelimiter)
	if !p.toks.is(prev, tokenBracket) {
		return false
	}
	next := p.toks.next(i, flagNotDelimiter)
	return p.toks.is(next, tokenBracket)
}
