package parser

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// KeywordOptions describe how the keyword pass treats a dictionary entry.
type KeywordOptions struct {
	// Identifiable keywords claim their token once recorded.
	Identifiable bool
	// Searchable keywords are recorded by the keyword pass at all.
	Searchable bool
	// Valid prefixes may anchor a number in a separate token.
	Valid bool
}

var (
	defaultKeyword             = KeywordOptions{Identifiable: true, Searchable: true, Valid: true}
	invalidKeyword             = KeywordOptions{Identifiable: true, Searchable: true, Valid: false}
	unidentifiableKeyword      = KeywordOptions{Identifiable: false, Searchable: true, Valid: true}
	unidentifiableInvalid      = KeywordOptions{Identifiable: false, Searchable: true, Valid: false}
	unidentifiableUnsearchable = KeywordOptions{Identifiable: false, Searchable: false, Valid: true}
)

// DefaultKeywordOptions is what Add uses for entries loaded from config.
func DefaultKeywordOptions() KeywordOptions {
	return defaultKeyword
}

type keyword struct {
	category Category
	options  KeywordOptions
}

// normalizer folds full-width forms and upper-cases. A cases.Caser keeps
// state, so every parse owns one.
type normalizer struct {
	upper cases.Caser
}

func newNormalizer() normalizer {
	return normalizer{upper: cases.Upper(language.Und)}
}

func (n normalizer) normalize(s string) string {
	return n.upper.String(width.Fold.String(s))
}

// Dictionary maps normalized keywords to categories. File extensions are
// kept apart since several of them ("AAC", "AVI") are also media terms.
// A Dictionary must not be modified once parses are using it.
type Dictionary struct {
	keys       map[string]keyword
	extensions map[string]keyword
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		keys:       make(map[string]keyword),
		extensions: make(map[string]keyword),
	}
}

// Add registers words under c. The first registration of a word wins.
func (d *Dictionary) Add(c Category, opts KeywordOptions, words ...string) {
	n := newNormalizer()
	container := d.keys
	if c == FileExtension {
		container = d.extensions
	}
	for _, w := range words {
		if w == "" {
			continue
		}
		key := n.normalize(w)
		if _, exists := container[key]; exists {
			continue
		}
		container[key] = keyword{category: c, options: opts}
	}
}

// Lookup finds a keyword regardless of category.
func (d *Dictionary) Lookup(word string) (Category, KeywordOptions, bool) {
	kw, ok := d.keys[newNormalizer().normalize(word)]
	return kw.category, kw.options, ok
}

// Len returns the number of registered keywords, extensions included.
func (d *Dictionary) Len() int {
	return len(d.keys) + len(d.extensions)
}

func (d *Dictionary) find(key string) (keyword, bool) {
	kw, ok := d.keys[key]
	return kw, ok
}

func (d *Dictionary) findIn(c Category, key string) bool {
	container := d.keys
	if c == FileExtension {
		container = d.extensions
	}
	kw, ok := container[key]
	return ok && kw.category == c
}

// DefaultDictionary returns a fresh copy of the built-in vocabulary.
func DefaultDictionary() *Dictionary {
	d := NewDictionary()

	d.Add(AnimeSeasonPrefix, unidentifiableKeyword, "SAISON", "SEASON")

	d.Add(AnimeType, unidentifiableKeyword,
		"GEKIJOUBAN", "MOVIE", "OAD", "OAV", "ONA", "OVA", "SPECIAL", "SPECIALS", "TV")
	d.Add(AnimeType, unidentifiableUnsearchable, "SP") // e.g. "Yumeiro Patissiere SP Professional"
	d.Add(AnimeType, unidentifiableInvalid,
		"ED", "ENDING", "NCED", "NCOP", "OP", "OPENING", "PREVIEW", "PV")

	d.Add(AudioTerm, defaultKeyword,
		// Audio channels
		"2.0CH", "2CH", "5.1", "5.1CH", "DTS", "DTS-ES", "DTS5.1", "TRUEHD5.1",
		// Audio codec
		"AAC", "AACX2", "AACX3", "AACX4", "AC3", "EAC3", "E-AC-3",
		"FLAC", "FLACX2", "FLACX3", "FLACX4", "LOSSLESS", "MP3", "OGG", "VORBIS",
		// Audio language
		"DUALAUDIO", "DUAL AUDIO")

	d.Add(DeviceCompatibility, defaultKeyword,
		"IPAD3", "IPHONE5", "IPOD", "PS3", "XBOX", "XBOX360")
	d.Add(DeviceCompatibility, unidentifiableKeyword, "ANDROID")

	d.Add(EpisodePrefix, defaultKeyword,
		"EP", "EP.", "EPS", "EPS.", "EPISODE", "EPISODE.", "EPISODES",
		"CAPITULO", "EPISODIO", "FOLGE")
	d.Add(EpisodePrefix, invalidKeyword, "E", "第")

	d.Add(FileExtension, defaultKeyword,
		"3GP", "AVI", "DIVX", "FLV", "M2TS", "MKV", "MOV", "MP4", "MPG",
		"OGM", "RM", "RMVB", "TS", "WEBM", "WMV")
	d.Add(FileExtension, invalidKeyword,
		"AAC", "AIFF", "FLAC", "M4A", "MP3", "MKA", "OGG", "WAV", "WMA",
		"7Z", "RAR", "ZIP",
		"ASS", "SRT")

	d.Add(Language, defaultKeyword,
		"ENG", "ENGLISH", "ESPANOL", "JAP", "PT-BR", "SPANISH", "VOSTFR")
	d.Add(Language, unidentifiableKeyword, "ESP", "ITA") // e.g. "Tokyo ESP", "Bokura ga Ita"

	d.Add(Other, defaultKeyword,
		"REMASTER", "REMASTERED", "UNCENSORED", "UNCUT", "TS", "VFR", "WIDESCREEN", "WS")

	d.Add(ReleaseGroup, defaultKeyword, "THORA")

	d.Add(ReleaseInformation, defaultKeyword, "BATCH", "COMPLETE", "PATCH", "REMUX")
	d.Add(ReleaseInformation, unidentifiableKeyword, "END", "FINAL") // e.g. "The End of Evangelion"

	d.Add(ReleaseVersion, defaultKeyword, "V0", "V1", "V2", "V3", "V4")

	d.Add(Source, defaultKeyword,
		"BD", "BDRIP", "BLURAY", "BLU-RAY",
		"DVD", "DVD5", "DVD9", "DVD-R2J", "DVDRIP", "DVD-RIP",
		"R2DVD", "R2J", "R2JDVD", "R2JDVDRIP",
		"HDTV", "HDTVRIP", "TVRIP", "TV-RIP",
		"WEBCAST", "WEBRIP")

	d.Add(Subtitles, defaultKeyword,
		"ASS", "BIG5", "DUB", "DUBBED", "HARDSUB", "HARDSUBS", "RAW",
		"SOFTSUB", "SOFTSUBS", "SUB", "SUBBED", "SUBTITLED")

	d.Add(VideoTerm, defaultKeyword,
		// Frame rate
		"23.976FPS", "24FPS", "29.97FPS", "30FPS", "60FPS", "120FPS",
		// Video codec
		"8BIT", "8-BIT", "10BIT", "10BITS", "10-BIT", "10-BITS",
		"HI10", "HI10P", "HI444", "HI444P", "HI444PP",
		"H264", "H265", "H.264", "H.265", "X264", "X265", "X.264",
		"AVC", "HEVC", "HEVC2", "DIVX", "DIVX5", "DIVX6", "XVID",
		"AV1",
		// Video format
		"AVI", "RMVB", "WMV", "WMV3", "WMV9",
		// Video quality
		"HQ", "LQ",
		// Video resolution
		"HD", "SD")

	d.Add(VolumePrefix, defaultKeyword, "VOL", "VOL.", "VOLUME")

	return d
}

// preidentified keywords are matched verbatim inside raw text before it is
// split, so delimiters inside them ("H.264", "Dual Audio") do not break
// them apart.
var preidentified = []struct {
	category Category
	keywords []string
}{
	{AudioTerm, []string{"Dual Audio"}},
	{VideoTerm, []string{"H264", "H.264", "h264", "h.264"}},
	{VideoResolution, []string{"480p", "720p", "1080p"}},
	{Source, []string{"Blu-Ray"}},
}
