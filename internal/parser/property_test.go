package parser

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// filenameRunes biases generated filenames toward the characters the
// tokenizer and number heuristics care about.
var filenameRunes = []rune{
	'a', 'b', 'E', 'p', 'S', 'v', 'x', 'O', 'V', 'A',
	'0', '1', '2', '5', '9',
	' ', '_', '.', '-', '&', '+', ',', '|', '#', '~',
	'[', ']', '(', ')', '{', '}', '「', '」', '【', '】',
	'話', '第', '漆', 'ｍ',
}

func filenameGen() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.StringOf(rapid.SampledFrom(filenameRunes)),
		rapid.SampledFrom([]string{
			toradora,
			"[Group][Black Bullet][11-12][1280x720].mp4",
			"Title - 01 (176) [720p].mkv",
			"Title S01E03v2 OVA2 Vol.3 #4 05話.mkv",
		}),
		rapid.String(),
	)
}

func optionsGen() *rapid.Generator[Options] {
	return rapid.Custom(func(t *rapid.T) Options {
		opts := DefaultOptions()
		if rapid.Bool().Draw(t, "custom_delimiters") {
			opts = opts.WithAllowedDelimiters(rapid.StringOf(rapid.SampledFrom([]rune(" _.&+,|-"))).Draw(t, "delimiters"))
		}
		return opts.
			WithParseEpisodeNumber(rapid.Bool().Draw(t, "episode_number")).
			WithParseEpisodeTitle(rapid.Bool().Draw(t, "episode_title")).
			WithParseFileExtension(rapid.Bool().Draw(t, "file_extension")).
			WithParseReleaseGroup(rapid.Bool().Draw(t, "release_group"))
	})
}

func TestProperty_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		filename := filenameGen().Draw(t, "filename")
		opts := optionsGen().Draw(t, "options")

		ok1, e1 := Parse(filename, opts)
		ok2, e2 := Parse(filename, opts)
		if ok1 != ok2 {
			t.Fatalf("success differs: %v vs %v", ok1, ok2)
		}
		require.Equal(t, e1.All(), e2.All())
	})
}

func TestProperty_FlagsGateCategories(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		filename := filenameGen().Draw(t, "filename")
		opts := optionsGen().Draw(t, "options")

		_, elems := Parse(filename, opts)
		if !opts.ParseEpisodeNumber && elems.Has(EpisodeNumber) {
			t.Fatalf("episode number recorded while disabled: %v", elems.All())
		}
		if !opts.ParseEpisodeTitle && elems.Has(EpisodeTitle) {
			t.Fatalf("episode title recorded while disabled: %v", elems.All())
		}
		if !opts.ParseFileExtension && elems.Has(FileExtension) {
			t.Fatalf("file extension recorded while disabled: %v", elems.All())
		}
		if !opts.ParseReleaseGroup && elems.Has(ReleaseGroup) {
			t.Fatalf("release group recorded while disabled: %v", elems.All())
		}
	})
}

// letters keeps only letters and digits, so an element value can be
// compared with the text it was cut from regardless of delimiters.
func letters(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// assertPartition checks that every element value comes from the filename
// left after removing the ignored strings.
func assertPartition(t require.TestingT, filename string, opts Options, elems *Elements) {
	for _, ignored := range opts.IgnoredStrings {
		if ignored != "" {
			filename = strings.Replace(filename, ignored, "", 1)
		}
	}
	source := letters(filename)
	for _, el := range elems.All() {
		// ordinal words such as "second" become digits
		if el.Category == AnimeSeason && !strings.Contains(source, letters(el.Value)) {
			continue
		}
		require.Contains(t, source, letters(el.Value), "%s %q", el.Category, el.Value)
	}
}

func TestProperty_ElementsComeFromFilename(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		filename := filenameGen().Draw(t, "filename")
		opts := optionsGen().Draw(t, "options")

		_, elems := Parse(filename, opts)
		assertPartition(t, filename, opts, elems)
	})
}

func TestParse_ElementsComeFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		opts     Options
	}{
		{"toradora", toradora, DefaultOptions()},
		{"ignored strings", toradora, DefaultOptions().WithIgnoredStrings("Dragon", "TaigaSubs")},
		{"no delimiters", toradora, DefaultOptions().WithAllowedDelimiters("")},
		{"type and episode", "[Group] Title [OVA2].mkv", DefaultOptions()},
		{"number sign range", "Title #01-02v2", DefaultOptions()},
		{"volume range", "Title Vol 01-02v2.mkv", DefaultOptions()},
		{"ordinal season", "Title 2nd Season - 04", DefaultOptions()},
		{"equivalent numbers", "Detective Conan - 01 (176) [720p].mkv", DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, elems := Parse(tt.filename, tt.opts)
			require.True(t, ok)
			assertPartition(t, tt.filename, tt.opts, elems)
		})
	}
}

func TestProperty_ResultShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		filename := filenameGen().Draw(t, "filename")

		ok, elems := Parse(filename, DefaultOptions())
		if ok != elems.Has(AnimeTitle) {
			t.Fatalf("success %v but title present %v", ok, elems.Has(AnimeTitle))
		}
		if filename == "" && !elems.IsEmpty() {
			t.Fatalf("empty filename produced elements: %v", elems.All())
		}
		for _, el := range elems.All() {
			if el.Value == "" {
				t.Fatalf("empty value for %s", el.Category)
			}
		}
		for _, c := range Categories() {
			var want []string
			for _, el := range elems.All() {
				if el.Category == c {
					want = append(want, el.Value)
				}
			}
			if want == nil {
				want = []string{}
			}
			require.Equal(t, want, elems.GetAll(c))
		}
	})
}

func TestParse_Concurrent(t *testing.T) {
	want, wantElems := Parse(toradora, DefaultOptions())

	done := make(chan []Element)
	for i := 0; i < 8; i++ {
		go func() {
			ok, elems := Parse(toradora, DefaultOptions())
			if ok != want {
				done <- nil
				return
			}
			done <- elems.All()
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, wantElems.All(), <-done)
	}
}
