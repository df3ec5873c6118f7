package parser

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsResolution(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1280x720", true},
		{"1920X1080", true},
		{"1920×1080", true},
		{"720p", true},
		{"1080P", true},
		{"x264", false},
		{"12x720", false},
		{"1280x72", false},
		{"p", false},
		{"10bitp", false},
		{"HEVC", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, isResolution(tt.input))
		})
	}
}

func TestIsCRC32(t *testing.T) {
	assert.True(t, isCRC32("1234ABCD"))
	assert.True(t, isCRC32("deadbeef"))
	assert.False(t, isCRC32("1234ABCG"))
	assert.False(t, isCRC32("1234ABC"))
}

func TestIsMostlyLatin(t *testing.T) {
	assert.True(t, isMostlyLatin("Black Bullet"))
	assert.True(t, isMostlyLatin("Café"))
	assert.False(t, isMostlyLatin("漆黑的子彈"))
	assert.False(t, isMostlyLatin(""))
}

func TestNumberFromOrdinal(t *testing.T) {
	assert.Equal(t, "2", numberFromOrdinal("2nd"))
	assert.Equal(t, "3", numberFromOrdinal("Third"))
	assert.Equal(t, "", numberFromOrdinal("10th"))
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"07.5", 7},
		{"4a", 4},
		{"1899", 1899},
		{"", 0},
		{"v2", 0},
		{"99999999999999999999", math.MaxInt},
		{"99999999999999999999a", math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, leadingInt(tt.input))
		})
	}

	assert.False(t, validEpisodeNumber("99999999999999999999"))
	assert.False(t, validVolumeNumber("99999999999999999999"))
}

func TestOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts := DefaultOptions()
		assert.Equal(t, " _.&+,|", opts.AllowedDelimiters)
		assert.Empty(t, opts.IgnoredStrings)
		assert.True(t, opts.ParseEpisodeNumber)
		assert.True(t, opts.ParseEpisodeTitle)
		assert.True(t, opts.ParseFileExtension)
		assert.True(t, opts.ParseReleaseGroup)
	})

	t.Run("setters copy", func(t *testing.T) {
		base := DefaultOptions().WithIgnoredStrings("a", "b")
		changed := base.WithIgnoredStrings("c")
		changed.IgnoredStrings[0] = "z"

		assert.Equal(t, []string{"a", "b"}, base.IgnoredStrings)

		clone := base.Clone()
		clone.IgnoredStrings[0] = "z"
		assert.Equal(t, "a", base.IgnoredStrings[0])
	})

	t.Run("validate rejects NUL", func(t *testing.T) {
		require.NoError(t, DefaultOptions().Validate())

		err := DefaultOptions().WithAllowedDelimiters(" \x00").Validate()
		assert.True(t, errors.Is(err, ErrInvalidOptions))

		err = DefaultOptions().WithIgnoredStrings("ok", "bad\x00").Validate()
		assert.True(t, errors.Is(err, ErrInvalidOptions))
	})
}

func TestCategory(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Len(t, Categories(), 25)

	_, err := ParseCategory("nope")
	assert.Error(t, err)
}

func TestElements(t *testing.T) {
	e := newElements()
	e.insert(EpisodeNumber, "11")
	e.insert(AnimeTitle, "Black Bullet")
	e.insert(EpisodeNumber, "12")

	assert.Equal(t, 3, e.Len())
	assert.Equal(t, 2, e.Count(EpisodeNumber))
	assert.Equal(t, []string{"11", "12"}, e.GetAll(EpisodeNumber))
	assert.Equal(t, []string{}, e.GetAll(ReleaseGroup))

	v, ok := e.Get(AnimeTitle)
	assert.True(t, ok)
	assert.Equal(t, "Black Bullet", v)

	_, ok = e.At(3)
	assert.False(t, ok)

	all := e.All()
	all[0].Value = "changed"
	first, _ := e.At(0)
	assert.Equal(t, "11", first.Value)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"category":"episode_number","value":"11"},
		{"category":"anime_title","value":"Black Bullet"},
		{"category":"episode_number","value":"12"}
	]`, string(data))

	var nilElems *Elements
	assert.True(t, nilElems.IsEmpty())
	assert.Equal(t, []string{}, nilElems.GetAll(AnimeTitle))
}

func TestDictionary(t *testing.T) {
	d := DefaultDictionary()

	c, opts, ok := d.Lookup("bluray")
	require.True(t, ok)
	assert.Equal(t, Source, c)
	assert.True(t, opts.Identifiable)

	c, _, ok = d.Lookup("ｍｋｖ")
	assert.False(t, ok, "extensions live in their own table")

	// First registration wins.
	d.Add(Language, DefaultKeywordOptions(), "BD")
	c, _, _ = d.Lookup("BD")
	assert.Equal(t, Source, c)

	assert.True(t, d.findIn(FileExtension, newNormalizer().normalize("ｍｋｖ")))
}
