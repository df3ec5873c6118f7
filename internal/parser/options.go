package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid parser options")

// DefaultDelimiters are the characters that split free text by default.
const DefaultDelimiters = " _.&+,|"

// Options controls a single parse. It is a value: setters return a
// modified copy and never share the IgnoredStrings backing array.
type Options struct {
	AllowedDelimiters  string   `json:"allowed_delimiters"`
	IgnoredStrings     []string `json:"ignored_strings"`
	ParseEpisodeNumber bool     `json:"parse_episode_number"`
	ParseEpisodeTitle  bool     `json:"parse_episode_title"`
	ParseFileExtension bool     `json:"parse_file_extension"`
	ParseReleaseGroup  bool     `json:"parse_release_group"`
}

func DefaultOptions() Options {
	return Options{
		AllowedDelimiters:  DefaultDelimiters,
		ParseEpisodeNumber: true,
		ParseEpisodeTitle:  true,
		ParseFileExtension: true,
		ParseReleaseGroup:  true,
	}
}

// Clone returns a deep copy.
func (o Options) Clone() Options {
	if o.IgnoredStrings != nil {
		o.IgnoredStrings = append([]string(nil), o.IgnoredStrings...)
	}
	return o
}

func (o Options) WithAllowedDelimiters(delimiters string) Options {
	o = o.Clone()
	o.AllowedDelimiters = delimiters
	return o
}

func (o Options) WithIgnoredStrings(ignored ...string) Options {
	o.IgnoredStrings = append([]string(nil), ignored...)
	return o
}

func (o Options) WithParseEpisodeNumber(enabled bool) Options {
	o = o.Clone()
	o.ParseEpisodeNumber = enabled
	return o
}

func (o Options) WithParseEpisodeTitle(enabled bool) Options {
	o = o.Clone()
	o.ParseEpisodeTitle = enabled
	return o
}

func (o Options) WithParseFileExtension(enabled bool) Options {
	o = o.Clone()
	o.ParseFileExtension = enabled
	return o
}

func (o Options) WithParseReleaseGroup(enabled bool) Options {
	o = o.Clone()
	o.ParseReleaseGroup = enabled
	return o
}

// Validate rejects values the engine cannot represent. Callers at the
// boundary (config, flags, HTTP) check options before parsing.
func (o Options) Validate() error {
	if strings.ContainsRune(o.AllowedDelimiters, 0) {
		return fmt.Errorf("%w: delimiters contain NUL", ErrInvalidOptions)
	}
	for i, s := range o.IgnoredStrings {
		if strings.ContainsRune(s, 0) {
			return fmt.Errorf("%w: ignored string %d contains NUL", ErrInvalidOptions, i)
		}
	}
	return nil
}

func (o Options) isDelimiter(r rune) bool {
	return !isAlphanumeric(r) && strings.ContainsRune(o.AllowedDelimiters, r)
}
