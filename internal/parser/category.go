package parser

import "fmt"

// Category tags a parsed element.
type Category int

const (
	Unknown Category = iota
	AnimeSeason
	AnimeSeasonPrefix
	AnimeTitle
	AnimeType
	AnimeYear
	AudioTerm
	DeviceCompatibility
	EpisodeNumber
	EpisodeNumberAlt
	EpisodePrefix
	EpisodeTitle
	FileChecksum
	FileExtension
	FileName
	Language
	Other
	ReleaseGroup
	ReleaseInformation
	ReleaseVersion
	Source
	Subtitles
	VideoResolution
	VideoTerm
	VolumeNumber
	VolumePrefix
)

var categoryNames = [...]string{
	Unknown:             "unknown",
	AnimeSeason:         "anime_season",
	AnimeSeasonPrefix:   "anime_season_prefix",
	AnimeTitle:          "anime_title",
	AnimeType:           "anime_type",
	AnimeYear:           "anime_year",
	AudioTerm:           "audio_term",
	DeviceCompatibility: "device_compatibility",
	EpisodeNumber:       "episode_number",
	EpisodeNumberAlt:    "episode_number_alt",
	EpisodePrefix:       "episode_prefix",
	EpisodeTitle:        "episode_title",
	FileChecksum:        "file_checksum",
	FileExtension:       "file_extension",
	FileName:            "file_name",
	Language:            "language",
	Other:               "other",
	ReleaseGroup:        "release_group",
	ReleaseInformation:  "release_information",
	ReleaseVersion:      "release_version",
	Source:              "source",
	Subtitles:           "subtitles",
	VideoResolution:     "video_resolution",
	VideoTerm:           "video_term",
	VolumeNumber:        "volume_number",
	VolumePrefix:        "volume_prefix",
}

// Categories returns every category except Unknown, in declaration order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames)-1)
	for c := AnimeSeason; c <= VolumePrefix; c++ {
		out = append(out, c)
	}
	return out
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps a snake_case name back to its Category.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown category %q", name)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// searchable reports whether the keyword pass may record this category.
func (c Category) searchable() bool {
	switch c {
	case AnimeSeasonPrefix, AnimeType, AudioTerm, DeviceCompatibility,
		EpisodePrefix, FileChecksum, Language, Other, ReleaseGroup,
		ReleaseInformation, ReleaseVersion, Source, Subtitles,
		VideoResolution, VideoTerm, VolumePrefix:
		return true
	}
	return false
}

// singular categories hold at most one value per parse.
func (c Category) singular() bool {
	switch c {
	case AnimeSeason, AnimeType, AudioTerm, DeviceCompatibility,
		EpisodeNumber, Language, Other, ReleaseInformation, Source, VideoTerm:
		return false
	}
	return true
}
