package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AudioFormat is the target encoding handed to the fetch mechanism.
type AudioFormat string

const (
	FormatM4A  AudioFormat = "m4a"
	FormatMP3  AudioFormat = "mp3"
	FormatOpus AudioFormat = "opus"
	FormatFLAC AudioFormat = "flac"
)

// AudioFormats lists the supported encodings.
var AudioFormats = []AudioFormat{FormatM4A, FormatMP3, FormatOpus, FormatFLAC}

// Ext returns the file extension without the dot.
func (f AudioFormat) Ext() string { return string(f) }

// ParseAudioFormat accepts a case-insensitive format name; "" yields m4a.
func ParseAudioFormat(s string) (AudioFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatM4A, nil
	}
	for _, f := range AudioFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported audio format %q", s)
}

// Bitrate is the target bitrate in kbps.
type Bitrate int

const (
	Bitrate96  Bitrate = 96
	Bitrate128 Bitrate = 128
	Bitrate192 Bitrate = 192
	Bitrate256 Bitrate = 256
)

// Bitrates lists the supported bitrates.
var Bitrates = []Bitrate{Bitrate96, Bitrate128, Bitrate192, Bitrate256}

// String formats the bitrate the way yt-dlp expects it for --audio-quality.
func (b Bitrate) String() string { return strconv.Itoa(int(b)) + "K" }

// ParseBitrate accepts 96, 128, 192 or 256; 0 yields 128.
func ParseBitrate(v int) (Bitrate, error) {
	if v == 0 {
		return Bitrate128, nil
	}
	for _, b := range Bitrates {
		if int(b) == v {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unsupported bitrate %d", v)
}

// AcquisitionOptions configures one track acquisition.
type AcquisitionOptions struct {
	Format              AudioFormat
	Bitrate             Bitrate
	AlbumArtistOverride string
	FetchLyrics         bool
}

// DefaultAcquisitionOptions returns m4a at 128 kbps without lyrics.
func DefaultAcquisitionOptions() AcquisitionOptions {
	return AcquisitionOptions{Format: FormatM4A, Bitrate: Bitrate128}
}

// OutcomeStatus classifies an acquisition for reporting and history.
type OutcomeStatus string

const (
	StatusOK      OutcomeStatus = "ok"
	StatusNoMatch OutcomeStatus = "no_match"
	StatusFailed  OutcomeStatus = "failed"
)

// AcquisitionOutcome is the per-track result of an acquisition.
//
// Path and Track are set only when OK is true. Err carries the classified failure otherwise.
type AcquisitionOutcome struct {
	Path   string
	Track  *CatalogTrack
	OK     bool
	Status OutcomeStatus
	Err    error
}
