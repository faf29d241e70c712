package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/charmbracelet/log"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const defaultFFmpegBinary = "ffmpeg"

// Tagger writes catalog metadata and cover art into downloaded audio files.
//
// MP3 and FLAC files are edited in place. M4A and Opus files are remuxed through ffmpeg.
type Tagger struct {
	ffmpeg string
	logger *log.Logger
}

// NewTagger creates a tagger. An empty ffmpegPath resolves "ffmpeg" on PATH.
func NewTagger(ffmpegPath string, logger *log.Logger) *Tagger {
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpegBinary
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Tagger{ffmpeg: ffmpegPath, logger: logger}
}

// Write tags the file at path with track. cover may be nil.
// Every failure wraps [shared.ErrTaggingFailed].
func (t *Tagger) Write(ctx context.Context, path string, track models.CatalogTrack, cover []byte) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		err = t.writeID3(path, track, cover)
	case ".flac":
		err = t.writeFLAC(path, track, cover)
	case ".m4a":
		err = t.remux(ctx, path, track, cover)
	case ".opus":
		// ffmpeg cannot mux an attached picture into ogg.
		err = t.remux(ctx, path, track, nil)
	default:
		err = fmt.Errorf("%w: %s", shared.ErrUnsupportedExt, ext)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTaggingFailed, err)
	}
	return nil
}

// EmbedLyrics stores text as an unsynchronised lyrics frame (MP3) or a LYRICS comment (FLAC).
// Other containers are left alone.
func (t *Tagger) EmbedLyrics(_ context.Context, path, text string) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		err = embedID3Lyrics(path, text)
	case ".flac":
		err = embedFLACLyrics(path, text)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTaggingFailed, err)
	}
	return nil
}

func (t *Tagger) writeID3(path string, track models.CatalogTrack, cover []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetTitle(track.Title)
	tag.SetArtist(track.ArtistString())
	tag.SetAlbum(track.Album)
	if len(track.Genres) > 0 {
		tag.SetGenre(strings.Join(track.Genres, ", "))
	}
	if year := track.Year(); year != "" {
		tag.SetYear(year)
	}
	setTextFrame(tag, "TPE2", track.AlbumArtist())
	setTextFrame(tag, "TRCK", position(track.TrackNumber, track.TotalTracks))
	setTextFrame(tag, "TPOS", position(track.DiscNumber, 0))

	if track.URI != "" {
		tag.DeleteFrames(tag.CommonID("Comments"))
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "source",
			Text:        track.URI,
		})
	}

	if len(cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    http.DetectContentType(cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     cover,
		})
	}

	return tag.Save()
}

func setTextFrame(tag *id3v2.Tag, id, value string) {
	tag.DeleteFrames(id)
	if value != "" {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
}

func embedID3Lyrics(path, text string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.DeleteFrames(tag.CommonID("Unsynchronised lyrics/text transcription"))
	tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          "eng",
		ContentDescriptor: "",
		Lyrics:            text,
	})
	return tag.Save()
}

func (t *Tagger) writeFLAC(path string, track models.CatalogTrack, cover []byte) error {
	f, err := parseFLAC(path)
	if err != nil {
		return err
	}

	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	comment := flacvorbis.New()
	addField(comment, flacvorbis.FIELD_TITLE, track.Title)
	for _, artist := range track.Artists {
		addField(comment, flacvorbis.FIELD_ARTIST, artist)
	}
	addField(comment, flacvorbis.FIELD_ALBUM, track.Album)
	addField(comment, "ALBUMARTIST", track.AlbumArtist())
	addField(comment, flacvorbis.FIELD_DATE, track.ReleaseDate)
	for _, genre := range track.Genres {
		addField(comment, flacvorbis.FIELD_GENRE, genre)
	}
	if track.TrackNumber > 0 {
		addField(comment, flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(track.TrackNumber))
	}
	if track.TotalTracks > 0 {
		addField(comment, "TRACKTOTAL", strconv.Itoa(track.TotalTracks))
	}
	if track.DiscNumber > 0 {
		addField(comment, "DISCNUMBER", strconv.Itoa(track.DiscNumber))
	}
	addField(comment, "COMMENT", track.URI)

	block := comment.Marshal()
	f.Meta = append(f.Meta, &block)

	if len(cover) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", cover, http.DetectContentType(cover))
		if err != nil {
			return fmt.Errorf("failed to create picture block: %w", err)
		}
		pictureBlock := picture.Marshal()
		f.Meta = append(f.Meta, &pictureBlock)
	}

	return f.Save(path)
}

func embedFLACLyrics(path, text string) error {
	f, err := parseFLAC(path)
	if err != nil {
		return err
	}

	comment := flacvorbis.New()
	idx := -1
	for i, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			if comment, err = flacvorbis.ParseFromMetaDataBlock(*block); err != nil {
				return err
			}
			idx = i
			break
		}
	}

	addField(comment, "LYRICS", text)
	block := comment.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}
	return f.Save(path)
}

// parseFLAC reads the metadata blocks and frame data of path. A stream that ends after its
// metadata, or whose frames lack the sync code, is an error rather than a parser panic.
func parseFLAC(path string) (*flac.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}
	defer r.Close()

	f, err := flac.ParseMetadata(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FLAC file: %w", err)
	}
	frames, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read FLAC frames: %w", err)
	}
	if len(frames) < 2 || frames[0] != 0xFF || frames[1]>>2 != 0x3E {
		return nil, fmt.Errorf("failed to parse FLAC file: %w", flac.ErrorNoSyncCode)
	}
	f.Frames = frames
	return f, nil
}

func addField(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value != "" {
		_ = comment.Add(field, value)
	}
}

// remux rewrites path through ffmpeg with stream copy, adding metadata keys and an optional cover.
func (t *Tagger) remux(ctx context.Context, path string, track models.CatalogTrack, cover []byte) error {
	bin, err := exec.LookPath(t.ffmpeg)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrToolNotFound, t.ffmpeg)
	}

	dir, base := filepath.Split(path)
	tmp := filepath.Join(dir, ".tagging-"+base)
	defer os.Remove(tmp)

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", path}
	if len(cover) > 0 {
		coverPath := filepath.Join(dir, ".cover-"+strings.TrimSuffix(base, filepath.Ext(base))+".jpg")
		if err := os.WriteFile(coverPath, cover, 0o644); err != nil {
			return err
		}
		defer os.Remove(coverPath)
		args = append(args, "-i", coverPath, "-map", "0:a", "-map", "1:v", "-disposition:v:0", "attached_pic")
	} else {
		args = append(args, "-map", "0:a")
	}
	args = append(args, "-c", "copy")
	args = append(args, MetadataArgs(track)...)
	args = append(args, tmp)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, tail(out.String(), stderrTail))
	}

	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	t.logger.Debug("remuxed tags", "path", path)
	return nil
}

// MetadataArgs returns the ffmpeg -metadata flags for track, skipping empty values.
func MetadataArgs(track models.CatalogTrack) []string {
	pairs := [][2]string{
		{"title", track.Title},
		{"artist", track.ArtistString()},
		{"album", track.Album},
		{"album_artist", track.AlbumArtist()},
		{"date", track.ReleaseDate},
		{"genre", strings.Join(track.Genres, ", ")},
		{"track", position(track.TrackNumber, track.TotalTracks)},
		{"disc", position(track.DiscNumber, 0)},
		{"comment", track.URI},
	}

	var args []string
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		args = append(args, "-metadata", kv[0]+"="+kv[1])
	}
	return args
}

// position formats n or n/total; zero n yields "".
func position(n, total int) string {
	switch {
	case n <= 0:
		return ""
	case total > 0:
		return fmt.Sprintf("%d/%d", n, total)
	default:
		return strconv.Itoa(n)
	}
}
