// Package media turns a chosen candidate into a tagged audio file on disk.
//
// [YtDlp] fetches the audio stream, [Tagger] writes catalog metadata and cover art into it, and
// [CoverFetcher] downloads and downsizes artwork. The external binaries (yt-dlp, ffmpeg) are
// located through PATH unless configured explicitly.
package media
