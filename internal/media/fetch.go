package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	defaultYtDlpBinary  = "yt-dlp"
	defaultFetchTimeout = 10 * time.Minute
	fetchUserAgent      = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36"
	fetchReferer        = "https://music.youtube.com/"

	// stderrTail bounds how much yt-dlp output is folded into an error.
	stderrTail = 512
)

// YtDlpOptions configures [NewYtDlp].
type YtDlpOptions struct {
	Binary      string
	CookiesPath string
	Timeout     time.Duration
	Logger      *log.Logger
}

// YtDlp fetches audio by shelling out to yt-dlp.
type YtDlp struct {
	binary  string
	cookies string
	timeout time.Duration
	logger  *log.Logger
}

// NewYtDlp creates a fetcher. Zero options fall back to "yt-dlp" on PATH and a ten minute timeout.
func NewYtDlp(opts YtDlpOptions) *YtDlp {
	if opts.Binary == "" {
		opts.Binary = defaultYtDlpBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &YtDlp{binary: opts.Binary, cookies: opts.CookiesPath, timeout: opts.Timeout, logger: opts.Logger}
}

// Args builds the yt-dlp argument list that writes locator to path.
//
// yt-dlp picks the extension itself, so the template replaces the extension of path with %(ext)s.
func (y *YtDlp) Args(locator, path string, format models.AudioFormat, bitrate models.Bitrate) []string {
	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", format.Ext(),
		"--audio-quality", bitrate.String(),
		"-o", outputTemplate(path),
		"--no-playlist",
		"--no-progress",
		"--retries", "5",
		"--fragment-retries", "5",
		"--extractor-args", "youtube:player_client=android",
		"--user-agent", fetchUserAgent,
		"--referer", fetchReferer,
	}
	if y.cookies != "" {
		args = append(args, "--cookies", y.cookies)
	}
	return append(args, locator)
}

// Fetch downloads candidate into path. Every failure wraps [shared.ErrFetchFailed].
func (y *YtDlp) Fetch(ctx context.Context, candidate models.CandidateResult, path string, format models.AudioFormat, bitrate models.Bitrate) error {
	if candidate.Locator == "" {
		return fmt.Errorf("%w: candidate %q has no locator", shared.ErrFetchFailed, candidate.ID)
	}

	bin, err := exec.LookPath(y.binary)
	if err != nil {
		return fmt.Errorf("%w: %w: %s", shared.ErrFetchFailed, shared.ErrToolNotFound, y.binary)
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	args := y.Args(candidate.Locator, path, format, bitrate)
	y.logger.Debug("running yt-dlp", "locator", candidate.Locator, "path", path)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %s", shared.ErrFetchFailed, y.timeout)
		}
		return fmt.Errorf("%w: %v: %s", shared.ErrFetchFailed, err, tail(out.String(), stderrTail))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: yt-dlp produced no file at %s", shared.ErrFetchFailed, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: yt-dlp produced an empty file at %s", shared.ErrFetchFailed, path)
	}

	y.logger.Debug("fetched audio", "path", path, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func outputTemplate(path string) string {
	ext := strings.LastIndex(path, ".")
	sep := strings.LastIndexAny(path, `/\`)
	if ext > sep {
		path = path[:ext]
	}
	return path + ".%(ext)s"
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
