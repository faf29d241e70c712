package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"

	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	// MaxCoverSize is the longest edge, in pixels, of embedded and saved artwork.
	MaxCoverSize = 1000

	coverQuality  = 90
	maxCoverBytes = 20 << 20
)

// CoverFetcher downloads cover art and scales it down to [MaxCoverSize].
type CoverFetcher struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewCoverFetcher creates a fetcher whose requests time out after timeout (10s when zero).
func NewCoverFetcher(timeout time.Duration, logger *log.Logger) *CoverFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CoverFetcher{httpClient: &http.Client{Timeout: timeout}, logger: logger}
}

// Fetch downloads the image at url and returns JPEG bytes.
//
// Transport failures wrap [shared.ErrCoverFailed]. An image that cannot be decoded is returned as
// downloaded.
func (c *CoverFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: no cover url", shared.ErrCoverFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCoverFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCoverFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", shared.ErrCoverFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCoverFailed, err)
	}

	out, err := ResizeCover(raw, MaxCoverSize)
	if err != nil {
		c.logger.Warn("cover resize failed, embedding original", "url", url, "error", err)
		return raw, nil
	}

	c.logger.Debug("fetched cover", "url", url,
		"original", humanize.Bytes(uint64(len(raw))), "resized", humanize.Bytes(uint64(len(out))))
	return out, nil
}

// ResizeCover decodes data and re-encodes it as JPEG with the longest edge at most maxEdge.
// Smaller images keep their dimensions.
func ResizeCover(data []byte, maxEdge int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxEdge)

	var src image.Image = img
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitWithin(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	if width >= height {
		return maxEdge, max(1, height*maxEdge/width)
	}
	return max(1, width*maxEdge/height), maxEdge
}
