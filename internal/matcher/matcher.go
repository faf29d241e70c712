package matcher

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	DurationTolerance  = 2
	DurationWindow     = 5.0
	DurationWeight     = 0.3
	ArtistWeight       = 0.3
	PrimaryArtistBonus = 0.1
	TitleWeight        = 0.3
	AlbumBonus         = 0.1

	// TitleFloor is the title sub-score under which the total is capped at TitleCap.
	TitleFloor = 0.1
	TitleCap   = 0.5

	// MinTokenOverlap is the token overlap under which title similarity is halved.
	MinTokenOverlap = 0.3

	StrictThreshold  = 0.7
	DefaultThreshold = 0.6
)

// similarity is swapped in tests to exercise fault handling.
var similarity = lcsRatio

// Threshold returns the acceptance threshold for the given strictness.
func Threshold(strict bool) float64 {
	if strict {
		return StrictThreshold
	}
	return DefaultThreshold
}

// Score returns the candidate's total when it meets the threshold and 0 otherwise.
//
// A zero return means rejected. Faults inside scoring are also reported as 0.
func Score(c models.CandidateResult, t models.CatalogTrack, strict bool) float64 {
	b, err := Explain(c, t, strict)
	if err != nil || !b.Passed {
		return 0
	}
	return b.Total
}

// Explain performs the same computation as [Score] and returns the itemized result.
//
// A fault during scoring returns a zero breakdown carrying the threshold, with an error
// wrapping [shared.ErrScoringFault].
func Explain(c models.CandidateResult, t models.CatalogTrack, strict bool) (b models.ScoreBreakdown, err error) {
	threshold := Threshold(strict)
	defer func() {
		if r := recover(); r != nil {
			b = models.ScoreBreakdown{Threshold: threshold}
			err = fmt.Errorf("%w: %v", shared.ErrScoringFault, r)
		}
	}()

	b = models.ScoreBreakdown{
		Duration:  DurationScore(c.Duration, t.Duration),
		Artist:    ArtistScore(c.Artists, t.Artists),
		Title:     TitleScore(c.Title, t.Title),
		Album:     AlbumScore(c.Album, t.Album),
		Threshold: threshold,
	}
	b.Total = b.Duration + b.Artist + b.Title + b.Album
	if b.Title < TitleFloor {
		b.Total = math.Min(b.Total, TitleCap)
	}
	b.Passed = b.Total >= threshold
	return b, nil
}

// DurationScore gives full credit (1.0) within two seconds and decays linearly to 0 at five.
//
// The jump from 1.0 to 0.18 just past the tolerance is intended.
func DurationScore(candidate, catalog int) float64 {
	d := candidate - catalog
	if d < 0 {
		d = -d
	}
	if d <= DurationTolerance {
		return 1.0
	}
	return math.Max(0, 1-float64(d)/DurationWindow) * DurationWeight
}

// ArtistScore weighs the share of catalog artists credited on the candidate and adds a bonus
// when the catalog's primary artist is among them.
func ArtistScore(candidate, catalog []string) float64 {
	candidateSet := lowerSet(candidate)
	catalogSet := lowerSet(catalog)

	common := 0
	for name := range catalogSet {
		if _, ok := candidateSet[name]; ok {
			common++
		}
	}

	score := float64(common) / float64(max(len(catalogSet), 1)) * ArtistWeight
	if len(catalog) > 0 {
		if _, ok := candidateSet[strings.ToLower(catalog[0])]; ok {
			score += PrimaryArtistBonus
		}
	}
	return score
}

// TitleScore compares normalized titles by LCS ratio, halving it when the candidate shares
// less than 30% of the catalog title's words.
func TitleScore(candidate, catalog string) float64 {
	a := Normalize(candidate)
	b := Normalize(catalog)
	sim := similarity(a, b)

	if TokenOverlap(a, b) < MinTokenOverlap {
		sim *= 0.5
	}
	return sim * TitleWeight
}

// TokenOverlap is the share of the catalog title's distinct words found in the candidate title.
func TokenOverlap(candidate, catalog string) float64 {
	candidateTokens := tokenSet(candidate)
	catalogTokens := tokenSet(catalog)

	common := 0
	for w := range catalogTokens {
		if _, ok := candidateTokens[w]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(catalogTokens), 1))
}

// AlbumScore returns the album bonus when both albums are known and the catalog album is
// contained in the candidate album, ignoring case.
func AlbumScore(candidate, catalog string) float64 {
	if candidate == "" || catalog == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(candidate), strings.ToLower(catalog)) {
		return AlbumBonus
	}
	return 0
}

// lcsRatio is 2·LCS/(|a|+|b|) over runes. Two empty strings are identical.
func lcsRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(total)
}

func lowerSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}
