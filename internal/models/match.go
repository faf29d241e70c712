package models

// CandidateResult is one search hit from the media index.
type CandidateResult struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album,omitempty"`
	Duration int      `json:"duration"`
	Locator  string   `json:"locator"`
}

// ScoreBreakdown is the itemized result of scoring a candidate against a catalog track.
type ScoreBreakdown struct {
	Duration  float64 `json:"duration"`
	Artist    float64 `json:"artist"`
	Title     float64 `json:"title"`
	Album     float64 `json:"album"`
	Total     float64 `json:"total"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
}
