// Package matcher decides whether a media index candidate is the same song as a catalog track.
//
// [Normalize] canonicalizes free text for comparison. [Explain] computes four independent
// sub-scores (duration, artist overlap, title similarity, album bonus), sums them and compares
// the total against a threshold. [Score] collapses that breakdown to a single number where 0
// means rejected.
//
// Weights:
//
//	duration  1.0 when |Δ| ≤ 2s, else max(0, 1-|Δ|/5) × 0.3
//	artist    overlap × 0.3, +0.1 when the primary artist is credited
//	title     LCS ratio × 0.3, halved first when token overlap < 0.3
//	album     +0.1 when the catalog album is contained in the candidate album
//
// A title sub-score below 0.1 caps the total at 0.5. The threshold is 0.7 in strict mode and
// 0.6 otherwise. Totals are not clamped to 1.0.
package matcher
