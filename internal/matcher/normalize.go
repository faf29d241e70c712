package matcher

import "strings"

var (
	removedSubstrings = []string{"official", "video"}
	strippedChars     = strings.NewReplacer("(", "", ")", "", "[", "", "]", "", "-", "")
	droppedWords      = map[string]struct{}{"lyrics": {}, "audio": {}}
)

// Normalize lowercases text, removes "official" and "video" anywhere they appear, strips
// the characters ()[]- and drops the standalone words "lyrics" and "audio".
//
// The result has single spaces between words and no leading or trailing space.
// It is only used as scoring input.
func Normalize(text string) string {
	text = strings.ToLower(text)
	for _, s := range removedSubstrings {
		text = strings.ReplaceAll(text, s, "")
	}
	text = strippedChars.Replace(text)

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, drop := droppedWords[w]; drop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
