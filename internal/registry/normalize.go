package registry

import "strings"

// orgPrefixes are stripped from the front of an id before dedup, per
// spec.md §4.2 step 2.
var orgPrefixes = []string{
	"models/", "meta-llama/", "mistralai/", "google/", "qwen/",
	"openai/", "anthropic/", "black-forest-labs/", "stabilityai/", "nousresearch/",
}

// trailingTokens are stripped from the end of an id before dedup, per
// spec.md §4.2 step 4.
var trailingTokens = []string{"instruct", "chat", "it", "latest", "preview", "experimental"}

// Normalize implements spec.md §4.2's normalize(id): lowercase, strip a
// known org prefix, strip non-alphanumerics, strip a trailing marker
// token. It is used only for dedup equivalence, never for display.
func Normalize(id string) string {
	s := strings.ToLower(strings.TrimSpace(id))
	for _, prefix := range orgPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = stripNonAlphanumeric(s)
	for _, tok := range trailingTokens {
		if strings.HasSuffix(s, tok) {
			s = strings.TrimSuffix(s, tok)
			break
		}
	}
	return s
}

func stripNonAlphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
