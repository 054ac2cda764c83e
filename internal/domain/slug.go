package domain

import "strings"

// TitleToSlug converts a human-readable title into its URL-safe slug: leading
// and trailing whitespace is trimmed and each internal whitespace run becomes
// a single underscore. All other characters are preserved, so slugs stay
// injective enough for SlugToTitle to recover word boundaries.
func TitleToSlug(title string) string {
	return strings.Join(strings.Fields(title), "_")
}

// SlugToTitle reverses TitleToSlug: underscores become spaces and each word is
// title-cased (upper first letter, lower remainder). The title-casing variant
// is deliberate; it makes the conversion idempotent after one pass, which the
// page route relies on to avoid redirect loops.
func SlugToTitle(slug string) string {
	words := strings.Split(slug, "_")
	for i, w := range words {
		words[i] = titleCaseWord(w)
	}
	return strings.Join(words, " ")
}

func titleCaseWord(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	head := strings.ToUpper(string(r[0]))
	if len(r) == 1 {
		return head
	}
	return head + strings.ToLower(string(r[1:]))
}
