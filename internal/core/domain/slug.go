package domain

import "strings"

// Slugify converts a book title to a URL-safe slug: lowercase letters,
// digits and hyphens are kept, spaces become hyphens, everything else is
// dropped.
//
// Example:
//
//	Slugify("The Midnight Library")  // "the-midnight-library"
//	Slugify("Go, Dog. Go!")          // "go-dog-go"
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
