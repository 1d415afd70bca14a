// Package slug builds SEO slugs, filenames and URL paths for media assets.
package slug

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength caps slugs derived from filenames.
	MaxLength = 100
	// Fallback is used when a name has no ASCII alphanumerics left.
	Fallback = "file"
	// DefaultExtension is used for files without an extension.
	DefaultExtension = "bin"

	// SEOPrefix is the route prefix of SEO URLs.
	SEOPrefix = "/media/p/"
)

// Letters that NFD decomposition leaves alone.
var transliterations = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o",
	"œ", "oe", "Œ", "oe",
	"ł", "l", "Ł", "l",
	"đ", "d", "Đ", "d",
	"ð", "d", "Ð", "d",
	"þ", "th", "Þ", "th",
	"ı", "i",
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	// {slug}-{token}.{ext} anchored at the end; the token is 16 to 32 alphanumerics.
	seoFilenamePattern = regexp.MustCompile(`^(.+)-([A-Za-z0-9]{16,32})\.([A-Za-z0-9]+)$`)
)

// Make turns a display name into a lowercase ASCII slug with single hyphens.
func Make(name string) string {
	s := transliterations.Replace(name)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	if s == "" {
		return Fallback
	}
	return s
}

// FromFilename slugifies a filename without its extension.
func FromFilename(filename string) string {
	base := filepath.Base(filename)
	return Make(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Extension returns the lowercase extension of filename without the dot.
func Extension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !isAlnum(ext) {
		return DefaultExtension
	}
	return ext
}

// SEOFilename returns {slug}-{token}.{ext}.
func SEOFilename(slug, token, ext string) string {
	return fmt.Sprintf("%s-%s.%s", slug, token, ext)
}

// SEOURLPath returns /media/p/{slug}-{token}/{ext}. The extension is a path
// segment so static-file rules in front of the app do not catch the route.
func SEOURLPath(slug, token, ext string) string {
	return fmt.Sprintf("%s%s-%s/%s", SEOPrefix, slug, token, ext)
}

// SEOURLPathWithExtension returns /media/p/{slug}-{token}.{ext}.
func SEOURLPathWithExtension(slug, token, ext string) string {
	return SEOPrefix + SEOFilename(slug, token, ext)
}

// ParseSEOFilename extracts slug, token and extension. ok is false when the
// input does not end in a well-formed token and extension.
func ParseSEOFilename(seoFilename string) (slug, token, ext string, ok bool) {
	m := seoFilenamePattern.FindStringSubmatch(seoFilename)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// Unique probes base, base-1, base-2, ... until exists reports false.
func Unique(base string, exists func(candidate string) (bool, error)) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
