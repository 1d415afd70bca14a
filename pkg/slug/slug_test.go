package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Café Münchën!!":      "cafe-munchen",
		"  Hello   World  ":   "hello-world",
		"Straße & Smørrebrød": "strasse-smorrebrod",
		"Łódź--Œuvre":         "lodz-oeuvre",
		"---":                 "file",
		"":                    "file",
		"日本語":                 "file",
		"IMG_2024.05":         "img-2024-05",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), "Make(%q)", in)
	}
}

func TestMakeIsCleanAndBounded(t *testing.T) {
	clean := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	long := strings.Repeat("ab ", 80)
	for _, in := range []string{"Café Münchën!!", long, "x-" + strings.Repeat("y", 98) + "-z"} {
		got := Make(in)
		assert.LessOrEqual(t, len(got), MaxLength)
		assert.Regexp(t, clean, got)
		assert.Equal(t, got, Make(in), "slugs must be deterministic")
	}
}

func TestFromFilenameAndExtension(t *testing.T) {
	assert.Equal(t, "holiday-photo", FromFilename("uploads/Holiday Photo.JPG"))
	assert.Equal(t, "jpg", Extension("Holiday Photo.JPG"))
	assert.Equal(t, "bin", Extension("README"))
	assert.Equal(t, "bin", Extension("weird.tar-gz"))
}

func TestSEORoundTrip(t *testing.T) {
	name := SEOFilename("cafe-munchen", "AbCdEfGh12345678", "png")
	assert.Equal(t, "cafe-munchen-AbCdEfGh12345678.png", name)
	assert.Equal(t, "/media/p/cafe-munchen-AbCdEfGh12345678/png", SEOURLPath("cafe-munchen", "AbCdEfGh12345678", "png"))
	assert.Equal(t, "/media/p/cafe-munchen-AbCdEfGh12345678.png", SEOURLPathWithExtension("cafe-munchen", "AbCdEfGh12345678", "png"))

	slug, token, ext, ok := ParseSEOFilename(name)
	require.True(t, ok)
	assert.Equal(t, "cafe-munchen", slug)
	assert.Equal(t, "AbCdEfGh12345678", token)
	assert.Equal(t, "png", ext)

	_, token, _, ok = ParseSEOFilename("file-" + FallbackToken() + ".bin")
	require.True(t, ok)
	assert.Len(t, token, 32)

	for _, bad := range []string{"bad-format.png", "no-extension-AbCdEfGh12345678", "AbCdEfGh12345678.png", ""} {
		_, _, _, ok := ParseSEOFilename(bad)
		assert.False(t, ok, "ParseSEOFilename(%q)", bad)
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"photos": true, "photos-1": true}
	got, err := Unique("photos", func(c string) (bool, error) { return taken[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "photos-2", got)

	boom := errors.New("db down")
	_, err = Unique("photos", func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestRandomToken(t *testing.T) {
	alnum := regexp.MustCompile(`^[A-Za-z0-9]{16}$`)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := RandomToken(TokenLength)
		require.NoError(t, err)
		require.Regexp(t, alnum, tok)
		require.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

func TestUniqueTokenFallsBackAfterCollisions(t *testing.T) {
	calls := 0
	tok, err := UniqueToken(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, MaxTokenAttempts, calls)
	assert.Regexp(t, `^[0-9a-f]{32}$`, tok)

	tok, err = UniqueToken(context.Background(), func(context.Context, string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Len(t, tok, TokenLength)
}
