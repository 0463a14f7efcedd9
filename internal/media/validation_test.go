package media

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFolder(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
		err      error
	}{
		{in: "", expected: "works/"},
		{in: "works", expected: "works/"},
		{in: " /works/2024/ ", expected: "works/2024/"},
		{in: "about", expected: "about/"},
		{in: "../etc", err: ErrInvalidFolder},
		{in: "works/../../secret", err: ErrInvalidFolder},
		{in: `works\x`, err: ErrInvalidFolder},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			folder, err := NormalizeFolder(tc.in)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, folder)
		})
	}
}

func TestValidateContentType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/webp", "video/mp4", "video/quicktime"} {
		assert.NoError(t, ValidateContentType(ct), ct)
	}
	for _, ct := range []string{"", "text/html", "application/pdf", "image/svg+xml"} {
		assert.ErrorIs(t, ValidateContentType(ct), ErrContentTypeNotAllowed, ct)
	}
}

func TestObjectKey(t *testing.T) {
	keyRegex := regexp.MustCompile(`^works/[0-9a-f]{32}\.jpg$`)
	k1 := ObjectKey("works/", "Photo.JPG")
	k2 := ObjectKey("works/", "Photo.JPG")
	assert.Regexp(t, keyRegex, k1)
	assert.Regexp(t, keyRegex, k2)
	assert.NotEqual(t, k1, k2)

	assert.Regexp(t, `^about/[0-9a-f]{32}$`, ObjectKey("about/", "noext"))
}
