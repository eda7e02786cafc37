package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "viewledger/pkg/errors"
)

func TestPostID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "canonical video url",
			raw:  "https://www.tiktok.com/@creator.name/video/7314598234751233282",
			want: "7314598234751233282",
		},
		{
			name: "no www",
			raw:  "https://tiktok.com/@user_1/video/7012345678901234567",
			want: "7012345678901234567",
		},
		{
			name: "legacy v path",
			raw:  "https://www.tiktok.com/v/7012345678901234567.html",
			want: "7012345678901234567",
		},
		{
			name: "mobile host",
			raw:  "https://m.tiktok.com/v/7012345678901234567",
			want: "7012345678901234567",
		},
		{
			name: "query string after id",
			raw:  "https://www.tiktok.com/@creator/video/7012345678901234567?is_from_webapp=1",
			want: "7012345678901234567",
		},
		{
			name: "surrounding whitespace",
			raw:  "  https://www.tiktok.com/@creator/video/7012345678901234567  ",
			want: "7012345678901234567",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PostID(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostIDRejectsUnrecognized(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"not a url",
		"https://example.com/@user/video/123",
		"https://www.tiktok.com/@creator",
		"https://www.tiktok.com/@creator/video/",
	}

	for _, raw := range bad {
		_, err := PostID(raw)
		require.Error(t, err, "input %q", raw)
		assert.Equal(t, errs.KindInvalidIdentifier, errs.KindOf(err), "input %q", raw)
	}
}
