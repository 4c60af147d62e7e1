package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemID(t *testing.T) {
	id, err := NewItemID("  abc123 ")
	require.NoError(t, err)
	assert.Equal(t, ItemID("abc123"), id)

	_, err = NewItemID("   ")
	assert.Error(t, err)

	_, err = NewItemID(strings.Repeat("x", MaxItemIDLength+1))
	assert.Error(t, err)
}

func TestParseItemURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ItemID
		wantErr bool
	}{
		{name: "with slug", raw: "https://tracker.example/c/AbC123/42-some-title", want: "AbC123"},
		{name: "bare", raw: " https://tracker.example/c/AbC123 ", want: "AbC123"},
		{name: "http", raw: "http://tracker.example/c/x", want: "x"},
		{name: "board url", raw: "https://tracker.example/b/AbC123", wantErr: true},
		{name: "missing id", raw: "https://tracker.example/c/", wantErr: true},
		{name: "not a url", raw: "AbC123", wantErr: true},
		{name: "other scheme", raw: "ftp://tracker.example/c/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDisplayMode(t *testing.T) {
	for _, raw := range []string{"all", "upcoming", "next"} {
		mode, err := ParseDisplayMode(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, mode.String())
	}
	_, err := ParseDisplayMode("NEXT")
	assert.Error(t, err)
}
