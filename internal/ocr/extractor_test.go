package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine returns canned fragments without touching Tesseract.
type fakeEngine struct {
	fragments []string
	err       error
}

func (f *fakeEngine) Fragments(_ context.Context, _ []byte) ([]string, error) {
	return f.fragments, f.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      string
	}{
		{
			name:      "alphanumerics kept, fragments space-joined, trimmed",
			fragments: []string{"AB 12", "cd!", ""},
			want:      "AB12 cd",
		},
		{
			name:      "single clean fragment",
			fragments: []string{"ABC123"},
			want:      "ABC123",
		},
		{
			name:      "punctuation and whitespace dropped",
			fragments: []string{"A-B.C", "1 2\t3"},
			want:      "ABC 123",
		},
		{
			name:      "unicode symbols dropped, letters kept",
			fragments: []string{"Ä-É", "№12"},
			want:      "ÄÉ 12",
		},
		{
			name:      "empty middle fragment keeps its separator",
			fragments: []string{"AB", "!!", "CD"},
			want:      "AB  CD",
		},
		{
			name:      "no fragments",
			fragments: nil,
			want:      "",
		},
		{
			name:      "only noise",
			fragments: []string{"!!!", "   ", "--"},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.fragments))
		})
	}
}

func TestExtract(t *testing.T) {
	extractor := NewExtractor(&fakeEngine{fragments: []string{"AB 12", "cd!", ""}})
	plate, err := extractor.Extract(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "AB12 cd", plate)
}

func TestExtractNoFragments(t *testing.T) {
	extractor := NewExtractor(&fakeEngine{})
	_, err := extractor.Extract(context.Background(), []byte("png"))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractNothingSurvivesNormalization(t *testing.T) {
	extractor := NewExtractor(&fakeEngine{fragments: []string{"!?!", "  "}})
	_, err := extractor.Extract(context.Background(), []byte("png"))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractEngineFailure(t *testing.T) {
	engineErr := errors.New("tesseract exploded")
	extractor := NewExtractor(&fakeEngine{err: engineErr})
	_, err := extractor.Extract(context.Background(), []byte("png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, engineErr)
	assert.NotErrorIs(t, err, ErrNoText)
}
