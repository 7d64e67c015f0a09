package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStructRoundTrip(t *testing.T) {
	type view struct {
		ID     string   `json:"id"`
		Scores []int    `json:"scores"`
		Note   *string  `json:"note,omitempty"`
		Tags   []string `json:"tags"`
	}
	s, err := ToStruct(view{ID: "abc", Scores: []int{58, 56}})
	require.NoError(t, err)
	assert.Equal(t, "abc", StringField(s, "id"))
	v, ok := ValueField(s, "scores")
	require.True(t, ok)
	assert.Equal(t, []any{58.0, 56.0}, v)

	var back view
	require.NoError(t, FromStruct(s, &back))
	assert.Equal(t, []int{58, 56}, back.Scores)

	_, err = ToStruct([]int{1})
	assert.Error(t, err)
}

func TestFieldReaders(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"one":     "winner@game",
		"many":    []any{"a", " ", "b"},
		"replace": true,
		"value":   nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"winner@game"}, StringsField(s, "one"))
	assert.Equal(t, []string{"a", "b"}, StringsField(s, "many"))
	assert.Nil(t, StringsField(s, "missing"))
	assert.True(t, BoolField(s, "replace"))
	assert.False(t, BoolField(s, "missing"))
	v, ok := ValueField(s, "value")
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = ValueField(s, "missing")
	assert.False(t, ok)
}

func TestParseYMD(t *testing.T) {
	d, err := ParseYMD("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)
	_, err = ParseYMD("06/01/2024")
	assert.Error(t, err)
}
