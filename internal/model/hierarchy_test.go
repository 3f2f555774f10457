package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Hierarchy {
	h := Hierarchy{
		{Key: "responses", Icon: "💬", Items: []Item{{Key: "yes", Label: "Yes"}, {Key: "no", Label: "No"}}},
		{Key: "eat", Label: "Eat", RemoteID: "r-eat", Items: []Item{{Key: "soup", Label: "soup", RemoteID: "r-soup"}}},
		{Key: "empty", Label: "Empty"},
	}
	h.Reindex()
	return h
}

func TestCloneIsDeep(t *testing.T) {
	h := sample()
	c := h.Clone()
	c[0].Items[0].Label = "changed"
	c[1].Label = "changed"

	assert.Equal(t, "Yes", h[0].Items[0].Label)
	assert.Equal(t, "Eat", h[1].Label)
}

func TestValidate(t *testing.T) {
	require.NoError(t, sample().Validate())

	tests := []struct {
		name   string
		mutate func(h Hierarchy) Hierarchy
	}{
		{"duplicate category", func(h Hierarchy) Hierarchy { return append(h, Category{Key: "eat", SortOrder: 3}) }},
		{"duplicate item", func(h Hierarchy) Hierarchy {
			h[0].Items = append(h[0].Items, Item{Key: "yes", SortOrder: 2})
			return h
		}},
		{"stale category order", func(h Hierarchy) Hierarchy { h[2].SortOrder = 7; return h }},
		{"stale item order", func(h Hierarchy) Hierarchy { h[0].Items[1].SortOrder = 0; return h }},
		{"empty key", func(h Hierarchy) Hierarchy { h[1].Key = ""; return h }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.mutate(sample()).Validate())
		})
	}
}

func TestItemKeysAreScopedToCategory(t *testing.T) {
	h := sample()
	h[1].Items = append(h[1].Items, Item{Key: "yes", Label: "yes"})
	h.Reindex()
	assert.NoError(t, h.Validate())
}

func TestStripRemote(t *testing.T) {
	s := sample().StripRemote()
	assert.Empty(t, s[1].RemoteID)
	assert.Empty(t, s[1].Items[0].RemoteID)
}

func TestIsPermutation(t *testing.T) {
	cur := []string{"a", "b", "c"}
	assert.True(t, IsPermutation(cur, []string{"c", "a", "b"}))
	assert.False(t, IsPermutation(cur, []string{"a", "b"}))
	assert.False(t, IsPermutation(cur, []string{"a", "b", "b"}))
	assert.False(t, IsPermutation(cur, []string{"a", "b", "d"}))
	assert.True(t, IsPermutation(nil, []string{}))
}

func TestPhrase(t *testing.T) {
	h := sample()
	assert.Equal(t, "Yes", h[0].Phrase(h[0].Items[0]))
	assert.Equal(t, "Eat soup", h[1].Phrase(h[1].Items[0]))
}
