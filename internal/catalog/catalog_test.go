package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	h := Default().Hierarchy()

	require.Len(t, h, 8)
	assert.Equal(t, []string{"responses", "feelings", "needs", "watch", "eat", "drink", "people", "places"}, h.Keys())
	require.NoError(t, h.Validate())

	assert.Equal(t, "", h[0].Label)
	assert.Equal(t, []string{"yes", "no", "maybe", "idk", "help", "wait"}, h[0].ItemKeys())
	for _, c := range h {
		assert.Empty(t, c.RemoteID)
		for _, it := range c.Items {
			assert.Empty(t, it.RemoteID)
		}
	}
}

func TestHierarchyReturnsCopies(t *testing.T) {
	c := Default()
	a := c.Hierarchy()
	a[0].Items[0].Label = "mutated"
	assert.Equal(t, "Yes", c.Hierarchy()[0].Items[0].Label)
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - key: eat
    items: [{key: soup}, {key: soup}]
`))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - key: eat
    label: Eat
    icon: "🍽️"
    items:
      - {key: pizza, label: pizza, icon: "🍕", image: "img/pizza.png"}
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	h := c.Hierarchy()
	require.Len(t, h, 1)
	assert.Equal(t, "img/pizza.png", h[0].Items[0].ImageRef)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
