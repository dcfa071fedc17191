package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupImagesByColor_Empty(t *testing.T) {
	groups := GroupImagesByColor(nil)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{placeholderImage}, groups[0])
}

func TestGroupImagesByColor_GroupsByCode(t *testing.T) {
	images := []Image{
		{URL: "/a1.jpg", ColorCode: "#000"},
		{URL: "/b1.jpg", ColorCode: "#fff"},
		{URL: "/a2.jpg", ColorCode: "#000"},
	}

	groups := GroupImagesByColor(images)

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"/a1.jpg", "/a2.jpg"}, groups[0])
	assert.Equal(t, []string{"/b1.jpg"}, groups[1])
}

func TestGroupImagesByColor_MissingCodeFallsBackToDefault(t *testing.T) {
	images := []Image{
		{URL: "/a.jpg"},
		{URL: "/b.jpg"},
	}

	groups := GroupImagesByColor(images)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, groups[0])
}

func TestProduct_Snapshot(t *testing.T) {
	p := Product{
		ID:    "p1",
		Name:  "Basic Tee",
		Price: 150,
		Images: []Image{
			{URL: "/black.jpg", ColorCode: "#000"},
			{URL: "/white.jpg", ColorCode: "#fff"},
		},
		Colors: []Color{{Name: "Black", Code: "#000"}, {Name: "White", Code: "#fff"}},
	}

	snap := p.Snapshot()

	assert.Equal(t, "p1", snap.ID)
	assert.Equal(t, "Basic Tee", snap.Name)
	assert.Equal(t, 150, snap.Price)
	require.Len(t, snap.Images, 2)
	require.Len(t, snap.Colors, 2)
	assert.Equal(t, "Black", snap.Colors[0].Name)
}
