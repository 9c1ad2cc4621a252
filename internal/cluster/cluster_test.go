package cluster

import (
	"testing"

	"dalnoboi/internal/domain/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items() []Item {
	return []Item{
		{ID: 1, Pos: geo.Point{Lat: 55.7558, Lng: 37.6176}},
		{ID: 2, Pos: geo.Point{Lat: 55.7648, Lng: 37.6176}}, // ~1 km north
		{ID: 3, Pos: geo.Point{Lat: 59.9311, Lng: 30.3351}}, // St Petersburg
	}
}

func TestClustersMergesNearbyMarkers(t *testing.T) {
	ix := New(items(), Options{})

	nodes := ix.Clusters(6)
	require.Len(t, nodes, 2)

	c := nodes[0]
	assert.True(t, c.IsCluster())
	assert.Equal(t, 2, c.Count)
	assert.InDelta(t, 55.7603, c.Center.Lat, 0.01)

	assert.False(t, nodes[1].IsCluster())
	assert.Equal(t, int64(3), nodes[1].ItemID)
}

func TestClustersKeepsOffWorldItemsApart(t *testing.T) {
	ix := New(append(items(), Item{ID: 9, Pos: geo.Point{Lat: 55.7558, Lng: 500}}), Options{})

	nodes := ix.Clusters(6)
	require.Len(t, nodes, 3)
	assert.Equal(t, int64(9), nodes[0].ItemID)
	assert.Equal(t, 1, nodes[0].Count)
	assert.Equal(t, 2, nodes[1].Count)
}

func TestClustersAboveMaxZoomAreLeaves(t *testing.T) {
	ix := New(items(), Options{})
	nodes := ix.Clusters(DefaultMaxZoom + 1)
	require.Len(t, nodes, 3)
	for _, n := range nodes {
		assert.False(t, n.IsCluster())
		assert.Equal(t, 1, n.Count)
	}
}

func TestExpansionZoom(t *testing.T) {
	ix := New(items(), Options{})
	nodes := ix.Clusters(6)
	require.True(t, nodes[0].IsCluster())

	ez, err := ix.ExpansionZoom(nodes[0].ClusterID)
	require.NoError(t, err)
	assert.Greater(t, ez, 6)
	assert.LessOrEqual(t, ez, DefaultMaxZoom+1)

	// the pair is still merged one level below the expansion zoom
	below := ix.Clusters(float64(ez - 1))
	assert.Equal(t, 2, below[0].Count)

	leaves, err := ix.Leaves(nodes[0].ClusterID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, leaves)
}

func TestExpansionZoomUnknownCluster(t *testing.T) {
	ix := New(items(), Options{})
	_, err := ix.ExpansionZoom(0)
	assert.ErrorIs(t, err, ErrUnknownCluster)
	_, err = ix.ExpansionZoom(encode(2, 6)) // a single marker, not a cluster
	assert.ErrorIs(t, err, ErrUnknownCluster)
	_, err = ix.Leaves(encode(99, 3))
	assert.ErrorIs(t, err, ErrUnknownCluster)
}

func TestProjectRoundTrip(t *testing.T) {
	size := float64(DefaultTileSize) * 64
	p := geo.Point{Lat: 42.9849, Lng: 47.5047}
	back := unproject(project(p, size), size)
	assert.InDelta(t, p.Lat, back.Lat, 1e-9)
	assert.InDelta(t, p.Lng, back.Lng, 1e-9)
}

func TestEmptyIndex(t *testing.T) {
	assert.Empty(t, New(nil, Options{}).Clusters(5))
}
