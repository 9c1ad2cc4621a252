// Package cluster merges markers that fall within a pixel radius of each other at a given
// web-mercator zoom level.
package cluster

import (
	"errors"
	"math"

	"dalnoboi/internal/domain/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

const (
	DefaultRadiusPx = 50
	DefaultMaxZoom  = 14
	DefaultTileSize = 512
	maxZoomLevels   = 31
)

var ErrUnknownCluster = errors.New("cluster: unknown cluster id")

// Options tunes clustering.
type Options struct {
	RadiusPx float64
	MaxZoom  int
	TileSize float64
}

// Item is a marker to cluster.
type Item struct {
	ID  int64
	Pos geo.Point
}

// Node is either a single marker (ClusterID == 0) or a cluster of Count markers.
type Node struct {
	ClusterID int64     `json:"cluster_id,omitempty"`
	ItemID    int64     `json:"item_id,omitempty"`
	Center    geo.Point `json:"center"`
	Count     int       `json:"count"`
	members   []int
}

// IsCluster reports whether the node aggregates more than one marker.
func (n Node) IsCluster() bool { return n.ClusterID != 0 }

// Index clusters a fixed set of items.
type Index struct {
	opts  Options
	items []Item
}

// New builds an index over items. Zero options take the defaults.
func New(items []Item, opts Options) *Index {
	if opts.RadiusPx <= 0 {
		opts.RadiusPx = DefaultRadiusPx
	}
	if opts.MaxZoom <= 0 || opts.MaxZoom >= maxZoomLevels {
		opts.MaxZoom = DefaultMaxZoom
	}
	if opts.TileSize <= 0 {
		opts.TileSize = DefaultTileSize
	}
	return &Index{opts: opts, items: items}
}

// Options returns the effective options.
func (ix *Index) Options() Options { return ix.opts }

// Clusters groups items at the given camera zoom. Above MaxZoom every item stands alone.
func (ix *Index) Clusters(zoom float64) []Node {
	z := ix.zoomLevel(zoom)
	all := make([]int, len(ix.items))
	for i := range all {
		all[i] = i
	}
	return ix.group(all, z)
}

// ExpansionZoom returns the zoom at which a cluster splits into more than one node.
func (ix *Index) ExpansionZoom(clusterID int64) (int, error) {
	n, err := ix.find(clusterID)
	if err != nil {
		return 0, err
	}

	for z := decodeZoom(clusterID) + 1; z <= ix.opts.MaxZoom; z++ {
		if len(ix.group(n.members, z)) > 1 {
			return z, nil
		}
	}
	return ix.opts.MaxZoom + 1, nil
}

// Leaves returns the item ids inside a cluster.
func (ix *Index) Leaves(clusterID int64) ([]int64, error) {
	n, err := ix.find(clusterID)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(n.members))
	for _, m := range n.members {
		out = append(out, ix.items[m].ID)
	}
	return out, nil
}

// Node returns the cluster with the given id.
func (ix *Index) Node(clusterID int64) (Node, error) {
	return ix.find(clusterID)
}

func (ix *Index) find(clusterID int64) (Node, error) {
	seed, z := decodeSeed(clusterID), decodeZoom(clusterID)
	if clusterID <= 0 || seed < 0 || seed >= len(ix.items) || z > ix.opts.MaxZoom {
		return Node{}, ErrUnknownCluster
	}
	for _, n := range ix.Clusters(float64(z)) {
		if n.ClusterID == clusterID {
			return n, nil
		}
	}
	return Node{}, ErrUnknownCluster
}

func (ix *Index) zoomLevel(zoom float64) int {
	if math.IsNaN(zoom) || zoom < 0 {
		return 0
	}
	return int(math.Floor(zoom))
}

type projected struct {
	p   orb.Point
	idx int
}

func (pp projected) Point() orb.Point { return pp.p }

// group clusters the given item indexes greedily in input order.
func (ix *Index) group(indexes []int, z int) []Node {
	if z > ix.opts.MaxZoom {
		nodes := make([]Node, 0, len(indexes))
		for _, i := range indexes {
			nodes = append(nodes, ix.leaf(i))
		}
		return nodes
	}

	size := ix.opts.TileSize * math.Exp2(float64(z))
	qt := quadtree.New(orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{size + 1, size + 1}})
	pts := make(map[int]orb.Point, len(indexes))
	assigned := make(map[int]bool, len(indexes))
	nodes := make([]Node, 0)
	for _, i := range indexes {
		p := project(ix.items[i].Pos, size)
		pts[i] = p
		if err := qt.Add(projected{p: p, idx: i}); err != nil {
			// off the projected world (longitude outside ±180): never merged
			assigned[i] = true
			nodes = append(nodes, ix.leaf(i))
		}
	}

	r := ix.opts.RadiusPx
	var buf []orb.Pointer

	for _, i := range indexes {
		if assigned[i] {
			continue
		}
		c := pts[i]
		box := orb.Bound{Min: orb.Point{c[0] - r, c[1] - r}, Max: orb.Point{c[0] + r, c[1] + r}}
		buf = qt.InBoundMatching(buf[:0], box, func(p orb.Pointer) bool {
			pp := p.(projected)
			if assigned[pp.idx] {
				return false
			}
			dx, dy := pp.p[0]-c[0], pp.p[1]-c[1]
			return dx*dx+dy*dy <= r*r
		})

		members := []int{i}
		assigned[i] = true
		for _, p := range buf {
			idx := p.(projected).idx
			if idx == i {
				continue
			}
			assigned[idx] = true
			members = append(members, idx)
		}

		if len(members) == 1 {
			nodes = append(nodes, ix.leaf(i))
			continue
		}

		var sx, sy float64
		for _, m := range members {
			sx += pts[m][0]
			sy += pts[m][1]
		}
		center := unproject(orb.Point{sx / float64(len(members)), sy / float64(len(members))}, size)

		nodes = append(nodes, Node{
			ClusterID: encode(i, z),
			Center:    center,
			Count:     len(members),
			members:   members,
		})
	}

	return nodes
}

func (ix *Index) leaf(i int) Node {
	return Node{ItemID: ix.items[i].ID, Center: ix.items[i].Pos, Count: 1, members: []int{i}}
}

func encode(seed, z int) int64 { return int64(seed+1)<<5 | int64(z) }
func decodeSeed(id int64) int  { return int(id>>5) - 1 }
func decodeZoom(id int64) int  { return int(id & 31) }

// project converts a coordinate to web-mercator pixels in a world of the given size.
func project(p geo.Point, size float64) orb.Point {
	lat := math.Max(-85.05112878, math.Min(85.05112878, p.Lat))
	sin := math.Sin(lat * math.Pi / 180)
	x := (p.Lng + 180) / 360 * size
	y := (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size
	return orb.Point{x, y}
}

func unproject(px orb.Point, size float64) geo.Point {
	lng := px[0]/size*360 - 180
	y := 0.5 - px[1]/size
	lat := 90 - 360*math.Atan(math.Exp(-y*2*math.Pi))/math.Pi
	return geo.Point{Lat: lat, Lng: lng}
}
