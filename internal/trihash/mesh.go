package trihash

import (
	"strconv"

	"trihash/internal/sphere"

	"github.com/paulmach/orb/geojson"
)

// MaxMeshDepth：网格枚举允许的最大深度（20·4^5 = 20480 个三角形）
const MaxMeshDepth = 5

// Tile：网格中的一个三角形及其哈希
type Tile struct {
	Hash     string
	Triangle *sphere.Triangle
}

// 文档注释：枚举某一深度的全部三角形
// 背景：按层广度优先迭代展开，每层数量乘 4；输出顺序为根编号升序、同父子三角形按位置升序。
// 约束：depth 超过 MaxMeshDepth 返回 RangeError，避免一次请求生成过大的结果。
func (e *Encoder) Mesh(depth int) ([]Tile, error) {
	if depth < 0 || depth > MaxMeshDepth {
		return nil, &sphere.RangeError{Op: "Encoder.Mesh", Depth: depth, Reason: "mesh depth outside [0, " + strconv.Itoa(MaxMeshDepth) + "]"}
	}
	level := make([]Tile, 0, 20)
	for _, t := range e.idx.Triangles() {
		level = append(level, Tile{Hash: strconv.Itoa(t.Pos) + Separator, Triangle: t})
	}
	for d := 0; d < depth; d++ {
		next := make([]Tile, 0, len(level)*4)
		for _, tl := range level {
			for _, c := range tl.Triangle.Subdivide() {
				next = append(next, Tile{Hash: tl.Hash + strconv.Itoa(c.Pos), Triangle: c})
			}
		}
		level = next
	}
	return level, nil
}

// MeshGeoJSON：把网格转换为 FeatureCollection
func MeshGeoJSON(tiles []Tile) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, tl := range tiles {
		fc.Append(NewCell(tl.Hash, tl.Triangle).Feature())
	}
	return fc
}
