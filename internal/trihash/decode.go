package trihash

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"trihash/internal/icosa"
	"trihash/internal/sphere"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrMalformedHash：哈希串格式不合法
var ErrMalformedHash = errors.New("malformed hash")

// 文档注释：解析哈希串
// 约束：形如 "<1..20>|<1..4 组成的串>"，层级位数不超过 MaxDepth；任何偏差都返回包装了 ErrMalformedHash 的错误。
func ParseHash(s string) (root int, digits []int, err error) {
	head, tail, ok := strings.Cut(s, Separator)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q has no %q", ErrMalformedHash, s, Separator)
	}
	root, err = strconv.Atoi(head)
	if err != nil || root < 1 || root > icosa.Count || strconv.Itoa(root) != head {
		return 0, nil, fmt.Errorf("%w: root %q not in 1..%d", ErrMalformedHash, head, icosa.Count)
	}
	if len(tail) > MaxDepth {
		return 0, nil, fmt.Errorf("%w: depth %d exceeds %d", ErrMalformedHash, len(tail), MaxDepth)
	}
	digits = make([]int, len(tail))
	for i := 0; i < len(tail); i++ {
		c := tail[i]
		if c < '1' || c > '4' {
			return 0, nil, fmt.Errorf("%w: position %q at level %d not in 1..4", ErrMalformedHash, c, i+1)
		}
		digits[i] = int(c - '0')
	}
	return root, digits, nil
}

// Decode：按哈希路径还原三角形
func (e *Encoder) Decode(hash string) (*sphere.Triangle, error) {
	root, digits, err := ParseHash(hash)
	if err != nil {
		return nil, err
	}
	t, err := e.idx.Triangle(root)
	if err != nil {
		return nil, err
	}
	for _, d := range digits {
		if t, err = t.Child(d); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Children：下一层的四个子哈希（按位置 1..4）
func (e *Encoder) Children(hash string) ([]string, error) {
	_, digits, err := ParseHash(hash)
	if err != nil {
		return nil, err
	}
	if len(digits) >= MaxDepth {
		return nil, &sphere.RangeError{Op: "Encoder.Children", Depth: len(digits) + 1, Reason: "children would exceed max depth"}
	}
	out := make([]string, 4)
	for i := range out {
		out[i] = hash + strconv.Itoa(i+1)
	}
	return out, nil
}

// 文档注释：哈希单元的可展示形式
// 背景：顶点与质心使用 orb.Point（经度在前、纬度在后，单位度），可直接输出为 GeoJSON。
type Cell struct {
	Hash     string       `json:"hash"`
	Root     int          `json:"root"`
	Depth    int          `json:"depth"`
	Vertices [3]orb.Point `json:"vertices"`
	Center   orb.Point    `json:"center"`
	EdgeKm   float64      `json:"edge_km"`
}

// Cell：解码哈希并生成单元描述
func (e *Encoder) Cell(hash string) (Cell, error) {
	t, err := e.Decode(hash)
	if err != nil {
		return Cell{}, err
	}
	return NewCell(hash, t), nil
}

// NewCell：由已知哈希与三角形构造单元（不校验两者是否一致）
func NewCell(hash string, t *sphere.Triangle) Cell {
	c := Cell{Hash: hash, Center: lonLat(t.Center), EdgeKm: t.EdgeKm()}
	if head, tail, ok := strings.Cut(hash, Separator); ok {
		c.Root, _ = strconv.Atoi(head)
		c.Depth = len(tail)
	}
	for i, v := range t.Vertices() {
		c.Vertices[i] = lonLat(v)
	}
	return c
}

// lonLat：由笛卡尔分量重新求经纬度；细分中点保存的是平均经纬度，不能直接用于展示
func lonLat(p sphere.Point) orb.Point {
	q := p.Reproject()
	return orb.Point{q.LonDegrees(), q.LatDegrees()}
}

// Polygon：闭合环 A-B-C-A
// 约束：跨越反经线的三角形不做切分，GeoJSON 渲染端可能出现横跨地图的长边
func (c Cell) Polygon() orb.Polygon {
	ring := orb.Ring{c.Vertices[0], c.Vertices[1], c.Vertices[2], c.Vertices[0]}
	return orb.Polygon{ring}
}

// Feature：单元的 GeoJSON Feature，属性包含 hash、depth、edge_km
func (c Cell) Feature() *geojson.Feature {
	f := geojson.NewFeature(c.Polygon())
	f.Properties["hash"] = c.Hash
	f.Properties["root"] = c.Root
	f.Properties["depth"] = c.Depth
	f.Properties["edge_km"] = c.EdgeKm
	return f
}
