// 包 icosa：正二十面体根三角形索引，负责深度 0 的粗定位
package icosa

import (
	"fmt"
	"math"

	"trihash/internal/logger"
	"trihash/internal/sphere"

	"github.com/golang/geo/s1"
)

// RingLatitude：上下五边形环顶点的纬度（度）
const RingLatitude = 26.6

// Count：根三角形数量
const Count = 20

// 纬度分带边界（度）；24°~34° 与 -34°~-24° 为重叠带，相邻的帽区与赤道带三角形都要检查
const (
	bandLow  = 24.0
	bandHigh = 34.0
)

// 文档注释：根三角形索引
// 背景：20 个根三角形覆盖整个球面；构造一次后只读，多协程共享无需加锁。
// 编号布局（奇数朝上，偶数朝下）：
//
//	  /\    /\    /\    /\    /\
//	 /1 \  /2 \  /3 \  /4 \  /5 \
//	/____\/____\/____\/____\/____\ ____  ____  ____  ____
//	                        \    /\    /\    /\    /\    /\
//	                         \6 /7 \8 /9 \10/11\12/13\14/15\
//	                          \/____\/____\/____\/____\/____\ ____  ____  ____  ____
//	                                                   \    /\    /\    /\    /\    /
//	                                                    \16/  \17/  \18/  \19/  \20/
//	                                                     \/    \/    \/    \/    \/
type Index struct {
	tris [Count]*sphere.Triangle
}

// New：构造 12 个顶点与 20 个根三角形
func New() *Index {
	np := sphere.FromCoordinates(90, 0)
	n0 := sphere.FromCoordinates(RingLatitude, 0)
	n1 := sphere.FromCoordinates(RingLatitude, 72)
	n2 := sphere.FromCoordinates(RingLatitude, 144)
	n3 := sphere.FromCoordinates(RingLatitude, -144)
	n4 := sphere.FromCoordinates(RingLatitude, -72)

	sp := sphere.FromCoordinates(-90, 0)
	s0 := sphere.FromCoordinates(-RingLatitude, 36)
	s1p := sphere.FromCoordinates(-RingLatitude, 108)
	s2 := sphere.FromCoordinates(-RingLatitude, 180)
	s3 := sphere.FromCoordinates(-RingLatitude, -108)
	s4 := sphere.FromCoordinates(-RingLatitude, -36)

	verts := [Count][3]sphere.Point{
		// 北帽
		{np, n1, n0},
		{np, n2, n1},
		{np, n3, n2},
		{np, n4, n3},
		{np, n0, n4},
		// 赤道带
		{s4, n4, n0},
		{n0, s0, s4},
		{s0, n0, n1},
		{n1, s1p, s0},
		{s1p, n2, n1},
		{n2, s2, s1p},
		{s2, n3, n2},
		{n3, s3, s2},
		{s3, n4, n3},
		{n4, s4, s3},
		// 南帽
		{sp, s3, s4},
		{sp, s4, s0},
		{sp, s0, s1p},
		{sp, s1p, s2},
		{sp, s2, s3},
	}
	x := &Index{}
	for i, v := range verts {
		x.tris[i] = sphere.NewTriangle(v[0], v[1], v[2], i+1)
	}
	return x
}

// Triangle：按编号（1..20）取根三角形
func (x *Index) Triangle(i int) (*sphere.Triangle, error) {
	if i < 1 || i > Count {
		return nil, fmt.Errorf("icosa: root index %d not in 1..%d", i, Count)
	}
	return x.tris[i-1], nil
}

// Triangles：按编号顺序返回全部根三角形（切片为副本）
func (x *Index) Triangles() []*sphere.Triangle {
	out := make([]*sphere.Triangle, Count)
	copy(out, x.tris[:])
	return out
}

// 文档注释：按纬度分带给出候选根三角形编号
// 背景：仅凭纬度的廉价预筛，无法精确区分重叠带内的帽区与赤道带三角形，因此重叠带同时检查两组。
// 约束：分带按固定顺序判断（重叠带优先），边界值包含在先判断的带中；纬度越界返回 RangeError。
func (x *Index) Candidates(p sphere.Point) ([]int, error) {
	lat := p.Lat()
	if math.IsNaN(lat) || lat < -math.Pi/2 || lat > math.Pi/2 {
		return nil, &sphere.RangeError{
			Op:     "Index.Locate",
			Lat:    p.LatDegrees(),
			Lon:    p.LonDegrees(),
			Reason: "latitude outside [-90, 90]",
		}
	}
	lo := (s1.Angle(bandLow) * s1.Degree).Radians()
	hi := (s1.Angle(bandHigh) * s1.Degree).Radians()
	switch {
	case lat >= lo && lat <= hi:
		return span(1, 15), nil
	case lat >= -hi && lat <= -lo:
		return span(6, 20), nil
	case lat >= hi:
		return span(1, 5), nil
	case lat >= -lo && lat <= lo:
		return span(6, 15), nil
	default:
		return span(16, 20), nil
	}
}

// 文档注释：定位包含点的根三角形
// 背景：在候选集合中按编号升序逐个做包含判定，返回首个命中；边界上的点（如极点、公共顶点）由此确定为最小编号。
// 异常：范围合法却无命中时返回 LocationError（网格或精度缺陷），携带点、候选编号与候选三角形。
func (x *Index) Locate(p sphere.Point) (*sphere.Triangle, error) {
	cands, err := x.Candidates(p)
	if err != nil {
		return nil, err
	}
	for _, n := range cands {
		if t := x.tris[n-1]; t.ContainsPoint(p) {
			return t, nil
		}
	}
	tris := make([]*sphere.Triangle, 0, len(cands))
	for _, n := range cands {
		tris = append(tris, x.tris[n-1])
	}
	logger.L().Debug("icosa_locate_miss", "lat", p.LatDegrees(), "lon", p.LonDegrees(), "candidates", cands)
	return nil, &sphere.LocationError{Op: "Index.Locate", Point: p, Candidates: cands, Triangles: tris}
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
