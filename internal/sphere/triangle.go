package sphere

import (
	"fmt"
	"math"
)

// Direction：三角形朝向（A 纬度高于 B 为 Up），仅用于描述网格布局，不参与包含判定
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// NoPos：未设置位置的哨兵值
const NoPos = -1

// 文档注释：球面三角形（以弦平面三角形定义）
// 背景：包含判定把查询点沿球心射线投到 ABC 所在平面再做平面判定；子三角形编号定义了哈希中每一位的含义：
//
//	      A
//	      /\
//	     /2 \
//	  b /____\ c
//	   /\    /\
//	  /4 \1 /3 \
//	 /____\/____\
//	C     a      B
//
// 约束：Pos 对子三角形为 1..4，对根三角形为 1..20；中点与质心在构造时计算并投影到球面。
type Triangle struct {
	A, B, C   Point
	Pos       int
	Direction Direction

	AMid   Point // BC 边中点
	BMid   Point // CA 边中点
	CMid   Point // AB 边中点
	Center Point
}

func NewTriangle(a, b, c Point, pos int) *Triangle {
	t := &Triangle{A: a, B: b, C: c, Pos: pos, Direction: Down}
	if a.lat > b.lat {
		t.Direction = Up
	}
	t.AMid = CenterPoint(b, c)
	t.BMid = CenterPoint(c, a)
	t.CMid = CenterPoint(a, b)
	t.Center = projectToSphere(
		(t.AMid.x+t.BMid.x+t.CMid.x)/3,
		(t.AMid.y+t.BMid.y+t.CMid.y)/3,
		(t.AMid.z+t.BMid.z+t.CMid.z)/3,
	)
	return t
}

// 文档注释：四分细分
// 约束：顺序固定为 中心(1)、A 角(2)、B 角(3)、C 角(4)，顶点顺序不可改动，否则哈希含义改变。
func (t *Triangle) Subdivide() [4]*Triangle {
	return [4]*Triangle{
		NewTriangle(t.AMid, t.BMid, t.CMid, 1),
		NewTriangle(t.A, t.CMid, t.BMid, 2),
		NewTriangle(t.CMid, t.B, t.AMid, 3),
		NewTriangle(t.BMid, t.AMid, t.C, 4),
	}
}

// Child：按位置取子三角形
func (t *Triangle) Child(pos int) (*Triangle, error) {
	if pos < 1 || pos > 4 {
		return nil, fmt.Errorf("sphere: child position %d not in 1..4", pos)
	}
	return t.Subdivide()[pos-1], nil
}

// 文档注释：求下一层包含点的子三角形
// 背景：迭代下钻的单步；点已在父三角形内时几何上必有子三角形命中，未命中说明细分边界处精度失效。
func (t *Triangle) NextChild(p Point) (*Triangle, error) {
	children := t.Subdivide()
	for _, c := range children {
		if c.ContainsPoint(p) {
			return c, nil
		}
	}
	return nil, &LocationError{
		Op:         "Triangle.NextChild",
		Point:      p,
		Candidates: []int{1, 2, 3, 4},
		Triangles:  append([]*Triangle{t}, children[:]...),
	}
}

// normal：ABC 所在平面的法向量（以 B 为基点的 3x3 展开）
func (t *Triangle) normal() (l, m, n float64) {
	a, b, c := t.A, t.B, t.C
	l = (a.y-b.y)*(c.z-b.z) - (a.z-b.z)*(c.y-b.y)
	m = (a.z-b.z)*(c.x-b.x) - (a.x-b.x)*(c.z-b.z)
	n = (a.x-b.x)*(c.y-b.y) - (c.x-b.x)*(a.y-b.y)
	return l, m, n
}

func (t *Triangle) intersect(p Point) (Point, float64) {
	l, m, n := t.normal()
	num := l*t.A.x + m*t.A.y + n*t.A.z
	den := l*p.x + m*p.y + n*p.z
	v := num / den
	return FromCartesian(p.x*v, p.y*v, p.z*v), den
}

// 文档注释：球心射线与三角形平面的交点
// 背景：整个包含判定都在该平面上进行，这是引擎的关键数值原语。
// 约束：射线与平面平行时结果非有限，调用方需用 IsValid 检查；需要错误语义时使用 Intersect。
func (t *Triangle) PlaneIntersection(p Point) Point {
	q, _ := t.intersect(p)
	return q
}

// Intersect：同 PlaneIntersection，退化时返回 *GeometryError
func (t *Triangle) Intersect(p Point) (Point, error) {
	q, den := t.intersect(p)
	if den == 0 || !q.IsValid() {
		return q, &GeometryError{Op: "Triangle.Intersect", Point: p, Triangle: t, Denominator: den}
	}
	return q, nil
}

// Area：弦平面三角形面积
func (t *Triangle) Area() float64 { return planarArea(t.A, t.B, t.C) }

func planarArea(a, b, c Point) float64 {
	ab := VectorOf(a).Subtract(VectorOf(b))
	bc := VectorOf(b).Subtract(VectorOf(c))
	return ab.Cross(bc).Magnitude() / 2
}

// ContainsPoint：使用默认容差判定点是否在三角形内（含边界）
func (t *Triangle) ContainsPoint(p Point) bool { return t.ContainsPointTol(p, DefaultTolerance) }

// 文档注释：面积和包含判定
// 背景：交点在平面内时，三块子三角形面积之和等于整体面积当且仅当交点在三角形内或边界上。
// 约束：交点在原点另一侧或非有限直接判否；任一子面积超出整体加余量提前判否；最终比较交由 Tolerance。
func (t *Triangle) ContainsPointTol(p Point, tol Tolerance) bool {
	q := t.PlaneIntersection(p)
	if p.IsOnOppositeSide(q) || !q.IsValid() {
		return false
	}
	whole := t.Area()
	ab := planarArea(t.A, t.B, q)
	if tol.Exceeds(ab, whole) {
		return false
	}
	bc := planarArea(q, t.B, t.C)
	if tol.Exceeds(bc, whole) {
		return false
	}
	ca := planarArea(t.A, q, t.C)
	if tol.Exceeds(ca, whole) {
		return false
	}
	return tol.Equal(whole, ab+bc+ca)
}

func (t *Triangle) Vertices() [3]Point { return [3]Point{t.A, t.B, t.C} }

// EdgeKm：三条边的平均大圆弧长（千米）
func (t *Triangle) EdgeKm() float64 {
	return (arcKm(t.A, t.B) + arcKm(t.B, t.C) + arcKm(t.C, t.A)) / 3
}

func arcKm(a, b Point) float64 {
	va, vb := VectorOf(a), VectorOf(b)
	return math.Atan2(va.Cross(vb).Magnitude(), va.Dot(vb)) * Radius
}

func (t *Triangle) String() string {
	return fmt.Sprintf("Triangle{pos=%d dir=%s A=%s B=%s C=%s}", t.Pos, t.Direction, t.A, t.B, t.C)
}
