package sphere

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind：错误类别，供上层按类别映射状态码与指标标签
type ErrorKind string

const (
	KindRange      ErrorKind = "range"
	KindLocation   ErrorKind = "location_failure"
	KindDegenerate ErrorKind = "degenerate_geometry"
)

// 哨兵错误：配合 errors.Is 判断类别
var (
	ErrRange              = errors.New("coordinate out of range")
	ErrLocationFailure    = errors.New("no containing triangle")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// 文档注释：输入范围错误
// 背景：属于调用方错误，消息中直接带上越界的坐标与深度，便于定位。
type RangeError struct {
	Op     string
	Lat    float64
	Lon    float64
	Depth  int
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %v: %s (lat=%v lon=%v depth=%d)", e.Op, ErrRange, e.Reason, e.Lat, e.Lon, e.Depth)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// 文档注释：定位失败
// 背景：对范围合法的点找不到包含三角形，意味着网格或数值精度缺陷而非用户错误；
// 携带点与全部候选三角形顶点，便于判断是哪条边界出了问题。确定性计算，重试无意义。
type LocationError struct {
	Op         string
	Point      Point
	Candidates []int
	Triangles  []*Triangle
}

func (e *LocationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v: point %s", e.Op, ErrLocationFailure, e.Point)
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, "; candidates %v", e.Candidates)
	}
	for _, t := range e.Triangles {
		b.WriteString("\n  ")
		b.WriteString(t.String())
	}
	return b.String()
}

func (e *LocationError) Unwrap() error { return ErrLocationFailure }

// 文档注释：退化几何
// 背景：射线与三角形平面平行（分母为 0）或求交结果非有限。
type GeometryError struct {
	Op          string
	Point       Point
	Triangle    *Triangle
	Denominator float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %v: point %s, denominator %v, triangle %s", e.Op, ErrDegenerateGeometry, e.Point, e.Denominator, e.Triangle)
}

func (e *GeometryError) Unwrap() error { return ErrDegenerateGeometry }

// KindOf：返回错误类别；非本包错误返回空串
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRange):
		return KindRange
	case errors.Is(err, ErrLocationFailure):
		return KindLocation
	case errors.Is(err, ErrDegenerateGeometry):
		return KindDegenerate
	}
	return ""
}
