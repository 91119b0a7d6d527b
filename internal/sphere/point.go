// 包 sphere：固定半径球面上的点、向量与三角形几何核心；不做日志与 IO，供上层索引与编码复用
package sphere

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/s1"
)

// Radius：球体半径（千米），采用地球平均半径；面积容差 0.01 以该单位计
const Radius = 6371.0

// 极点判定的纬度容差（弧度）
const poleEps = 1e-12

// 文档注释：球面点（笛卡尔与经纬双表示）
// 背景：包含判定在弦平面上进行，需要笛卡尔分量；方向与极点特判需要经纬度；两者在构造时一次算好。
// 约束：经纬度内部以弧度保存；构造后不可变。由平面求交得到的点不保证在球面上，仅作为辅助计算值。
type Point struct {
	x, y, z  float64
	lat, lon float64
}

// FromCoordinates：由经纬度（度）构造球面点
// 约束：不校验取值范围，范围校验由调用方或索引定位阶段负责
func FromCoordinates(latDeg, lonDeg float64) Point {
	lat := (s1.Angle(latDeg) * s1.Degree).Radians()
	lon := (s1.Angle(lonDeg) * s1.Degree).Radians()
	return FromRadians(lat, lon)
}

// FromRadians：由弧度经纬度构造球面点
func FromRadians(lat, lon float64) Point {
	cl := math.Cos(lat)
	return Point{
		x:   Radius * cl * math.Cos(lon),
		y:   Radius * cl * math.Sin(lon),
		z:   Radius * math.Sin(lat),
		lat: lat,
		lon: lon,
	}
}

// FromCartesian：由笛卡尔坐标构造点，保留原始分量
// 约束：经度使用 atan2 保证全象限正确；r 为 0 或分量非有限时经纬度为 NaN，由 IsValid 判定可用性
func FromCartesian(x, y, z float64) Point {
	r := math.Sqrt(x*x + y*y + z*z)
	return Point{x: x, y: y, z: z, lat: math.Asin(z / r), lon: math.Atan2(y, x)}
}

// projectToSphere：将任意非零向量按半径 R 归一化到球面上
func projectToSphere(x, y, z float64) Point {
	d := math.Sqrt(x*x + y*y + z*z)
	return FromCartesian(x/d*Radius, y/d*Radius, z/d*Radius)
}

// 文档注释：两点在球面上的中点
// 背景：笛卡尔算术平均落在球内，必须重新投影到半径 R，细分三角形才能保持球面而不是向内塌缩的弦近似。
// 约束：经度在极点处无定义，任一输入为极点时直接取另一点经度；两点经度差超过 180° 时按跨反经线的短弧取中点。
// 纬度取两者平均，仅用于方向描述，不参与包含判定。
func CenterPoint(a, b Point) Point {
	var lon float64
	switch {
	case a.IsPole():
		lon = b.lon
	case b.IsPole():
		lon = a.lon
	case math.Abs(a.lon-b.lon) > math.Pi:
		m := (a.lon + b.lon) / 2
		if m <= 0 {
			lon = m + math.Pi
		} else {
			lon = m - math.Pi
		}
	default:
		lon = (a.lon + b.lon) / 2
	}
	p := projectToSphere((a.x+b.x)/2, (a.y+b.y)/2, (a.z+b.z)/2)
	p.lat = (a.lat + b.lat) / 2
	p.lon = lon
	return p
}

// RandomPoint：随机点（纬度、经度各自均匀分布，非面积均匀），仅用于冒烟测试
// rng 为 nil 时使用全局随机源
func RandomPoint(rng *rand.Rand) Point {
	f := rand.Float64
	if rng != nil {
		f = rng.Float64
	}
	lat := f()*180 - 90
	lon := f()*360 - 180
	return FromCoordinates(lat, lon)
}

func (p Point) X() float64   { return p.x }
func (p Point) Y() float64   { return p.y }
func (p Point) Z() float64   { return p.z }
func (p Point) Lat() float64 { return p.lat }
func (p Point) Lon() float64 { return p.lon }

func (p Point) LatDegrees() float64 { return (s1.Angle(p.lat) * s1.Radian).Degrees() }
func (p Point) LonDegrees() float64 { return (s1.Angle(p.lon) * s1.Radian).Degrees() }

func (p Point) Vector() Vector { return VectorOf(p) }

// IsValid：三个笛卡尔分量均为有限数（捕获除零与退化投影）
func (p Point) IsValid() bool { return finite(p.x) && finite(p.y) && finite(p.z) }

func (p Point) IsPole() bool { return math.Abs(math.Abs(p.lat)-math.Pi/2) < poleEps }

// 文档注释：是否位于原点另一侧（宽松判定）
// 背景：只用于比较查询点与其在三角形平面上的投影，任一坐标符号不同即视为另一侧；不是通用的对跖判定。
func (p Point) IsOnOppositeSide(o Point) bool {
	return sign(p.x) != sign(o.x) || sign(p.y) != sign(o.y) || sign(p.z) != sign(o.z)
}

// Reproject：投影回半径 R 的球面并由笛卡尔分量重算经纬度
// 背景：中点的经纬度为平均值近似，对外输出坐标时以此得到精确值
func (p Point) Reproject() Point { return projectToSphere(p.x, p.y, p.z) }

func (p Point) String() string {
	return fmt.Sprintf("(lat=%.9f° lon=%.9f° | x=%.6f y=%.6f z=%.6f)", p.LatDegrees(), p.LonDegrees(), p.x, p.y, p.z)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
