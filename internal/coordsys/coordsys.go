// 包 coordsys：国内地图坐标系（GCJ-02 / BD-09）与 WGS84 之间的转换
package coordsys

import (
	"fmt"
	"math"
	"strings"
)

// System：输入坐标所属坐标系
type System string

const (
	WGS84 System = "wgs84"
	GCJ02 System = "gcj02"
	BD09  System = "bd09"
)

// Parse：解析坐标系名称，空串视为 WGS84；接受 "GCJ-02"、"gcj02" 等写法
func Parse(s string) (System, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	switch n {
	case "", "wgs84":
		return WGS84, nil
	case "gcj02":
		return GCJ02, nil
	case "bd09":
		return BD09, nil
	}
	return "", fmt.Errorf("coordsys: unknown coordinate system %q", s)
}

// 文档注释：转换为 WGS84
// 背景：编码网格定义在 WGS84 球面上，国内互联网地图给出的坐标需先纠偏，否则单元会偏移数百米。
// 约束：近似逆变换，误差在米级；中国境外的坐标原样返回。
func ToWGS84(sys System, lat, lon float64) (float64, float64) {
	switch sys {
	case GCJ02:
		return gcj02ToWGS84(lat, lon)
	case BD09:
		return gcj02ToWGS84(bd09ToGCJ02(lat, lon))
	}
	return lat, lon
}

// FromWGS84：WGS84 转为 GCJ-02（正向偏移，境外不变）
func FromWGS84(lat, lon float64) (float64, float64) { return offsetGCJ(lat, lon) }

func gcj02ToWGS84(lat, lon float64) (float64, float64) {
	glat, glon := offsetGCJ(lat, lon)
	return lat*2 - glat, lon*2 - glon
}

func bd09ToGCJ02(lat, lon float64) (float64, float64) {
	x := lon - 0.0065
	y := lat - 0.006
	z := math.Sqrt(x*x+y*y) - 0.00002*math.Sin(y*math.Pi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*math.Pi)
	return z * math.Sin(theta), z * math.Cos(theta)
}

// Krasovsky 1940 椭球参数
const (
	krasovskyA  = 6378245.0
	krasovskyEE = 0.00669342162296594323
)

func offsetGCJ(lat, lon float64) (float64, float64) {
	if outOfChina(lat, lon) {
		return lat, lon
	}
	dLat := deltaLat(lon-105.0, lat-35.0)
	dLon := deltaLon(lon-105.0, lat-35.0)
	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - krasovskyEE*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((krasovskyA * (1 - krasovskyEE)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (krasovskyA / sqrtMagic * math.Cos(radLat) * math.Pi)
	return lat + dLat, lon + dLon
}

func outOfChina(lat, lon float64) bool {
	return lon < 72.004 || lon > 137.8347 || lat < 0.8293 || lat > 55.8271
}

func deltaLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func deltaLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
