package trihash

import (
	"fmt"
	"math"

	"trihash/internal/sphere"
)

// 深度常量：按该深度三角形的近似边长命名
const (
	Km7050 = iota
	Km3525
	Km1762
	Km881
	Km440
	Km220
	Km110
	Km55
	Km27
	Km13
	Km6
	Km3
	Km1
	Km0_86
	Km0_43
	Km0_22
	Km0_11
	Km0_05
)

// MaxDepth：允许的最大深度
// 约束：深度 20 时边长约 7 米，再往下面积差已接近容差的分辨能力，包含判定不再可靠
const MaxDepth = 20

// RootEdgeKm：根三角形的近似边长（千米）
const RootEdgeKm = 7050.0

// DepthInfo：深度表中的一行
type DepthInfo struct {
	Depth  int     `json:"depth"`
	Name   string  `json:"name"`
	EdgeKm float64 `json:"edge_km"`
}

var depthNames = [...]string{
	"Km7050", "Km3525", "Km1762", "Km881", "Km440", "Km220", "Km110", "Km55", "Km27",
	"Km13", "Km6", "Km3", "Km1", "Km0_86", "Km0_43", "Km0_22", "Km0_11", "Km0_05",
}

// EdgeKm：给定深度的近似边长，每深一层减半
func EdgeKm(depth int) float64 { return RootEdgeKm / math.Pow(2, float64(depth)) }

// Depths：0..MaxDepth 的深度表；没有具名常量的深度 Name 为空
func Depths() []DepthInfo {
	out := make([]DepthInfo, 0, MaxDepth+1)
	for d := 0; d <= MaxDepth; d++ {
		di := DepthInfo{Depth: d, EdgeKm: EdgeKm(d)}
		if d < len(depthNames) {
			di.Name = depthNames[d]
		}
		out = append(out, di)
	}
	return out
}

// 文档注释：按目标边长选择深度
// 背景：返回边长不超过 km 的最浅深度；目标比最深层还细时返回 MaxDepth。
// 异常：km 非正或非有限返回 RangeError。
func DepthForKm(km float64) (int, error) {
	if math.IsNaN(km) || math.IsInf(km, 0) || km <= 0 {
		return 0, &sphere.RangeError{Op: "DepthForKm", Reason: fmt.Sprintf("edge length %v must be positive", km)}
	}
	for d := 0; d <= MaxDepth; d++ {
		if EdgeKm(d) <= km {
			return d, nil
		}
	}
	return MaxDepth, nil
}
