package sphere

import "math"

// 文档注释：面积比较容差
// 背景：“子三角形面积之和等于整体面积”判定对浮点误差敏感；按数量级自适应保留小数位（数值越小保留越多位），
// 使相对精度大致恒定；Margin 为提前拒绝的绝对余量。
// 约束：Digits 为有效位数；9 位在深度 20 以内不会因舍入误差把内部点判为外部。
type Tolerance struct {
	Margin float64
	Digits int
}

// DefaultTolerance：默认容差（余量 0.01 平方千米，9 位有效数字）
var DefaultTolerance = Tolerance{Margin: 0.01, Digits: 9}

// Decimals：给定数值应保留的小数位数
func (t Tolerance) Decimals(x float64) int {
	ax := math.Abs(x)
	if ax == 0 || !finite(ax) {
		return t.Digits
	}
	return t.Digits - int(math.Floor(math.Log10(ax))) - 1
}

// Round：按小数位四舍五入（负数位表示舍入到十位、百位等）
func (t Tolerance) Round(x float64, decimals int) float64 {
	if decimals >= 0 {
		p := math.Pow10(decimals)
		return math.Round(x*p) / p
	}
	p := math.Pow10(-decimals)
	return math.Round(x/p) * p
}

// Equal：按两者中较大数量级选取共同精度，舍入后相等或相邻视为相等
// 约束：相邻桶也接受，避免两值恰好跨在舍入边界两侧时误判
func (t Tolerance) Equal(a, b float64) bool {
	if !finite(a) || !finite(b) {
		return false
	}
	d := t.Decimals(math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(scaled(a, d)-scaled(b, d)) <= 1
}

// Exceeds：部分面积超过整体面积加余量，说明点必在三角形外
func (t Tolerance) Exceeds(part, whole float64) bool { return part > whole+t.Margin }

func scaled(x float64, decimals int) float64 {
	if decimals >= 0 {
		return math.Round(x * math.Pow10(decimals))
	}
	return math.Round(x / math.Pow10(-decimals))
}
