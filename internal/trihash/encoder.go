// 包 trihash：二十面体三角网格地理哈希编码
// 背景：哈希格式为 "<根编号>|<逐层子三角形位置>"，例如 "15|2222" 表示根三角形 15 下连续四层落在 A 角子三角形；
// 深度 0 只有根编号（"15|"）。前缀关系即空间包含关系，可直接用于前缀查询。
package trihash

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"trihash/internal/icosa"
	"trihash/internal/logger"
	"trihash/internal/sphere"
)

// Separator：根编号与层级位之间的分隔符
const Separator = "|"

// 文档注释：哈希编码器
// 背景：只持有共享的只读根索引，单次调用的状态都在栈上，可被多协程并发使用。
type Encoder struct {
	idx *icosa.Index
}

// NewEncoder：基于共享索引构造编码器；idx 为空时自建
func NewEncoder(idx *icosa.Index) *Encoder {
	if idx == nil {
		idx = icosa.New()
	}
	return &Encoder{idx: idx}
}

// Index：返回底层根索引
func (e *Encoder) Index() *icosa.Index { return e.idx }

// Encode：返回指定深度的哈希
func (e *Encoder) Encode(lat, lon float64, depth int) (string, error) {
	h, _, err := e.walk("Encoder.Encode", lat, lon, depth, nil)
	return h, err
}

// 文档注释：返回从深度 0 到指定深度的全部前缀
// 约束：结果长度为 depth+1，第 i 项为深度 i 的哈希，后一项总以前一项为前缀。
func (e *Encoder) EncodeAll(lat, lon float64, depth int) ([]string, error) {
	if err := validate("Encoder.EncodeAll", lat, lon, depth); err != nil {
		return nil, err
	}
	out := make([]string, 0, depth+1)
	_, _, err := e.walk("Encoder.EncodeAll", lat, lon, depth, func(h string) { out = append(out, h) })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Locate：返回指定深度下包含该坐标的三角形本身
func (e *Encoder) Locate(lat, lon float64, depth int) (*sphere.Triangle, error) {
	_, t, err := e.walk("Encoder.Locate", lat, lon, depth, nil)
	return t, err
}

// 文档注释：迭代下钻
// 背景：先由根索引定位，再逐层在四个子三角形中选中包含点者；每层结束时回调当前前缀。
// 异常：越界输入返回 RangeError；某层无子三角形命中返回 LocationError，不做重试（计算确定，重试结果相同）。
func (e *Encoder) walk(op string, lat, lon float64, depth int, visit func(string)) (string, *sphere.Triangle, error) {
	if err := validate(op, lat, lon, depth); err != nil {
		return "", nil, err
	}
	p := sphere.FromCoordinates(lat, lon)
	t, err := e.idx.Locate(p)
	if err != nil {
		logger.L().Debug("trihash_root_miss", "lat", lat, "lon", lon, "err", err)
		return "", nil, err
	}
	var b strings.Builder
	b.Grow(3 + depth)
	b.WriteString(strconv.Itoa(t.Pos))
	b.WriteString(Separator)
	if visit != nil {
		visit(b.String())
	}
	for d := 0; d < depth; d++ {
		next, err := t.NextChild(p)
		if err != nil {
			logger.L().Debug("trihash_child_miss", "lat", lat, "lon", lon, "prefix", b.String(), "level", d+1)
			return "", nil, err
		}
		t = next
		b.WriteByte(byte('0' + t.Pos))
		if visit != nil {
			visit(b.String())
		}
	}
	return b.String(), t, nil
}

func validate(op string, lat, lon float64, depth int) error {
	re := &sphere.RangeError{Op: op, Lat: lat, Lon: lon, Depth: depth}
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0):
		re.Reason = "coordinates must be finite"
	case lat < -90 || lat > 90:
		re.Reason = "latitude outside [-90, 90]"
	case lon < -180 || lon > 180:
		re.Reason = "longitude outside [-180, 180]"
	case depth < 0 || depth > MaxDepth:
		re.Reason = "depth outside [0, " + strconv.Itoa(MaxDepth) + "]"
	default:
		return nil
	}
	return re
}

var defaultEncoder = sync.OnceValue(func() *Encoder { return NewEncoder(nil) })

// Default：进程级共享编码器（首次使用时构造根索引）
func Default() *Encoder { return defaultEncoder() }

// Encode：使用共享编码器编码
func Encode(lat, lon float64, depth int) (string, error) { return Default().Encode(lat, lon, depth) }

// EncodeAll：使用共享编码器返回全部前缀
func EncodeAll(lat, lon float64, depth int) ([]string, error) {
	return Default().EncodeAll(lat, lon, depth)
}
