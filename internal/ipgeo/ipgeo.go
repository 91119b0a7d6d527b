// 包 ipgeo：基于 MaxMind City 库把 IP 解析为坐标，供 /ip 接口直接编码
package ipgeo

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"trihash/internal/logger"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

var (
	ErrBadIP    = errors.New("ipgeo: invalid ip")
	ErrNotFound = errors.New("ipgeo: no location for ip")
)

// Location：一次查询结果；AccuracyKm 为库给出的精度半径
type Location struct {
	IP         string  `json:"ip"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AccuracyKm uint16  `json:"accuracy_km"`
	Country    string  `json:"country"`
	City       string  `json:"city"`
}

// Info：数据库元信息
type Info struct {
	DatabaseType string    `json:"database_type"`
	BuildTime    time.Time `json:"build_time"`
	IPVersion    uint      `json:"ip_version"`
	NodeCount    uint      `json:"node_count"`
}

// Lookuper：按 IP 查询坐标
type Lookuper interface {
	Lookup(ip string) (Location, error)
}

// DB：City 库读取器
type DB struct {
	info Info
	city *geoip2.Reader
	lang string
}

// 文档注释：打开 City 库
// 背景：先以 maxminddb 打开并做结构校验（Verify）与类型检查，确认是含坐标的 City 库后再交给 geoip2 读取；
// 库文件损坏时在启动阶段失败，而不是在请求中返回错乱的坐标。
// 约束：lang 为名称语言（如 zh-CN），缺失时回退 en。
func Open(path, lang string) (*DB, error) {
	raw, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ipgeo: open %s: %w", path, err)
	}
	if err := raw.Verify(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ipgeo: verify %s: %w", path, err)
	}
	md := raw.Metadata
	raw.Close()
	if !strings.Contains(md.DatabaseType, "City") {
		return nil, fmt.Errorf("ipgeo: %s is %q, want a City database", path, md.DatabaseType)
	}
	city, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ipgeo: open %s: %w", path, err)
	}
	if lang == "" {
		lang = "en"
	}
	info := Info{
		DatabaseType: md.DatabaseType,
		BuildTime:    time.Unix(int64(md.BuildEpoch), 0).UTC(),
		IPVersion:    md.IPVersion,
		NodeCount:    md.NodeCount,
	}
	logger.L().Info("geoip_ready", "type", info.DatabaseType, "build", info.BuildTime, "nodes", info.NodeCount)
	return &DB{info: info, city: city, lang: lang}, nil
}

func (d *DB) Info() Info { return d.info }

func (d *DB) Close() error { return d.city.Close() }

// 文档注释：查询 IP 坐标
// 异常：非法 IP 返回 ErrBadIP；库中无坐标（仅国家级或保留地址）返回 ErrNotFound。
func (d *DB) Lookup(ip string) (Location, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Location{}, fmt.Errorf("%w: %q", ErrBadIP, ip)
	}
	rec, err := d.city.City(parsed)
	if err != nil {
		return Location{}, err
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		logger.L().Debug("geoip_miss", "ip", ip)
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, ip)
	}
	return Location{
		IP:         parsed.String(),
		Lat:        rec.Location.Latitude,
		Lon:        rec.Location.Longitude,
		AccuracyKm: rec.Location.AccuracyRadius,
		Country:    pickName(rec.Country.Names, d.lang),
		City:       pickName(rec.City.Names, d.lang),
	}, nil
}

func pickName(names map[string]string, lang string) string {
	if v := names[lang]; v != "" {
		return v
	}
	return names["en"]
}
