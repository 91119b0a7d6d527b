// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"trihash/internal/cache"
	"trihash/internal/coordsys"
	"trihash/internal/ipgeo"
	"trihash/internal/metrics"
	"trihash/internal/store"
	"trihash/internal/trihash"
	"trihash/internal/version"
)

// PointStore：/cells 与统计所需的存储能力
type PointStore interface {
	PointsByPrefix(ctx context.Context, prefix string, limit int) ([]store.Point, error)
	IncrStats(ctx context.Context, failed bool)
}

// 文档注释：路由依赖
// 约束：Enc 必填；Store 与GeoIP 可为空，对应路由返回 404。
type Deps struct {
	Enc          *cache.Encoder
	Store        PointStore
	GeoIP        ipgeo.Lookuper
	DefaultDepth int
}

type hashResult struct {
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Coord  string   `json:"coord,omitempty"`
	Depth  int      `json:"depth"`
	Hash   string   `json:"hash"`
	Hashes []string `json:"hashes,omitempty"`
}

type ipResult struct {
	ipgeo.Location
	Depth int    `json:"depth"`
	Hash  string `json:"hash"`
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	if d.Enc == nil {
		d.Enc = cache.NewEncoder(nil, nil, nil)
	}
	if d.DefaultDepth < 0 || d.DefaultDepth > trihash.MaxDepth {
		d.DefaultDepth = trihash.Km6
	}
	h := &handlers{Deps: d}
	mux := http.NewServeMux()
	mux.Handle("/hash", instrument("hash", h.hash))
	mux.Handle("/cell", instrument("cell", h.cell))
	mux.Handle("/children", instrument("children", h.children))
	mux.Handle("/mesh", instrument("mesh", h.mesh))
	mux.Handle("/depths", instrument("depths", h.depths))
	mux.Handle("/ip", instrument("ip", h.ip))
	mux.Handle("/cells", instrument("cells", h.cells))
	mux.Handle("/version", instrument("version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"commit": version.Commit})
	}))
	return mux
}

func instrument(route string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(sr, r)
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(sr.status/100)+"xx").Inc()
	})
}

type handlers struct {
	Deps
}

// GET /hash?lat=&lon=&depth=&all=1&coord=gcj02
func (h *handlers) hash(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		writeError(w, r, err)
		return
	}
	depth, _, err := intParam(r, "depth", h.DefaultDepth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sys, err := coordsys.Parse(r.URL.Query().Get("coord"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadParam, err))
		return
	}
	wlat, wlon := coordsys.ToWGS84(sys, lat, lon)
	all, err := h.Enc.EncodeAll(r.Context(), wlat, wlon, depth)
	h.stats(r.Context(), err != nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := hashResult{Lat: lat, Lon: lon, Depth: depth, Hash: all[len(all)-1]}
	if sys != coordsys.WGS84 {
		res.Coord = string(sys)
	}
	if boolParam(r, "all") {
		res.Hashes = all
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /cell?hash=&format=geojson
func (h *handlers) cell(w http.ResponseWriter, r *http.Request) {
	c, err := h.Enc.Inner().Cell(r.URL.Query().Get("hash"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, c.Feature())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GET /children?hash=
func (h *handlers) children(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	cs, err := h.Enc.Inner().Children(hash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hash": hash, "children": cs})
}

// GET /mesh?depth=
func (h *handlers) mesh(w http.ResponseWriter, r *http.Request) {
	depth, _, err := intParam(r, "depth", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tiles, err := h.Enc.Inner().Mesh(depth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("content-type", "application/geo+json; charset=utf-8")
	writeJSON(w, http.StatusOK, trihash.MeshGeoJSON(tiles))
}

// GET /depths
func (h *handlers) depths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, trihash.Depths())
}

// 文档注释：GET /ip?ip=&depth=
// 背景：未指定深度时按库给出的精度半径选择深度，避免返回比定位精度细得多的单元。
func (h *handlers) ip(w http.ResponseWriter, r *http.Request) {
	if h.GeoIP == nil {
		writeError(w, r, fmt.Errorf("%w: geoip", errDisabled))
		return
	}
	loc, err := h.GeoIP.Lookup(getClientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	depth, given, err := intParam(r, "depth", h.DefaultDepth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !given && loc.AccuracyKm > 0 {
		if d, err := trihash.DepthForKm(float64(loc.AccuracyKm)); err == nil {
			depth = d
		}
	}
	hash, err := h.Enc.Encode(r.Context(), loc.Lat, loc.Lon, depth)
	h.stats(r.Context(), err != nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ipResult{Location: loc, Depth: depth, Hash: hash})
}

// GET /cells?prefix=&limit=
func (h *handlers) cells(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, r, fmt.Errorf("%w: store", errDisabled))
		return
	}
	limit, _, err := intParam(r, "limit", store.DefaultLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefix := r.URL.Query().Get("prefix")
	pts, err := h.Store.PointsByPrefix(r.Context(), prefix, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prefix": prefix, "count": len(pts), "points": pts})
}

func (h *handlers) stats(ctx context.Context, failed bool) {
	if h.Store != nil {
		h.Store.IncrStats(ctx, failed)
	}
}
