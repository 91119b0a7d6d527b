package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"trihash/internal/ipgeo"
	"trihash/internal/logger"
	"trihash/internal/sphere"
	"trihash/internal/trihash"
)

// errBadParam：查询参数缺失或格式错误
var errBadParam = errors.New("bad parameter")

// errDisabled：可选后端未配置
var errDisabled = errors.New("backend not configured")

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("content-type") == "" {
		w.Header().Set("content-type", "application/json; charset=utf-8")
	}
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// 文档注释：按错误类别映射状态码
// 背景：越界与格式错误属于调用方问题返回 400；定位失败与退化几何是网格缺陷，返回 500 并记 error 日志，
// 便于从日志中拿到完整的候选三角形信息复现。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadParam), errors.Is(err, sphere.ErrRange),
		errors.Is(err, trihash.ErrMalformedHash), errors.Is(err, ipgeo.ErrBadIP):
		status = http.StatusBadRequest
	case errors.Is(err, errDisabled), errors.Is(err, ipgeo.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logger.L().Error("api_error", "path", r.URL.Path, "query", r.URL.RawQuery, "kind", sphere.KindOf(err), "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func floatParam(r *http.Request, name string) (float64, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, fmt.Errorf("%w: %s is required", errBadParam, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", errBadParam, name, s)
	}
	return v, nil
}

// intParam：缺省时返回 def 与 false
func intParam(r *http.Request, name string, def int) (int, bool, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s=%q is not an integer", errBadParam, name, s)
	}
	return v, true, nil
}

func boolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// statusRecorder：记录状态码用于按路由统计
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
