package middleware

import (
	"net"
	"net/http"
	"os"
	"strings"

	"trihash/internal/logger"
)

// 文档注释：来源 IP 白名单（单 IP + CIDR）
// 背景：/metrics 暴露内部计数，只允许采集端与本机访问；其他来源统一返回 403。
// 约束：来源以 RemoteAddr 为准；部署在反向代理后时通过 header 指定上游真实 IP 头（取首个有效 IP）。
// 列表为空时放行全部请求，便于本地调试。
type Allowlist struct {
	ips    map[string]struct{}
	cidrs  []*net.IPNet
	header string
}

// NewAllowlist：entries 可混合单 IP 与 CIDR（v4/v6），无法解析的条目忽略并记 warn
func NewAllowlist(entries []string, header string) *Allowlist {
	a := &Allowlist{ips: map[string]struct{}{}, header: strings.TrimSpace(header)}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			if _, n, err := net.ParseCIDR(e); err == nil {
				a.cidrs = append(a.cidrs, n)
				continue
			}
		} else if ip := net.ParseIP(e); ip != nil {
			a.ips[ip.String()] = struct{}{}
			continue
		}
		logger.L().Warn("allowlist_bad_entry", "entry", e)
	}
	return a
}

// AllowlistFromEnv：METRICS_ALLOW_IPS 逗号分隔；METRICS_ALLOW_LOCAL=true 追加 127.0.0.1 与 ::1；
// METRICS_REAL_IP_HEADER 指定真实 IP 头
func AllowlistFromEnv() *Allowlist {
	var entries []string
	if s := os.Getenv("METRICS_ALLOW_IPS"); s != "" {
		entries = strings.Split(s, ",")
	}
	if os.Getenv("METRICS_ALLOW_LOCAL") == "true" {
		entries = append(entries, "127.0.0.1", "::1")
	}
	return NewAllowlist(entries, os.Getenv("METRICS_REAL_IP_HEADER"))
}

// Empty：未配置任何条目
func (a *Allowlist) Empty() bool { return len(a.ips) == 0 && len(a.cidrs) == 0 }

// Allowed：判断 IP 是否在允许集合
func (a *Allowlist) Allowed(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if _, ok := a.ips[ip.String()]; ok {
		return true
	}
	for _, n := range a.cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Guard：生成 http.Handler 中间件
func (a *Allowlist) Guard(next http.Handler) http.Handler {
	if a.Empty() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := a.sourceIP(r)
		if a.Allowed(ip) {
			next.ServeHTTP(w, r)
			return
		}
		logger.L().Debug("allowlist_block", "ip", ip.String(), "path", r.URL.Path)
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}` + "\n"))
	})
}

func (a *Allowlist) sourceIP(r *http.Request) net.IP {
	if a.header != "" {
		if raw := r.Header.Get(a.header); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}
