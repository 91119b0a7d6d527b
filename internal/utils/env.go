// 包 utils：环境变量读取、数据库与 Redis 连接、自签名证书等入口共用的工具
package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv：依次加载 .env 与 data/env/.env；已存在的环境变量不会被覆盖，文件缺失忽略
func LoadEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// EnvString：读取字符串，空值回退默认
func EnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvInt：读取整数，空值或解析失败回退默认
func EnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvBool：读取布尔，仅 true/1/yes 视为真，空值回退默认
func EnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "true", "1", "yes":
		return true
	}
	return false
}
