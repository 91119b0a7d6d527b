// 包 version：构建信息，由 -ldflags "-X trihash/internal/version.Commit=<sha>" 注入
package version

// Commit：构建时的提交哈希，本地构建为 dev
var Commit = "dev"
