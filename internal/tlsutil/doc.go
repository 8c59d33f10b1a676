// Package tlsutil 提供集中式 TLS 配置，
// 为推理后端的 HTTP 客户端与 Redis 连接提供加固设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
