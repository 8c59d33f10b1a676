// Package logging 根据 config.LogConfig 构建 zap logger：
// 级别、json/console 编码、输出路径、调用者信息与堆栈跟踪。
package logging
