// Package telemetry 封装 OpenTelemetry SDK 初始化，
// 为求解会话提供 TracerProvider 与 MeterProvider（OTLP gRPC 导出）。
// 禁用时不连接任何外部服务，Tracer 返回全局 noop 实现。
package telemetry
