// Package config 提供 challenger 的配置管理功能。
//
// AgentConfig 是求解策略（忽略列表、各任务类别的模型、轮数与超时），
// 构造后只读并在会话间共享；Config 聚合浏览器、推理后端、缓存、
// 日志、指标与遥测等外围配置。支持默认值 → YAML 文件 → 环境变量
// 的分层加载。
package config
