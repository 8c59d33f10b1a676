// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 challenger 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 config、agent 及其子包
提供统一的类型契约，避免循环依赖。

# 核心类型

  - ChallengeType   — 封闭的挑战变体枚举（binary / area select / drag drop）
  - RequestType     — 挑战所属的请求族，忽略列表可按族匹配
  - TaskCategory    — 推理后端类别，每个类别对应一个模型配置
  - Point / BoundingBox — 视口坐标几何
  - Error / ErrorCode   — 带错误码与可重试标记的结构化错误
*/
package types
