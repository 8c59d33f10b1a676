// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 challenger 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，避免重复实现
相似的测试基础设施。

# 核心能力

  - TestContext: 带超时的上下文，自动注册 Cleanup 防止泄漏
  - SolidPNG: 按 seed 着色的纯色 PNG，用作挑战载荷

# 子包

  - testutil/mocks: 脚本化的 Widget（挑战控件）与 Backend（推理后端）
    测试替身，支持 Builder 模式、错误注入与调用计数
  - testutil/fixtures: 各挑战变体的预置快照

# 使用示例

	ctx := testutil.TestContext(t)
	widget := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.AreaSelectScreen("Select the bus"))
	backend := mocks.NewBackend().WithOutput(`{"points":[{"x":0.5,"y":0.5}]}`)
*/
package testutil
