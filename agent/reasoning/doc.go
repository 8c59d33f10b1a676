// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 reasoning 把已分类的挑战路由到对应的推理模型，并把模型输出
映射为结构化答案。

# 概述

每个 ChallengeType 属于唯一的任务类别（图片分类、空间点、空间路径），
每个类别在 config.AgentConfig 中配置一个模型。Router 负责选择模型、
组装提示与图片、调用 Backend，并把原始文本解析为 Solution。

# 核心接口

  - Backend：推理后端，Infer(ctx, *InferRequest) 返回模型原始文本
  - Router：Solve(ctx, *classifier.Descriptor) 返回 *Solution
  - Cache：可选的答案缓存，键为 (模型, 挑战指纹)；只保存验证通过的
    答案，由 Router.Remember 写入
  - Observer：可选的指标观察者

# 坐标约定

Solution 中的点与路径一律为载荷图片内的分数坐标 (0..1)。模型可以
返回像素坐标、分数坐标或 0..1000 归一化的 box_2d，均在本包边界处
统一换算，交互层无需关心截图分辨率。

# 失败处理

单次调用受 BackendTimeout 约束，按 ReasoningRetries 以固定间隔重试；
超时、畸形输出与可重试的上游错误视为瞬时失败。重试耗尽后返回
*ReasoningFailure。调用方 ctx 结束时立即返回，错误包装
types.ErrTimeoutExceeded。

空间类载荷发送原始截图，并可追加一张叠加坐标网格的副本
（DrawGridDivisions）。空间路径类可附带 SCoTDir 中的示例图片，
EnableResponseSchema 时后端按类别约束输出结构。同模型的并发请求
可按 ReasoningRPS 限流。
*/
package reasoning
