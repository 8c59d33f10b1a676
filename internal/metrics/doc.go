// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的挑战求解指标采集。

# 概述

Collector 实现 agent.Observer，使用 promauto 注册到默认 Registry，
所有指标按 namespace 隔离。

# 指标

  - 会话：sessions_total、session_duration_seconds、session_rounds，
    按终态分组；state_transitions_total 按 from_state/to_state 分组。
  - 回合：rounds_total 按 challenge_type/result 分组，
    round_duration_seconds 记录回合耗时。
  - 推理：inference_requests_total 按 category/model/status 分组，
    status 取 types.ErrorCode；另有耗时与重试次数直方图。
  - 答案缓存：answer_cache_hits_total 与 answer_cache_misses_total。
  - 交互：actions_total 与 action_duration_seconds，按动作名分组。
*/
package metrics
