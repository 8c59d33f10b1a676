// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 agent 协调一次“复选框 + 挑战”求解会话：触发控件、等待挑战、
识别变体、调用推理、执行答案并验证结果。

# 状态机

	idle → triggered → awaiting_challenge → classifying → solving → verifying
	                                                                   │
	            ┌──────────────────── 新挑战 / 推理失败 ─────────────────┘
	            ▼
	       classifying …                 终态：resolved | skipped | failed

resolved、skipped、failed 是会话终态，可以重新 Trigger 开始新会话；
成功会话的 CaptchaResponse 追加到 Agent 的结果列表，不会覆盖之前的结果。

# 核心接口

  - New：校验配置并组装 classifier、reasoning.Router 与 arm.Arm
  - Trigger / WaitForChallenge / Solve：分步驱动会话
  - Run：一次性执行完整会话
  - Responses / LastResponse / LastOutcome / State：只读访问器
  - RunConcurrent：并行运行多个互不相关的会话

# 错误处理

跳过、超时、轮数耗尽属于预期结果，以 Outcome 返回；会话超时与单轮
超时都使会话 failed。控件失联
（ErrInteractionLost）等意外错误同时返回 Outcome 与 error。
各组件的哨兵错误在本包重新导出，调用方只需依赖 agent。
*/
package agent
