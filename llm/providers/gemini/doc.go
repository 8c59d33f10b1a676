// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 gemini 基于 Google Gen AI SDK 实现 reasoning.Backend。

请求由载荷图片与文字提示组成，系统提示放在 SystemInstruction，
温度取自 config.GeminiConfig，并要求模型以 JSON 输出。

SDK 错误按 HTTP 状态码映射为 types.Error：429 与 5xx 可重试，
鉴权、配额与请求错误不重试。重试本身由 reasoning.Router 负责。
*/
package gemini
