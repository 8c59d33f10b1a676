// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
challenger 命令行入口。

solve 子命令按配置组装日志、遥测、Redis 缓存、Prometheus 指标服务器、
Gemini 推理后端与 chromedp 浏览器池，为每个会话打开页面并并发求解，
成功的 CaptchaResponse 以 JSON 行写到标准输出。
*/
package main
