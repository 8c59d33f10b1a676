// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供命令行运行期间的指标 HTTP 服务器。

Manager 暴露 /metrics（promhttp）与 /healthz 两个端点，
非阻塞启动，Shutdown 按 ShutdownTimeout 优雅关闭，
异步服务错误通过 Errors 通道上报。
*/
package server
