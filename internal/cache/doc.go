// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的答案缓存与结果下游。

# 核心类型

  - Manager：封装 go-redis 客户端，负责连接、键前缀与关闭，
    提供 Get/Set/GetJSON/SetJSON/Delete 以及列表 Append/List。
  - AnswerCache：实现 reasoning.Cache，按 (模型, 挑战指纹) 缓存答案，
    过期时间取 CacheConfig.AnswerTTL。
  - ResponseSink：接收 agent 的成功记录，追加到全局列表与会话列表，
    列表保留 CacheConfig.ResponseTTL，与令牌有效期对齐。

未命中返回 ErrCacheMiss，可用 IsCacheMiss 判断。
*/
package cache
