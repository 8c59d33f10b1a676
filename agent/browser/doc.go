// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 browser 定义挑战控件的浏览器侧边界。

# 概述

求解核心只通过 Widget 接口接触页面：读取结构化快照、截取
载荷图片、查询入口复选框位置，以及发送底层指针事件。页面
导航、框架访问与截图实现都留在本包内部。

# 核心接口

  - Widget：Snapshot / Capture / CheckboxBox 三个只读查询，
    外加 MoveMouse / MouseDown / MouseUp 三个指针原语
  - Snapshot：某一时刻的控件视图，包含题目文本、画布容器、
    图片格、可拖拽标记、提交与刷新按钮、错误提示与令牌
  - PooledWidget：可归还到 Pool 的 Widget

# 内置实现

ChromeDPWidget 基于 chromedp 驱动 Chrome，通过 CSS 选择器
（Selectors）定位复选框 iframe 与挑战 iframe 内的元素。句柄失效
（标签页关闭、浏览器退出）时返回 ErrWidgetDetached。

Pool 在多会话并发时为每个会话分配独占的句柄，支持预创建、
阻塞获取、归还、丢弃失效句柄与统一关闭。
*/
package browser
