// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 arm 把答案执行为一串拟人化的指针事件。

每次移动都沿三次贝塞尔曲线前进，路点数与距离成正比，中间路点带
抖动，路点之间、按下与抬起之间都有随机停顿。点击区域时落点在目标
框中心附近随机偏移，但始终位于框内。

控件的任何指针错误都会变成 *InteractionLost（包装 ErrInteractionLost），
会话随即终止且不重试；ctx 取消按取消原样返回。提交或刷新按钮缺失时
返回 ErrElementMissing，只让本轮失败。
*/
package arm
