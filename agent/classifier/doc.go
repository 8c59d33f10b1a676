// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 classifier 识别当前渲染的挑战变体，并提取题目与视觉载荷。

Classify 只读：它读取控件快照、截取载荷图片，不发出任何指针事件。
变体按固定优先级匹配，第一个命中者胜出：

 1. image_drag_multi：画布 + 多个可拖拽标记，或题目含拖拽提示且含 "each"
 2. image_drag_single：画布 + 可拖拽标记，或题目含 "drag" / "move"
 3. image_label_multi_select：画布 + 题目含 "all" / "each" / "every"
 4. image_label_single_select：画布
 5. image_label_binary：至少一个图片格

拖拽与区域选择共用同一个画布容器，所以拖拽规则排在前面。没有挑战
时返回 ErrNotReady，布局未知时返回 *UnclassifiedError。

WaitForChallenge 是唯一的等待原语：内部轮询，ctx 结束时立即返回。
*/
package classifier
