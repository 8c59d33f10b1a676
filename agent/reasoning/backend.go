package reasoning

import (
	"context"

	"github.com/BaSui01/challenger/types"
)

// Image 发送给后端的一张图片
type Image struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// InferRequest 一次推理调用
type InferRequest struct {
	Category     types.TaskCategory `json:"category"`
	Model        string             `json:"model"`
	SystemPrompt string             `json:"system_prompt"`
	Prompt       string             `json:"prompt"`
	// Examples 示例图片，排在挑战图片之前
	Examples []Image `json:"examples,omitempty"`
	// Images 挑战图片：原始截图在前，叠加网格的版本（如有）在后
	Images []Image `json:"images"`
	// StructuredOutput 要求后端按 Category 的 JSON Schema 约束输出
	StructuredOutput bool `json:"structured_output"`
}

// Backend 推理后端，返回模型原始文本输出
type Backend interface {
	Infer(ctx context.Context, req *InferRequest) (string, error)
}
