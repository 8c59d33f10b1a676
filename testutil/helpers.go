// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 会话测试共用的上下文与载荷图片
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	payload := testutil.SolidPNG(360, 360, 7)
// =============================================================================
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

// TestContext 返回 30 秒后超时的上下文，测试结束时取消
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// SolidPNG 生成纯色 PNG，seed 决定颜色，便于构造不同的载荷
func SolidPNG(width, height int, seed uint8) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{R: seed, G: 255 - seed, B: seed / 2, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
