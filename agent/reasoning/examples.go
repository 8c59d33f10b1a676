package reasoning

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"slices"
)

// LoadExamples 读取 dir 下的全部 PNG 示例图片，按文件名排序
func LoadExamples(dir string) ([]Image, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("list examples: %w", err)
	}
	slices.Sort(paths)

	images := make([]Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read example %s: %w", p, err)
		}
		if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("decode example %s: %w", p, err)
		}
		images = append(images, Image{Name: filepath.Base(p), MIMEType: "image/png", Data: data})
	}
	return images, nil
}
