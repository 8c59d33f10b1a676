package reasoning

import (
	"github.com/BaSui01/challenger/types"
)

// Path 一次拖拽，坐标为载荷图片内的分数坐标 (0..1)
type Path struct {
	Start types.Point `json:"start"`
	End   types.Point `json:"end"`
}

// Solution 任务类别对应的结构化答案。
// Points 与 Paths 均为载荷图片空间内的分数坐标，Regions 为图片格下标。
type Solution struct {
	Category types.TaskCategory `json:"category"`
	Regions  []int              `json:"regions,omitempty"`
	Points   []types.Point      `json:"points,omitempty"`
	Paths    []Path             `json:"paths,omitempty"`
}

// fits 报告答案能否作用于有 tiles 个图片格的挑战
func (s *Solution) fits(category types.TaskCategory, tiles int) bool {
	if s == nil || s.Category != category {
		return false
	}
	switch category {
	case types.CategoryImageClassification:
		for _, r := range s.Regions {
			if r < 0 || r >= tiles {
				return false
			}
		}
		return true
	case types.CategorySpatialPoint:
		return len(s.Points) > 0 && allFractional(s.Points...)
	case types.CategorySpatialPath:
		if len(s.Paths) == 0 {
			return false
		}
		for _, p := range s.Paths {
			if !allFractional(p.Start, p.End) {
				return false
			}
		}
		return true
	}
	return false
}

func allFractional(points ...types.Point) bool {
	for _, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return false
		}
	}
	return true
}
