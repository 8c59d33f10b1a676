package reasoning

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/types"
)

// ExtractJSONBlock 返回原始输出中的第一个 JSON 对象。
// 优先取 ```json 代码块，否则取第一个括号配平的 {...}。
func ExtractJSONBlock(raw string) (string, error) {
	if i := strings.Index(raw, "```json"); i >= 0 {
		rest := raw[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			if block := strings.TrimSpace(rest[:j]); block != "" {
				return block, nil
			}
		}
	}

	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unterminated JSON object", ErrMalformedOutput)
}

type rawPoint struct {
	X     *float64  `json:"x"`
	Y     *float64  `json:"y"`
	Box2D []float64 `json:"box_2d"`
}

type rawPath struct {
	Start rawPoint `json:"start_point"`
	End   rawPoint `json:"end_point"`
}

type rawOutput struct {
	ChallengePrompt string     `json:"challenge_prompt"`
	Coordinates     []rawPoint `json:"coordinates"`
	Points          []rawPoint `json:"points"`
	Paths           []rawPath  `json:"paths"`
}

// payloadSpace 载荷图片的像素尺寸，用于归一化
type payloadSpace struct {
	width, height float64
}

// normalize 把像素坐标转为分数坐标。
// 只有两个分量都在 [0,1] 内且至少一个带小数时才视为分数坐标，
// (1, 0) 这类整数输出按像素处理。
func (s payloadSpace) normalize(p rawPoint) (types.Point, error) {
	if len(p.Box2D) == 4 {
		// [ymin, xmin, ymax, xmax]，0..1000 归一化
		return types.Point{
			X: clamp01((p.Box2D[1] + p.Box2D[3]) / 2 / 1000),
			Y: clamp01((p.Box2D[0] + p.Box2D[2]) / 2 / 1000),
		}, nil
	}
	if p.X == nil || p.Y == nil {
		return types.Point{}, fmt.Errorf("%w: point without x/y", ErrMalformedOutput)
	}
	x, y := *p.X, *p.Y
	if x < 0 || y < 0 {
		return types.Point{}, fmt.Errorf("%w: negative coordinate (%g, %g)", ErrMalformedOutput, x, y)
	}
	if fractional(x, y) {
		return types.Point{X: x, Y: y}, nil
	}
	if s.width <= 0 || s.height <= 0 {
		return types.Point{}, fmt.Errorf("%w: pixel coordinate without payload size", ErrMalformedOutput)
	}
	return types.Point{X: clamp01(x / s.width), Y: clamp01(y / s.height)}, nil
}

// ParseSolution 把原始输出解析为 d 对应类别的 Solution
func ParseSolution(raw string, d *classifier.Descriptor, width, height int) (*Solution, error) {
	block, err := ExtractJSONBlock(raw)
	if err != nil {
		return nil, err
	}
	var out rawOutput
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	space := payloadSpace{width: float64(width), height: float64(height)}
	sol := &Solution{Category: d.Category()}

	switch sol.Category {
	case types.CategoryImageClassification:
		seen := make(map[int]bool)
		for _, c := range out.Coordinates {
			if len(c.Box2D) != 2 {
				return nil, fmt.Errorf("%w: box_2d must be [row, col]", ErrMalformedOutput)
			}
			row, col := int(c.Box2D[0]), int(c.Box2D[1])
			if row < 0 || col < 0 || row >= d.Grid.Rows || col >= d.Grid.Cols {
				return nil, fmt.Errorf("%w: tile [%d, %d] outside %dx%d grid", ErrMalformedOutput, row, col, d.Grid.Rows, d.Grid.Cols)
			}
			idx := row*d.Grid.Cols + col
			if idx >= len(d.Tiles) {
				return nil, fmt.Errorf("%w: tile [%d, %d] does not exist", ErrMalformedOutput, row, col)
			}
			if !seen[idx] {
				seen[idx] = true
				sol.Regions = append(sol.Regions, idx)
			}
		}

	case types.CategorySpatialPoint:
		points := out.Points
		if len(points) == 0 {
			points = out.Coordinates
		}
		for _, p := range points {
			pt, err := space.normalize(p)
			if err != nil {
				return nil, err
			}
			sol.Points = append(sol.Points, pt)
		}
		if len(sol.Points) == 0 {
			return nil, fmt.Errorf("%w: no points", ErrMalformedOutput)
		}
		if d.Type == types.ChallengeImageLabelSingleSelect {
			sol.Points = sol.Points[:1]
		}

	case types.CategorySpatialPath:
		for _, p := range out.Paths {
			start, err := space.normalize(p.Start)
			if err != nil {
				return nil, err
			}
			end, err := space.normalize(p.End)
			if err != nil {
				return nil, err
			}
			sol.Paths = append(sol.Paths, Path{Start: start, End: end})
		}
		if len(sol.Paths) == 0 {
			return nil, fmt.Errorf("%w: no paths", ErrMalformedOutput)
		}
		if d.Type == types.ChallengeImageDragSingle {
			sol.Paths = sol.Paths[:1]
		}

	default:
		return nil, fmt.Errorf("%w: unknown category %q", ErrMalformedOutput, sol.Category)
	}

	return sol, nil
}

func fractional(x, y float64) bool {
	if x > 1 || y > 1 {
		return false
	}
	return x != math.Trunc(x) || y != math.Trunc(y)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
