package gemini

import (
	"google.golang.org/genai"

	"github.com/BaSui01/challenger/types"
)

// responseSchema 返回与 reasoning.ParseSolution 对应的输出结构，未知类别返回 nil
func responseSchema(category types.TaskCategory) *genai.Schema {
	var field string
	var item *genai.Schema
	switch category {
	case types.CategoryImageClassification:
		field = "coordinates"
		item = object(map[string]*genai.Schema{
			"box_2d": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeInteger}},
		}, "box_2d")
	case types.CategorySpatialPoint:
		field = "points"
		item = point()
	case types.CategorySpatialPath:
		field = "paths"
		item = object(map[string]*genai.Schema{
			"start_point": point(),
			"end_point":   point(),
		}, "start_point", "end_point")
	default:
		return nil
	}

	return object(map[string]*genai.Schema{
		"challenge_prompt": {Type: genai.TypeString},
		field:              {Type: genai.TypeArray, Items: item},
	}, "challenge_prompt", field)
}

func point() *genai.Schema {
	return object(map[string]*genai.Schema{
		"x": {Type: genai.TypeNumber},
		"y": {Type: genai.TypeNumber},
	}, "x", "y")
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}
