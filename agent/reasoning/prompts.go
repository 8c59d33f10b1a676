package reasoning

import (
	"fmt"
	"strings"

	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/types"
)

const classificationPrompt = `
<instructions>
Solve the visual challenge by selecting every image tile that matches the challenge prompt.
</instructions>

<challenge_analysis>
1. Read the challenge prompt and decide what a matching tile must show.
2. The screenshot is a grid of image tiles. Rows and columns are counted from zero, starting at the top-left tile.
3. Inspect every tile independently and keep only the ones that clearly match.
</challenge_analysis>

<output>
Provide the solution as a JSON object. Adhere strictly to the following format:

` + "```json" + `
{
  "challenge_prompt": "task description",
  "coordinates": [
    {"box_2d": [row, col]}
  ]
}
` + "```" + `
</output>
`

const spatialPointPrompt = `
<instructions>
Solve the visual challenge by locating the exact point(s) the challenge prompt asks you to click.
</instructions>

<challenge_analysis>
1. Read the challenge prompt and identify the target object or region.
2. Use the coordinate grid drawn on the image (or the image dimensions) to measure positions in pixels.
3. For each target, determine the pixel coordinates (x, y) of its visual center.
</challenge_analysis>

<output>
Provide the solution as a JSON object. Adhere strictly to the following format:

` + "```json" + `
{
  "challenge_prompt": "task description",
  "points": [
    {"x": target_center_x, "y": target_center_y}
  ]
}
` + "```" + `
</output>
`

const spatialPathPrompt = `
<instructions>
Solve the visual challenge by accurately dragging the provided piece to complete the main shape.
</instructions>

<challenge_analysis>
1. Understand the task: the piece must be dragged into the gap it was cut from, making the shape whole.
2. Identify the movable piece: the distinct, separate image segment, often inside a box or highlighted area.
3. Identify the target location: the gap, notch or missing section whose contour the piece completes.
4. Determine coordinates with the provided coordinate grid (or the image dimensions): the center of the piece is the start_point, the center of the gap is the end_point.
5. Formulate one path per piece, from start_point to end_point.
</challenge_analysis>

<output>
Provide the solution as a JSON object containing the challenge prompt description and the calculated path(s). Adhere strictly to the following format:

` + "```json" + `
{
  "challenge_prompt": "task description",
  "paths": [
    {"start_point": {"x": piece_center_x, "y": piece_center_y}, "end_point": {"x": gap_center_x, "y": gap_center_y}}
  ]
}
` + "```" + `
</output>
`

// SystemPrompt 返回任务类别的系统提示
func SystemPrompt(category types.TaskCategory) string {
	switch category {
	case types.CategoryImageClassification:
		return classificationPrompt
	case types.CategorySpatialPoint:
		return spatialPointPrompt
	case types.CategorySpatialPath:
		return spatialPathPrompt
	}
	return ""
}

// userPrompt 构造用户提示，附带题目与布局信息
func userPrompt(d *classifier.Descriptor, width, height int) string {
	var b strings.Builder
	b.WriteString("NOW please start the challenge.")
	if d.Prompt != "" {
		fmt.Fprintf(&b, "\nChallenge prompt: %s", d.Prompt)
	}
	switch d.Category() {
	case types.CategoryImageClassification:
		fmt.Fprintf(&b, "\nThe grid has %d rows and %d columns.", d.Grid.Rows, d.Grid.Cols)
	default:
		fmt.Fprintf(&b, "\nThe image is %dx%d pixels.", width, height)
		if d.Type == types.ChallengeImageLabelMultiSelect || d.Type == types.ChallengeImageDragMulti {
			b.WriteString("\nThere may be more than one target; answer every one of them.")
		}
	}
	return b.String()
}
