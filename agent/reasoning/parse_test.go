package reasoning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/types"
)

func gridDescriptor(rows, cols int) *classifier.Descriptor {
	d := &classifier.Descriptor{
		Type:   types.ChallengeImageLabelBinary,
		Prompt: "Please click each image containing a bus",
		Grid:   classifier.Grid{Rows: rows, Cols: cols},
	}
	for i := 0; i < rows*cols; i++ {
		d.Tiles = append(d.Tiles, types.BoundingBox{X: float64(i%cols) * 100, Y: float64(i/cols) * 100, Width: 100, Height: 100})
	}
	return d
}

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "fenced block",
			raw:  "Sure.\n```json\n{\"a\": 1}\n```\ntrailing",
			want: `{"a": 1}`,
		},
		{
			name: "bare object with prose",
			raw:  `The answer is {"a": {"b": 2}} and nothing else {"c": 3}`,
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "braces inside strings",
			raw:  `{"prompt": "drag } here \" {", "x": 1}`,
			want: `{"prompt": "drag } here \" {", "x": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONBlock(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONBlock_Malformed(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"a": 1`} {
		_, err := ExtractJSONBlock(raw)
		assert.ErrorIs(t, err, ErrMalformedOutput, raw)
	}
}

func TestParseSolution_Classification(t *testing.T) {
	d := gridDescriptor(3, 3)
	raw := `{"challenge_prompt":"bus","coordinates":[{"box_2d":[0,1]},{"box_2d":[2,2]},{"box_2d":[0,1]}]}`

	sol, err := ParseSolution(raw, d, 300, 300)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryImageClassification, sol.Category)
	assert.Equal(t, []int{1, 8}, sol.Regions)
}

func TestParseSolution_ClassificationOutOfGrid(t *testing.T) {
	d := gridDescriptor(3, 3)

	_, err := ParseSolution(`{"coordinates":[{"box_2d":[3,0]}]}`, d, 300, 300)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = ParseSolution(`{"coordinates":[{"box_2d":[1]}]}`, d, 300, 300)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestParseSolution_SpatialPoint(t *testing.T) {
	d := &classifier.Descriptor{Type: types.ChallengeImageLabelMultiSelect}

	sol, err := ParseSolution(`{"points":[{"x":200,"y":50},{"x":0.25,"y":0.75}]}`, d, 400, 200)
	require.NoError(t, err)
	require.Len(t, sol.Points, 2)
	assert.InDelta(t, 0.5, sol.Points[0].X, 1e-9)
	assert.InDelta(t, 0.25, sol.Points[0].Y, 1e-9)
	assert.Equal(t, types.Point{X: 0.25, Y: 0.75}, sol.Points[1])
}

func TestParseSolution_SpatialPointBox(t *testing.T) {
	d := &classifier.Descriptor{Type: types.ChallengeImageLabelMultiSelect}

	sol, err := ParseSolution(`{"coordinates":[{"box_2d":[100,200,300,400]}]}`, d, 400, 200)
	require.NoError(t, err)
	require.Len(t, sol.Points, 1)
	assert.InDelta(t, 0.3, sol.Points[0].X, 1e-9)
	assert.InDelta(t, 0.2, sol.Points[0].Y, 1e-9)
}

func TestParseSolution_SingleSelectKeepsFirstPoint(t *testing.T) {
	d := &classifier.Descriptor{Type: types.ChallengeImageLabelSingleSelect}

	sol, err := ParseSolution(`{"points":[{"x":0.1,"y":0.1},{"x":0.9,"y":0.9}]}`, d, 400, 200)
	require.NoError(t, err)
	assert.Equal(t, []types.Point{{X: 0.1, Y: 0.1}}, sol.Points)
}

func TestParseSolution_SpatialPointErrors(t *testing.T) {
	d := &classifier.Descriptor{Type: types.ChallengeImageLabelSingleSelect}

	for _, raw := range []string{
		`{"points":[]}`,
		`{"points":[{"x":1}]}`,
		`{"points":[{"x":-4,"y":2}]}`,
		`{"points": "nope"}`,
	} {
		_, err := ParseSolution(raw, d, 400, 200)
		assert.ErrorIs(t, err, ErrMalformedOutput, raw)
	}
}

func TestParseSolution_IntegerPointsArePixels(t *testing.T) {
	d := &classifier.Descriptor{Type: types.ChallengeImageLabelMultiSelect}

	sol, err := ParseSolution(`{"points":[{"x":1,"y":0},{"x":0,"y":0.5},{"x":1,"y":1}]}`, d, 400, 200)
	require.NoError(t, err)
	require.Len(t, sol.Points, 3)
	assert.InDelta(t, 1.0/400, sol.Points[0].X, 1e-9)
	assert.Zero(t, sol.Points[0].Y)
	assert.Equal(t, types.Point{X: 0, Y: 0.5}, sol.Points[1])
	assert.InDelta(t, 1.0/400, sol.Points[2].X, 1e-9)
	assert.InDelta(t, 1.0/200, sol.Points[2].Y, 1e-9)
}

func TestParseSolution_SpatialPath(t *testing.T) {
	d := &classifier.Descriptor{Type: types.ChallengeImageDragMulti}
	raw := "```json\n" + `{
  "challenge_prompt": "Drag each segment to its position on the line",
  "paths": [
    {"start_point": {"x": 40, "y": 100}, "end_point": {"x": 360, "y": 20}},
    {"start_point": {"x": 40, "y": 180}, "end_point": {"x": 200, "y": 100}}
  ]
}` + "\n```"

	sol, err := ParseSolution(raw, d, 400, 200)
	require.NoError(t, err)
	require.Len(t, sol.Paths, 2)
	assert.InDelta(t, 0.1, sol.Paths[0].Start.X, 1e-9)
	assert.InDelta(t, 0.5, sol.Paths[0].Start.Y, 1e-9)
	assert.InDelta(t, 0.9, sol.Paths[0].End.X, 1e-9)
	assert.InDelta(t, 0.1, sol.Paths[0].End.Y, 1e-9)

	single := &classifier.Descriptor{Type: types.ChallengeImageDragSingle}
	sol, err = ParseSolution(raw, single, 400, 200)
	require.NoError(t, err)
	assert.Len(t, sol.Paths, 1)
}

// 像素坐标归一化后必须落在 [0,1] 内，并能按图片尺寸还原
func TestParseSolution_NormalizationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(50, 2000).Draw(rt, "w")
		h := rapid.IntRange(50, 2000).Draw(rt, "h")
		x := rapid.IntRange(0, w).Draw(rt, "x")
		y := rapid.IntRange(0, h).Draw(rt, "y")

		space := payloadSpace{width: float64(w), height: float64(h)}
		fx, fy := float64(x), float64(y)
		p, err := space.normalize(rawPoint{X: &fx, Y: &fy})
		if err != nil {
			rt.Fatalf("normalize: %v", err)
		}
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			rt.Fatalf("point %v outside unit square", p)
		}
		if math.Abs(p.X*float64(w)-fx) > 1e-6 || math.Abs(p.Y*float64(h)-fy) > 1e-6 {
			rt.Fatalf("point %v does not map back to (%d, %d)", p, x, y)
		}
	})
}

func TestSolution_Fits(t *testing.T) {
	sol := &Solution{Category: types.CategoryImageClassification, Regions: []int{0, 8}}
	assert.True(t, sol.fits(types.CategoryImageClassification, 9))
	assert.False(t, sol.fits(types.CategoryImageClassification, 8))
	assert.False(t, sol.fits(types.CategorySpatialPoint, 9))

	var nilSol *Solution
	assert.False(t, nilSol.fits(types.CategorySpatialPath, 0))
}
