package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChallengeType_CategoryAndFamily(t *testing.T) {
	tests := []struct {
		ct       ChallengeType
		family   RequestType
		category TaskCategory
	}{
		{ChallengeImageLabelBinary, RequestImageLabelBinary, CategoryImageClassification},
		{ChallengeImageLabelSingleSelect, RequestImageLabelAreaSelect, CategorySpatialPoint},
		{ChallengeImageLabelMultiSelect, RequestImageLabelAreaSelect, CategorySpatialPoint},
		{ChallengeImageDragSingle, RequestImageDragDrop, CategorySpatialPath},
		{ChallengeImageDragMulti, RequestImageDragDrop, CategorySpatialPath},
	}

	for _, tt := range tests {
		t.Run(string(tt.ct), func(t *testing.T) {
			assert.True(t, tt.ct.Valid())
			assert.Equal(t, tt.family, tt.ct.RequestType())
			assert.Equal(t, tt.category, tt.ct.Category())
		})
	}
}

func TestChallengeType_MatchesTag(t *testing.T) {
	assert.True(t, ChallengeImageDragSingle.MatchesTag("image_drag_single"))
	assert.True(t, ChallengeImageDragSingle.MatchesTag("image_drag_drop"))
	assert.False(t, ChallengeImageDragSingle.MatchesTag("image_drag_multi"))
	assert.False(t, ChallengeImageLabelBinary.MatchesTag("image_label_area_select"))

	assert.True(t, KnownTag("image_label_area_select"))
	assert.False(t, KnownTag("audio"))
	assert.False(t, ChallengeType("audio").Valid())
}

func TestBoundingBox_Geometry(t *testing.T) {
	box := BoundingBox{X: 100, Y: 50, Width: 200, Height: 100}

	assert.Equal(t, Point{X: 200, Y: 100}, box.Center())
	assert.True(t, box.Contains(Point{X: 100, Y: 50}))
	assert.False(t, box.Contains(Point{X: 99, Y: 50}))
	assert.Equal(t, Point{X: 150, Y: 75}, box.Project(Point{X: 0.25, Y: 0.25}))
	assert.Equal(t, Point{X: 300, Y: 50}, box.Project(Point{X: 1.5, Y: -1}))
	assert.False(t, box.Empty())
	assert.True(t, BoundingBox{Width: 10}.Empty())
	assert.InDelta(t, 5.0, Point{X: 0, Y: 0}.Distance(Point{X: 3, Y: 4}), 1e-9)
}
