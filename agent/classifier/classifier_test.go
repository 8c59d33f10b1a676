package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/testutil/fixtures"
	"github.com/BaSui01/challenger/testutil/mocks"
	"github.com/BaSui01/challenger/types"
)

func TestClassify_Variants(t *testing.T) {
	tests := []struct {
		name   string
		screen mocks.Screen
		want   types.ChallengeType
	}{
		{"area select single", fixtures.AreaSelectScreen("Select the bus"), types.ChallengeImageLabelSingleSelect},
		{"area select multi", fixtures.AreaSelectScreen("Please click on all the animals that can fly"), types.ChallengeImageLabelMultiSelect},
		{"drag by cue", fixtures.DragScreen("Please drag the crab to the lower half", 0), types.ChallengeImageDragSingle},
		{"drag by marker", fixtures.DragScreen("Complete the picture", 1), types.ChallengeImageDragSingle},
		{"drag multi by cue", fixtures.DragScreen("Drag each segment to its position on the line", 0), types.ChallengeImageDragMulti},
		{"drag multi by markers", fixtures.DragScreen("Complete the picture", 2), types.ChallengeImageDragMulti},
		{"binary grid", fixtures.BinaryScreen("Please click each image containing a bus"), types.ChallengeImageLabelBinary},
	}

	c := classifier.New(zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mocks.NewWidget().WithScreens(tt.screen)

			d, err := c.Classify(context.Background(), w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Type)
			assert.Equal(t, tt.screen.Snapshot.Prompt, d.Prompt)
			assert.Same(t, w, d.Handle)
			require.Len(t, d.Payload, 1)
			assert.Equal(t, tt.screen.Image, d.Payload[0].Data)
			assert.Equal(t, 360, d.Payload[0].Width)
			assert.NotEmpty(t, d.Fingerprint)
			require.NotNil(t, d.Submit)
			assert.Equal(t, fixtures.SubmitBox, *d.Submit)
		})
	}
}

func TestClassify_BinaryGridLayout(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.BinaryScreen("Please click each image containing a bus"))

	d, err := classifier.New(nil).Classify(context.Background(), w)
	require.NoError(t, err)
	assert.Len(t, d.Tiles, 9)
	assert.Equal(t, classifier.Grid{Rows: 3, Cols: 3}, d.Grid)
	assert.Equal(t, "grid", d.Payload[0].Name)
	assert.Equal(t, fixtures.TileBox(4), d.Tiles[4])
}

// 拖拽与区域选择共用画布，固定优先级让拖拽胜出
func TestClassify_DragBeatsAreaSelect(t *testing.T) {
	screen := fixtures.DragScreen("Drag all the pieces", 0)

	d, err := classifier.New(nil).Classify(context.Background(), mocks.NewWidget().WithScreens(screen))
	require.NoError(t, err)
	assert.Equal(t, types.ChallengeImageDragSingle, d.Type)
}

func TestClassify_NotReady(t *testing.T) {
	w := mocks.NewWidget()

	d, err := classifier.New(nil).Classify(context.Background(), w)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, classifier.ErrNotReady)
	assert.Equal(t, 0, w.CaptureCalls())
}

func TestClassify_Unclassified(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.UnknownScreen("Type the characters"))

	_, err := classifier.New(nil).Classify(context.Background(), w)
	assert.ErrorIs(t, err, classifier.ErrUnclassified)

	var uerr *classifier.UnclassifiedError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Type the characters", uerr.Prompt)
}

func TestClassify_SnapshotError(t *testing.T) {
	boom := errors.New("target closed")
	w := mocks.NewWidget().WithSnapshotError(boom)

	_, err := classifier.New(nil).Classify(context.Background(), w)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, classifier.ErrNotReady)
}

// 对静态控件连续分类两次得到相同结果，且不产生任何指针事件
func TestClassify_Idempotent(t *testing.T) {
	prompts := []string{
		"Select the bus",
		"Please click on all the animals that can fly",
		"Drag each segment to its position on the line",
		"Please drag the crab to the lower half",
	}
	rapid.Check(t, func(rt *rapid.T) {
		var screen mocks.Screen
		prompt := rapid.SampledFrom(prompts).Draw(rt, "prompt")
		switch rapid.IntRange(0, 2).Draw(rt, "layout") {
		case 0:
			screen = fixtures.AreaSelectScreen(prompt)
		case 1:
			screen = fixtures.DragScreen(prompt, rapid.IntRange(0, 3).Draw(rt, "draggables"))
		default:
			screen = fixtures.BinaryScreen(prompt)
		}

		w := mocks.NewWidget().WithScreens(screen)
		c := classifier.New(nil)

		first, err := c.Classify(context.Background(), w)
		if err != nil {
			rt.Fatalf("first classify: %v", err)
		}
		second, err := c.Classify(context.Background(), w)
		if err != nil {
			rt.Fatalf("second classify: %v", err)
		}

		assert.Equal(rt, first, second)
		if len(w.Events()) != 0 {
			rt.Fatalf("classification issued %d pointer events", len(w.Events()))
		}
		if w.ScreenIndex() != 0 {
			rt.Fatalf("classification advanced the widget")
		}
	})
}

func TestFingerprint_ChangesWithPromptAndPayload(t *testing.T) {
	payload := []classifier.Image{{Data: []byte{1, 2, 3}}}
	base := classifier.Fingerprint(types.ChallengeImageDragSingle, "a", payload)

	assert.Equal(t, base, classifier.Fingerprint(types.ChallengeImageDragSingle, "a", payload))
	assert.NotEqual(t, base, classifier.Fingerprint(types.ChallengeImageDragSingle, "b", payload))
	assert.NotEqual(t, base, classifier.Fingerprint(types.ChallengeImageDragMulti, "a", payload))
	assert.NotEqual(t, base, classifier.Fingerprint(types.ChallengeImageDragSingle, "a", []classifier.Image{{Data: []byte{1, 2, 4}}}))
}

func TestWaitForChallenge_ReturnsWhenRendered(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.WaitingScreen(), fixtures.AreaSelectScreen("Select the bus"))

	go func() {
		time.Sleep(30 * time.Millisecond)
		w.SetScreen(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d, err := classifier.New(nil).WaitForChallenge(ctx, w, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.ChallengeImageLabelSingleSelect, d.Type)
	assert.Greater(t, w.SnapshotCalls(), 1)
}

func TestWaitForChallenge_Cancelled(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.WaitingScreen())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := classifier.New(nil).WaitForChallenge(ctx, w, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, w.Events())
}

func TestWaitForChallenge_PassedWithoutChallenge(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.SolvedScreen("P1_token"))

	_, err := classifier.New(nil).WaitForChallenge(context.Background(), w, 5*time.Millisecond)
	assert.ErrorIs(t, err, classifier.ErrPassedWithoutChallenge)
}

func TestWaitForChallenge_Unclassified(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.UnknownScreen("Type the characters"))

	_, err := classifier.New(nil).WaitForChallenge(context.Background(), w, 5*time.Millisecond)
	assert.ErrorIs(t, err, classifier.ErrUnclassified)
}

func TestPriorityOrder(t *testing.T) {
	assert.Equal(t, []types.ChallengeType{
		types.ChallengeImageDragMulti,
		types.ChallengeImageDragSingle,
		types.ChallengeImageLabelMultiSelect,
		types.ChallengeImageLabelSingleSelect,
		types.ChallengeImageLabelBinary,
	}, classifier.PriorityOrder())
}
