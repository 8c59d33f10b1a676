package classifier

import (
	"strings"

	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/types"
)

// rule 一个挑战变体的结构匹配函数
type rule struct {
	typ   types.ChallengeType
	match func(*browser.Snapshot) bool
}

// priority 固定优先级表，第一个匹配者胜出。
// 拖拽与区域选择共用同一个画布容器，所以拖拽规则必须排在前面。
var priority = []rule{
	{types.ChallengeImageDragMulti, isDragMulti},
	{types.ChallengeImageDragSingle, isDragSingle},
	{types.ChallengeImageLabelMultiSelect, isAreaMulti},
	{types.ChallengeImageLabelSingleSelect, isAreaSingle},
	{types.ChallengeImageLabelBinary, isBinary},
}

// PriorityOrder 返回规则的匹配顺序
func PriorityOrder() []types.ChallengeType {
	out := make([]types.ChallengeType, len(priority))
	for i, r := range priority {
		out[i] = r.typ
	}
	return out
}

func match(s *browser.Snapshot) (types.ChallengeType, bool) {
	for _, r := range priority {
		if r.match(s) {
			return r.typ, true
		}
	}
	return "", false
}

var (
	dragCues   = []string{"drag", "move"}
	pluralCues = []string{"all", "each", "every"}
)

func hasCanvas(s *browser.Snapshot) bool {
	return s.Canvas != nil && !s.Canvas.Box.Empty()
}

func isDragSingle(s *browser.Snapshot) bool {
	return hasCanvas(s) && (len(s.Draggables) > 0 || hasWord(s.Prompt, dragCues...))
}

func isDragMulti(s *browser.Snapshot) bool {
	if !isDragSingle(s) {
		return false
	}
	return len(s.Draggables) > 1 || hasWord(s.Prompt, "each")
}

func isAreaMulti(s *browser.Snapshot) bool {
	return hasCanvas(s) && hasWord(s.Prompt, pluralCues...)
}

func isAreaSingle(s *browser.Snapshot) bool {
	return hasCanvas(s)
}

func isBinary(s *browser.Snapshot) bool {
	return len(s.Tiles) > 0
}

// hasWord 按整词匹配（不区分大小写）
func hasWord(text string, words ...string) bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
