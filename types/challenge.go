package types

// =============================================================================
// Challenge Enumerations
// =============================================================================
// ChallengeType is the closed set of puzzle shapes the agent knows how to
// solve. Every ChallengeType belongs to exactly one RequestType family and is
// answered by exactly one TaskCategory backend. New variants are added here
// and nowhere else.
// =============================================================================

// ChallengeType identifies a concrete challenge variant.
type ChallengeType string

const (
	ChallengeImageLabelBinary       ChallengeType = "image_label_binary"
	ChallengeImageLabelSingleSelect ChallengeType = "image_label_single_select"
	ChallengeImageLabelMultiSelect  ChallengeType = "image_label_multi_select"
	ChallengeImageDragSingle        ChallengeType = "image_drag_single"
	ChallengeImageDragMulti         ChallengeType = "image_drag_multi"
)

// RequestType is the coarse family a ChallengeType belongs to. Ignore lists
// accept either granularity.
type RequestType string

const (
	RequestImageLabelBinary     RequestType = "image_label_binary"
	RequestImageLabelAreaSelect RequestType = "image_label_area_select"
	RequestImageDragDrop        RequestType = "image_drag_drop"
)

// TaskCategory selects the reasoning backend model.
type TaskCategory string

const (
	CategoryImageClassification TaskCategory = "image_classification"
	CategorySpatialPoint        TaskCategory = "spatial_point"
	CategorySpatialPath         TaskCategory = "spatial_path"
)

// AllChallengeTypes lists every known variant.
func AllChallengeTypes() []ChallengeType {
	return []ChallengeType{
		ChallengeImageLabelBinary,
		ChallengeImageLabelSingleSelect,
		ChallengeImageLabelMultiSelect,
		ChallengeImageDragSingle,
		ChallengeImageDragMulti,
	}
}

// AllTaskCategories lists every category that needs a configured model.
func AllTaskCategories() []TaskCategory {
	return []TaskCategory{
		CategoryImageClassification,
		CategorySpatialPoint,
		CategorySpatialPath,
	}
}

// Valid reports whether t is a member of the enumeration.
func (t ChallengeType) Valid() bool {
	switch t {
	case ChallengeImageLabelBinary, ChallengeImageLabelSingleSelect, ChallengeImageLabelMultiSelect,
		ChallengeImageDragSingle, ChallengeImageDragMulti:
		return true
	}
	return false
}

// RequestType returns the family of t.
func (t ChallengeType) RequestType() RequestType {
	switch t {
	case ChallengeImageLabelSingleSelect, ChallengeImageLabelMultiSelect:
		return RequestImageLabelAreaSelect
	case ChallengeImageDragSingle, ChallengeImageDragMulti:
		return RequestImageDragDrop
	default:
		return RequestImageLabelBinary
	}
}

// Category returns the task category whose backend answers t.
func (t ChallengeType) Category() TaskCategory {
	switch t {
	case ChallengeImageLabelSingleSelect, ChallengeImageLabelMultiSelect:
		return CategorySpatialPoint
	case ChallengeImageDragSingle, ChallengeImageDragMulti:
		return CategorySpatialPath
	default:
		return CategoryImageClassification
	}
}

// MatchesTag reports whether an ignore-list tag names t, either directly or
// through its RequestType family.
func (t ChallengeType) MatchesTag(tag string) bool {
	return tag == string(t) || tag == string(t.RequestType())
}

// KnownTag reports whether tag names a ChallengeType or a RequestType.
func KnownTag(tag string) bool {
	for _, t := range AllChallengeTypes() {
		if t.MatchesTag(tag) {
			return true
		}
	}
	return false
}
