package board

import (
	"fmt"

	"github.com/kuzcou/plannerdig/domain"
)

// Location is a position inside a column.
type Location struct {
	Status domain.Status `json:"status"`
	Index  int           `json:"index"`
}

// Drag describes a finished drag-and-drop gesture. Destination is nil when
// the gesture was cancelled.
type Drag struct {
	TaskID      string    `json:"taskId"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination,omitempty"`
}

// Patch is the partial update produced by a drop.
type Patch struct {
	TaskID string        `json:"taskId"`
	Status domain.Status `json:"status"`
	Rank   float64       `json:"rank"`
}

// TaskPatch converts p into a store patch touching only status and rank.
func (p Patch) TaskPatch() domain.TaskPatch {
	status := p.Status
	rank := p.Rank
	return domain.TaskPatch{Status: &status, Rank: &rank}
}

// Reorder computes the patch for a drop. ok is false when there is nothing
// to send. The destination index becomes the rank as-is; sibling ranks are
// not renumbered.
func Reorder(d Drag) (p Patch, ok bool, err error) {
	if d.Destination == nil {
		return Patch{}, false, nil
	}
	if d.TaskID == "" {
		return Patch{}, false, fmt.Errorf("%w: task id is required", domain.ErrValidation)
	}
	dst := *d.Destination
	if !domain.IsValidStatus(dst.Status) {
		return Patch{}, false, fmt.Errorf("%w %q", domain.ErrInvalidStatus, dst.Status)
	}
	if dst.Index < 0 {
		return Patch{}, false, fmt.Errorf("%w: negative destination index", domain.ErrValidation)
	}
	return Patch{TaskID: d.TaskID, Status: dst.Status, Rank: float64(dst.Index)}, true, nil
}
