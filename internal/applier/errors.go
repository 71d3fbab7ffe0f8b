package applier

import (
	"fmt"
	"sort"

	"github.com/bearcove/hotmeal/internal/patch"
)

// PathOutOfBoundsError is returned when an index in a Path exceeds its
// parent's children, grounded on the teacher's per-kind struct error
// pattern (cmd/lvt/internal/components/errors.go).
type PathOutOfBoundsError struct {
	Ref   patch.NodeRef
	Depth int
}

func (e PathOutOfBoundsError) Error() string {
	return fmt.Sprintf("hotmeal: path out of bounds at depth %d in ref %s", e.Depth, e.Ref)
}

// SlotMissingError is returned when a patch references an unallocated or
// already-consumed slot.
type SlotMissingError struct {
	Slot int
}

func (e SlotMissingError) Error() string {
	return fmt.Sprintf("hotmeal: slot %d is unallocated or already consumed", e.Slot)
}

// SlotLeakedError is returned when the patch stream finishes with one or
// more slots still populated and never consumed.
type SlotLeakedError struct {
	Slots []int
}

func (e SlotLeakedError) Error() string {
	sorted := append([]int(nil), e.Slots...)
	sort.Ints(sorted)
	return fmt.Sprintf("hotmeal: patch stream finished with unconsumed slots: %v", sorted)
}

// InvalidOperationError covers operations that don't make sense on the
// target node's kind, e.g. removing an attribute from a non-element or
// setting text on a non-text node.
type InvalidOperationError struct {
	Reason string
}

func (e InvalidOperationError) Error() string {
	return fmt.Sprintf("hotmeal: invalid operation: %s", e.Reason)
}
