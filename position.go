package mztab

import (
	"cmp"
	"fmt"
)

// LogicalPosition is the sort key that orders every column of one section:
// the column's order slot, then its own sub-id, then the id of the element it
// references. Zero marks an absent component.
type LogicalPosition struct {
	Order     int
	ID        int
	ElementID int
}

// NewLogicalPosition builds the key for a column at order with an optional
// sub-id and referenced element.
func NewLogicalPosition(order int, id int, element *IndexedElement) LogicalPosition {
	pos := LogicalPosition{Order: order, ID: id}
	if element != nil {
		pos.ElementID = element.ID
	}
	return pos
}

// String returns the zero padded key, e.g. "090003" for order 9 referencing
// an element with id 3. Components above 99 widen their segment.
func (p LogicalPosition) String() string {
	return fmt.Sprintf("%02d%02d%02d", p.Order, p.ID, p.ElementID)
}

// Compare orders positions component by component.
func (p LogicalPosition) Compare(o LogicalPosition) int {
	if c := cmp.Compare(p.Order, o.Order); c != 0 {
		return c
	}
	if c := cmp.Compare(p.ID, o.ID); c != 0 {
		return c
	}
	return cmp.Compare(p.ElementID, o.ElementID)
}

// Less reports whether p sorts before o.
func (p LogicalPosition) Less(o LogicalPosition) bool {
	return p.Compare(o) < 0
}

// FormatOrder renders a stable-column rank as its two digit order string.
func FormatOrder(order int) string {
	return fmt.Sprintf("%02d", order)
}
