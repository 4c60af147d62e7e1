package aggregates

import "carddeps/domain/core/valueobjects"

// EdgeSet is the dependency state stored on one item.
//
// Across the whole graph, Y ∈ X.DependsOn must hold exactly when X ∈ Y.Blocks.
// Each item only owns its own two sets, so that property is maintained by
// the graph service through paired writes, never by this type.
type EdgeSet struct {
	ItemID    valueobjects.ItemID
	DependsOn valueobjects.IDSet
	Blocks    valueobjects.IDSet
}

// NewEdgeSet creates an edge set for itemID
func NewEdgeSet(itemID valueobjects.ItemID, dependsOn, blocks valueobjects.IDSet) EdgeSet {
	return EdgeSet{
		ItemID:    itemID,
		DependsOn: dependsOn,
		Blocks:    blocks,
	}
}

// IsBlocked reports whether the item has any prerequisite
func (e EdgeSet) IsBlocked() bool {
	return !e.DependsOn.IsEmpty()
}

// IsBlocking reports whether any item waits on this one
func (e EdgeSet) IsBlocking() bool {
	return !e.Blocks.IsEmpty()
}
