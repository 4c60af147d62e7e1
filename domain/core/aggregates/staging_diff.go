package aggregates

import "carddeps/domain/core/valueobjects"

// StagingDiff tracks pending dependency edits for one item against a baseline
// snapshot of its dependsOn set.
//
// Invariants, held after every method returns:
//   - toAdd ∩ baseline = ∅
//   - toRemove ⊆ baseline
//
// so an id is never pending both ways and toggling twice is a no-op.
type StagingDiff struct {
	baseline valueobjects.IDSet
	toAdd    valueobjects.IDSet
	toRemove valueobjects.IDSet
}

// NewStagingDiff starts an empty diff over baseline
func NewStagingDiff(baseline valueobjects.IDSet) *StagingDiff {
	return &StagingDiff{baseline: baseline.Clone()}
}

// IsSelected reports the effective membership of id
func (d *StagingDiff) IsSelected(id valueobjects.ItemID) bool {
	return (d.baseline.Contains(id) || d.toAdd.Contains(id)) && !d.toRemove.Contains(id)
}

// Toggle flips the effective membership of id and returns the new state
func (d *StagingDiff) Toggle(id valueobjects.ItemID) bool {
	return d.Set(id, !d.IsSelected(id))
}

// Set forces the effective membership of id and returns it
func (d *StagingDiff) Set(id valueobjects.ItemID, selected bool) bool {
	if selected {
		d.toRemove.Remove(id)
		if !d.baseline.Contains(id) {
			d.toAdd.Add(id)
		}
	} else {
		d.toAdd.Remove(id)
		if d.baseline.Contains(id) {
			d.toRemove.Add(id)
		}
	}
	return selected
}

// MarkAdded folds a committed addition into the baseline
func (d *StagingDiff) MarkAdded(id valueobjects.ItemID) {
	d.toAdd.Remove(id)
	d.baseline.Add(id)
}

// MarkRemoved folds a committed removal into the baseline
func (d *StagingDiff) MarkRemoved(id valueobjects.ItemID) {
	d.toRemove.Remove(id)
	d.baseline.Remove(id)
}

// EffectiveSelection returns (baseline ∪ toAdd) \ toRemove
func (d *StagingDiff) EffectiveSelection() valueobjects.IDSet {
	return d.baseline.Union(d.toAdd).Difference(d.toRemove)
}

// HasChanges reports whether anything is pending
func (d *StagingDiff) HasChanges() bool {
	return !d.toAdd.IsEmpty() || !d.toRemove.IsEmpty()
}

// Baseline returns a copy of the baseline snapshot
func (d *StagingDiff) Baseline() valueobjects.IDSet { return d.baseline.Clone() }

// ToAdd returns a copy of the pending additions
func (d *StagingDiff) ToAdd() valueobjects.IDSet { return d.toAdd.Clone() }

// ToRemove returns a copy of the pending removals
func (d *StagingDiff) ToRemove() valueobjects.IDSet { return d.toRemove.Clone() }
