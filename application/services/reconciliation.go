package services

import (
	"context"
	"fmt"
	"time"

	"carddeps/application/ports"
	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/valueobjects"
	"carddeps/domain/events"

	"go.uber.org/zap"
)

// IssueKind classifies a consistency problem found around one item
type IssueKind string

const (
	// IssueMissingBlocks: X.dependsOn has Y but Y.blocks lacks X
	IssueMissingBlocks IssueKind = "missing_blocks"
	// IssueMissingDependsOn: X.blocks has Y but Y.dependsOn lacks X
	IssueMissingDependsOn IssueKind = "missing_depends_on"
	// IssueInvalidReference: a stored id is unknown to the item directory
	IssueInvalidReference IssueKind = "invalid_reference"
	// IssueSelfReference: an item lists itself, left by unguarded legacy writes
	IssueSelfReference IssueKind = "self_reference"
)

// Issue describes one drift between the two sides of an edge
type Issue struct {
	Kind    IssueKind           `json:"kind"`
	ItemID  valueobjects.ItemID `json:"item_id"`
	OtherID valueobjects.ItemID `json:"other_id"`
	// Key is the slot of ItemID the other id was found in
	Key string `json:"key"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s.%s -> %s", i.Kind, i.ItemID, i.Key, i.OtherID)
}

// RepairFailure is an issue whose repair write did not succeed
type RepairFailure struct {
	Issue Issue  `json:"issue"`
	Error string `json:"error"`
}

// ConsistencyReport is the outcome of a check or repair pass on one item
type ConsistencyReport struct {
	ItemID   valueobjects.ItemID `json:"item_id"`
	Issues   []Issue             `json:"issues"`
	Repaired []Issue             `json:"repaired,omitempty"`
	Failed   []RepairFailure     `json:"failed,omitempty"`
}

// Consistent reports whether no drift was found
func (r ConsistencyReport) Consistent() bool {
	return len(r.Issues) == 0
}

// Reconciler detects and repairs asymmetric or dangling edges.
// It runs on demand only; reads never trigger it.
type Reconciler struct {
	graph     *DependencyGraphService
	directory ports.ItemDirectory
	logger    *zap.Logger
}

// NewReconciler creates a reconciler. Without a directory, dangling
// references are not detected.
func NewReconciler(graph *DependencyGraphService, directory ports.ItemDirectory, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		graph:     graph,
		directory: directory,
		logger:    logger,
	}
}

// CheckConsistency inspects every edge of itemID without writing
func (r *Reconciler) CheckConsistency(ctx context.Context, itemID valueobjects.ItemID) (ConsistencyReport, error) {
	report := ConsistencyReport{ItemID: itemID, Issues: []Issue{}}

	edges, err := r.graph.GetEdges(ctx, itemID)
	if err != nil {
		return report, err
	}

	known, err := r.knownItems(ctx, edges)
	if err != nil {
		return report, err
	}

	for _, other := range edges.DependsOn.Slice() {
		if other == itemID {
			report.Issues = append(report.Issues, Issue{Kind: IssueSelfReference, ItemID: itemID, OtherID: other, Key: ports.KeyDependsOn})
			continue
		}
		if known != nil && !known[other] {
			report.Issues = append(report.Issues, Issue{Kind: IssueInvalidReference, ItemID: itemID, OtherID: other, Key: ports.KeyDependsOn})
			continue
		}
		otherEdges, err := r.graph.GetEdges(ctx, other)
		if err != nil {
			return report, err
		}
		if !otherEdges.Blocks.Contains(itemID) {
			report.Issues = append(report.Issues, Issue{Kind: IssueMissingBlocks, ItemID: itemID, OtherID: other, Key: ports.KeyDependsOn})
		}
	}

	for _, other := range edges.Blocks.Slice() {
		if other == itemID {
			report.Issues = append(report.Issues, Issue{Kind: IssueSelfReference, ItemID: itemID, OtherID: other, Key: ports.KeyBlocks})
			continue
		}
		if known != nil && !known[other] {
			report.Issues = append(report.Issues, Issue{Kind: IssueInvalidReference, ItemID: itemID, OtherID: other, Key: ports.KeyBlocks})
			continue
		}
		otherEdges, err := r.graph.GetEdges(ctx, other)
		if err != nil {
			return report, err
		}
		if !otherEdges.DependsOn.Contains(itemID) {
			report.Issues = append(report.Issues, Issue{Kind: IssueMissingDependsOn, ItemID: itemID, OtherID: other, Key: ports.KeyBlocks})
		}
	}

	return report, nil
}

// Repair checks itemID and fixes what it finds.
//
// The dependsOn side is authoritative: a missing reciprocal is restored,
// while a blocks entry without its forward edge is dropped. Dangling ids and
// self-references are stripped. Individual repair failures are collected,
// not fatal.
func (r *Reconciler) Repair(ctx context.Context, itemID valueobjects.ItemID) (ConsistencyReport, error) {
	report, err := r.CheckConsistency(ctx, itemID)
	if err != nil || report.Consistent() {
		return report, err
	}

	var strip []Issue
	for _, issue := range report.Issues {
		var repairErr error
		switch issue.Kind {
		case IssueMissingBlocks:
			repairErr = r.graph.AddDependency(ctx, issue.ItemID, issue.OtherID)
		case IssueMissingDependsOn:
			repairErr = r.dropBlocksEntry(ctx, issue.ItemID, issue.OtherID)
		case IssueInvalidReference, IssueSelfReference:
			strip = append(strip, issue)
			continue
		}
		r.record(&report, issue, repairErr)
	}

	if len(strip) > 0 {
		err := r.stripEntries(ctx, itemID, strip)
		for _, issue := range strip {
			r.record(&report, issue, err)
		}
	}

	if len(report.Repaired) > 0 {
		repairs := make([]string, len(report.Repaired))
		for i, issue := range report.Repaired {
			repairs[i] = issue.String()
		}
		r.graph.publish(ctx, events.NewEdgesRepaired(itemID, repairs, r.graph.now()))
	}

	r.logger.Info("Reconciled item edges",
		zap.String("itemID", itemID.String()),
		zap.Int("issues", len(report.Issues)),
		zap.Int("repaired", len(report.Repaired)),
		zap.Int("failed", len(report.Failed)),
	)

	return report, nil
}

// RepairAll runs Repair over ids and stops at the first hard failure
func (r *Reconciler) RepairAll(ctx context.Context, ids []valueobjects.ItemID, dryRun bool) ([]ConsistencyReport, error) {
	reports := make([]ConsistencyReport, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		var report ConsistencyReport
		var err error
		if dryRun {
			report, err = r.CheckConsistency(ctx, id)
		} else {
			report, err = r.Repair(ctx, id)
		}
		if err != nil {
			return reports, fmt.Errorf("reconcile %s: %w", id, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Reconciler) record(report *ConsistencyReport, issue Issue, err error) {
	if err != nil {
		r.logger.Warn("Repair failed",
			zap.String("issue", issue.String()),
			zap.Error(err),
		)
		report.Failed = append(report.Failed, RepairFailure{Issue: issue, Error: err.Error()})
		return
	}
	report.Repaired = append(report.Repaired, issue)
}

// dropBlocksEntry removes other from itemID.blocks when other.dependsOn no
// longer names itemID. Only the blocks slot is touched.
func (r *Reconciler) dropBlocksEntry(ctx context.Context, itemID, other valueobjects.ItemID) error {
	edges, err := r.graph.GetEdges(ctx, itemID)
	if err != nil {
		return err
	}
	blocks := edges.Blocks.Clone()
	if !blocks.Remove(other) {
		return nil
	}
	_, err = r.graph.SetBlocks(ctx, itemID, blocks.Slice())
	return err
}

// stripEntries removes the issue ids from the slots they were found in
func (r *Reconciler) stripEntries(ctx context.Context, itemID valueobjects.ItemID, issues []Issue) error {
	edges, err := r.graph.GetEdges(ctx, itemID)
	if err != nil {
		return err
	}

	dependsOn := edges.DependsOn.Clone()
	blocks := edges.Blocks.Clone()
	var dependsChanged, blocksChanged bool
	for _, issue := range issues {
		switch issue.Key {
		case ports.KeyDependsOn:
			dependsChanged = dependsOn.Remove(issue.OtherID) || dependsChanged
		case ports.KeyBlocks:
			blocksChanged = blocks.Remove(issue.OtherID) || blocksChanged
		}
	}

	if dependsChanged {
		if _, err := r.graph.SetDependsOn(ctx, itemID, dependsOn.Slice()); err != nil {
			return err
		}
	}
	if blocksChanged {
		if _, err := r.graph.SetBlocks(ctx, itemID, blocks.Slice()); err != nil {
			return err
		}
	}
	return nil
}

// knownItems resolves every referenced id against the directory.
// A nil map means reference checking is disabled.
func (r *Reconciler) knownItems(ctx context.Context, edges aggregates.EdgeSet) (map[valueobjects.ItemID]bool, error) {
	if r.directory == nil {
		return nil, nil
	}
	ids := edges.DependsOn.Union(edges.Blocks).Slice()
	if len(ids) == 0 {
		return map[valueobjects.ItemID]bool{}, nil
	}

	items, err := r.directory.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup referenced items: %w", err)
	}
	known := make(map[valueobjects.ItemID]bool, len(items))
	for id := range items {
		known[id] = true
	}
	return known, nil
}

// reconcileDeadline bounds a batch reconcile run started without a deadline
const reconcileDeadline = 5 * time.Minute

// WithReconcileDeadline applies the default batch deadline when ctx has none
func WithReconcileDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, reconcileDeadline)
}
