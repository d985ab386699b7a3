package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	AVLTreeStatsName = "xavl/tree"
)

type avlRotationKind uint8

const (
	singleRotation avlRotationKind = iota
	doubleRotation
)

func (kind avlRotationKind) String() string {
	if kind == singleRotation {
		return "single"
	}
	return "double"
}

// The counters are always maintained in process. The otel instruments are
// only created if the stats are enabled by option.
type avlTreeStats struct {
	singleRotations int64
	doubleRotations int64
	inserts         int64
	deletes         int64
	isOtelEnabled   bool
	nodeCount       metric.Int64UpDownCounter
	insertCount     metric.Int64Counter
	deleteCount     metric.Int64Counter
	rotationCount   metric.Int64Counter
	rotationAttrs   [2]metric.AddOption
}

func (stats *avlTreeStats) RecordInsert() {
	stats.inserts++
	if !stats.isOtelEnabled {
		return
	}
	stats.insertCount.Add(context.Background(), 1)
	stats.nodeCount.Add(context.Background(), 1)
}

func (stats *avlTreeStats) RecordDelete() {
	stats.deletes++
	if !stats.isOtelEnabled {
		return
	}
	stats.deleteCount.Add(context.Background(), 1)
	stats.nodeCount.Add(context.Background(), -1)
}

func (stats *avlTreeStats) RecordClear(count int64) {
	if !stats.isOtelEnabled || count <= 0 {
		return
	}
	stats.nodeCount.Add(context.Background(), -count)
}

func (stats *avlTreeStats) RecordRotation(kind avlRotationKind) {
	switch kind {
	case singleRotation:
		stats.singleRotations++
	case doubleRotation:
		stats.doubleRotations++
	default:
	}
	if !stats.isOtelEnabled {
		return
	}
	stats.rotationCount.Add(context.Background(), 1, stats.rotationAttrs[kind])
}

func newAVLTreeStats(name string) *avlTreeStats {
	stats := &avlTreeStats{}
	if len(name) <= 0 {
		return stats
	}

	meter := otel.Meter(fmt.Sprintf("%s/%s", AVLTreeStatsName, name))
	stats.isOtelEnabled = true
	stats.nodeCount = lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
		"avl.node.count",
		metric.WithDescription("The number of nodes in the avl tree."),
	))
	stats.insertCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"avl.insert.count",
		metric.WithDescription("The number of nodes inserted into the avl tree."),
	))
	stats.deleteCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"avl.delete.count",
		metric.WithDescription("The number of nodes deleted from the avl tree."),
	))
	stats.rotationCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"avl.rotation.count",
		metric.WithDescription("The number of rotations to rebalance the avl tree."),
	))
	for _, kind := range []avlRotationKind{singleRotation, doubleRotation} {
		stats.rotationAttrs[kind] = metric.WithAttributeSet(attribute.NewSet(
			attribute.String("avl.rotation.kind", kind.String()),
		))
	}
	return stats
}
