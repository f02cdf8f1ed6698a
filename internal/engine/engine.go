// Package engine replays ledger rows into a world and decorates worlds with
// recording and counting.
package engine

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/ubivismedia/aircraft/pkg/core"
	"github.com/ubivismedia/aircraft/pkg/host"
)

// BlockSource is the read half of the ledger.
type BlockSource interface {
	FetchBlocks(owner, name string) iter.Seq2[core.BlockRecord, error]
}

// Engine reconstructs structures from the ledger.
type Engine struct {
	ledger BlockSource
	log    *slog.Logger
}

// New creates an Engine reading from ledger.
func New(ledger BlockSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{ledger: ledger, log: logger}
}

// Reload applies every ledger row of (owner, name) to sink at its recorded
// absolute position, in the order the store returns them. Materials are
// resolved by sink when it implements host.MaterialResolver and against the
// built-in catalog otherwise; names neither knows are placed as AIR. Nothing is regenerated or
// re-recorded. A structure with no rows reloads zero blocks without error.
// On a store failure the blocks applied so far stay placed and their count
// is returned with the error. Log records take the owner and structure from
// the request carried by ctx.
func (e *Engine) Reload(ctx context.Context, owner, name string, sink host.World) (int, error) {
	resolve := core.MatchMaterial
	if r, ok := sink.(host.MaterialResolver); ok {
		resolve = r.ResolveMaterial
	}

	applied := 0
	unknown := 0

	for rec, err := range e.ledger.FetchBlocks(owner, name) {
		if err != nil {
			return applied, fmt.Errorf("reload %s/%s: %w", owner, name, err)
		}

		material, ok := resolve(string(rec.Material))
		if !ok {
			material = core.Air
			unknown++
		}
		sink.SetBlock(rec.Position, material)
		applied++
	}

	if unknown > 0 {
		e.log.WarnContext(ctx, "Unknown materials replaced with air", "count", unknown)
	}
	e.log.DebugContext(ctx, "Structure reloaded", "world", sink.Name(), "blocks", applied)
	return applied, nil
}
