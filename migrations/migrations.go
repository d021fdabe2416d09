// Package migrations runs idempotent, tracked, one-shot store-maintenance
// jobs: work that touches many objects at once (backfilling an index added
// by a schema change, pruning schema versions nothing references anymore)
// and that should run once per store, not once per object the way the
// per-object migration engine in store/migrate.go does.
//
// migrations apply sequentially in the order of the Migrations list, and
// skip anything already recorded as applied. Idempotency is the
// responsibility of each Migration's Up func: a job interrupted partway
// through and re-run from Apply must reach the same end state.
package migrations

import (
	"context"

	"github.com/ledgerwatch/odb/fieldtype"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/schema"
)

// Context is the environment a Migration's Up func runs against.
type Context struct {
	KV         kvkit.KV
	Registry   *schema.Registry
	FieldTypes *fieldtype.Registry

	// CurrentVersion is the schema version new writes target. Migrations
	// that prune schema history use it to avoid dropping the version
	// that's still in active use.
	CurrentVersion uint64

	// Concurrency bounds how many objects a sweep-style migration
	// processes at once. Zero means the migration picks its own default.
	Concurrency int
}

// Migration is one named, idempotent maintenance job.
type Migration struct {
	Name string
	Up   func(ctx context.Context, mc Context) error
}

// registered lists every known migration, in application order. Add new
// entries at the end; never reuse or reorder a Name once it has shipped,
// since recorded receipts are keyed on it.
var registered = []Migration{
	backfillCompositeIndexes,
	pruneDeprecatedVersions,
}

// Migrator applies a set of migrations against a store, skipping any
// already recorded as applied.
type Migrator struct {
	Migrations []Migration
}

// NewMigrator returns a Migrator over the built-in migration set.
func NewMigrator() *Migrator {
	return &Migrator{Migrations: append([]Migration(nil), registered...)}
}

// Apply runs every not-yet-applied migration against mc in order, recording
// a receipt after each one succeeds.
func (m *Migrator) Apply(ctx context.Context, mc Context) error {
	if len(m.Migrations) == 0 {
		return nil
	}
	applied, err := loadReceipts(ctx, mc.KV)
	if err != nil {
		return err
	}
	for _, mig := range m.Migrations {
		if applied[mig.Name] {
			continue
		}
		log.Info("apply migration", "name", mig.Name)
		if err := mig.Up(ctx, mc); err != nil {
			return err
		}
		if err := recordReceipt(ctx, mc.KV, mig.Name); err != nil {
			return err
		}
		log.Info("applied migration", "name", mig.Name)
	}
	return nil
}
