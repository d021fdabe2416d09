package migrations

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
	"github.com/ledgerwatch/odb/store"
)

const defaultSweepConcurrency = 8

// backfillCompositeIndexes rebuilds composite index entries for every
// object of every installed version whose object type declares at least
// one composite index. It is idempotent: RebuildCompositeIndexes always
// recomputes from current field values rather than appending, so running
// it twice (or resuming after a partial failure) converges to the same
// state. This is the job a schema change that adds a composite index to a
// type with existing live objects needs: ordinary per-object C8 migration
// only runs on access, so a composite added to a cold object would never
// get its entries until something happened to touch it.
var backfillCompositeIndexes = Migration{
	Name: "backfill_composite_indexes",
	Up: func(ctx context.Context, mc Context) error {
		concurrency := mc.Concurrency
		if concurrency <= 0 {
			concurrency = defaultSweepConcurrency
		}
		for _, v := range mc.Registry.Versions() {
			for _, ot := range v.Model.ObjectTypes {
				if len(ot.CompositeIndexes) == 0 {
					continue
				}
				if err := sweepType(ctx, mc, v, ot, concurrency); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func sweepType(ctx context.Context, mc Context, v *schema.Version, ot *schema.ObjectType, concurrency int) error {
	tx, err := store.Open(ctx, mc.KV, mc.Registry, mc.FieldTypes, store.TxOptions{VersionNumber: v.Number})
	if err != nil {
		return err
	}
	ids, err := tx.QueryVersionIndex(v.Number)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)
	for _, id := range ids {
		id := id
		sid, err := objid.StorageID(id)
		if err != nil {
			return err
		}
		if sid != ot.StorageID {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			return g.Wait()
		}
		g.Go(func() error {
			defer func() { <-sem }()
			return tx.RebuildCompositeIndexes(id)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return tx.Commit()
}

// pruneDeprecatedVersions removes every installed schema version with no
// live objects, other than mc.CurrentVersion. It is safe to run repeatedly:
// a version with objects still referencing it is left alone, and a version
// already removed is simply absent from mc.Registry.Versions() on the next
// run.
var pruneDeprecatedVersions = Migration{
	Name: "prune_deprecated_versions",
	Up: func(ctx context.Context, mc Context) error {
		tx, err := store.Open(ctx, mc.KV, mc.Registry, mc.FieldTypes, store.TxOptions{VersionNumber: mc.CurrentVersion})
		if err != nil {
			return err
		}
		inUse := func(version uint64) bool {
			ids, err := tx.QueryVersionIndex(version)
			return err != nil || len(ids) > 0
		}
		for _, v := range mc.Registry.Versions() {
			if v.Number == mc.CurrentVersion {
				continue
			}
			if err := mc.Registry.DeleteVersion(v.Number, mc.CurrentVersion, inUse); err != nil {
				if _, ok := err.(schema.InvalidSchema); ok {
					continue // still in use, or already gone: not an error here
				}
				return err
			}
		}
		return tx.Rollback()
	},
}
