package commands

import (
	"context"
	"os"

	"github.com/ledgerwatch/odb/fieldtype"
	"github.com/ledgerwatch/odb/kvkit/memkv"
	"github.com/ledgerwatch/odb/schema"
	"github.com/ledgerwatch/odb/store"
)

// storePath is the --store flag every subcommand shares: the file a
// session's memkv snapshot is loaded from and saved back to.
var storePath string

// session bundles one invocation's opened store state.
type session struct {
	ctx      context.Context
	mem      *memkv.MemKV
	registry *schema.Registry
	ftypes   *fieldtype.Registry
}

// openSession loads storePath if it exists, otherwise starts empty.
func openSession() (*session, error) {
	mem := memkv.New()
	if f, err := os.Open(storePath); err == nil {
		defer f.Close()
		if err := mem.Load(f); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	ctx := context.Background()
	registry, err := store.LoadRegistry(ctx, mem)
	if err != nil {
		return nil, err
	}
	return &session{
		ctx:      ctx,
		mem:      mem,
		registry: registry,
		ftypes:   fieldtype.New(),
	}, nil
}

// save writes the session's store back to storePath.
func (s *session) save() error {
	f, err := os.Create(storePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.mem.Dump(f)
}

// openTx opens a Transaction at versionNumber, installing model if
// non-nil.
func (s *session) openTx(model *schema.Model, versionNumber uint64) (*store.Transaction, error) {
	opts := store.TxOptions{VersionNumber: versionNumber}
	if model != nil {
		opts.SchemaModel = model
		opts.AllowNewSchema = true
	}
	return store.Open(s.ctx, s.mem, s.registry, s.ftypes, opts)
}

// latestVersion returns the highest installed schema version number, or 0
// if none is installed yet.
func (s *session) latestVersion() uint64 {
	var max uint64
	for _, v := range s.registry.Versions() {
		if v.Number > max {
			max = v.Number
		}
	}
	return max
}
