package store

import "fmt"

// Stale is returned, once a transaction's commit or rollback has begun, by
// Commit, Rollback and the operations that check validity: Exists, Create,
// Delete, ReadSimple, WriteSimple, the counter operations,
// RebuildCompositeIndexes and Copy. The Set/List/Map views, the index
// queries, MigrateSchema and listener registration do not check it.
var Stale = staleErr{}

type staleErr struct{}

func (staleErr) Error() string { return "store: transaction is stale" }

// RollbackOnly is returned by Commit on a transaction marked
// set_rollback_only.
var RollbackOnly = rollbackOnlyErr{}

type rollbackOnlyErr struct{}

func (rollbackOnlyErr) Error() string { return "store: transaction is rollback-only" }

// RetryTransaction is propagated unchanged from the KV layer to tell the
// caller to re-attempt the whole transaction.
var RetryTransaction = retryErr{}

type retryErr struct{}

func (retryErr) Error() string { return "store: retry transaction" }

// Deleted reports that id does not exist (was deleted, or never existed).
type Deleted struct{ ID fmt.Stringer }

func (e Deleted) Error() string { return fmt.Sprintf("store: object %s is deleted", e.ID) }

// UnknownType reports an object-type storage-id absent from the resolved
// schema version.
type UnknownType struct{ StorageID uint64 }

func (e UnknownType) Error() string { return fmt.Sprintf("store: unknown object type %d", e.StorageID) }

// UnknownField reports a field storage-id absent from an object type.
type UnknownField struct {
	TypeStorageID, FieldStorageID uint64
}

func (e UnknownField) Error() string {
	return fmt.Sprintf("store: unknown field %d on type %d", e.FieldStorageID, e.TypeStorageID)
}

// UnknownIndex reports an index storage-id with no matching definition in
// any known schema version.
type UnknownIndex struct{ StorageID uint64 }

func (e UnknownIndex) Error() string { return fmt.Sprintf("store: unknown index %d", e.StorageID) }

// DeletedAssignment reports a reference write whose target does not exist
// and whose field disallows assigning deleted targets.
type DeletedAssignment struct {
	FieldStorageID uint64
	Target         fmt.Stringer
}

func (e DeletedAssignment) Error() string {
	return fmt.Sprintf("store: field %d assigned deleted target %s", e.FieldStorageID, e.Target)
}

// Referenced reports that a delete failed because an EXCEPTION reference
// field still points at the target.
type Referenced struct {
	Target, Referrer fmt.Stringer
	FieldStorageID    uint64
}

func (e Referenced) Error() string {
	return fmt.Sprintf("store: %s still referenced by %s via field %d", e.Target, e.Referrer, e.FieldStorageID)
}

// SchemaMismatch reports incompatible object types or schema versions
// across a copy/migrate boundary.
type SchemaMismatch struct{ Detail string }

func (e SchemaMismatch) Error() string { return "store: schema mismatch: " + e.Detail }

// TypeNotInVersion reports that an object's type is absent from the
// target migration version.
type TypeNotInVersion struct {
	ID      fmt.Stringer
	Version uint64
}

func (e TypeNotInVersion) Error() string {
	return fmt.Sprintf("store: object %s's type is not defined in version %d", e.ID, e.Version)
}

// InconsistentDatabase is reserved for invariant violations detected at
// read time (e.g. a reference pointing at an unknown object type); it is
// always surfaced, never swallowed.
type InconsistentDatabase struct{ Detail string }

func (e InconsistentDatabase) Error() string { return "store: inconsistent database: " + e.Detail }

// IdExhausted is returned by create when no unused random id was found
// for a type within the retry budget.
var IdExhausted = idExhaustedErr{}

type idExhaustedErr struct{}

func (idExhaustedErr) Error() string { return "store: id space exhausted" }
