package store

import (
	"fmt"
	"sort"

	"github.com/ledgerwatch/odb/metrics"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// CreateListener fires after an object is created.
type CreateListener func(id objid.ObjID)

// DeleteListener fires the first time a deletion reaches id, before its
// KV footprint is removed.
type DeleteListener func(id objid.ObjID)

// SchemaChangeListener fires after id migrates between schema versions,
// receiving the old field values the migration needed to discard.
type SchemaChangeListener func(id objid.ObjID, oldValues map[uint64]interface{})

// ChangeDetail describes one field mutation delivered to a FieldMonitor.
type ChangeDetail struct {
	FieldSID uint64
	Kind     schema.FieldKind
	Old, New interface{}
}

// FieldChangeListener is delivered the set of referrer ObjIds reached by
// inverting a FieldMonitor's path, plus the change itself.
type FieldChangeListener func(referrers []objid.ObjID, detail ChangeDetail)

// FieldMonitor watches a field "through" a chain of reference hops. Path
// entries follow the source's signed storage-id convention: a positive
// entry is an inverse (back-reference) hop, a negative entry is a forward
// hop (see invertPath in index.go).
type FieldMonitor struct {
	TargetFieldSID uint64
	Path           []int64
	TypeFilter     []KeyRange
	Listener       FieldChangeListener
}

type notification struct {
	seq      int
	fieldSID uint64
	objID    objid.ObjID
	detail   ChangeDetail
}

type listenerState struct {
	createListeners       []CreateListener
	deleteListeners       []DeleteListener
	schemaChangeListeners []SchemaChangeListener

	monitorsByField map[uint64][]*FieldMonitor
	frozen          bool

	pending []notification
	nextSeq int
}

func newListenerState() *listenerState {
	return &listenerState{monitorsByField: make(map[uint64][]*FieldMonitor)}
}

// AddCreateListener registers l to fire on every subsequent create.
func (tx *Transaction) AddCreateListener(l CreateListener) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.listeners.createListeners = append(tx.listeners.createListeners, l)
}

// AddDeleteListener registers l to fire once per object the first time a
// delete reaches it.
func (tx *Transaction) AddDeleteListener(l DeleteListener) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.listeners.deleteListeners = append(tx.listeners.deleteListeners, l)
}

// AddSchemaChangeListener registers l to fire after a migration.
func (tx *Transaction) AddSchemaChangeListener(l SchemaChangeListener) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.listeners.schemaChangeListeners = append(tx.listeners.schemaChangeListeners, l)
}

// errMonitorsFrozen is returned by RegisterFieldMonitor after
// InstallListeners has frozen the monitor set.
var errMonitorsFrozen = fmt.Errorf("store: field monitor set is frozen")

// RegisterFieldMonitor adds m to the set watched for field changes.
func (tx *Transaction) RegisterFieldMonitor(m *FieldMonitor) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.listeners.frozen {
		return errMonitorsFrozen
	}
	tx.listeners.monitorsByField[m.TargetFieldSID] = append(tx.listeners.monitorsByField[m.TargetFieldSID], m)
	return nil
}

// InstallListeners replaces the monitor set wholesale with snapshot and
// freezes it against further registration, matching the bulk
// re-installation path used when reopening a transaction against an
// existing monitor catalog.
func (tx *Transaction) InstallListeners(snapshot map[uint64][]*FieldMonitor) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.listeners.monitorsByField = snapshot
	tx.listeners.frozen = true
}

func (tx *Transaction) enqueue(fieldSID uint64, id objid.ObjID, detail ChangeDetail) {
	tx.listeners.pending = append(tx.listeners.pending, notification{
		seq: tx.listeners.nextSeq, fieldSID: fieldSID, objID: id, detail: detail,
	})
	tx.listeners.nextSeq++
}

func (tx *Transaction) fireCreate(id objid.ObjID) {
	for _, l := range tx.listeners.createListeners {
		l(id)
	}
}

func (tx *Transaction) fireDelete(id objid.ObjID) {
	for _, l := range tx.listeners.deleteListeners {
		l(id)
	}
}

func (tx *Transaction) fireSchemaChange(id objid.ObjID, old map[uint64]interface{}) {
	for _, l := range tx.listeners.schemaChangeListeners {
		l(id, old)
	}
}

// drainNotifications runs the fixed-point BFS over every pending
// FieldChangeNotification, in ascending field-storage-id order and, within
// a field, insertion order. Listener callbacks that enqueue further
// notifications are served by re-looping until the queue is empty, as
// required by the re-entrant mutation rule.
func (tx *Transaction) drainNotifications() {
	for len(tx.listeners.pending) > 0 {
		batch := tx.listeners.pending
		tx.listeners.pending = nil
		sort.SliceStable(batch, func(i, j int) bool {
			if batch[i].fieldSID != batch[j].fieldSID {
				return batch[i].fieldSID < batch[j].fieldSID
			}
			return batch[i].seq < batch[j].seq
		})
		for _, n := range batch {
			tx.deliverOne(n)
		}
	}
}

func (tx *Transaction) deliverOne(n notification) {
	monitors := tx.listeners.monitorsByField[n.fieldSID]
	for _, m := range monitors {
		referrers, err := invertPath(tx, []objid.ObjID{n.objID}, m.Path)
		if err != nil {
			continue
		}
		if len(referrers) == 0 {
			continue
		}
		if !passesTypeFilter(referrers, m.TypeFilter) {
			continue
		}
		m.Listener(referrers, n.detail)
		metrics.NotificationsDelivered.Inc()
	}
}

func passesTypeFilter(ids []objid.ObjID, filter []KeyRange) bool {
	if len(filter) == 0 {
		return true
	}
	for _, id := range ids {
		if keyRangesContain(filter, id.Bytes()) {
			return true
		}
	}
	return false
}
