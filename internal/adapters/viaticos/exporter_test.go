package viaticos

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"giracore/internal/blob"
	"giracore/internal/engine"
	"giracore/pkg/domain"
)

type stubSnapshots struct {
	snapshot engine.TourSnapshot
	err      error
}

func (s stubSnapshots) Snapshot(ctx context.Context, tourID string) (engine.TourSnapshot, error) {
	if s.err != nil {
		return engine.TourSnapshot{}, s.err
	}
	return s.snapshot, nil
}

type recordingMarker struct {
	mu         sync.Mutex
	members    []string
	localities []int64
}

func (m *recordingMarker) MarkPerDiemExported(ctx context.Context, memberID string) (engine.Member, engine.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = append(m.members, memberID)
	return engine.Member{Base: domain.Base{ID: memberID}}, engine.Result{}, nil
}

func (m *recordingMarker) MarkLocalityExported(ctx context.Context, tourID string, localityID int64) (engine.Tour, engine.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localities = append(m.localities, localityID)
	return engine.Tour{Base: domain.Base{ID: tourID}}, engine.Result{}, nil
}

func exportSnapshot() engine.TourSnapshot {
	return engine.TourSnapshot{
		Tour: engine.Tour{Base: domain.Base{ID: "t1"}, Name: "Gira Litoral"},
		Roster: []engine.Member{
			{Base: domain.Base{ID: "m1"}, Name: "Ana", Status: domain.MemberConfirmed, TourRole: domain.RoleMusician, Condition: domain.ConditionContracted, LocalityID: 11},
			{Base: domain.Base{ID: "m2"}, Name: "Bruno", Status: domain.MemberConfirmed, TourRole: domain.RoleStaff, Condition: domain.ConditionStable, LocalityID: 20, PerDiemExported: true},
			{Base: domain.Base{ID: "m3"}, Name: "Clara", Status: domain.MemberConfirmed, TourRole: domain.RoleMusician, Condition: domain.ConditionStable, SystemRole: domain.SystemMusician, LocalityID: 10},
			{Base: domain.Base{ID: "m4"}, Name: "Diego", Status: domain.MemberWithdrawn, TourRole: domain.RoleMusician, Condition: domain.ConditionContracted, LocalityID: 11},
		},
		Context: domain.TourContext{
			Localities: map[int64]domain.Locality{
				10: {ID: 10, Name: "Córdoba", RegionID: 1},
				11: {ID: 11, Name: "Villa María", RegionID: 1},
				20: {ID: 20, Name: "Rosario", RegionID: 2},
			},
			HomeLocalityIDs:    map[int64]bool{10: true},
			ExportedLocalities: map[int64]bool{20: true},
		},
	}
}

func waitForExport(t *testing.T, w *Worker, id string) ExportRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := w.GetExport(id)
		if ok && (record.Status == ExportStatusSucceeded || record.Status == ExportStatusFailed) {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("export %s did not finish", id)
	return ExportRecord{}
}

func TestBuildSettlementLines(t *testing.T) {
	lines := BuildSettlementLines(exportSnapshot())
	if len(lines) != 2 {
		t.Fatalf("expected 2 payable lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].MemberID != "m1" || lines[1].MemberID != "m2" {
		t.Fatalf("lines not sorted by member id: %+v", lines)
	}
	if lines[0].LocalityName != "Villa María" {
		t.Fatalf("locality name not resolved: %+v", lines[0])
	}
	if !lines[1].Exported {
		t.Fatalf("exported flag lost: %+v", lines[1])
	}
}

func TestWorkerExportsArtifacts(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	audit := &MemoryAuditLog{}
	w := NewWorker(stubSnapshots{snapshot: exportSnapshot()}, store, WithAuditLogger(audit))
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	queued, err := w.EnqueueExport(ctx, ExportInput{TourID: "t1", RequestedBy: "admin", Reason: "cierre de mes"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued.Status != ExportStatusQueued || len(queued.Formats) != 2 {
		t.Fatalf("unexpected queued record: %+v", queued)
	}

	record := waitForExport(t, w, queued.ID)
	if record.Status != ExportStatusSucceeded {
		t.Fatalf("export failed: %+v", record)
	}
	if record.Lines != 2 || len(record.Artifacts) != 2 {
		t.Fatalf("unexpected record: %+v", record)
	}

	_, payload, err := store.Get(ctx, fmt.Sprintf("viaticos/t1/%s.json", queued.ID))
	if err != nil {
		t.Fatalf("json artifact missing: %v", err)
	}
	var doc struct {
		TourID string           `json:"id_gira"`
		Lines  []SettlementLine `json:"lineas"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if doc.TourID != "t1" || len(doc.Lines) != 2 {
		t.Fatalf("unexpected artifact: %+v", doc)
	}

	_, payload, err = store.Get(ctx, fmt.Sprintf("viaticos/t1/%s.csv", queued.ID))
	if err != nil {
		t.Fatalf("csv artifact missing: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "id_integrante" {
		t.Fatalf("unexpected csv: %v", rows)
	}
	if rows[1][0] != "m1" || rows[1][5] != "Villa María" || rows[1][6] != "false" {
		t.Fatalf("unexpected csv row: %v", rows[1])
	}

	entries := audit.Entries()
	if len(entries) == 0 {
		t.Fatalf("no audit entries recorded")
	}
	last := entries[len(entries)-1]
	if last.Action != "viaticos_export" || last.Status != ExportStatusSucceeded || last.Actor != "admin" {
		t.Fatalf("unexpected audit entry: %+v", last)
	}
}

func TestWorkerMarksExported(t *testing.T) {
	ctx := context.Background()
	marker := &recordingMarker{}
	w := NewWorker(stubSnapshots{snapshot: exportSnapshot()}, blob.NewMemory(), WithMarker(marker))
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	queued, err := w.EnqueueExport(ctx, ExportInput{TourID: "t1", RequestedBy: "admin", MarkExported: true})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	record := waitForExport(t, w, queued.ID)
	if record.Status != ExportStatusSucceeded {
		t.Fatalf("export failed: %+v", record)
	}

	marker.mu.Lock()
	defer marker.mu.Unlock()
	if len(marker.members) != 1 || marker.members[0] != "m1" {
		t.Fatalf("unexpected members marked: %v", marker.members)
	}
	// Locality 20 was already exported, 10 is home; only 11 settles.
	if len(marker.localities) != 1 || marker.localities[0] != 11 {
		t.Fatalf("unexpected localities marked: %v", marker.localities)
	}
}

func TestWorkerSnapshotFailure(t *testing.T) {
	ctx := context.Background()
	w := NewWorker(stubSnapshots{err: fmt.Errorf("tour missing")}, blob.NewMemory())
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	queued, err := w.EnqueueExport(ctx, ExportInput{TourID: "t1", RequestedBy: "admin"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	record := waitForExport(t, w, queued.ID)
	if record.Status != ExportStatusFailed || !strings.Contains(record.Error, "tour missing") {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestEnqueueValidation(t *testing.T) {
	w := NewWorker(stubSnapshots{snapshot: exportSnapshot()}, blob.NewMemory())

	if _, err := w.EnqueueExport(context.Background(), ExportInput{}); err == nil {
		t.Fatalf("expected error for empty tour id")
	}
	if _, err := w.EnqueueExport(context.Background(), ExportInput{TourID: "t1", Formats: []ExportFormat{"xml"}}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if _, ok := w.GetExport("missing"); ok {
		t.Fatalf("unknown export id resolved")
	}
}
