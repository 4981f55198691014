// Package viaticos renders per-diem settlement exports for a tour and runs
// them asynchronously against an object store.
package viaticos

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"giracore/internal/blob"
	"giracore/internal/engine"
)

// ExportFormat identifies a settlement artifact encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// SettlementLine is one payable row of a per-diem export.
type SettlementLine struct {
	MemberID     string `json:"id_integrante"`
	Name         string `json:"nombre"`
	TourRole     string `json:"rol_gira"`
	Condition    string `json:"condicion"`
	LocalityID   int64  `json:"id_localidad,omitempty"`
	LocalityName string `json:"localidad,omitempty"`
	Exported     bool   `json:"ya_exportado"`
}

// ExportRecord tracks an export request and its resulting artifacts.
type ExportRecord struct {
	ID          string         `json:"id"`
	TourID      string         `json:"id_gira"`
	Formats     []ExportFormat `json:"formatos"`
	Status      ExportStatus   `json:"estado"`
	Error       string         `json:"error,omitempty"`
	Lines       int            `json:"lineas"`
	Artifacts   []blob.Info    `json:"artifacts,omitempty"`
	RequestedBy string         `json:"solicitado_por"`
	Reason      string         `json:"motivo,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	TourID      string
	Formats     []ExportFormat
	RequestedBy string
	Reason      string
	// MarkExported flips the exported flag on every settled member and
	// locality once the artifacts are stored.
	MarkExported bool
}

// SnapshotProvider resolves the full tour state the export is rendered from.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, tourID string) (engine.TourSnapshot, error)
}

// SettlementMarker records which members and localities an export settled.
type SettlementMarker interface {
	MarkPerDiemExported(ctx context.Context, memberID string) (engine.Member, engine.Result, error)
	MarkLocalityExported(ctx context.Context, tourID string, localityID int64) (engine.Tour, engine.Result, error)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	TourID     string         `json:"id_gira"`
	Status     ExportStatus   `json:"estado"`
	Reason     string         `json:"motivo,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Worker executes per-diem exports asynchronously.
type Worker struct {
	snapshots SnapshotProvider
	marker    SettlementMarker
	store     blob.Store
	audit     AuditLogger

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

// WorkerOption customizes worker construction.
type WorkerOption func(*Worker)

// WithMarker wires the settlement marker used when MarkExported is requested.
func WithMarker(m SettlementMarker) WorkerOption {
	return func(w *Worker) { w.marker = m }
}

// WithAuditLogger wires the audit sink.
func WithAuditLogger(a AuditLogger) WorkerOption {
	return func(w *Worker) { w.audit = a }
}

// NewWorker constructs an export worker.
func NewWorker(snapshots SnapshotProvider, store blob.Store, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		snapshots: snapshots,
		store:     store,
		queue:     make(chan exportTask, 32),
		jobs:      make(map[string]*ExportRecord),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.snapshots == nil {
		return ExportRecord{}, fmt.Errorf("snapshot provider not configured")
	}
	if strings.TrimSpace(input.TourID) == "" {
		return ExportRecord{}, fmt.Errorf("tour id required")
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []ExportFormat{FormatJSON, FormatCSV}
	}
	uniq := make([]ExportFormat, 0, len(formats))
	seen := make(map[ExportFormat]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		if format != FormatCSV && format != FormatJSON {
			return ExportRecord{}, fmt.Errorf("unsupported export format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := ExportRecord{
		ID:          id,
		TourID:      input.TourID,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			ID:         newID(),
			Action:     "viaticos_export",
			Actor:      input.RequestedBy,
			TourID:     input.TourID,
			Status:     ExportStatusQueued,
			Reason:     input.Reason,
			OccurredAt: now,
		})
	}

	select {
	case w.queue <- exportTask{id: id, input: input}:
	default:
		return ExportRecord{}, fmt.Errorf("export queue full")
	}

	return queued, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return ExportRecord{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

func (w *Worker) process(task exportTask) {
	w.updateStatus(task.id, ExportStatusRunning, "")

	snapshot, err := w.snapshots.Snapshot(w.ctx, task.input.TourID)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("load tour: %v", err))
		return
	}

	lines := BuildSettlementLines(snapshot)

	artifacts := make([]blob.Info, 0, 2)
	formats := w.formatsFor(task.id)
	for _, format := range formats {
		payload, contentType, err := render(format, task.input.TourID, lines)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		key := fmt.Sprintf("viaticos/%s/%s.%s", task.input.TourID, task.id, format)
		if w.store != nil {
			stored, err := w.store.Put(w.ctx, key, payload, contentType, map[string]string{
				"id_gira": task.input.TourID,
				"lineas":  strconv.Itoa(len(lines)),
			})
			if err != nil {
				w.fail(task.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			artifacts = append(artifacts, stored)
		}
	}

	if task.input.MarkExported && w.marker != nil {
		if err := w.settle(snapshot, lines); err != nil {
			w.fail(task.id, fmt.Sprintf("mark exported: %v", err))
			return
		}
	}

	w.complete(task.id, len(lines), artifacts)
}

// settle flips the exported flag on members and their non-home localities.
func (w *Worker) settle(snapshot engine.TourSnapshot, lines []SettlementLine) error {
	localities := make(map[int64]struct{})
	for _, line := range lines {
		if !line.Exported {
			if _, _, err := w.marker.MarkPerDiemExported(w.ctx, line.MemberID); err != nil {
				return err
			}
		}
		if line.LocalityID != 0 {
			localities[line.LocalityID] = struct{}{}
		}
	}
	for _, m := range snapshot.Roster {
		if m.Active() && m.LocalityID != 0 && !snapshot.Context.HomeLocalityIDs[m.LocalityID] {
			localities[m.LocalityID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(localities))
	for id := range localities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if snapshot.Context.ExportedLocalities[id] {
			continue
		}
		if _, _, err := w.marker.MarkLocalityExported(w.ctx, snapshot.Tour.ID, id); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) formatsFor(id string) []ExportFormat {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if record, ok := w.jobs[id]; ok {
		return append([]ExportFormat(nil), record.Formats...)
	}
	return nil
}

func (w *Worker) updateStatus(id string, status ExportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	var tourID, actor string
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		tourID = record.TourID
		actor = record.RequestedBy
	}
	w.mu.Unlock()
	if w.audit != nil {
		entry := AuditEntry{
			ID:         newID(),
			Action:     "viaticos_export",
			Actor:      actor,
			TourID:     tourID,
			Status:     status,
			OccurredAt: now,
		}
		if message != "" {
			entry.Metadata = map[string]any{"note": message}
		}
		w.audit.Record(w.ctx, entry)
	}
}

func (w *Worker) complete(id string, lines int, artifacts []blob.Info) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Lines = lines
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.updateAudit(id, ExportStatusSucceeded, nil)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.updateAudit(id, ExportStatusFailed, map[string]any{"error": reason})
}

func (w *Worker) updateAudit(id string, status ExportStatus, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	var tourID, actor string
	if record, ok := w.jobs[id]; ok {
		tourID = record.TourID
		actor = record.RequestedBy
	}
	w.mu.RUnlock()
	w.audit.Record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "viaticos_export",
		Actor:      actor,
		TourID:     tourID,
		Status:     status,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

// BuildSettlementLines renders the payable rows for a tour: every active
// member who settles per diem by export, sorted by member ID.
func BuildSettlementLines(snapshot engine.TourSnapshot) []SettlementLine {
	names := make(map[int64]string, len(snapshot.Context.Localities))
	for id, loc := range snapshot.Context.Localities {
		names[id] = loc.Name
	}
	var lines []SettlementLine
	for _, m := range snapshot.Roster {
		if !m.Active() || !engine.PerDiemEligible(m) {
			continue
		}
		lines = append(lines, SettlementLine{
			MemberID:     m.ID,
			Name:         m.Name,
			TourRole:     string(m.TourRole),
			Condition:    string(m.Condition),
			LocalityID:   m.LocalityID,
			LocalityName: names[m.LocalityID],
			Exported:     m.PerDiemExported,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MemberID < lines[j].MemberID })
	return lines
}

func render(format ExportFormat, tourID string, lines []SettlementLine) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(struct {
			TourID string           `json:"id_gira"`
			Lines  []SettlementLine `json:"lineas"`
		}{TourID: tourID, Lines: lines})
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write([]string{"id_integrante", "nombre", "rol_gira", "condicion", "id_localidad", "localidad", "ya_exportado"}); err != nil {
			return nil, "", err
		}
		for _, line := range lines {
			locality := ""
			if line.LocalityID != 0 {
				locality = strconv.FormatInt(line.LocalityID, 10)
			}
			row := []string{
				line.MemberID,
				line.Name,
				line.TourRole,
				line.Condition,
				locality,
				line.LocalityName,
				strconv.FormatBool(line.Exported),
			}
			if err := writer.Write(row); err != nil {
				return nil, "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %s", format)
	}
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Formats = append([]ExportFormat(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]blob.Info(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(ctx context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
