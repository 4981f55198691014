// Command tour-report loads tour state, resolves transport assignments and
// logistics, and prints the KPI traffic-light report as JSON. The process
// exits non-zero when any section reports red.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"giracore/internal/adapters/viaticos"
	"giracore/internal/blob"
	"giracore/internal/engine"
	"giracore/pkg/domain"

	_ "giracore/internal/infra/blob/s3"
	_ "giracore/internal/infra/persistence/postgres"
	_ "giracore/internal/infra/persistence/sqlite"
)

var exitFunc = os.Exit

type report struct {
	TourID      string                                `json:"id_gira"`
	TourName    string                                `json:"nombre"`
	Report      domain.KPIReport                      `json:"semaforo"`
	Assignments map[string]domain.TransportAssignment `json:"asignaciones,omitempty"`
	Warnings    []domain.Violation                    `json:"avisos,omitempty"`
	Export      *viaticos.ExportRecord                `json:"export_viaticos,omitempty"`
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tour-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		statePath  string
		tourID     string
		doExport   bool
		markExport bool
		verbose    bool
	)
	fs.StringVar(&statePath, "state", "", "path to a JSON state file to load before reporting")
	fs.StringVar(&tourID, "tour", "", "tour id to report on (required)")
	fs.BoolVar(&doExport, "export-viaticos", false, "run a per-diem export before reporting")
	fs.BoolVar(&markExport, "mark-exported", false, "flip exported flags after a successful per-diem export")
	fs.BoolVar(&verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if tourID == "" {
		fmt.Fprintln(stderr, "tour-report: -tour required")
		fs.Usage()
		return 2
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	out, err := run(context.Background(), statePath, tourID, doExport, markExport, logger)
	if err != nil {
		fmt.Fprintf(stderr, "tour-report: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "tour-report: encode report: %v\n", err)
		return 1
	}
	if hasRed(out.Report) {
		return 1
	}
	return 0
}

func run(ctx context.Context, statePath, tourID string, doExport, markExport bool, logger engine.Logger) (report, error) {
	store, err := engine.OpenPersistentStore(engine.NewDefaultCheckEngine())
	if err != nil {
		return report{}, fmt.Errorf("open store: %w", err)
	}
	if statePath != "" {
		if err := loadState(store, statePath); err != nil {
			return report{}, err
		}
	}
	svc := engine.NewService(store, engine.WithLogger(logger))

	assignments, result, err := svc.ResolveAssignments(ctx, tourID)
	if err != nil {
		return report{}, fmt.Errorf("resolve assignments: %w", err)
	}
	applyResult, err := svc.ApplyAssignments(ctx, tourID)
	if err != nil {
		return report{}, fmt.Errorf("apply assignments: %w", err)
	}
	result.Merge(applyResult)

	out := report{TourID: tourID, Assignments: assignments, Warnings: result.Warnings()}

	if doExport {
		record, err := runExport(ctx, svc, tourID, markExport, logger)
		if err != nil {
			return report{}, err
		}
		out.Export = &record
	}

	snapshot, err := svc.Snapshot(ctx, tourID)
	if err != nil {
		return report{}, fmt.Errorf("load tour: %w", err)
	}
	out.TourName = snapshot.Tour.Name

	kpis, err := svc.ComputeKPIReport(ctx, tourID)
	if err != nil {
		return report{}, fmt.Errorf("compute report: %w", err)
	}
	out.Report = kpis
	return out, nil
}

// runExport enqueues a per-diem export and waits for the worker to finish.
func runExport(ctx context.Context, svc *engine.Service, tourID string, markExported bool, logger engine.Logger) (viaticos.ExportRecord, error) {
	artifacts, err := blob.Open(ctx)
	if err != nil {
		return viaticos.ExportRecord{}, fmt.Errorf("open blob store: %w", err)
	}
	worker := viaticos.NewWorker(svc, artifacts, viaticos.WithMarker(svc))
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()

	record, err := worker.EnqueueExport(ctx, viaticos.ExportInput{
		TourID:       tourID,
		RequestedBy:  "tour-report",
		MarkExported: markExported,
	})
	if err != nil {
		return viaticos.ExportRecord{}, fmt.Errorf("enqueue export: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		current, ok := worker.GetExport(record.ID)
		if !ok {
			break
		}
		if current.Status == viaticos.ExportStatusSucceeded {
			logger.Info("per-diem export finished", "export_id", current.ID, "lineas", current.Lines)
			return current, nil
		}
		if current.Status == viaticos.ExportStatusFailed {
			return current, fmt.Errorf("per-diem export failed: %s", current.Error)
		}
		time.Sleep(50 * time.Millisecond)
	}
	return viaticos.ExportRecord{}, fmt.Errorf("per-diem export timed out")
}

// stateImporter is satisfied by the memory-backed stores.
type stateImporter interface {
	ImportState(engine.State)
}

func loadState(store domain.PersistentStore, path string) error {
	importer, ok := store.(stateImporter)
	if !ok {
		return fmt.Errorf("configured storage driver does not support state files")
	}
	payload, err := os.ReadFile(path) // #nosec G304: operator-supplied path
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	var state engine.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return fmt.Errorf("parse state: %w", err)
	}
	importer.ImportState(state)
	return nil
}

func hasRed(r domain.KPIReport) bool {
	for _, section := range r {
		if section == nil {
			continue
		}
		for _, entry := range section.KPI {
			if entry.Color == domain.ColorRed {
				return true
			}
		}
	}
	return false
}
