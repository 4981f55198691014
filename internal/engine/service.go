package engine

import (
	"context"
	"time"

	"giracore/pkg/domain"
)

// Service exposes higher-level transactional operations and resolution passes
// for the tour domain.
type Service struct {
	store   domain.PersistentStore
	kpis    *KPIEngine
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = rec
	}
}

// WithTracer attaches a tracer to the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		kpis:   NewDefaultKPIEngine(),
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service with an in-memory store and the
// default check set.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(NewDefaultCheckEngine()), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// observe finalizes instrumentation for one operation.
func (s *Service) observe(ctx context.Context, operation string, started time.Time, span TraceSpan, err error) {
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	}
	if span != nil {
		span.End(err)
	}
	if err != nil {
		s.logger.Error(operation+" failed", "error", err)
		return
	}
	s.logger.Debug(operation + " completed")
}

// start opens instrumentation for one operation.
func (s *Service) start(ctx context.Context, operation string) (context.Context, time.Time, TraceSpan) {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	return ctx, time.Now(), span
}

// CreateTour persists a new tour.
func (s *Service) CreateTour(ctx context.Context, tour Tour) (Tour, Result, error) {
	ctx, started, span := s.start(ctx, "create_tour")
	var created Tour
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTour(tour)
		return err
	})
	s.observe(ctx, "create_tour", started, span, err)
	return created, res, err
}

// UpdateTour mutates a tour using the provided mutator.
func (s *Service) UpdateTour(ctx context.Context, id string, mutator func(*Tour) error) (Tour, Result, error) {
	ctx, started, span := s.start(ctx, "update_tour")
	var updated Tour
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateTour(id, mutator)
		return err
	})
	s.observe(ctx, "update_tour", started, span, err)
	return updated, res, err
}

// DeleteTour removes a tour record.
func (s *Service) DeleteTour(ctx context.Context, id string) (Result, error) {
	ctx, started, span := s.start(ctx, "delete_tour")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteTour(id)
	})
	s.observe(ctx, "delete_tour", started, span, err)
	return res, err
}

// CreateMember persists a new roster member.
func (s *Service) CreateMember(ctx context.Context, member Member) (Member, Result, error) {
	ctx, started, span := s.start(ctx, "create_member")
	var created Member
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateMember(member)
		return err
	})
	s.observe(ctx, "create_member", started, span, err)
	return created, res, err
}

// UpdateMember mutates a member using the provided mutator.
func (s *Service) UpdateMember(ctx context.Context, id string, mutator func(*Member) error) (Member, Result, error) {
	ctx, started, span := s.start(ctx, "update_member")
	var updated Member
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMember(id, mutator)
		return err
	})
	s.observe(ctx, "update_member", started, span, err)
	return updated, res, err
}

// CreateTransport persists a new vehicle for a tour.
func (s *Service) CreateTransport(ctx context.Context, transport Transport) (Transport, Result, error) {
	ctx, started, span := s.start(ctx, "create_transport")
	var created Transport
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTransport(transport)
		return err
	})
	s.observe(ctx, "create_transport", started, span, err)
	return created, res, err
}

// CreateStopEvent persists a boarding/alighting event.
func (s *Service) CreateStopEvent(ctx context.Context, event StopEvent) (StopEvent, Result, error) {
	ctx, started, span := s.start(ctx, "create_stop_event")
	var created StopEvent
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStopEvent(event)
		return err
	})
	s.observe(ctx, "create_stop_event", started, span, err)
	return created, res, err
}

// CreateMealEvent persists a convoked meal event.
func (s *Service) CreateMealEvent(ctx context.Context, event MealEvent) (MealEvent, Result, error) {
	ctx, started, span := s.start(ctx, "create_meal_event")
	var created MealEvent
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateMealEvent(event)
		return err
	})
	s.observe(ctx, "create_meal_event", started, span, err)
	return created, res, err
}

// CreateLocality registers a locality catalog entry.
func (s *Service) CreateLocality(ctx context.Context, locality Locality) (Locality, Result, error) {
	ctx, started, span := s.start(ctx, "create_locality")
	var created Locality
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateLocality(locality)
		return err
	})
	s.observe(ctx, "create_locality", started, span, err)
	return created, res, err
}

// CreateAdmissionRule persists a transport admission rule.
func (s *Service) CreateAdmissionRule(ctx context.Context, rule AdmissionRule) (AdmissionRule, Result, error) {
	ctx, started, span := s.start(ctx, "create_admission_rule")
	var created AdmissionRule
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateAdmissionRule(rule)
		return err
	})
	s.observe(ctx, "create_admission_rule", started, span, err)
	return created, res, err
}

// CreateLogisticsRule persists a check-in/check-out rule.
func (s *Service) CreateLogisticsRule(ctx context.Context, rule LogisticsRule) (LogisticsRule, Result, error) {
	ctx, started, span := s.start(ctx, "create_logistics_rule")
	var created LogisticsRule
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateLogisticsRule(rule)
		return err
	})
	s.observe(ctx, "create_logistics_rule", started, span, err)
	return created, res, err
}

// CreateStopRule persists a stop boundary rule.
func (s *Service) CreateStopRule(ctx context.Context, rule StopRule) (StopRule, Result, error) {
	ctx, started, span := s.start(ctx, "create_stop_rule")
	var created StopRule
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStopRule(rule)
		return err
	})
	s.observe(ctx, "create_stop_rule", started, span, err)
	return created, res, err
}

// AssignRoom sets a member's lodging room.
func (s *Service) AssignRoom(ctx context.Context, memberID, roomID string) (Member, Result, error) {
	ctx, started, span := s.start(ctx, "assign_room")
	var updated Member
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMember(memberID, func(m *Member) error {
			m.RoomID = &roomID
			return nil
		})
		return err
	})
	s.observe(ctx, "assign_room", started, span, err)
	return updated, res, err
}

// RecordMealAnswer stores one member's reply to a meal event.
func (s *Service) RecordMealAnswer(ctx context.Context, eventID, memberID string, attends bool) (MealEvent, Result, error) {
	ctx, started, span := s.start(ctx, "record_meal_answer")
	var updated MealEvent
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().FindMember(memberID); !ok {
			return ErrNotFound{Entity: EntityMember, ID: memberID}
		}
		var err error
		updated, err = tx.UpdateMealEvent(eventID, func(e *MealEvent) error {
			if e.Answers == nil {
				e.Answers = map[string]domain.MealAnswer{}
			}
			e.Answers[memberID] = domain.MealAnswer{Attends: attends, AnsweredAt: time.Now().UTC()}
			return nil
		})
		return err
	})
	s.observe(ctx, "record_meal_answer", started, span, err)
	return updated, res, err
}

// MarkPerDiemExported flags a member's per-diem settlement as exported.
func (s *Service) MarkPerDiemExported(ctx context.Context, memberID string) (Member, Result, error) {
	ctx, started, span := s.start(ctx, "mark_perdiem_exported")
	var updated Member
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMember(memberID, func(m *Member) error {
			m.PerDiemExported = true
			return nil
		})
		return err
	})
	s.observe(ctx, "mark_perdiem_exported", started, span, err)
	return updated, res, err
}

// MarkLocalityExported flags a residence locality of a tour as settled.
func (s *Service) MarkLocalityExported(ctx context.Context, tourID string, localityID int64) (Tour, Result, error) {
	ctx, started, span := s.start(ctx, "mark_locality_exported")
	var updated Tour
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateTour(tourID, func(t *Tour) error {
			for _, id := range t.ExportedLocalityIDs {
				if id == localityID {
					return nil
				}
			}
			t.ExportedLocalityIDs = append(t.ExportedLocalityIDs, localityID)
			return nil
		})
		return err
	})
	s.observe(ctx, "mark_locality_exported", started, span, err)
	return updated, res, err
}

// Snapshot assembles the resolution input for one tour.
func (s *Service) Snapshot(ctx context.Context, tourID string) (TourSnapshot, error) {
	var snapshot TourSnapshot
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		snap, ok := BuildTourSnapshot(view, tourID)
		if !ok {
			return ErrNotFound{Entity: EntityTour, ID: tourID}
		}
		snapshot = snap
		return nil
	})
	return snapshot, err
}

// ResolveAssignments runs the admission and stop resolution pass for a tour.
func (s *Service) ResolveAssignments(ctx context.Context, tourID string) (map[string]TransportAssignment, Result, error) {
	ctx, started, span := s.start(ctx, "resolve_assignments")
	snapshot, err := s.Snapshot(ctx, tourID)
	if err != nil {
		s.observe(ctx, "resolve_assignments", started, span, err)
		return nil, Result{}, err
	}
	assignments, res := ResolveAssignments(snapshot)
	s.observe(ctx, "resolve_assignments", started, span, nil)
	return assignments, res, nil
}

// ApplyAssignments resolves a tour's admissions and writes the resulting
// seats back onto the roster.
func (s *Service) ApplyAssignments(ctx context.Context, tourID string) (Result, error) {
	ctx, started, span := s.start(ctx, "apply_assignments")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		snapshot, ok := BuildTourSnapshot(tx.Snapshot(), tourID)
		if !ok {
			return ErrNotFound{Entity: EntityTour, ID: tourID}
		}
		assignments, _ := ResolveAssignments(snapshot)
		for _, m := range snapshot.Roster {
			assignment, ok := assignments[m.ID]
			if !ok {
				continue
			}
			if _, err := tx.UpdateMember(m.ID, func(mm *Member) error {
				mm.Transports = []TransportAssignment{assignment}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	s.observe(ctx, "apply_assignments", started, span, err)
	return res, err
}

// ResolveLogistics computes every active member's check-in/check-out window.
func (s *Service) ResolveLogistics(ctx context.Context, tourID string) (map[string]LogisticsWindow, error) {
	ctx, started, span := s.start(ctx, "resolve_logistics")
	snapshot, err := s.Snapshot(ctx, tourID)
	if err != nil {
		s.observe(ctx, "resolve_logistics", started, span, err)
		return nil, err
	}
	windows := ResolveLogisticsMap(snapshot)
	s.observe(ctx, "resolve_logistics", started, span, nil)
	return windows, nil
}

// CheckTransportAdmission resolves one member against a proposed vehicle,
// reporting the vehicle that already owns the member when there is one.
func (s *Service) CheckTransportAdmission(ctx context.Context, tourID, transportID, memberID string) (AdmissionCheck, error) {
	snapshot, err := s.Snapshot(ctx, tourID)
	if err != nil {
		return AdmissionCheck{}, err
	}
	for _, m := range snapshot.Roster {
		if m.ID == memberID {
			return CheckAdmission(snapshot.Rules.Admission, snapshot.Transports, transportID, m, snapshot.Context), nil
		}
	}
	return AdmissionCheck{}, ErrNotFound{Entity: EntityMember, ID: memberID}
}

// ComputeKPIReport evaluates every registered section calculator for a tour.
func (s *Service) ComputeKPIReport(ctx context.Context, tourID string) (KPIReport, error) {
	ctx, started, span := s.start(ctx, "compute_kpi_report")
	snapshot, err := s.Snapshot(ctx, tourID)
	if err != nil {
		s.observe(ctx, "compute_kpi_report", started, span, err)
		return nil, err
	}
	report := s.kpis.Compute(snapshot)
	s.observe(ctx, "compute_kpi_report", started, span, nil)
	return report, nil
}
