package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"giracore/pkg/domain"
)

type memoryState struct {
	tours          map[string]Tour
	members        map[string]Member
	transports     map[string]Transport
	stopEvents     map[string]StopEvent
	mealEvents     map[string]MealEvent
	localities     map[int64]Locality
	admissionRules map[string]AdmissionRule
	logisticsRules map[string]LogisticsRule
	stopRules      map[string]StopRule
}

func newMemoryState() memoryState {
	return memoryState{
		tours:          make(map[string]Tour),
		members:        make(map[string]Member),
		transports:     make(map[string]Transport),
		stopEvents:     make(map[string]StopEvent),
		mealEvents:     make(map[string]MealEvent),
		localities:     make(map[int64]Locality),
		admissionRules: make(map[string]AdmissionRule),
		logisticsRules: make(map[string]LogisticsRule),
		stopRules:      make(map[string]StopRule),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.tours {
		cloned.tours[k] = cloneTour(v)
	}
	for k, v := range s.members {
		cloned.members[k] = cloneMember(v)
	}
	for k, v := range s.transports {
		cloned.transports[k] = v
	}
	for k, v := range s.stopEvents {
		cloned.stopEvents[k] = v
	}
	for k, v := range s.mealEvents {
		cloned.mealEvents[k] = cloneMealEvent(v)
	}
	for k, v := range s.localities {
		cloned.localities[k] = v
	}
	for k, v := range s.admissionRules {
		cloned.admissionRules[k] = v
	}
	for k, v := range s.logisticsRules {
		cloned.logisticsRules[k] = v
	}
	for k, v := range s.stopRules {
		cloned.stopRules[k] = v
	}
	return cloned
}

func cloneTour(t Tour) Tour {
	cp := t
	cp.HomeLocalityIDs = append([]int64(nil), t.HomeLocalityIDs...)
	cp.ExportedLocalityIDs = append([]int64(nil), t.ExportedLocalityIDs...)
	return cp
}

func cloneMember(m Member) Member {
	cp := m
	if m.RoomID != nil {
		room := *m.RoomID
		cp.RoomID = &room
	}
	cp.Transports = append([]TransportAssignment(nil), m.Transports...)
	return cp
}

func cloneMealEvent(e MealEvent) MealEvent {
	cp := e
	cp.RawTags = append([]string(nil), e.RawTags...)
	if e.Answers != nil {
		cp.Answers = make(map[string]domain.MealAnswer, len(e.Answers))
		for k, v := range e.Answers {
			cp.Answers[k] = v
		}
	}
	return cp
}

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*MemoryStore)(nil)

// MemoryStore provides an in-memory transactional store for the core domain.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memoryState
	checks *CheckEngine
	nowFn  func() time.Time
}

// NewMemoryStore constructs an in-memory store backed by the provided check engine.
func NewMemoryStore(checks *CheckEngine) *MemoryStore {
	if checks == nil {
		checks = NewCheckEngine()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		checks: checks,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Tx represents a mutation set applied to the store state.
type Tx struct {
	store   *MemoryStore
	state   memoryState
	changes []Change
	now     time.Time
}

// View exposes a read-only snapshot of the store state to checks and
// resolution passes.
type View struct {
	state *memoryState
}

func newView(state *memoryState) View {
	return View{state: state}
}

// ListTours returns all tours within the snapshot.
func (v View) ListTours() []Tour {
	out := make([]Tour, 0, len(v.state.tours))
	for _, t := range v.state.tours {
		out = append(out, cloneTour(t))
	}
	return out
}

// FindTour retrieves a tour by ID from the snapshot.
func (v View) FindTour(id string) (Tour, bool) {
	t, ok := v.state.tours[id]
	if !ok {
		return Tour{}, false
	}
	return cloneTour(t), true
}

// ListMembers returns all roster members.
func (v View) ListMembers() []Member {
	out := make([]Member, 0, len(v.state.members))
	for _, m := range v.state.members {
		out = append(out, cloneMember(m))
	}
	return out
}

// FindMember retrieves a member by ID from the snapshot.
func (v View) FindMember(id string) (Member, bool) {
	m, ok := v.state.members[id]
	if !ok {
		return Member{}, false
	}
	return cloneMember(m), true
}

// ListTransports returns all vehicles present in the snapshot.
func (v View) ListTransports() []Transport {
	out := make([]Transport, 0, len(v.state.transports))
	for _, t := range v.state.transports {
		out = append(out, t)
	}
	return out
}

// ListStopEvents returns all boarding/alighting events.
func (v View) ListStopEvents() []StopEvent {
	out := make([]StopEvent, 0, len(v.state.stopEvents))
	for _, e := range v.state.stopEvents {
		out = append(out, e)
	}
	return out
}

// ListMealEvents returns all meal events.
func (v View) ListMealEvents() []MealEvent {
	out := make([]MealEvent, 0, len(v.state.mealEvents))
	for _, e := range v.state.mealEvents {
		out = append(out, cloneMealEvent(e))
	}
	return out
}

// ListLocalities returns the locality catalog.
func (v View) ListLocalities() []Locality {
	out := make([]Locality, 0, len(v.state.localities))
	for _, l := range v.state.localities {
		out = append(out, l)
	}
	return out
}

// ListAdmissionRules returns all transport admission rules.
func (v View) ListAdmissionRules() []AdmissionRule {
	out := make([]AdmissionRule, 0, len(v.state.admissionRules))
	for _, r := range v.state.admissionRules {
		out = append(out, r)
	}
	return out
}

// ListLogisticsRules returns all check-in/check-out rules.
func (v View) ListLogisticsRules() []LogisticsRule {
	out := make([]LogisticsRule, 0, len(v.state.logisticsRules))
	for _, r := range v.state.logisticsRules {
		out = append(out, r)
	}
	return out
}

// ListStopRules returns all stop boundary rules.
func (v View) ListStopRules() []StopRule {
	out := make([]StopRule, 0, len(v.state.stopRules))
	for _, r := range v.state.stopRules {
		out = append(out, r)
	}
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered checks run against the resulting state before commit; their
// violations are reported but never block the commit.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.checks != nil {
		view := newView(&tx.state)
		res, err := s.checks.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newView(&snapshot)
	return fn(view)
}

// Snapshot returns the transaction's current view.
func (tx *Tx) Snapshot() domain.TransactionView {
	return newView(&tx.state)
}

func (tx *Tx) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateTour stores a new tour within the transaction.
func (tx *Tx) CreateTour(t Tour) (Tour, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tours[t.ID]; exists {
		return Tour{}, fmt.Errorf("tour %q already exists", t.ID)
	}
	if t.Status == "" {
		t.Status = domain.TourStatusDraft
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.tours[t.ID] = cloneTour(t)
	tx.recordChange(Change{Entity: EntityTour, Action: ActionCreate, After: cloneTour(t)})
	return cloneTour(t), nil
}

// UpdateTour mutates a tour using the provided mutator.
func (tx *Tx) UpdateTour(id string, mutator func(*Tour) error) (Tour, error) {
	current, ok := tx.state.tours[id]
	if !ok {
		return Tour{}, fmt.Errorf("tour %q not found", id)
	}
	before := cloneTour(current)
	if err := mutator(&current); err != nil {
		return Tour{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.tours[id] = cloneTour(current)
	tx.recordChange(Change{Entity: EntityTour, Action: ActionUpdate, Before: before, After: cloneTour(current)})
	return cloneTour(current), nil
}

// DeleteTour removes a tour from the transaction state.
func (tx *Tx) DeleteTour(id string) error {
	current, ok := tx.state.tours[id]
	if !ok {
		return fmt.Errorf("tour %q not found", id)
	}
	delete(tx.state.tours, id)
	tx.recordChange(Change{Entity: EntityTour, Action: ActionDelete, Before: cloneTour(current)})
	return nil
}

// CreateMember stores a new roster member.
func (tx *Tx) CreateMember(m Member) (Member, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.members[m.ID]; exists {
		return Member{}, fmt.Errorf("member %q already exists", m.ID)
	}
	if m.Status == "" {
		m.Status = domain.MemberConfirmed
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.members[m.ID] = cloneMember(m)
	tx.recordChange(Change{Entity: EntityMember, Action: ActionCreate, After: cloneMember(m)})
	return cloneMember(m), nil
}

// UpdateMember mutates a member using the provided mutator function.
func (tx *Tx) UpdateMember(id string, mutator func(*Member) error) (Member, error) {
	current, ok := tx.state.members[id]
	if !ok {
		return Member{}, fmt.Errorf("member %q not found", id)
	}
	before := cloneMember(current)
	if err := mutator(&current); err != nil {
		return Member{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.members[id] = cloneMember(current)
	tx.recordChange(Change{Entity: EntityMember, Action: ActionUpdate, Before: before, After: cloneMember(current)})
	return cloneMember(current), nil
}

// DeleteMember removes a member from the transaction state.
func (tx *Tx) DeleteMember(id string) error {
	current, ok := tx.state.members[id]
	if !ok {
		return fmt.Errorf("member %q not found", id)
	}
	delete(tx.state.members, id)
	tx.recordChange(Change{Entity: EntityMember, Action: ActionDelete, Before: cloneMember(current)})
	return nil
}

// CreateTransport stores a new vehicle.
func (tx *Tx) CreateTransport(t Transport) (Transport, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.transports[t.ID]; exists {
		return Transport{}, fmt.Errorf("transport %q already exists", t.ID)
	}
	if _, ok := tx.state.tours[t.TourID]; !ok {
		return Transport{}, ErrNotFound{Entity: EntityTour, ID: t.TourID}
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.transports[t.ID] = t
	tx.recordChange(Change{Entity: EntityTransport, Action: ActionCreate, After: t})
	return t, nil
}

// UpdateTransport mutates a vehicle.
func (tx *Tx) UpdateTransport(id string, mutator func(*Transport) error) (Transport, error) {
	current, ok := tx.state.transports[id]
	if !ok {
		return Transport{}, fmt.Errorf("transport %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Transport{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.transports[id] = current
	tx.recordChange(Change{Entity: EntityTransport, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteTransport removes a vehicle and its attached rules and stop events.
func (tx *Tx) DeleteTransport(id string) error {
	current, ok := tx.state.transports[id]
	if !ok {
		return fmt.Errorf("transport %q not found", id)
	}
	delete(tx.state.transports, id)
	for rid, r := range tx.state.admissionRules {
		if r.TransportID == id {
			delete(tx.state.admissionRules, rid)
		}
	}
	for eid, e := range tx.state.stopEvents {
		if e.TransportID == id {
			for rid, r := range tx.state.stopRules {
				if r.StopEventID == eid {
					delete(tx.state.stopRules, rid)
				}
			}
			delete(tx.state.stopEvents, eid)
		}
	}
	tx.recordChange(Change{Entity: EntityTransport, Action: ActionDelete, Before: current})
	return nil
}

// CreateStopEvent stores a boarding/alighting event for a vehicle.
func (tx *Tx) CreateStopEvent(e StopEvent) (StopEvent, error) {
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.stopEvents[e.ID]; exists {
		return StopEvent{}, fmt.Errorf("stop event %q already exists", e.ID)
	}
	if _, ok := tx.state.transports[e.TransportID]; !ok {
		return StopEvent{}, ErrNotFound{Entity: EntityTransport, ID: e.TransportID}
	}
	if e.Kind != domain.StopBoarding && e.Kind != domain.StopAlighting {
		return StopEvent{}, fmt.Errorf("stop event kind %q not recognized", e.Kind)
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.stopEvents[e.ID] = e
	tx.recordChange(Change{Entity: EntityStopEvent, Action: ActionCreate, After: e})
	return e, nil
}

// DeleteStopEvent removes a stop event and its boundary rules.
func (tx *Tx) DeleteStopEvent(id string) error {
	current, ok := tx.state.stopEvents[id]
	if !ok {
		return fmt.Errorf("stop event %q not found", id)
	}
	delete(tx.state.stopEvents, id)
	for rid, r := range tx.state.stopRules {
		if r.StopEventID == id {
			delete(tx.state.stopRules, rid)
		}
	}
	tx.recordChange(Change{Entity: EntityStopEvent, Action: ActionDelete, Before: current})
	return nil
}

// CreateMealEvent stores a convoked meal event.
func (tx *Tx) CreateMealEvent(e MealEvent) (MealEvent, error) {
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.mealEvents[e.ID]; exists {
		return MealEvent{}, fmt.Errorf("meal event %q already exists", e.ID)
	}
	if _, ok := tx.state.tours[e.TourID]; !ok {
		return MealEvent{}, ErrNotFound{Entity: EntityTour, ID: e.TourID}
	}
	if e.Answers == nil {
		e.Answers = map[string]domain.MealAnswer{}
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.mealEvents[e.ID] = cloneMealEvent(e)
	tx.recordChange(Change{Entity: EntityMealEvent, Action: ActionCreate, After: cloneMealEvent(e)})
	return cloneMealEvent(e), nil
}

// UpdateMealEvent mutates a meal event.
func (tx *Tx) UpdateMealEvent(id string, mutator func(*MealEvent) error) (MealEvent, error) {
	current, ok := tx.state.mealEvents[id]
	if !ok {
		return MealEvent{}, fmt.Errorf("meal event %q not found", id)
	}
	before := cloneMealEvent(current)
	if err := mutator(&current); err != nil {
		return MealEvent{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.mealEvents[id] = cloneMealEvent(current)
	tx.recordChange(Change{Entity: EntityMealEvent, Action: ActionUpdate, Before: before, After: cloneMealEvent(current)})
	return cloneMealEvent(current), nil
}

// DeleteMealEvent removes a meal event.
func (tx *Tx) DeleteMealEvent(id string) error {
	current, ok := tx.state.mealEvents[id]
	if !ok {
		return fmt.Errorf("meal event %q not found", id)
	}
	delete(tx.state.mealEvents, id)
	tx.recordChange(Change{Entity: EntityMealEvent, Action: ActionDelete, Before: cloneMealEvent(current)})
	return nil
}

// CreateLocality registers a locality catalog entry.
func (tx *Tx) CreateLocality(l Locality) (Locality, error) {
	if l.ID == 0 {
		return Locality{}, errors.New("locality id must be set")
	}
	if _, exists := tx.state.localities[l.ID]; exists {
		return Locality{}, fmt.Errorf("locality %d already exists", l.ID)
	}
	tx.state.localities[l.ID] = l
	tx.recordChange(Change{Entity: EntityLocality, Action: ActionCreate, After: l})
	return l, nil
}

// CreateAdmissionRule stores an admission rule for a vehicle.
func (tx *Tx) CreateAdmissionRule(r AdmissionRule) (AdmissionRule, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.admissionRules[r.ID]; exists {
		return AdmissionRule{}, fmt.Errorf("admission rule %q already exists", r.ID)
	}
	if _, ok := tx.state.transports[r.TransportID]; !ok {
		return AdmissionRule{}, ErrNotFound{Entity: EntityTransport, ID: r.TransportID}
	}
	if r.Kind != domain.RuleInclusion && r.Kind != domain.RuleExclusion {
		return AdmissionRule{}, fmt.Errorf("admission rule kind %q not recognized", r.Kind)
	}
	tx.state.admissionRules[r.ID] = r
	tx.recordChange(Change{Entity: EntityAdmissionRule, Action: ActionCreate, After: r})
	return r, nil
}

// DeleteAdmissionRule removes an admission rule.
func (tx *Tx) DeleteAdmissionRule(id string) error {
	current, ok := tx.state.admissionRules[id]
	if !ok {
		return fmt.Errorf("admission rule %q not found", id)
	}
	delete(tx.state.admissionRules, id)
	tx.recordChange(Change{Entity: EntityAdmissionRule, Action: ActionDelete, Before: current})
	return nil
}

// CreateLogisticsRule stores a check-in/check-out rule.
func (tx *Tx) CreateLogisticsRule(r LogisticsRule) (LogisticsRule, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.logisticsRules[r.ID]; exists {
		return LogisticsRule{}, fmt.Errorf("logistics rule %q already exists", r.ID)
	}
	if _, ok := tx.state.tours[r.TourID]; !ok {
		return LogisticsRule{}, ErrNotFound{Entity: EntityTour, ID: r.TourID}
	}
	tx.state.logisticsRules[r.ID] = r
	tx.recordChange(Change{Entity: EntityLogisticsRule, Action: ActionCreate, After: r})
	return r, nil
}

// DeleteLogisticsRule removes a logistics rule.
func (tx *Tx) DeleteLogisticsRule(id string) error {
	current, ok := tx.state.logisticsRules[id]
	if !ok {
		return fmt.Errorf("logistics rule %q not found", id)
	}
	delete(tx.state.logisticsRules, id)
	tx.recordChange(Change{Entity: EntityLogisticsRule, Action: ActionDelete, Before: current})
	return nil
}

// CreateStopRule stores a stop boundary rule.
func (tx *Tx) CreateStopRule(r StopRule) (StopRule, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.stopRules[r.ID]; exists {
		return StopRule{}, fmt.Errorf("stop rule %q already exists", r.ID)
	}
	if _, ok := tx.state.stopEvents[r.StopEventID]; !ok {
		return StopRule{}, ErrNotFound{Entity: EntityStopEvent, ID: r.StopEventID}
	}
	tx.state.stopRules[r.ID] = r
	tx.recordChange(Change{Entity: EntityStopRule, Action: ActionCreate, After: r})
	return r, nil
}

// DeleteStopRule removes a stop boundary rule.
func (tx *Tx) DeleteStopRule(id string) error {
	current, ok := tx.state.stopRules[id]
	if !ok {
		return fmt.Errorf("stop rule %q not found", id)
	}
	delete(tx.state.stopRules, id)
	tx.recordChange(Change{Entity: EntityStopRule, Action: ActionDelete, Before: current})
	return nil
}

// GetTour returns a tour by id.
func (s *MemoryStore) GetTour(id string) (Tour, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tours[id]
	if !ok {
		return Tour{}, false
	}
	return cloneTour(t), true
}

// ListTours returns all tours.
func (s *MemoryStore) ListTours() []Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newView(&s.state).ListTours()
}

// GetMember returns a member by id.
func (s *MemoryStore) GetMember(id string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.members[id]
	if !ok {
		return Member{}, false
	}
	return cloneMember(m), true
}

// ListMembers returns all roster members.
func (s *MemoryStore) ListMembers() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newView(&s.state).ListMembers()
}

// ListTransports returns all vehicles.
func (s *MemoryStore) ListTransports() []Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newView(&s.state).ListTransports()
}

// ListMealEvents returns all meal events.
func (s *MemoryStore) ListMealEvents() []MealEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newView(&s.state).ListMealEvents()
}

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
