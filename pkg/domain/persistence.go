package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateTour(Tour) (Tour, error)
	UpdateTour(id string, mutator func(*Tour) error) (Tour, error)
	DeleteTour(id string) error
	CreateMember(Member) (Member, error)
	UpdateMember(id string, mutator func(*Member) error) (Member, error)
	DeleteMember(id string) error
	CreateTransport(Transport) (Transport, error)
	UpdateTransport(id string, mutator func(*Transport) error) (Transport, error)
	DeleteTransport(id string) error
	CreateStopEvent(StopEvent) (StopEvent, error)
	DeleteStopEvent(id string) error
	CreateMealEvent(MealEvent) (MealEvent, error)
	UpdateMealEvent(id string, mutator func(*MealEvent) error) (MealEvent, error)
	DeleteMealEvent(id string) error
	CreateLocality(Locality) (Locality, error)
	CreateAdmissionRule(AdmissionRule) (AdmissionRule, error)
	DeleteAdmissionRule(id string) error
	CreateLogisticsRule(LogisticsRule) (LogisticsRule, error)
	DeleteLogisticsRule(id string) error
	CreateStopRule(StopRule) (StopRule, error)
	DeleteStopRule(id string) error
}

// TransactionView provides read-only access to snapshot data for checks and
// resolution passes.
type TransactionView interface {
	ListTours() []Tour
	FindTour(id string) (Tour, bool)
	ListMembers() []Member
	FindMember(id string) (Member, bool)
	ListTransports() []Transport
	ListStopEvents() []StopEvent
	ListMealEvents() []MealEvent
	ListLocalities() []Locality
	ListAdmissionRules() []AdmissionRule
	ListLogisticsRules() []LogisticsRule
	ListStopRules() []StopRule
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetTour(id string) (Tour, bool)
	ListTours() []Tour
	GetMember(id string) (Member, bool)
	ListMembers() []Member
	ListTransports() []Transport
	ListMealEvents() []MealEvent
}
