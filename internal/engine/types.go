package engine

import "giracore/pkg/domain"

type (
	EntityType          = domain.EntityType
	Tour                = domain.Tour
	Member              = domain.Member
	Locality            = domain.Locality
	Transport           = domain.Transport
	StopEvent           = domain.StopEvent
	MealEvent           = domain.MealEvent
	Tag                 = domain.Tag
	RuleTarget          = domain.RuleTarget
	AdmissionRule       = domain.AdmissionRule
	LogisticsRule       = domain.LogisticsRule
	StopRule            = domain.StopRule
	RuleSnapshot        = domain.RuleSnapshot
	TourContext         = domain.TourContext
	TourSnapshot        = domain.TourSnapshot
	TransportAssignment = domain.TransportAssignment
	LogisticsWindow     = domain.LogisticsWindow
	Change              = domain.Change
	Violation           = domain.Violation
	Result              = domain.Result
	SectionReport       = domain.SectionReport
	KPIEntry            = domain.KPIEntry
	KPIReport           = domain.KPIReport
)

const (
	EntityTour          = domain.EntityTour
	EntityMember        = domain.EntityMember
	EntityTransport     = domain.EntityTransport
	EntityStopEvent     = domain.EntityStopEvent
	EntityMealEvent     = domain.EntityMealEvent
	EntityLocality      = domain.EntityLocality
	EntityAdmissionRule = domain.EntityAdmissionRule
	EntityLogisticsRule = domain.EntityLogisticsRule
	EntityStopRule      = domain.EntityStopRule
)

const (
	SeverityWarn = domain.SeverityWarn
	SeverityLog  = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	ColorRed   = domain.ColorRed
	ColorAmber = domain.ColorAmber
	ColorGreen = domain.ColorGreen
	ColorGray  = domain.ColorGray
)

const (
	SectionRoster    = domain.SectionRoster
	SectionRooming   = domain.SectionRooming
	SectionTransport = domain.SectionTransport
	SectionPerDiem   = domain.SectionPerDiem
	SectionMeals     = domain.SectionMeals
)
