package service

import "github.com/nurpe/dispatch-contracts/internal/model"

// Statutory premium multipliers applied to the worker's base hourly
// rate when no explicit value exists at a higher priority tier.
const (
	OvertimeMultiplier = 1.25
	NightMultiplier    = 1.50
	HolidayMultiplier  = 1.35
)

// RateResolver computes the effective rate set for one worker in one
// contract. Priority per rate type: assignment override, then contract
// default, then the worker's base rate times the statutory multiplier.
// It is a pure function of its inputs.
type RateResolver struct{}

func NewRateResolver() *RateResolver {
	return &RateResolver{}
}

func (r *RateResolver) Resolve(contract *model.Contract, assignment *model.WorkerAssignment, worker *model.Worker) model.ResolvedRates {
	base := worker.HourlyRate

	rates := model.ResolvedRates{
		Hourly:   pickRate(assignment.HourlyRate, contract.HourlyRate, base),
		Overtime: pickRate(assignment.OvertimeRate, contract.OvertimeRate, base*OvertimeMultiplier),
		Night:    pickRate(assignment.NightRate, contract.NightRate, base*NightMultiplier),
		Holiday:  pickRate(assignment.HolidayRate, contract.HolidayRate, base*HolidayMultiplier),
	}

	// The source tag reflects which tier supplied the hourly rate; the
	// worker-base fallback counts as individual.
	if assignment.HourlyRate == nil && contract.HourlyRate != nil {
		rates.Source = model.RateSourceContract
	} else {
		rates.Source = model.RateSourceIndividual
	}
	return rates
}

func pickRate(override, contractDefault *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	if contractDefault != nil {
		return *contractDefault
	}
	return fallback
}
