package lifecycle

import (
	"time"

	"github.com/warp/solar-engine/solar"
)

// =============================================================================
// PHASE STATE MACHINE
// =============================================================================

// Transition moves p to target at the given time.
//
// INVARIANT: after Transition exactly one record is in_progress, and it is
// for target.
//
// Steps:
//  1. Close every in_progress record (completed, EndedAt = at).
//  2. Reopen the latest not-yet-completed record for target, replacing its
//     notes when notes != nil; completed records stay as history.
//  3. Otherwise append a new in_progress record.
//
// Any phase may follow any other; there is no fixed ordering.
func Transition(p *solar.Plant, target solar.Phase, notes *string, at time.Time) {
	for i := range p.Phases {
		if p.Phases[i].Status == solar.PhaseInProgress {
			end := at
			p.Phases[i].Status = solar.PhaseCompleted
			p.Phases[i].EndedAt = &end
		}
	}

	if i := reopenable(p.Phases, target); i >= 0 {
		p.Phases[i].Status = solar.PhaseInProgress
		p.Phases[i].EndedAt = nil
		if notes != nil {
			p.Phases[i].Notes = *notes
		}
	} else {
		rec := solar.PhaseRecord{Phase: target, Status: solar.PhaseInProgress, StartedAt: at}
		if notes != nil {
			rec.Notes = *notes
		}
		p.Phases = append(p.Phases, rec)
	}

	p.CurrentPhase = target
	p.UpdatedAt = at
}

func reopenable(records []solar.PhaseRecord, target solar.Phase) int {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Phase == target && records[i].Status != solar.PhaseCompleted {
			return i
		}
	}
	return -1
}

// seedPhases builds the initial history: the starting phase in progress,
// followed by any planned phases as pending.
func seedPhases(start solar.Phase, planned []solar.Phase, notes string, at time.Time) []solar.PhaseRecord {
	records := []solar.PhaseRecord{{Phase: start, Status: solar.PhaseInProgress, StartedAt: at, Notes: notes}}
	seen := map[solar.Phase]bool{start: true}
	for _, ph := range planned {
		if seen[ph] {
			continue
		}
		seen[ph] = true
		records = append(records, solar.PhaseRecord{Phase: ph, Status: solar.PhasePending, StartedAt: at})
	}
	return records
}
