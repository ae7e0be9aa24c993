// Package assignment picks a driver for a newly created appointment.
//
// The decision is greedy and single-pass: filter drivers down to those who are
// active and on shift at the pickup instant, then take the one with the fewest
// open appointments on the same local day. Ties go to the first driver in the
// order the store returned them. Blocks are not consulted.
package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"booking-service/internal/models"
	"booking-service/internal/schedule"
)

const (
	ReasonAutoAssigned      = "auto-assigned"
	ReasonNoAvailableDriver = "no-available-driver"
)

// OpenStatuses are the appointment states that count toward a driver's load.
var OpenStatuses = []string{
	models.AppointmentPending,
	models.AppointmentAssigned,
	models.AppointmentInProgress,
}

// DriverLoad is one candidate's entry in the trace.
type DriverLoad struct {
	DriverID string `json:"driver_id"`
	Name     string `json:"name"`
	Load     int    `json:"load"`
}

// Trace is the structured reasoning persisted with every AssignmentLog.
type Trace struct {
	Reason      string       `json:"reason"`
	Winner      string       `json:"winner,omitempty"`
	Loads       []DriverLoad `json:"loads"`
	PickupLocal string       `json:"pickup_local"`
	Note        string       `json:"note"`
}

// Decision is the engine's output. Driver is nil when nobody was eligible;
// that is a normal outcome, not an error.
type Decision struct {
	Driver *models.Driver
	Trace  Trace
}

func (d Decision) Assigned() bool { return d.Driver != nil }

// TraceJSON encodes the trace for storage.
func (d Decision) TraceJSON() ([]byte, error) {
	return json.Marshal(d.Trace)
}

// Store is the read/lock surface the engine needs. Implementations must lock
// the returned drivers for the rest of the enclosing transaction.
type Store interface {
	ActiveDriversForUpdate(ctx context.Context) ([]models.Driver, error)
	ShiftsForDrivers(ctx context.Context, driverIDs []string) (map[string][]models.DriverShift, error)
	DriverLoads(ctx context.Context, driverIDs []string, from, to time.Time, excludeAppointmentID string) (map[string]int, error)
}

// Engine binds the selection rules to the operating clock.
type Engine struct {
	clock *schedule.Clock
}

func NewEngine(clock *schedule.Clock) *Engine {
	return &Engine{clock: clock}
}

// Assign runs the full decision for appt. Store failures are returned as
// errors and must abort the caller's transaction.
func (e *Engine) Assign(ctx context.Context, st Store, appt models.Appointment) (Decision, error) {
	drivers, err := st.ActiveDriversForUpdate(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load drivers: %w", err)
	}

	var customIDs []string
	for _, d := range drivers {
		if d.WorkMode == models.WorkModeCustom {
			customIDs = append(customIDs, d.ID)
		}
	}
	shifts := map[string][]models.DriverShift{}
	if len(customIDs) > 0 {
		if shifts, err = st.ShiftsForDrivers(ctx, customIDs); err != nil {
			return Decision{}, fmt.Errorf("load shifts: %w", err)
		}
	}

	candidates := e.Eligible(appt.PickupTime, drivers, shifts)
	loads := map[string]int{}
	if len(candidates) > 0 {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		from, to := e.clock.DayBounds(appt.PickupTime)
		if loads, err = st.DriverLoads(ctx, ids, from, to, appt.ID); err != nil {
			return Decision{}, fmt.Errorf("load driver loads: %w", err)
		}
	}

	return e.Select(appt.PickupTime, candidates, loads), nil
}

// Eligible keeps active drivers that are either 24h or have a shift covering pickup.
// Input order is preserved.
func (e *Engine) Eligible(pickup time.Time, drivers []models.Driver, shifts map[string][]models.DriverShift) []models.Driver {
	var out []models.Driver
	for _, d := range drivers {
		if d.Status != models.DriverActive {
			continue
		}
		if d.WorkMode == models.WorkMode24h || e.onShift(pickup, shifts[d.ID]) {
			out = append(out, d)
		}
	}
	return out
}

// Select ranks already-eligible candidates by load. Missing load entries count as zero.
func (e *Engine) Select(pickup time.Time, candidates []models.Driver, loads map[string]int) Decision {
	date, hhmm := e.clock.UTCToLocal(pickup)
	trace := Trace{PickupLocal: date + " " + hhmm, Loads: []DriverLoad{}}

	if len(candidates) == 0 {
		trace.Reason = ReasonNoAvailableDriver
		trace.Note = "No driver available at " + trace.PickupLocal + "; appointment left pending."
		return Decision{Trace: trace}
	}

	ranked := make([]DriverLoad, len(candidates))
	for i, c := range candidates {
		ranked[i] = DriverLoad{DriverID: c.ID, Name: c.Name, Load: loads[c.ID]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Load < ranked[j].Load })

	winner := ranked[0]
	var driver models.Driver
	for _, c := range candidates {
		if c.ID == winner.DriverID {
			driver = c
			break
		}
	}

	trace.Reason = ReasonAutoAssigned
	trace.Winner = winner.DriverID
	trace.Loads = ranked
	trace.Note = fmt.Sprintf("Assigned to %s (%d other job(s) that day).", winner.Name, winner.Load)
	return Decision{Driver: &driver, Trace: trace}
}

func (e *Engine) onShift(pickup time.Time, shifts []models.DriverShift) bool {
	for _, s := range shifts {
		if e.ShiftMatches(s, pickup) {
			return true
		}
	}
	return false
}

// ShiftMatches applies the shift's own timezone (operating zone by default).
// The window [start, end] is inclusive at minute resolution.
func (e *Engine) ShiftMatches(s models.DriverShift, at time.Time) bool {
	local := e.clock.InZone(at, s.Timezone)

	switch {
	case s.Weekday != nil:
		if int(local.Weekday()) != *s.Weekday {
			return false
		}
	case s.SpecificDate != nil:
		if local.Format(schedule.DateLayout) != *s.SpecificDate {
			return false
		}
	default:
		return false
	}

	start, err := schedule.MinuteOfDay(s.StartTime)
	if err != nil {
		return false
	}
	end, err := schedule.MinuteOfDay(s.EndTime)
	if err != nil {
		return false
	}
	m := local.Hour()*60 + local.Minute()
	return m >= start && m <= end
}
