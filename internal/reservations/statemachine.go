package reservations

import "booking-service/internal/models"

// transitions lists the legal next states. DONE and CANCELLED are terminal.
var transitions = map[string]map[string]bool{
	models.ReservationAssigned:  {models.ReservationStarted: true, models.ReservationCancelled: true},
	models.ReservationStarted:   {models.ReservationArrived: true, models.ReservationCancelled: true},
	models.ReservationArrived:   {models.ReservationDone: true, models.ReservationCancelled: true},
	models.ReservationDone:      {},
	models.ReservationCancelled: {},
}

// milestones maps a target status to the timestamp column it stamps.
var milestones = map[string]string{
	models.ReservationStarted: "started_at",
	models.ReservationArrived: "arrived_at",
	models.ReservationDone:    "done_at",
}

// appointmentMirror is the appointment status that follows each reservation status.
var appointmentMirror = map[string]string{
	models.ReservationStarted:   models.AppointmentInProgress,
	models.ReservationDone:      models.AppointmentCompleted,
	models.ReservationCancelled: models.AppointmentCancelled,
}

// Known reports whether s is a reservation status.
func Known(s string) bool {
	_, ok := transitions[s]
	return ok
}

func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Terminal reports whether no transition leaves s.
func Terminal(s string) bool {
	return Known(s) && len(transitions[s]) == 0
}
