package domain

import (
	"fmt"
	"time"

	"fieldvisits_backend/platform/apperr"

	"github.com/google/uuid"
)

// Machine-readable error codes returned by the visits module.
const (
	CodeVisitNotFound      = "visit_not_found"
	CodeSchedulingConflict = "scheduling_conflict"
	CodeInvalidState       = "invalid_state"
	CodeMissingOutcome     = "missing_outcome"
	CodeMissingCredential  = "missing_credential"
	CodeUnauthorized       = "unauthorized"
)

// VisitNotFound is returned for unknown visits and for visits the caller may not see.
func VisitNotFound() *apperr.Error {
	return apperr.NotFound("Visita no encontrada").WithCode(CodeVisitNotFound)
}

// ConflictDetails identifies the visit that blocks a booking.
type ConflictDetails struct {
	ConflictingVisitID uuid.UUID `json:"conflictingVisitId"`
	Start              string    `json:"start"`
	End                string    `json:"end"`
}

// SchedulingConflict is returned when a candidate window overlaps a blocking visit.
func SchedulingConflict(existing Visit) *apperr.Error {
	w := existing.Window()
	return apperr.Conflict("El agente ya tiene una visita programada en ese horario que se solapa con la nueva.").
		WithCode(CodeSchedulingConflict).
		WithDetails(ConflictDetails{
			ConflictingVisitID: existing.ID,
			Start:              w.Start.UTC().Format(time.RFC3339),
			End:                w.End.UTC().Format(time.RFC3339),
		})
}

// InvalidState is returned for transitions not allowed from the current status.
func InvalidState(current Status, op string) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("cannot %s a visit in status %s", op, current)).
		WithCode(CodeInvalidState).
		WithDetails(map[string]string{"status": string(current)})
}

// MissingOutcome is returned when a visit is finished without an outcome.
func MissingOutcome() *apperr.Error {
	return apperr.BadRequest("Debes indicar el resultado de la visita.").WithCode(CodeMissingOutcome)
}

// InvalidOutcome is returned for an outcome outside the known set.
func InvalidOutcome(raw string) *apperr.Error {
	return apperr.Validation(fmt.Sprintf("unknown outcome %q", raw))
}

// MissingCredential is returned when a delete is attempted without a confirmation secret.
func MissingCredential() *apperr.Error {
	return apperr.BadRequest("Debes ingresar tu contraseña para confirmar.").WithCode(CodeMissingCredential)
}

// Unauthorized is returned when the confirmation secret does not match.
func Unauthorized() *apperr.Error {
	return apperr.Forbidden("Contraseña incorrecta").WithCode(CodeUnauthorized)
}
