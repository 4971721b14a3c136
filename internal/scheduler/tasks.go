package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskMissedVisitCheck = "visits.missed_check"

type MissedVisitCheckPayload struct {
	VisitID string `json:"visitId"`
}

func NewMissedVisitCheckTask(visitID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(MissedVisitCheckPayload{VisitID: visitID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMissedVisitCheck, data), nil
}

func ParseMissedVisitCheckPayload(task *asynq.Task) (uuid.UUID, error) {
	var payload MissedVisitCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return uuid.UUID{}, err
	}
	id, err := uuid.Parse(payload.VisitID)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("missed visit check: %w", err)
	}
	return id, nil
}

// missedVisitTaskID makes enqueueing idempotent per visit.
func missedVisitTaskID(visitID uuid.UUID) string {
	return "missed-visit:" + visitID.String()
}
