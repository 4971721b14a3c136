package domain

import (
	"testing"
	"time"

	"fieldvisits_backend/internal/visits/geofence"
	"fieldvisits_backend/platform/apperr"

	"github.com/google/uuid"
)

var (
	t0   = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	here = geofence.Coordinates{Lat: 4.61, Lng: -74.08}
)

func pendingVisit() Visit {
	return Visit{
		ID:                uuid.New(),
		AgentID:           uuid.New(),
		PropertyID:        uuid.New(),
		ScheduledStart:    t0,
		EstimatedDuration: 60,
		Type:              TypeRentalShowing,
		Status:            StatusPending,
	}
}

func TestStartMovesPendingToInProgress(t *testing.T) {
	v := pendingVisit()
	now := t0.Add(5 * time.Minute)

	if err := v.Start(now, here); err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", v.Status)
	}
	if v.ActualStart == nil || !v.ActualStart.Equal(now) {
		t.Fatalf("actualStart not set: %v", v.ActualStart)
	}
	if v.CheckIn == nil || *v.CheckIn != here {
		t.Fatalf("check-in coordinates not recorded: %v", v.CheckIn)
	}
	if v.ActualEnd != nil || v.Outcome != nil || v.CheckOut != nil {
		t.Fatal("completion fields must stay empty while in progress")
	}
}

func TestStartRejectsNonPending(t *testing.T) {
	for _, status := range []Status{StatusInProgress, StatusCompleted, StatusMissed} {
		v := pendingVisit()
		v.Status = status
		err := v.Start(t0, here)
		if apperr.CodeOf(err) != CodeInvalidState {
			t.Errorf("start from %s: expected invalid_state, got %v", status, err)
		}
		if v.Status != status {
			t.Errorf("status changed from %s to %s", status, v.Status)
		}
	}
}

func TestCanStart(t *testing.T) {
	tests := []struct {
		status  Status
		wantErr bool
	}{
		{StatusPending, false},
		{StatusInProgress, true},
		{StatusCompleted, true},
		{StatusMissed, true},
	}

	for _, tt := range tests {
		v := pendingVisit()
		v.Status = tt.status
		err := v.CanStart()
		if (err != nil) != tt.wantErr {
			t.Errorf("CanStart() from %s error = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
		if err != nil && apperr.CodeOf(err) != CodeInvalidState {
			t.Errorf("CanStart() from %s code = %q, want %q", tt.status, apperr.CodeOf(err), CodeInvalidState)
		}
	}
}

func TestFinishRecordsOutcome(t *testing.T) {
	v := pendingVisit()
	_ = v.Start(t0, here)
	out := geofence.Coordinates{Lat: 4.62, Lng: -74.07}
	notes := "Cliente pide segunda visita"
	end := t0.Add(45 * time.Minute)

	if err := v.Finish(end, out, OutcomeFollowUpRequired, &notes); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if v.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", v.Status)
	}
	if v.ActualEnd == nil || !v.ActualEnd.Equal(end) || *v.CheckOut != out {
		t.Fatal("check-out fields not recorded")
	}
	if v.Outcome == nil || *v.Outcome != OutcomeFollowUpRequired {
		t.Fatalf("outcome not recorded: %v", v.Outcome)
	}
	if v.Notes == nil || *v.Notes != notes {
		t.Fatal("notes not recorded")
	}
}

func TestFinishKeepsNotesWhenNotProvided(t *testing.T) {
	v := pendingVisit()
	original := "llevar llaves"
	v.Notes = &original
	_ = v.Start(t0, here)

	if err := v.Finish(t0.Add(time.Hour), here, OutcomeClientInterested, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if v.Notes == nil || *v.Notes != original {
		t.Fatalf("notes should be preserved, got %v", v.Notes)
	}
}

func TestFinishWithoutOutcomeLeavesVisitUntouched(t *testing.T) {
	v := pendingVisit()
	_ = v.Start(t0, here)
	before := v

	err := v.Finish(t0.Add(time.Hour), here, "", nil)
	if apperr.CodeOf(err) != CodeMissingOutcome {
		t.Fatalf("expected missing_outcome, got %v", err)
	}
	if v.Status != StatusInProgress || v.ActualEnd != nil || v.CheckOut != nil || v.Outcome != nil {
		t.Fatal("visit mutated by rejected finish")
	}
	if v.UpdatedAt != before.UpdatedAt {
		t.Fatal("updatedAt changed by rejected finish")
	}
}

func TestFinishOutcomeCheckedBeforeState(t *testing.T) {
	v := pendingVisit()
	err := v.Finish(t0, here, "", nil)
	if apperr.CodeOf(err) != CodeMissingOutcome {
		t.Fatalf("expected missing_outcome on pending visit, got %v", err)
	}
}

func TestFinishRejectsPending(t *testing.T) {
	v := pendingVisit()
	err := v.Finish(t0, here, OutcomeCancelled, nil)
	if apperr.CodeOf(err) != CodeInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
	if v.Status != StatusPending {
		t.Fatal("status changed")
	}
}

func TestFinishRejectsUnknownOutcome(t *testing.T) {
	v := pendingVisit()
	_ = v.Start(t0, here)
	err := v.Finish(t0, here, Outcome("MAYBE"), nil)
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("expected validation_error, got %v", err)
	}
}

func TestNoBackwardTransitions(t *testing.T) {
	v := pendingVisit()
	_ = v.Start(t0, here)
	_ = v.Finish(t0.Add(time.Hour), here, OutcomeClientInterested, nil)

	if err := v.Start(t0, here); apperr.CodeOf(err) != CodeInvalidState {
		t.Fatalf("restart of completed visit: %v", err)
	}
	if err := v.MarkMissed(t0); apperr.CodeOf(err) != CodeInvalidState {
		t.Fatalf("mark missed on completed visit: %v", err)
	}
	if v.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", v.Status)
	}
}

func TestMarkMissedOnlyFromPending(t *testing.T) {
	v := pendingVisit()
	if err := v.MarkMissed(t0.Add(3 * time.Hour)); err != nil {
		t.Fatalf("mark missed: %v", err)
	}
	if v.Status != StatusMissed || v.ActualStart != nil {
		t.Fatalf("unexpected visit after mark missed: %+v", v)
	}
	if err := v.Start(t0, here); apperr.CodeOf(err) != CodeInvalidState {
		t.Fatalf("start of missed visit: %v", err)
	}
}

func TestBlockingStatuses(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusCompleted} {
		if !s.Blocking() {
			t.Errorf("%s should block", s)
		}
	}
	if StatusMissed.Blocking() {
		t.Error("MISSED should not block")
	}
}

func TestWindowOverlapIsHalfOpen(t *testing.T) {
	a := NewWindow(t0, 60)
	if a.Overlaps(NewWindow(t0.Add(time.Hour), 30)) {
		t.Fatal("back-to-back windows must not overlap")
	}
	if a.Overlaps(NewWindow(t0.Add(-30*time.Minute), 30)) {
		t.Fatal("window ending at start must not overlap")
	}
	if !a.Overlaps(NewWindow(t0.Add(59*time.Minute), 30)) {
		t.Fatal("one minute of overlap should count")
	}
}

func TestParseOutcomeAcceptsLabel(t *testing.T) {
	o, ok := ParseOutcome("Cliente no asistió")
	if !ok || o != OutcomeClientNoShow {
		t.Fatalf("expected CLIENT_NO_SHOW, got %q %v", o, ok)
	}
	if _, ok := ParseOutcome("Quizás"); ok {
		t.Fatal("unknown label should not parse")
	}
}
