package attendance

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	store          LedgerStore
	clock          Clock
	recorder       ActionRecorder
	defaultProject string
	locks          *keyedMutex
}

func NewService(store LedgerStore, clock Clock) *Service {
	return &Service{store: store, clock: clock, defaultProject: DefaultProject, locks: newKeyedMutex()}
}

// WithDefaultProject overrides the label used when no project is given.
func (s *Service) WithDefaultProject(project string) *Service {
	if project != "" {
		s.defaultProject = project
	}
	return s
}

// WithRecorder attaches an action counter.
func (s *Service) WithRecorder(recorder ActionRecorder) *Service {
	s.recorder = recorder
	return s
}

// Access handles a form submission: the first access of the day checks in,
// later accesses report the open or closed day without writing.
func (s *Service) Access(ctx context.Context, in Input) (Result, error) {
	return s.reconcile(ctx, in, TriggerAccess)
}

// CheckOut closes today's open row.
func (s *Service) CheckOut(ctx context.Context, in Input) (Result, error) {
	return s.reconcile(ctx, in, TriggerCheckOut)
}

// Snapshot returns every record of the employee's ledger in row order.
func (s *Service) Snapshot(ctx context.Context, employeeID string) (Ledger, error) {
	if err := ValidateEmployeeID(employeeID); err != nil {
		return Ledger{}, err
	}
	ledgerID := LedgerID(employeeID)
	rows, err := s.store.ReadAllRows(ctx, ledgerID)
	if err != nil {
		return Ledger{}, ledgerAccess("read", ledgerID, err)
	}
	return Ledger{ID: ledgerID, Records: RecordsFromRows(rows)}, nil
}

func (s *Service) Ledgers(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListLedgers(ctx)
	if err != nil {
		return nil, ledgerAccess("list", "", err)
	}
	return ids, nil
}

func (s *Service) reconcile(ctx context.Context, in Input, trigger Trigger) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	in = in.normalized(s.defaultProject)
	ledgerID := in.EmployeeID

	unlock := s.locks.Lock(ledgerID)
	defer unlock()

	if err := s.store.EnsureLedger(ctx, ledgerID); err != nil {
		return Result{}, ledgerAccess("ensure", ledgerID, err)
	}

	decision, err := s.decide(ctx, ledgerID, trigger, in.Project)
	if err != nil {
		return Result{}, err
	}

	switch decision.Action {
	case ActionCreateCheckIn:
		decision, err = s.appendCheckIn(ctx, ledgerID, trigger, in.Project, decision)
		if err != nil {
			return Result{}, err
		}
	case ActionCompleteCheckOut:
		if err := s.store.UpdateRow(ctx, ledgerID, decision.Record.Position, decision.Record.Row()); err != nil {
			return Result{}, ledgerAccess("update", ledgerID, err)
		}
	}

	if s.recorder != nil {
		s.recorder.RecordAction(string(decision.Action))
	}

	result := Result{
		Action:       decision.Action,
		State:        decision.State,
		LedgerID:     ledgerID,
		EmployeeName: in.EmployeeName,
		Record:       decision.Record,
		Status:       statusFor(decision),
	}
	if decision.Action == ActionRejectNotCheckedIn {
		return result, fmt.Errorf("%w for %s", ErrNotCheckedIn, ledgerID)
	}
	return result, nil
}

// decide reads a fresh snapshot and classifies today's row. The clock is read
// after the snapshot so the decision uses the time of the write.
func (s *Service) decide(ctx context.Context, ledgerID string, trigger Trigger, project string) (Decision, error) {
	rows, err := s.store.ReadAllRows(ctx, ledgerID)
	if err != nil {
		return Decision{}, ledgerAccess("read", ledgerID, err)
	}
	now := s.clock.Now()
	var existing *DayRecord
	if position, ok := Locate(rows, now.Format(DateLayout)); ok {
		rec := RecordFromRow(position, rows[position-1])
		existing = &rec
	}
	decision := Decide(existing, trigger, now, project)
	if decision.Action == ActionCreateCheckIn {
		decision.Record.Position = len(rows) + 1
	}
	return decision, nil
}

// appendCheckIn writes the check-in row. A backend that refuses the append
// because another writer got there first causes one re-read and re-decision.
func (s *Service) appendCheckIn(ctx context.Context, ledgerID string, trigger Trigger, project string, decision Decision) (Decision, error) {
	conditional, ok := s.store.(ConditionalAppender)
	if !ok {
		if err := s.store.AppendRow(ctx, ledgerID, decision.Record.Row()); err != nil {
			return Decision{}, ledgerAccess("append", ledgerID, err)
		}
		return decision, nil
	}

	position, appended, err := conditional.AppendRowIfAbsent(ctx, ledgerID, decision.Record.Date, decision.Record.Row())
	if err != nil {
		return Decision{}, ledgerAccess("append", ledgerID, err)
	}
	if appended {
		decision.Record.Position = position
		return decision, nil
	}

	retry, err := s.decide(ctx, ledgerID, trigger, project)
	if err != nil {
		return Decision{}, err
	}
	if retry.Action == ActionCreateCheckIn {
		return Decision{}, ledgerAccess("append", ledgerID, errors.New("conditional append refused but no row found"))
	}
	return retry, nil
}

func statusFor(d Decision) string {
	switch d.Action {
	case ActionCreateCheckIn:
		return fmt.Sprintf(StatusCheckInRecorded, d.Record.CheckIn)
	case ActionCompleteCheckOut:
		return fmt.Sprintf(StatusCheckOutRecorded, d.Record.CheckOut)
	case ActionAwaitCheckOut:
		return fmt.Sprintf(StatusAwaitCheckOut, d.Record.CheckIn)
	case ActionRejectNotCheckedIn:
		return StatusNotCheckedIn
	default:
		return StatusAlreadyCompleted
	}
}
