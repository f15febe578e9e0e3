package fsledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"timesheet/internal/domain/attendance"
)

const rowsCollection = "rows"

type ledgerDoc struct {
	Header    []string  `firestore:"header"`
	RowCount  int       `firestore:"row_count"`
	CreatedAt time.Time `firestore:"created_at"`
}

type rowDoc struct {
	Position int    `firestore:"position"`
	Date     string `firestore:"date"`
	Weekday  string `firestore:"weekday"`
	Project  string `firestore:"project"`
	CheckIn  string `firestore:"check_in"`
	CheckOut string `firestore:"check_out"`
	Hours    string `firestore:"hours"`
	Notes    string `firestore:"notes"`
}

func newRowDoc(position int, row []string) rowDoc {
	c := attendance.PadRow(row)
	return rowDoc{
		Position: position,
		Date:     c[attendance.ColDate],
		Weekday:  c[attendance.ColWeekday],
		Project:  c[attendance.ColProject],
		CheckIn:  c[attendance.ColCheckIn],
		CheckOut: c[attendance.ColCheckOut],
		Hours:    c[attendance.ColHours],
		Notes:    c[attendance.ColNotes],
	}
}

func (r rowDoc) cells() []string {
	return []string{r.Date, r.Weekday, r.Project, r.CheckIn, r.CheckOut, r.Hours, r.Notes}
}

// Store keeps one document per ledger in a top-level collection and one
// document per data row in its "rows" subcollection. The header lives on the
// ledger document and counts as position 1.
type Store struct {
	client     *firestore.Client
	collection string
}

func Open(ctx context.Context, projectID, collection string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return New(client, collection), nil
}

func New(client *firestore.Client, collection string) *Store {
	return &Store{client: client, collection: collection}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) ledgerRef(ledgerID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(ledgerID)
}

func rowRef(ledger *firestore.DocumentRef, position int) *firestore.DocumentRef {
	return ledger.Collection(rowsCollection).Doc(fmt.Sprintf("%08d", position))
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *Store) EnsureLedger(ctx context.Context, ledgerID string) error {
	ref := s.ledgerRef(ledgerID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if notFound(err) {
			return tx.Create(ref, ledgerDoc{
				Header:    attendance.Header,
				RowCount:  attendance.HeaderPosition,
				CreatedAt: time.Now().UTC(),
			})
		}
		if err != nil {
			return err
		}
		var doc ledgerDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if attendance.IsHeader(doc.Header) {
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: "header", Value: attendance.Header}})
	})
}

func (s *Store) ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error) {
	ref := s.ledgerRef(ledgerID)
	snap, err := ref.Get(ctx)
	if notFound(err) {
		return nil, attendance.ErrLedgerNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc ledgerDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	docs, err := ref.Collection(rowsCollection).OrderBy("position", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(docs)+1)
	out = append(out, attendance.PadRow(doc.Header))
	for _, d := range docs {
		var row rowDoc
		if err := d.DataTo(&row); err != nil {
			return nil, err
		}
		out = append(out, row.cells())
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, ledgerID string, row []string) error {
	_, _, err := s.appendRow(ctx, ledgerID, "", row)
	return err
}

func (s *Store) AppendRowIfAbsent(ctx context.Context, ledgerID, date string, row []string) (int, bool, error) {
	return s.appendRow(ctx, ledgerID, date, row)
}

// appendRow allocates the next position from the ledger's row counter. When
// date is set the append is skipped if a row for that date already exists.
func (s *Store) appendRow(ctx context.Context, ledgerID, date string, row []string) (int, bool, error) {
	ref := s.ledgerRef(ledgerID)
	var position int
	var appended bool
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		position, appended = 0, false

		snap, err := tx.Get(ref)
		if notFound(err) {
			return attendance.ErrLedgerNotFound
		}
		if err != nil {
			return err
		}
		var doc ledgerDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}

		if date != "" {
			existing, err := tx.Documents(ref.Collection(rowsCollection).Where("date", "==", date).Limit(1)).GetAll()
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return nil
			}
		}

		next := doc.RowCount + 1
		if err := tx.Create(rowRef(ref, next), newRowDoc(next, row)); err != nil {
			return err
		}
		if err := tx.Update(ref, []firestore.Update{{Path: "row_count", Value: next}}); err != nil {
			return err
		}
		position, appended = next, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return position, appended, nil
}

func (s *Store) UpdateRow(ctx context.Context, ledgerID string, position int, row []string) error {
	if position <= attendance.HeaderPosition {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	ref := rowRef(s.ledgerRef(ledgerID), position)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if notFound(err) {
				return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
			}
			return err
		}
		return tx.Set(ref, newRowDoc(position, row))
	})
}

func (s *Store) ListLedgers(ctx context.Context) ([]string, error) {
	docs, err := s.client.Collection(s.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Ref.ID)
	}
	sort.Strings(ids)
	return ids, nil
}
