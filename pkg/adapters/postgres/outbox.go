// Package postgres hands finished applications and captured leads to a
// PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/lib/pq"
)

// Schema creates the tables used by Outbox.
const Schema = `
CREATE TABLE IF NOT EXISTS loan_applications (
	reference          TEXT PRIMARY KEY,
	abn                TEXT NOT NULL,
	legal_name         TEXT NOT NULL,
	asset_category     TEXT NOT NULL,
	principal          NUMERIC(12,2) NOT NULL,
	term_months        INTEGER NOT NULL,
	base_rate          NUMERIC(5,2),
	monthly_repayment  NUMERIC(12,2),
	director_emails    TEXT[] NOT NULL DEFAULT '{}',
	record             JSONB NOT NULL,
	submitted_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS loan_leads (
	reference    TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL,
	reason       TEXT NOT NULL,
	abn          TEXT NOT NULL DEFAULT '',
	captured_at  TIMESTAMPTZ NOT NULL
);`

const insertApplication = `INSERT INTO loan_applications
	(reference, abn, legal_name, asset_category, principal, term_months, base_rate, monthly_repayment, director_emails, record, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const insertLead = `INSERT INTO loan_leads
	(reference, name, email, phone, reason, abn, captured_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// maxAttempts bounds retries after a reference collision.
const maxAttempts = 3

// ErrDuplicateReference is returned when every generated reference collided.
var ErrDuplicateReference = errors.New("could not allocate a unique reference")

var (
	_ ports.Submitter = (*Outbox)(nil)
	_ ports.LeadSink  = (*Outbox)(nil)
)

// Outbox writes submissions and leads as rows.
type Outbox struct {
	db        *sql.DB
	now       func() time.Time
	reference func(prefix string) string
}

// Option configures the Outbox.
type Option func(*Outbox)

// WithClock fixes the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Outbox) { o.now = now }
}

// WithReferences overrides reference generation.
func WithReferences(fn func(prefix string) string) Option {
	return func(o *Outbox) { o.reference = fn }
}

// Open connects with the lib/pq driver and applies pool limits.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// New wraps db.
func New(db *sql.DB, opts ...Option) *Outbox {
	o := &Outbox{db: db, now: time.Now, reference: domain.NewReference}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Migrate creates the tables if they are missing.
func (o *Outbox) Migrate(ctx context.Context) error {
	if _, err := o.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Submit inserts the application and returns its reference.
func (o *Outbox) Submit(ctx context.Context, app *domain.Application, q *quote.Result) (string, error) {
	record, err := json.Marshal(app)
	if err != nil {
		return "", fmt.Errorf("failed to marshal application: %w", err)
	}

	var rate, monthly any
	if q != nil {
		rate = q.BaseRate
		monthly = q.MonthlyRepayment
	}
	emails := make([]string, 0, len(app.Directors))
	for _, d := range app.Directors {
		if d.Email != "" {
			emails = append(emails, d.Email)
		}
	}

	return o.insert(ctx, "APP", func(ref string) error {
		_, err := o.db.ExecContext(ctx, insertApplication,
			ref,
			app.Business.ABN,
			app.Business.LegalName,
			string(app.Asset.Category),
			app.Loan.Principal,
			app.Loan.TermMonths,
			rate,
			monthly,
			pq.Array(emails),
			record,
			o.now().UTC(),
		)
		return err
	})
}

// CaptureLead inserts the lead and returns its reference.
func (o *Outbox) CaptureLead(ctx context.Context, lead domain.Lead, app *domain.Application) (string, error) {
	abn := ""
	if app != nil {
		abn = app.Business.ABN
	}
	return o.insert(ctx, "LEAD", func(ref string) error {
		_, err := o.db.ExecContext(ctx, insertLead,
			ref, lead.Name, lead.Email, lead.Phone, lead.Reason, abn, o.now().UTC(),
		)
		return err
	})
}

// insert runs exec with fresh references until one does not collide.
func (o *Outbox) insert(ctx context.Context, prefix string, exec func(ref string) error) (string, error) {
	for range maxAttempts {
		ref := o.reference(prefix)
		err := exec(ref)
		if err == nil {
			return ref, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			continue
		}
		return "", fmt.Errorf("failed to insert %s: %w", prefix, err)
	}
	return "", ErrDuplicateReference
}
