package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aretw0/loanflow/pkg/adapters/postgres"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newOutbox(t *testing.T, refs ...string) (*postgres.Outbox, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	next := 0
	return postgres.New(db,
		postgres.WithClock(func() time.Time { return fixed }),
		postgres.WithReferences(func(prefix string) string {
			ref := prefix + "-" + refs[next]
			next++
			return ref
		}),
	), mock
}

func TestOutbox_Submit(t *testing.T) {
	outbox, mock := newOutbox(t, "0001")
	app := ports.ContractRecord()
	q, err := quote.Calculate(quote.Request{
		AssetType: quote.AssetTruck, Condition: quote.ConditionUsed0to3,
		LoanAmount: app.Loan.Principal, TermMonths: 60, BalloonPercentage: 20,
	})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loan_applications")).
		WithArgs("APP-0001", "51824753556", "Acme Haulage Pty Ltd", "truck", app.Loan.Principal, 60,
			q.BaseRate, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref, err := outbox.Submit(context.Background(), app, q)
	require.NoError(t, err)
	assert.Equal(t, "APP-0001", ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_SubmitRetriesOnCollision(t *testing.T) {
	outbox, mock := newOutbox(t, "dup", "0002")

	mock.ExpectExec("INSERT INTO loan_applications").
		WithArgs("APP-dup", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec("INSERT INTO loan_applications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref, err := outbox.Submit(context.Background(), domain.NewApplication(), nil)
	require.NoError(t, err)
	assert.Equal(t, "APP-0002", ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_SubmitGivesUpAfterCollisions(t *testing.T) {
	outbox, mock := newOutbox(t, "a", "b", "c")
	for range 3 {
		mock.ExpectExec("INSERT INTO loan_applications").WillReturnError(&pq.Error{Code: "23505"})
	}

	_, err := outbox.Submit(context.Background(), domain.NewApplication(), nil)
	assert.ErrorIs(t, err, postgres.ErrDuplicateReference)
}

func TestOutbox_SubmitError(t *testing.T) {
	outbox, mock := newOutbox(t, "0003")
	boom := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO loan_applications").WillReturnError(boom)

	_, err := outbox.Submit(context.Background(), domain.NewApplication(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestOutbox_CaptureLead(t *testing.T) {
	outbox, mock := newOutbox(t, "0004")
	app := domain.NewApplication()
	app.Business.ABN = "51824753556"

	mock.ExpectExec("INSERT INTO loan_leads").
		WithArgs("LEAD-0004", "Sam", "sam@example.com", "0412345678", "ineligible", "51824753556", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref, err := outbox.CaptureLead(context.Background(), domain.Lead{
		Name: "Sam", Email: "sam@example.com", Phone: "0412345678", Reason: "ineligible",
	}, app)
	require.NoError(t, err)
	assert.Equal(t, "LEAD-0004", ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_Migrate(t *testing.T) {
	outbox, mock := newOutbox(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS loan_applications").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, outbox.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
