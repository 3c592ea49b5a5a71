package documents

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kontor-erp/kontor-erp/internal/accounts"
	"github.com/kontor-erp/kontor-erp/internal/ledger"
	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	docs    map[uuid.UUID]*Document
	lines   map[uuid.UUID][]Line
	entries []ledger.Entry

	counters      map[string]int64
	lockedPeriods []time.Time

	txError     error
	bookedError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		docs:     make(map[uuid.UUID]*Document),
		lines:    make(map[uuid.UUID][]Line),
		counters: make(map[string]int64),
	}
}

func (m *mockRepository) Get(ctx context.Context, orgID int64, guid uuid.UUID) (Document, error) {
	d, ok := m.docs[guid]
	if !ok || d.OrgID != orgID {
		return Document{}, ErrNotFound
	}
	return *d, nil
}

func (m *mockRepository) GetLines(ctx context.Context, guid uuid.UUID) ([]Line, error) {
	return m.lines[guid], nil
}

func (m *mockRepository) List(ctx context.Context, orgID int64, filter ListFilter) ([]Document, int, error) {
	var out []Document
	for _, d := range m.docs {
		if d.OrgID != orgID || d.DeletedAt != nil {
			continue
		}
		if filter.Class != "" && d.Class != filter.Class {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, &mockTxRepo{mock: m})
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) InsertDocument(ctx context.Context, doc Document) error {
	d := doc
	t.mock.docs[doc.GUID] = &d
	return nil
}

func (t *mockTxRepo) UpdateDocument(ctx context.Context, doc Document) error {
	if _, ok := t.mock.docs[doc.GUID]; !ok {
		return ErrNotFound
	}
	d := doc
	t.mock.docs[doc.GUID] = &d
	return nil
}

func (t *mockTxRepo) ReplaceLines(ctx context.Context, guid uuid.UUID, lines []Line) error {
	t.mock.lines[guid] = lines
	return nil
}

func (t *mockTxRepo) GetForUpdate(ctx context.Context, orgID int64, guid uuid.UUID) (Document, error) {
	d, ok := t.mock.docs[guid]
	if !ok || d.OrgID != orgID {
		return Document{}, ErrNotFound
	}
	return *d, nil
}

func (t *mockTxRepo) GetLines(ctx context.Context, guid uuid.UUID) ([]Line, error) {
	return t.mock.lines[guid], nil
}

func (t *mockTxRepo) HardDelete(ctx context.Context, orgID int64, guid uuid.UUID) error {
	delete(t.mock.docs, guid)
	delete(t.mock.lines, guid)
	return nil
}

func (t *mockTxRepo) SoftDelete(ctx context.Context, orgID int64, guid uuid.UUID, at time.Time) error {
	d, ok := t.mock.docs[guid]
	if !ok {
		return ErrNotFound
	}
	d.DeletedAt = &at
	return nil
}

func (t *mockTxRepo) SetBooked(ctx context.Context, orgID int64, guid uuid.UUID, number int64) error {
	if t.mock.bookedError != nil {
		return t.mock.bookedError
	}
	d, ok := t.mock.docs[guid]
	if !ok {
		return ErrNotFound
	}
	d.Status = StatusBooked
	d.Number = &number
	return nil
}

func (t *mockTxRepo) SetCreditedBy(ctx context.Context, orgID int64, sourceGUID, creditGUID uuid.UUID) error {
	d, ok := t.mock.docs[sourceGUID]
	if !ok {
		return ErrNotFound
	}
	d.CreditedByGUID = &creditGUID
	return nil
}

func (t *mockTxRepo) NextNumber(ctx context.Context, orgID int64, class Class) (int64, error) {
	key := string(class)
	t.mock.counters[key]++
	return t.mock.counters[key], nil
}

func (t *mockTxRepo) LockedPeriodExists(ctx context.Context, orgID int64, date time.Time) (bool, error) {
	for _, locked := range t.mock.lockedPeriods {
		if locked.Year() == date.Year() && locked.Month() == date.Month() {
			return true, nil
		}
	}
	return false, nil
}

func (t *mockTxRepo) InsertEntries(ctx context.Context, entries []ledger.Entry) error {
	t.mock.entries = append(t.mock.entries, entries...)
	return nil
}

type mockMasterData struct {
	rates    map[string]float64
	settings accounts.Settings
}

func (m *mockMasterData) VATRates(ctx context.Context, orgID int64) (map[string]float64, error) {
	return m.rates, nil
}

func (m *mockMasterData) GetSettings(ctx context.Context, orgID int64) (accounts.Settings, error) {
	return m.settings, nil
}

func newTestService(repo *mockRepository) *Service {
	master := &mockMasterData{
		rates: map[string]float64{"U25": 0.25},
		settings: accounts.Settings{
			OrgID:             1,
			ReceivableAccount: 1500,
			PayableAccount:    2400,
			VATAccount:        2740,
		},
	}
	return NewService(repo, master, slog.Default())
}

func createInvoiceRequest() CreateRequest {
	return CreateRequest{
		Class:           string(ClassInvoice),
		DocumentDate:    "2026-03-15",
		Currency:        "DKK",
		PaymentTermDays: 14,
		Lines: []LineRequest{
			{AccountNo: 5010, Description: "Widgets", Quantity: 1, UnitPrice: 100, VATCode: strPtr("U25")},
			{AccountNo: 5010, Description: "More widgets", Quantity: 1, UnitPrice: 100, VATCode: strPtr("U25")},
		},
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateDraft(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, doc.Status)
	assert.Nil(t, doc.Number)
	assert.InDelta(t, 250.0, doc.Totals.InclVAT, 0.001)
	assert.InDelta(t, 50.0, doc.Totals.VAT, 0.001)
	require.Len(t, repo.lines[doc.GUID], 2)
}

func TestCreateRejectsUnknownClass(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	req := createInvoiceRequest()
	req.Class = "RECEIPT"
	_, err := svc.Create(context.Background(), 1, req)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	req := createInvoiceRequest()
	req.Lines = nil
	_, err := svc.Create(context.Background(), 1, req)
	require.ErrorIs(t, err, ErrNoLines)
}

func TestBookInvoiceProducesBalancedEntries(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	result, err := svc.Book(context.Background(), 1, doc.GUID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.VoucherNumber)

	booked := repo.docs[doc.GUID]
	assert.Equal(t, StatusBooked, booked.Status)
	require.NotNil(t, booked.Number)
	assert.Equal(t, int64(1), *booked.Number)

	// Two lines of 100 + 25% VAT each: receivable +125, revenue -100,
	// VAT -25 per line.
	require.Len(t, repo.entries, 6)
	var sum, receivable, revenue, vat float64
	for _, e := range repo.entries {
		sum += e.Amount
		switch e.AccountNo {
		case 1500:
			receivable += e.Amount
		case 5010:
			revenue += e.Amount
		case 2740:
			vat += e.Amount
		}
	}
	assert.InDelta(t, 0.0, sum, shared.BalanceEpsilon)
	assert.InDelta(t, 250.0, receivable, 0.001)
	assert.InDelta(t, -200.0, revenue, 0.001)
	assert.InDelta(t, -50.0, vat, 0.001)
}

func TestBookIsNotRepeatable(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.ErrorIs(t, err, ErrNotDraft)
	assert.Len(t, repo.entries, 6, "second booking must not add entries")
}

func TestBookLockedPeriodWritesNothing(t *testing.T) {
	repo := newMockRepository()
	repo.lockedPeriods = []time.Time{time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.Error(t, err)
	assert.Equal(t, shared.KindPeriodLocked, shared.KindOf(err))

	assert.Empty(t, repo.entries)
	assert.Equal(t, StatusDraft, repo.docs[doc.GUID].Status)
	assert.Nil(t, repo.docs[doc.GUID].Number)
}

func TestBookEmptyDocumentFails(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)
	repo.lines[doc.GUID] = nil

	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.ErrorIs(t, err, ErrNoLines)
}

func TestUpdateDraftRecomputesTotals(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, doc.GUID, UpdateRequest{
		DocumentDate:    "2026-03-20",
		Currency:        "DKK",
		PaymentTermDays: 30,
		Lines: []LineRequest{
			{AccountNo: 5020, Quantity: 2, UnitPrice: 50, VATCode: strPtr("U25")},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 125.0, updated.Totals.InclVAT, 0.001)
	require.Len(t, repo.lines[doc.GUID], 1)
	assert.Equal(t, int64(5020), repo.lines[doc.GUID][0].AccountNo)
}

func TestUpdateBookedDocumentRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1, doc.GUID, UpdateRequest{
		DocumentDate:    "2026-03-20",
		Currency:        "DKK",
		PaymentTermDays: 14,
		Lines:           []LineRequest{{AccountNo: 5010, Quantity: 1, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestDeleteDraftIsHard(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, doc.GUID))
	_, ok := repo.docs[doc.GUID]
	assert.False(t, ok, "draft should be removed entirely")
}

func TestDeleteBookedIsSoft(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	svc.WithNow(func() time.Time { return time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC) })

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, doc.GUID))
	d, ok := repo.docs[doc.GUID]
	require.True(t, ok, "booked document survives as a tombstone")
	require.NotNil(t, d.DeletedAt)
	assert.Equal(t, StatusBooked, d.Status)

	// Tombstones are invisible to reads and further deletion.
	_, _, err = svc.Get(context.Background(), 1, doc.GUID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), 1, doc.GUID), ErrNotFound)
}

func TestCreateReversalNegatesEverything(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	credit, err := svc.CreateReversal(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	assert.Equal(t, ClassCreditNote, credit.Class)
	assert.Equal(t, StatusDraft, credit.Status)
	require.NotNil(t, credit.Number, "credit note number is allocated at creation")
	assert.InDelta(t, -250.0, credit.Totals.InclVAT, 0.001)
	assert.InDelta(t, -50.0, credit.Totals.VAT, 0.001)

	creditLines := repo.lines[credit.GUID]
	require.Len(t, creditLines, 2)
	assert.InDelta(t, -100.0, creditLines[0].BaseAmount, 0.001)
	assert.InDelta(t, -125.0, creditLines[0].InclVATAmount, 0.001)
	assert.InDelta(t, -1.0, creditLines[0].Quantity, 0.001)

	source := repo.docs[doc.GUID]
	require.NotNil(t, source.CreditedByGUID)
	assert.Equal(t, credit.GUID, *source.CreditedByGUID)
}

func TestCreateReversalRequiresBookedInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	draft, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	_, err = svc.CreateReversal(context.Background(), 1, draft.GUID)
	require.ErrorIs(t, err, ErrSourceNotBooked)

	manual := createInvoiceRequest()
	manual.Class = string(ClassManualVoucher)
	other, err := svc.Create(context.Background(), 1, manual)
	require.NoError(t, err)
	_, err = svc.CreateReversal(context.Background(), 1, other.GUID)
	require.ErrorIs(t, err, ErrSourceNotInvoice)
}

func TestBookSurfacesRepositoryErrors(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)

	repo.bookedError = errors.New("write failed")
	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.Error(t, err)
	assert.Empty(t, repo.entries)
}

func TestBookedReversalEntriesMirrorSource(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, createInvoiceRequest())
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	credit, err := svc.CreateReversal(context.Background(), 1, doc.GUID)
	require.NoError(t, err)

	before := len(repo.entries)
	_, err = svc.Book(context.Background(), 1, credit.GUID)
	require.NoError(t, err)

	var sum float64
	for _, e := range repo.entries {
		sum += e.Amount
	}
	assert.InDelta(t, 0.0, sum, shared.BalanceEpsilon,
		"invoice plus credit note must net to zero")
	assert.Len(t, repo.entries, before*2)
}
