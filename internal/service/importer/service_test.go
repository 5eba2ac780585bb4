package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/service/importer"
	"github.com/kirinyoku/tix-events/internal/service/ledger"
	"github.com/kirinyoku/tix-events/internal/testutil"
	"github.com/kirinyoku/tix-events/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImporter(t *testing.T) (*importer.Service, *testutil.MemStore) {
	t.Helper()

	store := testutil.NewMemStore()
	l := ledger.New(store.Events(), uow.NewUoW(store), ledger.Config{})

	return importer.New(l, nil), store
}

func TestImport_MixedRows(t *testing.T) {
	svc, store := newImporter(t)

	csv := "\ufeffEvent Title,Description,Date,Location,Capacity,TicketPrice\n" +
		"Rock Night,Loud,2024-05-01,Hall A,100,12.5\n" +
		",No title,2024-05-01,Hall B,10,5\n" +
		"Jazz,,2024-13-01,Club,10,5\n" +
		"Folk,,2024-06-01,Barn,50.0,500\n" +
		"Opera,,2024-07-01,House,lots,1\n" +
		"Blues,,2024-08-01,Bar,5,\n"

	res, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.NotEmpty(t, res.BatchID)
	require.Len(t, res.Created, 3)
	require.Len(t, res.Errors, 3)

	assert.Equal(t, 1, res.Created[0].Row)
	assert.Equal(t, "Rock Night", res.Created[0].Title)
	assert.Equal(t, 4, res.Created[1].Row)
	assert.Equal(t, 6, res.Created[2].Row)

	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, "Missing title", res.Errors[0].Error)
	assert.Equal(t, "Hall B", res.Errors[0].RowData["Location"])
	assert.Equal(t, 3, res.Errors[1].Row)
	assert.Equal(t, 5, res.Errors[2].Row)

	rock, ok := store.Event(res.Created[0].EventID)
	require.True(t, ok)
	assert.Equal(t, domain.Cents(1250), rock.TicketPriceCents)
	assert.Equal(t, 100, rock.Capacity)
	assert.Equal(t, 0, rock.TicketsSold)
	assert.Equal(t, "Loud", rock.Description)

	folk, _ := store.Event(res.Created[1].EventID)
	assert.Equal(t, domain.Cents(500), folk.TicketPriceCents)
	assert.Equal(t, 50, folk.Capacity)

	blues, _ := store.Event(res.Created[2].EventID)
	assert.Equal(t, domain.Cents(0), blues.TicketPriceCents)
}

func TestImport_ColumnAliases(t *testing.T) {
	svc, store := newImporter(t)

	csv := "title,date,ticket_price\n" +
		"Lower,2024-01-02,3.99\n"

	res, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Empty(t, res.Errors)

	e, _ := store.Event(res.Created[0].EventID)
	assert.Equal(t, domain.NewDate(2024, 1, 2), e.Date)
	assert.Equal(t, 0, e.Capacity)
	assert.Equal(t, domain.Cents(399), e.TicketPriceCents)
	assert.Equal(t, "", e.Location)
}

func TestImport_RaggedRows(t *testing.T) {
	svc, _ := newImporter(t)

	csv := "Title,Date,Capacity\n" +
		"Short,2024-01-02\n" +
		"Long,2024-01-03,5,extra\n"

	res, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Empty(t, res.Errors)
}

func TestImport_AllRowsFail(t *testing.T) {
	svc, _ := newImporter(t)

	csv := "Title,Date\n,2024-01-01\nNo date,\n"

	res, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.NotNil(t, res.Created)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Errors, 2)
}

func TestImport_Empty(t *testing.T) {
	svc, _ := newImporter(t)

	res, err := svc.Import(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Empty(t, res.Errors)
}

func TestImport_InvalidEncoding(t *testing.T) {
	svc, _ := newImporter(t)

	_, err := svc.Import(context.Background(), strings.NewReader("Title\n\xff\xfe\n"))
	assert.ErrorIs(t, err, importer.ErrInvalidEncoding)
}

type failingCreator struct {
	failTitle string
	next      int64
}

func (f *failingCreator) CreateImported(_ context.Context, in domain.NewEvent) (*domain.Event, error) {
	if in.Title == f.failTitle {
		return nil, errors.New("connection reset")
	}
	f.next++
	return &domain.Event{ID: f.next, Title: in.Title}, nil
}

func TestImport_UnexpectedErrorIsCapturedPerRow(t *testing.T) {
	svc := importer.New(&failingCreator{failTitle: "Bad"}, nil)

	csv := "Title,Date\nGood,2024-01-01\nBad,2024-01-01\nAlso good,2024-01-02\n"

	res, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, "failed to create event", res.Errors[0].Error)
}
