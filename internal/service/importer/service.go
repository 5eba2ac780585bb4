package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/service/ledger"
)

var bom = []byte("\xef\xbb\xbf")

// EventCreator stores one imported event. Each call commits on its own.
type EventCreator interface {
	CreateImported(ctx context.Context, in domain.NewEvent) (*domain.Event, error)
}

type Service struct {
	events EventCreator
	logger *slog.Logger
}

func New(events EventCreator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		events: events,
		logger: logger,
	}
}

// Import reads a CSV table and creates one event per data row. Rows are
// committed one by one as they are read; a failing row is reported in the
// result and the import moves on to the next one.
//
// Parameters:
//   - ctx: request-scoped context. Cancellation stops the import after the
//     row in progress.
//   - src: the uploaded file.
//
// Returns:
//   - *domain.ImportResult: created rows and row errors, both non-nil.
//   - error: importer.ErrInvalidEncoding if the upload is not UTF-8.
//   - error: importer.ErrInvalidHeader if the header line cannot be read.
func (s *Service) Import(ctx context.Context, src io.Reader) (*domain.ImportResult, error) {
	const op = "service.importer.Import"

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidEncoding)
	}

	res := &domain.ImportResult{
		BatchID: uuid.NewString(),
		Created: make([]domain.ImportCreated, 0),
		Errors:  make([]domain.ImportError, 0),
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w: %w", op, ErrInvalidHeader, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, domain.ImportError{
				Row:     n,
				Error:   err.Error(),
				RowData: map[string]string{},
			})
			continue
		}

		r := newRow(header, record)

		e, err := s.importRow(ctx, r)
		if err != nil {
			res.Errors = append(res.Errors, domain.ImportError{
				Row:     n,
				Error:   rowErrorMessage(err),
				RowData: r,
			})
			continue
		}

		res.Created = append(res.Created, domain.ImportCreated{
			Row:     n,
			EventID: e.ID,
			Title:   e.Title,
		})
	}

	s.logger.Info("events imported",
		"batch_id", res.BatchID,
		"created", len(res.Created),
		"errors", len(res.Errors),
	)

	return res, nil
}

func (s *Service) importRow(ctx context.Context, r row) (*domain.Event, error) {
	in, err := parseRow(r)
	if err != nil {
		return nil, err
	}

	e, err := s.events.CreateImported(ctx, in)
	if err != nil {
		var invalid ledger.InvalidArgumentError
		if errors.As(err, &invalid) {
			return nil, RowError{Reason: invalid.Reason}
		}

		s.logger.Error("import row", "title", in.Title, "error", err)
		return nil, err
	}

	return e, nil
}

func rowErrorMessage(err error) string {
	var re RowError
	if errors.As(err, &re) {
		return re.Reason
	}
	return "failed to create event"
}
