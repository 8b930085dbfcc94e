package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KaivDev4434/FairShare/internal/bill"
	"github.com/KaivDev4434/FairShare/internal/events"
)

// Common errors
var (
	ErrNoFile           = errors.New("no document provided")
	ErrParserFailed     = errors.New("document parsing failed")
	ErrExtractionFailed = errors.New("item extraction failed")
)

// Bills is the slice of the bill feature extraction needs
type Bills interface {
	GetBill(ctx context.Context, id string) (*bill.Detail, error)
	AddItem(ctx context.Context, billID string, req *bill.CreateItemRequest) (*bill.Item, error)
}

var _ Bills = (*bill.Service)(nil)

// Service runs the parse-then-extract pipeline and can append the result to
// an existing bill.
type Service struct {
	parser    *ParserClient
	extractor Extractor
	cache     *Cache
	bills     Bills
	publisher events.Publisher
}

// NewService creates a new document service. cache may be nil when Redis is
// not configured.
func NewService(parser *ParserClient, extractor Extractor, cache *Cache, bills Bills, publisher events.Publisher) *Service {
	return &Service{
		parser:    parser,
		extractor: extractor,
		cache:     cache,
		bills:     bills,
		publisher: publisher,
	}
}

// Extract runs a document through OCR and item extraction. Identical
// documents are served from cache; OCR plus a model call is too expensive to
// repeat for a re-upload.
func (s *Service) Extract(ctx context.Context, filename string, content []byte) (*DraftBill, error) {
	if len(content) == 0 {
		return nil, ErrNoFile
	}

	key := CacheKey(content)
	draft, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("extraction cache read failed", "error", err)
	} else if draft != nil {
		slog.Debug("serving extraction from cache", "filename", filename)
		return draft, nil
	}

	markdown, err := s.parser.Parse(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParserFailed, err)
	}

	draft, err = s.extractor.Extract(ctx, markdown)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if err := s.cache.Set(ctx, key, draft); err != nil {
		slog.Warn("extraction cache write failed", "error", err)
	}

	slog.Info("document extracted",
		"filename", filename,
		"merchant", draft.Merchant,
		"items", len(draft.Items))

	return draft, nil
}

// ExtractToBill extracts a document and appends the draft items to an
// existing unlocked bill. The bill is checked before the expensive pipeline
// runs.
func (s *Service) ExtractToBill(ctx context.Context, billID, filename string, content []byte) (*DraftBill, []*bill.Item, error) {
	detail, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	if detail.Bill.Locked {
		return nil, nil, bill.ErrBillLocked
	}

	draft, err := s.Extract(ctx, filename, content)
	if err != nil {
		return nil, nil, err
	}

	// TODO: append the batch in one transaction so a concurrent lock cannot strand a partial import
	items := make([]*bill.Item, 0, len(draft.Items))
	for _, di := range draft.Items {
		item, err := s.bills.AddItem(ctx, billID, &bill.CreateItemRequest{
			Name:     di.Name,
			Price:    di.Price,
			Quantity: di.Quantity,
		})
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}

	s.publish(ctx, billID, &events.DocumentExtractedData{
		Merchant:   draft.Merchant,
		ItemsAdded: len(items),
	})

	return draft, items, nil
}

// publish emits an event without failing the operation
func (s *Service) publish(ctx context.Context, billID string, payload *events.DocumentExtractedData) {
	if err := s.publisher.Publish(ctx, events.TypeDocumentExtracted, billID, payload); err != nil {
		slog.Warn("failed to publish event", "event", events.TypeDocumentExtracted, "bill_id", billID, "error", err)
	}
}
