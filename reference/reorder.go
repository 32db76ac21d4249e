package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/observability"
)

// Reorderer assigns new positions to an article's references.
type Reorderer struct {
	registry *Registry
}

// ParseOrder decodes a JSON array of reference ids.
func ParseOrder(body []byte) ([]uint64, error) {
	body = bytes.TrimSpace(body)
	var ids []uint64
	if len(body) == 0 || body[0] != '[' || json.Unmarshal(body, &ids) != nil {
		return nil, apperrors.Validation("Invalid body")
	}
	return ids, nil
}

// Reorder gives each sibling the index of its id in orderedIDs. Every
// sibling must be listed; ids that do not belong to the article are
// skipped. Either all positions change or none do.
func (r *Reorderer) Reorder(ctx context.Context, articleID uint64, orderedIDs []uint64) (_ []Reference, err error) {
	ctx, span := observability.StartSpan(ctx, "reference.reorder",
		attribute.Int64("article.id", int64(articleID)),
		attribute.Int("order.length", len(orderedIDs)))
	defer func() { observability.EndSpan(span, err) }()

	positions := make(map[uint64]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, dup := positions[id]; dup {
			return nil, apperrors.InvalidInput("order", fmt.Sprintf("reference %d is listed more than once", id))
		}
		positions[id] = i
	}

	if err := r.registry.ApplyPositions(ctx, articleID, positions); err != nil {
		return nil, err
	}
	return r.registry.ListByArticle(ctx, articleID)
}
