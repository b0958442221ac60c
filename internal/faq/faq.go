// Package faq serves the public help content and its staff maintenance.
package faq

import (
	"context"

	faqDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/faq"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*faqDatamodel.FAQ, error)
	ListByLanguage(ctx context.Context, language string) ([]*faqDatamodel.FAQ, error)
	Create(ctx context.Context, f *faqDatamodel.FAQ) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

func ToResponse(f *faqDatamodel.FAQ) FAQResponse {
	return FAQResponse{
		ID:       f.ID,
		Question: f.Question,
		Answer:   f.Answer,
		Language: f.Language,
	}
}

func toResponses(rows []*faqDatamodel.FAQ) []FAQResponse {
	out := make([]FAQResponse, 0, len(rows))
	for _, f := range rows {
		out = append(out, ToResponse(f))
	}
	return out
}
