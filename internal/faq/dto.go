package faq

import (
	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

type CreateFAQDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Language string `json:"language"`
}

func (d CreateFAQDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("question", d.Question).Required()
	v.Field("answer", d.Answer).Required()
	v.Field("language", d.Language).Required().OneOf(internal.ErrCodeInvalidLanguage, "fr", "en")
	return v.Validate()
}

type FAQResponse struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Language string `json:"language"`
}

type DeleteFAQResponse struct {
	Message string `json:"message"`
	FAQID   int64  `json:"faq_id"`
}
