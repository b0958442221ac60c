package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	messageDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/message"
	"github.com/apdq/deliver-backend/internal/core/events"
)

const markedRead = "Message marked as read successfully"

type Service struct {
	repo   RepositoryAPI
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, publisher EventPublisher, logger *slog.Logger) *Service {
	now := time.Now
	if loc, err := time.LoadLocation(Timezone); err == nil {
		now = easternNow(loc)
	} else {
		logger.Warn("message timezone unavailable, using local time", "timezone", Timezone, "error", err)
	}
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
		now:    now,
	}
}

// WithClock replaces the timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SendAdminMessage addresses garages created by the calling staff user.
// With to_all every such garage receives it; otherwise each listed garage
// must be active and created by the caller.
func (s *Service) SendAdminMessage(ctx context.Context, caller account.Account, dto CreateAdminMessageDTO) (*AdminMessageResponse, error) {
	if err := auth.AllowKinds(caller, account.KindStaff); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, account.PermSendAdminMessage); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var recipients []int64
	var err error
	switch {
	case dto.ToAll:
		recipients, err = s.repo.GarageIDsCreatedBy(ctx, caller.ID())
	case len(dto.GarageIDs) > 0:
		requested := dedupe(dto.GarageIDs)
		recipients, err = s.repo.ActiveGarageIDsCreatedBy(ctx, caller.ID(), requested)
		if err == nil {
			if invalid := missing(requested, recipients); len(invalid) > 0 {
				return nil, invalidRecipients(fmt.Sprintf("Garages with IDs %v were not created by this admin", invalid), invalid)
			}
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "admin message: recipient lookup failed", "error", err)
		return nil, internal.NewInternalError("Failed to create admin message", err)
	}

	msg := &messageDatamodel.AdminMessage{
		Title:     dto.Title,
		Content:   dto.Content,
		CreatedAt: s.now(),
		AdminID:   caller.ID(),
		ToAll:     dto.ToAll,
	}
	if err := s.repo.CreateAdminMessage(ctx, msg, recipients); err != nil {
		s.logger.ErrorContext(ctx, "admin message: insert failed", "error", err)
		return nil, internal.NewInternalError("Failed to create admin message", err)
	}

	s.logger.InfoContext(ctx, "admin message sent", "message_id", msg.ID, "recipients", len(recipients))
	s.publish(ctx, events.NewMessageSentEvent(events.ChannelAdmin, msg.ID, caller.ID(), recipients))

	resp := toAdminResponse(msg, false)
	resp.GarageIDs = nonNil(recipients)
	return &resp, nil
}

// SendGarageMessage addresses the calling garage's operators.
func (s *Service) SendGarageMessage(ctx context.Context, caller account.Account, dto CreateGarageMessageDTO) (*GarageMessageResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller, account.PermSendGarageMessage); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var recipients []int64
	var err error
	switch {
	case dto.ToAll:
		recipients, err = s.repo.RemorqueurIDsOfGarage(ctx, caller.ID())
	case len(dto.RemorqueurIDs) > 0:
		requested := dedupe(dto.RemorqueurIDs)
		recipients, err = s.repo.FilterRemorqueursOfGarage(ctx, caller.ID(), requested)
		if err == nil {
			if invalid := missing(requested, recipients); len(invalid) > 0 {
				return nil, invalidRecipients(fmt.Sprintf("Remorqueurs with IDs %v do not belong to this garage", invalid), invalid)
			}
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "garage message: recipient lookup failed", "error", err)
		return nil, internal.NewInternalError("Failed to create garage message", err)
	}

	msg := &messageDatamodel.GarageMessage{
		Title:     dto.Title,
		Content:   dto.Content,
		CreatedAt: s.now(),
		GarageID:  caller.ID(),
		ToAll:     dto.ToAll,
	}
	if err := s.repo.CreateGarageMessage(ctx, msg, recipients); err != nil {
		s.logger.ErrorContext(ctx, "garage message: insert failed", "error", err)
		return nil, internal.NewInternalError("Failed to create garage message", err)
	}

	s.logger.InfoContext(ctx, "garage message sent", "message_id", msg.ID, "recipients", len(recipients))
	s.publish(ctx, events.NewMessageSentEvent(events.ChannelGarage, msg.ID, caller.ID(), recipients))

	resp := toGarageResponse(msg, false)
	resp.RemorqueurIDs = nonNil(recipients)
	return &resp, nil
}

func (s *Service) ListAdminMessages(ctx context.Context) ([]AdminMessageResponse, error) {
	msgs, err := s.repo.ListAdminMessages(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list admin messages failed", "error", err)
		return nil, internal.NewInternalError("Failed to retrieve all admin messages", err)
	}
	out := make([]AdminMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toAdminResponse(m, false))
	}
	return out, nil
}

func (s *Service) ListSentGarageMessages(ctx context.Context, caller account.Account) ([]GarageMessageResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListGarageMessagesBySender(ctx, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "list garage messages failed", "garage_id", caller.ID(), "error", err)
		return nil, internal.NewInternalError("Failed to retrieve all garage messages", err)
	}
	out := make([]GarageMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toGarageResponse(m, false))
	}
	return out, nil
}

// GarageInbox lists the admin messages addressed to the calling garage,
// newest first, with the garage's own read flag.
func (s *Service) GarageInbox(ctx context.Context, caller account.Account) ([]AdminMessageResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, err
	}
	msgs, err := s.repo.AdminInbox(ctx, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "garage inbox failed", "garage_id", caller.ID(), "error", err)
		return nil, internal.NewInternalError("Failed to retrieve admin messages", err)
	}
	out := make([]AdminMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		read := false
		for _, r := range m.Recipients {
			if r.GarageID == caller.ID() {
				read = r.IsRead
			}
		}
		out = append(out, toAdminResponse(m, read))
	}
	return out, nil
}

// OperatorInbox lists the messages the operator's garage sent to it.
func (s *Service) OperatorInbox(ctx context.Context, caller account.Account) ([]GarageMessageResponse, error) {
	if err := auth.AllowKinds(caller, account.KindOperator); err != nil {
		return nil, err
	}
	garageID, ok, err := s.repo.OperatorGarageID(ctx, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "operator inbox: garage lookup failed", "remorqueur_id", caller.ID(), "error", err)
		return nil, internal.NewInternalError("Failed to retrieve garage messages", err)
	}
	if !ok {
		return nil, internal.NewNotFoundError("Remorqueur not found", internal.ErrCodeRemorqueurNotFound)
	}

	msgs, err := s.repo.GarageInbox(ctx, garageID, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "operator inbox failed", "remorqueur_id", caller.ID(), "error", err)
		return nil, internal.NewInternalError("Failed to retrieve garage messages", err)
	}
	out := make([]GarageMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		read := false
		for _, r := range m.Recipients {
			if r.RemorqueurID == caller.ID() {
				read = r.IsRead
			}
		}
		out = append(out, toGarageResponse(m, read))
	}
	return out, nil
}

func (s *Service) DeleteAdminMessage(ctx context.Context, dto DeleteMessageDTO) (*MessageResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	n, err := s.repo.DeleteAdminMessages(ctx, []int64{dto.MessageID})
	if err != nil {
		s.logger.ErrorContext(ctx, "delete admin message failed", "message_id", dto.MessageID, "error", err)
		return nil, internal.NewInternalError("Failed to delete admin message", err)
	}
	if n == 0 {
		return nil, internal.NewNotFoundError("Message not found", internal.ErrCodeMessageNotFound)
	}
	return &MessageResponse{Message: fmt.Sprintf("Admin message %d deleted successfully", dto.MessageID)}, nil
}

func (s *Service) DeleteAdminMessages(ctx context.Context, dto DeleteMessagesDTO) (*MessageResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	n, err := s.repo.DeleteAdminMessages(ctx, dedupe(dto.MessageIDs))
	if err != nil {
		s.logger.ErrorContext(ctx, "delete admin messages failed", "error", err)
		return nil, internal.NewInternalError("Failed to delete messages", err)
	}
	if n == 0 {
		return nil, internal.NewNotFoundError("No messages found", internal.ErrCodeMessageNotFound)
	}
	return &MessageResponse{Message: fmt.Sprintf("Successfully deleted %d messages", n)}, nil
}

// DeleteGarageMessage removes a message the calling garage sent.
func (s *Service) DeleteGarageMessage(ctx context.Context, caller account.Account, dto DeleteMessageDTO) (*MessageResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	msg, err := s.repo.FindGarageMessage(ctx, dto.MessageID)
	if err != nil {
		return nil, internal.NewInternalError("Failed to delete garage message", err)
	}
	if msg == nil {
		return nil, internal.NewNotFoundError("Message not found", internal.ErrCodeMessageNotFound)
	}
	if msg.GarageID != caller.ID() {
		return nil, internal.NewForbiddenError("You can only delete your own messages", internal.ErrCodeNotOwner)
	}

	if _, err := s.repo.DeleteGarageMessage(ctx, dto.MessageID); err != nil {
		s.logger.ErrorContext(ctx, "delete garage message failed", "message_id", dto.MessageID, "error", err)
		return nil, internal.NewInternalError("Failed to delete garage message", err)
	}
	return &MessageResponse{Message: fmt.Sprintf("Garage message %d deleted successfully", dto.MessageID)}, nil
}

func (s *Service) MarkAdminMessageRead(ctx context.Context, caller account.Account, messageID int64) (*AdminReadResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, err
	}
	ok, err := s.repo.MarkAdminRead(ctx, messageID, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "mark admin message read failed", "message_id", messageID, "error", err)
		return nil, internal.NewInternalError("Failed to mark admin message as read", err)
	}
	if !ok {
		return nil, internal.NewNotFoundError("Message not found or garage is not a recipient", internal.ErrCodeMessageNotFound)
	}
	return &AdminReadResponse{Message: markedRead, MessageID: messageID, GarageID: caller.ID()}, nil
}

func (s *Service) MarkGarageMessageRead(ctx context.Context, caller account.Account, messageID int64) (*GarageReadResponse, error) {
	if err := auth.AllowKinds(caller, account.KindOperator); err != nil {
		return nil, err
	}
	ok, err := s.repo.MarkGarageRead(ctx, messageID, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "mark garage message read failed", "message_id", messageID, "error", err)
		return nil, internal.NewInternalError("Failed to mark garage message as read", err)
	}
	if !ok {
		return nil, internal.NewNotFoundError("Message not found or remorqueur is not a recipient", internal.ErrCodeMessageNotFound)
	}
	return &GarageReadResponse{Message: markedRead, MessageID: messageID, RemorqueurID: caller.ID()}, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "message event publish failed", "event_id", e.EventID(), "error", err)
	}
}

func invalidRecipients(msg string, ids []int64) *internal.AppError {
	return internal.NewValidationError(msg, internal.ErrCodeInvalidRecipient).
		WithDetails(map[string]interface{}{"invalid_ids": ids})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
