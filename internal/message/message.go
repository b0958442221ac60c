// Package message implements the two in-app channels: staff to garages and
// garages to their operators. Every recipient keeps its own read flag.
package message

import (
	"context"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/apdq/deliver-backend/internal/core/events"
	messageDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/message"
)

// Timezone is the wall clock message timestamps are recorded in.
const Timezone = "America/New_York"

type RepositoryAPI interface {
	GarageIDsCreatedBy(ctx context.Context, adminID int64) ([]int64, error)
	ActiveGarageIDsCreatedBy(ctx context.Context, adminID int64, ids []int64) ([]int64, error)
	RemorqueurIDsOfGarage(ctx context.Context, garageID int64) ([]int64, error)
	FilterRemorqueursOfGarage(ctx context.Context, garageID int64, ids []int64) ([]int64, error)
	OperatorGarageID(ctx context.Context, remorqueurID int64) (int64, bool, error)

	// CreateAdminMessage inserts the message and its recipient rows in one
	// transaction.
	CreateAdminMessage(ctx context.Context, msg *messageDatamodel.AdminMessage, garageIDs []int64) error
	CreateGarageMessage(ctx context.Context, msg *messageDatamodel.GarageMessage, remorqueurIDs []int64) error

	ListAdminMessages(ctx context.Context) ([]*messageDatamodel.AdminMessage, error)
	ListGarageMessagesBySender(ctx context.Context, garageID int64) ([]*messageDatamodel.GarageMessage, error)
	AdminInbox(ctx context.Context, garageID int64) ([]*messageDatamodel.AdminMessage, error)
	GarageInbox(ctx context.Context, garageID, remorqueurID int64) ([]*messageDatamodel.GarageMessage, error)

	FindGarageMessage(ctx context.Context, id int64) (*messageDatamodel.GarageMessage, error)
	// DeleteAdminMessages removes the messages and their recipient rows and
	// reports how many messages existed.
	DeleteAdminMessages(ctx context.Context, ids []int64) (int64, error)
	DeleteGarageMessage(ctx context.Context, id int64) (int64, error)

	// MarkAdminRead reports false when the garage is not a recipient.
	MarkAdminRead(ctx context.Context, messageID, garageID int64) (bool, error)
	MarkGarageRead(ctx context.Context, messageID, remorqueurID int64) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

func adminRecipientIDs(m *messageDatamodel.AdminMessage) []int64 {
	ids := make([]int64, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		ids = append(ids, r.GarageID)
	}
	return ids
}

func garageRecipientIDs(m *messageDatamodel.GarageMessage) []int64 {
	ids := make([]int64, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		ids = append(ids, r.RemorqueurID)
	}
	return ids
}

func toAdminResponse(m *messageDatamodel.AdminMessage, isRead bool) AdminMessageResponse {
	return AdminMessageResponse{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		ToAll:     m.ToAll,
		GarageIDs: adminRecipientIDs(m),
		IsRead:    isRead,
	}
}

func toGarageResponse(m *messageDatamodel.GarageMessage, isRead bool) GarageMessageResponse {
	return GarageMessageResponse{
		ID:            m.ID,
		Title:         m.Title,
		Content:       m.Content,
		CreatedAt:     m.CreatedAt,
		ToAll:         m.ToAll,
		RemorqueurIDs: garageRecipientIDs(m),
		IsRead:        isRead,
	}
}

// dedupe returns the distinct ids in ascending order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// missing returns the requested ids absent from valid.
func missing(requested, valid []int64) []int64 {
	ok := make(map[int64]bool, len(valid))
	for _, id := range valid {
		ok[id] = true
	}
	var out []int64
	for _, id := range requested {
		if !ok[id] {
			out = append(out, id)
		}
	}
	return out
}

func easternNow(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Now().In(loc) }
}
