package inbox

import (
	"context"
	"slices"
	"strings"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/validate"
)

type ConversationInput struct {
	Name           string   `json:"name" validate:"max=255"`
	IsGroup        bool     `json:"isGroup"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,max=100,dive,required"`
}

type MessageInput struct {
	Content       string             `json:"content" validate:"required,notblank,max=10000"`
	Type          models.MessageType `json:"type" validate:"omitempty,oneof=text image file system"`
	RecipientID   *string            `json:"recipientId"`
	AttachmentURL *string            `json:"attachmentUrl" validate:"omitnil,url"`
}

// participants adds the creator, drops duplicates and sorts so the set has
// one canonical order in every store.
func participants(creator string, ids []string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, creator)
	for _, id := range ids {
		out = append(out, strings.TrimSpace(id))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// CreateConversation starts a conversation between the caller and the given
// users of the same company.
func (s *Service) CreateConversation(ctx context.Context, in ConversationInput) (*models.Conversation, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "create conversation", sc, err)
	}
	ids := participants(sc.UserID, in.ParticipantIDs)
	if len(ids) < 2 {
		return nil, svc.Report(s.log, "create conversation", sc,
			errs.Validation("participantIds", "a conversation needs at least one other participant"))
	}
	c := &models.Conversation{
		Name:           strings.TrimSpace(in.Name),
		IsGroup:        in.IsGroup || len(ids) > 2,
		CreatedBy:      sc.UserID,
		ParticipantIDs: ids,
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.CreateConversation(ctx, c)
	})
	if err != nil {
		return nil, svc.Report(s.log, "create conversation", sc, err)
	}
	return c, nil
}

func (s *Service) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return nil, err
	}
	var c *models.Conversation
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		c, err = tx.GetConversation(ctx, sc.UserID, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get conversation", sc, err)
	}
	return c, nil
}

// ListConversations lists conversations the caller takes part in, most
// recently active first.
func (s *Service) ListConversations(ctx context.Context, p query.Params) (query.Page[*models.Conversation], error) {
	var page query.Page[*models.Conversation]
	sc, err := userScope(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListConversations(ctx, sc.UserID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list conversations", sc, err)
}

// SendMessage posts as the caller, who must be a participant.
func (s *Service) SendMessage(ctx context.Context, conversationID string, in MessageInput) (*models.Message, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "send message", sc, err)
	}
	m := &models.Message{
		ConversationID: conversationID,
		SenderID:       sc.UserID,
		RecipientID:    in.RecipientID,
		Content:        in.Content,
		Type:           svc.Or(&in.Type, models.MessageText),
		AttachmentURL:  in.AttachmentURL,
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		c, err := tx.GetConversation(ctx, sc.UserID, conversationID)
		if err != nil {
			return err
		}
		if in.RecipientID != nil && !slices.Contains(c.ParticipantIDs, *in.RecipientID) {
			return errs.Validation("recipientId", "recipient is not a participant of this conversation")
		}
		return tx.AppendMessage(ctx, m)
	})
	if err != nil {
		return nil, svc.Report(s.log, "send message", sc, err, logger.String("conversation_id", conversationID))
	}
	return m, nil
}

// ListMessages returns messages oldest first.
func (s *Service) ListMessages(ctx context.Context, conversationID string, p query.Params) (query.Page[*models.Message], error) {
	var page query.Page[*models.Message]
	sc, err := userScope(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		if _, err := tx.GetConversation(ctx, sc.UserID, conversationID); err != nil {
			return err
		}
		items, total, err := tx.ListMessages(ctx, conversationID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list messages", sc, err)
}

// MarkConversationRead marks every message in the conversation as read by
// the caller and returns how many changed.
func (s *Service) MarkConversationRead(ctx context.Context, conversationID string) (int, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if _, err := tx.GetConversation(ctx, sc.UserID, conversationID); err != nil {
			return err
		}
		n, err = tx.MarkConversationRead(ctx, conversationID, sc.UserID)
		return err
	})
	return n, svc.Report(s.log, "mark conversation read", sc, err)
}

func (s *Service) UnreadMessages(ctx context.Context) (int, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		n, err = tx.CountUnreadMessages(ctx, sc.UserID)
		return err
	})
	return n, svc.Report(s.log, "count unread messages", sc, err)
}
