package memstore

import (
	"context"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

func (t *tx) CreateNotification(_ context.Context, n *models.Notification) error {
	if err := t.write(); err != nil {
		return err
	}
	if !t.userInScope(n.UserID) {
		return errs.NotFound("user")
	}
	now := t.now()
	n.ID = newID()
	n.CompanyID = t.sc.CompanyID
	n.CreatedAt, n.UpdatedAt = now, now
	t.d.notifications[n.ID] = *n
	return nil
}

func (t *tx) GetNotification(_ context.Context, userID, id string) (*models.Notification, error) {
	n, ok := t.d.notifications[id]
	if !ok || n.UserID != userID || !t.owns(n.CompanyID) {
		return nil, errs.NotFound("notification")
	}
	return &n, nil
}

func (t *tx) ListNotifications(_ context.Context, userID string, unreadOnly bool, p query.Params) ([]*models.Notification, int, error) {
	items, total := list(t.d.notifications, p,
		func(n models.Notification) bool {
			return n.UserID == userID && t.owns(n.CompanyID) &&
				(!unreadOnly || !n.Read) &&
				p.MatchStatus(string(n.Type)) &&
				p.InRange(n.CreatedAt) &&
				query.MatchText(p.Search, n.Title, n.Message)
		},
		func(a, b models.Notification) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) MarkNotificationRead(ctx context.Context, userID, id string, read bool) error {
	if err := t.write(); err != nil {
		return err
	}
	n, err := t.GetNotification(ctx, userID, id)
	if err != nil {
		return err
	}
	n.Read = read
	n.UpdatedAt = t.now()
	t.d.notifications[id] = *n
	return nil
}

func (t *tx) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	now := t.now()
	changed := 0
	for k, n := range t.d.notifications {
		if n.UserID == userID && t.owns(n.CompanyID) && !n.Read {
			n.Read = true
			n.UpdatedAt = now
			t.d.notifications[k] = n
			changed++
		}
	}
	return changed, nil
}

func (t *tx) DeleteNotification(ctx context.Context, userID, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, err := t.GetNotification(ctx, userID, id); err != nil {
		return err
	}
	delete(t.d.notifications, id)
	return nil
}

func (t *tx) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	n := 0
	for _, v := range t.d.notifications {
		if v.UserID == userID && t.owns(v.CompanyID) && !v.Read {
			n++
		}
	}
	return n, nil
}

func (t *tx) CreateConversation(_ context.Context, c *models.Conversation) error {
	if err := t.write(); err != nil {
		return err
	}
	for _, uid := range c.ParticipantIDs {
		if !t.userInScope(uid) {
			return errs.NotFound("user")
		}
	}
	now := t.now()
	c.ID = newID()
	c.CompanyID = t.sc.CompanyID
	c.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	c.CreatedAt, c.UpdatedAt = now, now
	t.d.conversations[c.ID] = *c
	return nil
}

// GetConversation hides conversations the user does not take part in. An
// empty userID skips that check.
func (t *tx) GetConversation(_ context.Context, userID, id string) (*models.Conversation, error) {
	c, ok := t.d.conversations[id]
	if !ok || !t.owns(c.CompanyID) || (userID != "" && !contains(c.ParticipantIDs, userID)) {
		return nil, errs.NotFound("conversation")
	}
	return &c, nil
}

func (t *tx) ListConversations(_ context.Context, userID string, p query.Params) ([]*models.Conversation, int, error) {
	items, total := list(t.d.conversations, p,
		func(c models.Conversation) bool {
			return t.owns(c.CompanyID) && contains(c.ParticipantIDs, userID) &&
				p.InRange(c.CreatedAt) &&
				query.MatchText(p.Search, c.Name)
		},
		// Most recently active first.
		func(a, b models.Conversation) bool { return newestFirst(a.UpdatedAt, b.UpdatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) AppendMessage(_ context.Context, m *models.Message) error {
	if err := t.write(); err != nil {
		return err
	}
	c, ok := t.d.conversations[m.ConversationID]
	if !ok || !t.owns(c.CompanyID) {
		return errs.NotFound("conversation")
	}
	now := t.now()
	m.ID = newID()
	m.CompanyID = t.sc.CompanyID
	m.ReadBy = []string{m.SenderID}
	m.CreatedAt, m.UpdatedAt = now, now
	t.d.messages[m.ID] = *m

	c.UpdatedAt = now
	t.d.conversations[c.ID] = c
	return nil
}

func (t *tx) ListMessages(_ context.Context, conversationID string, p query.Params) ([]*models.Message, int, error) {
	c, ok := t.d.conversations[conversationID]
	if !ok || !t.owns(c.CompanyID) {
		return nil, 0, errs.NotFound("conversation")
	}
	items, total := list(t.d.messages, p,
		func(m models.Message) bool {
			return m.ConversationID == conversationID &&
				p.MatchStatus(string(m.Type)) &&
				p.InRange(m.CreatedAt) &&
				query.MatchText(p.Search, m.Content)
		},
		func(a, b models.Message) bool { return oldestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) MarkConversationRead(_ context.Context, conversationID, userID string) (int, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	c, ok := t.d.conversations[conversationID]
	if !ok || !t.owns(c.CompanyID) {
		return 0, errs.NotFound("conversation")
	}
	changed := 0
	for k, m := range t.d.messages {
		if m.ConversationID == conversationID && !contains(m.ReadBy, userID) {
			m.ReadBy = append(append([]string(nil), m.ReadBy...), userID)
			t.d.messages[k] = m
			changed++
		}
	}
	return changed, nil
}

func (t *tx) CountUnreadMessages(_ context.Context, userID string) (int, error) {
	n := 0
	for _, m := range t.d.messages {
		if !t.owns(m.CompanyID) || contains(m.ReadBy, userID) {
			continue
		}
		c, ok := t.d.conversations[m.ConversationID]
		if ok && contains(c.ParticipantIDs, userID) {
			n++
		}
	}
	return n, nil
}
