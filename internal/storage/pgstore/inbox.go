package pgstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

const notificationCols = `id, company_id, user_id, type, title, message, link, data, read, created_at, updated_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	var data []byte
	err := row.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &data, &n.Read, &n.CreatedAt, &n.UpdatedAt)
	n.Data = data
	return &n, err
}

func (t *tx) CreateNotification(ctx context.Context, n *models.Notification) error {
	if _, err := t.GetUser(ctx, n.UserID); err != nil {
		return err
	}
	now := t.now()
	n.ID = uuid.NewString()
	n.CompanyID = t.company()
	n.CreatedAt, n.UpdatedAt = now, now
	var data any
	if len(n.Data) > 0 {
		data = []byte(n.Data)
	}
	_, err := t.q.Exec(ctx, `
INSERT INTO notifications (`+notificationCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, n.ID, n.CompanyID, n.UserID, n.Type, n.Title, n.Message, n.Link, data, n.Read, now)
	return errors.Wrap(err, "insert notification")
}

func (t *tx) GetNotification(ctx context.Context, userID, id string) (*models.Notification, error) {
	n, err := scanNotification(t.q.QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE company_id = $1 AND user_id = $2 AND id = $3`,
		t.company(), userID, id))
	if err := one(err, "notification", "select notification"); err != nil {
		return nil, err
	}
	return n, nil
}

func (t *tx) ListNotifications(ctx context.Context, userID string, unreadOnly bool, p query.Params) ([]*models.Notification, int, error) {
	w := query.Scoped("company_id", t.company()).Eq("user_id", userID)
	if unreadOnly {
		w.Eq("read", false)
	}
	w.Apply(p, "type", "created_at", "title", "message")
	total, err := t.count(ctx, "FROM notifications", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+notificationCols+` FROM notifications `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "notifications", scanNotification)
	return items, total, err
}

func (t *tx) MarkNotificationRead(ctx context.Context, userID, id string, read bool) error {
	tag, err := t.q.Exec(ctx, `
UPDATE notifications SET read = $4, updated_at = $5
WHERE company_id = $1 AND user_id = $2 AND id = $3
`, t.company(), userID, id, read, t.now())
	return affected(tag, err, "notification", "update notification")
}

func (t *tx) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	tag, err := t.q.Exec(ctx, `
UPDATE notifications SET read = TRUE, updated_at = $3
WHERE company_id = $1 AND user_id = $2 AND read = FALSE
`, t.company(), userID, t.now())
	if err != nil {
		return 0, errors.Wrap(err, "mark notifications read")
	}
	return int(tag.RowsAffected()), nil
}

func (t *tx) DeleteNotification(ctx context.Context, userID, id string) error {
	tag, err := t.q.Exec(ctx,
		`DELETE FROM notifications WHERE company_id = $1 AND user_id = $2 AND id = $3`, t.company(), userID, id)
	return affected(tag, err, "notification", "delete notification")
}

func (t *tx) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.q.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE company_id = $1 AND user_id = $2 AND read = FALSE`,
		t.company(), userID).Scan(&n)
	return n, errors.Wrap(err, "count unread notifications")
}

const conversationCols = `
  c.id, c.company_id, c.name, c.is_group, c.created_by, c.created_at, c.updated_at,
  ARRAY(SELECT p.user_id FROM conversation_participants p WHERE p.conversation_id = c.id ORDER BY p.user_id)`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.IsGroup, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.ParticipantIDs)
	return &c, err
}

const isParticipant = `EXISTS (SELECT 1 FROM conversation_participants p WHERE p.conversation_id = c.id AND p.user_id = %s)`

func (t *tx) CreateConversation(ctx context.Context, c *models.Conversation) error {
	for _, uid := range c.ParticipantIDs {
		if _, err := t.GetUser(ctx, uid); err != nil {
			return err
		}
	}
	now := t.now()
	c.ID = uuid.NewString()
	c.CompanyID = t.company()
	c.CreatedAt, c.UpdatedAt = now, now
	if _, err := t.q.Exec(ctx, `
INSERT INTO conversations (id, company_id, name, is_group, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, c.ID, c.CompanyID, c.Name, c.IsGroup, c.CreatedBy, now); err != nil {
		return errors.Wrap(err, "insert conversation")
	}
	for _, uid := range c.ParticipantIDs {
		if _, err := t.q.Exec(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			c.ID, uid); err != nil {
			return errors.Wrap(err, "insert participant")
		}
	}
	return nil
}

func (t *tx) GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	w := query.Scoped("c.company_id", t.company()).Eq("c.id", id)
	if userID != "" {
		w.Raw(isParticipant, userID)
	}
	c, err := scanConversation(t.q.QueryRow(ctx, `SELECT `+conversationCols+` FROM conversations c `+w.SQL(), w.Args()...))
	if err := one(err, "conversation", "select conversation"); err != nil {
		return nil, err
	}
	return c, nil
}

func (t *tx) ListConversations(ctx context.Context, userID string, p query.Params) ([]*models.Conversation, int, error) {
	w := query.Scoped("c.company_id", t.company()).Raw(isParticipant, userID).
		Apply(p, "", "c.created_at", "c.name")
	total, err := t.count(ctx, "FROM conversations c", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+conversationCols+` FROM conversations c `+w.SQL()+` ORDER BY c.updated_at DESC, c.id DESC `+page, args...)
	items, err := collect(rows, err, "conversations", scanConversation)
	return items, total, err
}

const messageCols = `
  id, company_id, conversation_id, sender_id, recipient_id, content, type,
  attachment_url, read_by, created_at, updated_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.CompanyID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Content, &m.Type,
		&m.AttachmentURL, &m.ReadBy, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (t *tx) AppendMessage(ctx context.Context, m *models.Message) error {
	now := t.now()
	tag, err := t.q.Exec(ctx,
		`UPDATE conversations SET updated_at = $3 WHERE company_id = $1 AND id = $2`,
		t.company(), m.ConversationID, now)
	if err := affected(tag, err, "conversation", "touch conversation"); err != nil {
		return err
	}
	m.ID = uuid.NewString()
	m.CompanyID = t.company()
	m.ReadBy = []string{m.SenderID}
	m.CreatedAt, m.UpdatedAt = now, now
	_, err = t.q.Exec(ctx, `
INSERT INTO messages (`+messageCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, m.ID, m.CompanyID, m.ConversationID, m.SenderID, m.RecipientID, m.Content, m.Type,
		m.AttachmentURL, m.ReadBy, now)
	return errors.Wrap(err, "insert message")
}

func (t *tx) conversationExists(ctx context.Context, id string) error {
	var got string
	err := t.q.QueryRow(ctx,
		`SELECT id FROM conversations WHERE company_id = $1 AND id = $2`, t.company(), id).Scan(&got)
	return one(err, "conversation", "select conversation")
}

func (t *tx) ListMessages(ctx context.Context, conversationID string, p query.Params) ([]*models.Message, int, error) {
	if err := t.conversationExists(ctx, conversationID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("conversation_id", conversationID).
		Apply(p, "type", "created_at", "content")
	total, err := t.count(ctx, "FROM messages", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+messageCols+` FROM messages `+w.SQL()+` ORDER BY created_at ASC, id ASC `+page, args...)
	items, err := collect(rows, err, "messages", scanMessage)
	return items, total, err
}

func (t *tx) MarkConversationRead(ctx context.Context, conversationID, userID string) (int, error) {
	if err := t.conversationExists(ctx, conversationID); err != nil {
		return 0, err
	}
	tag, err := t.q.Exec(ctx, `
UPDATE messages SET read_by = array_append(read_by, $3)
WHERE company_id = $1 AND conversation_id = $2 AND NOT ($3 = ANY(read_by))
`, t.company(), conversationID, userID)
	if err != nil {
		return 0, errors.Wrap(err, "mark conversation read")
	}
	return int(tag.RowsAffected()), nil
}

func (t *tx) CountUnreadMessages(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.q.QueryRow(ctx, `
SELECT count(*)
FROM messages m
JOIN conversation_participants p ON p.conversation_id = m.conversation_id AND p.user_id = $2
WHERE m.company_id = $1 AND NOT ($2 = ANY(m.read_by))
`, t.company(), userID).Scan(&n)
	return n, errors.Wrap(err, "count unread messages")
}
