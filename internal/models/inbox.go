package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationAssignment NotificationType = "assignment"
	NotificationPayment    NotificationType = "payment"
	NotificationDocument   NotificationType = "document"
	NotificationSystem     NotificationType = "system"
	NotificationMessage    NotificationType = "message"
)

type Notification struct {
	ID        string           `json:"id"`
	CompanyID string           `json:"companyId"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      *string          `json:"link,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type Conversation struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"companyId"`
	Name           string    `json:"name,omitempty"`
	IsGroup        bool      `json:"isGroup"`
	CreatedBy      string    `json:"createdBy"`
	ParticipantIDs []string  `json:"participantIds"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

type Message struct {
	ID             string      `json:"id"`
	CompanyID      string      `json:"companyId"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	RecipientID    *string     `json:"recipientId,omitempty"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	AttachmentURL  *string     `json:"attachmentUrl,omitempty"`
	// ReadBy lists participants that have seen the message; the sender is
	// always included.
	ReadBy    []string  `json:"readBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
