package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated      EventType = "user_created"
	EventAdminUserCreated EventType = "admin_user_created"
	EventUserUpdated      EventType = "user_updated"
	EventUserDeleted      EventType = "user_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}

// UserUpdatedPayload payload.
type UserUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}

