package types

import (
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

type ProjectResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	OwnerID     uuid.UUID `json:"owner_id"`
	IsArchived  bool      `json:"is_archived"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberResponse struct {
	ID       uuid.UUID    `json:"id"`
	User     UserResponse `json:"user"`
	Role     string       `json:"role"`
	IsActive bool         `json:"is_active"`
	JoinedAt time.Time    `json:"joined_at"`
}

type InvitationResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	InvitedBy uuid.UUID  `json:"invited_by"`
	Responded *time.Time `json:"responded_at,omitempty"`
}

type TaskResponse struct {
	ID           uuid.UUID      `json:"id"`
	ProjectID    uuid.UUID      `json:"project_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	Priority     string         `json:"priority"`
	CreatedByID  uuid.UUID      `json:"created_by"`
	ParentTaskID *uuid.UUID     `json:"parent_task_id"`
	Position     int            `json:"position"`
	DueDate      *time.Time     `json:"due_date"`
	CompletedAt  *time.Time     `json:"completed_at"`
	Assignees    []UserResponse `json:"assignees"`
	Tags         []string       `json:"tags"`
}

type CommentResponse struct {
	ID              uuid.UUID  `json:"id"`
	TaskID          uuid.UUID  `json:"task_id"`
	AuthorID        uuid.UUID  `json:"author_id"`
	Content         string     `json:"content"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

type AttachmentResponse struct {
	ID           uuid.UUID `json:"id"`
	TaskID       uuid.UUID `json:"task_id"`
	UploadedByID uuid.UUID `json:"uploaded_by"`
	FileRef      string    `json:"file_ref"`
	OriginalName string    `json:"original_name"`
	FileSize     int64     `json:"file_size"`
	CreatedAt    time.Time `json:"created_at"`
}

type NotificationResponse struct {
	ID               uuid.UUID   `json:"id"`
	Title            string      `json:"title"`
	Message          string      `json:"message"`
	NotificationType string      `json:"notification_type"`
	SenderID         *uuid.UUID  `json:"sender_id"`
	ProjectID        *uuid.UUID  `json:"project_id"`
	TaskID           *uuid.UUID  `json:"task_id"`
	CommentID        *uuid.UUID  `json:"comment_id,omitempty"`
	IsRead           bool        `json:"is_read"`
	ReadAt           *time.Time  `json:"read_at"`
	ExtraData        interface{} `json:"extra_data,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

type NotificationPreferenceResponse struct {
	ProjectInvitations bool `json:"project_invitations"`
	TaskAssignments    bool `json:"task_assignments"`
	TaskUpdates        bool `json:"task_updates"`
	Comments           bool `json:"comments"`
}

// BoardLane is one Kanban column.
type BoardLane struct {
	Status string         `json:"status"`
	Tasks  []TaskResponse `json:"tasks"`
}

type BoardResponse struct {
	Project ProjectResponse `json:"project"`
	Lanes   []BoardLane     `json:"lanes"`
	Members int             `json:"members"`
	Total   int             `json:"total"`
	Overdue int             `json:"overdue"`
}

type DeleteResponse struct {
	Message   string           `json:"message"`
	Removed   map[string]int64 `json:"removed"`
	Nullified map[string]int64 `json:"nullified,omitempty"`
}

type ActivityResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	CreatedAt    time.Time `json:"created_at"`
}
