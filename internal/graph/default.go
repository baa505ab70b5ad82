package graph

const (
	User         EntityType = "user"
	Tag          EntityType = "tag"
	Project      EntityType = "project"
	Membership   EntityType = "membership"
	Invitation   EntityType = "invitation"
	Task         EntityType = "task"
	TaskAssignee EntityType = "task_assignee"
	TaskTag      EntityType = "task_tag"
	Comment      EntityType = "comment"
	Attachment   EntityType = "attachment"
	Activity     EntityType = "activity"
	Notification EntityType = "notification"
	Preference   EntityType = "notification_preference"
)

// Default is the taskboard data model. Every foreign key in
// internal/models has exactly one relation here.
func Default() *Graph {
	g := New().
		Register(Entity{Type: User, Table: "users", PrimaryKey: "id"}).
		Register(Entity{Type: Tag, Table: "tags", PrimaryKey: "id"}).
		Register(Entity{Type: Project, Table: "projects", PrimaryKey: "id"}).
		Register(Entity{Type: Membership, Table: "project_memberships", PrimaryKey: "id"}).
		Register(Entity{Type: Invitation, Table: "project_invitations", PrimaryKey: "id"}).
		Register(Entity{Type: Task, Table: "tasks", PrimaryKey: "id"}).
		Register(Entity{Type: TaskAssignee, Table: "task_assignees"}).
		Register(Entity{Type: TaskTag, Table: "task_tags"}).
		Register(Entity{Type: Comment, Table: "task_comments", PrimaryKey: "id"}).
		Register(Entity{Type: Attachment, Table: "task_attachments", PrimaryKey: "id"}).
		Register(Entity{Type: Activity, Table: "task_activities", PrimaryKey: "id"}).
		Register(Entity{Type: Notification, Table: "notifications", PrimaryKey: "id"}).
		Register(Entity{Type: Preference, Table: "notification_preferences", PrimaryKey: "id"})

	// project subtree
	g.Relate(Relation{Parent: Project, Child: Task, Column: "project_id", Policy: Cascade}).
		Relate(Relation{Parent: Project, Child: Membership, Column: "project_id", Policy: Cascade}).
		Relate(Relation{Parent: Project, Child: Invitation, Column: "project_id", Policy: Cascade}).
		Relate(Relation{Parent: Project, Child: Notification, Column: "project_id", Policy: Cascade, Weak: true})

	// task subtree
	g.Relate(Relation{Parent: Task, Child: Task, Column: "parent_task_id", Policy: Cascade}).
		Relate(Relation{Parent: Task, Child: Comment, Column: "task_id", Policy: Cascade}).
		Relate(Relation{Parent: Task, Child: Attachment, Column: "task_id", Policy: Cascade}).
		Relate(Relation{Parent: Task, Child: Activity, Column: "task_id", Policy: Cascade}).
		Relate(Relation{Parent: Task, Child: TaskAssignee, Column: "task_id", Policy: Cascade}).
		Relate(Relation{Parent: Task, Child: TaskTag, Column: "task_id", Policy: Cascade}).
		Relate(Relation{Parent: Task, Child: Notification, Column: "task_id", Policy: Cascade, Weak: true}).
		Relate(Relation{Parent: Comment, Child: Comment, Column: "parent_comment_id", Policy: Cascade}).
		Relate(Relation{Parent: Comment, Child: Notification, Column: "comment_id", Policy: Cascade, Weak: true})

	g.Relate(Relation{Parent: Tag, Child: TaskTag, Column: "tag_id", Policy: Cascade})

	// account removal
	g.Relate(Relation{Parent: User, Child: Project, Column: "owner_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Membership, Column: "user_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Invitation, Column: "invited_by_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Invitation, Column: "invited_user_id", Policy: Nullify}).
		Relate(Relation{Parent: User, Child: Task, Column: "created_by_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: TaskAssignee, Column: "user_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Comment, Column: "author_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Attachment, Column: "uploaded_by_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Activity, Column: "user_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Notification, Column: "recipient_id", Policy: Cascade}).
		Relate(Relation{Parent: User, Child: Notification, Column: "sender_id", Policy: Nullify}).
		Relate(Relation{Parent: User, Child: Preference, Column: "user_id", Policy: Cascade})

	return g
}
