package models

import (
	"time"
)

/* =============================== Enums ================================== */

// Role defines the type of user in the system.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAgency  Role = "agency"
	RoleAdmin   Role = "admin"
)

// ComplaintStatus defines lifecycle states for a complaint.
type ComplaintStatus string

const (
	StatusPending  ComplaintStatus = "pending"
	StatusInReview ComplaintStatus = "in_review"
	StatusResolved ComplaintStatus = "resolved"
)

// Priority defines how urgent a complaint is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// UpdateType classifies entries on a complaint's update trail.
type UpdateType string

const (
	UpdateStatusChange UpdateType = "status_change"
	UpdateAssignment   UpdateType = "assignment"
	UpdateComment      UpdateType = "comment"
	UpdateResolution   UpdateType = "resolution"
)

/* =============================== Entities =============================== */

// User represents a citizen, an agency member, or an admin.
// AgencyID is set only for agency users.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Fullname       string    `gorm:"not null" json:"fullname"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Role           Role      `gorm:"type:varchar(20);not null;default:'citizen'" json:"role"`
	AgencyID       *uint     `json:"agency_id,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Agency is an organizational unit complaints get assigned to.
type Agency struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Complaint is the central entity: submitted by a citizen, assigned to an
// agency by an admin, resolved by the agency.
type Complaint struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	TrackingNumber   string          `gorm:"uniqueIndex;not null" json:"tracking_number"`
	Title            string          `gorm:"not null" json:"title"`
	Description      string          `gorm:"not null" json:"description"`
	Category         string          `json:"category"`
	Priority         Priority        `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	Location         string          `json:"location"`
	AffectedArea     string          `json:"affected_area"`
	Status           ComplaintStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AssignedAgencyID *uint           `gorm:"index" json:"assigned_agency_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relations
	Files   []ComplaintFile   `gorm:"constraint:OnDelete:CASCADE" json:"files,omitempty"`
	Updates []ComplaintUpdate `gorm:"constraint:OnDelete:CASCADE" json:"updates,omitempty"`
}

// ComplaintFile is an attachment uploaded with a complaint.
type ComplaintFile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;index" json:"complaint_id"`
	FilePath    string    `gorm:"not null" json:"file_path"`
	FileName    string    `gorm:"not null" json:"file_name"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// ComplaintUpdate is an append-only audit/comment entry on a complaint.
// UserID is nil for system-generated entries.
type ComplaintUpdate struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ComplaintID uint       `gorm:"not null;index" json:"complaint_id"`
	UserID      *uint      `json:"user_id,omitempty"`
	UpdateType  UpdateType `gorm:"type:varchar(20);not null" json:"update_type"`
	OldValue    string     `json:"old_value,omitempty"`
	NewValue    string     `json:"new_value,omitempty"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ForumDiscussion is a community forum post.
type ForumDiscussion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"not null" json:"content"`
	Category   string    `gorm:"type:varchar(30);default:'general'" json:"category"`
	IsFeatured bool      `gorm:"default:false" json:"is_featured"`
	Views      int       `gorm:"default:0" json:"views"`
	Votes      int       `gorm:"default:0" json:"votes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Comments []ForumComment `gorm:"foreignKey:DiscussionID;constraint:OnDelete:CASCADE" json:"-"`
}

// ForumComment is a root comment (nil parent) or a one-level reply.
type ForumComment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DiscussionID    uint      `gorm:"not null;index" json:"discussion_id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Content         string    `gorm:"not null" json:"content"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Replies []ForumComment `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:CASCADE" json:"-"`
}

// ForumVote records one vote per user per discussion; the unique pair makes
// the toggle idempotent under concurrent requests.
type ForumVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;uniqueIndex:ux_vote_discussion_user" json:"discussion_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:ux_vote_discussion_user" json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// SuccessStory is curated homepage testimonial content.
type SuccessStory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         *uint     `json:"user_id,omitempty"`
	AuthorName     string    `json:"author_name"`
	AuthorRole     string    `json:"author_role"`
	AuthorAvatar   string    `json:"author_avatar"`
	Testimonial    string    `gorm:"not null" json:"testimonial"`
	ComplaintID    *uint     `json:"complaint_id,omitempty"`
	ResolutionDays *int      `json:"resolution_days,omitempty"`
	BeforeImage    string    `json:"before_image,omitempty"`
	AfterImage     string    `json:"after_image,omitempty"`
	IsFeatured     bool      `gorm:"default:false" json:"is_featured"`
	DisplayOrder   int       `gorm:"default:0" json:"display_order"`
	CreatedAt      time.Time `json:"created_at"`
}

// SatisfactionRating is optional post-resolution feedback (1-5 scale). Read
// by the public stats endpoint; there is no write endpoint yet.
type SatisfactionRating struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;index" json:"complaint_id"`
	UserID      uint      `gorm:"not null" json:"user_id"`
	Rating      int       `gorm:"not null" json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrackingCounter backs the per-year tracking number sequence. It is only
// ever touched with an atomic upsert (INSERT .. ON CONFLICT .. RETURNING),
// so concurrent submissions never share a number.
type TrackingCounter struct {
	Year  int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}
