package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StudentNo string         `gorm:"uniqueIndex;size:20;not null" json:"student_no"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'STUDENT'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Platform roles
const (
	RoleStudent = "STUDENT"
	RoleBoard   = "BOARD"
	RoleAdmin   = "ADMIN"
)

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	StudentNo string    `json:"student_no"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	FullName  string    `json:"full_name,omitempty"`
	Course    string    `json:"course,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		StudentNo: u.StudentNo,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// StudentRecord represents the campus registry table (Read Only!)
type StudentRecord struct {
	StudentNo string `gorm:"column:student_no;primaryKey" json:"student_no"`
	FullName  string `gorm:"column:full_name" json:"full_name"`
	Email     string `gorm:"column:email" json:"email"`
	Course    string `gorm:"column:course" json:"course"`
	Status    string `gorm:"column:status" json:"status"`
}

func (StudentRecord) TableName() string {
	return "campus_students"
}

// ============================================================
// Organization Tables
// ============================================================

// Organization represents organizations table
type Organization struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	LogoURL     string         `gorm:"size:255" json:"logo_url"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Role represents org_roles table (per-organization role set)
type Role struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;uniqueIndex:idx_roles_org_name" json:"organization_id"`
	Name           string    `gorm:"size:50;not null;uniqueIndex:idx_roles_org_name" json:"name"`
	Hierarchy      int       `gorm:"not null;default:1" json:"hierarchy"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Role) TableName() string {
	return "org_roles"
}

// DefaultRoleName is the well-known role new members receive.
// Every organization must carry a role with this name.
const DefaultRoleName = "Member"

// Membership represents memberships table.
// The unique index over (user_id, organization_id) guarantees at most
// one row per pair; rejoining reactivates the existing row in place.
type Membership struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_memberships_user_org" json:"user_id"`
	OrganizationID uint       `gorm:"not null;index;uniqueIndex:idx_memberships_user_org" json:"organization_id"`
	RoleID         uint       `gorm:"not null" json:"role_id"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	JoinedAt       time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt         *time.Time `json:"left_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Role         *Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (Membership) TableName() string {
	return "memberships"
}

// MembershipResponse DTO
type MembershipResponse struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"user_id"`
	OrganizationID uint       `json:"organization_id"`
	Username       string     `json:"username,omitempty"`
	StudentNo      string     `json:"student_no,omitempty"`
	RoleName       string     `json:"role_name,omitempty"`
	IsActive       bool       `json:"is_active"`
	JoinedAt       time.Time  `json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`
}

func (m *Membership) ToResponse() *MembershipResponse {
	resp := &MembershipResponse{
		ID:             m.ID,
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		IsActive:       m.IsActive,
		JoinedAt:       m.JoinedAt,
		LeftAt:         m.LeftAt,
	}

	if m.User != nil {
		resp.Username = m.User.Username
		resp.StudentNo = m.User.StudentNo
	}
	if m.Role != nil {
		resp.RoleName = m.Role.Name
	}

	return resp
}

// ============================================================
// Selection Pipeline Tables
// ============================================================

// Phase represents selection_phases table (ordered per organization).
// PhaseOrder values may have gaps; ordering is by value, not adjacency.
type Phase struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	OrganizationID uint           `gorm:"not null;uniqueIndex:idx_phases_org_order" json:"organization_id"`
	Name           string         `gorm:"size:100;not null" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	PhaseOrder     int            `gorm:"not null;uniqueIndex:idx_phases_org_order" json:"phase_order"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Phase) TableName() string {
	return "selection_phases"
}

// Candidacy represents candidacies table (one per applicant per organization).
// Applicant name/email/course are snapshots taken at application time so the
// pipeline view survives registry lookups going away.
type Candidacy struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	OrganizationID  uint       `gorm:"not null;index;uniqueIndex:idx_candidacies_applicant_org" json:"organization_id"`
	ApplicantID     uint       `gorm:"not null;uniqueIndex:idx_candidacies_applicant_org" json:"applicant_id"`
	ApplicantName   string     `gorm:"size:120" json:"applicant_name"`
	ApplicantEmail  string     `gorm:"size:120" json:"applicant_email"`
	ApplicantCourse string     `gorm:"size:120" json:"applicant_course"`
	OverallStatus   string     `gorm:"size:20;not null;default:'pending';index" json:"overall_status"`
	DecidedBy       *uint      `json:"decided_by"`
	DecidedAt       *time.Time `json:"decided_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Organization *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Applicant    *User          `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Attempts     []PhaseAttempt `gorm:"foreignKey:CandidacyID" json:"attempts,omitempty"`
}

func (Candidacy) TableName() string {
	return "candidacies"
}

// Candidacy overall statuses
const (
	CandidacyStatusPending  = "pending"
	CandidacyStatusApproved = "approved"
	CandidacyStatusRejected = "rejected"
)

func (c *Candidacy) IsFinalized() bool {
	return c.OverallStatus != CandidacyStatusPending
}

// PhaseAttempt represents phase_attempts table.
// Seq is a per-candidacy monotonic counter; the current attempt is the one
// with the highest Seq. Terminal attempts are never updated again.
type PhaseAttempt struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CandidacyID uint           `gorm:"not null;uniqueIndex:idx_attempts_candidacy_seq;uniqueIndex:idx_attempts_candidacy_phase" json:"candidacy_id"`
	PhaseID     uint           `gorm:"not null;index;uniqueIndex:idx_attempts_candidacy_phase" json:"phase_id"`
	Seq         int            `gorm:"not null;uniqueIndex:idx_attempts_candidacy_seq" json:"seq"`
	Status      string         `gorm:"size:20;not null;default:'pending'" json:"status"`
	Answers     datatypes.JSON `gorm:"type:json" json:"answers,omitempty"`
	Feedback    datatypes.JSON `gorm:"type:json" json:"feedback,omitempty"`
	DecidedBy   *uint          `json:"decided_by"`
	DecidedAt   *time.Time     `json:"decided_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Candidacy *Candidacy `gorm:"foreignKey:CandidacyID" json:"-"`
	Phase     *Phase     `gorm:"foreignKey:PhaseID" json:"phase,omitempty"`
}

func (PhaseAttempt) TableName() string {
	return "phase_attempts"
}

// Attempt statuses
const (
	AttemptStatusPending  = "pending"
	AttemptStatusApproved = "approved"
	AttemptStatusRejected = "rejected"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for application tables only.
// The campus_students registry table is owned by the campus system
// and must never be migrated from here.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth
		&User{},
		&RefreshToken{},
		// Organizations
		&Organization{},
		&Role{},
		&Membership{},
		// Selection pipeline
		&Phase{},
		&Candidacy{},
		&PhaseAttempt{},
		// Facilities
		&Room{},
		&Reservation{},
	)
}
