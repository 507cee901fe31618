package services

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User Statistics
	TotalUsers    int64 `json:"total_users"`
	TotalAdmins   int64 `json:"total_admins"`
	TotalBoard    int64 `json:"total_board"`
	TotalStudents int64 `json:"total_students"`

	// Organization Statistics
	TotalOrganizations  int64 `json:"total_organizations"`
	ActiveOrganizations int64 `json:"active_organizations"`
	TotalMemberships    int64 `json:"total_memberships"`

	// Pipeline Statistics
	TotalCandidacies    int64 `json:"total_candidacies"`
	PendingCandidacies  int64 `json:"pending_candidacies"`
	ApprovedCandidacies int64 `json:"approved_candidacies"`
	RejectedCandidacies int64 `json:"rejected_candidacies"`

	// Monthly Statistics
	CandidaciesThisMonth int64 `json:"candidacies_this_month"`
	MembersThisMonth     int64 `json:"members_this_month"`

	// Recent Activity
	RecentCandidacies []CandidacySummary `json:"recent_candidacies"`

	// Busiest Organizations
	TopOrganizations []OrganizationStats `json:"top_organizations"`
}

// CandidacySummary represents candidacy summary
type CandidacySummary struct {
	ID               uint      `json:"id"`
	ApplicantName    string    `json:"applicant_name"`
	OrganizationName string    `json:"organization_name"`
	OverallStatus    string    `json:"overall_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// OrganizationStats represents per-organization pipeline statistics
type OrganizationStats struct {
	OrganizationID uint   `json:"organization_id"`
	Name           string `json:"name"`
	TotalApplied   int64  `json:"total_applied"`
	Approved       int64  `json:"approved"`
	Rejected       int64  `json:"rejected"`
	Pending        int64  `json:"pending"`
	ActiveMembers  int64  `json:"active_members"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	// User counts by role
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalUsers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "ADMIN").Count(&data.TotalAdmins)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "BOARD").Count(&data.TotalBoard)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "STUDENT").Count(&data.TotalStudents)

	// Organization counts
	s.db.WithContext(ctx).Table("organizations").Where("deleted_at IS NULL").Count(&data.TotalOrganizations)
	s.db.WithContext(ctx).Table("organizations").Where("is_active = ? AND deleted_at IS NULL", true).Count(&data.ActiveOrganizations)
	s.db.WithContext(ctx).Table("memberships").Where("is_active = ?", true).Count(&data.TotalMemberships)

	// Candidacy counts by status
	s.db.WithContext(ctx).Table("candidacies").Count(&data.TotalCandidacies)
	s.db.WithContext(ctx).Table("candidacies").Where("overall_status = ?", "pending").Count(&data.PendingCandidacies)
	s.db.WithContext(ctx).Table("candidacies").Where("overall_status = ?", "approved").Count(&data.ApprovedCandidacies)
	s.db.WithContext(ctx).Table("candidacies").Where("overall_status = ?", "rejected").Count(&data.RejectedCandidacies)

	// This month statistics
	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("candidacies").
		Where("created_at >= ?", startOfMonth).
		Count(&data.CandidaciesThisMonth)

	s.db.WithContext(ctx).Table("memberships").
		Where("joined_at >= ? AND is_active = ?", startOfMonth, true).
		Count(&data.MembersThisMonth)

	// Recent candidacies
	var recent []struct {
		ID               uint
		ApplicantName    string
		OrganizationName string
		OverallStatus    string
		CreatedAt        time.Time
	}
	s.db.WithContext(ctx).Table("candidacies").
		Select("candidacies.id, candidacies.applicant_name, organizations.name as organization_name, candidacies.overall_status, candidacies.created_at").
		Joins("LEFT JOIN organizations ON candidacies.organization_id = organizations.id").
		Order("candidacies.created_at DESC").
		Limit(10).
		Scan(&recent)

	data.RecentCandidacies = make([]CandidacySummary, len(recent))
	for i, c := range recent {
		data.RecentCandidacies[i] = CandidacySummary{
			ID:               c.ID,
			ApplicantName:    c.ApplicantName,
			OrganizationName: c.OrganizationName,
			OverallStatus:    c.OverallStatus,
			CreatedAt:        c.CreatedAt,
		}
	}

	// Busiest organizations by application volume
	var top []struct {
		OrganizationID uint
		Name           string
		TotalApplied   int64
		Approved       int64
		Rejected       int64
		Pending        int64
	}
	s.db.WithContext(ctx).Table("candidacies").
		Select(`
			candidacies.organization_id,
			organizations.name,
			COUNT(*) as total_applied,
			SUM(CASE WHEN candidacies.overall_status = 'approved' THEN 1 ELSE 0 END) as approved,
			SUM(CASE WHEN candidacies.overall_status = 'rejected' THEN 1 ELSE 0 END) as rejected,
			SUM(CASE WHEN candidacies.overall_status = 'pending' THEN 1 ELSE 0 END) as pending
		`).
		Joins("LEFT JOIN organizations ON candidacies.organization_id = organizations.id").
		Group("candidacies.organization_id, organizations.name").
		Order("total_applied DESC").
		Limit(5).
		Scan(&top)

	data.TopOrganizations = make([]OrganizationStats, len(top))
	for i, o := range top {
		stats := OrganizationStats{
			OrganizationID: o.OrganizationID,
			Name:           o.Name,
			TotalApplied:   o.TotalApplied,
			Approved:       o.Approved,
			Rejected:       o.Rejected,
			Pending:        o.Pending,
		}
		s.db.WithContext(ctx).Table("memberships").
			Where("organization_id = ? AND is_active = ?", o.OrganizationID, true).
			Count(&stats.ActiveMembers)
		data.TopOrganizations[i] = stats
	}

	return data, nil
}

// ============================================================
// Board Dashboard
// ============================================================

// BoardDashboardData represents the per-organization board dashboard
type BoardDashboardData struct {
	OrganizationID uint `json:"organization_id"`

	// Pipeline Summary
	PendingCandidacies  int64 `json:"pending_candidacies"`
	ApprovedCandidacies int64 `json:"approved_candidacies"`
	RejectedCandidacies int64 `json:"rejected_candidacies"`
	ActiveMembers       int64 `json:"active_members"`

	// Per-phase pending attempt counts
	PhaseLoad []PhaseLoadInfo `json:"phase_load"`

	// Oldest waiting candidates
	WaitingLongest []CandidacySummary `json:"waiting_longest"`
}

// PhaseLoadInfo represents pending attempts waiting in one phase
type PhaseLoadInfo struct {
	PhaseID    uint   `json:"phase_id"`
	PhaseName  string `json:"phase_name"`
	PhaseOrder int    `json:"phase_order"`
	Waiting    int64  `json:"waiting"`
}

// GetBoardDashboard returns board dashboard data for one organization
func (s *DashboardService) GetBoardDashboard(ctx context.Context, orgID uint) (*BoardDashboardData, error) {
	data := &BoardDashboardData{OrganizationID: orgID}

	s.db.WithContext(ctx).Table("candidacies").
		Where("organization_id = ? AND overall_status = ?", orgID, "pending").
		Count(&data.PendingCandidacies)
	s.db.WithContext(ctx).Table("candidacies").
		Where("organization_id = ? AND overall_status = ?", orgID, "approved").
		Count(&data.ApprovedCandidacies)
	s.db.WithContext(ctx).Table("candidacies").
		Where("organization_id = ? AND overall_status = ?", orgID, "rejected").
		Count(&data.RejectedCandidacies)
	s.db.WithContext(ctx).Table("memberships").
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Count(&data.ActiveMembers)

	// Pending attempts per phase
	var load []struct {
		PhaseID    uint
		PhaseName  string
		PhaseOrder int
		Waiting    int64
	}
	s.db.WithContext(ctx).Table("phase_attempts").
		Select("selection_phases.id as phase_id, selection_phases.name as phase_name, selection_phases.phase_order, COUNT(*) as waiting").
		Joins("JOIN selection_phases ON phase_attempts.phase_id = selection_phases.id").
		Where("selection_phases.organization_id = ? AND phase_attempts.status = ?", orgID, "pending").
		Group("selection_phases.id, selection_phases.name, selection_phases.phase_order").
		Order("selection_phases.phase_order ASC").
		Scan(&load)

	data.PhaseLoad = make([]PhaseLoadInfo, len(load))
	for i, l := range load {
		data.PhaseLoad[i] = PhaseLoadInfo{
			PhaseID:    l.PhaseID,
			PhaseName:  l.PhaseName,
			PhaseOrder: l.PhaseOrder,
			Waiting:    l.Waiting,
		}
	}

	// Oldest pending candidacies
	var waiting []struct {
		ID               uint
		ApplicantName    string
		OrganizationName string
		OverallStatus    string
		CreatedAt        time.Time
	}
	s.db.WithContext(ctx).Table("candidacies").
		Select("candidacies.id, candidacies.applicant_name, organizations.name as organization_name, candidacies.overall_status, candidacies.created_at").
		Joins("LEFT JOIN organizations ON candidacies.organization_id = organizations.id").
		Where("candidacies.organization_id = ? AND candidacies.overall_status = ?", orgID, "pending").
		Order("candidacies.created_at ASC").
		Limit(10).
		Scan(&waiting)

	data.WaitingLongest = make([]CandidacySummary, len(waiting))
	for i, c := range waiting {
		data.WaitingLongest[i] = CandidacySummary{
			ID:               c.ID,
			ApplicantName:    c.ApplicantName,
			OrganizationName: c.OrganizationName,
			OverallStatus:    c.OverallStatus,
			CreatedAt:        c.CreatedAt,
		}
	}

	return data, nil
}

// ============================================================
// Student Dashboard
// ============================================================

// StudentDashboardData represents student dashboard data
type StudentDashboardData struct {
	// My Applications
	TotalApplications    int64 `json:"total_applications"`
	PendingApplications  int64 `json:"pending_applications"`
	ApprovedApplications int64 `json:"approved_applications"`
	RejectedApplications int64 `json:"rejected_applications"`

	// My Applications List
	Applications []StudentApplicationInfo `json:"applications"`

	// My Memberships
	Memberships []StudentMembershipInfo `json:"memberships"`
}

// StudentApplicationInfo represents one of the student's applications
type StudentApplicationInfo struct {
	ID               uint       `json:"id"`
	OrganizationName string     `json:"organization_name"`
	OverallStatus    string     `json:"overall_status"`
	CurrentPhase     string     `json:"current_phase"`
	CreatedAt        time.Time  `json:"created_at"`
	DecidedAt        *time.Time `json:"decided_at"`
}

// StudentMembershipInfo represents one of the student's memberships
type StudentMembershipInfo struct {
	OrganizationID   uint      `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	RoleName         string    `json:"role_name"`
	JoinedAt         time.Time `json:"joined_at"`
}

// GetStudentDashboard returns student dashboard data
func (s *DashboardService) GetStudentDashboard(ctx context.Context, userID uint) (*StudentDashboardData, error) {
	data := &StudentDashboardData{}

	s.db.WithContext(ctx).Table("candidacies").
		Where("applicant_id = ?", userID).
		Count(&data.TotalApplications)
	s.db.WithContext(ctx).Table("candidacies").
		Where("applicant_id = ? AND overall_status = ?", userID, "pending").
		Count(&data.PendingApplications)
	s.db.WithContext(ctx).Table("candidacies").
		Where("applicant_id = ? AND overall_status = ?", userID, "approved").
		Count(&data.ApprovedApplications)
	s.db.WithContext(ctx).Table("candidacies").
		Where("applicant_id = ? AND overall_status = ?", userID, "rejected").
		Count(&data.RejectedApplications)

	// My applications with the phase of the latest attempt
	var applications []struct {
		ID               uint
		OrganizationName string
		OverallStatus    string
		CurrentPhase     string
		CreatedAt        time.Time
		DecidedAt        *time.Time
	}
	s.db.WithContext(ctx).Table("candidacies").
		Select(`
			candidacies.id,
			organizations.name as organization_name,
			candidacies.overall_status,
			COALESCE(selection_phases.name, '') as current_phase,
			candidacies.created_at,
			candidacies.decided_at
		`).
		Joins("LEFT JOIN organizations ON candidacies.organization_id = organizations.id").
		Joins(`LEFT JOIN phase_attempts ON phase_attempts.candidacy_id = candidacies.id
			AND phase_attempts.seq = (SELECT MAX(pa.seq) FROM phase_attempts pa WHERE pa.candidacy_id = candidacies.id)`).
		Joins("LEFT JOIN selection_phases ON phase_attempts.phase_id = selection_phases.id").
		Where("candidacies.applicant_id = ?", userID).
		Order("candidacies.created_at DESC").
		Scan(&applications)

	data.Applications = make([]StudentApplicationInfo, len(applications))
	for i, a := range applications {
		data.Applications[i] = StudentApplicationInfo{
			ID:               a.ID,
			OrganizationName: a.OrganizationName,
			OverallStatus:    a.OverallStatus,
			CurrentPhase:     a.CurrentPhase,
			CreatedAt:        a.CreatedAt,
			DecidedAt:        a.DecidedAt,
		}
	}

	// My memberships
	var memberships []struct {
		OrganizationID   uint
		OrganizationName string
		RoleName         string
		JoinedAt         time.Time
	}
	s.db.WithContext(ctx).Table("memberships").
		Select("memberships.organization_id, organizations.name as organization_name, org_roles.name as role_name, memberships.joined_at").
		Joins("LEFT JOIN organizations ON memberships.organization_id = organizations.id").
		Joins("LEFT JOIN org_roles ON memberships.role_id = org_roles.id").
		Where("memberships.user_id = ? AND memberships.is_active = ?", userID, true).
		Order("memberships.joined_at DESC").
		Scan(&memberships)

	data.Memberships = make([]StudentMembershipInfo, len(memberships))
	for i, m := range memberships {
		data.Memberships[i] = StudentMembershipInfo{
			OrganizationID:   m.OrganizationID,
			OrganizationName: m.OrganizationName,
			RoleName:         m.RoleName,
			JoinedAt:         m.JoinedAt,
		}
	}

	return data, nil
}
