package database

import (
	"time"
)

type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Username           string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	FullName           string     `gorm:"not null" json:"full_name"`
	Role               string     `gorm:"size:32;not null" json:"role"`
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"must_change_password"`
	LastLogin          *time.Time `json:"last_login"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Case is one recorded cybercrime incident. CaseID and UUID never change once assigned.
type Case struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CaseID         string    `gorm:"uniqueIndex;size:32;not null" json:"case_id"`
	UUID           string    `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Title          string    `gorm:"not null" json:"title"`
	CrimeType      string    `gorm:"index;size:64;not null" json:"crime_type"`
	IncidentDate   string    `gorm:"index;size:10" json:"incident_date"` // YYYY-MM-DD
	Location       string    `json:"location"`
	VictimName     string    `json:"victim_name"`
	VictimContact  string    `json:"victim_contact"`
	SuspectName    string    `json:"suspect_name"`
	SuspectDetails string    `gorm:"type:text" json:"suspect_details"`
	Description    string    `gorm:"type:text" json:"description"`
	Evidence       string    `gorm:"type:text" json:"evidence"`
	Priority       string    `gorm:"size:16;not null" json:"priority"`
	Status         string    `gorm:"index;size:32;not null" json:"status"`
	CreatedBy      string    `gorm:"size:64;not null" json:"created_by"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ActivityLog is append-only.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"index;size:64" json:"username"`
	Action    string    `gorm:"index;size:32" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "activity_log" }

// CaseSequence holds the last case number handed out for a calendar year.
type CaseSequence struct {
	Year      int `gorm:"primaryKey;autoIncrement:false"`
	LastValue int `gorm:"not null"`
}

// CategoryCount is one (key, count) pair of a grouped query.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TrendPoint is the number of cases created on one UTC day.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Statistics struct {
	TotalCases    int64 `json:"total_cases"`
	PendingCases  int64 `json:"pending_cases"`
	ResolvedCases int64 `json:"resolved_cases"`
	ActiveUsers   int64 `json:"active_users"`
}
