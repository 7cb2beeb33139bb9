// Package views shapes stored rows into the fixed-column records the API
// returns for each listing.
package views

import (
	"time"

	"cybercase/internal/database"
)

// RecentCase is a dashboard row.
type RecentCase struct {
	CaseID    string    `json:"case_id"`
	Title     string    `json:"title"`
	CrimeType string    `json:"crime_type"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// ListCase is a row of the case list.
type ListCase struct {
	CaseID       string    `json:"case_id"`
	Title        string    `json:"title"`
	CrimeType    string    `json:"crime_type"`
	IncidentDate string    `json:"incident_date"`
	Location     string    `json:"location"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
}

// SearchCase is a row of search results.
type SearchCase struct {
	CaseID       string `json:"case_id"`
	Title        string `json:"title"`
	CrimeType    string `json:"crime_type"`
	IncidentDate string `json:"incident_date"`
	VictimName   string `json:"victim_name"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
}

// UserRow is a row of the user list. Hashes and flags never leave the store.
type UserRow struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

func Recent(cases []database.Case) []RecentCase {
	out := make([]RecentCase, 0, len(cases))
	for _, c := range cases {
		out = append(out, RecentCase{
			CaseID:    c.CaseID,
			Title:     c.Title,
			CrimeType: c.CrimeType,
			Status:    c.Status,
			Priority:  c.Priority,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

func List(cases []database.Case) []ListCase {
	out := make([]ListCase, 0, len(cases))
	for _, c := range cases {
		out = append(out, ListCase{
			CaseID:       c.CaseID,
			Title:        c.Title,
			CrimeType:    c.CrimeType,
			IncidentDate: c.IncidentDate,
			Location:     c.Location,
			Status:       c.Status,
			Priority:     c.Priority,
			CreatedAt:    c.CreatedAt,
		})
	}
	return out
}

func Search(cases []database.Case) []SearchCase {
	out := make([]SearchCase, 0, len(cases))
	for _, c := range cases {
		out = append(out, SearchCase{
			CaseID:       c.CaseID,
			Title:        c.Title,
			CrimeType:    c.CrimeType,
			IncidentDate: c.IncidentDate,
			VictimName:   c.VictimName,
			Status:       c.Status,
			Priority:     c.Priority,
		})
	}
	return out
}

func Users(users []database.User) []UserRow {
	out := make([]UserRow, 0, len(users))
	for _, u := range users {
		out = append(out, UserRow{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			LastLogin: u.LastLogin,
		})
	}
	return out
}
