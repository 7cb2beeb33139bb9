package views

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cybercase/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() database.Case {
	return database.Case{
		CaseID:        "CYB-2024-0001",
		Title:         "Phishing wave",
		CrimeType:     "Phishing",
		IncidentDate:  "2024-03-01",
		Location:      "Remote",
		VictimName:    "Acme",
		VictimContact: "ops@acme.test",
		SuspectName:   "unknown",
		Description:   "bulk mail",
		Priority:      "High",
		Status:        "Pending",
		CreatedAt:     time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

// keys returns the JSON object keys of v in encoding order.
func keys(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	var out []string
	_, err = dec.Token()
	require.NoError(t, err)
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		out = append(out, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return out
}

func TestViews_FieldOrder(t *testing.T) {
	c := sample()

	assert.Equal(t, []string{"case_id", "title", "crime_type", "status", "priority", "created_at"},
		keys(t, Recent([]database.Case{c})[0]))
	assert.Equal(t, []string{"case_id", "title", "crime_type", "incident_date", "location", "status", "priority", "created_at"},
		keys(t, List([]database.Case{c})[0]))
	assert.Equal(t, []string{"case_id", "title", "crime_type", "incident_date", "victim_name", "status", "priority"},
		keys(t, Search([]database.Case{c})[0]))

	u := database.User{ID: 1, Username: "admin", FullName: "System Administrator", Role: "Admin", PasswordHash: "x"}
	assert.Equal(t, []string{"id", "username", "full_name", "role", "created_at", "last_login"},
		keys(t, Users([]database.User{u})[0]))
}

func TestViews_EmptyInputEncodesAsArray(t *testing.T) {
	raw, err := json.Marshal(List(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
