package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeadStatus(t *testing.T) {
	tests := []struct {
		in   string
		want LeadStatus
		ok   bool
	}{
		{"NEW", LeadStatusNew, true},
		{" contacted ", LeadStatusContacted, true},
		{"won", LeadStatusWon, true},
		{"IN_PROGRESS", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLeadStatus(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLeadStatusTerminal(t *testing.T) {
	for _, s := range AllLeadStatuses() {
		assert.Equal(t, s == LeadStatusWon || s == LeadStatusLost, s.IsTerminal(), s)
	}
	assert.Equal(t, LeadStatusNew, InitialLeadStatus)
	assert.False(t, InitialLeadStatus.IsTerminal())
}

func TestLeadApplyStatus_TimestampLifecycle(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lead := &Lead{Status: LeadStatusNew}

	lead.ApplyStatus(LeadStatusContacted, t0)
	require.NotNil(t, lead.ContactedAt)
	assert.Equal(t, t0, *lead.ContactedAt)
	assert.Nil(t, lead.ClosedAt)

	// a second in-flight move keeps the first contact time
	lead.ApplyStatus(LeadStatusProposal, t0.Add(time.Hour))
	assert.Equal(t, t0, *lead.ContactedAt)

	closedAt := t0.Add(2 * time.Hour)
	lead.ApplyStatus(LeadStatusWon, closedAt)
	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, closedAt, *lead.ClosedAt)
	assert.True(t, lead.IsClosed())

	// reopening clears the closing time but never the contact time
	lead.ApplyStatus(LeadStatusNegotiation, t0.Add(3*time.Hour))
	assert.Nil(t, lead.ClosedAt)
	assert.Equal(t, t0, *lead.ContactedAt)
	assert.Equal(t, LeadStatusNegotiation, lead.Status)
}

func TestLeadApplyStatus_StayingNewDoesNotMarkContacted(t *testing.T) {
	lead := &Lead{Status: LeadStatusNew}
	lead.ApplyStatus(LeadStatusNew, time.Now())
	assert.Nil(t, lead.ContactedAt)
	assert.Nil(t, lead.ClosedAt)
}

func TestLeadApplyStatus_DirectlyToTerminal(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lead := &Lead{Status: LeadStatusNew}
	lead.ApplyStatus(LeadStatusLost, now)
	require.NotNil(t, lead.ContactedAt)
	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, now, *lead.ClosedAt)
}

func TestLeadApplyStatus_ClosedAtKeptWhileClosed(t *testing.T) {
	closedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lead := &Lead{Status: LeadStatusNew}
	lead.ApplyStatus(LeadStatusWon, closedAt)

	lead.ApplyStatus(LeadStatusWon, closedAt.Add(time.Hour))
	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, closedAt, *lead.ClosedAt)

	lead.ApplyStatus(LeadStatusLost, closedAt.Add(2*time.Hour))
	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, closedAt, *lead.ClosedAt)
	assert.Equal(t, LeadStatusLost, lead.Status)

	// closed again after a reopen gets a fresh time
	lead.ApplyStatus(LeadStatusNegotiation, closedAt.Add(3*time.Hour))
	lead.ApplyStatus(LeadStatusWon, closedAt.Add(4*time.Hour))
	assert.Equal(t, closedAt.Add(4*time.Hour), *lead.ClosedAt)
}

func TestAuditLogDetailsMap(t *testing.T) {
	entry := AuditLog{Details: `{"oldStatus":"NEW","newStatus":"WON"}`}
	assert.Equal(t, "WON", entry.DetailsMap()["newStatus"])

	broken := AuditLog{Details: "{not json"}
	assert.Empty(t, broken.DetailsMap())
}
