package models

import "strings"

// LeadStatus is the single status vocabulary of the sales pipeline.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusContacted   LeadStatus = "CONTACTED"
	LeadStatusQualified   LeadStatus = "QUALIFIED"
	LeadStatusProposal    LeadStatus = "PROPOSAL"
	LeadStatusNegotiation LeadStatus = "NEGOTIATION"
	LeadStatusWon         LeadStatus = "WON"
	LeadStatusLost        LeadStatus = "LOST"
)

// InitialLeadStatus is assigned to every newly created lead.
const InitialLeadStatus = LeadStatusNew

var allLeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusProposal,
	LeadStatusNegotiation,
	LeadStatusWon,
	LeadStatusLost,
}

// AllLeadStatuses returns the statuses in pipeline order.
func AllLeadStatuses() []LeadStatus {
	out := make([]LeadStatus, len(allLeadStatuses))
	copy(out, allLeadStatuses)
	return out
}

func (s LeadStatus) IsValid() bool {
	for _, v := range allLeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the lead is closed in this status.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

func (s LeadStatus) String() string {
	return string(s)
}

// ParseLeadStatus accepts any casing and surrounding whitespace.
func ParseLeadStatus(raw string) (LeadStatus, bool) {
	s := LeadStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", false
	}
	return s, true
}
