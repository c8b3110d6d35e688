package entities

import (
	"fmt"
	"time"
)

// Severity is the triage tier assigned by the paramedic at intake
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityModerate Severity = "moderate"
	SeverityStable   Severity = "stable"
)

// ParseSeverity validates a raw severity string
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityModerate, SeverityStable:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// CaseStatus tracks a patient case through the receiving hospital's workflow
type CaseStatus string

const (
	CaseStatusSent      CaseStatus = "sent"
	CaseStatusAccepted  CaseStatus = "accepted"
	CaseStatusCompleted CaseStatus = "completed"
)

// CanTransitionTo enforces the sent -> accepted -> completed progression
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	switch s {
	case CaseStatusSent:
		return next == CaseStatusAccepted
	case CaseStatusAccepted:
		return next == CaseStatusCompleted
	default:
		return false
	}
}

// PatientCase is an emergency case submitted by a paramedic. The clinical
// fields are immutable after creation; only Status changes as the hospital
// works the case.
type PatientCase struct {
	ID             string     `json:"id"`
	Department     string     `json:"department"`
	Condition      string     `json:"condition"`
	Severity       Severity   `json:"severity"`
	Location       Coordinate `json:"location"`
	IsGoldenHour   bool       `json:"is_golden_hour"`
	ParamedicEmail string     `json:"paramedic_email,omitempty"`
	Status         CaseStatus `json:"status"`
	SentAt         time.Time  `json:"sent_at"`
}

// Validate checks the fields required before a case can be submitted
func (c *PatientCase) Validate() error {
	if c.Department == "" {
		return fmt.Errorf("department is required")
	}
	if !IsKnownDepartment(c.Department) {
		return fmt.Errorf("unknown department %q", c.Department)
	}
	if c.Condition == "" {
		return fmt.Errorf("condition is required")
	}
	if _, err := ParseSeverity(string(c.Severity)); err != nil {
		return err
	}
	return c.Location.Validate()
}
