package types

import "fmt"

// RuleKind identifies a recurring proactive rule
type RuleKind string

const (
	RuleMorningStandup     RuleKind = "morning_standup"
	RulePreMeetingBriefing RuleKind = "pre_meeting_briefing"
	RuleEndOfDayCheckin    RuleKind = "eod_checkin"
	RuleWeeklyRetro        RuleKind = "weekly_retro"

	// RuleEventDedup and RuleCarryOver are internal ledger kinds. They never
	// fire on the clock; they reuse the claim mechanism to make webhook event
	// processing and daily carry-over at-most-once.
	RuleEventDedup RuleKind = "event_dedup"
	RuleCarryOver  RuleKind = "carry_over"
)

// ScheduledRuleKinds returns the rule kinds driven by the trigger clock
func ScheduledRuleKinds() []RuleKind {
	return []RuleKind{
		RuleMorningStandup,
		RulePreMeetingBriefing,
		RuleEndOfDayCheckin,
		RuleWeeklyRetro,
	}
}

// IsValid checks if the rule kind is valid
func (k RuleKind) IsValid() bool {
	switch k {
	case RuleMorningStandup,
		RulePreMeetingBriefing,
		RuleEndOfDayCheckin,
		RuleWeeklyRetro,
		RuleEventDedup,
		RuleCarryOver:
		return true
	default:
		return false
	}
}

// IsPerMeeting reports whether occurrences of the kind are bound to a
// calendar event instance rather than a calendar day
func (k RuleKind) IsPerMeeting() bool {
	return k == RulePreMeetingBriefing
}

// String returns the string representation of the rule kind
func (k RuleKind) String() string {
	return string(k)
}

// ParseRuleKind parses a string into a RuleKind
func ParseRuleKind(s string) (RuleKind, error) {
	kind := RuleKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid rule kind: %s", s)
	}
	return kind, nil
}
