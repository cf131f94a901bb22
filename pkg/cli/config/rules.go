package config

import (
	"os"
	"strings"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/service/availability"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Rules is the TOML-backed trigger and availability policy. Every field has
// a default, so the engine runs without a file at all.
type Rules struct {
	Standup  DayRule     `toml:"morning_standup"`
	Checkin  DayRule     `toml:"eod_checkin"`
	Retro    DayRule     `toml:"weekly_retro"`
	Briefing LeadRule    `toml:"pre_meeting_briefing"`
	Hours    HoursConfig `toml:"business_hours"`
	Booking  Booking     `toml:"booking"`

	path string
}

// DayRule configures a day-granular trigger
type DayRule struct {
	Spec         string `toml:"spec"`
	MaxStaleness string `toml:"max_staleness"`
}

// LeadRule configures the per-meeting briefing trigger
type LeadRule struct {
	Lead      string `toml:"lead"`
	Lookahead string `toml:"lookahead"`
}

// HoursConfig configures local working hours
type HoursConfig struct {
	Start    string   `toml:"start"`
	End      string   `toml:"end"`
	Weekdays []string `toml:"weekdays"`
}

// Booking configures slot offers
type Booking struct {
	OfferTTL string `toml:"offer_ttl"`
}

// DefaultRules returns the built-in policy: standup 09:00 daily, check-in
// 17:00 weekdays, retro 17:00 Friday, briefings 10 minutes ahead.
func DefaultRules() *Rules {
	return &Rules{
		Standup:  DayRule{Spec: "0 9 * * *", MaxStaleness: "2h"},
		Checkin:  DayRule{Spec: "0 17 * * 1-5", MaxStaleness: "2h"},
		Retro:    DayRule{Spec: "0 17 * * 5", MaxStaleness: "6h"},
		Briefing: LeadRule{Lead: "10m", Lookahead: "60m"},
		Hours: HoursConfig{
			Start:    "09:00",
			End:      "18:00",
			Weekdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		},
		Booking: Booking{OfferTTL: "30m"},
	}
}

// Flags returns CLI flags for the rules configuration
func (r *Rules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rules-config",
			Usage:       "Path to trigger rules TOML file (built-in defaults when empty)",
			Sources:     cli.EnvVars("KAIROS_RULES_CONFIG"),
			Destination: &r.path,
		},
	}
}

// Configure loads and validates the policy. Fields absent from the file keep
// their defaults.
func (r *Rules) Configure() (*Rules, error) {
	rules := DefaultRules()

	if r.path != "" {
		// #nosec G304 - path comes from the operator's own flag
		data, err := os.ReadFile(r.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read rules config", goerr.V("path", r.path))
		}
		if err := toml.Unmarshal(data, rules); err != nil {
			return nil, goerr.Wrap(err, "failed to parse rules config", goerr.V("path", r.path))
		}
	}

	if err := rules.Validate(); err != nil {
		return nil, goerr.Wrap(err, "rules config validation failed", goerr.V("path", r.path))
	}
	return rules, nil
}

// Validate checks every rule and the hours policy
func (r *Rules) Validate() error {
	if _, err := r.TriggerRules(); err != nil {
		return err
	}
	if _, err := r.BusinessHours(); err != nil {
		return err
	}
	if _, err := r.OfferTTL(); err != nil {
		return err
	}
	return nil
}

// TriggerRules converts the policy into validated domain rules
func (r *Rules) TriggerRules() ([]model.TriggerRule, error) {
	parse := func(kind types.RuleKind, cfg DayRule) (model.TriggerRule, error) {
		staleness, err := time.ParseDuration(cfg.MaxStaleness)
		if err != nil {
			return model.TriggerRule{}, goerr.Wrap(err, "invalid max_staleness",
				goerr.V("rule", kind), goerr.V("value", cfg.MaxStaleness))
		}
		rule := model.TriggerRule{Kind: kind, Spec: cfg.Spec, MaxStaleness: staleness}
		if err := rule.Validate(); err != nil {
			return model.TriggerRule{}, err
		}
		return rule, nil
	}

	standup, err := parse(types.RuleMorningStandup, r.Standup)
	if err != nil {
		return nil, err
	}
	checkin, err := parse(types.RuleEndOfDayCheckin, r.Checkin)
	if err != nil {
		return nil, err
	}
	retro, err := parse(types.RuleWeeklyRetro, r.Retro)
	if err != nil {
		return nil, err
	}

	lead, err := time.ParseDuration(r.Briefing.Lead)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid briefing lead", goerr.V("value", r.Briefing.Lead))
	}
	lookahead, err := time.ParseDuration(r.Briefing.Lookahead)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid briefing lookahead", goerr.V("value", r.Briefing.Lookahead))
	}
	briefing := model.TriggerRule{
		Kind:      types.RulePreMeetingBriefing,
		Lead:      lead,
		Lookahead: lookahead,
	}
	if err := briefing.Validate(); err != nil {
		return nil, err
	}

	return []model.TriggerRule{standup, briefing, checkin, retro}, nil
}

// BusinessHours converts the hours policy
func (r *Rules) BusinessHours() (availability.BusinessHours, error) {
	start, err := parseClock(r.Hours.Start)
	if err != nil {
		return availability.BusinessHours{}, goerr.Wrap(err, "invalid business hours start")
	}
	end, err := parseClock(r.Hours.End)
	if err != nil {
		return availability.BusinessHours{}, goerr.Wrap(err, "invalid business hours end")
	}

	weekdays := make(map[time.Weekday]bool, len(r.Hours.Weekdays))
	for _, name := range r.Hours.Weekdays {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return availability.BusinessHours{}, goerr.New("unknown weekday", goerr.V("value", name))
		}
		weekdays[day] = true
	}

	hours := availability.BusinessHours{
		StartMinute: start,
		EndMinute:   end,
		Weekdays:    weekdays,
	}
	if err := hours.Validate(); err != nil {
		return availability.BusinessHours{}, err
	}
	return hours, nil
}

// OfferTTL returns the slot offer lifetime
func (r *Rules) OfferTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(r.Booking.OfferTTL)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid offer_ttl", goerr.V("value", r.Booking.OfferTTL))
	}
	if ttl <= 0 {
		return 0, goerr.New("offer_ttl must be positive", goerr.V("value", r.Booking.OfferTTL))
	}
	return ttl, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseClock converts "HH:MM" into minutes from midnight
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, goerr.Wrap(err, "expected HH:MM", goerr.V("value", s))
	}
	return t.Hour()*60 + t.Minute(), nil
}
