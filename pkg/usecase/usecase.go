package usecase

import (
	"time"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/service/availability"
	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/aide-lab/kairos/pkg/service/llm"
	"github.com/aide-lab/kairos/pkg/service/slack"
	"github.com/aide-lab/kairos/pkg/service/tickets"
)

const defaultOfferTTL = 30 * time.Minute

// UseCases wires the engine's operations over the persistence boundary and
// the external collaborators. Slack is required; calendar, tickets and llm
// are optional and their absence degrades the relevant content gracefully.
type UseCases struct {
	repo interfaces.Repository

	slackSvc  slack.Service
	calSvc    calendar.Service
	ticketSvc tickets.Service
	llmSvc    llm.Service

	hours    availability.BusinessHours
	offerTTL time.Duration
	now      func() time.Time
}

type Option func(*UseCases)

func WithSlackService(svc slack.Service) Option {
	return func(uc *UseCases) {
		uc.slackSvc = svc
	}
}

func WithCalendarService(svc calendar.Service) Option {
	return func(uc *UseCases) {
		uc.calSvc = svc
	}
}

func WithTicketService(svc tickets.Service) Option {
	return func(uc *UseCases) {
		uc.ticketSvc = svc
	}
}

func WithLLMService(svc llm.Service) Option {
	return func(uc *UseCases) {
		uc.llmSvc = svc
	}
}

func WithBusinessHours(hours availability.BusinessHours) Option {
	return func(uc *UseCases) {
		uc.hours = hours
	}
}

func WithOfferTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		if ttl > 0 {
			uc.offerTTL = ttl
		}
	}
}

// WithNowFunc overrides the time source, used by tests
func WithNowFunc(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		hours:    availability.DefaultBusinessHours(),
		offerTTL: defaultOfferTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
