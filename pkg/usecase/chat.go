package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

var (
	optionRe   = regexp.MustCompile(`(?i)^(?:book\s+)?option\s+(\d+)\W*$`)
	doneRe     = regexp.MustCompile(`(?i)^done\s+(\d+)\W*$`)
	dismissRe  = regexp.MustCompile(`(?i)^dismiss\s+(\d+)\W*$`)
	minutesRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:min|minute)`)
	hoursRe    = regexp.MustCompile(`(?i)(\d+)\s*(?:hour|hr)`)
	attendeeRe = regexp.MustCompile(`(?i)with\s+([\w.+-]+@[\w.-]+\.\w+)`)
	scheduleRe = regexp.MustCompile(`(?i)^(?:schedule|set\s+up|put|add)\b`)
	cancelRe   = regexp.MustCompile(`(?i)^(?:cancel|delete|remove)\b`)
	connectRe  = regexp.MustCompile(`(?i)^connect\s+(?:my\s+)?calendar\W*$`)
)

// EnsureUser loads the user, creating the record on first interaction with
// the timezone and email from the chat profile
func (uc *UseCases) EnsureUser(ctx context.Context, workspaceID string, userID model.UserID) (*model.User, error) {
	user, err := uc.repo.User().Get(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load user", goerr.V("user_id", userID))
	}
	if user != nil {
		return user, nil
	}

	now := uc.now()
	user = &model.User{
		ID:          userID,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if uc.slackSvc != nil {
		profile, err := uc.slackSvc.GetUserInfo(ctx, string(userID))
		if err != nil {
			logging.From(ctx).Error("failed to fetch chat profile, user starts with defaults",
				"user_id", userID, "error", err.Error())
		} else {
			user.Email = profile.Email
			user.Timezone = profile.Timezone
		}
	}
	user.CalendarConnected = uc.probeCalendar(ctx, user.Email)

	if err := uc.repo.User().Put(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("user_id", userID))
	}
	logging.From(ctx).Info("created user on first interaction",
		"user_id", userID, "timezone", user.Timezone,
		"calendar_connected", user.CalendarConnected)
	return user, nil
}

// probeCalendar reports whether a calendar is reachable for the email. A
// "not connected" result is expected for users who have not shared their
// calendar; only other failures are worth logging.
func (uc *UseCases) probeCalendar(ctx context.Context, email string) bool {
	if uc.calSvc == nil || email == "" {
		return false
	}

	now := uc.now()
	window, err := model.NewInterval(now, now.Add(time.Hour))
	if err != nil {
		return false
	}
	if _, err := uc.calSvc.ListEvents(ctx, email, window); err != nil {
		if !errors.Is(err, calendar.ErrNotConnected) {
			logging.From(ctx).Error("calendar probe failed",
				"email", email, "error", err.Error())
		}
		return false
	}
	return true
}

// ClaimInboundEvent claims the chat platform's unique event ID through the
// delivery ledger so webhook retries process a message at most once. Returns
// true iff this delivery of the event won the claim.
func (uc *UseCases) ClaimInboundEvent(ctx context.Context, userID model.UserID, eventID string) (bool, error) {
	rec := model.NewDeliveryRecord(userID, types.RuleEventDedup, eventID, types.DeliveryStatusDelivered)
	claimed, err := uc.repo.Delivery().TryClaim(ctx, rec)
	if err != nil {
		return false, goerr.Wrap(err, "failed to claim inbound event", goerr.V("event_id", eventID))
	}
	return claimed, nil
}

// HandleDirectMessage routes an inbound DM and sends the reply. All
// user-input failures become clarifying replies; only infrastructure
// failures return an error.
func (uc *UseCases) HandleDirectMessage(ctx context.Context, workspaceID string, userID model.UserID, text string) error {
	if uc.slackSvc == nil {
		return goerr.New("slack service is not configured")
	}

	user, err := uc.EnsureUser(ctx, workspaceID, userID)
	if err != nil {
		return err
	}

	reply, err := uc.routeMessage(ctx, user, strings.TrimSpace(text))
	if err != nil {
		if !IsUserInputError(err) {
			return err
		}
		reply = clarification(err)
	}
	if reply == "" {
		return nil
	}

	if _, err := uc.slackSvc.SendDirectMessage(ctx, string(user.ID), reply); err != nil {
		return goerr.Wrap(err, "failed to send reply", goerr.V("user_id", user.ID))
	}
	return nil
}

func (uc *UseCases) routeMessage(ctx context.Context, user *model.User, text string) (string, error) {
	if m := optionRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return uc.handleSelection(ctx, user, n)
	}
	if m := doneRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		item, err := uc.CompleteItem(ctx, user, user.LocalDay(uc.now()), n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(":white_check_mark: Done: %s", item.Text), nil
	}
	if m := dismissRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		item, err := uc.DismissItem(ctx, user, user.LocalDay(uc.now()), n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(":no_entry_sign: Dismissed: %s", item.Text), nil
	}

	if connectRe.MatchString(text) {
		return uc.handleConnectCalendar(ctx, user)
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "find") && (strings.Contains(lower, "time") || strings.Contains(lower, "slot")) {
		return uc.handleFindTime(ctx, user, text)
	}
	if scheduleRe.MatchString(text) {
		return uc.handleScheduleEvent(ctx, user, text)
	}
	if cancelRe.MatchString(text) {
		return uc.handleCancelEvent(ctx, user, text)
	}

	if handled, reply, err := uc.maybeStandupReply(ctx, user, text); handled {
		return reply, err
	}

	return uc.handleFreeform(ctx, user, text)
}

// handleConnectCalendar re-probes the user's calendar and persists the
// connection. Lets users whose calendar became reachable after their first
// message pick up the availability features without waiting.
func (uc *UseCases) handleConnectCalendar(ctx context.Context, user *model.User) (string, error) {
	if uc.calSvc == nil {
		return "Calendar integration isn't configured on this workspace.", nil
	}
	if user.Email == "" {
		return "I don't know your email address, so I can't reach your calendar.", nil
	}
	if !uc.probeCalendar(ctx, user.Email) {
		return fmt.Sprintf("I couldn't reach a calendar for %s. Make sure it's shared with me, then try again.", user.Email), nil
	}
	if user.CalendarConnected {
		return ":calendar: Your calendar is already connected.", nil
	}

	user.CalendarConnected = true
	user.UpdatedAt = uc.now()
	if err := uc.repo.User().Put(ctx, user); err != nil {
		return "", goerr.Wrap(err, "failed to save calendar connection", goerr.V("user_id", user.ID))
	}
	return ":calendar: Connected. I can see your calendar now.", nil
}

func (uc *UseCases) handleSelection(ctx context.Context, user *model.User, n int) (string, error) {
	offer, booked, err := uc.SelectOption(ctx, user, n)
	if err != nil {
		return "", err
	}

	loc := user.Location()
	title := offer.Title
	if title == "" {
		title = "Meeting"
	}
	return fmt.Sprintf(":white_check_mark: Booked *%s* for %s, %s - %s.",
		title,
		booked.Start.In(loc).Format("Mon Jan 2"),
		booked.Start.In(loc).Format("15:04"),
		booked.End.In(loc).Format("15:04")), nil
}

func (uc *UseCases) handleFindTime(ctx context.Context, user *model.User, text string) (string, error) {
	req := FindSlotsRequest{Duration: 30 * time.Minute}
	// Hour and minute mentions combine, so "1 hour 30 min" means 90 minutes.
	var parsed time.Duration
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		parsed += time.Duration(h) * time.Hour
	}
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		min, _ := strconv.Atoi(m[1])
		parsed += time.Duration(min) * time.Minute
	}
	if parsed > 0 {
		req.Duration = parsed
	}
	if m := attendeeRe.FindStringSubmatch(text); m != nil {
		req.Attendee = m[1]
	}

	offer, err := uc.OfferSlots(ctx, user, req)
	if err != nil {
		return "", err
	}
	if offer == nil {
		return "I couldn't find any open slot in the next few days. Try a shorter duration?", nil
	}

	loc := user.Location()
	var b strings.Builder
	fmt.Fprintf(&b, "Here are %d options for a %s meeting:\n", len(offer.Slots), formatDuration(offer.Duration))
	for i, slot := range offer.Slots {
		fmt.Fprintf(&b, "%d. %s, %s - %s\n",
			i+1,
			slot.Start.In(loc).Format("Mon Jan 2"),
			slot.Start.In(loc).Format("15:04"),
			slot.End.In(loc).Format("15:04"))
	}
	b.WriteString("Reply `book option N` to confirm.")
	return b.String(), nil
}

func (uc *UseCases) handleScheduleEvent(ctx context.Context, user *model.User, text string) (string, error) {
	if uc.llmSvc == nil {
		return "I can't parse scheduling requests right now.", nil
	}
	if uc.calSvc == nil || !user.CalendarConnected {
		return "You don't have a calendar connected, so I can't create events.", nil
	}

	loc := user.Location()
	req, err := uc.llmSvc.ExtractEventRequest(ctx, text, uc.now(), loc)
	if err != nil {
		logging.From(ctx).Error("event extraction failed", "user_id", user.ID, "error", err.Error())
		return "I couldn't work out the event details. Could you give me a title, date and time?", nil
	}

	event := &model.CalendarEvent{
		Title:     req.Title,
		Start:     req.Start,
		End:       req.Start.Add(req.Duration),
		Attendees: req.Attendees,
	}
	if _, err := uc.calSvc.CreateEvent(ctx, user.Email, event); err != nil {
		return "", goerr.Wrap(err, "failed to create event", goerr.V("user_id", user.ID))
	}

	reply := fmt.Sprintf(":calendar: Created *%s* on %s at %s.",
		req.Title,
		req.Start.In(loc).Format("Mon Jan 2"),
		req.Start.In(loc).Format("15:04"))
	if uc.FlagOutsideBusinessHours(user, req.Start) {
		reply += "\n:warning: Heads up, that's outside your usual working hours."
	}
	return reply, nil
}

// handleCancelEvent deletes an event named in natural language. The title
// must match exactly one event on the target day; anything else gets a
// clarifying reply instead of a guess.
func (uc *UseCases) handleCancelEvent(ctx context.Context, user *model.User, text string) (string, error) {
	if uc.llmSvc == nil {
		return "I can't parse cancellation requests right now.", nil
	}
	if uc.calSvc == nil || !user.CalendarConnected {
		return "You don't have a calendar connected, so I can't cancel events.", nil
	}

	req, err := uc.llmSvc.ExtractDeletionRequest(ctx, text)
	if err != nil {
		logging.From(ctx).Error("deletion extraction failed", "user_id", user.ID, "error", err.Error())
		return "Which event should I cancel? Give me its name, and say if it's today or tomorrow.", nil
	}

	day := user.LocalDay(uc.now().AddDate(0, 0, req.DaysOffset))
	events, err := uc.eventsForDay(ctx, user, day)
	if err != nil {
		return "", goerr.Wrap(err, "failed to list events for cancellation", goerr.V("day", day))
	}

	var matches []*model.CalendarEvent
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), strings.ToLower(req.Title)) {
			matches = append(matches, ev)
		}
	}

	switch len(matches) {
	case 0:
		return fmt.Sprintf("I couldn't find an event matching *%s* on %s.", req.Title, day), nil
	case 1:
		if err := uc.calSvc.DeleteEvent(ctx, user.Email, matches[0].ID); err != nil {
			return "", goerr.Wrap(err, "failed to delete event", goerr.V("event_id", matches[0].ID))
		}
		return fmt.Sprintf(":wastebasket: Cancelled *%s*.", matches[0].Title), nil
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "*%s* matches %d events on %s:\n", req.Title, len(matches), day)
		loc := user.Location()
		for _, ev := range matches {
			fmt.Fprintf(&b, "• %s  %s\n", ev.Start.In(loc).Format("15:04"), ev.Title)
		}
		b.WriteString("Which one did you mean?")
		return b.String(), nil
	}
}

// maybeStandupReply treats the first non-command DM after today's standup as
// the standup answer and extracts action items from it
func (uc *UseCases) maybeStandupReply(ctx context.Context, user *model.User, text string) (bool, string, error) {
	if uc.llmSvc == nil {
		return false, "", nil
	}

	day := user.LocalDay(uc.now())
	rec, err := uc.repo.Delivery().Get(ctx, user.ID, types.RuleMorningStandup, day)
	if err != nil {
		return false, "", goerr.Wrap(err, "failed to check standup delivery", goerr.V("user_id", user.ID))
	}
	if rec == nil || rec.Status != types.DeliveryStatusDelivered {
		return false, "", nil
	}

	existing, err := uc.repo.ActionItem().ListByUserDay(ctx, user.ID, day)
	if err != nil {
		return false, "", goerr.Wrap(err, "failed to list today's items", goerr.V("user_id", user.ID))
	}
	for _, item := range existing {
		// Carried items don't count; a reply was already recorded only if a
		// non-carried item exists.
		if item.CarriedFrom == "" {
			return false, "", nil
		}
	}

	items, err := uc.RecordStandupReply(ctx, user, day, text)
	if err != nil {
		return true, "", err
	}
	if len(items) == 0 {
		return false, "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Got it, tracking %d item(s) for today:\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Text)
	}
	b.WriteString("I'll check in at the end of the day.")
	return true, b.String(), nil
}

// handleFreeform answers anything unrouted, with calendar context when the
// question mentions today or tomorrow
func (uc *UseCases) handleFreeform(ctx context.Context, user *model.User, text string) (string, error) {
	if uc.llmSvc == nil {
		return "I can schedule meetings (`find a 30 min slot`), track your tasks (`done 1`), and manage calendar events.", nil
	}

	contextText := uc.calendarContext(ctx, user, text)
	reply, err := uc.llmSvc.Reply(ctx, text, contextText)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate reply", goerr.V("user_id", user.ID))
	}
	return reply, nil
}

// calendarContext renders the relevant day's agenda when the message refers
// to today or tomorrow, empty otherwise
func (uc *UseCases) calendarContext(ctx context.Context, user *model.User, text string) string {
	lower := strings.ToLower(text)
	offset := -1
	switch {
	case strings.Contains(lower, "tomorrow"):
		offset = 1
	case strings.Contains(lower, "today"):
		offset = 0
	default:
		return ""
	}

	day := user.LocalDay(uc.now().AddDate(0, 0, offset))
	events, err := uc.eventsForDay(ctx, user, day)
	if err != nil || len(events) == 0 {
		return ""
	}

	loc := user.Location()
	var b strings.Builder
	fmt.Fprintf(&b, "Events on %s:\n", day)
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s to %s: %s\n",
			ev.Start.In(loc).Format("15:04"), ev.End.In(loc).Format("15:04"), ev.Title)
	}
	return b.String()
}

func clarification(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveOffer):
		return "There's no open slot offer right now. Ask me to `find a time` first."
	case errors.Is(err, model.ErrStaleOffer):
		return "That offer has expired. Ask me to `find a time` again for fresh options."
	case errors.Is(err, model.ErrInvalidOptionIndex):
		return "That option number isn't on the list. Pick one of the offered options."
	case errors.Is(err, ErrNoSuchItem):
		return "I don't have an item with that number today."
	default:
		return "Sorry, I didn't catch that."
	}
}

func formatDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}
