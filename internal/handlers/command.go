package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonesy-ops/ash/internal/catalog"
	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/reminders"
	"github.com/jonesy-ops/ash/internal/textsim"
)

const recommendationDupThreshold = 0.90

// mentionToken matches a Discord-style raw user mention so it can be
// stripped from a command's remaining argument text once its user id has
// already been read off msg.MentionedUserIDs.
var mentionToken = regexp.MustCompile(`<@!?\d+>`)

// HandleCommand implements router.CommandHandler: parse the `!`-prefixed
// command name and dispatch to its handler (spec.md §6's command table).
func (h *Handlers) HandleCommand(ctx context.Context, msg platform.Message) error {
	body := strings.TrimSpace(msg.Content)[1:]
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return h.reply(ctx, msg, "No command given.")
	}
	name := strings.ToLower(fields[0])
	args := strings.TrimSpace(strings.TrimPrefix(body, fields[0]))

	switch name {
	case "strikes":
		return h.cmdStrikes(ctx, msg, args)
	case "resetstrikes":
		return h.cmdResetStrikes(ctx, msg, args)
	case "allstrikes":
		return h.cmdAllStrikes(ctx, msg)
	case "addgame", "recommend":
		return h.cmdAddGame(ctx, msg, args)
	case "listgames":
		return h.cmdListGames(ctx, msg)
	case "removegame":
		return h.cmdRemoveGame(ctx, msg, args)
	case "remind":
		return h.cmdRemind(ctx, msg, args)
	case "listreminders":
		return h.cmdListReminders(ctx, msg, args)
	case "cancelreminder":
		return h.cmdCancelReminder(ctx, msg, args)
	case "addplayedgame":
		return h.cmdAddPlayedGame(ctx, msg, args)
	case "gameinfo":
		return h.cmdGameInfo(ctx, msg, args)
	case "updateplayedgame":
		return h.cmdUpdatePlayedGame(ctx, msg, args)
	case "bulkimportplayedgames":
		return h.cmdBulkImport(ctx, msg)
	case "ashstatus":
		return h.cmdAshStatus(ctx, msg)
	case "toggleai":
		return h.cmdToggleAI(ctx, msg)
	case "setpersona":
		return h.cmdSetPersona(ctx, msg, args)
	default:
		return h.reply(ctx, msg, fmt.Sprintf("Unknown command %q.", name))
	}
}

// requireOperatorOrDeny replies with a permission-denied message and
// reports false when author lacks operator authority.
func (h *Handlers) requireOperatorOrDeny(ctx context.Context, msg platform.Message) (bool, error) {
	ok, err := h.requireOperator(ctx, msg.AuthorID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, h.reply(ctx, msg, "You don't have permission to run that command.")
	}
	return true, nil
}

func firstMention(msg platform.Message) (string, bool) {
	if len(msg.MentionedUserIDs) == 0 {
		return "", false
	}
	return msg.MentionedUserIDs[0], true
}

func stripMention(args string) string {
	return strings.TrimSpace(mentionToken.ReplaceAllString(args, ""))
}

func (h *Handlers) cmdStrikes(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	userID, ok := firstMention(msg)
	if !ok {
		return h.reply(ctx, msg, "Usage: !strikes @user")
	}
	count, err := h.repo.GetStrikes(ctx, userID)
	if err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("<@%s> has %d strike(s).", userID, count))
}

func (h *Handlers) cmdResetStrikes(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	userID, ok := firstMention(msg)
	if !ok {
		return h.reply(ctx, msg, "Usage: !resetstrikes @user")
	}
	if err := h.repo.ResetStrikes(ctx, userID); err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("Reset strikes for <@%s>.", userID))
}

func (h *Handlers) cmdAllStrikes(ctx context.Context, msg platform.Message) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	records, err := h.repo.AllStrikes(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return h.reply(ctx, msg, "No users have strikes.")
	}
	var b strings.Builder
	for _, r := range records {
		if r.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "<@%s>: %d\n", r.UserID, r.Count)
	}
	if b.Len() == 0 {
		return h.reply(ctx, msg, "No users have strikes.")
	}
	return h.reply(ctx, msg, b.String())
}

func (h *Handlers) cmdAddGame(ctx context.Context, msg platform.Message, args string) error {
	parts := strings.SplitN(args, "-", 2)
	if len(parts) != 2 {
		return h.reply(ctx, msg, "Usage: !addgame <name> - <reason>")
	}
	name := strings.TrimSpace(parts[0])
	reason := strings.TrimSpace(parts[1])
	if name == "" || reason == "" {
		return h.reply(ctx, msg, "Usage: !addgame <name> - <reason>")
	}
	existing, err := h.repo.ListRecommendations(ctx)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if textsim.MaxRatio(rec.Name, name) >= recommendationDupThreshold {
			return h.reply(ctx, msg, fmt.Sprintf("%q is already recommended.", rec.Name))
		}
	}
	rec := model.GameRecommendation{ID: uuid.NewString(), Name: name, Reason: reason, AddedBy: msg.AuthorID}
	if err := h.repo.AddRecommendation(ctx, rec); err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("Added %q to the recommendation list.", name))
}

func (h *Handlers) cmdListGames(ctx context.Context, msg platform.Message) error {
	recs, err := h.repo.ListRecommendations(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return h.reply(ctx, msg, "No recommendations yet.")
	}
	var b strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, rec.Name, rec.Reason)
	}
	return h.reply(ctx, msg, b.String())
}

func (h *Handlers) cmdRemoveGame(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	if args == "" {
		return h.reply(ctx, msg, "Usage: !removegame <name or index>")
	}
	id, label, err := h.resolveRecommendationRef(ctx, args)
	if err != nil {
		return err
	}
	if id == "" {
		return h.reply(ctx, msg, fmt.Sprintf("No recommendation matching %q.", args))
	}
	removed, err := h.repo.RemoveRecommendation(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return h.reply(ctx, msg, fmt.Sprintf("No recommendation matching %q.", args))
	}
	return h.reply(ctx, msg, fmt.Sprintf("Removed %q from the recommendation list.", label))
}

// resolveRecommendationRef resolves ref — a 1-based list position as shown
// by !listgames, or a recommendation name — to its backing id. It returns
// an empty id when ref matches nothing.
func (h *Handlers) resolveRecommendationRef(ctx context.Context, ref string) (id, name string, err error) {
	if idx, convErr := strconv.Atoi(strings.TrimSpace(ref)); convErr == nil {
		recs, err := h.repo.ListRecommendations(ctx)
		if err != nil {
			return "", "", err
		}
		if idx >= 1 && idx <= len(recs) {
			rec := recs[idx-1]
			return rec.ID, rec.Name, nil
		}
		return "", "", nil
	}
	rec, err := h.repo.FindRecommendationByName(ctx, ref)
	if err != nil {
		return "", "", err
	}
	if rec == nil {
		return "", "", nil
	}
	return rec.ID, rec.Name, nil
}

func (h *Handlers) cmdListReminders(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	userID := ""
	if id, ok := firstMention(msg); ok {
		userID = id
	}
	var list []*model.Reminder
	var err error
	if userID != "" {
		list, err = h.repo.ListPendingReminders(ctx, userID)
	} else {
		list, err = h.repo.ListPendingReminders(ctx, "")
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return h.reply(ctx, msg, "No pending reminders.")
	}
	var b strings.Builder
	for _, r := range list {
		fmt.Fprintf(&b, "[%s] <@%s>: %s at %s\n", r.ID, r.UserID, r.Text, reminders.FormatTime(r.ScheduledAt))
	}
	return h.reply(ctx, msg, b.String())
}

func (h *Handlers) cmdCancelReminder(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	if args == "" {
		return h.reply(ctx, msg, "Usage: !cancelreminder <id>")
	}
	ok, err := h.repo.CancelReminder(ctx, args)
	if err != nil {
		return err
	}
	if !ok {
		return h.reply(ctx, msg, fmt.Sprintf("No pending reminder with id %s.", args))
	}
	return h.reply(ctx, msg, fmt.Sprintf("Cancelled reminder %s.", args))
}

// parseKeyValues splits a "key:value" pair list, the format addplayedgame
// and updateplayedgame use for their optional attribute fields.
func parseKeyValues(args string) map[string]string {
	out := map[string]string{}
	for _, field := range strings.Fields(args) {
		kv := strings.SplitN(field, ":", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.ToLower(kv[0])] = kv[1]
	}
	return out
}

func (h *Handlers) cmdAddPlayedGame(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	parts := strings.SplitN(args, "|", 2)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return h.reply(ctx, msg, "Usage: !addplayedgame <name> [| key:value]*")
	}
	kv := map[string]string{}
	if len(parts) == 2 {
		kv = parseKeyValues(parts[1])
	}
	g := &model.Game{
		ID:               uuid.NewString(),
		CanonicalName:    name,
		CompletionStatus: model.CompletionInProgress,
		Confidence:       1.0,
	}
	applyGameFields(g, kv)
	id := catalog.ExternalIDForName(name)
	g.ExternalID = &id
	if err := g.Valid(); err != nil {
		return h.reply(ctx, msg, fmt.Sprintf("Invalid entry: %s", err))
	}
	if err := h.repo.UpsertGame(ctx, g); err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("Added %q to the catalog.", name))
}

func (h *Handlers) cmdUpdatePlayedGame(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	parts := strings.SplitN(args, "|", 2)
	if len(parts) != 2 {
		return h.reply(ctx, msg, "Usage: !updateplayedgame <name or id> | key:value")
	}
	ref := strings.TrimSpace(parts[0])
	g, err := h.findGame(ctx, ref)
	if err != nil {
		return err
	}
	if g == nil {
		return h.reply(ctx, msg, fmt.Sprintf("No catalog entry matching %q.", ref))
	}
	applyGameFields(g, parseKeyValues(parts[1]))
	if err := g.Valid(); err != nil {
		return h.reply(ctx, msg, fmt.Sprintf("Invalid update: %s", err))
	}
	if err := h.repo.UpsertGame(ctx, g); err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("Updated %q.", g.CanonicalName))
}

func (h *Handlers) cmdGameInfo(ctx context.Context, msg platform.Message, args string) error {
	if args == "" {
		return h.reply(ctx, msg, "Usage: !gameinfo <name or id>")
	}
	g, err := h.findGame(ctx, args)
	if err != nil {
		return err
	}
	if g == nil {
		return h.reply(ctx, msg, fmt.Sprintf("No catalog entry matching %q.", args))
	}
	return h.reply(ctx, msg, formatGameInfo(g))
}

func (h *Handlers) findGame(ctx context.Context, ref string) (*model.Game, error) {
	if g, err := h.repo.GetGame(ctx, ref); err == nil && g != nil {
		return g, nil
	}
	if g, err := h.repo.FindGameByName(ctx, ref); err != nil {
		return nil, err
	} else if g != nil {
		return g, nil
	}
	return h.repo.FindGameByAlternativeName(ctx, ref)
}

func formatGameInfo(g *model.Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", g.CanonicalName)
	fmt.Fprintf(&b, "Status: %s | Episodes: %d | Playtime: %d min\n", g.CompletionStatus, g.TotalEpisodes, g.TotalPlaytimeMins)
	if g.Series != "" {
		fmt.Fprintf(&b, "Series: %s\n", g.Series)
	}
	if g.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n", g.Genre)
	}
	if g.ReleaseYear != 0 {
		fmt.Fprintf(&b, "Released: %d\n", g.ReleaseYear)
	}
	return strings.TrimSpace(b.String())
}

func applyGameFields(g *model.Game, kv map[string]string) {
	if v, ok := kv["series"]; ok {
		g.Series = v
	}
	if v, ok := kv["year"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			g.ReleaseYear = n
		}
	}
	if v, ok := kv["status"]; ok {
		status := model.CompletionStatus(v)
		if status.Valid() {
			g.CompletionStatus = status
		}
	}
	if v, ok := kv["episodes"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			g.TotalEpisodes = n
		}
	}
	if v, ok := kv["playtime"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			g.TotalPlaytimeMins = n
		}
	}
}

func (h *Handlers) cmdBulkImport(ctx context.Context, msg platform.Message) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	if h.ingestor == nil {
		return h.reply(ctx, msg, "Catalog ingestor is not configured.")
	}
	summary, err := h.ingestor.Run(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf(
		"Bulk import complete: %d total, %d accepted, %d needs review, %d failed.",
		summary.Total, summary.Accepted, summary.NeedsReview, summary.Failed,
	))
}

func (h *Handlers) cmdToggleAI(ctx context.Context, msg platform.Message) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	current, _, err := h.repo.GetConfig(ctx, "ai_enabled")
	if err != nil {
		return err
	}
	next := "true"
	if current == "true" {
		next = "false"
	}
	if err := h.repo.SetConfig(ctx, "ai_enabled", next); err != nil {
		return err
	}
	if h.dispatcher != nil {
		h.dispatcher.SetEnabled(next == "true")
	}
	return h.reply(ctx, msg, fmt.Sprintf("AI conversation is now %s.", map[bool]string{true: "enabled", false: "disabled"}[next == "true"]))
}

func (h *Handlers) cmdSetPersona(ctx context.Context, msg platform.Message, args string) error {
	if ok, err := h.requireOperatorOrDeny(ctx, msg); err != nil || !ok {
		return err
	}
	if args == "" {
		return h.reply(ctx, msg, "Usage: !setpersona <text>")
	}
	if err := h.repo.SetConfig(ctx, "persona_override", args); err != nil {
		return err
	}
	return h.reply(ctx, msg, "Persona override updated.")
}
