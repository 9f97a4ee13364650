package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/query"
)

// HandleQuery implements router.QueryHandler: answer a classified catalog
// question (spec.md §4.2, §4.7's catalog as the backing data).
func (h *Handlers) HandleQuery(ctx context.Context, msg platform.Message, result query.Result) error {
	switch result.Kind {
	case query.KindGameStatus:
		return h.queryGameStatus(ctx, msg, result.Arg)
	case query.KindGameDetails:
		return h.queryGameDetails(ctx, msg, result.Arg)
	case query.KindRecommendation:
		return h.queryRecommendation(ctx, msg, result.Arg)
	case query.KindYear:
		return h.queryYear(ctx, msg, result.Arg)
	case query.KindGenre:
		return h.queryGenre(ctx, msg, result.Arg)
	case query.KindStatistical:
		return h.queryStatistical(ctx, msg, result.Stat)
	case query.KindYouTubeViews:
		return h.reply(ctx, msg, "I don't have view counts on hand for that.")
	default:
		return nil
	}
}

func (h *Handlers) queryGameStatus(ctx context.Context, msg platform.Message, name string) error {
	g, err := h.findGame(ctx, name)
	if err != nil {
		return err
	}
	if g == nil {
		return h.reply(ctx, msg, fmt.Sprintf("No record of jonesy playing %q.", name))
	}
	return h.reply(ctx, msg, fmt.Sprintf("Yes — %s is %s in the catalog.", g.CanonicalName, g.CompletionStatus))
}

func (h *Handlers) queryGameDetails(ctx context.Context, msg platform.Message, name string) error {
	g, err := h.findGame(ctx, name)
	if err != nil {
		return err
	}
	if g == nil {
		return h.reply(ctx, msg, fmt.Sprintf("No catalog entry matching %q.", name))
	}
	return h.reply(ctx, msg, formatGameInfo(g))
}

func (h *Handlers) queryRecommendation(ctx context.Context, msg platform.Message, name string) error {
	rec, err := h.repo.FindRecommendationByName(ctx, name)
	if err != nil {
		return err
	}
	if rec == nil {
		return h.reply(ctx, msg, fmt.Sprintf("%q hasn't been recommended.", name))
	}
	return h.reply(ctx, msg, fmt.Sprintf("Yes — recommended by <@%s>: %s", rec.AddedBy, rec.Reason))
}

func (h *Handlers) queryYear(ctx context.Context, msg platform.Message, year string) error {
	n, err := strconv.Atoi(year)
	if err != nil {
		return h.reply(ctx, msg, fmt.Sprintf("%q isn't a year I recognize.", year))
	}
	games, err := h.repo.ListGames(ctx)
	if err != nil {
		return err
	}
	var names []string
	for _, g := range games {
		if g.ReleaseYear == n {
			names = append(names, g.CanonicalName)
		}
	}
	if len(names) == 0 {
		return h.reply(ctx, msg, fmt.Sprintf("No games from %d.", n))
	}
	return h.reply(ctx, msg, strings.Join(names, ", "))
}

func (h *Handlers) queryGenre(ctx context.Context, msg platform.Message, genre string) error {
	games, err := h.repo.ListGames(ctx)
	if err != nil {
		return err
	}
	var names []string
	for _, g := range games {
		if strings.EqualFold(g.Genre, genre) {
			names = append(names, g.CanonicalName)
		}
	}
	if len(names) == 0 {
		return h.reply(ctx, msg, fmt.Sprintf("No %s games in the catalog.", genre))
	}
	return h.reply(ctx, msg, strings.Join(names, ", "))
}

// queryStatistical answers whichever of the four statistical phrasings
// query.Classify recognized (spec.md §4.2); stat discriminates which one.
func (h *Handlers) queryStatistical(ctx context.Context, msg platform.Message, stat query.StatKind) error {
	games, err := h.repo.ListGames(ctx)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return h.reply(ctx, msg, "The catalog is empty.")
	}

	switch stat {
	case query.StatMostEpisodes:
		best := games[0]
		for _, g := range games {
			if g.TotalEpisodes > best.TotalEpisodes {
				best = g
			}
		}
		return h.reply(ctx, msg, fmt.Sprintf("%s has the most episodes at %d.", best.CanonicalName, best.TotalEpisodes))

	case query.StatLongestToComplete:
		var best *model.Game
		var bestSpan time.Duration
		for _, g := range games {
			if g.CompletionStatus != model.CompletionCompleted || g.FirstPlayedAt.IsZero() || g.LastValidatedAt.IsZero() {
				continue
			}
			span := g.LastValidatedAt.Sub(g.FirstPlayedAt)
			if best == nil || span > bestSpan {
				best, bestSpan = g, span
			}
		}
		if best == nil {
			return h.reply(ctx, msg, "No completed game has enough data to compare.")
		}
		return h.reply(ctx, msg, fmt.Sprintf("%s took the longest to complete, at %s.", best.CanonicalName, bestSpan.Round(24*time.Hour)))

	case query.StatMostHours:
		best := games[0]
		for _, g := range games {
			if g.TotalPlaytimeMins > best.TotalPlaytimeMins {
				best = g
			}
		}
		return h.reply(ctx, msg, fmt.Sprintf("%s has the most hours logged, at %.1f hours.", best.CanonicalName, float64(best.TotalPlaytimeMins)/60))

	default: // query.StatMostPlaytime
		best := games[0]
		for _, g := range games {
			if g.TotalPlaytimeMins > best.TotalPlaytimeMins {
				best = g
			}
		}
		return h.reply(ctx, msg, fmt.Sprintf("%s has the most playtime at %d minutes.", best.CanonicalName, best.TotalPlaytimeMins))
	}
}
