// Package catalog implements CatalogIngestor: reconciliation of external
// video/stream records into the played-games catalog (spec.md §4.7),
// grounded on the teacher's pkg/cron job-execution shape for the
// errgroup-parallel fetch and the same failure-counting discipline its
// sweep loop uses for continuing past individual job errors.
package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonesy-ops/ash/internal/metadata"
	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/repository"
	"github.com/jonesy-ops/ash/internal/textsim"
	"github.com/jonesy-ops/ash/internal/titleextractor"
)

// acceptThreshold is the confidence the fallback identity path needs to
// accept a match; emptyAltNamesConfidence is the confidence a record is
// lowered to when it is flagged for review (spec.md §4.7).
const (
	acceptThreshold         = 0.8
	emptyAltNamesConfidence = 0.5
	dedupRatioThreshold     = 0.92
	maxFailureRate          = 0.20
)

// Identity resolves a candidate title to a canonical name via
// TitleExtractor + MetadataClient. metadata.Client satisfies this.
type Identity interface {
	Validate(candidate string) (canonicalName string, confidence float64, ok bool)
	Lookup(ctx context.Context, candidate string) (*metadata.Result, error)
}

// Ingestor reconciles VideoSource and StreamSource records against the
// catalog held in Repository.
type Ingestor struct {
	repo     repository.Repository
	identity Identity
	video    VideoSource
	stream   StreamSource
	log      zerolog.Logger
}

// New constructs an Ingestor. video or stream may be nil if that source is
// not configured; a nil source simply contributes no records to a run.
func New(repo repository.Repository, identity Identity, video VideoSource, stream StreamSource, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		repo:     repo,
		identity: identity,
		video:    video,
		stream:   stream,
		log:      log,
	}
}

// candidate is the unified shape both source record kinds normalize to
// before identity resolution.
type candidate struct {
	title           string
	episodeCount    int
	playtimeMins    int
	playlistURL     string
	streamURL       string
	gameID          string
	gameName        string
	completedTagged bool
	needsReview     bool
}

// Run fetches from both sources concurrently, reconciles every record
// against the catalog, and reports how many succeeded, failed, and were
// flagged for review. Once at least five records have been processed, a
// failure rate above 20% aborts the run early and returns an error;
// records already reconciled before the abort remain committed.
func (in *Ingestor) Run(ctx context.Context) (Summary, error) {
	candidates, fetchErr := in.fetchAll(ctx)
	if fetchErr != nil {
		return Summary{}, fmt.Errorf("catalog: fetch sources: %w", fetchErr)
	}

	var summary Summary
	for _, c := range candidates {
		summary.Total++
		needsReview, err := in.reconcile(ctx, c)
		if err != nil {
			summary.Failed++
			in.log.Warn().Err(err).Str("title", c.title).Msg("catalog: record failed")
			if summary.Total >= 5 && float64(summary.Failed)/float64(summary.Total) > maxFailureRate {
				return summary, fmt.Errorf("catalog: failure rate %.0f%% exceeds 20%% abort threshold", 100*float64(summary.Failed)/float64(summary.Total))
			}
			continue
		}
		if needsReview {
			summary.NeedsReview++
		}
		summary.Accepted++
	}
	return summary, nil
}

// Summary tallies one Run's outcome (spec.md §4.7 failure-semantics
// counting requirement).
type Summary struct {
	Total       int
	Accepted    int
	NeedsReview int
	Failed      int
}

func (in *Ingestor) fetchAll(ctx context.Context) ([]candidate, error) {
	var videoRecords []VideoRecord
	var streamRecords []StreamRecord

	g, _ := errgroup.WithContext(ctx)
	if in.video != nil {
		g.Go(func() error {
			records, err := in.video.FetchPlaylists()
			if err != nil {
				return fmt.Errorf("video source: %w", err)
			}
			videoRecords = records
			return nil
		})
	}
	if in.stream != nil {
		g.Go(func() error {
			records, err := in.stream.FetchStreams()
			if err != nil {
				return fmt.Errorf("stream source: %w", err)
			}
			streamRecords = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []candidate
	for _, v := range videoRecords {
		out = append(out, candidateFromVideo(v))
	}
	for _, s := range streamRecords {
		out = append(out, candidateFromStream(s))
	}
	return out, nil
}

func candidateFromVideo(v VideoRecord) candidate {
	playtime := 0
	for _, item := range v.Items {
		playtime += item.DurationSeconds / 60
	}
	return candidate{
		title:           v.Title,
		episodeCount:    len(v.Items),
		playtimeMins:    playtime,
		playlistURL:     v.PlaylistID,
		completedTagged: strings.Contains(strings.ToUpper(v.Title), "[COMPLETED]"),
	}
}

func candidateFromStream(s StreamRecord) candidate {
	return candidate{
		title:           s.Title,
		episodeCount:    1,
		playtimeMins:    s.DurationSeconds / 60,
		streamURL:       s.ArchiveURL,
		gameID:          s.GameID,
		gameName:        s.GameName,
		completedTagged: strings.Contains(strings.ToUpper(s.Title), "[COMPLETED]"),
	}
}

func (in *Ingestor) reconcile(ctx context.Context, c candidate) (needsReview bool, err error) {
	resolved, err := in.resolveIdentity(ctx, c)
	if err != nil {
		return false, err
	}

	// The Latin-script filter and 5-name cap are a storage invariant and
	// always run first; the empty-alt-names confidence downgrade is
	// evaluated against the already-filtered list. The downgrade applies
	// only to metadata-service matches: a platform-classified record keeps
	// its 1.0 confidence.
	resolved.AlternativeNames = filterLatin(resolved.AlternativeNames)
	resolved.AlternativeNames = dedupCaseInsensitive(resolved.AlternativeNames)
	if len(resolved.AlternativeNames) > 5 {
		resolved.AlternativeNames = resolved.AlternativeNames[:5]
	}
	primaryPath := c.gameID != "" && c.gameName != ""
	if resolved.needsReview || (!primaryPath && len(resolved.AlternativeNames) == 0) {
		resolved.Confidence = emptyAltNamesConfidence
		resolved.needsReview = true
	}

	existing, err := in.findExisting(ctx, resolved)
	if err != nil {
		return false, err
	}

	merged := mergeGame(existing, resolved, c)
	if err := in.repo.UpsertGame(ctx, merged); err != nil {
		return false, fmt.Errorf("upsert game %q: %w", merged.CanonicalName, err)
	}
	return resolved.needsReview, nil
}

// resolvedIdentity is the outcome of either identity path before merging
// against any existing catalog entry.
type resolvedIdentity struct {
	CanonicalName    string
	AlternativeNames []string
	ExternalID       *int64
	Confidence       float64
	needsReview      bool
}

func (in *Ingestor) resolveIdentity(ctx context.Context, c candidate) (resolvedIdentity, error) {
	// Primary identity path: the source already classified the game. The
	// platform's own game id satisfies the external-metadata-identifier
	// invariant directly — it is itself an opaque external identifier,
	// just not IGDB's.
	if c.gameID != "" && c.gameName != "" {
		id := ExternalIDForName(c.gameID)
		return resolvedIdentity{CanonicalName: c.gameName, Confidence: 1.0, ExternalID: &id}, nil
	}

	// Fallback identity path: TitleExtractor + MetadataClient.
	extracted := titleextractor.Extract(c.title, adaptValidator{in.identity})
	if extracted.Name == "" {
		return resolvedIdentity{}, fmt.Errorf("could not extract a candidate name from %q", c.title)
	}

	result, err := in.identity.Lookup(ctx, extracted.Name)
	if err != nil {
		return resolvedIdentity{}, fmt.Errorf("metadata lookup %q: %w", extracted.Name, err)
	}
	if result == nil || extracted.Confidence < acceptThreshold {
		name := extracted.Name
		if result != nil {
			name = result.CanonicalName
		}
		return resolvedIdentity{
			CanonicalName: name,
			Confidence:    extracted.Confidence,
			needsReview:   true,
		}, nil
	}

	var externalID *int64
	if result.ExternalID != 0 {
		id := result.ExternalID
		externalID = &id
	}
	return resolvedIdentity{
		CanonicalName:    result.CanonicalName,
		AlternativeNames: result.AlternativeNames,
		ExternalID:       externalID,
		Confidence:       extracted.Confidence,
	}, nil
}

// ExternalIDForName maps a platform-native game id (which may not
// be numeric) onto the int64 external-id column: a clean decimal id parses
// directly, anything else is folded through FNV-1a so the same platform
// id always maps to the same stored identifier.
func ExternalIDForName(gameID string) int64 {
	if n, err := strconv.ParseInt(gameID, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(gameID))
	return int64(h.Sum64())
}

type adaptValidator struct{ Identity }

func (a adaptValidator) Validate(candidate string) (string, float64, bool) {
	return a.Identity.Validate(candidate)
}

func (in *Ingestor) findExisting(ctx context.Context, r resolvedIdentity) (*model.Game, error) {
	if r.ExternalID != nil {
		g, err := in.repo.FindGameByExternalID(ctx, *r.ExternalID)
		if err != nil {
			return nil, err
		}
		if g != nil {
			return g, nil
		}
	}
	if g, err := in.repo.FindGameByName(ctx, r.CanonicalName); err != nil {
		return nil, err
	} else if g != nil {
		return g, nil
	}
	if g, err := in.repo.FindGameByAlternativeName(ctx, r.CanonicalName); err != nil {
		return nil, err
	} else if g != nil {
		return g, nil
	}
	return nil, nil
}

// mergeGame applies spec.md §4.7's merge rules against an existing catalog
// entry, or constructs a fresh one when existing is nil.
func mergeGame(existing *model.Game, r resolvedIdentity, c candidate) *model.Game {
	g := existing
	if g == nil {
		g = &model.Game{
			ID:               uuid.NewString(),
			CompletionStatus: model.CompletionUnknown,
			FirstPlayedAt:    time.Now(),
		}
	}

	g.CanonicalName = r.CanonicalName
	if r.ExternalID != nil {
		g.ExternalID = r.ExternalID
	}
	if r.Confidence >= acceptThreshold {
		g.Genre = firstNonEmpty(derivedGenre(r), g.Genre)
		g.Series = firstNonEmpty(derivedSeries(r), g.Series)
	}
	g.Confidence = maxFloat(g.Confidence, r.Confidence)

	g.AlternativeNames = dedupCaseInsensitive(append(append([]string{}, g.AlternativeNames...), r.AlternativeNames...))
	if len(g.AlternativeNames) > 5 {
		g.AlternativeNames = g.AlternativeNames[:5]
	}

	g.TotalEpisodes = maxInt(g.TotalEpisodes, c.episodeCount)
	g.TotalPlaytimeMins = maxInt(g.TotalPlaytimeMins, c.playtimeMins)

	if c.playlistURL != "" {
		g.PlaylistURL = c.playlistURL
	}
	if c.streamURL != "" && !containsString(g.StreamURLs, c.streamURL) {
		g.StreamURLs = append(g.StreamURLs, c.streamURL)
	}

	if c.completedTagged && g.CompletionStatus == model.CompletionInProgress {
		g.CompletionStatus = model.CompletionCompleted
	} else if g.CompletionStatus == "" || g.CompletionStatus == model.CompletionUnknown {
		g.CompletionStatus = model.CompletionInProgress
	}

	g.LastValidatedAt = time.Now()
	return g
}

// derivedGenre and derivedSeries are placeholders for metadata-service
// enrichment fields the §4.7 "prefer metadata-service values" rule refers
// to; this client's IGDB query does not currently request genre/series,
// so both are empty until that query is extended to request them.
func derivedGenre(resolvedIdentity) string  { return "" }
func derivedSeries(resolvedIdentity) string { return "" }

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func filterLatin(names []string) []string {
	var out []string
	for _, n := range names {
		if isLatin(n) {
			out = append(out, n)
		}
	}
	return out
}

func isLatin(s string) bool {
	for _, r := range s {
		if r >= 0x250 {
			return false
		}
	}
	return true
}

func dedupCaseInsensitive(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// DedupeSweep detects near-duplicate canonical names (fuzzy ratio >= 0.92)
// among the full catalog and merges them, summing episodes/playtime
// (disjoint records), unioning alt-names, and keeping the external id from
// the higher-confidence side.
func (in *Ingestor) DedupeSweep(ctx context.Context) (int, error) {
	games, err := in.repo.ListGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: list games: %w", err)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].CanonicalName < games[j].CanonicalName })

	merged := 0
	consumed := make(map[string]bool, len(games))
	for i, start := range games {
		if consumed[start.ID] {
			continue
		}
		a := start
		for j := i + 1; j < len(games); j++ {
			b := games[j]
			if consumed[b.ID] || a.ID == b.ID {
				continue
			}
			if textsim.Ratio(strings.ToLower(a.CanonicalName), strings.ToLower(b.CanonicalName)) < dedupRatioThreshold {
				continue
			}
			winner, loser := a, b
			if b.Confidence > a.Confidence {
				winner, loser = b, a
			}
			combined := &model.Game{
				ID:                winner.ID,
				CanonicalName:     winner.CanonicalName,
				Series:            firstNonEmpty(winner.Series, loser.Series),
				Genre:             firstNonEmpty(winner.Genre, loser.Genre),
				ReleaseYear:       winner.ReleaseYear,
				CompletionStatus:  winner.CompletionStatus,
				TotalEpisodes:     winner.TotalEpisodes + loser.TotalEpisodes,
				TotalPlaytimeMins: winner.TotalPlaytimeMins + loser.TotalPlaytimeMins,
				ExternalID:        winner.ExternalID,
				Confidence:        winner.Confidence,
				LastValidatedAt:   time.Now(),
				PlaylistURL:       firstNonEmpty(winner.PlaylistURL, loser.PlaylistURL),
				StreamURLs:        dedupCaseInsensitive(append(append([]string{}, winner.StreamURLs...), loser.StreamURLs...)),
				FirstPlayedAt:     earlier(winner.FirstPlayedAt, loser.FirstPlayedAt),
			}
			altNames := dedupCaseInsensitive(append(append([]string{}, winner.AlternativeNames...), loser.AlternativeNames...))
			if len(altNames) > 5 {
				altNames = altNames[:5]
			}
			combined.AlternativeNames = altNames

			if combined.ExternalID == nil {
				combined.ExternalID = loser.ExternalID
			}

			if err := in.repo.UpsertGame(ctx, combined); err != nil {
				return merged, fmt.Errorf("catalog: merge %q into %q: %w", loser.CanonicalName, winner.CanonicalName, err)
			}
			if _, err := in.repo.RemoveGame(ctx, loser.ID); err != nil {
				return merged, fmt.Errorf("catalog: remove merged duplicate %q: %w", loser.CanonicalName, err)
			}
			consumed[loser.ID] = true
			a = combined
			merged++
		}
	}
	return merged, nil
}

func earlier(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.Before(b) {
		return a
	}
	return b
}
