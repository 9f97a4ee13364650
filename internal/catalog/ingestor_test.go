package catalog

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/metadata"
	"github.com/jonesy-ops/ash/internal/repository"
)

func openTestRepo(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

type fakeIdentity struct {
	canonical  string
	confidence float64
	altNames   []string
	externalID int64
}

func (f fakeIdentity) Validate(candidate string) (string, float64, bool) {
	return f.canonical, f.confidence, true
}

func (f fakeIdentity) Lookup(ctx context.Context, candidate string) (*metadata.Result, error) {
	return &metadata.Result{
		ExternalID:       f.externalID,
		CanonicalName:    f.canonical,
		AlternativeNames: f.altNames,
	}, nil
}

type fakeVideoSource struct {
	records []VideoRecord
	err     error
}

func (f fakeVideoSource) FetchPlaylists() ([]VideoRecord, error) { return f.records, f.err }

type fakeStreamSource struct {
	records []StreamRecord
	err     error
}

func (f fakeStreamSource) FetchStreams() ([]StreamRecord, error) { return f.records, f.err }

func TestRunAcceptsHighConfidenceFallbackIdentity(t *testing.T) {
	repo := openTestRepo(t)
	identity := fakeIdentity{canonical: "Hollow Knight", confidence: 0.95, altNames: []string{"HK"}, externalID: 100}
	video := fakeVideoSource{records: []VideoRecord{
		{PlaylistID: "pl1", Title: "Boss Rush - Hollow Knight (day 3)", Items: []VideoItem{{DurationSeconds: 600, Views: 10}}},
	}}

	ing := New(repo, identity, video, nil, zerolog.Nop())
	summary, err := ing.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Accepted)
	require.Equal(t, 0, summary.NeedsReview)

	game, err := repo.FindGameByName(context.Background(), "Hollow Knight")
	require.NoError(t, err)
	require.NotNil(t, game)
	require.Equal(t, []string{"HK"}, game.AlternativeNames)
	require.NotNil(t, game.ExternalID)
	require.Equal(t, int64(100), *game.ExternalID)
}

func TestRunFlagsEmptyAltNamesForReview(t *testing.T) {
	repo := openTestRepo(t)
	identity := fakeIdentity{canonical: "Obscure Game", confidence: 0.9, externalID: 5}
	video := fakeVideoSource{records: []VideoRecord{
		{PlaylistID: "pl2", Title: "Let's Play - Obscure Game", Items: []VideoItem{{DurationSeconds: 300}}},
	}}

	ing := New(repo, identity, video, nil, zerolog.Nop())
	summary, err := ing.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.NeedsReview)

	game, err := repo.FindGameByName(context.Background(), "Obscure Game")
	require.NoError(t, err)
	require.Equal(t, 0.5, game.Confidence)
}

func TestRunUsesPrimaryIdentityPathWhenGameIDPresent(t *testing.T) {
	repo := openTestRepo(t)
	identity := fakeIdentity{canonical: "should not be used", confidence: 0.1}
	stream := fakeStreamSource{records: []StreamRecord{
		{Title: "Friday Night Stream", DurationSeconds: 1200, GameID: "plat-123", GameName: "Celeste", ArchiveURL: "https://example.com/vod/1"},
	}}

	ing := New(repo, identity, nil, stream, zerolog.Nop())
	summary, err := ing.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Accepted)

	game, err := repo.FindGameByName(context.Background(), "Celeste")
	require.NoError(t, err)
	require.NotNil(t, game)
	require.Equal(t, 1.0, game.Confidence)
}

func TestRunMergesEpisodeCountMonotonically(t *testing.T) {
	repo := openTestRepo(t)
	identity := fakeIdentity{canonical: "Zombie Army 4", confidence: 0.95, altNames: []string{"ZA4"}, externalID: 42}

	video1 := fakeVideoSource{records: []VideoRecord{
		{PlaylistID: "p1", Title: "Zombie Army 4 - Episode 1", Items: []VideoItem{{DurationSeconds: 600}, {DurationSeconds: 600}}},
	}}
	ing1 := New(repo, identity, video1, nil, zerolog.Nop())
	_, err := ing1.Run(context.Background())
	require.NoError(t, err)

	video2 := fakeVideoSource{records: []VideoRecord{
		{PlaylistID: "p1", Title: "Zombie Army 4 - Episode 1", Items: []VideoItem{{DurationSeconds: 600}}},
	}}
	ing2 := New(repo, identity, video2, nil, zerolog.Nop())
	_, err = ing2.Run(context.Background())
	require.NoError(t, err)

	game, err := repo.FindGameByName(context.Background(), "Zombie Army 4")
	require.NoError(t, err)
	require.Equal(t, 2, game.TotalEpisodes, "episode count must not decrease on a smaller subsequent fetch")
}

func TestRunAbortsAboveFailureThreshold(t *testing.T) {
	repo := openTestRepo(t)
	identity := fakeIdentity{canonical: "", confidence: 0}
	var records []VideoRecord
	for i := 0; i < 10; i++ {
		records = append(records, VideoRecord{PlaylistID: "p", Title: "???"})
	}
	video := fakeVideoSource{records: records}

	ing := New(repo, identity, video, nil, zerolog.Nop())
	_, err := ing.Run(context.Background())
	require.Error(t, err)
}

func TestDedupeSweepMergesNearDuplicates(t *testing.T) {
	repo := openTestRepo(t)
	identityA := fakeIdentity{canonical: "Hollow Knight", confidence: 0.9, altNames: []string{"HK"}, externalID: 1}
	identityB := fakeIdentity{canonical: "Hollow Knigt", confidence: 0.9, altNames: []string{"HK2"}, externalID: 2}

	videoA := fakeVideoSource{records: []VideoRecord{{PlaylistID: "a", Title: "Playthrough - Hollow Knight", Items: []VideoItem{{DurationSeconds: 600}}}}}
	videoB := fakeVideoSource{records: []VideoRecord{{PlaylistID: "b", Title: "Playthrough - Hollow Knigt", Items: []VideoItem{{DurationSeconds: 600}}}}}

	_, err := New(repo, identityA, videoA, nil, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	_, err = New(repo, identityB, videoB, nil, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	ing := New(repo, identityA, nil, nil, zerolog.Nop())
	merged, err := ing.DedupeSweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, merged)

	games, err := repo.ListGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, 2, games[0].TotalEpisodes)
}
