package aidispatcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/aicache"
	"github.com/jonesy-ops/ash/internal/aierrors"
	"github.com/jonesy-ops/ash/internal/aiprovider"
	"github.com/jonesy-ops/ash/internal/config"
	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/ratelimit"
)

type fakeProvider struct {
	name     string
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, params aiprovider.GenerateParams) (*aiprovider.GenerateResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &aiprovider.GenerateResponse{Content: f.response}, nil
}

func newTestDispatcher(primary, backup aiprovider.Provider) *Dispatcher {
	personas := config.Personas{
		platform.TierStandard: {Tier: platform.TierStandard, SystemPrompt: "You are Ash."},
	}
	limiter := ratelimit.New(ratelimit.GlobalQuota{})
	return New(primary, backup, aicache.New(), limiter, personas, zerolog.Nop())
}

func TestDispatchReturnsPrimaryResponse(t *testing.T) {
	primary := &fakeProvider{name: "primary", response: "Hello there."}
	d := newTestDispatcher(primary, nil)

	resp := d.Dispatch(context.Background(), Request{UserID: "u1", Tier: platform.TierStandard, Priority: model.PriorityMedium, Prompt: "hi"})
	require.Equal(t, aierrors.OutcomeOK, resp.Outcome)
	require.Equal(t, "Hello there.", resp.Text)
	require.Equal(t, 1, primary.calls)
}

func TestDispatchFailsOverToBackup(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("503 server_error")}
	backup := &fakeProvider{name: "backup", response: "Backup answer."}
	d := newTestDispatcher(primary, backup)

	resp := d.Dispatch(context.Background(), Request{UserID: "u1", Tier: platform.TierStandard, Priority: model.PriorityMedium, Prompt: "hi"})
	require.Equal(t, aierrors.OutcomeOK, resp.Outcome)
	require.Equal(t, "Backup answer.", resp.Text)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, backup.calls)
}

func TestDispatchReturnsUpstreamErrorWhenBothFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	backup := &fakeProvider{name: "backup", err: errors.New("also boom")}
	d := newTestDispatcher(primary, backup)

	resp := d.Dispatch(context.Background(), Request{UserID: "u1", Tier: platform.TierStandard, Priority: model.PriorityMedium, Prompt: "hi"})
	require.Equal(t, aierrors.OutcomeUpstreamError, resp.Outcome)
}

func TestDispatchReturnsCachedResponseWithoutCallingProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", response: "first answer."}
	d := newTestDispatcher(primary, nil)

	req := Request{UserID: "u1", Tier: platform.TierStandard, Priority: model.PriorityMedium, Prompt: "what is hollow knight"}
	first := d.Dispatch(context.Background(), req)
	require.Equal(t, aierrors.OutcomeOK, first.Outcome)

	second := d.Dispatch(context.Background(), req)
	require.True(t, second.FromCache)
	require.Equal(t, 1, primary.calls, "second identical request should be served from cache")
}

func TestDispatchDisabledReturnsWithoutCallingProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", response: "should not be reached"}
	d := newTestDispatcher(primary, nil)
	d.SetEnabled(false)

	resp := d.Dispatch(context.Background(), Request{UserID: "u1", Tier: platform.TierStandard, Priority: model.PriorityMedium, Prompt: "hi"})
	require.Equal(t, aierrors.OutcomeDisabled, resp.Outcome)
	require.Equal(t, 0, primary.calls)
}

func TestFilterResponseCapsAndDedupsSentences(t *testing.T) {
	text := "Hello! Hello! One. Two. Three. Four. Five."
	out := filterResponse(text, nil)
	require.Equal(t, "Hello! One. Two. Three.", out)
}

func TestFilterResponseDedupsDeniedPhrases(t *testing.T) {
	text := "I love gaming. I love gaming so much today."
	out := filterResponse(text, []string{"I love gaming"})
	require.Equal(t, 1, strings.Count(out, "I love gaming"))
}
