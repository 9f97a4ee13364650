package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

type fakeGateway struct {
	muted, kicked, banned []string
	posted                []string
}

func (f *fakeGateway) SendMessage(ctx context.Context, targetID, text string) (string, error) {
	f.posted = append(f.posted, targetID+":"+text)
	return "msg-1", nil
}
func (f *fakeGateway) React(ctx context.Context, messageID, emoji string) error { return nil }
func (f *fakeGateway) Mute(ctx context.Context, guildID, userID, reason string) error {
	f.muted = append(f.muted, userID)
	return nil
}
func (f *fakeGateway) Kick(ctx context.Context, guildID, userID, reason string) error {
	f.kicked = append(f.kicked, userID)
	return nil
}
func (f *fakeGateway) Ban(ctx context.Context, guildID, userID, reason string) error {
	f.banned = append(f.banned, userID)
	return nil
}

func TestDueRequiresGracePeriodElapsed(t *testing.T) {
	scheduled := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	r := &model.Reminder{
		Status:      model.ReminderDelivered,
		ScheduledAt: scheduled,
		AutoAction:  &model.AutoAction{Kind: model.AutoActionMute, TargetUserID: "u1"},
	}
	require.False(t, Due(r, scheduled.Add(4*time.Minute)))
	require.True(t, Due(r, scheduled.Add(6*time.Minute)))
}

func TestDueFalseWithoutAutoAction(t *testing.T) {
	r := &model.Reminder{Status: model.ReminderDelivered, ScheduledAt: time.Now().Add(-time.Hour)}
	require.False(t, Due(r, time.Now()))
}

func TestRunnerExecuteMute(t *testing.T) {
	gw := &fakeGateway{}
	run := Runner{Gateway: gw, GuildID: "g1"}
	r := &model.Reminder{AutoAction: &model.AutoAction{Kind: model.AutoActionMute, TargetUserID: "u1"}}
	require.NoError(t, run.Execute(context.Background(), r))
	require.Equal(t, []string{"u1"}, gw.muted)
}

func TestRunnerExecuteYouTubePost(t *testing.T) {
	gw := &fakeGateway{}
	run := Runner{Gateway: gw, GuildID: "g1", YouTubePostChannelID: "yt-chan"}
	r := &model.Reminder{AutoAction: &model.AutoAction{Kind: model.AutoActionYouTubePost, PayloadURL: "https://youtu.be/x"}}
	require.NoError(t, run.Execute(context.Background(), r))
	require.Equal(t, []string{"yt-chan:https://youtu.be/x"}, gw.posted)
}
