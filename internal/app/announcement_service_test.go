package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"silah_dispatcher/internal/domain/announcement"
	"silah_dispatcher/internal/domain/delivery"
	"silah_dispatcher/internal/domain/device"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var announceNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func dueAnnouncement(id string, rule announcement.TargetRule, custom ...string) *announcement.Announcement {
	return &announcement.Announcement{
		ID:                 id,
		Title:              "رمضان كريم",
		Body:               "كل عام وأنتم بخير",
		TargetRule:         rule,
		CustomRecipientIDs: custom,
		ScheduledFor:       sql.NullTime{Time: announceNow.Add(-time.Minute), Valid: true},
		Status:             announcement.StatusScheduled,
	}
}

func newAnnouncementFixture(dir *fakeDirectory, items ...*announcement.Announcement) (*AnnouncementService, *fakeAnnouncements, *dispatchFixture) {
	df := newDispatchFixture()
	repo := newFakeAnnouncements(items...)
	svc := NewAnnouncementService(repo, NewResolver(dir, 0), df.d, nullLogger())
	svc.now = func() time.Time { return announceNow }
	return svc, repo, df
}

func TestAnnouncementRun_DeliversAndMarksSent(t *testing.T) {
	dir := &fakeDirectory{all: []string{"u-1", "u-2", "u-3"}}
	svc, repo, df := newAnnouncementFixture(dir, dueAnnouncement("a-1", announcement.TargetAll))
	df.devices.endpoints["u-1"] = []device.Endpoint{androidEndpoint("u-1", "tok-1")}
	df.devices.endpoints["u-2"] = []device.Endpoint{iosEndpoint("u-2", "tok-2")}
	df.sender.fail["tok-2"] = errors.New("unregistered")

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AnnouncementReport{Processed: 1, Sent: 1, Failed: 1}, report)

	a := repo.items["a-1"]
	assert.Equal(t, announcement.StatusSent, a.Status)
	assert.True(t, a.SentAt.Valid)
	assert.Equal(t, announcement.Result{Recipients: 3, Sent: 1, Failed: 1}, repo.results["a-1"])

	require.Len(t, df.sender.sent, 1)
	assert.Equal(t, "a-1", df.sender.sent[0].Data["announcement_id"])
	assert.Equal(t, "announcement", df.sender.sent[0].Data["type"])
}

func TestAnnouncementRun_CustomTargetsExactlyTheListedUsers(t *testing.T) {
	dir := &fakeDirectory{all: []string{"u-1", "u-2", "u-3"}}
	svc, _, df := newAnnouncementFixture(dir, dueAnnouncement("a-1", announcement.TargetCustom, "u-1", "u-3", "u-1"))
	for _, id := range dir.all {
		df.devices.endpoints[id] = []device.Endpoint{androidEndpoint(id, "tok-"+id)}
	}

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-3"}, df.devices.lookups)
}

func TestAnnouncementRun_DispatchFailureRevertsToDraft(t *testing.T) {
	dir := &fakeDirectory{all: []string{"u-1"}}
	svc, repo, df := newAnnouncementFixture(dir, dueAnnouncement("a-1", announcement.TargetAll))
	df.tokens.err = errors.New("invalid_grant")

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AnnouncementReport{Reverted: 1}, report)
	assert.Equal(t, announcement.StatusDraft, repo.items["a-1"].Status)
	assert.False(t, repo.items["a-1"].SentAt.Valid)
}

func TestAnnouncementRun_JobDeadlineMidDispatchStillRevertsToDraft(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	df := newDispatchFixture()
	df.devices.endpoints["u-1"] = []device.Endpoint{androidEndpoint("u-1", "tok-1")}
	df.devices.endpoints["u-2"] = []device.Endpoint{androidEndpoint("u-2", "tok-2")}
	sender := &cancellingSender{fakeSender: df.sender, cancel: cancel}
	d := NewDispatcher(df.devices, df.tokens, sender, df.sink, DispatcherConfig{SendTimeout: time.Second}, nullLogger())

	repo := newFakeAnnouncements(dueAnnouncement("a-1", announcement.TargetCustom, "u-1", "u-2"))
	svc := NewAnnouncementService(repo, NewResolver(&fakeDirectory{}, 0), d, nullLogger())
	svc.now = func() time.Time { return announceNow }

	report, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Error(t, ctx.Err(), "job context expired during dispatch")
	assert.Equal(t, AnnouncementReport{Reverted: 1}, report)
	assert.Equal(t, announcement.StatusDraft, repo.items["a-1"].Status)
	assert.Len(t, df.sender.sent, 1)
}

func TestAnnouncementRun_MarkFailureRevertsToDraft(t *testing.T) {
	dir := &fakeDirectory{all: []string{"u-1"}}
	svc, repo, df := newAnnouncementFixture(dir, dueAnnouncement("a-1", announcement.TargetAll))
	df.devices.endpoints["u-1"] = []device.Endpoint{androidEndpoint("u-1", "tok-1")}
	repo.markErr = errors.New("connection reset")

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AnnouncementReport{Unconfirmed: 1}, report, "counts are reported only for announcements marked sent")
	assert.Equal(t, announcement.StatusDraft, repo.items["a-1"].Status)
	assert.Len(t, df.sender.sent, 1)
}

func TestAnnouncementRun_ResolveFailureRevertsToDraft(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("profiles unavailable")}
	svc, repo, _ := newAnnouncementFixture(dir, dueAnnouncement("a-1", announcement.TargetPremium))

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reverted)
	assert.Equal(t, announcement.StatusDraft, repo.items["a-1"].Status)
}

func TestAnnouncementRun_UnknownRuleRevertsToDraft(t *testing.T) {
	svc, repo, _ := newAnnouncementFixture(&fakeDirectory{}, dueAnnouncement("a-1", "everyone"))

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announcement.StatusDraft, repo.items["a-1"].Status)
}

func TestAnnouncementRun_EmptyAudienceIsStillMarkedSent(t *testing.T) {
	svc, repo, df := newAnnouncementFixture(&fakeDirectory{}, dueAnnouncement("a-1", announcement.TargetAll))

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, announcement.StatusSent, repo.items["a-1"].Status)
	assert.Equal(t, announcement.Result{}, repo.results["a-1"])
	assert.Equal(t, 0, df.tokens.calls)
}

func TestAnnouncementRun_LostClaimIsSkipped(t *testing.T) {
	dir := &fakeDirectory{all: []string{"u-1"}}
	a := dueAnnouncement("a-1", announcement.TargetAll)
	svc, repo, df := newAnnouncementFixture(dir, a)
	df.devices.endpoints["u-1"] = []device.Endpoint{androidEndpoint("u-1", "tok-1")}

	// Another run claims it between listing and claiming.
	due, err := repo.ListDue(context.Background(), announceNow)
	require.NoError(t, err)
	require.Len(t, due, 1)
	_, _ = repo.Claim(context.Background(), "a-1")
	svc.announcements = &stickyList{fakeAnnouncements: repo, due: due}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AnnouncementReport{}, report)
	assert.Equal(t, announcement.StatusSending, repo.items["a-1"].Status)
	assert.Empty(t, df.sender.sent)
}

func TestAnnouncementRun_FutureAnnouncementIsNotDue(t *testing.T) {
	a := dueAnnouncement("a-1", announcement.TargetAll)
	a.ScheduledFor.Time = announceNow.Add(time.Hour)
	svc, repo, _ := newAnnouncementFixture(&fakeDirectory{all: []string{"u-1"}}, a)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AnnouncementReport{}, report)
	assert.Equal(t, announcement.StatusScheduled, repo.items["a-1"].Status)
}

func TestAnnouncementRun_ListFailureIsReturned(t *testing.T) {
	svc, repo, _ := newAnnouncementFixture(&fakeDirectory{})
	repo.listErr = errors.New("timeout")

	_, err := svc.Run(context.Background())
	require.Error(t, err)
}

// cancellingSender cancels the job context once the first push goes out.
type cancellingSender struct {
	*fakeSender
	cancel context.CancelFunc
}

func (c *cancellingSender) Send(ctx context.Context, accessToken string, msg delivery.Message) error {
	err := c.fakeSender.Send(ctx, accessToken, msg)
	c.cancel()
	return err
}

// stickyList replays a stale due list, as a concurrent run would have observed it.
type stickyList struct {
	*fakeAnnouncements
	due []*announcement.Announcement
}

func (s *stickyList) ListDue(context.Context, time.Time) ([]*announcement.Announcement, error) {
	return s.due, nil
}
