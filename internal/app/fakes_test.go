package app

import (
	"context"
	"sync"
	"time"

	"silah_dispatcher/internal/domain/announcement"
	"silah_dispatcher/internal/domain/delivery"
	"silah_dispatcher/internal/domain/device"
	"silah_dispatcher/internal/domain/recipient"
	"silah_dispatcher/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func nullLogger() *logrus.Entry {
	l, _ := logtest.NewNullLogger()
	return logrus.NewEntry(l)
}

// --- delivery side ---

type fakeDevices struct {
	endpoints map[string][]device.Endpoint
	errs      map[string]error
	lookups   []string
}

func (f *fakeDevices) ListActive(_ context.Context, userID string) ([]device.Endpoint, error) {
	f.lookups = append(f.lookups, userID)
	if err, ok := f.errs[userID]; ok {
		return nil, err
	}
	return f.endpoints[userID], nil
}

func androidEndpoint(userID, token string) device.Endpoint {
	return device.Endpoint{UserID: userID, Token: token, Platform: device.PlatformAndroid, IsActive: true}
}

func iosEndpoint(userID, token string) device.Endpoint {
	return device.Endpoint{UserID: userID, Token: token, Platform: device.PlatformIOS, IsActive: true}
}

type fakeTokens struct {
	token string
	err   error
	calls int
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeSender struct {
	mu     sync.Mutex
	fail   map[string]error // by endpoint token
	sent   []delivery.Message
	bearer []string
}

func (f *fakeSender) Send(_ context.Context, accessToken string, msg delivery.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bearer = append(f.bearer, accessToken)
	if err, ok := f.fail[msg.Token]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSink struct {
	records []*delivery.Record
	err     error
}

func (f *fakeSink) Append(_ context.Context, rec *delivery.Record) error {
	f.records = append(f.records, rec)
	return f.err
}

func (f *fakeSink) byUser(userID string) []*delivery.Record {
	var out []*delivery.Record
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

type dispatchFixture struct {
	devices *fakeDevices
	tokens  *fakeTokens
	sender  *fakeSender
	sink    *fakeSink
	d       *Dispatcher
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		devices: &fakeDevices{endpoints: map[string][]device.Endpoint{}, errs: map[string]error{}},
		tokens:  &fakeTokens{token: "bearer-1"},
		sender:  &fakeSender{fail: map[string]error{}},
		sink:    &fakeSink{},
	}
	f.d = NewDispatcher(f.devices, f.tokens, f.sender, f.sink, DispatcherConfig{
		AndroidChannel: "silah_reminders",
		SendTimeout:    time.Second,
	}, nullLogger())
	return f
}

// --- stores ---

type fakeSchedules struct {
	due     []*schedule.Schedule
	listErr error
	hours   []int
	marked  map[string]time.Time
	markErr error
}

func (f *fakeSchedules) ListDue(_ context.Context, hour int) ([]*schedule.Schedule, error) {
	f.hours = append(f.hours, hour)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*schedule.Schedule
	for _, s := range f.due {
		if s.IsActive && s.NotificationHour == hour {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSchedules) MarkSent(_ context.Context, id string, sentAt, dayStart time.Time) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.marked == nil {
		f.marked = map[string]time.Time{}
	}
	if prev, ok := f.marked[id]; ok && !prev.Before(dayStart) {
		return false, nil
	}
	f.marked[id] = sentAt
	return true, nil
}

// fakeAnnouncements behaves like a database store: every call fails on a done context.
type fakeAnnouncements struct {
	items   map[string]*announcement.Announcement
	results map[string]announcement.Result
	listErr error
	markErr error
}

func newFakeAnnouncements(items ...*announcement.Announcement) *fakeAnnouncements {
	f := &fakeAnnouncements{items: map[string]*announcement.Announcement{}, results: map[string]announcement.Result{}}
	for _, a := range items {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeAnnouncements) ListDue(ctx context.Context, now time.Time) ([]*announcement.Announcement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*announcement.Announcement
	for _, a := range f.items {
		if a.Status == announcement.StatusScheduled && a.ScheduledFor.Valid && !a.ScheduledFor.Time.After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAnnouncements) move(id string, from, to announcement.Status) bool {
	a, ok := f.items[id]
	if !ok || a.Status != from {
		return false
	}
	a.Status = to
	return true
}

func (f *fakeAnnouncements) Claim(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.move(id, announcement.StatusScheduled, announcement.StatusSending), nil
}

func (f *fakeAnnouncements) MarkSent(ctx context.Context, id string, sentAt time.Time, res announcement.Result) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.markErr != nil {
		return false, f.markErr
	}
	if !f.move(id, announcement.StatusSending, announcement.StatusSent) {
		return false, nil
	}
	f.items[id].SentAt.Time, f.items[id].SentAt.Valid = sentAt, true
	f.results[id] = res
	return true, nil
}

func (f *fakeAnnouncements) RevertToDraft(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.move(id, announcement.StatusSending, announcement.StatusDraft), nil
}

type fakeDirectory struct {
	all      []string
	active   []string
	premium  []string
	streaks  []recipient.StreakState
	err      error
	sinceArg time.Time
}

func (f *fakeDirectory) ListAllIDs(context.Context) ([]string, error) {
	return f.all, f.err
}

func (f *fakeDirectory) ListActiveSince(_ context.Context, since time.Time) ([]string, error) {
	f.sinceArg = since
	return f.active, f.err
}

func (f *fakeDirectory) ListPremiumIDs(context.Context) ([]string, error) {
	return f.premium, f.err
}

func (f *fakeDirectory) ListActiveStreaks(context.Context) ([]recipient.StreakState, error) {
	return f.streaks, f.err
}

type fakeActivity struct {
	active   map[string]bool
	errs     map[string]error
	sinceArg time.Time
	checked  []string
}

func (f *fakeActivity) HasActivitySince(_ context.Context, userID string, since time.Time) (bool, error) {
	f.sinceArg = since
	f.checked = append(f.checked, userID)
	if err, ok := f.errs[userID]; ok {
		return false, err
	}
	return f.active[userID], nil
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	unlocked []string
}

func (f *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held[key] {
		return false, nil
	}
	if f.held == nil {
		f.held = map[string]bool{}
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) Unlock(_ context.Context, key string) error {
	delete(f.held, key)
	f.unlocked = append(f.unlocked, key)
	return nil
}

type fakeReporter struct {
	jobs    []string
	summary []string
	errs    []error
}

func (f *fakeReporter) ReportRun(_ context.Context, job, summary string, runErr error) {
	f.jobs = append(f.jobs, job)
	f.summary = append(f.summary, summary)
	f.errs = append(f.errs, runErr)
}
