package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"silah_dispatcher/internal/domain/announcement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{
		all:     []string{"u-1", "u-2", "u-3", "u-2"},
		active:  []string{"u-2"},
		premium: []string{"u-3"},
	}
	r := NewResolver(dir, 0)

	cases := []struct {
		name   string
		rule   announcement.TargetRule
		custom []string
		want   []string
	}{
		{"all deduplicated", announcement.TargetAll, nil, []string{"u-1", "u-2", "u-3"}},
		{"active", announcement.TargetActive, nil, []string{"u-2"}},
		{"premium", announcement.TargetPremium, nil, []string{"u-3"}},
		{"custom exact", announcement.TargetCustom, []string{"a", " b ", "", "a"}, []string{"a", "b"}},
		{"custom empty", announcement.TargetCustom, nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tc.rule, tc.custom, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_ActiveUsesTrailingWindow(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{}

	_, err := NewResolver(dir, 0).Resolve(context.Background(), announcement.TargetActive, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), dir.sinceArg)

	_, err = NewResolver(dir, 48*time.Hour).Resolve(context.Background(), announcement.TargetActive, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-48*time.Hour), dir.sinceArg)
}

func TestResolve_Errors(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, 0)
	_, err := r.Resolve(context.Background(), "vip", nil, time.Now())
	assert.ErrorIs(t, err, ErrUnknownTargetRule)

	failing := NewResolver(&fakeDirectory{err: errors.New("boom")}, 0)
	_, err = failing.Resolve(context.Background(), announcement.TargetAll, nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve all recipients")
}
