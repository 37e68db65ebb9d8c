package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
)

var base = time.Date(2025, 10, 17, 10, 0, 0, 0, time.UTC)

func TestSchedule_NilApprovesAlways(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	assert.True(t, s.Approve(base))
	assert.True(t, s.Approve(base.Add(1000*time.Hour)))
	assert.Nil(t, s.Def())
}

func TestSchedule_Ranges(t *testing.T) {
	s, err := New(&domain.ScheduleDef{
		Ranges: []domain.TimeRange{
			{Start: base, End: base.Add(time.Hour)},
			{Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour)},
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before first range", base.Add(-time.Minute), false},
		{"inside first range", base.Add(30 * time.Minute), true},
		{"between ranges", base.Add(2 * time.Hour), false},
		{"inside second range", base.Add(3*time.Hour + time.Minute), true},
		{"after all ranges", base.Add(5 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Approve(tt.at))
		})
	}
}

func TestSchedule_CronWindow(t *testing.T) {
	// Every day at 12:00 for 30 minutes.
	s, err := New(&domain.ScheduleDef{Cron: "0 12 * * *", WindowMillis: 30 * 60 * 1000})
	require.NoError(t, err)

	noon := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)

	assert.False(t, s.Approve(noon.Add(-time.Second)))
	assert.True(t, s.Approve(noon))
	assert.True(t, s.Approve(noon.Add(29*time.Minute)))
	assert.False(t, s.Approve(noon.Add(31*time.Minute)))
	assert.True(t, s.Approve(noon.Add(24*time.Hour+time.Minute)), "recurs the next day")
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  *domain.ScheduleDef
	}{
		{"bad cron", &domain.ScheduleDef{Cron: "every day"}},
		{"inverted range", &domain.ScheduleDef{Ranges: []domain.TimeRange{{Start: base, End: base.Add(-time.Hour)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			assert.Error(t, err)
		})
	}
}

func TestSchedule_NextOpening(t *testing.T) {
	s, err := New(&domain.ScheduleDef{
		Ranges: []domain.TimeRange{{Start: base.Add(5 * time.Hour), End: base.Add(6 * time.Hour)}},
		Cron:   "0 12 * * *",
	})
	require.NoError(t, err)

	next, ok := s.NextOpening(base)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC), next, "cron firing at 12:00 precedes the 15:00 range")

	empty, err := New(&domain.ScheduleDef{Ranges: []domain.TimeRange{{Start: base, End: base.Add(time.Hour)}}})
	require.NoError(t, err)
	_, ok = empty.NextOpening(base.Add(2 * time.Hour))
	assert.False(t, ok)
}

func TestSchedule_DefRoundTrip(t *testing.T) {
	def := &domain.ScheduleDef{
		Ranges:       []domain.TimeRange{{Start: base, End: base.Add(time.Hour)}},
		Cron:         "*/5 * * * *",
		WindowMillis: 120000,
	}
	s, err := New(def)
	require.NoError(t, err)

	assert.Equal(t, def, s.Def())
}
