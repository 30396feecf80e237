package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapsIsSymmetric(t *testing.T) {
	cases := []struct {
		a, b Interval
	}{
		{Span(At(10, 0), 30), Span(At(10, 15), 30)},
		{Span(At(9, 0), 30), Span(At(9, 30), 30)},
		{Span(At(9, 0), 120), Span(At(9, 30), 15)},
		{Span(At(14, 0), 10), Span(At(8, 0), 10)},
		{Span(At(11, 0), 60), Span(At(11, 0), 60)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.a.Overlaps(tc.b), tc.b.Overlaps(tc.a), "%v vs %v", tc.a, tc.b)
	}
}

func TestTouchingIntervalsDoNotOverlap(t *testing.T) {
	first := Span(At(9, 0), 30)
	second := Span(At(9, 30), 30)
	assert.False(t, first.Overlaps(second))
	assert.False(t, second.Overlaps(first))
}

func TestPartialOverlap(t *testing.T) {
	assert.True(t, Span(At(10, 0), 30).Overlaps(Span(At(10, 15), 30)))
	assert.True(t, Span(At(10, 0), 120).Overlaps(Span(At(10, 30), 15)))
}

func TestGenerateSlotsDefaultDay(t *testing.T) {
	slots := GenerateSlots([]Window{DefaultWorkingHours}, 30, nil)
	require.Len(t, slots, 16)

	assert.Equal(t, At(9, 0), slots[0].Start)
	for i, s := range slots {
		assert.Equal(t, 30, Interval{s.Start, s.End}.Minutes())
		assert.True(t, s.End <= At(17, 0))
		assert.True(t, s.Available)
		if i > 0 {
			assert.Equal(t, slots[i-1].End, s.Start, "slots must be contiguous")
		}
	}
	assert.Equal(t, At(17, 0), slots[len(slots)-1].End)
}

func TestGenerateSlotsMarksBusy(t *testing.T) {
	busy := []Interval{Span(At(10, 0), 30), Span(At(11, 15), 30)}
	slots := GenerateSlots([]Window{{Start: At(10, 0), End: At(12, 0)}}, 30, busy)
	require.Len(t, slots, 4)

	got := make([]bool, len(slots))
	for i, s := range slots {
		got[i] = s.Available
	}
	// 10:00 busy, 10:30 free, 11:00 overlaps 11:15, 11:30 overlaps up to 11:45
	assert.Equal(t, []bool{false, true, false, false}, got)
}

func TestGenerateSlotsDropsPartialTail(t *testing.T) {
	slots := GenerateSlots([]Window{{Start: At(9, 0), End: At(10, 10)}}, 30, nil)
	assert.Len(t, slots, 2)
	assert.Nil(t, GenerateSlots([]Window{DefaultWorkingHours}, 0, nil))
}

func TestFreeSlotsLimit(t *testing.T) {
	slots := GenerateSlots([]Window{DefaultWorkingHours}, 60, []Interval{Span(At(9, 0), 60)})
	free := FreeSlots(slots, 3)
	require.Len(t, free, 3)
	assert.Equal(t, At(10, 0), free[0].Start)
}

func TestWorkingWindows(t *testing.T) {
	monday := NewDate(2025, time.November, 17)
	require.Equal(t, time.Monday, monday.Weekday())

	assert.Equal(t, []Window{DefaultWorkingHours}, WorkingWindows(nil, monday))

	s := WeeklySchedule{
		time.Monday: {
			{Start: At(14, 0), End: At(18, 0)},
			{Start: At(8, 0), End: At(12, 0)},
		},
	}
	windows := WorkingWindows(s, monday)
	require.Len(t, windows, 2)
	assert.Equal(t, At(8, 0), windows[0].Start)

	assert.Empty(t, WorkingWindows(s, monday.AddDays(1)))
}

func TestNormalizeRejectsOverlap(t *testing.T) {
	s := WeeklySchedule{
		time.Tuesday: {
			{Start: At(9, 0), End: At(12, 0)},
			{Start: At(11, 0), End: At(13, 0)},
		},
	}
	assert.Error(t, s.Normalize())

	bad := WeeklySchedule{time.Friday: {{Start: At(12, 0), End: At(9, 0)}}}
	assert.Error(t, bad.Normalize())
}

func TestWeeklyScheduleJSON(t *testing.T) {
	raw := `{"monday":[{"start_time":"09:00","end_time":"13:00"}],"friday":[{"start_time":"10:30","end_time":"12:00"}]}`
	var s WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, At(10, 30), s[time.Friday][0].Start)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"someday":[]}`), &s))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("10:15")
	require.NoError(t, err)
	assert.Equal(t, At(10, 15), c)

	c, err = ParseClock("07:05:00")
	require.NoError(t, err)
	assert.Equal(t, "07:05", c.String())

	for _, bad := range []string{"", "25:00", "10:60", "ten", "1:2:3:4"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockPgRoundTrip(t *testing.T) {
	v, err := At(10, 30).TimeValue()
	require.NoError(t, err)

	var c Clock
	require.NoError(t, c.ScanTime(v))
	assert.Equal(t, At(10, 30), c)

	_, err = At(24, 30).TimeValue()
	assert.Error(t, err)
	assert.Error(t, c.ScanTime(pgtype.Time{}))
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2025-11-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-16", d.AddDays(1).String())
	assert.Equal(t, "20251115", d.Compact())
	assert.True(t, d.Before(d.AddDays(1)))

	v, err := d.DateValue()
	require.NoError(t, err)
	var back Date
	require.NoError(t, back.ScanDate(v))
	assert.Equal(t, d, back)

	_, err = ParseDate("15/11/2025")
	assert.Error(t, err)
}

func TestDateJSON_Zero(t *testing.T) {
	out, err := json.Marshal(struct {
		D Date `json:"d"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(out))

	var in struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &in))
	assert.True(t, in.D.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2030-01-07"}`), &in))
	assert.Equal(t, NewDate(2030, time.January, 7), in.D)
}
