package slots

import (
	"testing"
	"time"

	"salonbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 18, hour, minute, 0, 0, ist)
}

func TestCompute(t *testing.T) {
	salon := models.Salon{ID: 1, OpeningTime: "09:00", ClosingTime: "11:00", BarberCount: 1}

	t.Run("CapacityExcludesFullSlot", func(t *testing.T) {
		got, err := Compute(salon, []time.Time{at(9, 30)}, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "10:00", "10:30"}, got)
	})

	t.Run("OpeningEqualsClosing", func(t *testing.T) {
		s := salon
		s.ClosingTime = "09:00"
		got, err := Compute(s, []time.Time{at(9, 0)}, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("OpeningAfterClosing", func(t *testing.T) {
		s := salon
		s.OpeningTime = "18:00"
		got, err := Compute(s, nil, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("PastSlotsFiltered", func(t *testing.T) {
		got, err := Compute(salon, nil, at(0, 0), at(10, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, []string{"10:30"}, got)
	})

	t.Run("SeveralBarbers", func(t *testing.T) {
		s := salon
		s.BarberCount = 2
		booked := []time.Time{at(9, 0), at(9, 0), at(9, 30)}
		got, err := Compute(s, booked, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:30", "10:00", "10:30"}, got)
	})

	t.Run("BookingsOutsideHoursIgnored", func(t *testing.T) {
		booked := []time.Time{at(7, 0), at(11, 0), at(9, 15)}
		got, err := Compute(salon, booked, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, got)
	})

	t.Run("BookingInOtherZoneSameInstant", func(t *testing.T) {
		booked := []time.Time{at(9, 30).UTC()}
		got, err := Compute(salon, booked, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.NotContains(t, got, "09:30")
	})

	t.Run("AnchoredToTargetDay", func(t *testing.T) {
		// 20:00 UTC on the 17th is already the 18th in IST.
		target := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
		got, err := Compute(salon, []time.Time{at(9, 30)}, target, at(8, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "10:00", "10:30"}, got)
	})

	t.Run("FutureDayIgnoresNowTimeOfDay", func(t *testing.T) {
		got, err := Compute(salon, nil, at(0, 0).AddDate(0, 0, 1), at(23, 0), ist)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("SecondsInHoursAccepted", func(t *testing.T) {
		s := salon
		s.OpeningTime = "09:00:00"
		s.ClosingTime = "10:00:00"
		got, err := Compute(s, nil, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "09:30"}, got)
	})

	t.Run("InvalidHours", func(t *testing.T) {
		s := salon
		s.OpeningTime = "nine"
		_, err := Compute(s, nil, at(0, 0), at(8, 0), ist)
		assert.ErrorIs(t, err, ErrInvalidHours)
	})

	t.Run("Deterministic", func(t *testing.T) {
		booked := []time.Time{at(10, 0)}
		first, err := Compute(salon, booked, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		second, err := Compute(salon, booked, at(0, 0), at(8, 0), ist)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestComputeNeverExceedsCapacity(t *testing.T) {
	salon := models.Salon{OpeningTime: "08:00", ClosingTime: "20:00"}
	booked := []time.Time{at(8, 0), at(8, 0), at(8, 0), at(12, 30), at(12, 30), at(19, 30)}
	counts := map[string]int{"08:00": 3, "12:30": 2, "19:30": 1}

	for k := 1; k <= 4; k++ {
		salon.BarberCount = k
		got, err := Compute(salon, booked, at(0, 0), at(7, 0), ist)
		require.NoError(t, err)

		for i, label := range got {
			assert.Less(t, counts[label], k, "slot %s with %d barbers", label, k)
			if i > 0 {
				assert.Less(t, got[i-1], label)
			}
		}
	}
}

func TestAt(t *testing.T) {
	got, err := At(time.Date(2026, 10, 18, 0, 0, 0, 0, ist), "14:30", ist)
	require.NoError(t, err)
	assert.True(t, got.Equal(at(14, 30)))

	_, err = At(at(0, 0), "25:00", ist)
	assert.ErrorIs(t, err, ErrInvalidHours)

	_, err = At(at(0, 0), "1430", ist)
	assert.ErrorIs(t, err, ErrInvalidHours)
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(at(15, 45), ist)
	assert.True(t, start.Equal(at(0, 0)))
	assert.True(t, end.Equal(at(0, 0).AddDate(0, 0, 1)))
}
