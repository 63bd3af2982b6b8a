package models

import (
	"testing"
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/stretchr/testify/assert"
)

func TestReservationCanCancelAt(t *testing.T) {
	now := utils.UTCNow()

	t.Run("MoreThanOneHourBefore", func(t *testing.T) {
		r := &Reservation{
			Status:          ReservationStatusConfirmed,
			ReservationTime: now.Add(2 * time.Hour),
		}
		assert.True(t, r.CanCancelAt(now))
	})

	t.Run("ExactlyOneHourBeforeIsTooLate", func(t *testing.T) {
		r := &Reservation{
			Status:          ReservationStatusConfirmed,
			ReservationTime: now.Add(utils.ReservationCancelCutoff),
		}
		assert.False(t, r.CanCancelAt(now))
	})

	t.Run("OneSecondPastCutoffIsTooLate", func(t *testing.T) {
		r := &Reservation{
			Status:          ReservationStatusPending,
			ReservationTime: now.Add(utils.ReservationCancelCutoff - time.Second),
		}
		assert.False(t, r.CanCancelAt(now))
	})

	t.Run("OneSecondBeforeCutoffIsAllowed", func(t *testing.T) {
		r := &Reservation{
			Status:          ReservationStatusPending,
			ReservationTime: now.Add(utils.ReservationCancelCutoff + time.Second),
		}
		assert.True(t, r.CanCancelAt(now))
	})

	t.Run("TerminalStatusesAreNotCancellable", func(t *testing.T) {
		for _, status := range []ReservationStatus{
			ReservationStatusCancelled,
			ReservationStatusCompleted,
			ReservationStatusRejected,
		} {
			r := &Reservation{
				Status:          status,
				ReservationTime: now.Add(24 * time.Hour),
			}
			assert.False(t, r.CanCancelAt(now), "status %s", status)
		}
	})
}

func TestReservationStatusValid(t *testing.T) {
	assert.True(t, ReservationStatusPending.Valid())
	assert.True(t, ReservationStatusConfirmed.Valid())
	assert.True(t, ReservationStatusCancelled.Valid())
	assert.True(t, ReservationStatusCompleted.Valid())
	assert.True(t, ReservationStatusRejected.Valid())
	assert.False(t, ReservationStatus("noshow").Valid())
}
