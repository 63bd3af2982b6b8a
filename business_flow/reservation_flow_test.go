package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/mekankolik/mekankolik-api/app/dto"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		metadata := testMetadata()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		t.Run("SuccessfulBooking", func(t *testing.T) {
			resp, err := env.reservationFlow.CreateReservation(ctx, &dto.CreateReservationRequest{
				UserID:          user.ID,
				BusinessID:      business.ID,
				ReservationTime: utils.UTCNow().Add(48 * time.Hour),
				NumberOfPeople:  4,
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.ReservationStatusPending), resp.Status)
			assert.NotZero(t, resp.ReservationID)

			reservation, err := env.reservationRepo.ByID(ctx, resp.ReservationID)
			require.NoError(t, err)
			require.NotNil(t, reservation)
			assert.Equal(t, user.ID, reservation.UserID)
			assert.Equal(t, 4, reservation.NumberOfPeople)
		})

		t.Run("BookingFeedsCampaignProgress", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			assignment, err := fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			_, err = env.reservationFlow.CreateReservation(ctx, &dto.CreateReservationRequest{
				UserID:          user.ID,
				BusinessID:      business.ID,
				ReservationTime: utils.UTCNow().Add(72 * time.Hour),
				NumberOfPeople:  2,
			}, metadata)
			require.NoError(t, err)

			progress, err := env.progressRepo.ByAssignmentID(ctx, assignment.ID)
			require.NoError(t, err)
			require.NotNil(t, progress)
			assert.Equal(t, 1, progress.ReservationsMade)
			assert.Equal(t, 1, progress.BusinessesVisited)
		})

		t.Run("PastReservationTimeRejected", func(t *testing.T) {
			_, err := env.reservationFlow.CreateReservation(ctx, &dto.CreateReservationRequest{
				UserID:          user.ID,
				BusinessID:      business.ID,
				ReservationTime: utils.UTCNow().Add(-time.Hour),
				NumberOfPeople:  2,
			}, metadata)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrReservationInPast)
		})

		t.Run("PartySizeOutOfRange", func(t *testing.T) {
			for _, people := range []int{0, utils.MaxReservationPeople + 1} {
				_, err := env.reservationFlow.CreateReservation(ctx, &dto.CreateReservationRequest{
					UserID:          user.ID,
					BusinessID:      business.ID,
					ReservationTime: utils.UTCNow().Add(24 * time.Hour),
					NumberOfPeople:  people,
				}, metadata)
				require.Error(t, err)
				assert.ErrorIs(t, err, businessflow.ErrReservationPeopleInvalid)
			}
		})

		t.Run("UnknownBusinessRejected", func(t *testing.T) {
			_, err := env.reservationFlow.CreateReservation(ctx, &dto.CreateReservationRequest{
				UserID:          user.ID,
				BusinessID:      999999,
				ReservationTime: utils.UTCNow().Add(24 * time.Hour),
				NumberOfPeople:  2,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCancelReservation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		metadata := testMetadata()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		t.Run("CancelBeforeCutoff", func(t *testing.T) {
			reservation, err := fixtures.CreateTestReservation(user.ID, business.ID)
			require.NoError(t, err)

			_, err = env.reservationFlow.CancelReservation(ctx, &dto.CancelReservationRequest{
				UserID:        user.ID,
				ReservationID: reservation.ID,
			}, metadata)
			require.NoError(t, err)

			updated, err := env.reservationRepo.ByID(ctx, reservation.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, models.ReservationStatusCancelled, updated.Status)
		})

		t.Run("StrangerCannotCancel", func(t *testing.T) {
			reservation, err := fixtures.CreateTestReservation(user.ID, business.ID)
			require.NoError(t, err)

			_, err = env.reservationFlow.CancelReservation(ctx, &dto.CancelReservationRequest{
				UserID:        stranger.ID,
				ReservationID: reservation.ID,
			}, metadata)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrReservationNotOwned)
		})

		t.Run("TooCloseToReservationTime", func(t *testing.T) {
			reservation := &models.Reservation{
				UserID:          user.ID,
				BusinessID:      business.ID,
				ReservationTime: utils.UTCNow().Add(30 * time.Minute),
				NumberOfPeople:  2,
				Status:          models.ReservationStatusConfirmed,
			}
			require.NoError(t, testDB.DB.Create(reservation).Error)

			_, err := env.reservationFlow.CancelReservation(ctx, &dto.CancelReservationRequest{
				UserID:        user.ID,
				ReservationID: reservation.ID,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReservationNotCancelable(err))
		})

		t.Run("CompletedReservationStaysPut", func(t *testing.T) {
			reservation, err := fixtures.CreateTestReservation(user.ID, business.ID)
			require.NoError(t, err)
			require.NoError(t, env.reservationRepo.UpdateStatus(ctx, reservation.ID, models.ReservationStatusCompleted))

			_, err = env.reservationFlow.CancelReservation(ctx, &dto.CancelReservationRequest{
				UserID:        user.ID,
				ReservationID: reservation.ID,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReservationNotCancelable(err))
		})

		t.Run("UnknownReservation", func(t *testing.T) {
			_, err := env.reservationFlow.CancelReservation(ctx, &dto.CancelReservationRequest{
				UserID:        user.ID,
				ReservationID: 999999,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReservationNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListMyReservations(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		soon := &models.Reservation{
			UserID:          user.ID,
			BusinessID:      business.ID,
			ReservationTime: utils.UTCNow().Add(20 * time.Minute),
			NumberOfPeople:  2,
			Status:          models.ReservationStatusConfirmed,
		}
		require.NoError(t, testDB.DB.Create(soon).Error)
		later, err := fixtures.CreateTestReservation(user.ID, business.ID)
		require.NoError(t, err)

		resp, err := env.reservationFlow.ListMyReservations(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)

		// Newest reservation time first, cutoff decides cancellability.
		assert.Equal(t, later.ID, resp.Items[0].ID)
		assert.True(t, resp.Items[0].CanCancel)
		assert.Equal(t, soon.ID, resp.Items[1].ID)
		assert.False(t, resp.Items[1].CanCancel)

		return nil
	})
	require.NoError(t, err)
}
