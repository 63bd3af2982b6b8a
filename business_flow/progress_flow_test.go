package businessflow_test

import (
	"testing"

	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEventValidation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		t.Run("UnknownActionRejected", func(t *testing.T) {
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionType("teleport"),
				BusinessID: &business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUnknownActionType(err))
		})

		t.Run("PurchaseWithoutAmountRejected", func(t *testing.T) {
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypePurchase,
				BusinessID: &business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrAmountRequired)
		})

		t.Run("NegativeAmountRejected", func(t *testing.T) {
			amount := decimal.NewFromInt(-10)
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypePurchase,
				BusinessID: &business.ID,
				Amount:     &amount,
			}, testMetadata())
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrAmountNegative)
		})

		t.Run("MissingBusinessRejected", func(t *testing.T) {
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID: user.ID,
				Action: models.ActionTypeComment,
			}, testMetadata())
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrBusinessRequired)
		})

		t.Run("UnknownUserRejected", func(t *testing.T) {
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     999999,
				Action:     models.ActionTypeComment,
				BusinessID: &business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestProgressRowCreatedOnDemand(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
		require.NoError(t, err)
		assignment, err := fixtures.CreateTestAssignment(user.ID, campaign.ID)
		require.NoError(t, err)

		// Simulate an assignment whose progress row never landed.
		err = testDB.DB.Where("assignment_id = ?", assignment.ID).
			Delete(&models.CampaignProgress{}).Error
		require.NoError(t, err)

		err = env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
			UserID:     user.ID,
			Action:     models.ActionTypeComment,
			BusinessID: &business.ID,
		}, testMetadata())
		require.NoError(t, err)

		progress, err := env.progressRepo.ByAssignmentID(ctx, assignment.ID)
		require.NoError(t, err)
		require.NotNil(t, progress)
		assert.Equal(t, user.ID, progress.UserID)
		assert.Equal(t, campaign.ID, progress.CampaignID)
		assert.Equal(t, 1, progress.CommentsMade)

		return nil
	})
	require.NoError(t, err)
}

func TestRecordEventCounters(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)
		otherBusiness, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
		require.NoError(t, err)
		assignment, err := fixtures.CreateTestAssignment(user.ID, campaign.ID)
		require.NoError(t, err)

		progressOf := func(t *testing.T) *models.CampaignProgress {
			t.Helper()
			progress, err := env.progressRepo.ByAssignmentID(ctx, assignment.ID)
			require.NoError(t, err)
			require.NotNil(t, progress)
			return progress
		}

		t.Run("CommentIncrementsCommentsMade", func(t *testing.T) {
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypeComment,
				BusinessID: &business.ID,
			}, testMetadata())
			require.NoError(t, err)

			progress := progressOf(t)
			assert.Equal(t, 1, progress.CommentsMade)
			assert.Equal(t, 0, progress.ReservationsMade)
		})

		t.Run("FirstReservationAtBusinessCountsAsVisit", func(t *testing.T) {
			reservation, err := fixtures.CreateTestReservation(user.ID, business.ID)
			require.NoError(t, err)

			err = env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:        user.ID,
				Action:        models.ActionTypeReservation,
				BusinessID:    &business.ID,
				ReservationID: reservation.ID,
			}, testMetadata())
			require.NoError(t, err)

			progress := progressOf(t)
			assert.Equal(t, 1, progress.ReservationsMade)
			assert.Equal(t, 1, progress.BusinessesVisited)
		})

		t.Run("RepeatReservationAtSameBusinessIsNotANewVisit", func(t *testing.T) {
			reservation, err := fixtures.CreateTestReservation(user.ID, business.ID)
			require.NoError(t, err)

			err = env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:        user.ID,
				Action:        models.ActionTypeReservation,
				BusinessID:    &business.ID,
				ReservationID: reservation.ID,
			}, testMetadata())
			require.NoError(t, err)

			progress := progressOf(t)
			assert.Equal(t, 2, progress.ReservationsMade)
			assert.Equal(t, 1, progress.BusinessesVisited)
		})

		t.Run("ReservationAtNewBusinessCountsAsVisit", func(t *testing.T) {
			reservation, err := fixtures.CreateTestReservation(user.ID, otherBusiness.ID)
			require.NoError(t, err)

			err = env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:        user.ID,
				Action:        models.ActionTypeReservation,
				BusinessID:    &otherBusiness.ID,
				ReservationID: reservation.ID,
			}, testMetadata())
			require.NoError(t, err)

			progress := progressOf(t)
			assert.Equal(t, 3, progress.ReservationsMade)
			assert.Equal(t, 2, progress.BusinessesVisited)
		})

		t.Run("PurchaseAccumulatesSpend", func(t *testing.T) {
			amount := decimal.RequireFromString("120.50")
			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypePurchase,
				BusinessID: &business.ID,
				Amount:     &amount,
			}, testMetadata())
			require.NoError(t, err)

			second := decimal.RequireFromString("79.50")
			err = env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypePurchase,
				BusinessID: &business.ID,
				Amount:     &second,
			}, testMetadata())
			require.NoError(t, err)

			progress := progressOf(t)
			assert.True(t, progress.TotalSpend.Equal(decimal.RequireFromString("200")),
				"total spend was %s", progress.TotalSpend)
		})

		t.Run("EventsFanOutToEveryActiveAssignment", func(t *testing.T) {
			secondCampaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			secondAssignment, err := fixtures.CreateTestAssignment(user.ID, secondCampaign.ID)
			require.NoError(t, err)

			err = env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypeComment,
				BusinessID: &business.ID,
			}, testMetadata())
			require.NoError(t, err)

			first := progressOf(t)
			assert.Equal(t, 2, first.CommentsMade)

			second, err := env.progressRepo.ByAssignmentID(ctx, secondAssignment.ID)
			require.NoError(t, err)
			require.NotNil(t, second)
			assert.Equal(t, 1, second.CommentsMade)
		})

		t.Run("UsedAssignmentsAreSkipped", func(t *testing.T) {
			require.NoError(t, env.assignmentRepo.MarkUsed(ctx, assignment.ID))

			err := env.progressFlow.RecordEvent(ctx, businessflow.ProgressEvent{
				UserID:     user.ID,
				Action:     models.ActionTypeComment,
				BusinessID: &business.ID,
			}, testMetadata())
			require.NoError(t, err)

			progress := progressOf(t)
			assert.Equal(t, 2, progress.CommentsMade)
		})

		return nil
	})
	require.NoError(t, err)
}
