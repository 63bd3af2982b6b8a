package businessflow_test

import (
	"context"
	"strings"
	"testing"

	"github.com/mekankolik/mekankolik-api/app/dto"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		metadata := testMetadata()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		secondUser, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		t.Run("SuccessfulComment", func(t *testing.T) {
			resp, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     user.ID,
				BusinessID: business.ID,
				Text:       "Great food, slow service.",
				Rating:     4.0,
			}, metadata)
			require.NoError(t, err)
			assert.NotZero(t, resp.CommentID)
			require.NotNil(t, resp.BusinessRating)
			assert.InDelta(t, 4.0, *resp.BusinessRating, 0.001)

			stored, err := env.commentRepo.ByUserAndBusiness(ctx, user.ID, business.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, "Great food, slow service.", stored.Text)
		})

		t.Run("SecondCommenterMovesTheAverage", func(t *testing.T) {
			resp, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     secondUser.ID,
				BusinessID: business.ID,
				Text:       "Loved it.",
				Rating:     5.0,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp.BusinessRating)
			assert.InDelta(t, 4.5, *resp.BusinessRating, 0.001)

			refreshed, err := env.businessRepo.ByID(ctx, business.ID)
			require.NoError(t, err)
			require.NotNil(t, refreshed)
			require.NotNil(t, refreshed.Rating)
			assert.InDelta(t, 4.5, *refreshed.Rating, 0.001)
		})

		t.Run("CommentFeedsCampaignProgress", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			assignment, err := fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			otherBusiness, err := fixtures.CreateTestBusiness()
			require.NoError(t, err)
			_, err = env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     user.ID,
				BusinessID: otherBusiness.ID,
				Text:       "Decent.",
				Rating:     3.0,
			}, metadata)
			require.NoError(t, err)

			progress, err := env.progressRepo.ByAssignmentID(ctx, assignment.ID)
			require.NoError(t, err)
			require.NotNil(t, progress)
			assert.Equal(t, 1, progress.CommentsMade)
		})

		t.Run("OneCommentPerUserPerBusiness", func(t *testing.T) {
			_, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     user.ID,
				BusinessID: business.ID,
				Text:       "Changed my mind.",
				Rating:     2.0,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCommentAlreadyExists(err))
		})

		t.Run("RatingOutOfRange", func(t *testing.T) {
			for _, rating := range []float64{0.5, 5.5} {
				_, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
					UserID:     secondUser.ID,
					BusinessID: business.ID,
					Text:       "Whatever.",
					Rating:     rating,
				}, metadata)
				require.Error(t, err)
				assert.True(t, businessflow.IsCommentRatingInvalid(err))
			}
		})

		t.Run("BlankTextRejected", func(t *testing.T) {
			_, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     secondUser.ID,
				BusinessID: business.ID,
				Text:       "   ",
				Rating:     3.0,
			}, metadata)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCommentTextRequired)
		})

		t.Run("OverlongTextRejected", func(t *testing.T) {
			_, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     secondUser.ID,
				BusinessID: business.ID,
				Text:       strings.Repeat("a", utils.MaxCommentLength+1),
				Rating:     3.0,
			}, metadata)
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCommentTooLong)
		})

		t.Run("UnknownBusinessRejected", func(t *testing.T) {
			_, err := env.commentFlow.CreateComment(ctx, &dto.CreateCommentRequest{
				UserID:     secondUser.ID,
				BusinessID: 999999,
				Text:       "Ghost town.",
				Rating:     3.0,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
