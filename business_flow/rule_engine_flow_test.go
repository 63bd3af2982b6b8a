package businessflow_test

import (
	"encoding/json"
	"testing"

	"github.com/lib/pq"
	"github.com/mekankolik/mekankolik-api/models"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCriteria(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		t.Run("EmptyCriteriaMeansEligible", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, models.CriteriaSet{})
			require.NoError(t, err)

			eligible, result, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.True(t, eligible)
			assert.Empty(t, result)
		})

		t.Run("LegacyWholeHistoryCriteria", func(t *testing.T) {
			criteria := mustCriteria(t, map[string]json.Number{
				"min_reservations": json.Number("1"),
				"min_comments":     json.Number("1"),
			})
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, criteria)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			// Legacy criteria count the whole history once assigned.
			eligible, result, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.False(t, eligible)
			assert.Equal(t, models.RuleResult{"min_reservations": false, "min_comments": false}, result)

			_, err = fixtures.CreateTestReservation(user.ID, business.ID)
			require.NoError(t, err)

			eligible, result, err = env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.False(t, eligible)
			assert.True(t, result["min_reservations"])
			assert.False(t, result["min_comments"])
		})

		t.Run("MinRatingRequiresARating", func(t *testing.T) {
			criteria := mustCriteria(t, map[string]json.Number{
				"min_rating": json.Number("4"),
			})
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, criteria)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			// Rating unset: the criterion fails.
			eligible, _, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.False(t, eligible)

			require.NoError(t, testDB.DB.Model(&models.User{}).
				Where("id = ?", user.ID).
				Update("rating", 4.5).Error)

			eligible, result, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.True(t, eligible)
			assert.True(t, result["min_rating"])
		})

		t.Run("SpendCriterionUsesProgress", func(t *testing.T) {
			criteria := mustCriteria(t, map[string]json.Number{
				"min_spend_after_assignment": json.Number("100"),
			})
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, criteria)
			require.NoError(t, err)
			assignment, err := fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			eligible, _, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.False(t, eligible)

			require.NoError(t, testDB.DB.Model(&models.CampaignProgress{}).
				Where("assignment_id = ?", assignment.ID).
				Update("total_spend", decimal.RequireFromString("150.00")).Error)

			eligible, result, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.True(t, eligible)
			assert.True(t, result["min_spend_after_assignment"])
		})

		t.Run("NoAssignmentFailsEveryCriterion", func(t *testing.T) {
			// The user by now carries a rating and reservation history that
			// would satisfy these thresholds, but holds no assignment for
			// this campaign.
			criteria := mustCriteria(t, map[string]json.Number{
				"min_rating":       json.Number("4"),
				"min_reservations": json.Number("1"),
				"min_comments":     json.Number("0"),
			})
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, criteria)
			require.NoError(t, err)

			eligible, result, err := env.ruleEngine.Evaluate(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.False(t, eligible)
			assert.Equal(t, models.RuleResult{
				"min_rating":       false,
				"min_reservations": false,
				"min_comments":     false,
			}, result)
		})

		t.Run("RecordEvaluationPersistsTheVerdict", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, models.CriteriaSet{})
			require.NoError(t, err)

			verdict := models.RuleResult{"min_comments": true, "min_rating": false}
			require.NoError(t, env.ruleEngine.RecordEvaluation(ctx, user.ID, campaign.ID, verdict))

			logs, err := env.evalLogRepo.ListByUserAndCampaign(ctx, user.ID, campaign.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, verdict, logs[0].RuleResult)
			assert.Equal(t, pq.StringArray{"min_rating"}, logs[0].FailedCriteria)
		})

		return nil
	})
	require.NoError(t, err)
}
