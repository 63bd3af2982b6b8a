package businessflow_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mekankolik/mekankolik-api/app/dto"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestToken(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
		require.NoError(t, err)
		_, err = fixtures.CreateTestAssignment(user.ID, campaign.ID)
		require.NoError(t, err)

		t.Run("MintsFreshToken", func(t *testing.T) {
			resp, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.NotEmpty(t, resp.QRToken)
			assert.True(t, resp.Reissued)
			assert.True(t, resp.ExpiresAt.After(utils.UTCNow()))
		})

		t.Run("SecondRequestReturnsSameToken", func(t *testing.T) {
			first, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)

			second, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, first.QRToken, second.QRToken)
			assert.False(t, second.Reissued)
		})

		t.Run("ExpiredTokenIsReplaced", func(t *testing.T) {
			assignment, err := env.assignmentRepo.ByUserAndCampaign(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, assignment)
			oldToken := *assignment.QRToken

			expired := utils.UTCNow().Add(-time.Minute)
			require.NoError(t, testDB.DB.Model(&models.CampaignAssignment{}).
				Where("id = ?", assignment.ID).
				Update("qr_expires_at", expired).Error)

			resp, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			assert.True(t, resp.Reissued)
			assert.NotEqual(t, oldToken, resp.QRToken)
		})

		t.Run("NoAssignment", func(t *testing.T) {
			stranger, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			_, err = env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       stranger.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsAssignmentNotFound(err))
		})

		t.Run("UnknownCampaign", func(t *testing.T) {
			_, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: uuid.New().String(),
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("InactiveCampaign", func(t *testing.T) {
			inactive, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(&models.Campaign{}).
				Where("id = ?", inactive.ID).
				Update("is_active", false).Error)

			_, err = env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: inactive.UUID.String(),
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestConsumeToken(t *testing.T) {
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
		_, err = fixtures.CreateTestAssignment(user.ID, campaign.ID)
		require.NoError(t, err)

		requestToken := func(t *testing.T, c *models.Campaign) string {
			t.Helper()
			resp, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: c.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			return resp.QRToken
		}

		t.Run("SuccessfulRedemption", func(t *testing.T) {
			token := requestToken(t, campaign)

			resp, err := env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    token,
				BusinessID: business.ID,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, campaign.Title, resp.CampaignTitle)
			assert.Equal(t, user.ID, resp.UserID)

			// A usage row is recorded and the single-use assignment is spent.
			usages, err := env.usageRepo.ListByUser(ctx, user.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, usages, 1)
			assert.Equal(t, campaign.ID, usages[0].CampaignID)
			assert.Equal(t, business.ID, usages[0].BusinessID)

			assignment, err := env.assignmentRepo.ByUserAndCampaign(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(assignment.IsUsed))
		})

		t.Run("SecondConsumeOfSingleUseFails", func(t *testing.T) {
			assignment, err := env.assignmentRepo.ByUserAndCampaign(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, assignment.QRToken)

			_, err = env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    *assignment.QRToken,
				BusinessID: business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignAlreadyUsed(err))
		})

		t.Run("SpentAssignmentCannotMintAgain", func(t *testing.T) {
			_, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignAlreadyUsed(err))
		})

		t.Run("UnknownToken", func(t *testing.T) {
			_, err := env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    "no-such-token",
				BusinessID: business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsTokenNotFound(err))
		})

		t.Run("ExpiredToken", func(t *testing.T) {
			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			otherCampaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			assignment, err := fixtures.CreateTestAssignment(other.ID, otherCampaign.ID)
			require.NoError(t, err)

			token, err := utils.GenerateRedemptionToken()
			require.NoError(t, err)
			expired := utils.UTCNow().Add(-time.Minute)
			require.NoError(t, env.assignmentRepo.UpdateToken(ctx, assignment.ID, token, expired))

			_, err = env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    token,
				BusinessID: business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsTokenExpired(err))
		})

		t.Run("UsedAndExpiredReportsExpired", func(t *testing.T) {
			assignment, err := env.assignmentRepo.ByUserAndCampaign(ctx, user.ID, campaign.ID)
			require.NoError(t, err)
			require.True(t, utils.IsTrue(assignment.IsUsed))
			require.NotNil(t, assignment.QRToken)

			expired := utils.UTCNow().Add(-time.Minute)
			require.NoError(t, env.assignmentRepo.UpdateToken(ctx, assignment.ID, *assignment.QRToken, expired))

			// Expiry takes precedence over the spent assignment.
			_, err = env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    *assignment.QRToken,
				BusinessID: business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsTokenExpired(err))
		})

		t.Run("BusinessNotOnAllowlist", func(t *testing.T) {
			allowed, err := fixtures.CreateTestBusiness()
			require.NoError(t, err)
			restricted, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			require.NoError(t, fixtures.AllowBusiness(restricted.ID, allowed.ID))
			_, err = fixtures.CreateTestAssignment(user.ID, restricted.ID)
			require.NoError(t, err)

			token := requestToken(t, restricted)

			_, err = env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    token,
				BusinessID: business.ID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotAllowed(err))

			// The same token works at the allowed business.
			resp, err := env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    token,
				BusinessID: allowed.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, restricted.Title, resp.CampaignTitle)
		})

		t.Run("UnknownBusiness", func(t *testing.T) {
			_, err := env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
				QRToken:    "irrelevant",
				BusinessID: 999999,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRedemptionConcurrency(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		t.Run("ConcurrentMintsShareOneToken", func(t *testing.T) {
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			_, err = fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			const workers = 8
			responses := make([]*dto.RequestTokenResponse, workers)
			errs := make([]error, workers)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					responses[i], errs[i] = env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
						UserID:       user.ID,
						CampaignUUID: campaign.UUID.String(),
					}, testMetadata())
				}(i)
			}
			wg.Wait()

			reissues := 0
			for i := 0; i < workers; i++ {
				require.NoError(t, errs[i])
				require.NotNil(t, responses[i])
				assert.Equal(t, responses[0].QRToken, responses[i].QRToken)
				if responses[i].Reissued {
					reissues++
				}
			}
			// The row lock serializes the mints, so only the winner issues.
			assert.Equal(t, 1, reissues)
		})

		t.Run("SingleUseConsumedExactlyOnce", func(t *testing.T) {
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
			_, err = fixtures.CreateTestAssignment(user.ID, campaign.ID)
			require.NoError(t, err)

			minted, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)

			const workers = 8
			errs := make([]error, workers)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = env.redemptionFlow.ConsumeToken(ctx, &dto.ConsumeTokenRequest{
						QRToken:    minted.QRToken,
						BusinessID: business.ID,
					}, testMetadata())
				}(i)
			}
			wg.Wait()

			successes := 0
			for i := 0; i < workers; i++ {
				if errs[i] == nil {
					successes++
					continue
				}
				assert.True(t, businessflow.IsCampaignAlreadyUsed(errs[i]),
					"unexpected error: %v", errs[i])
			}
			assert.Equal(t, 1, successes)

			usages, err := env.usageRepo.ListByUser(ctx, user.ID, 10, 0)
			require.NoError(t, err)
			assert.Len(t, usages, 1)
		})

		return nil
	})
	require.NoError(t, err)
}
