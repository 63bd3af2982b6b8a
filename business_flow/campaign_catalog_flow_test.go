package businessflow_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mekankolik/mekankolik-api/app/dto"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		now := utils.UTCNow()

		t.Run("SuccessfulCreation", func(t *testing.T) {
			trigger := "reservation"
			resp, err := env.catalogFlow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Title:     "Ten Percent Off",
				StartDate: now,
				EndDate:   now.Add(30 * 24 * time.Hour),
				RuleType:  "dynamic",
				Criteria: map[string]json.Number{
					"min_reservations_after_assignment": json.Number("2"),
				},
				TriggerEvent:       &trigger,
				IsSingleUse:        utils.ToPtr(true),
				AllowedBusinessIDs: []uint{business.ID},
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.NotZero(t, resp.ID)
			assert.NotEmpty(t, resp.UUID)

			campaign, err := env.campaignRepo.ByID(ctx, resp.ID)
			require.NoError(t, err)
			require.NotNil(t, campaign)
			assert.Equal(t, models.RuleTypeDynamic, campaign.RuleType)
			assert.Equal(t, models.TriggerEventReservation, campaign.TriggerEvent)
			assert.True(t, utils.IsTrue(campaign.IsActive))
			assert.True(t, campaign.IsBusinessAllowed(business.ID))
			assert.False(t, campaign.IsBusinessAllowed(business.ID+1))

			criterion, ok := campaign.Criteria.Get(models.CriterionMinReservationsAfterAssignment)
			require.True(t, ok)
			assert.True(t, criterion.Threshold.Equal(decimal.NewFromInt(2)))
		})

		t.Run("InvertedWindowRejected", func(t *testing.T) {
			_, err := env.catalogFlow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Title:     "Backwards",
				StartDate: now.Add(time.Hour),
				EndDate:   now,
				RuleType:  "static",
			}, testMetadata())
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrCampaignWindowInvalid)
		})

		t.Run("NegativeThresholdRejected", func(t *testing.T) {
			_, err := env.catalogFlow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Title:     "Bad Criteria",
				StartDate: now,
				EndDate:   now.Add(time.Hour),
				RuleType:  "static",
				Criteria: map[string]json.Number{
					"min_comments": json.Number("-1"),
				},
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCriteriaValue(err))
		})

		t.Run("UnknownAllowedBusinessRejected", func(t *testing.T) {
			_, err := env.catalogFlow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Title:              "Ghost Venue",
				StartDate:          now,
				EndDate:            now.Add(time.Hour),
				RuleType:           "static",
				AllowedBusinessIDs: []uint{999999},
			}, testMetadata())
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrAllowedBusinessUnknown)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGetActiveCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
		require.NoError(t, err)

		t.Run("ActiveCampaignIsReturned", func(t *testing.T) {
			item, err := env.catalogFlow.GetActiveCampaign(ctx, campaign.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, item)
			assert.Equal(t, campaign.Title, item.Title)
			assert.True(t, item.IsActive)
		})

		t.Run("UnknownUUID", func(t *testing.T) {
			_, err := env.catalogFlow.GetActiveCampaign(ctx, uuid.New().String())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("DeactivatedCampaignIsHidden", func(t *testing.T) {
			_, err := env.catalogFlow.SetCampaignActive(ctx, &dto.SetCampaignActiveRequest{
				UUID:     campaign.UUID.String(),
				IsActive: false,
			})
			require.NoError(t, err)

			_, err = env.catalogFlow.GetActiveCampaign(ctx, campaign.UUID.String())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListCampaigns(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		for i := 0; i < 3; i++ {
			_, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
			require.NoError(t, err)
		}
		_, err := fixtures.CreateTestCampaign(models.RuleTypeDynamic, models.CriteriaSet{})
		require.NoError(t, err)

		t.Run("PaginatedListing", func(t *testing.T) {
			resp, err := env.catalogFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Page: 1, PageSize: 2})
			require.NoError(t, err)
			assert.Equal(t, int64(4), resp.Total)
			assert.Len(t, resp.Items, 2)
			assert.Equal(t, 2, resp.TotalPage)
		})

		t.Run("RuleTypeFilter", func(t *testing.T) {
			ruleType := "dynamic"
			resp, err := env.catalogFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
				RuleType: &ruleType,
				Page:     1,
				PageSize: 10,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), resp.Total)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, "dynamic", resp.Items[0].RuleType)
		})

		t.Run("InvalidPageRejected", func(t *testing.T) {
			_, err := env.catalogFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Page: 0, PageSize: 10})
			require.Error(t, err)
			assert.ErrorIs(t, err, businessflow.ErrInvalidPage)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListMyCampaigns(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
		require.NoError(t, err)
		assignment, err := fixtures.CreateTestAssignment(user.ID, campaign.ID)
		require.NoError(t, err)

		t.Run("FreshAssignmentHasNoToken", func(t *testing.T) {
			resp, err := env.catalogFlow.ListMyCampaigns(ctx, user.ID)
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			item := resp.Items[0]
			assert.Equal(t, campaign.ID, item.CampaignID)
			assert.Equal(t, string(models.TokenStateNone), item.TokenState)
			require.NotNil(t, item.ProgressView)
			assert.Equal(t, 0, item.ProgressView.CommentsMade)
		})

		t.Run("MintedTokenShowsAsValid", func(t *testing.T) {
			_, err := env.redemptionFlow.RequestToken(ctx, &dto.RequestTokenRequest{
				UserID:       user.ID,
				CampaignUUID: campaign.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)

			resp, err := env.catalogFlow.ListMyCampaigns(ctx, user.ID)
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, string(models.TokenStateValid), resp.Items[0].TokenState)
			assert.NotNil(t, resp.Items[0].QRExpiresAt)
		})

		t.Run("UsedSingleUseAssignmentDisappears", func(t *testing.T) {
			require.NoError(t, env.assignmentRepo.MarkUsed(ctx, assignment.ID))

			resp, err := env.catalogFlow.ListMyCampaigns(ctx, user.ID)
			require.NoError(t, err)
			assert.Empty(t, resp.Items)
		})

		return nil
	})
	require.NoError(t, err)
}
