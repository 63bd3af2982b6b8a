package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/handlers"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	testingutil "github.com/mekankolik/mekankolik-api/testing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPurchaseApp wires the purchase endpoint behind a stub auth layer that
// injects the given user into the request context, the way the real
// middleware does after validating a bearer token.
func newPurchaseApp(testDB *testingutil.TestDB, authedUserID uint) (*fiber.App, repository.CampaignProgressRepository) {
	userRepo := repository.NewUserRepository(testDB.DB)
	campaignRepo := repository.NewCampaignRepository(testDB.DB)
	assignmentRepo := repository.NewCampaignAssignmentRepository(testDB.DB)
	progressRepo := repository.NewCampaignProgressRepository(testDB.DB)
	commentRepo := repository.NewCommentRepository(testDB.DB)
	reservationRepo := repository.NewReservationRepository(testDB.DB)
	activityRepo := repository.NewActivityRepository(testDB.DB)
	evalLogRepo := repository.NewRuleEvaluationLogRepository(testDB.DB)

	ruleEngine := businessflow.NewRuleEngineFlow(
		userRepo, campaignRepo, assignmentRepo, progressRepo,
		commentRepo, reservationRepo, evalLogRepo, testDB.DB,
	)
	assignmentFlow := businessflow.NewAssignmentFlow(
		userRepo, campaignRepo, assignmentRepo, progressRepo,
		ruleEngine, testDB.DB, nil, nil,
	)
	progressFlow := businessflow.NewProgressFlow(
		userRepo, assignmentRepo, progressRepo, reservationRepo,
		activityRepo, assignmentFlow, testDB.DB,
	)

	app := fiber.New()
	handler := handlers.NewPurchaseHandler(progressFlow)
	app.Post("/purchases", handler.RecordPurchase, func(c fiber.Ctx) error {
		c.Locals("user_id", authedUserID)
		c.Locals("is_admin", false)
		return c.Next()
	})

	return app, progressRepo
}

func TestRecordPurchaseUsesAuthenticatedUser(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		authed, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		victim, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		business, err := fixtures.CreateTestBusiness()
		require.NoError(t, err)

		campaign, err := fixtures.CreateTestCampaign(models.RuleTypeStatic, models.CriteriaSet{})
		require.NoError(t, err)
		authedAssignment, err := fixtures.CreateTestAssignment(authed.ID, campaign.ID)
		require.NoError(t, err)
		victimAssignment, err := fixtures.CreateTestAssignment(victim.ID, campaign.ID)
		require.NoError(t, err)

		app, progressRepo := newPurchaseApp(testDB, authed.ID)

		// The body names another user. The claim must win.
		body, err := json.Marshal(map[string]any{
			"user_id":     victim.ID,
			"business_id": business.ID,
			"amount":      "75.25",
		})
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPost, "/purchases", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		authedProgress, err := progressRepo.ByAssignmentID(ctx, authedAssignment.ID)
		require.NoError(t, err)
		require.NotNil(t, authedProgress)
		assert.True(t, authedProgress.TotalSpend.Equal(decimal.RequireFromString("75.25")),
			"authenticated user's spend was %s", authedProgress.TotalSpend)

		victimProgress, err := progressRepo.ByAssignmentID(ctx, victimAssignment.ID)
		require.NoError(t, err)
		require.NotNil(t, victimProgress)
		assert.True(t, victimProgress.TotalSpend.IsZero(),
			"body-named user's spend was %s", victimProgress.TotalSpend)

		return nil
	})
	require.NoError(t, err)
}
