package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a regular platform user
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	return tf.createUser(false)
}

// CreateTestAdmin creates a user with the admin flag set
func (tf *TestFixtures) CreateTestAdmin() (*models.User, error) {
	return tf.createUser(true)
}

func (tf *TestFixtures) createUser(isAdmin bool) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	user := &models.User{
		Email:        fmt.Sprintf("user.%s@example.com", suffix),
		Username:     fmt.Sprintf("user_%s", suffix),
		PasswordHash: string(hashedPassword),
		IsAdmin:      utils.ToPtr(isAdmin),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestBusiness creates a listed business
func (tf *TestFixtures) CreateTestBusiness() (*models.Business, error) {
	suffix := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	address := "123 Test Street, Istanbul"
	phone := "+902121234567"

	business := &models.Business{
		Name:     fmt.Sprintf("Test Business %s", suffix),
		Address:  &address,
		Phone:    &phone,
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(business).Error; err != nil {
		return nil, fmt.Errorf("failed to create test business: %w", err)
	}

	return business, nil
}

// CreateTestCampaign creates an active campaign with a one-week window
func (tf *TestFixtures) CreateTestCampaign(ruleType models.RuleType, criteria models.CriteriaSet) (*models.Campaign, error) {
	now := utils.UTCNow()

	campaign := &models.Campaign{
		Title:                fmt.Sprintf("Test Campaign %06d", rand.Intn(900000)+100000),
		StartDate:            now.Add(-time.Hour),
		EndDate:              now.Add(7 * 24 * time.Hour),
		IsActive:             utils.ToPtr(true),
		RuleType:             ruleType,
		TriggerEvent:         models.TriggerEventNone,
		Criteria:             criteria,
		IsSingleUse:          utils.ToPtr(true),
		UsageDurationMinutes: utils.DefaultUsageDurationMinutes,
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	return campaign, nil
}

// CreateTestAssignment assigns a campaign to a user with a fresh progress row
func (tf *TestFixtures) CreateTestAssignment(userID, campaignID uint) (*models.CampaignAssignment, error) {
	assignment := &models.CampaignAssignment{
		UserID:     userID,
		CampaignID: campaignID,
		AssignedAt: utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test assignment: %w", err)
	}

	progress := &models.CampaignProgress{
		AssignmentID: assignment.ID,
		UserID:       userID,
		CampaignID:   campaignID,
	}

	if err := tf.DB.DB.Create(progress).Error; err != nil {
		return nil, fmt.Errorf("failed to create test progress: %w", err)
	}

	return assignment, nil
}

// AllowBusiness links a business to a campaign's allow list
func (tf *TestFixtures) AllowBusiness(campaignID, businessID uint) error {
	link := &models.CampaignBusiness{
		CampaignID: campaignID,
		BusinessID: businessID,
	}
	if err := tf.DB.DB.Create(link).Error; err != nil {
		return fmt.Errorf("failed to link allowed business: %w", err)
	}
	return nil
}

// CreateTestReservation books a confirmed reservation for tomorrow
func (tf *TestFixtures) CreateTestReservation(userID, businessID uint) (*models.Reservation, error) {
	reservation := &models.Reservation{
		UserID:          userID,
		BusinessID:      businessID,
		ReservationTime: utils.UTCNow().Add(24 * time.Hour),
		NumberOfPeople:  2,
		Status:          models.ReservationStatusConfirmed,
	}

	if err := tf.DB.DB.Create(reservation).Error; err != nil {
		return nil, fmt.Errorf("failed to create test reservation: %w", err)
	}

	return reservation, nil
}
