// Package businessflow contains the core business logic and use cases for reservation workflows
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// ReservationFlow handles booking and cancelling reservations
type ReservationFlow interface {
	CreateReservation(ctx context.Context, req *dto.CreateReservationRequest, metadata *ClientMetadata) (*dto.CreateReservationResponse, error)
	// CancelReservation refuses cancellations closer than one hour to the
	// reservation time.
	CancelReservation(ctx context.Context, req *dto.CancelReservationRequest, metadata *ClientMetadata) (*dto.CancelReservationResponse, error)
	ListMyReservations(ctx context.Context, userID uint) (*dto.ListReservationsResponse, error)
}

// ReservationFlowImpl implements the reservation business flow
type ReservationFlowImpl struct {
	userRepo        repository.UserRepository
	businessRepo    repository.BusinessRepository
	reservationRepo repository.ReservationRepository
	progressFlow    ProgressFlow
	db              *gorm.DB
}

// NewReservationFlow creates a new reservation flow instance
func NewReservationFlow(
	userRepo repository.UserRepository,
	businessRepo repository.BusinessRepository,
	reservationRepo repository.ReservationRepository,
	progressFlow ProgressFlow,
	db *gorm.DB,
) ReservationFlow {
	return &ReservationFlowImpl{
		userRepo:        userRepo,
		businessRepo:    businessRepo,
		reservationRepo: reservationRepo,
		progressFlow:    progressFlow,
		db:              db,
	}
}

// CreateReservation books a reservation and feeds the campaign progress tracker
func (s *ReservationFlowImpl) CreateReservation(ctx context.Context, req *dto.CreateReservationRequest, metadata *ClientMetadata) (*dto.CreateReservationResponse, error) {
	now := utils.UTCNow()
	if !req.ReservationTime.After(now) {
		return nil, NewBusinessError("RESERVATION_IN_PAST", "Reservation time must be in the future", ErrReservationInPast)
	}
	if req.NumberOfPeople < 1 || req.NumberOfPeople > utils.MaxReservationPeople {
		return nil, NewBusinessError("RESERVATION_PEOPLE_INVALID", "Number of people is out of range", ErrReservationPeopleInvalid)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		if IsUserNotFound(err) {
			return nil, NewBusinessError("USER_NOT_FOUND", "User not found", err)
		}
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	business, err := getBusiness(ctx, s.businessRepo, req.BusinessID)
	if err != nil {
		if IsBusinessNotFound(err) {
			return nil, NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", err)
		}
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}

	reservation := &models.Reservation{
		UserID:          user.ID,
		BusinessID:      business.ID,
		ReservationTime: req.ReservationTime,
		NumberOfPeople:  req.NumberOfPeople,
		SpecialRequests: req.SpecialRequests,
		Status:          models.ReservationStatusPending,
		CreatedAt:       now,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if saveErr := s.reservationRepo.Save(txCtx, reservation); saveErr != nil {
			return fmt.Errorf("failed to save reservation: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("RESERVATION_CREATION_FAILED", "Reservation creation failed", err)
	}

	// Campaign progress rides on the booking but never blocks it.
	event := ProgressEvent{
		UserID:        user.ID,
		Action:        models.ActionTypeReservation,
		BusinessID:    &business.ID,
		ReservationID: reservation.ID,
	}
	if progErr := s.progressFlow.RecordEvent(ctx, event, metadata); progErr != nil {
		log.Printf("failed to record reservation event for user %d: %v", user.ID, progErr)
	}

	return &dto.CreateReservationResponse{
		Message:       "Reservation created",
		ReservationID: reservation.ID,
		Status:        string(reservation.Status),
		CreatedAt:     reservation.CreatedAt,
	}, nil
}

// CancelReservation cancels the user's reservation if the cutoff allows it
func (s *ReservationFlowImpl) CancelReservation(ctx context.Context, req *dto.CancelReservationRequest, metadata *ClientMetadata) (*dto.CancelReservationResponse, error) {
	reservation, err := s.reservationRepo.ByID(ctx, req.ReservationID)
	if err != nil {
		return nil, NewBusinessError("RESERVATION_LOOKUP_FAILED", "Failed to lookup reservation", err)
	}
	if reservation == nil {
		return nil, NewBusinessError("RESERVATION_NOT_FOUND", "Reservation not found", ErrReservationNotFound)
	}
	if reservation.UserID != req.UserID {
		return nil, NewBusinessError("RESERVATION_NOT_OWNED", "Reservation belongs to another user", ErrReservationNotOwned)
	}
	if !reservation.CanCancelAt(utils.UTCNow()) {
		return nil, NewBusinessError("RESERVATION_NOT_CANCELABLE", "Reservation can no longer be cancelled", ErrReservationNotCancelable)
	}

	if err := s.reservationRepo.UpdateStatus(ctx, reservation.ID, models.ReservationStatusCancelled); err != nil {
		return nil, NewBusinessError("RESERVATION_CANCEL_FAILED", "Reservation cancellation failed", err)
	}

	return &dto.CancelReservationResponse{Message: "Reservation cancelled"}, nil
}

// ListMyReservations returns the user's reservations, newest first
func (s *ReservationFlowImpl) ListMyReservations(ctx context.Context, userID uint) (*dto.ListReservationsResponse, error) {
	reservations, err := s.reservationRepo.ByFilter(ctx, models.ReservationFilter{UserID: &userID}, "reservation_time DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("RESERVATION_LIST_FAILED", "Failed to list reservations", err)
	}

	now := utils.UTCNow()
	items := make([]dto.ReservationItem, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, dto.ReservationItem{
			ID:              r.ID,
			BusinessID:      r.BusinessID,
			ReservationTime: r.ReservationTime,
			NumberOfPeople:  r.NumberOfPeople,
			Status:          string(r.Status),
			CanCancel:       r.CanCancelAt(now),
			CreatedAt:       r.CreatedAt,
		})
	}

	return &dto.ListReservationsResponse{
		Message: "Reservations retrieved",
		Items:   items,
	}, nil
}
