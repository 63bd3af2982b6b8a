package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
)

// ReservationHandlerInterface defines the contract for reservation handlers
type ReservationHandlerInterface interface {
	CreateReservation(c fiber.Ctx) error
	CancelReservation(c fiber.Ctx) error
	ListMyReservations(c fiber.Ctx) error
}

// ReservationHandler handles reservation HTTP requests
type ReservationHandler struct {
	reservationFlow businessflow.ReservationFlow
	validator       *validator.Validate
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationFlow businessflow.ReservationFlow) *ReservationHandler {
	return &ReservationHandler{
		reservationFlow: reservationFlow,
		validator:       validator.New(),
	}
}

// CreateReservation books a table at a business
func (h *ReservationHandler) CreateReservation(c fiber.Ctx) error {
	var req dto.CreateReservationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.reservationFlow.CreateReservation(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Business not found", "BUSINESS_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrReservationInPast) {
			return errorResponse(c, fiber.StatusBadRequest, "Reservation time must be in the future", "RESERVATION_IN_PAST", nil)
		}
		if errors.Is(err, businessflow.ErrReservationPeopleInvalid) {
			return errorResponse(c, fiber.StatusBadRequest, "Number of people must be between 1 and 20", "RESERVATION_PEOPLE_INVALID", nil)
		}

		log.Println("Reservation creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Reservation creation failed", "RESERVATION_CREATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Reservation created successfully", fiber.Map{
		"message":        result.Message,
		"reservation_id": result.ReservationID,
		"status":         result.Status,
		"created_at":     result.CreatedAt,
	})
}

// CancelReservation cancels one of the caller's reservations
func (h *ReservationHandler) CancelReservation(c fiber.Ctx) error {
	reservationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || reservationID == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Reservation ID is invalid", "INVALID_RESERVATION_ID", nil)
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.CancelReservationRequest{
		UserID:        userID,
		ReservationID: uint(reservationID),
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.reservationFlow.CancelReservation(ctx, req, clientMetadata(c))
	if err != nil {
		if businessflow.IsReservationNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reservation not found", "RESERVATION_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrReservationNotOwned) {
			return errorResponse(c, fiber.StatusForbidden, "Reservation belongs to another user", "RESERVATION_NOT_OWNED", nil)
		}
		if businessflow.IsReservationNotCancelable(err) {
			return errorResponse(c, fiber.StatusConflict, "Reservation can no longer be cancelled", "RESERVATION_NOT_CANCELABLE", nil)
		}

		log.Println("Reservation cancellation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Reservation cancellation failed", "RESERVATION_CANCELLATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Reservation cancelled successfully", fiber.Map{
		"message": result.Message,
	})
}

// ListMyReservations returns the caller's reservations
func (h *ReservationHandler) ListMyReservations(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.reservationFlow.ListMyReservations(ctx, userID)
	if err != nil {
		log.Println("List reservations failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list reservations", "LIST_RESERVATIONS_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Reservations retrieved successfully", fiber.Map{
		"message": result.Message,
		"items":   result.Items,
	})
}
