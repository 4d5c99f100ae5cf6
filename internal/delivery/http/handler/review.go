package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarkov/product_catalog/internal/delivery/http/request"
	"github.com/dmarkov/product_catalog/internal/delivery/http/response"
	"github.com/dmarkov/product_catalog/internal/domain"
	"github.com/dmarkov/product_catalog/internal/pkg/logger"
	"github.com/dmarkov/product_catalog/internal/pkg/validator"
	"github.com/dmarkov/product_catalog/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	UserID    string `json:"user_id" validate:"required,min=1,max=255"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required,min=1,max=5000"`
}

// UpdateReviewRequest represents the request body for a partial review
// update; absent fields are left unchanged
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,min=1,max=5000"`
}

// Create handles POST /api/v1/reviews
// @Summary Create a new review
// @Description Create a review for an existing product
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Get().Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	created, err := h.service.Create(r.Context(), review.CreateInput{
		ProductID: productID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, created)
}

// ListByProduct handles GET /api/v1/products/:id/reviews
// @Summary List reviews for a product
// @Description Get all reviews of a product, newest first
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "List of reviews"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	reviews, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, reviews)
}

// AverageRating handles GET /api/v1/products/:id/rating
// @Summary Get a product's average rating
// @Description Get the mean review rating rounded to two decimals, 0 when the product has no reviews
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Average rating"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/rating [get]
func (h *ReviewHandler) AverageRating(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	rating, err := h.service.AverageRating(r.Context(), productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"product_id":     productID,
		"average_rating": rating,
	})
}

// Update handles PUT /api/v1/reviews/:id
// @Summary Update a review
// @Description Partially update a review's rating and/or comment
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Param review body UpdateReviewRequest true "Updated review fields"
// @Success 200 {object} map[string]interface{} "Review updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req UpdateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Get().Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, domain.ReviewPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /api/v1/reviews/:id
// @Summary Delete a review
// @Description Delete a review by id
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 204 "Review deleted successfully"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// handleError translates service layer errors into HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &vErr):
		response.Error(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Resource not found")
	default:
		h.logger.Error("Internal error in review handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
