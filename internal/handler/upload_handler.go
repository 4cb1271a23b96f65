package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "elearning/internal/errors"
	"elearning/internal/storage"
)

// ImageStore persists course images.
type ImageStore interface {
	UploadCourseImage(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// UploadHandler accepts course image uploads.
type UploadHandler struct {
	images ImageStore
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(images ImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// UploadResponse carries the public location of an uploaded image.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// UploadCourseImage godoc
// @Summary Upload a course image
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param refresh_token header string true "Refresh token"
// @Param image formData file true "JPEG, PNG, WebP or GIF image"
// @Success 201 {object} Response{data=UploadResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/uploadCourseImage [post]
func (h *UploadHandler) UploadCourseImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return respondError(c, apperrors.Validation("image is required"))
	}
	if file.Size > storage.MaxImageSize {
		return respondError(c, apperrors.Validation(fmt.Sprintf("image must be at most %d MiB", storage.MaxImageSize>>20)))
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, apperrors.Internal(fmt.Errorf("open upload: %w", err)))
	}
	defer src.Close()

	contentType := file.Header.Get(echo.HeaderContentType)
	url, err := h.images.UploadCourseImage(c.Request().Context(), file.Filename, src, file.Size, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return respondError(c, apperrors.Validation("image must be a JPEG, PNG, WebP or GIF file"))
		}
		return respondError(c, apperrors.Internal(err))
	}
	return c.JSON(http.StatusCreated, Response{Data: UploadResponse{ImageURL: url}})
}
