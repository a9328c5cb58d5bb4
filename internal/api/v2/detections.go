package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/ingest"
	"github.com/litterscan/litterscan/internal/logger"
)

// Multipart field names used by field devices.
const (
	formImage    = "image"
	formMetadata = "metadata"
)

// UploadDetection handles POST /upload: a multipart image plus a JSON
// metadata field.
func (c *Controller) UploadDetection(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile(formImage)
	if err != nil {
		return c.HandleError(ctx, err, "No image provided", http.StatusBadRequest)
	}

	rawMeta := ctx.FormValue(formMetadata)
	if rawMeta == "" {
		return c.HandleError(ctx, nil, "No metadata provided", http.StatusBadRequest)
	}
	meta, err := ingest.ParseMetadata(rawMeta)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid metadata", http.StatusBadRequest)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read image", http.StatusBadRequest)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			c.log.Debug("failed to close upload", logger.Error(cerr))
		}
	}()

	image, err := io.ReadAll(file)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read image", http.StatusBadRequest)
	}

	result, err := c.Uploader.Ingest(ctx.Request().Context(), image, fileHeader.Header.Get(echo.HeaderContentType), meta)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to process upload", statusFromError(err))
	}
	return ctx.JSON(http.StatusOK, result)
}

// GetDetections handles GET /detections?limit=N. Records are returned newest
// first; a missing or zero limit returns everything held.
func (c *Controller) GetDetections(ctx echo.Context) error {
	limit, err := parseLimit(ctx.QueryParam("limit"))
	if err != nil {
		return c.HandleError(ctx, err, "Invalid limit parameter", http.StatusBadRequest)
	}
	return ctx.JSON(http.StatusOK, c.Engine.List(limit))
}

// ClearDetections handles DELETE /clear.
func (c *Controller) ClearDetections(ctx echo.Context) error {
	n := c.Engine.Clear(ctx.Request().Context())
	c.log.Info("detections cleared", logger.Int("count", n), logger.String("ip", ctx.RealIP()))
	return ctx.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Cleared %d detections", n),
	})
}

// ServeImage handles GET /images/:filename.
func (c *Controller) ServeImage(ctx echo.Context) error {
	path, err := c.Images.Path(ctx.Param("filename"))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Image not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to read image", http.StatusInternalServerError)
	}
	return ctx.File(path)
}

// parseLimit accepts an empty value or a non-negative integer.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Newf("limit must be an integer").
			Component("api").
			Category(errors.CategoryValidation).
			Context("value", raw).
			Build()
	}
	if n < 0 {
		return 0, errors.Newf("limit must not be negative").
			Component("api").
			Category(errors.CategoryValidation).
			Context("value", raw).
			Build()
	}
	return n, nil
}
