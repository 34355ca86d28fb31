package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/synthesis"
)

const (
	fieldDosage = "injection_number"
	fieldArea   = "selected_area"
	fieldFile   = "file"

	// DefaultMaxUploadBytes caps the uploaded photo
	DefaultMaxUploadBytes = 10 * 1024 * 1024
)

// Generator runs one synthesis. *synthesis.Service implements it.
type Generator interface {
	Generate(ctx context.Context, req synthesis.Request) (*synthesis.Result, error)
}

// GenerateHandler serves POST /generate/
type GenerateHandler struct {
	generator      Generator
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewGenerateHandler(generator Generator, maxUploadBytes int64, logger *slog.Logger) *GenerateHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &GenerateHandler{
		generator:      generator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// GenerateResponse is the body of every /generate/ answer. Exactly one
// field is set.
type GenerateResponse struct {
	Image string `json:"image,omitempty"`
	Error string `json:"error,omitempty"`
}

// Generate POST /generate/ - simulate a treatment on an uploaded photo.
// Always answers 200; failures travel in the error field.
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	result, err := h.generator.Generate(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(GenerateResponse{
		Image: base64.StdEncoding.EncodeToString(result.JPEG),
	})
}

func (h *GenerateHandler) parseRequest(c *fiber.Ctx) (synthesis.Request, error) {
	// 1. Dosage
	raw := strings.TrimSpace(c.FormValue(fieldDosage))
	if raw == "" {
		return synthesis.Request{}, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required", fieldDosage))
	}
	dosage, err := strconv.Atoi(raw)
	if err != nil {
		return synthesis.Request{}, domain.ErrValidationFailed.WithError(fmt.Errorf("%s must be an integer", fieldDosage))
	}
	if dosage < 0 {
		return synthesis.Request{}, domain.ErrValidationFailed.WithError(fmt.Errorf("%s must not be negative", fieldDosage))
	}

	// 2. Area (resolved against the catalog by the service)
	area := strings.TrimSpace(c.FormValue(fieldArea))
	if area == "" {
		return synthesis.Request{}, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required", fieldArea))
	}

	// 3. Photo
	file, err := c.FormFile(fieldFile)
	if err != nil {
		return synthesis.Request{}, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required", fieldFile))
	}
	if file.Size == 0 {
		return synthesis.Request{}, domain.ErrDecodeFailure.WithError(errors.New("empty image"))
	}
	if file.Size > h.maxUploadBytes {
		return synthesis.Request{}, domain.ErrValidationFailed.WithError(
			fmt.Errorf("%s exceeds %d bytes", fieldFile, h.maxUploadBytes))
	}

	f, err := file.Open()
	if err != nil {
		return synthesis.Request{}, domain.ErrDecodeFailure.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := raster.Decode(f)
	if err != nil {
		return synthesis.Request{}, err
	}

	return synthesis.Request{
		Image:     img,
		Area:      area,
		Dosage:    dosage,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}, nil
}

// fail answers 200 with the error message
func (h *GenerateHandler) fail(c *fiber.Ctx, err error) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("unhandled generate error", "error", err)
	}
	return c.Status(fiber.StatusOK).JSON(GenerateResponse{Error: errorMessage(err)})
}

// Envelope keeps errors raised by middleware in front of Generate (rate
// limiting, recovered panics) inside the 200 {"error"} contract
func Envelope(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		return c.Status(fiber.StatusOK).JSON(GenerateResponse{Error: errorMessage(err)})
	}
	return nil
}

// errorMessage exposes details for client errors only
func errorMessage(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode < 500 {
			return appErr.Error()
		}
		return appErr.Message
	}
	return domain.ErrInternal.Message
}
