package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"building-converter/internal/converter/graph"
	"building-converter/internal/converter/mapper"
	"building-converter/internal/converter/models"
)

// ============================================================
// Converter Handler
// ============================================================

type ConverterHandler struct {
	converter *mapper.Converter
	renderer  *mapper.Renderer
	lib       graph.Library
}

func NewConverterHandler(converter *mapper.Converter, lib graph.Library) *ConverterHandler {
	return &ConverterHandler{
		converter: converter,
		renderer:  mapper.NewRenderer(),
		lib:       lib,
	}
}

// Convert конвертирует BDL-документ в модель здания (JSON).
func (h *ConverterHandler) Convert(c fiber.Ctx) error {
	log.Printf("[CONVERTER] Received request")
	log.Printf("[CONVERTER] Content-Type: %s", c.Get(fiber.HeaderContentType))

	data, err := readDocument(c)
	if err != nil {
		log.Printf("[CONVERTER] Upload error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	converter := h.converter
	if raw := c.Query("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "scale must be a positive number"})
		}
		converter = converter.WithScale(scale)
	}

	log.Printf("[CONVERTER] Starting conversion, data size: %d bytes", len(data))
	building, err := converter.Convert(c.Context(), bytes.NewReader(data))
	if err != nil {
		log.Printf("[CONVERTER] Conversion error: %v", err)
		return c.Status(statusFor(err)).JSON(errorPayload(err))
	}

	log.Printf("[CONVERTER] Conversion successful: %d surfaces, %d openings", len(building.Surfaces), len(building.Openings))
	return c.JSON(building)
}

// readDocument takes the "file" part of a multipart upload or the raw body.
func readDocument(c fiber.Ctx) ([]byte, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New("file required in multipart/form-data")
		}
		log.Printf("[CONVERTER] File received: %s, size: %d", file.Filename, file.Size)

		f, err := file.Open()
		if err != nil {
			return nil, errors.New("failed to open file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, errors.New("failed to read file")
		}
		if len(data) == 0 {
			return nil, errors.New("file is empty")
		}
		return data, nil
	}

	if len(c.Body()) == 0 {
		return nil, errors.New("body required")
	}
	return bytes.Clone(c.Body()), nil
}

// ============================================================
// Error mapping
// ============================================================

func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindMalformedCommand,
		models.KindUnresolvedReference,
		models.KindAmbiguousReference,
		models.KindUnsupportedGeometry:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func errorPayload(err error) fiber.Map {
	payload := fiber.Map{"error": err.Error()}

	var derr *models.Error
	if errors.As(err, &derr) {
		payload["kind"] = derr.Kind.String()
		if derr.Identifier != "" {
			payload["identifier"] = derr.Identifier
		}
		if derr.Keyword != "" {
			payload["keyword"] = derr.Keyword
		}
		if derr.Attribute != "" {
			payload["attribute"] = derr.Attribute
		}
		if derr.Line > 0 {
			payload["line"] = derr.Line
		}
	}
	return payload
}
