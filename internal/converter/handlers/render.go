package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"building-converter/internal/converter/models"
)

// ============================================================
// Render Handler
// ============================================================

// Render рисует SVG-план по JSON модели здания.
func (h *ConverterHandler) Render(c fiber.Ctx) error {
	log.Printf("[RENDER] Received request")
	log.Printf("[RENDER] Content-Length: %d", len(c.Body()))

	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "body required",
		})
	}

	var building models.Building
	if err := json.Unmarshal(c.Body(), &building); err != nil {
		log.Printf("[RENDER] Decode error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON payload",
		})
	}

	svg, err := h.renderer.Render(&building)
	if err != nil {
		log.Printf("[RENDER] Render error: %v", err)
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(svg)
}
