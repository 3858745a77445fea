package handlers

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"building-converter/internal/converter/graph"
)

// ============================================================
// Library Handler
// ============================================================

type materialPayload struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Resistance *float64          `json:"resistance,omitempty"`
}

// Material возвращает материал справочника по имени.
func (h *ConverterHandler) Material(c fiber.Ctx) error {
	if h.lib == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "no library configured"})
	}

	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "material name required"})
	}

	mat, ok, err := h.lib.Material(c.Context(), name)
	if err != nil {
		log.Printf("[LIBRARY] Lookup error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "library unavailable"})
	}
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "material not found"})
	}

	payload := materialPayload{
		Name:       mat.Name(),
		Attributes: make(map[string]string, len(mat.Attributes)),
	}
	for _, attr := range mat.Attributes {
		payload.Attributes[attr.Key] = attr.Value
	}
	if r, err := graph.Resistance(mat); err == nil {
		payload.Resistance = &r
	}
	return c.JSON(payload)
}
