package http

import (
	"stylist_server/core/port/in"

	"github.com/gofiber/fiber/v2"
)

// StyleHandler serves personalized outfit suggestions and product tips.
type StyleHandler struct {
	styles in.StyleSuggestionUseCase
}

func NewStyleHandler(styles in.StyleSuggestionUseCase) *StyleHandler {
	return &StyleHandler{styles: styles}
}

func (h *StyleHandler) Register(router fiber.Router, auth fiber.Handler) {
	styles := router.Group("/style-suggestions")
	styles.Get("/", auth, h.GetSuggestion)
	styles.Post("/refresh", auth, h.RefreshSuggestion)
	styles.Get("/product/:productId", h.ProductTip)
}

func (h *StyleHandler) GetSuggestion(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return AppErrorResponse(c, err)
	}

	result, err := h.styles.GetStickySuggestion(c.UserContext(), userID)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return c.JSON(result)
}

func (h *StyleHandler) RefreshSuggestion(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return AppErrorResponse(c, err)
	}

	result, err := h.styles.RefreshSuggestion(c.UserContext(), userID)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return c.JSON(result)
}

func (h *StyleHandler) ProductTip(c *fiber.Ctx) error {
	tip, err := h.styles.ProductStyleTip(c.UserContext(), c.Params("productId"))
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return c.JSON(tip)
}
