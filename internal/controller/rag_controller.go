package controller

import (
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/serverutils"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRAGController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
}

type ragController struct {
	ragService service.IRAGService
}

func NewRAGController(ragService service.IRAGService) IRAGController {
	return &ragController{
		ragService: ragService,
	}
}

func (c *ragController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/rag")
	h.Use(serverutils.IdentityMiddleware)
	h.Post("/query", c.Query)
}

func (c *ragController) Query(ctx *fiber.Ctx) error {
	var req dto.RAGQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	userID, orgID := serverutils.Identity(ctx)

	res, err := c.ragService.Query(ctx.Context(), userID, orgID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
