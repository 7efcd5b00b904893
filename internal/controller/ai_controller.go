package controller

import (
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/serverutils"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAIController interface {
	RegisterRoutes(r fiber.Router)
	Router(ctx *fiber.Ctx) error
	Triage(ctx *fiber.Ctx) error
}

type aiController struct {
	assistantService service.IAssistantService
	triageService    service.ITriageService
}

func NewAIController(assistantService service.IAssistantService, triageService service.ITriageService) IAIController {
	return &aiController{
		assistantService: assistantService,
		triageService:    triageService,
	}
}

func (c *aiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai")
	h.Use(serverutils.IdentityMiddleware)
	h.Post("/router", c.Router)
	h.Post("/leads/triage", c.Triage)
}

func (c *aiController) Router(ctx *fiber.Ctx) error {
	var req dto.RouterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	userID, orgID := serverutils.Identity(ctx)

	res, err := c.assistantService.Route(ctx.Context(), userID, orgID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *aiController) Triage(ctx *fiber.Ctx) error {
	var req dto.TriageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	userID, orgID := serverutils.Identity(ctx)

	res, err := c.triageService.Triage(ctx.Context(), userID, orgID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Leads triaged", res))
}
