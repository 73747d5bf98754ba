package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/learnstack/support-service/internal/api/dto"
	"github.com/learnstack/support-service/internal/auth"
	"github.com/learnstack/support-service/internal/service"
	"github.com/learnstack/support-service/internal/sla"
	apperrors "github.com/learnstack/support-service/pkg/util"
)

// AgentTicketsHandler manages the agent workbench endpoints.
type AgentTicketsHandler struct {
	tickets  *service.TicketService
	importer *service.ImportService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(tickets *service.TicketService, importer *service.ImportService) *AgentTicketsHandler {
	return &AgentTicketsHandler{tickets: tickets, importer: importer}
}

// ListTickets GET /agent/tickets.
func (h *AgentTicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := requireAgent(c); err != nil {
		return err
	}
	filter := parseTicketQuery(c)
	tickets, err := h.tickets.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /agent/tickets/:id.
func (h *AgentTicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := requireAgent(c); err != nil {
		return err
	}
	ticket, msgs, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, msgs)})
}

// Reply POST /agent/tickets/:id/reply.
func (h *AgentTicketsHandler) Reply(c *fiber.Ctx) error {
	principal, err := requireAgent(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, msg, err := h.tickets.ReplyAsAgent(c.Context(), principal.Agent.ID, c.Params("id"), req.Body)
	if err != nil {
		var rejected *sla.RejectedReplyError
		if errors.As(err, &rejected) {
			return apperrors.NewValidationError(rejected.Reason, nil)
		}
		return err
	}
	if msg == nil {
		// Whitespace-only body: nothing was sent, nothing changed.
		return c.Status(http.StatusNoContent).Send(nil)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"ticket":  ticketSummary(ticket),
		"message": ticketMessageResponse(msg),
	}})
}

// UpdateStatus PATCH /agent/tickets/:id/status.
func (h *AgentTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requireAgent(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.Context(), principal.Agent.ID, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		if strings.Contains(err.Error(), "unknown status") {
			return apperrors.NewValidationError("unknown status", nil)
		}
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdatePriority PATCH /agent/tickets/:id/priority.
func (h *AgentTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	principal, err := requireAgent(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdatePriority(c.Context(), principal.Agent.ID, c.Params("id"), req.Priority)
	if err != nil {
		if strings.Contains(err.Error(), "unknown priority") {
			return apperrors.NewValidationError("unknown priority", nil)
		}
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListHistory GET /agent/tickets/:id/history.
func (h *AgentTicketsHandler) ListHistory(c *fiber.Ctx) error {
	if _, err := requireAgent(c); err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)
	entries, err := h.tickets.ListHistory(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ImportTickets POST /agent/tickets/import.
func (h *AgentTicketsHandler) ImportTickets(c *fiber.Ctx) error {
	principal, err := requireAgent(c)
	if err != nil {
		return err
	}
	var req dto.ImportTicketsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Records) == 0 {
		return apperrors.NewValidationError("records required", nil)
	}
	results := h.importer.ImportTickets(c.Context(), principal.Agent.ID, req.Records)
	return c.JSON(fiber.Map{"data": results})
}

func requireAgent(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	return principal, nil
}
