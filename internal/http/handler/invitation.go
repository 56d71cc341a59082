package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/http/dto"
	"edulift.app/membership/internal/http/middleware"
	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
)

type InvitationHandler struct {
	membership service.MembershipCoordinator
}

func NewInvitationHandler(membership service.MembershipCoordinator) *InvitationHandler {
	return &InvitationHandler{membership: membership}
}

func (h *InvitationHandler) CreateFamily(c *gin.Context) {
	h.create(c, model.InvitationKindFamily)
}

func (h *InvitationHandler) CreateGroup(c *gin.Context) {
	h.create(c, model.InvitationKindGroup)
}

func (h *InvitationHandler) create(c *gin.Context, kind model.InvitationKind) {
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := caller(c)
	if !ok {
		return
	}

	// An empty body creates an open MEMBER invitation.
	var req dto.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	var (
		inv *model.Invitation
		err error
	)
	if kind == model.InvitationKindFamily {
		inv, err = h.membership.CreateFamilyInvitation(ctx, identity, targetID, req.ToInput())
	} else {
		inv, err = h.membership.CreateGroupInvitation(ctx, identity, targetID, req.ToInput())
	}
	if err != nil {
		writeError(c, err, "failed to create invitation")
		return
	}

	slog.InfoContext(ctx, "invitation created via API",
		"invitation_id", inv.ID,
		"kind", inv.Kind,
		"target_id", inv.TargetID,
		"open", inv.IsOpen(),
	)

	c.JSON(http.StatusCreated, dto.ToInvitationResponse(inv))
}

func (h *InvitationHandler) ListFamily(c *gin.Context) {
	h.list(c, model.InvitationKindFamily)
}

func (h *InvitationHandler) ListGroup(c *gin.Context) {
	h.list(c, model.InvitationKindGroup)
}

func (h *InvitationHandler) list(c *gin.Context, kind model.InvitationKind) {
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := caller(c)
	if !ok {
		return
	}

	invitations, err := h.membership.ListPendingInvitationsForTarget(c.Request.Context(), identity, kind, targetID)
	if err != nil {
		writeError(c, err, "failed to list invitations")
		return
	}

	c.JSON(http.StatusOK, dto.ToListInvitationsResponse(invitations))
}

// ValidateFamily is public. With a token the response also reports the
// caller's eligibility.
func (h *InvitationHandler) ValidateFamily(c *gin.Context) {
	code, ok := queryCode(c)
	if !ok {
		return
	}

	result, err := h.membership.ValidateFamilyInvitation(c.Request.Context(), code, middleware.GetIdentity(c.Request.Context()))
	if err != nil {
		writeError(c, err, "failed to validate invitation")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *InvitationHandler) ValidateGroup(c *gin.Context) {
	code, ok := queryCode(c)
	if !ok {
		return
	}

	result, err := h.membership.ValidateGroupInvitation(c.Request.Context(), code, middleware.GetIdentity(c.Request.Context()))
	if err != nil {
		writeError(c, err, "failed to validate invitation")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *InvitationHandler) AcceptFamily(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	var req dto.AcceptFamilyInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: code is required")
		return
	}

	ctx := c.Request.Context()
	result, err := h.membership.AcceptFamilyInvitation(ctx, req.Code, identity, service.AcceptFamilyOptions{
		LeaveCurrentFamily: req.LeaveCurrentFamily,
	})
	if err != nil {
		writeError(c, err, "failed to accept invitation")
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{FamilyID: logger.Ptr(result.Family.ID)})
	slog.InfoContext(ctx, "family invitation accepted via API",
		"invitation_id", result.Invitation.ID,
		"left_previous_family", result.LeftFamilyID != nil,
	)

	c.JSON(http.StatusOK, dto.ToFamilyAcceptanceResponse(result))
}

func (h *InvitationHandler) AcceptGroup(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	var req dto.AcceptGroupInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: code is required")
		return
	}

	ctx := c.Request.Context()
	result, err := h.membership.AcceptGroupInvitation(ctx, req.Code, identity)
	if err != nil {
		writeError(c, err, "failed to accept invitation")
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{GroupID: logger.Ptr(result.Group.ID)})
	slog.InfoContext(ctx, "group invitation accepted via API",
		"invitation_id", result.Invitation.ID,
		"family_id", result.Binding.FamilyID,
	)

	c.JSON(http.StatusOK, dto.ToGroupAcceptanceResponse(result))
}

func (h *InvitationHandler) CancelFamily(c *gin.Context) {
	h.cancel(c, model.InvitationKindFamily)
}

func (h *InvitationHandler) CancelGroup(c *gin.Context) {
	h.cancel(c, model.InvitationKindGroup)
}

func (h *InvitationHandler) cancel(c *gin.Context, kind model.InvitationKind) {
	invitationID, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := caller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	if kind == model.InvitationKindFamily {
		err = h.membership.CancelFamilyInvitation(ctx, identity, invitationID)
	} else {
		err = h.membership.CancelGroupInvitation(ctx, identity, invitationID)
	}
	if err != nil {
		writeError(c, err, "failed to cancel invitation")
		return
	}

	c.Status(http.StatusNoContent)
}

// Mine lists the live invitations addressed to the caller's e-mail.
func (h *InvitationHandler) Mine(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	invitations, err := h.membership.ListInvitationsForUserEmail(c.Request.Context(), identity.Email)
	if err != nil {
		writeError(c, err, "failed to list invitations")
		return
	}

	c.JSON(http.StatusOK, dto.ToListInvitationsResponse(invitations))
}

func queryCode(c *gin.Context) (string, bool) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		badRequest(c, "code is required")
		return "", false
	}
	return code, true
}
