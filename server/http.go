package server

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"vendor-chat/domain/chat"
	"vendor-chat/errors"
	"vendor-chat/services"
)

type api struct {
	log     *slog.Logger
	service services.IChatService
}

// NewRouter builds the HTTP surface: REST CRUD for conversations and
// vendors plus the /ws upgrade endpoint.
func NewRouter(log *slog.Logger, service services.IChatService, ws *WSHandler) *gin.Engine {
	a := &api{log: log, service: service}

	router := gin.New()
	router.Use(gin.Recovery())

	chatGroup := router.Group("/chat")
	{
		chatGroup.GET("/conversations", a.listConversations)
		chatGroup.POST("/conversations", a.createConversation)
		chatGroup.GET("/conversations/:id", a.getConversation)
		chatGroup.GET("/vendors", a.listVendors)
		chatGroup.POST("/vendors", a.createVendor)
		chatGroup.GET("/vendors/:id", a.getVendor)
	}
	router.GET("/ws", ws.Handle)

	return router
}

type createConversationRequest struct {
	Title         string `json:"title" binding:"required"`
	VendorID      int64  `json:"vendor_id" binding:"required"`
	Type          string `json:"type" binding:"required"`
	RequisitionID *int64 `json:"requisition_id,omitempty"`
}

type conversationResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	VendorID      int64  `json:"vendor_id"`
	Type          string `json:"type"`
	RequisitionID *int64 `json:"requisition_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type createVendorRequest struct {
	Name    string   `json:"name" binding:"required"`
	Email   string   `json:"email" binding:"required,email"`
	Company string   `json:"company" binding:"required"`
	Skills  []string `json:"skills"`
}

type vendorResponse struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Company   string   `json:"company"`
	Skills    []string `json:"skills"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"created_at"`
}

func (a *api) listConversations(c *gin.Context) {
	conversations, err := a.service.ListConversations()
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(conversations, func(conversation chat.Conversation, _ int) conversationResponse {
		return toConversationResponse(conversation)
	}))
}

func (a *api) createConversation(c *gin.Context) {
	var request createConversationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conversation, err := a.service.CreateConversation(chat.CreateConversationCommand{
		Title:         request.Title,
		VendorID:      chat.VendorID(request.VendorID),
		Type:          request.Type,
		RequisitionID: request.RequisitionID,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationResponse(conversation))
}

func (a *api) getConversation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	conversation, err := a.service.GetConversation(chat.ConversationID(id))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConversationResponse(conversation))
}

func (a *api) listVendors(c *gin.Context) {
	vendors, err := a.service.ListVendors()
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(vendors, func(vendor chat.Vendor, _ int) vendorResponse {
		return toVendorResponse(vendor)
	}))
}

func (a *api) createVendor(c *gin.Context) {
	var request createVendorRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vendor, err := a.service.CreateVendor(chat.CreateVendorCommand{
		Name:    request.Name,
		Email:   request.Email,
		Company: request.Company,
		Skills:  request.Skills,
	})
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVendorResponse(vendor))
}

func (a *api) getVendor(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	vendor, err := a.service.GetVendor(chat.VendorID(id))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVendorResponse(vendor))
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (a *api) renderError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, errors.ErrConversationNotFound),
		stderrors.Is(err, errors.ErrVendorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrVendorRequired),
		stderrors.Is(err, errors.ErrInvalidSenderType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		a.log.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toConversationResponse(conversation chat.Conversation) conversationResponse {
	return conversationResponse{
		ID:            int64(conversation.ID),
		Title:         conversation.Title,
		VendorID:      int64(conversation.VendorID),
		Type:          conversation.Type,
		RequisitionID: conversation.RequisitionID,
		CreatedAt:     conversation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     conversation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toVendorResponse(vendor chat.Vendor) vendorResponse {
	return vendorResponse{
		ID:        int64(vendor.ID),
		Name:      vendor.Name,
		Email:     vendor.Email,
		Company:   vendor.Company,
		Skills:    vendor.Skills,
		Status:    vendor.Status,
		CreatedAt: vendor.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
