package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/spaces"
)

type spacePayload struct {
	Building    *string `json:"building"`
	Sublocation *string `json:"sublocation"`
	Description *string `json:"description"`
}

type reviewPayload struct {
	SpaceID     string `json:"space_id"`
	EntityID    string `json:"entity_id"`
	Rating      *int   `json:"rating"`
	Silence     *int   `json:"silence"`
	Crowdedness *int   `json:"crowdedness"`
	Review      string `json:"review"`
	ReportedBy  string `json:"reported_by"`
}

func (h *httpHandler) handleListSpaces(c *gin.Context) {
	views, err := h.spaces.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleGetSpace(c *gin.Context) {
	detail, err := h.spaces.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *httpHandler) handleCreateSpace(c *gin.Context) {
	var payload spacePayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	view, err := h.spaces.Create(c.Request.Context(), spaces.CreateInput{
		Building:    valueOf(payload.Building),
		Sublocation: valueOf(payload.Sublocation),
		Description: valueOf(payload.Description),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *httpHandler) handleUpdateSpace(c *gin.Context) {
	var payload spacePayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	view, err := h.spaces.Update(c.Request.Context(), c.Param("id"), spaces.Patch{
		Building:    payload.Building,
		Sublocation: payload.Sublocation,
		Description: payload.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleDeleteSpace(c *gin.Context) {
	if err := h.spaces.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListReviews(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	spaceID, err := entityRef("space_id", c.Query("space_id"), c.Query("entity_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	reviews, err := h.spaces.ListReviews(c.Request.Context(), spaces.ReviewFilter{SpaceID: spaceID, Limit: limit})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *httpHandler) handleSubmitReview(c *gin.Context) {
	var payload reviewPayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	spaceID, err := entityRef("space_id", payload.SpaceID, payload.EntityID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	review, err := h.spaces.SubmitReview(c.Request.Context(), spaces.ReviewInput{
		SpaceID:     spaceID,
		Rating:      payload.Rating,
		Silence:     payload.Silence,
		Crowdedness: payload.Crowdedness,
		Text:        payload.Review,
		ReportedBy:  payload.ReportedBy,
	}, identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
