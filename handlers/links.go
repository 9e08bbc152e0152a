package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shortlink/apperrors"
	"shortlink/auth"
	"shortlink/services"
)

type CreateLinkRequest struct {
	RedirectURL string     `json:"redirect_url" binding:"required,url"`
	Remark      string     `json:"remark" binding:"required"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// UpdateLinkRequest distinguishes three states for expires_at: absent leaves
// the expiration unchanged, an explicit null clears it, a timestamp sets it.
// RawMessage keeps the distinction that *time.Time alone would lose.
type UpdateLinkRequest struct {
	RedirectURL *string         `json:"redirect_url"`
	Remark      *string         `json:"remark"`
	ExpiresAt   json.RawMessage `json:"expires_at"`
}

func (h *Handler) CreateLink(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validationf("invalid request body: %v", err))
		return
	}

	link, err := h.links.Create(c.Request.Context(), userID, req.RedirectURL, req.Remark, req.ExpiresAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "short URL created successfully",
		"id":           link.ID,
		"short_id":     link.ShortID,
		"redirect_url": link.RedirectURL,
		"short_url":    h.shortURL(link.ShortID),
		"expires_at":   link.ExpiresAt,
		"created_at":   link.CreatedAt,
	})
}

func (h *Handler) UpdateLink(c *gin.Context) {
	userID, _ := auth.UserID(c)

	linkID, ok := linkIDParam(c)
	if !ok {
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validationf("invalid request body: %v", err))
		return
	}

	upd := services.LinkUpdate{
		RedirectURL: req.RedirectURL,
		Remark:      req.Remark,
	}
	if len(req.ExpiresAt) > 0 {
		if string(req.ExpiresAt) == "null" {
			upd.ClearExpiresAt = true
		} else {
			var t time.Time
			if err := json.Unmarshal(req.ExpiresAt, &t); err != nil {
				respondError(c, apperrors.Validationf("invalid expires_at: %v", err))
				return
			}
			upd.ExpiresAt = &t
		}
	}

	link, err := h.links.Update(c.Request.Context(), userID, linkID, upd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "short URL updated successfully",
		"data":    link,
	})
}

func (h *Handler) DeleteLink(c *gin.Context) {
	userID, _ := auth.UserID(c)

	linkID, ok := linkIDParam(c)
	if !ok {
		return
	}

	if err := h.links.Delete(c.Request.Context(), userID, linkID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "short URL deleted successfully"})
}

func (h *Handler) GetLink(c *gin.Context) {
	userID, _ := auth.UserID(c)

	linkID, ok := linkIDParam(c)
	if !ok {
		return
	}

	link, err := h.links.Get(c.Request.Context(), userID, linkID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": link, "short_url": h.shortURL(link.ShortID)})
}

// ListLinks returns every link owned by the caller. An owner without links
// gets 200 and an empty array, not 404.
func (h *Handler) ListLinks(c *gin.Context) {
	userID, _ := auth.UserID(c)

	links, err := h.links.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links, "total": len(links)})
}

func (h *Handler) SearchLinks(c *gin.Context) {
	userID, _ := auth.UserID(c)

	links, err := h.links.Search(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links, "total": len(links)})
}

func (h *Handler) LinkStats(c *gin.Context) {
	userID, _ := auth.UserID(c)

	linkID, ok := linkIDParam(c)
	if !ok {
		return
	}

	stats, err := h.links.Stats(c.Request.Context(), userID, linkID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func linkIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, apperrors.Validationf("invalid link id"))
		return 0, false
	}
	return uint(id), true
}
