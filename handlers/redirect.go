package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortlink/clientinfo"
	"shortlink/models"
)

// Redirect is the single authoritative resolution path: look up the record,
// apply the expiry policy, queue the click, answer 302. The click append
// runs off-request so it can complete even if the client disconnects; a full
// queue drops the event rather than delaying the redirect.
func (h *Handler) Redirect(c *gin.Context) {
	shortID := c.Param("shortID")

	link, err := h.links.Resolve(c.Request.Context(), shortID)
	if err != nil {
		respondError(c, err)
		return
	}

	ev := models.ClickEvent{
		ShortID: shortID,
		Client:  clientinfo.Resolve(c),
	}
	if !h.clicks.Enqueue(ev) {
		log.Printf("click queue full, dropping event for %q", shortID)
	}

	c.Redirect(http.StatusFound, link.RedirectURL)
}
