package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shortlink/apperrors"
	"shortlink/auth"
	"shortlink/config"
	"shortlink/services"
	"shortlink/workers"
)

// Handler bundles the dependencies the HTTP layer needs. Everything is
// injected; handlers hold no global state.
type Handler struct {
	cfg    *config.Config
	auth   *auth.Manager
	links  *services.LinkService
	users  *services.UserService
	clicks *workers.ClickQueue
}

func New(cfg *config.Config, authMgr *auth.Manager, links *services.LinkService, users *services.UserService, clicks *workers.ClickQueue) *Handler {
	return &Handler{cfg: cfg, auth: authMgr, links: links, users: users, clicks: clicks}
}

// SetupRoutes registers every endpoint on the router. The redirect route
// lives at the root; everything else is under /api, with link and profile
// operations behind the JWT middleware.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/:shortID", h.Redirect)

	api := router.Group("/api")
	api.POST("/user/register", h.Register)
	api.POST("/user/login", h.Login)

	protected := api.Group("")
	protected.Use(h.auth.Middleware())
	{
		protected.GET("/user/profile", h.Profile)
		protected.PUT("/user/update", h.UpdateProfile)
		protected.DELETE("/user/delete", h.DeleteAccount)

		protected.POST("/links", h.CreateLink)
		protected.GET("/links", h.ListLinks)
		protected.GET("/links/search", h.SearchLinks)
		protected.GET("/links/:id", h.GetLink)
		protected.GET("/links/:id/stats", h.LinkStats)
		protected.PUT("/links/:id", h.UpdateLink)
		protected.DELETE("/links/:id", h.DeleteLink)
	}
}

// respondError translates a service error into the boundary shape: a stable
// machine-readable kind plus a human-readable message, never internals.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{
		"kind":    apperrors.Kind(err),
		"message": apperrors.Message(err),
	})
}

func (h *Handler) shortURL(shortID string) string {
	return h.cfg.Server.BaseURL + "/" + shortID
}
