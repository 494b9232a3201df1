package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ams/internal/auth"
	"ams/internal/store"
)

// Handler serves the attendance-management API. Every route composes exactly
// one store call and serializes its result.
type Handler struct {
	store         store.Store
	tokens        *auth.TokenService
	log           *zap.Logger
	secureCookies bool
}

// New creates a Handler. secureCookies selects the production cookie policy
// (Secure, SameSite=None) over the development one (SameSite=Strict).
func New(s store.Store, tokens *auth.TokenService, log *zap.Logger, secureCookies bool) *Handler {
	return &Handler{store: s, tokens: tokens, log: log, secureCookies: secureCookies}
}

// Register binds all routes. Only GET /users sits behind the auth gate; the
// other read routes are deliberately left open to match the existing clients.
func (h *Handler) Register(r *gin.Engine, gate gin.HandlerFunc) {
	r.GET("/", h.Root)

	r.POST("/jwt", h.IssueToken)
	r.GET("/logout", h.Logout)

	r.PUT("/user", h.SaveUser)
	r.GET("/user/:email", h.GetUser)
	r.GET("/users", gate, h.ListUsers)
	r.PATCH("/users/update/:email", h.UpdateUser)

	r.POST("/courses", h.CreateCourse)
	r.GET("/courses", h.ListCourses)
	r.POST("/students", h.CreateStudent)
	r.GET("/students", h.ListStudents)
	r.POST("/attendance", h.CreateAttendance)
	r.GET("/attendances", h.ListAttendances)
}

// Root confirms liveness with a static greeting.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "AMS server is up and running..")
}

// storeError translates a persistence failure into the uniform 500 envelope.
func (h *Handler) storeError(c *gin.Context, op string, err error) {
	h.log.Error("store operation failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "persistence failure"})
}
