package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ams/internal/store"
)

// SaveUser conditionally upserts the posted user document, keyed by email.
// A brand-new user is inserted with a fresh timestamp; an existing user is
// only written when the incoming status requests the "requested" transition,
// otherwise the stored document comes back unchanged.
func (h *Handler) SaveUser(c *gin.Context) {
	var user store.Document
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if email, _ := user["email"].(string); email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	out, err := h.store.SaveUser(c.Request.Context(), user)
	if err != nil {
		h.storeError(c, "save user", err)
		return
	}
	if out.Existing != nil {
		c.JSON(http.StatusOK, out.Existing)
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

// GetUser looks up a user by email. An absent user is not an error; the
// response body is JSON null.
func (h *Handler) GetUser(c *gin.Context) {
	doc, err := h.store.FindUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.storeError(c, "find user", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ListUsers returns every stored user. This route sits behind the auth gate.
func (h *Handler) ListUsers(c *gin.Context) {
	docs, err := h.store.FindAll(c.Request.Context(), store.Users)
	if err != nil {
		h.storeError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// UpdateUser merges the posted fields into the user keyed by the path email
// and re-stamps the document.
func (h *Handler) UpdateUser(c *gin.Context) {
	var fields store.Document
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.store.UpdateUser(c.Request.Context(), c.Param("email"), fields)
	if err != nil {
		h.storeError(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
