package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ams/internal/store"
)

// CreateCourse inserts a course document as posted, no schema enforced.
func (h *Handler) CreateCourse(c *gin.Context) {
	h.insertOne(c, store.Courses)
}

// CreateStudent inserts a student document as posted, no schema enforced.
func (h *Handler) CreateStudent(c *gin.Context) {
	h.insertOne(c, store.Students)
}

func (h *Handler) insertOne(c *gin.Context, collection string) {
	var doc store.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.store.InsertOne(c.Request.Context(), collection, doc)
	if err != nil {
		h.storeError(c, "insert "+collection, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateAttendance inserts a batch of attendance records. The payload must be
// a JSON array; anything else is a 400. The batch is all-or-nothing.
func (h *Handler) CreateAttendance(c *gin.Context) {
	var records []store.Document
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Data should be an array of attendance records"})
		return
	}

	res, err := h.store.InsertMany(c.Request.Context(), store.Attendances, records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add records"})
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListCourses returns every stored course.
func (h *Handler) ListCourses(c *gin.Context) {
	h.listAll(c, store.Courses)
}

// ListStudents returns every stored student.
func (h *Handler) ListStudents(c *gin.Context) {
	h.listAll(c, store.Students)
}

// ListAttendances returns every stored attendance record.
func (h *Handler) ListAttendances(c *gin.Context) {
	h.listAll(c, store.Attendances)
}

func (h *Handler) listAll(c *gin.Context, collection string) {
	docs, err := h.store.FindAll(c.Request.Context(), collection)
	if err != nil {
		h.storeError(c, "list "+collection, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}
