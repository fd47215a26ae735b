package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilink/signaling/internal/directory"
	"github.com/medilink/signaling/internal/domain"
)

type directoryHandlers struct {
	dir *directory.Memory
}

func (d *directoryHandlers) listDoctors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"doctors": d.dir.Doctors()})
}

func (d *directoryHandlers) addDoctor(c *gin.Context) {
	var doc domain.Doctor
	if err := c.ShouldBindJSON(&doc); err != nil || doc.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}
	d.dir.AddDoctor(doc)
	c.JSON(http.StatusCreated, doc)
}

func (d *directoryHandlers) setAvailability(c *gin.Context) {
	var req struct {
		Available bool `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !d.dir.SetAvailability(c.Param("name"), req.Available) {
		c.JSON(http.StatusNotFound, gin.H{"error": "doctor not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (d *directoryHandlers) listPatients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"patients": d.dir.Patients()})
}

func (d *directoryHandlers) addPatient(c *gin.Context) {
	var p domain.Patient
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}
	d.dir.AddPatient(p)
	c.JSON(http.StatusCreated, p)
}
