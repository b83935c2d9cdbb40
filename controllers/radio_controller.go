// controllers/radio_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"radio_fleet_tool/app"
	"radio_fleet_tool/inventory"
	"radio_fleet_tool/models"

	"github.com/gin-gonic/gin"
)

type RadioController struct{ *Srv }

func NewRadioController(s *Srv) *RadioController { return &RadioController{Srv: s} }

// POST /api/radios
func (rc *RadioController) Create(c *gin.Context) {
	var in inventory.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request body"})
		return
	}
	radio, err := rc.Inventory.Create(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, radio)
}

// PATCH /api/radios/:id
func (rc *RadioController) Update(c *gin.Context) {
	var in inventory.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request body"})
		return
	}
	radio, err := rc.Inventory.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, radio)
}

// PUT /api/radios/:id/status
func (rc *RadioController) UpdateStatus(c *gin.Context) {
	var in struct {
		Status models.RadioStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "status is required"})
		return
	}
	if err := rc.Inventory.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// DELETE /api/radios/:id?force=true
func (rc *RadioController) Delete(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	if err := rc.Inventory.Delete(c.Request.Context(), c.Param("id"), force); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/radios?status=&take=&skip=
func (rc *RadioController) List(c *gin.Context) {
	var status *models.RadioStatus
	if v := c.Query("status"); v != "" {
		st := models.RadioStatus(v)
		status = &st
	}
	take, _ := strconv.Atoi(c.DefaultQuery("take", "0"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	radios, err := rc.Inventory.FindAll(c.Request.Context(), status, take, skip)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": radios})
}

// GET /api/radios/:id
func (rc *RadioController) Get(c *gin.Context) {
	radio, err := rc.Inventory.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, radio)
}

// POST /api/radios/:id/borrow
func (rc *RadioController) Borrow(c *gin.Context) {
	var in struct {
		BorrowerName string `json:"borrowerName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "borrower name is required"})
		return
	}
	loan, err := rc.Inventory.Borrow(c.Request.Context(), c.Param("id"), in.BorrowerName)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// POST /api/loans/:loanId/return
func (rc *RadioController) Return(c *gin.Context) {
	var in struct {
		Note *string `json:"note"`
	}
	_ = c.ShouldBindJSON(&in)

	loan, err := rc.Inventory.Return(c.Request.Context(), c.Param("loanId"), in.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}
