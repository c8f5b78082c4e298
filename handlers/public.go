package handlers

import (
	"net/http"

	"bar-order-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Bar Order API",
		"version": "1.0.0",
	})
}

// GetStateMachineInfo returns the order status transitions
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine": statemachine.GetAllTransitions(),
		"initial_state": "PENDING",
		"description":   "Bar order status lifecycle; staff may move an order between any two states",
	})
}

// GetTableQRCode renders the QR code printed on a table
func (a *API) GetTableQRCode(c *gin.Context) {
	png, err := a.QR.Generate(c.Param("table"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
