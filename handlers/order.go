package handlers

import (
	"net/http"

	"bar-order-api/service"

	"github.com/gin-gonic/gin"
)

// ListOrders returns all orders, optionally filtered by ?order_method=
func (a *API) ListOrders(c *gin.Context) {
	orders, err := a.Orders.List(c.Request.Context(), c.Query("order_method"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.RepresentOrders(orders))
}

// CreateOrder places an order together with its line items
func (a *API) CreateOrder(c *gin.Context) {
	var in service.OrderInput
	if !bindJSON(c, &in) {
		return
	}
	order, err := a.Orders.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.RepresentOrder(order))
}

func (a *API) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}
	order, err := a.Orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.RepresentOrder(order))
}

// UpdateOrder serves both PUT and PATCH: omitted fields keep their value and
// a present details list replaces the existing one
func (a *API) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}
	var in service.OrderInput
	if !bindJSON(c, &in) {
		return
	}
	order, err := a.Orders.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.RepresentOrder(order))
}

func (a *API) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}
	if err := a.Orders.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}
	if _, err := a.Orders.Cancel(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "order cancelled"})
}

func (a *API) CompleteOrder(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}
	if _, err := a.Orders.Complete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "order completed"})
}

// GetOrderHistory returns the order's status-change audit trail
func (a *API) GetOrderHistory(c *gin.Context) {
	id, ok := pathID(c, "order")
	if !ok {
		return
	}
	changes, err := a.Orders.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": id,
		"count":    len(changes),
		"history":  service.RepresentHistory(changes),
	})
}
