package handlers

import (
	"net/http"
	"strconv"

	"bar-order-api/service"

	"github.com/gin-gonic/gin"
)

func (a *API) imageURL(c *gin.Context) func(string) string {
	return func(rel string) string {
		return absoluteURL(c, a.Products.ImageURL(rel))
	}
}

// ListProducts returns the whole catalog
func (a *API) ListProducts(c *gin.Context) {
	products, err := a.Products.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.RepresentProducts(products, a.imageURL(c)))
}

func (a *API) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	product, err := a.Products.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.RepresentProduct(product, a.imageURL(c)))
}

func (a *API) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "product")
	if !ok {
		return
	}
	product, err := a.Products.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.RepresentProduct(product, a.imageURL(c)))
}

// UpdateProduct serves PUT (all fields required) and PATCH (partial)
func (a *API) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "product")
	if !ok {
		return
	}
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	partial := c.Request.Method == http.MethodPatch
	product, err := a.Products.Update(c.Request.Context(), id, in, partial)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.RepresentProduct(product, a.imageURL(c)))
}

// DeleteProduct is refused with 409 while any order detail references it
func (a *API) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "product")
	if !ok {
		return
	}
	if err := a.Products.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadProductImage takes a multipart form {product_id, file}; the file
// must be a raster image
func (a *API) UploadProductImage(c *gin.Context) {
	productID := c.PostForm("product_id")
	file, err := c.FormFile("file")
	if productID == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and file are required"})
		return
	}
	id, err := strconv.ParseUint(productID, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file"})
		return
	}
	defer src.Close()

	product, err := a.Products.AttachImage(c.Request.Context(), uint(id), src)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": absoluteURL(c, a.Products.ImageURL(*product.Image))})
}
