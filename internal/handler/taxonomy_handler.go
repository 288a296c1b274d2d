package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailor-app/internal/taxonomy"
)

// TaxonomyHandler serves the one taxonomy document both the intake form and the
// admin filters render from.
type TaxonomyHandler struct {
	taxonomy *taxonomy.Taxonomy
}

func NewTaxonomyHandler(tx *taxonomy.Taxonomy) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: tx}
}

func (h *TaxonomyHandler) GetTaxonomy(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, h.taxonomy)
}
