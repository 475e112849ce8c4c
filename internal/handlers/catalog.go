package handlers

import (
	"net/http"

	"SPX-VAL/internal/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func NewCatalogHandler(c *catalog.Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

func (h *CatalogHandler) Banks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"banks": h.catalog.Banks})
}

func (h *CatalogHandler) ValuationTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valuationTypes": h.catalog.ValuationTypes})
}

type selectBankRequest struct {
	Code string `json:"code" binding:"required"`
}

// SelectBank stores the bank on the session. With a document open the
// bank code field follows the selection.
func (h *CatalogHandler) SelectBank(c *gin.Context) {
	var req selectBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bank code is required"})
		return
	}
	bank, err := h.catalog.Bank(req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	currentSession(c).SelectBank(bank)
	c.JSON(http.StatusOK, gin.H{"bank": bank})
}

type selectValuationTypeRequest struct {
	ID string `json:"id" binding:"required"`
}

func (h *CatalogHandler) SelectValuationType(c *gin.Context) {
	var req selectValuationTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valuation type id is required"})
		return
	}
	vt, err := h.catalog.ValuationType(req.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	currentSession(c).SelectValuationType(vt)
	c.JSON(http.StatusOK, gin.H{"valuationType": vt})
}
