package handlers

import (
	"errors"
	"net/http"

	"github.com/cortexbi/cortex/internal/abc"
	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/pkg/logger"
)

// ProductHandler serves the ABC classification endpoints.
type ProductHandler struct {
	products   contracts.ProductSource
	classifier *abc.Classifier
	logger     *logger.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products contracts.ProductSource, classifier *abc.Classifier, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		products:   products,
		classifier: classifier,
		logger:     log,
	}
}

// GetABC returns the revenue-concentration classification with per-class
// summaries. A catalog with no recorded revenue classifies nothing.
// GET /api/products/abc
func (h *ProductHandler) GetABC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.products.AllProducts(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load products")
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	classes, err := h.classifier.Classify(products)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientData) {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"classes": []contracts.ProductClass{},
				"summary": []abc.ClassSummary{},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to classify products")
		respondError(w, http.StatusInternalServerError, "failed to classify products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"classes": classes,
		"summary": h.classifier.Summarize(products, classes),
	})
}
