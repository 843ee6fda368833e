package models

import "fmt"

// MediaAsset is an image file produced for a product. Images are shared by
// every variant of the product.
type MediaAsset struct {
	ProductID string `json:"product_id"`
	Index     int    `json:"index"` // 1-based position in the source media array
	SourceURL string `json:"source_url"`
	Path      string `json:"path"`
}

// MediaFileName returns the deterministic file name for the n-th image of a product.
func MediaFileName(productID string, index int) string {
	return fmt.Sprintf("%s_%d.jpg", productID, index)
}
