// Package handler provides HTTP request handlers for the inventory API.
package handler

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// AdvanceRequest is the optional body of POST /api/v1/inventory/advance.
type AdvanceRequest struct {
	Days int `json:"days"`
}

// CreateItemRequest is the body of POST /api/v1/items.
type CreateItemRequest struct {
	Name    string `json:"name"`
	SellIn  int    `json:"sell_in"`
	Quality int    `json:"quality"`
}
