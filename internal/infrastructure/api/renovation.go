package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/renvo/client-core/internal/core/domain"
)

type propertyPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	OwnerID string `json:"owner_id"`
}

type propertyListPayload struct {
	Properties []propertyPayload `json:"properties"`
}

type renovationPayload struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Budget      float64   `json:"budget"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type renovationListPayload struct {
	Renovations []renovationPayload `json:"renovations"`
}

type updateRenovationStatusRequest struct {
	Status string `json:"status"`
}

func toRenovation(p renovationPayload) domain.Renovation {
	return domain.Renovation{
		ID:          p.ID,
		PropertyID:  p.PropertyID,
		Title:       p.Title,
		Description: p.Description,
		Status:      domain.RenovationStatus(p.Status),
		Budget:      p.Budget,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ListProperties calls GET /properties.
func (c *Client) ListProperties(ctx context.Context) ([]domain.Property, error) {
	var payload propertyListPayload
	if err := c.do(ctx, http.MethodGet, "properties_list", "/properties", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.Property, 0, len(payload.Properties))
	for _, p := range payload.Properties {
		out = append(out, domain.Property{
			ID:      p.ID,
			Name:    p.Name,
			Address: p.Address,
			City:    p.City,
			ZipCode: p.ZipCode,
			OwnerID: p.OwnerID,
		})
	}
	return out, nil
}

// ListRenovations calls GET /renovations.
func (c *Client) ListRenovations(ctx context.Context) ([]domain.Renovation, error) {
	var payload renovationListPayload
	if err := c.do(ctx, http.MethodGet, "renovations_list", "/renovations", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]domain.Renovation, 0, len(payload.Renovations))
	for _, p := range payload.Renovations {
		out = append(out, toRenovation(p))
	}
	return out, nil
}

// UpdateRenovationStatus calls PATCH /renovations/:id/status.
func (c *Client) UpdateRenovationStatus(ctx context.Context, id string, status domain.RenovationStatus) (*domain.Renovation, error) {
	var payload renovationPayload
	path := "/renovations/" + url.PathEscape(id) + "/status"
	err := c.do(ctx, http.MethodPatch, "renovations_update_status", path,
		updateRenovationStatusRequest{Status: string(status)}, &payload)
	if err != nil {
		return nil, err
	}
	r := toRenovation(payload)
	return &r, nil
}
