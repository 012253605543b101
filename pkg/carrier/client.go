// Package carrier wraps the shipping provider's pickup-scheduling API. The
// core treats it as a black box that returns a tracking number and label.
package carrier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	BaseURL       string
	APIKey        string
	AccountNumber string
	ProviderName  string
	HTTPClient    *http.Client
}

type PickupRequest struct {
	OrderID       string  `json:"order_id"`
	AccountNumber string  `json:"account_number"`
	WeightKg      float64 `json:"weight_kg"`
	PackageCount  int     `json:"package_count"`
	TargetStatus  string  `json:"target_status"`
}

type PickupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		TrackingNumber     string `json:"tracking_number"`
		LabelURL           string `json:"label_url"`
		PickupConfirmation string `json:"pickup_confirmation"`
		PickupDate         string `json:"pickup_date"`
	} `json:"data"`
}

func NewClient(baseURL, apiKey, accountNumber, providerName string) *Client {
	return &Client{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		AccountNumber: accountNumber,
		ProviderName:  providerName,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SchedulePickup books a pickup for one fulfillment unit.
func (c *Client) SchedulePickup(req PickupRequest) (*PickupResponse, error) {
	if req.AccountNumber == "" {
		req.AccountNumber = c.AccountNumber
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/pickups", c.BaseURL)

	httpReq, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send pickup request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response PickupResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !response.Success {
		return nil, fmt.Errorf("pickup scheduling failed (%d): %s", resp.StatusCode, response.Message)
	}
	return &response, nil
}
