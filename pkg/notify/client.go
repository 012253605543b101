// Package notify is a thin client for the dashboard notification service.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type markReadRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

type markReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// MarkOrderRead marks all notifications filed under an order entity id read.
func (c *Client) MarkOrderRead(entityID string) error {
	jsonData, err := json.Marshal(markReadRequest{EntityType: "order", EntityID: entityID})
	if err != nil {
		return fmt.Errorf("failed to marshal mark-read request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/notifications/mark-read", c.BaseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mark-read request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var response markReadResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !response.Success {
		return fmt.Errorf("mark-read failed (%d): %s", resp.StatusCode, response.Message)
	}
	return nil
}
