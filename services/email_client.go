package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"nightlife-platform/utils"
)

// EmailServiceClient sends transactional mail through the email provider's
// template API.
type EmailServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewEmailServiceClient(baseURL, token string) *EmailServiceClient {
	return &EmailServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.HTTPClient,
	}
}

// SendCancellationNotice calls POST /v1/messages with the event-cancelled template
func (c *EmailServiceClient) SendCancellationNotice(ctx context.Context, notice CancellationNotice) error {
	url := fmt.Sprintf("%s/v1/messages", c.BaseURL)

	reqBody := map[string]interface{}{
		"to":       notice.Email,
		"template": "event_cancelled",
		"data": map[string]interface{}{
			"name":            notice.Name,
			"event_name":      notice.EventName,
			"venue_name":      notice.VenueName,
			"event_date":      notice.EventDate.Format(time.RFC3339),
			"was_paid":        notice.WasPaid,
			"amount_refunded": notice.AmountRefunded,
		},
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("EmailService /v1/messages returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("email send failed: %d", resp.StatusCode)
	}

	return nil
}

var _ CancellationNotifier = (*EmailServiceClient)(nil)
