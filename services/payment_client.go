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
)

// PaymentServiceClient talks to the payment provider's refund API. Checkout
// happens client-side against the provider; we only ever replay a captured
// payment reference for a full refund.
type PaymentServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewPaymentServiceClient(baseURL, token string) *PaymentServiceClient {
	return &PaymentServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Refund calls POST /v1/refunds on the payment provider
func (c *PaymentServiceClient) Refund(ctx context.Context, paymentRef string, amount float64) error {
	url := fmt.Sprintf("%s/v1/refunds", c.BaseURL)

	reqBody := map[string]interface{}{
		"payment_ref": paymentRef,
		"amount":      amount,
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
		log.Printf("PaymentService /v1/refunds returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("refund failed: %d", resp.StatusCode)
	}

	return nil
}

var _ RefundProvider = (*PaymentServiceClient)(nil)
