package waclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"mixmeet/pkg/domain"
)

// Client calls the whatsapp gateway service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a gateway client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Status reports whether the gateway session is connected, including the
// pairing QR code while it is not.
func (c *Client) Status() (domain.GatewayStatus, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/whatsapp/status")
	if err != nil {
		return domain.GatewayStatus{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return domain.GatewayStatus{}, &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	var status domain.GatewayStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return domain.GatewayStatus{}, err
	}
	return status, nil
}

type sendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

// SendCode asks the gateway to deliver a verification code message.
func (c *Client) SendCode(phoneNumber, code string) error {
	payload, err := json.Marshal(sendCodeRequest{PhoneNumber: phoneNumber, Code: code})
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Post(c.baseURL+"/api/whatsapp/send-code", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	return nil
}

type checkNumberRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type checkNumberResponse struct {
	Exists bool `json:"exists"`
}

// CheckNumber reports whether the phone number has a messaging account.
func (c *Client) CheckNumber(phoneNumber string) (bool, error) {
	payload, err := json.Marshal(checkNumberRequest{PhoneNumber: phoneNumber})
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Post(c.baseURL+"/api/whatsapp/check-number", "application/json", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return false, &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	var body checkNumberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Exists, nil
}

// APIError represents a gateway error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
