// services/sms_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"guesthouse-backend/utils"
)

// GatewayResultSuccess is the only result_code that allows marking sent state.
const GatewayResultSuccess = 1

// BatchRequest is one bulk send: recipient i receives message i.
type BatchRequest struct {
	MessageType string
	Recipients  []string
	Messages    []string
}

type BatchResponse struct {
	ResultCode   int    `json:"result_code"`
	MessageID    string `json:"msg_id"`
	SuccessCount int    `json:"success_cnt"`
	ErrorCount   int    `json:"error_cnt"`
	Message      string `json:"message"`
}

// SMSGateway is the external SMS transport. One call sends the whole batch;
// partial sends are not reported per recipient, only in the counts.
type SMSGateway interface {
	SendBatch(ctx context.Context, req BatchRequest) (BatchResponse, error)
}

// ---------------------------
// HTTP implementation
// ---------------------------

// HTTPSMSGateway posts the gateway's flat payload shape:
// {msg_type, cnt, testmode_yn, rec_1..rec_N, msg_1..msg_N}.
type HTTPSMSGateway struct {
	Endpoint string
	TestMode bool
	Client   *http.Client
}

func NewHTTPSMSGateway() *HTTPSMSGateway {
	return &HTTPSMSGateway{
		Endpoint: utils.EnvOrDefault("SMS_ENDPOINT", "http://localhost:3000/sendMass"),
		TestMode: utils.EnvOrDefault("SMS_TEST_MODE", "false") == "true",
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *HTTPSMSGateway) SendBatch(ctx context.Context, req BatchRequest) (BatchResponse, error) {
	if len(req.Recipients) != len(req.Messages) {
		return BatchResponse{}, fmt.Errorf("recipient/message count mismatch: %d != %d", len(req.Recipients), len(req.Messages))
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = "LMS"
	}
	testMode := "N"
	if g.TestMode {
		testMode = "Y"
	}

	payload := map[string]string{
		"msg_type":    msgType,
		"cnt":         strconv.Itoa(len(req.Recipients)),
		"testmode_yn": testMode,
	}
	for i := range req.Recipients {
		payload["rec_"+strconv.Itoa(i+1)] = req.Recipients[i]
		payload["msg_"+strconv.Itoa(i+1)] = req.Messages[i]
	}

	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(b))
	if err != nil {
		return BatchResponse{}, fmt.Errorf("cannot build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return BatchResponse{}, fmt.Errorf("gateway HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var out BatchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return BatchResponse{}, fmt.Errorf("gateway JSON parse error: %w", err)
	}
	return out, nil
}
