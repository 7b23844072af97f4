package pawapay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maua/florist-api/configs"
	"github.com/maua/florist-api/internal/usecase"
)

const depositsPath = "/v2/deposits"

// Client talks to the PawaPay merchant API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg configs.Config) *Client {
	timeout := cfg.PawaPay.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.PawaPay.BaseURL, "/"),
		token:   cfg.PawaPay.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

type accountDetails struct {
	PhoneNumber string `json:"phoneNumber"`
	Provider    string `json:"provider"`
}

type payer struct {
	Type           string         `json:"type"`
	AccountDetails accountDetails `json:"accountDetails"`
}

type depositPayload struct {
	DepositID     string `json:"depositId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Correspondent string `json:"correspondent"`
	Payer         payer  `json:"payer"`
}

func (c *Client) Configured() bool { return c.token != "" }

// RequestDeposit creates a deposit. Any non-2xx answer is returned as
// *usecase.ProviderError carrying the provider's status code and body.
func (c *Client) RequestDeposit(ctx context.Context, req usecase.DepositRequest) error {
	body, err := json.Marshal(depositPayload{
		DepositID:     req.DepositID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Correspondent: req.Operator, // VODACOM_MPESA_COD, AIRTEL_COD, ORANGE_COD
		Payer: payer{
			Type: "MMO",
			AccountDetails: accountDetails{
				PhoneNumber: req.PhoneNumber,
				Provider:    req.Operator,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal deposit: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+depositsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build deposit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call pawapay: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read pawapay response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return rejection(resp.StatusCode, raw)
}

func rejection(status int, raw []byte) *usecase.ProviderError {
	pe := &usecase.ProviderError{StatusCode: status, Message: "Payment initiation failed"}
	var parsed struct {
		Message       string `json:"message"`
		FailureReason struct {
			FailureMessage string `json:"failureMessage"`
		} `json:"failureReason"`
	}
	if json.Valid(raw) {
		pe.Body = json.RawMessage(raw)
		if err := json.Unmarshal(raw, &parsed); err == nil {
			switch {
			case parsed.Message != "":
				pe.Message = parsed.Message
			case parsed.FailureReason.FailureMessage != "":
				pe.Message = parsed.FailureReason.FailureMessage
			}
		}
	} else if len(raw) > 0 {
		b, _ := json.Marshal(string(raw))
		pe.Body = b
	}
	return pe
}

var _ usecase.DepositProvider = (*Client)(nil)
