package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CheckoutGateway = (*IyzicoGateway)(nil)

// IyzicoGateway implements the hosted checkout-form flow against iyzico
// using direct HTTP calls. Every request carries an IYZWS authorization
// header: HMAC-SHA256 over a random nonce concatenated with the serialized
// request body, keyed by the merchant secret.
type IyzicoGateway struct {
	apiKey      string
	secretKey   string
	baseURL     string
	callbackURL string
	client      *http.Client
}

func NewIyzicoGateway(apiKey, secretKey, baseURL, callbackURL string) (*IyzicoGateway, error) {
	if apiKey == "" || secretKey == "" {
		return nil, fmt.Errorf("%w: iyzico credentials missing", domain.ErrInvalidArgument)
	}
	if baseURL == "" {
		baseURL = "https://api.iyzipay.com"
	}
	return &IyzicoGateway{
		apiKey:      apiKey,
		secretKey:   secretKey,
		baseURL:     baseURL,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (g *IyzicoGateway) Name() string { return "iyzico" }

type initializeResponse struct {
	Status              string `json:"status"`
	Token               string `json:"token"`
	CheckoutFormContent string `json:"checkoutFormContent"`
	PaymentPageURL      string `json:"paymentPageUrl"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

type retrieveResponse struct {
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus"`
	PaymentID     json.Number `json:"paymentId"`
	ErrorCode     string      `json:"errorCode"`
	ErrorMessage  string      `json:"errorMessage"`
}

// InitializeCheckout opens a hosted checkout form and returns its token.
func (g *IyzicoGateway) InitializeCheckout(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error) {
	buyerName, buyerSurname := splitName(req.BuyerName)
	nowStamp := time.Now().Format("2006-01-02 15:04:05") + " +0300"
	callback := req.CallbackURL
	if callback == "" {
		callback = g.callbackURL
	}

	body := map[string]interface{}{
		"locale":              "tr",
		"conversationId":      req.ConversationID,
		"price":               req.Price,
		"paidPrice":           req.Price,
		"currency":            "TRY",
		"basketId":            req.BasketID,
		"paymentGroup":        "PRODUCT",
		"callbackUrl":         callback,
		"enabledInstallments": []int{1, 2, 3, 6, 9},
		"buyer": map[string]interface{}{
			"id":                  req.BuyerID,
			"name":                buyerName,
			"surname":             buyerSurname,
			"gsmNumber":           "+905350000000",
			"email":               req.BuyerEmail,
			"identityNumber":      "74300864791",
			"lastLoginDate":       nowStamp,
			"registrationDate":    nowStamp,
			"registrationAddress": "Nidakule Göztepe, Merdivenköy Mah. Bora Sok. No:1",
			"ip":                  req.BuyerIP,
			"city":                "Istanbul",
			"country":             "Turkey",
			"zipCode":             "34732",
		},
		"shippingAddress": gatewayAddress(req.BuyerName),
		"billingAddress":  gatewayAddress(req.BuyerName),
		"basketItems": []map[string]interface{}{
			{
				"id":        req.PackageID,
				"name":      req.PackageName,
				"category1": "Kredi Paketi",
				"itemType":  "VIRTUAL",
				"price":     req.Price,
			},
		},
	}

	var resp initializeResponse
	if err := g.post(ctx, "/payment/iyzipos/checkoutform/initialize/auth/ecom", body, &resp); err != nil {
		return adapter.CheckoutSession{}, err
	}
	if resp.Status != "success" {
		if signatureErrorCode(resp.ErrorCode) {
			return adapter.CheckoutSession{}, fmt.Errorf("%w: %s", domain.ErrGatewaySignature, resp.ErrorMessage)
		}
		msg := resp.ErrorMessage
		if msg == "" {
			msg = "Payment initialization failed"
		}
		return adapter.CheckoutSession{}, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, msg)
	}

	formURL := resp.PaymentPageURL
	if formURL == "" {
		formURL = resp.CheckoutFormContent
	}
	return adapter.CheckoutSession{Token: resp.Token, CheckoutFormURL: formURL}, nil
}

// RetrieveCheckout asks the gateway for the outcome of a checkout token.
func (g *IyzicoGateway) RetrieveCheckout(ctx context.Context, token string) (adapter.CheckoutResult, error) {
	body := map[string]interface{}{
		"locale": "tr",
		"token":  token,
	}

	var resp retrieveResponse
	if err := g.post(ctx, "/payment/iyzipos/checkoutform/auth/ecom/detail", body, &resp); err != nil {
		return adapter.CheckoutResult{}, err
	}
	if resp.Status != "success" && signatureErrorCode(resp.ErrorCode) {
		return adapter.CheckoutResult{}, fmt.Errorf("%w: %s", domain.ErrGatewaySignature, resp.ErrorMessage)
	}
	return adapter.CheckoutResult{
		Success:       resp.Status == "success",
		PaymentStatus: resp.PaymentStatus,
		PaymentID:     resp.PaymentID.String(),
		ErrorMessage:  resp.ErrorMessage,
	}, nil
}

func (g *IyzicoGateway) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", Authorization(g.apiKey, g.secretKey, randomString(8), payload))

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: http %d", domain.ErrGatewaySignature, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}

// Authorization builds the IYZWS header value for a serialized body:
// IYZWS <apiKey>:<nonce>:<hex hmac-sha256(secret, nonce+body)>.
func Authorization(apiKey, secretKey, nonce string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(nonce))
	mac.Write(body)
	return fmt.Sprintf("IYZWS %s:%s:%s", apiKey, nonce, hex.EncodeToString(mac.Sum(nil)))
}

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomString(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(nonceAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			panic(err)
		}
		out[i] = nonceAlphabet[idx.Int64()]
	}
	return string(out)
}

// signatureErrorCode marks gateway errors that indicate a bad merchant key
// or signature rather than a declined payment.
func signatureErrorCode(code string) bool {
	switch code {
	case "1000", "1001":
		return true
	}
	return false
}

func splitName(full string) (string, string) {
	name, surname := "Ad", "Soyad"
	fields := bytes.Fields([]byte(full))
	if len(fields) > 0 {
		name = string(fields[0])
	}
	if len(fields) > 1 {
		surname = string(bytes.Join(fields[1:], []byte(" ")))
	}
	return name, surname
}

func gatewayAddress(contactName string) map[string]interface{} {
	if contactName == "" {
		contactName = "Ad Soyad"
	}
	return map[string]interface{}{
		"contactName": contactName,
		"city":        "Istanbul",
		"country":     "Turkey",
		"address":     "Nidakule Göztepe, Merdivenköy Mah. Bora Sok. No:1",
		"zipCode":     "34732",
	}
}
