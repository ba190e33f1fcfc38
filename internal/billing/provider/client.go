package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// customerNamespace scopes the deterministic idempotency keys of customer creation.
var customerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("prepdesk:billing:customer"))

// APIError is a non 2xx answer of the provider API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider api error (%d): %s", e.StatusCode, e.Message)
}

// RESTClient implements Client over the provider's form encoded REST API.
type RESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTClient creates a client for baseURL (e.g. https://api.stripe.com).
func NewRESTClient(baseURL, apiKey string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateCustomer creates a customer tagged with the local user id.
// The idempotency key is derived from the user id, so a retried call cannot
// create a second customer for the same user.
func (c *RESTClient) CreateCustomer(ctx context.Context, params *CustomerParams) (*Customer, error) {
	userID := strconv.FormatUint(params.UserID, 10)

	values := url.Values{}
	values.Set("email", params.Email)
	values.Set("metadata["+MetaUserID+"]", userID)

	key := uuid.NewSHA1(customerNamespace, []byte(userID)).String()

	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/v1/customers", values, key, &customer); err != nil {
		return nil, err
	}

	return &customer, nil
}

// CreateCheckoutSession creates a hosted subscription checkout.
func (c *RESTClient) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("customer", params.CustomerID)
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)

	if params.ClientReferenceID != "" {
		values.Set("client_reference_id", params.ClientReferenceID)
	}

	if params.CouponCode != "" {
		values.Set("discounts[0][coupon]", params.CouponCode)
	}

	keys := make([]string, 0, len(params.Metadata))
	for k := range params.Metadata {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		values.Set("metadata["+k+"]", params.Metadata[k])
		values.Set("subscription_data[metadata]["+k+"]", params.Metadata[k])
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// GetSubscription retrieves a subscription by id.
func (c *RESTClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, "", &sub); err != nil {
		return nil, err
	}

	return &sub, nil
}

func (c *RESTClient) do(
	ctx context.Context,
	method, path string,
	values url.Values,
	idempotencyKey string,
	out any,
) error {
	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}

		message := http.StatusText(resp.StatusCode)
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}

		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	return nil
}
