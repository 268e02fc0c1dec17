package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// Client reads the latest price from an HTTP price-feed aggregator.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	decimals uint8
}

const defaultHTTPTimeout = 12 * time.Second

// NewClient builds a feed client. A non-positive timeout falls back to
// the default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: timeout,
		},
		decimals: DefaultDecimals,
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("oracle http %d", e.StatusCode)
	}
	return fmt.Sprintf("oracle http %d: %s", e.StatusCode, b)
}

// latestAnswerResponse is the aggregator wire format: the answer is a
// base-10 integer string scaled by 10^decimals.
type latestAnswerResponse struct {
	Answer   string `json:"answer"`
	Decimals uint8  `json:"decimals"`
}

func (c *Client) Decimals() uint8 { return c.decimals }

// LatestAnswer fetches the live price. Transport failures and bad answers
// surface as oracle errors; the caller must never substitute a default.
func (c *Client) LatestAnswer(ctx context.Context) (*big.Int, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("%w: no feed URL configured", ErrUnavailable)
	}

	u := c.BaseURL + "/latest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, &HTTPError{StatusCode: res.StatusCode, Body: body})
	}

	var out latestAnswerResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode answer: %v", ErrUnavailable, err)
	}

	answer, ok := new(big.Int).SetString(strings.TrimSpace(out.Answer), 10)
	if !ok {
		return nil, fmt.Errorf("%w: malformed answer %q", ErrUnavailable, out.Answer)
	}
	if answer.Sign() <= 0 {
		return nil, ErrNonPositivePrice
	}
	if out.Decimals != 0 && out.Decimals != c.decimals {
		// Feed reports its own exponent; rescale to the configured one.
		answer = rescale(answer, out.Decimals, c.decimals)
	}
	return answer, nil
}

func rescale(v *big.Int, from, to uint8) *big.Int {
	if from == to {
		return v
	}
	ten := big.NewInt(10)
	if to > from {
		exp := new(big.Int).Exp(ten, big.NewInt(int64(to-from)), nil)
		return v.Mul(v, exp)
	}
	exp := new(big.Int).Exp(ten, big.NewInt(int64(from-to)), nil)
	return v.Quo(v, exp)
}
