// Package insight is the boundary adapter for the external insight service.
//
// The service recommends saving goals and predicts the next period's
// expenses. It is strictly advisory: any failure of the two insight calls is
// absorbed here into deterministic fallback values and never surfaces as a
// user-facing error.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/store"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "insight").Logger()

// predictTimeout is the hard deadline on prediction calls. An aborted call
// is treated exactly like a network failure.
const predictTimeout = 2 * time.Second

// Error reports a failed insight call: non-success response, network error,
// or malformed payload. It is absorbed at this boundary for the fallback
// calls and only escapes from the advisory category prediction.
type Error struct {
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("insight service %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client calls the insight service over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	hook       store.Hook
}

// NewClient creates a client for the insight service rooted at baseURL,
// e.g. "http://localhost:8000/api/v1".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		hook:       func(store.HookEvent) {},
	}
}

// Observe registers a hook fired whenever a fallback value substitutes for a
// failed call. It returns the client, so it chains onto NewClient.
func (c *Client) Observe(hook store.Hook) *Client {
	if hook != nil {
		c.hook = hook
	}
	return c
}

// Goals is a set of recommended saving goals with optional advice.
type Goals struct {
	ShortTerm  float64  `json:"short_term_goal"`
	MediumTerm float64  `json:"medium_term_goal"`
	LongTerm   float64  `json:"long_term_goal"`
	Advice     []string `json:"advice"`
}

// FallbackGoals is the deterministic local heuristic substituted when the
// saving-goals call fails: 10/20/30 percent of the monthly income.
func FallbackGoals(income float64) Goals {
	return Goals{
		ShortTerm:  income * 0.1,
		MediumTerm: income * 0.2,
		LongTerm:   income * 0.3,
		Advice:     []string{"service unavailable, showing defaults"},
	}
}

type goalsRequest struct {
	UserID           string    `json:"user_id"`
	Income           float64   `json:"income"`
	Expenses         []float64 `json:"expenses"`
	SpendingPatterns []string  `json:"spending_patterns"`
}

// RecommendGoals asks the service for personalized saving goals, feeding it
// the expense amounts and the distinct expense categories of the snapshot.
// On any failure it returns FallbackGoals(income) instead of an error.
func (c *Client) RecommendGoals(ctx context.Context, ownerID string, income float64, txs []budgetbook.Transaction) Goals {
	req := goalsRequest{
		UserID:           ownerID,
		Income:           income,
		Expenses:         make([]float64, 0, len(txs)),
		SpendingPatterns: make([]string, 0),
	}
	seen := make(map[string]bool)
	for _, tx := range txs {
		if tx.Kind != budgetbook.Expense {
			continue
		}
		req.Expenses = append(req.Expenses, tx.Amount.InexactFloat64())
		if tx.Category != "" && !seen[tx.Category] {
			seen[tx.Category] = true
			req.SpendingPatterns = append(req.SpendingPatterns, tx.Category)
		}
	}

	var goals Goals
	if err := c.post(ctx, "/ml/saving-goals", req, &goals); err != nil {
		logger.Warn().Err(err).Str("owner", ownerID).Msg("saving-goals call failed, using fallback")
		c.hook(store.HookEvent{Name: store.HookFallbackTriggered, Owner: ownerID, Err: err})
		return FallbackGoals(income)
	}
	return goals
}

// Trend values reported by the expense prediction.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendUnknown    = "unknown"
)

// Prediction is the next period's expected expense level.
type Prediction struct {
	PredictedAmount   float64            `json:"predicted_amount"`
	Trend             string             `json:"trend"`
	Confidence        float64            `json:"confidence"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown,omitempty"`
}

// FallbackPrediction is the value substituted when the prediction call fails.
func FallbackPrediction() Prediction {
	return Prediction{PredictedAmount: 0, Trend: TrendUnknown, Confidence: 0}
}

type predictionRequest struct {
	UserID            string `json:"user_id"`
	MonthsToPredict   int    `json:"months_to_predict"`
	IncludeCategories bool   `json:"include_categories"`
}

// PredictExpenses asks the service for the next month's predicted expenses.
// The call carries a hard 2 second deadline; a timeout is treated identically
// to a network failure and yields FallbackPrediction.
func (c *Client) PredictExpenses(ctx context.Context, ownerID string) Prediction {
	ctx, cancel := context.WithTimeout(ctx, predictTimeout)
	defer cancel()

	req := predictionRequest{UserID: ownerID, MonthsToPredict: 1, IncludeCategories: true}
	var pred Prediction
	if err := c.post(ctx, "/ml/predict-expenses", req, &pred); err != nil {
		logger.Warn().Err(err).Str("owner", ownerID).Msg("predict-expenses call failed, using fallback")
		c.hook(store.HookEvent{Name: store.HookFallbackTriggered, Owner: ownerID, Err: err})
		return FallbackPrediction()
	}
	return pred
}

// CategoryPrediction is the remote classifier's guess for a description.
type CategoryPrediction struct {
	Category   string  `json:"predicted_category"`
	Confidence float64 `json:"confidence"`
}

type categoryRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount,omitempty"`
	Date        string  `json:"date,omitempty"`
}

// PredictCategory asks the remote classifier for a category guess. The local
// rule table is the primary classifier; this endpoint is advisory only, so
// unlike the other calls its failure is returned to the caller.
func (c *Client) PredictCategory(ctx context.Context, description string, amount float64) (CategoryPrediction, error) {
	ctx, cancel := context.WithTimeout(ctx, predictTimeout)
	defer cancel()

	req := categoryRequest{
		Description: description,
		Amount:      amount,
		Date:        time.Now().Format(time.RFC3339),
	}
	var pred CategoryPrediction
	if err := c.post(ctx, "/ml/predict-category", req, &pred); err != nil {
		return CategoryPrediction{}, err
	}
	if pred.Category == "" {
		return CategoryPrediction{}, &Error{Endpoint: "/ml/predict-category", Err: fmt.Errorf("missing predicted_category in response")}
	}
	return pred, nil
}

// post performs an HTTP POST with a JSON body and unmarshals the JSON
// response into data.
func (c *Client) post(ctx context.Context, endpoint string, payload, data any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Endpoint: endpoint, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Endpoint: endpoint, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return &Error{Endpoint: endpoint, Err: fmt.Errorf("malformed response body: %w", err)}
	}
	return nil
}
