// internal/infra/executor/http_executor.go
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scheduled_transaction_engine/internal/domain/schedule"

	"github.com/shopspring/decimal"
)

// HTTPExecutor implements the domain-execution callback against the external
// collaborator's HTTP endpoint. The engine treats its outcome as
// success/failure only; whatever the collaborator does with the request is
// outside this core.
type HTTPExecutor struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPExecutor(baseURL string) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: strings.TrimRight(baseURL, "/"),
		// The engine defines no timeout contract of its own; this guards the
		// transport only, so a dead collaborator fails instead of stalling a
		// worker forever.
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type executeRequest struct {
	TargetReference string `json:"target_reference"`
	Kind            string `json:"kind"`
	Amount          string `json:"amount"`
}

type executeResponse struct {
	ActivityLogID string `json:"activity_log_id"`
}

// Execute POSTs the transaction to the collaborator and returns its activity
// log reference. Any transport error or non-2xx response is an execution
// failure for the schedule being processed.
func (e *HTTPExecutor) Execute(ctx context.Context, targetReference string, kind schedule.Kind, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(executeRequest{
		TargetReference: targetReference,
		Kind:            string(kind),
		Amount:          amount.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode execution request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/executions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build execution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execution request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("executor returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode execution response: %w", err)
	}
	if result.ActivityLogID == "" {
		return "", fmt.Errorf("executor response missing activity_log_id")
	}
	return result.ActivityLogID, nil
}
