// Package monitoring evaluates a finished batch run against alert
// thresholds and posts breaches to a webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRunFailed     AlertType = "run_failed"
	AlertLeadErrorRate AlertType = "lead_error_rate"
	AlertCostOverrun   AlertType = "cost_overrun"
	AlertCircuitOpen   AlertType = "circuit_open"
)

// minLeadsForRate keeps tiny runs from tripping the error-rate alert.
const minLeadsForRate = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	RunID     string         `json:"run_id,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunReport is what a batch run leaves behind for evaluation.
type RunReport struct {
	RunID string
	// Err is the error that stopped the run, if any.
	Err      error
	Stats    *model.RunStats
	Breakers map[string]resilience.State
}

// Alerter evaluates run reports against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the report against thresholds and returns any alerts.
func (a *Alerter) Evaluate(rep RunReport) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if rep.Err != nil {
		alerts = append(alerts, Alert{
			Type:      AlertRunFailed,
			Severity:  "high",
			RunID:     rep.RunID,
			Message:   fmt.Sprintf("Batch run stopped: %v", rep.Err),
			Timestamp: now,
		})
	}

	if s := rep.Stats; s != nil {
		if s.Processed >= minLeadsForRate && a.cfg.ErrorRateThreshold > 0 {
			rate := float64(s.Errors) / float64(s.Processed)
			if rate > a.cfg.ErrorRateThreshold {
				alerts = append(alerts, Alert{
					Type:     AlertLeadErrorRate,
					Severity: "high",
					RunID:    rep.RunID,
					Message: fmt.Sprintf(
						"Lead error rate %.1f%% exceeds threshold %.1f%% (%d failed / %d processed)",
						rate*100, a.cfg.ErrorRateThreshold*100, s.Errors, s.Processed,
					),
					Details: map[string]any{
						"error_rate": rate,
						"threshold":  a.cfg.ErrorRateThreshold,
						"errors":     s.Errors,
						"processed":  s.Processed,
					},
					Timestamp: now,
				})
			}
		}

		if a.cfg.CostThresholdUSD > 0 && s.CostUSD > a.cfg.CostThresholdUSD {
			alerts = append(alerts, Alert{
				Type:     AlertCostOverrun,
				Severity: "medium",
				RunID:    rep.RunID,
				Message: fmt.Sprintf(
					"Run cost $%.2f exceeds threshold $%.2f (%d AI calls)",
					s.CostUSD, a.cfg.CostThresholdUSD, s.AICalls,
				),
				Details: map[string]any{
					"cost_usd":      s.CostUSD,
					"threshold_usd": a.cfg.CostThresholdUSD,
					"ai_calls":      s.AICalls,
				},
				Timestamp: now,
			})
		}
	}

	var open []string
	for name, st := range rep.Breakers {
		if st != resilience.Closed {
			open = append(open, name)
		}
	}
	if len(open) > 0 {
		sort.Strings(open)
		alerts = append(alerts, Alert{
			Type:      AlertCircuitOpen,
			Severity:  "medium",
			RunID:     rep.RunID,
			Message:   fmt.Sprintf("Circuit open at end of run for: %v", open),
			Details:   map[string]any{"collaborators": open},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
