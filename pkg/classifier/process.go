package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/internal/models"
	"github.com/jpbenga/tyrecheck/pkg/config"
	"github.com/jpbenga/tyrecheck/pkg/metrics"
)

// ProcessClassifier invokes the external model as a one-shot subprocess.
// The process receives the image path as its sole argument and is
// expected to print a single JSON object {class, confidence, probs?} to
// stdout and exit 0.
type ProcessClassifier struct {
	config *config.Config
	logger *logrus.Logger
	sem    chan struct{}
}

// NewProcessClassifier creates a new ProcessClassifier instance
func NewProcessClassifier(cfg *config.Config, logger *logrus.Logger) *ProcessClassifier {
	return &ProcessClassifier{
		config: cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.Classifier.MaxConcurrent),
	}
}

// Classify executes the classifier process for the given image path
func (c *ProcessClassifier) Classify(ctx context.Context, imagePath string) (*models.Classification, error) {
	// Bound the number of concurrent model processes
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	timeout, err := c.config.ParseDuration(c.config.Classifier.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier timeout: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := c.buildCommand(runCtx, imagePath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startTime := time.Now()

	c.logger.WithFields(logrus.Fields{
		"image_path": imagePath,
		"bin":        c.config.Classifier.Bin,
	}).Info("Starting classifier invocation")

	err = cmd.Run()
	duration := time.Since(startTime)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			c.logger.WithFields(logrus.Fields{
				"image_path": imagePath,
				"duration":   duration.Seconds(),
			}).Warn("Classifier timeout")

			metrics.RecordClassifierInvocation("timeout", -1, duration.Seconds())
			return nil, &TimeoutError{Timeout: c.config.Classifier.Timeout}
		}

		exitCode := getExitCode(err)
		invErr := &InvocationError{
			ExitCode: exitCode,
			Message:  failureMessage(stdout.String(), err),
			Stderr:   stderr.String(),
		}

		c.logger.WithFields(logrus.Fields{
			"image_path": imagePath,
			"exit_code":  exitCode,
			"error":      invErr.Message,
			"duration":   duration.Seconds(),
		}).Error("Classifier failed")

		metrics.RecordClassifierInvocation("failed", exitCode, duration.Seconds())
		return nil, invErr
	}

	classification, err := parseOutput(stdout.String())
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"image_path": imagePath,
			"error":      err.Error(),
		}).Error("Classifier output rejected")

		metrics.RecordClassifierInvocation("bad_output", 0, duration.Seconds())
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"image_path": imagePath,
		"class":      classification.Label,
		"confidence": classification.Confidence,
		"duration":   duration.Seconds(),
	}).Info("Classifier completed")

	metrics.RecordClassifierInvocation("success", 0, duration.Seconds())
	return classification, nil
}

// buildCommand constructs the classifier command
func (c *ProcessClassifier) buildCommand(ctx context.Context, imagePath string) *exec.Cmd {
	if c.config.Classifier.Script != "" {
		return exec.CommandContext(ctx, c.config.Classifier.Bin, c.config.Classifier.Script, imagePath)
	}
	return exec.CommandContext(ctx, c.config.Classifier.Bin, imagePath)
}

// ValidateConfig checks that the classifier runtime is available
func (c *ProcessClassifier) ValidateConfig() error {
	_, err := exec.LookPath(c.config.Classifier.Bin)
	if err != nil {
		return fmt.Errorf("classifier runtime not found at %s: %w", c.config.Classifier.Bin, err)
	}
	return nil
}

// parseOutput parses the process stdout into a validated classification
func parseOutput(output string) (*models.Classification, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, &OutputError{Reason: "empty output", Output: output}
	}

	// The model prints {"error": "..."} on its own failure path; a zero
	// exit with an error payload is still a failure.
	var probe struct {
		Err string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, &OutputError{Reason: "not valid JSON", Output: trimmed}
	}
	if probe.Err != "" {
		return nil, &OutputError{Reason: probe.Err, Output: trimmed}
	}

	var classification models.Classification
	if err := json.Unmarshal([]byte(trimmed), &classification); err != nil {
		return nil, &OutputError{Reason: "not valid JSON", Output: trimmed}
	}
	if err := classification.Validate(); err != nil {
		return nil, &OutputError{Reason: err.Error(), Output: trimmed}
	}

	return &classification, nil
}

// failureMessage prefers the model's own error JSON over the raw exec error
func failureMessage(stdout string, execErr error) string {
	var probe struct {
		Err string `json:"error"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &probe); err == nil && probe.Err != "" {
		return probe.Err
	}
	return execErr.Error()
}

// getExitCode extracts the exit code from an exec.ExitError
func getExitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
