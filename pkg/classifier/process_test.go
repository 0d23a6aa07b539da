package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/pkg/config"
)

func testConfig(script string) *config.Config {
	cfg := &config.Config{}
	cfg.Classifier.Bin = "/bin/sh"
	cfg.Classifier.Script = script
	cfg.Classifier.Timeout = "5s"
	cfg.Classifier.MaxConcurrent = 2
	return cfg
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predict.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessClassifier_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		bin     string
		wantErr bool
	}{
		{
			name:    "existing runtime",
			bin:     "/bin/sh",
			wantErr: false,
		},
		{
			name:    "missing runtime",
			bin:     "/nonexistent/python3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("")
			cfg.Classifier.Bin = tt.bin

			c := NewProcessClassifier(cfg, logrus.New())
			err := c.ValidateConfig()

			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcessClassifier_Classify(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo '{"class":"defective","confidence":0.93,"probs":{"defective":0.93,"good":0.07}}'
`)

	c := NewProcessClassifier(testConfig(script), logrus.New())

	got, err := c.Classify(context.Background(), "/tmp/img.jpg")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if got.Label != "defective" {
		t.Errorf("Label = %q, want defective", got.Label)
	}
	if got.Confidence != 0.93 {
		t.Errorf("Confidence = %v, want 0.93", got.Confidence)
	}
	if got.Probs["good"] != 0.07 {
		t.Errorf("Probs[good] = %v, want 0.07", got.Probs["good"])
	}
}

func TestProcessClassifier_ClassifyNonZeroExit(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo '{"error":"Cannot read image file. Invalid or corrupted image."}'
exit 1
`)

	c := NewProcessClassifier(testConfig(script), logrus.New())

	_, err := c.Classify(context.Background(), "/tmp/img.jpg")
	invErr, ok := err.(*InvocationError)
	if !ok {
		t.Fatalf("Classify() error = %T, want *InvocationError", err)
	}

	if invErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", invErr.ExitCode)
	}
	if invErr.Message != "Cannot read image file. Invalid or corrupted image." {
		t.Errorf("Message = %q, want model's error text", invErr.Message)
	}
}

func TestProcessClassifier_ClassifyBadOutput(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{
			name:   "not JSON",
			script: "#!/bin/sh\necho 'Using TensorFlow backend'\n",
		},
		{
			name:   "empty output",
			script: "#!/bin/sh\ntrue\n",
		},
		{
			name:   "error payload with zero exit",
			script: "#!/bin/sh\necho '{\"error\":\"Model file not found\"}'\n",
		},
		{
			name:   "confidence out of range",
			script: "#!/bin/sh\necho '{\"class\":\"good\",\"confidence\":1.4}'\n",
		},
		{
			name:   "missing label",
			script: "#!/bin/sh\necho '{\"confidence\":0.5}'\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewProcessClassifier(testConfig(writeScript(t, tt.script)), logrus.New())

			_, err := c.Classify(context.Background(), "/tmp/img.jpg")
			if _, ok := err.(*OutputError); !ok {
				t.Errorf("Classify() error = %T (%v), want *OutputError", err, err)
			}
		})
	}
}

func TestProcessClassifier_ClassifyTimeout(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nsleep 5\n")

	cfg := testConfig(script)
	cfg.Classifier.Timeout = "100ms"

	c := NewProcessClassifier(cfg, logrus.New())

	_, err := c.Classify(context.Background(), "/tmp/img.jpg")
	if _, ok := err.(*TimeoutError); !ok {
		t.Errorf("Classify() error = %T (%v), want *TimeoutError", err, err)
	}
}

func TestProcessClassifier_ConcurrencyBound(t *testing.T) {
	// The script fails if it ever finds another instance of itself
	// running, so with max_concurrent=1 any overlap turns into an
	// error payload.
	marker := filepath.Join(t.TempDir(), "running")
	script := writeScript(t, fmt.Sprintf(`#!/bin/sh
if [ -e %q ]; then
  echo '{"error":"overlapping invocation"}'
  exit 1
fi
touch %q
sleep 0.2
rm %q
echo '{"class":"good","confidence":0.9}'
`, marker, marker, marker))

	cfg := testConfig(script)
	cfg.Classifier.MaxConcurrent = 1

	c := NewProcessClassifier(cfg, logrus.New())

	const calls = 4
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		go func() {
			_, err := c.Classify(context.Background(), "/tmp/img.jpg")
			errs <- err
		}()
	}

	for i := 0; i < calls; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Classify() error = %v, want serialized invocations", err)
		}
	}
}

func TestProcessClassifier_ClassifyCancelledWhileQueued(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho '{\"class\":\"good\",\"confidence\":0.9}'\n")

	cfg := testConfig(script)
	cfg.Classifier.MaxConcurrent = 1

	c := NewProcessClassifier(cfg, logrus.New())

	// Occupy the only slot so the call below has to queue
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Classify(ctx, "/tmp/img.jpg")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Classify() error = %v, want context.Canceled", err)
	}
	if IsFailure(err) {
		t.Error("a queued cancellation must not count as a classifier failure")
	}
}

func TestIsFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invocation error", &InvocationError{ExitCode: 1}, true},
		{"timeout error", &TimeoutError{Timeout: "60s"}, true},
		{"output error", &OutputError{Reason: "empty output"}, true},
		{"context error", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFailure(tt.err); got != tt.want {
				t.Errorf("IsFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}
