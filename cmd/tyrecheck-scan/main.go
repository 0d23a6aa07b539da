package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/jpbenga/tyrecheck/pkg/capture"
	"github.com/jpbenga/tyrecheck/pkg/client"
	"github.com/jpbenga/tyrecheck/pkg/logging"
	"github.com/jpbenga/tyrecheck/pkg/scan"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", envOr("TYRECHECK_SERVER", "http://localhost:3000"), "relay base URL")
	filePath := flag.String("file", "", "analyze this image file instead of capturing from the camera")
	deviceID := flag.Int("device", 0, "camera device id")
	token := flag.String("token", os.Getenv("TYRECHECK_TOKEN"), "bearer token, if the relay requires one")
	cameraWait := flag.Duration("camera-wait", 10*time.Second, "how long to wait for the camera to buffer a frame")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "warn"), "log level")
	flag.Parse()

	logger := logging.NewLogger(logging.LogLevel(*logLevel))

	opts := []client.Option{}
	if *token != "" {
		opts = append(opts, client.WithBearerToken(*token))
	}
	api := client.New(*serverURL, opts...)

	store := scan.NewStore()
	source := capture.NewCameraSource(*deviceID)
	controller := capture.NewController(store, api, source, logger)

	// Render the screen for every view change, the way the PWA swaps
	// between its mutually exclusive screen components
	currentView := scan.View("")
	store.Subscribe(func(s scan.State) {
		view := scan.DeriveView(s)
		if view != currentView {
			currentView = view
			fmt.Printf("--- %s ---\n", view)
		}
		if s.Status == scan.StatusError {
			fmt.Printf("error: %s\n", s.Message)
			if s.Details != "" {
				fmt.Printf("details: %s\n", s.Details)
			}
		}
	})

	ctx := context.Background()

	if err := runAttempt(ctx, controller, *filePath, *cameraWait); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	controller.Wait()
	snapshot := store.Snapshot()
	controller.LeaveCamera()

	if snapshot.Status != scan.StatusResult {
		os.Exit(1)
	}

	printClassification(snapshot)
}

// runAttempt acquires one image, from the file if given, otherwise from
// the live camera
func runAttempt(ctx context.Context, controller *capture.Controller, filePath string, cameraWait time.Duration) error {
	if filePath != "" {
		controller.SwitchMode(ctx, capture.ModeUpload)
		return controller.SelectFile(ctx, filePath)
	}

	controller.EnterCameraMode(ctx)
	if controller.Mode() == capture.ModeUpload {
		return fmt.Errorf("%s (pass -file to analyze an existing image)", controller.LastError())
	}

	deadline := time.Now().Add(cameraWait)
	for {
		err := controller.CaptureFrame(ctx)
		if err == nil {
			return nil
		}
		if err != capture.ErrNotReady {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("camera produced no frame within %s", cameraWait)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func printClassification(s scan.State) {
	c := s.Classification
	verdict := "PASS"
	if c.IsDefective() {
		verdict = "FAIL"
	}
	fmt.Printf("%s  %s (%.1f%% confidence)\n", verdict, c.Label, c.Confidence*100)

	if len(c.Probs) > 0 {
		labels := make([]string, 0, len(c.Probs))
		for label := range c.Probs {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Printf("  %-12s %.3f\n", label, c.Probs[label])
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
