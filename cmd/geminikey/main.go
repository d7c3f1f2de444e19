package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"editlab/internal/domain"
	"editlab/internal/infra"
	"editlab/internal/transform"
)

// Sends one tiny generation to verify a Gemini key before it goes into a
// deployment environment.
func main() {
	var (
		keyFlag    string
		modelFlag  string
		promptFlag string
		timeout    time.Duration
	)
	flag.StringVar(&keyFlag, "key", "", "API key to verify (falls back to GEMINI_API_KEY)")
	flag.StringVar(&modelFlag, "model", "", "model to probe (falls back to GEMINI_MODEL)")
	flag.StringVar(&promptFlag, "prompt", "a single red dot on a white background", "probe prompt")
	flag.DurationVar(&timeout, "timeout", 90*time.Second, "overall probe timeout")
	flag.Parse()

	_ = godotenv.Load()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "GEMINI API key is required via -key or environment")
		os.Exit(1)
	}
	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "geminikey").Logger()

	client, err := transform.NewClient(transform.Options{
		APIKey:  key,
		BaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		Model:   model,
		Logger:  &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := client.Transform(ctx, domain.EditRequest{
		Mode:   domain.ModeTextToImage,
		Prompt: promptFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed (%s): %v\n", domain.KindOf(err), err)
		os.Exit(1)
	}

	fmt.Printf("GEMINI API key verified: received %s (%d bytes)\n", result.MIMEType, len(result.ImageBytes))
}
