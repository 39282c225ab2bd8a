package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/athulya-anil/axon-orchestrator/pkg/agent"
)

var (
	coordinatorURL string
	buildID        string
	instanceID     string
	token          string
	testFile       string
	generate       int
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Pull test specs from the coordinator until the build's pool is exhausted",
	Long: `Registers this instance with the coordinator, then pulls and processes
one test spec per exchange until the coordinator reports done. Prints
the specs this instance ran, one per line, to stdout.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&coordinatorURL, "coordinator", "http://localhost:5000", "Coordinator base URL")
	rootCmd.Flags().StringVar(&buildID, "build", "", "Build ID (generated when empty)")
	rootCmd.Flags().StringVar(&instanceID, "instance", "", "Instance ID (generated when empty)")
	rootCmd.Flags().StringVar(&token, "token", "SUPERSECRET", "Shared repo token")
	rootCmd.Flags().StringVar(&testFile, "tests", "", "File with one test spec per line")
	rootCmd.Flags().IntVar(&generate, "generate", 0, "Generate N random specs instead of reading --tests (smoke runs)")
}

func run(cmd *cobra.Command, args []string) error {
	tests, err := loadTestList()
	if err != nil {
		return err
	}

	if buildID == "" {
		buildID = uuid.New().String()
		log.Printf("🆔 Generated build ID %s", buildID)
	}

	a := agent.New(coordinatorURL, token, buildID, instanceID, tests)

	// The candidate list is an upper bound; with more instances on the
	// build this agent finishes early.
	bar := progressbar.NewOptions(len(tests),
		progressbar.OptionSetDescription(fmt.Sprintf("instance %.8s", a.InstanceID)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	a.Process = func(_ context.Context, spec string) error {
		return bar.Add(1)
	}

	ran, err := a.Run(cmd.Context())
	_ = bar.Finish()
	if err != nil {
		return err
	}

	log.Printf("✅ Instance %s ran %d of %d candidate specs", a.InstanceID, len(ran), len(tests))
	for _, spec := range ran {
		fmt.Println(spec)
	}
	return nil
}

// loadTestList reads the candidate specs from --tests, or generates
// random ones for --generate smoke runs.
func loadTestList() ([]string, error) {
	if generate > 0 {
		tests := make([]string, generate)
		for i := range tests {
			tests[i] = uuid.New().String()
		}
		return tests, nil
	}

	if testFile == "" {
		return nil, errors.New("either --tests or --generate is required")
	}

	f, err := os.Open(testFile)
	if err != nil {
		return nil, fmt.Errorf("open test list: %w", err)
	}
	defer f.Close()

	var tests []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tests = append(tests, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read test list: %w", err)
	}
	return tests, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("❌ Agent failed: %v", err)
	}
}
