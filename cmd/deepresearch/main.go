// Command deepresearch runs multi-phase research sessions from the
// terminal.
//
//	deepresearch run --question "how does raft elect a leader"
//	deepresearch run --config config.yaml --session my-session
//	deepresearch resume --session my-session --approve
//	deepresearch version
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/config"
	"github.com/BaSui01/deepresearch/internal/telemetry"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runResearch(os.Args[2:])
	case "resume":
		runResume(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runResearch(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	question := fs.String("question", "", "Research question")
	sessionID := fs.String("session", "", "Session id (generated when empty)")
	approvalGate := fs.Bool("approval", false, "Pause for approval before the answer is written")
	fs.Parse(args)

	if *question == "" {
		fmt.Fprintln(os.Stderr, "run requires --question")
		os.Exit(1)
	}

	cfg, logger := setup(*configPath)
	defer logger.Sync()

	if *approvalGate {
		cfg.Pipeline.ApprovalBeforeWrite = true
	}

	id := *sessionID
	if id == "" {
		id = uuid.New().String()
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer app.Close()

	fmt.Printf("session: %s\n", id)
	result, err := app.Run(id, *question)
	if err != nil {
		logger.Fatal("research run failed", zap.Error(err))
	}
	printResult(id, result)
}

func runResume(args []string) {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	sessionID := fs.String("session", "", "Session id to resume")
	approve := fs.Bool("approve", false, "Approve the pending step")
	deny := fs.Bool("deny", false, "Deny the pending step")
	fs.Parse(args)

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "resume requires --session")
		os.Exit(1)
	}
	if *approve && *deny {
		fmt.Fprintln(os.Stderr, "--approve and --deny are mutually exclusive")
		os.Exit(1)
	}

	cfg, logger := setup(*configPath)
	defer logger.Sync()

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer app.Close()

	var approval *bool
	if *approve || *deny {
		v := *approve
		approval = &v
	}

	result, err := app.Resume(*sessionID, approval)
	if err != nil {
		logger.Fatal("resume failed", zap.Error(err))
	}
	printResult(*sessionID, result)
}

func setup(configPath string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg, telemetry.NewLogger(cfg.Log)
}

func printVersion() {
	fmt.Printf("deepresearch %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`deepresearch - multi-phase research pipeline

Usage:
  deepresearch <command> [options]

Commands:
  run       Start a research session
  resume    Resume a suspended session
  version   Show version information
  help      Show this help message

Options for 'run':
  --question <text>   Research question (required)
  --config <path>     Path to configuration file (YAML)
  --session <id>      Session id; generated when omitted
  --approval          Pause for approval before the answer is written

Options for 'resume':
  --session <id>      Session id to resume (required)
  --approve           Approve the pending step
  --deny              Deny the pending step

Examples:
  deepresearch run --question "how does raft elect a leader"
  deepresearch run --question "compare B-tree and LSM storage" --approval
  deepresearch resume --session 1b4e28ba --approve`)
}
