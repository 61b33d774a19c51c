package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/MrCodeEU/faceprint/pkg/config"
	"github.com/MrCodeEU/faceprint/pkg/detect"
	"github.com/MrCodeEU/faceprint/pkg/engine"
	"github.com/MrCodeEU/faceprint/pkg/logging"
	"github.com/MrCodeEU/faceprint/pkg/storage"
)

const version = "0.1.0"

// Command represents a CLI command.
type Command struct {
	Name        string
	Description string
	Usage       string
	Run         func(args []string) error
}

var (
	cfg       *config.Config
	tolerance *float64
	commands  map[string]*Command
)

func init() {
	commands = map[string]*Command{
		"encode": {
			Name:        "encode",
			Description: "Extract a face signature from an image",
			Usage:       "faceprint encode <image>",
			Run:         cmdEncode,
		},
		"compare": {
			Name:        "compare",
			Description: "Compare an image against an enrolled subject",
			Usage:       "faceprint compare <subject> <image>",
			Run:         cmdCompare,
		},
		"enroll": {
			Name:        "enroll",
			Description: "Enroll a subject from one or more images",
			Usage:       "faceprint enroll <subject> <image> [image...]",
			Run:         cmdEnroll,
		},
		"identify": {
			Name:        "identify",
			Description: "Find the closest enrolled subject for an image",
			Usage:       "faceprint identify <image>",
			Run:         cmdIdentify,
		},
		"remove": {
			Name:        "remove",
			Description: "Remove an enrolled subject",
			Usage:       "faceprint remove <subject>",
			Run:         cmdRemove,
		},
		"list": {
			Name:        "list",
			Description: "List all enrolled subjects",
			Usage:       "faceprint list",
			Run:         cmdList,
		},
		"config": {
			Name:        "config",
			Description: "Show current configuration",
			Usage:       "faceprint config",
			Run:         cmdConfig,
		},
		"version": {
			Name:        "version",
			Description: "Show version information",
			Usage:       "faceprint version",
			Run:         cmdVersion,
		},
		"help": {
			Name:        "help",
			Description: "Show help information",
			Usage:       "faceprint help [command]",
			Run:         cmdHelp,
		},
	}
}

func main() {
	// Parse global flags
	configFile := flag.String("config", "", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	tolerance = flag.Float64("tolerance", 0, "Override match tolerance (0 uses configured value)")
	flag.Parse()

	args := flag.Args()

	// Load configuration
	var err error
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	cfg.ExpandPaths()

	// Initialize logging
	logLevel := cfg.Logging.Level
	if *debug {
		logLevel = "debug"
	}
	if err := logging.Init(logLevel, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}

	logging.Debugf("faceprint v%s starting", version)
	logging.Debugf("Config loaded, storage dir: %s", cfg.Storage.DataDir)

	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmdName)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.Run(args[1:]); err != nil {
		logging.WithError(err).Errorf("Command '%s' failed", cmdName)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("faceprint - Face Signature Extraction and Matching")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Usage: faceprint [options] <command> [arguments]")
	fmt.Println("\nOptions:")
	fmt.Println("  -config <file>      Path to configuration file")
	fmt.Println("  -debug              Enable debug logging")
	fmt.Println("  -tolerance <value>  Override match tolerance")
	fmt.Println("\nCommands:")
	for _, name := range []string{"encode", "compare", "enroll", "identify", "remove", "list", "config", "version", "help"} {
		cmd := commands[name]
		fmt.Printf("  %-12s %s\n", cmd.Name, cmd.Description)
	}
	fmt.Println("\nExamples:")
	fmt.Println("  faceprint enroll alice a1.jpg a2.jpg a3.jpg  # Enroll 'alice' from three photos")
	fmt.Println("  faceprint compare alice probe.jpg            # Match a photo against 'alice'")
	fmt.Println("  faceprint -tolerance 0.5 compare alice p.jpg # Match with a stricter tolerance")
	fmt.Println("\nImages may be file paths or base64 data URLs.")
	fmt.Println("\nRun 'faceprint help <command>' for more information on a command.")
}

// newEngine builds the recognition pipeline from the loaded configuration.
func newEngine() (*engine.Engine, error) {
	finder, err := detect.NewPigoFinder(cfg.Detection.CascadeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load detection cascade: %w", err)
	}
	return engine.New(cfg, finder), nil
}

func newStorage() (*storage.FileStorage, error) {
	return storage.NewFileStorage(cfg.Storage.DataDir, cfg.Storage.EncryptionEnabled)
}

func cmdVersion(args []string) error {
	fmt.Printf("faceprint v%s\n", version)
	fmt.Println("Face Signature Extraction and Matching")
	return nil
}

func cmdConfig(args []string) error {
	logging.Debug("Showing configuration")

	fmt.Println("Current Configuration:")
	fmt.Println("======================")
	fmt.Println()
	fmt.Println("[Detection]")
	fmt.Printf("  Cascade File:    %s\n", cfg.Detection.CascadeFile)
	fmt.Printf("  Strict Single:   %t\n", cfg.Detection.StrictSingleFace)
	for i, tier := range cfg.Detection.Tiers {
		fmt.Printf("  Tier %d:          scale %.2f, min size %d, quality %.1f\n",
			i+1, tier.ScaleFactor, tier.MinSize, tier.QualityThreshold)
	}
	fmt.Println()
	fmt.Println("[Matching]")
	fmt.Printf("  Tolerance:       %.2f\n", cfg.Matching.Tolerance)
	fmt.Printf("  Weights:         euclidean %.2f, cosine %.2f, manhattan %.2f\n",
		cfg.Matching.EuclideanWeight, cfg.Matching.CosineWeight, cfg.Matching.ManhattanWeight)
	fmt.Printf("  Quality Boost:   ×%.2f above %.0f\n", cfg.Matching.HighQualityBoost, cfg.Matching.HighQualityThreshold)
	fmt.Printf("  Quality Penalty: ×%.2f below %.0f\n", cfg.Matching.LowQualityPenalty, cfg.Matching.LowQualityThreshold)
	fmt.Println()
	fmt.Println("[Storage]")
	fmt.Printf("  Data Dir:        %s\n", cfg.Storage.DataDir)
	fmt.Printf("  Encryption:      %t\n", cfg.Storage.EncryptionEnabled)
	fmt.Println()
	fmt.Println("[Logging]")
	fmt.Printf("  Level:           %s\n", cfg.Logging.Level)
	fmt.Printf("  File:            %s\n", cfg.Logging.File)

	return nil
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	fmt.Printf("Command: %s\n", cmd.Name)
	fmt.Printf("Description: %s\n", cmd.Description)
	fmt.Printf("Usage: %s\n", cmd.Usage)

	switch cmdName {
	case "enroll":
		fmt.Println("\nEnrollment:")
		fmt.Println("  Provide several photos of the same person; each usable photo")
		fmt.Println("  contributes to the stored signature. Three or more usable photos")
		fmt.Println("  grade the enrollment 'excellent'.")
	case "compare":
		fmt.Println("\nComparison:")
		fmt.Println("  Prints a JSON result with the distance, adaptive tolerance,")
		fmt.Println("  match decision and confidence percentage.")
	case "config":
		fmt.Println("\nConfiguration Locations:")
		fmt.Println("  System: /etc/faceprint/faceprint.yaml")
		fmt.Println("  User:   ~/.config/faceprint/faceprint.yaml")
		fmt.Println("\nUse -config flag to specify a custom config file.")
	}

	return nil
}
