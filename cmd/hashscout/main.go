// Package main provides the CLI interface for the hashscout hashing tool.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sivchari/hashscout/internal/config"
	"github.com/sivchari/hashscout/internal/hasher"
	"github.com/sivchari/hashscout/pkg/hashscout"
)

const version = "0.1.0"

// options holds the flag values of one invocation.
type options struct {
	configFile   string
	verbose      bool
	algorithm    algorithmValue
	password     string
	sevenZipPath string
	outputFile   string
	format       string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{algorithm: algorithmValue(hasher.DefaultAlgorithm)}

	rootCmd := &cobra.Command{
		Use:   "hashscout [input]",
		Short: "Hash every file in a directory or archive",
		Long: `hashscout computes a cryptographic hash for every file in a directory,
or in an archive after extracting it, and writes the results to output.csv
next to the hashed directory.

Archives are extracted by trying, in order:
- the built-in zip reader (ZipCrypto and AES encrypted archives)
- archive libraries for 7z and tar/tar.gz/tar.zst/tar.lz4
- the 7-Zip command line tool`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], stdout)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Hash a directory or archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], stdout)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is "+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().VarP(&opts.algorithm, "algorithm", "a", "hashing algorithm to use (see 'hashscout algorithms')")
	rootCmd.PersistentFlags().StringVarP(&opts.password, "password", "p", "", "password to use for unlocking an archive")
	rootCmd.PersistentFlags().StringVar(&opts.sevenZipPath, "seven-zip", "", "path to the 7-Zip binary used as the last extraction method")
	rootCmd.PersistentFlags().StringVarP(&opts.outputFile, "output", "o", "", "report file name (default output.csv)")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "", "report format: csv or json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newVersionCmd(stdout))
	rootCmd.AddCommand(newAlgorithmsCmd(stdout))
	rootCmd.AddCommand(newConfigCmd(stdout))

	return rootCmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "hashscout version %s\n", version)
		},
	}
}

func newAlgorithmsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported hashing algorithms",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, algorithm := range hasher.Algorithms() {
				marker := ""
				if algorithm == hasher.DefaultAlgorithm {
					marker = " (default)"
				}

				fmt.Fprintf(stdout, "%-12s%d-bit%s\n", algorithm, algorithm.Size()*8, marker)
			}
		},
	}
}

func newConfigCmd(stdout io.Writer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage hashscout configuration",
		Long:  "Commands for managing hashscout configuration files",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new hashscout configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")

			filename := config.DefaultFile

			// Check if file already exists
			if _, err := os.Stat(filename); err == nil && !force {
				return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", filename)
			}

			if err := config.Default().Save(filename); err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Created %s\n", filename)

			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			configFile := ""
			if len(args) > 0 {
				configFile = args[0]
			}

			if _, err := config.Load(configFile); err != nil {
				fmt.Fprintf(stdout, "Configuration validation failed: %v\n", err)

				return err
			}

			fmt.Fprintln(stdout, "Configuration is valid")

			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(validateCmd)

	return configCmd
}

func run(cmd *cobra.Command, opts *options, input string, stdout io.Writer) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, opts, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, err := hashscout.NewEngine(cfg, stdout)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if _, err := engine.Run(input); err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}

	return nil
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()

	if opts.verbose {
		cfg.Verbose = true
	}

	if flags.Changed("algorithm") {
		cfg.Algorithm = opts.algorithm.String()
	}

	if flags.Changed("password") {
		cfg.Password = opts.password
	}

	if flags.Changed("seven-zip") {
		cfg.Extraction.SevenZipPath = opts.sevenZipPath
	}

	if flags.Changed("output") {
		cfg.Output.FileName = opts.outputFile
	}

	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
}

func main() {
	rootCmd := newRootCmd(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
