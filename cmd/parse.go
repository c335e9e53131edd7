package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/btraven00/refsift/internal/pipeline"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse citation strings into structured references",
	Long: `Parse raw citation strings, one per line, into structured reference
records. This skips document extraction and section detection and is the
fastest path for text pasted straight from a bibliography.

Reads from the given file, or from stdin when the argument is "-".

Examples:
  refsift parse bibliography.txt
  pbpaste | refsift parse -
  refsift parse --verify --output json bibliography.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&verifyRefs, "verify", false, "check identifiers against external resolvers")
	parseCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.0, "minimum confidence threshold for including references")
	parseCmd.Flags().StringVar(&styleHint, "style", "", "force a citation style (apa, mla, chicago, ieee, harvard, vancouver) instead of detecting")
}

func runParse(cmd *cobra.Command, args []string) error {
	var (
		reader io.Reader
		source string
	)

	if args[0] == "-" {
		reader = os.Stdin
		source = "stdin"
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		reader = f
		source = args[0]
	}

	var lines []string
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}

	p := pipeline.New(pipelineOptions())
	refs := p.ParseCitations(lines, source)

	if verifyRefs {
		refs = p.VerifyReferences(cmd.Context(), refs)
	}

	return outputReferences(refs)
}
