package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/btraven00/refsift/internal/segment"
)

var showExamples bool

// stylesCmd represents the styles command
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the citation style recognizers",
	Long: `The styles command lists the citation style recognizers used during
segmentation, in the order they are consulted. Each recognizer carries a
structural confidence that caps how certain a parse in that style can be.

Examples:
  refsift styles                  # List recognizers
  refsift styles --examples       # Show an example citation per style
  refsift styles --output json    # Output as JSON`,
	RunE: runStyles,
}

func init() {
	rootCmd.AddCommand(stylesCmd)

	stylesCmd.Flags().BoolVar(&showExamples, "examples", false, "show an example citation for each style")
}

func runStyles(cmd *cobra.Command, args []string) error {
	patterns := segment.Styles()

	if output == "json" {
		type styleInfo struct {
			Style       segment.Style `json:"style"`
			Confidence  float64       `json:"confidence"`
			Description string        `json:"description"`
			Examples    []string      `json:"examples,omitempty"`
		}

		infos := make([]styleInfo, 0, len(patterns))
		for _, p := range patterns {
			info := styleInfo{
				Style:       p.Style,
				Confidence:  p.Confidence,
				Description: p.Description,
			}
			if showExamples {
				info.Examples = p.Examples
			}
			infos = append(infos, info)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"styles": infos,
			"count":  len(infos),
		})
	}

	fmt.Printf("Citation Style Recognizers (%d, in match order):\n\n", len(patterns))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STYLE\tCONFIDENCE\tDESCRIPTION")
	fmt.Fprintln(w, "-----\t----------\t-----------")

	for _, p := range patterns {
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", p.Style, p.Confidence, p.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showExamples {
		fmt.Println()
		for _, p := range patterns {
			if len(p.Examples) == 0 {
				continue
			}
			fmt.Printf("%s:\n", p.Style)
			for _, example := range p.Examples {
				fmt.Printf("   • %s\n", example)
			}
		}
	}

	return nil
}
