package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/btraven00/refsift/internal/merge"
	"github.com/btraven00/refsift/internal/pipeline"
)

func filterByConfidence(refs []merge.CanonicalReference, min float64) []merge.CanonicalReference {
	if min <= 0 {
		return refs
	}

	kept := make([]merge.CanonicalReference, 0, len(refs))
	for _, ref := range refs {
		if ref.Confidence >= min {
			kept = append(kept, ref)
		}
	}
	return kept
}

// refStatus summarizes the verification history for display: the most
// recent report wins, references without checks show a dash.
func refStatus(ref *merge.CanonicalReference) string {
	if len(ref.Reports) == 0 {
		return "-"
	}
	return string(ref.Reports[len(ref.Reports)-1].Status)
}

func outputDocumentResults(results []*pipeline.DocumentResult) error {
	for i := range results {
		results[i].References = filterByConfidence(results[i].References, minConfidence)
	}

	switch strings.ToLower(output) {
	case "json":
		return outputDocumentsJSON(results)
	case "csv":
		return outputDocumentsCSV(results)
	case "human", "":
		return outputDocumentsHuman(results)
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}

func outputDocumentsJSON(results []*pipeline.DocumentResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"documents": results,
	})
}

func outputDocumentsCSV(results []*pipeline.DocumentResult) error {
	writer := csv.NewWriter(os.Stdout)
	defer writer.Flush()

	header := []string{
		"document", "title", "authors", "year", "venue", "type",
		"doi", "isbn", "url", "confidence", "status",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range results {
		for _, ref := range result.References {
			row := []string{
				baseName(result.Path),
				ref.Title,
				strings.Join(ref.Authors, "; "),
				yearString(ref.Year),
				ref.Venue,
				string(ref.Type),
				ref.Identifiers.DOI,
				ref.Identifiers.ISBN,
				ref.Identifiers.URL,
				fmt.Sprintf("%.3f", ref.Confidence),
				refStatus(&ref),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	return nil
}

func outputDocumentsHuman(results []*pipeline.DocumentResult) error {
	for _, result := range results {
		fmt.Printf("📄 %s (method: %s, quality: %.2f)\n",
			baseName(result.Path), result.Method, result.QualityScore)
		fmt.Printf("📚 %d citation candidates, %d references after merging\n",
			result.Candidates, len(result.References))

		if len(result.Warnings) > 0 && !quiet {
			for _, warning := range result.Warnings {
				fmt.Printf("⚠️  %s\n", warning)
			}
		}
		if len(result.SourceErrors) > 0 && !quiet {
			for _, srcErr := range result.SourceErrors {
				fmt.Printf("⚠️  discovery: %s\n", srcErr)
			}
		}

		if len(result.References) > 0 {
			fmt.Println()
			renderReferenceTable(result.References)
		}
		fmt.Println()
	}

	return nil
}

func renderReferenceTable(refs []merge.CanonicalReference) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Title", "First Author", "Year", "Type", "Conf", "Status"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for i := range refs {
		ref := &refs[i]
		table.Append([]string{
			truncate(ref.Title, 48),
			truncate(ref.FirstAuthorSurname(), 20),
			yearString(ref.Year),
			string(ref.Type),
			fmt.Sprintf("%.2f", ref.Confidence),
			refStatus(ref),
		})
	}

	table.Render()
}

// outputReferences prints a bare reference list, used by the parse
// command where there is no per-document summary.
func outputReferences(refs []merge.CanonicalReference) error {
	refs = filterByConfidence(refs, minConfidence)

	switch strings.ToLower(output) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"references": refs,
		})
	case "csv":
		writer := csv.NewWriter(os.Stdout)
		defer writer.Flush()

		header := []string{
			"title", "authors", "year", "venue", "type",
			"doi", "isbn", "url", "confidence", "status",
		}
		if err := writer.Write(header); err != nil {
			return err
		}
		for _, ref := range refs {
			row := []string{
				ref.Title,
				strings.Join(ref.Authors, "; "),
				yearString(ref.Year),
				ref.Venue,
				string(ref.Type),
				ref.Identifiers.DOI,
				ref.Identifiers.ISBN,
				ref.Identifiers.URL,
				fmt.Sprintf("%.3f", ref.Confidence),
				refStatus(&ref),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	case "human", "":
		fmt.Printf("📚 %d references\n\n", len(refs))
		if len(refs) > 0 {
			renderReferenceTable(refs)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
