package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stock-screener/fields"
	"stock-screener/models"
	"stock-screener/screener"
	"stock-screener/values"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Answer a single query and exit",
	Long: `Translates and runs one query against the universe.

Example:
  screener query "stocks with PE < 15 and ROE > 20%"
  screener query --json "compare TCS vs INFY"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the full response as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	resp := engine.NewSession().Query(strings.Join(args, " "))
	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp)
	if !resp.Success {
		return fmt.Errorf("query failed")
	}
	return nil
}

// printResponse renders a response as a table under its interpretation.
func printResponse(w io.Writer, resp screener.Response) {
	if resp.Interpretation != "" {
		fmt.Fprintln(w, resp.Interpretation)
	}
	if resp.Error != "" && resp.Error != resp.Interpretation {
		fmt.Fprintln(w, "error:", resp.Error)
	}
	if len(resp.Suggestions) > 0 && len(resp.Data) == 0 {
		fmt.Fprintln(w, "try:", strings.Join(resp.Suggestions, " | "))
	}
	if len(resp.Data) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	headers := make([]string, len(resp.Columns))
	for i, c := range resp.Columns {
		headers[i] = columnLabel(c)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t")+"\t")
	for _, s := range resp.Data {
		cells := make([]string, len(resp.Columns))
		for i, c := range resp.Columns {
			cells[i] = cell(s, c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d shown (%.1f ms)\n", len(resp.Data), resp.Total, resp.ExecutionTime)
}

func columnLabel(c string) string {
	switch c {
	case "symbol", "name", "sector", "exchange", "industry":
		return strings.ToUpper(c[:1]) + c[1:]
	}
	return fields.Label(c)
}

func cell(s models.Stock, c string) string {
	switch c {
	case "symbol":
		return s.Symbol
	case "name":
		return s.Name
	case "sector":
		return s.Sector
	case "exchange":
		return s.Exchange
	case "industry":
		return s.Industry
	}
	v, ok := s.Number(c)
	if !ok {
		return "-"
	}
	unit := ""
	if d, ok := fields.Lookup(c); ok {
		unit = d.Unit
	}
	return values.Format(v, unit)
}
