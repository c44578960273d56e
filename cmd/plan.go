package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/codeloom/internal/dict"
	"github.com/KaramelBytes/codeloom/internal/naming"
	"github.com/KaramelBytes/codeloom/internal/tabular"
)

var (
	planDict        string
	planInput       string
	planInstanceMap string
	planStyle       string
	planDelimiter   string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the header rename plan without fetching or writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		style := planStyle
		if style == "" {
			style = cfg.Style
		}
		delim, err := parseDelimiterFlag(planDelimiter)
		if err != nil {
			return err
		}

		d, err := dict.ParseFile(planDict, cfg.Endpoints[0])
		if err != nil {
			return err
		}
		table, err := tabular.Load(planInput, delim)
		if err != nil {
			return err
		}
		var inst naming.InstanceMap
		if planInstanceMap != "" {
			inst, err = naming.LoadInstanceMap(planInstanceMap)
			if err != nil {
				warnf("instance map unusable, suffixes skipped: %v", err)
			}
		}
		plans, err := naming.Plan(table.Header, d, inst, naming.Style(style))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RAW\tNAME\tCODING")
		for _, p := range plans {
			codingCol := "-"
			if p.CodingID > 0 {
				codingCol = fmt.Sprintf("%d", p.CodingID)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Raw, p.Name, codingCol)
		}
		return w.Flush()
	},
}

func init() {
	planCmd.Flags().StringVarP(&planDict, "dict", "H", "", "documentation page describing the columns (required)")
	planCmd.Flags().StringVarP(&planInput, "input", "i", "", "input delimited table (required)")
	planCmd.Flags().StringVar(&planInstanceMap, "instance-map", "", "instance-description JSON (field -> instance -> text)")
	planCmd.Flags().StringVar(&planStyle, "style", "", "naming style for base names (default from config)")
	planCmd.Flags().StringVar(&planDelimiter, "delimiter", "", "input delimiter: ','|'tab'|';' (default: auto-detect)")
	_ = planCmd.MarkFlagRequired("dict")
	_ = planCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(planCmd)
}
