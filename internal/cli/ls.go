package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/table"
)

var (
	lsColumns      []string
	lsSort         string
	lsReverse      bool
	lsLimit        int
	lsShowChapters bool
	lsFormat       string
	lsChapterWidth int
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List prompts",
	Long: fmt.Sprintf(`List the prompts in the prompt directory.

Columns: %s.
Formats: table, plain, json, yaml.`, strings.Join(table.Columns, ", ")),
	Args: usageArgs(cobra.NoArgs),
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	format := table.Format(strings.ToLower(lsFormat))
	if !validFormat(format) {
		return usagef("unknown format %q (want table, plain, json, or yaml)", lsFormat)
	}

	s := store()
	if err := s.EnsureDir(); err != nil {
		return err
	}
	entries, err := s.List()
	if err != nil {
		return err
	}

	err = table.Render(cmd.OutOrStdout(), table.Rows(entries), table.Options{
		Columns:      lsColumns,
		Sort:         lsSort,
		Reverse:      lsReverse,
		Limit:        lsLimit,
		ShowChapters: lsShowChapters,
		Format:       format,
		ChapterWidth: lsChapterWidth,
	})
	if errors.Is(err, table.ErrUnknownColumn) {
		return usageError(err)
	}
	return err
}

func validFormat(f table.Format) bool {
	for _, known := range table.Formats {
		if f == known {
			return true
		}
	}
	return false
}

func init() {
	lsCmd.Flags().StringSliceVar(&lsColumns, "columns", nil, "columns to show, in order (e.g. --columns index,friendlyName,GUID)")
	lsCmd.Flags().StringVar(&lsSort, "sort", table.ColIndex, "column to sort by")
	lsCmd.Flags().BoolVar(&lsReverse, "reverse", false, "reverse the sort order")
	lsCmd.Flags().IntVar(&lsLimit, "limit", -1, "show at most this many rows (negative for all)")
	lsCmd.Flags().BoolVar(&lsShowChapters, "show-chapters", false, "include a chapters column (joined with ' | ')")
	lsCmd.Flags().StringVarP(&lsFormat, "format", "o", string(table.FormatTable), "output format: table, plain, json, yaml")
	lsCmd.Flags().IntVar(&lsChapterWidth, "chapter-width", table.DefaultChapterWidth, "truncate the chapters column in table output")
	rootCmd.AddCommand(lsCmd)
}
