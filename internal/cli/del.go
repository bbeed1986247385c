package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/prompt"
	"github.com/tessro/elgato-prompter-text/internal/settings"
)

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 3

var (
	delGUID string
	delName string
	delFile string
	delYes  bool
)

var delCmd = &cobra.Command{
	Use:     "del",
	Aliases: []string{"rm"},
	Short:   "Delete prompts",
	Long: `Delete prompts matching any of --guid, --name (case-insensitive) or --file.

When a name matches prompts with different names, nothing is deleted unless
--yes is given.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runDel,
}

func runDel(cmd *cobra.Command, args []string) error {
	match := prompt.Match{GUID: delGUID, Name: delName, File: delFile}
	if match.IsZero() {
		return usagef("Provide one of --guid, --name, or --file to delete.")
	}

	return withRestart(cmd, func(ctx context.Context) error {
		return deletePrompts(cmd, match)
	})
}

func deletePrompts(cmd *cobra.Command, match prompt.Match) error {
	out := cmd.OutOrStdout()
	s := store()
	if err := s.EnsureDir(); err != nil {
		return err
	}

	matches, err := s.Find(match)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching prompts found.")
		if match.Name != "" {
			names, err := s.Names()
			if err == nil {
				if suggestions := suggestNames(match.Name, names); len(suggestions) > 0 {
					fmt.Fprintf(out, "Did you mean: %s?\n", strings.Join(quoteAll(suggestions), ", "))
				}
			}
		}
		return &ExitError{Code: ExitNoMatch}
	}

	if match.Name != "" && len(matches) > 1 && !delYes && distinctNames(matches) > 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Multiple prompts share that name. Re-run with --yes to delete all matches or delete by --guid/--file.\n", warnMark())
		for _, e := range matches {
			fmt.Fprintf(out, "  %s  index=%d  GUID=%s  name=%s\n", e.File(), e.Prompt.Index, e.Prompt.GUID, e.Prompt.FriendlyName)
		}
		return &ExitError{Code: ExitAmbiguous}
	}

	var removed []string
	var errs []error
	for _, e := range matches {
		if err := s.Delete(e); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR deleting %s: %v\n", e.File(), err)
			errs = append(errs, err)
			continue
		}
		g := strings.ToUpper(e.Prompt.GUID)
		fmt.Fprintf(out, "Deleted: %s  (GUID=%s, index=%d, name=%s)\n", e.File(), g, e.Prompt.Index, e.Prompt.FriendlyName)
		if g != "" {
			removed = append(removed, g)
		}
	}

	if len(removed) > 0 {
		spath, err := settings.RemoveGUIDs(s.Dir(), removed)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Updated AppSettings: %s  (-%s)", spath, strings.Join(removed, ", "))))
	}

	if len(removed) == 0 {
		return &ExitError{Code: ExitNoMatch, Err: errors.Join(errs...)}
	}
	return nil
}

// distinctNames counts the different friendly names among entries.
func distinctNames(entries []prompt.Entry) int {
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.Prompt.FriendlyName] = true
	}
	return len(seen)
}

// suggestNames returns names resembling query: fuzzy subsequence matches
// first, then names within a small edit distance.
func suggestNames(query string, names []string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	var out []string
	seen := make(map[string]bool)
	for _, r := range ranks {
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}

	type near struct {
		name string
		dist int
	}
	var nearby []near
	limit := len(query)/3 + 1
	for _, n := range names {
		if seen[n] {
			continue
		}
		d := fuzzy.LevenshteinDistance(strings.ToLower(query), strings.ToLower(strings.TrimSpace(n)))
		if d <= limit {
			nearby = append(nearby, near{n, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	for _, c := range nearby {
		out = append(out, c.name)
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}

func init() {
	delCmd.Flags().StringVar(&delGUID, "guid", "", "delete by GUID")
	delCmd.Flags().StringVar(&delName, "name", "", "delete by friendly name (case-insensitive)")
	delCmd.Flags().StringVar(&delFile, "file", "", "delete by exact file name in the directory")
	delCmd.Flags().BoolVarP(&delYes, "yes", "y", false, "delete every match when several prompts share a name")
	rootCmd.AddCommand(delCmd)
}
