package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		limit    int
		synonyms bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search prompts by relevance",
		Example: `  promptdiscovery search "code review" --corpus prompts.jsonl
  promptdiscovery search docs --synonyms --limit 5 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeStore, err := a.openCatalog(nil, false)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			results, err := cat.Search(cmd.Context(), strings.Join(args, " "), search.Options{
				Limit:          limit,
				ExpandSynonyms: synonyms,
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), results)
			}
			return printSearchResults(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results (0 for all)")
	cmd.Flags().BoolVar(&synonyms, "synonyms", false, "Expand the query with configured synonyms")
	return cmd
}

func (a *app) relatedCmd() *cobra.Command {
	var (
		limit    int
		exclude  []string
		minScore float64
		category string
	)
	cmd := &cobra.Command{
		Use:   "related <prompt-id>",
		Short: "List prompts related to a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeStore, err := a.openCatalog(nil, false)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			results, err := cat.Related(cmd.Context(), args[0], recommend.RelatedOptions{
				Limit:      limit,
				ExcludeIDs: exclude,
				MinScore:   minScore,
			})
			if err != nil {
				return err
			}
			if category != "" {
				results = results.FilterByCategory(category)
			}
			return a.printRecommendations(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Prompt ids to leave out")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Drop results scoring below this")
	cmd.Flags().StringVar(&category, "category", "", "Only show results in this category")
	return cmd
}

func (a *app) recommendCmd() *cobra.Command {
	var (
		user     string
		viewed   []string
		saved    []string
		runs     []string
		prefs    recommend.Preferences
		exclude  []string
		limit    int
		minScore float64
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest prompts from interactions or a user's recorded history",
		Example: `  promptdiscovery recommend --saved code-review --tags testing
  promptdiscovery recommend --user alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, closeStore, err := a.openCatalog(nil, user != "")
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			opts := recommend.ForYouOptions{Limit: limit, ExcludeIDs: exclude}
			var results recommend.Results
			if user != "" {
				results, err = cat.ForUser(cmd.Context(), user, prefs, opts)
			} else {
				results, err = cat.ForYou(cmd.Context(), recommend.ForYouInput{
					Viewed:      cat.Resolve(viewed),
					Saved:       cat.Resolve(saved),
					Runs:        cat.Resolve(runs),
					Preferences: prefs,
				}, opts)
			}
			if err != nil {
				return err
			}
			if minScore > 0 {
				results = results.FilterByMinScore(minScore)
			}
			return a.printRecommendations(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Recommend from this user's recorded signals")
	cmd.Flags().StringSliceVar(&viewed, "viewed", nil, "Viewed prompt ids")
	cmd.Flags().StringSliceVar(&saved, "saved", nil, "Saved prompt ids")
	cmd.Flags().StringSliceVar(&runs, "runs", nil, "Run or copied prompt ids")
	cmd.Flags().StringSliceVar(&prefs.Tags, "tags", nil, "Preferred tags")
	cmd.Flags().StringSliceVar(&prefs.Categories, "categories", nil, "Preferred categories")
	cmd.Flags().StringSliceVar(&prefs.ExcludeTags, "exclude-tags", nil, "Tags to avoid")
	cmd.Flags().StringSliceVar(&prefs.ExcludeCategories, "exclude-categories", nil, "Categories to avoid")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Prompt ids to leave out")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Drop results scoring below this")
	return cmd
}

func (a *app) signalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signal <user> <prompt-id> [view|save|run]",
		Short: "Record a user interaction in the history store",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := recommend.KindView
			if len(args) == 3 {
				var err error
				if kind, err = recommend.ParseKind(args[2]); err != nil {
					return err
				}
			}

			cat, closeStore, err := a.openCatalog(nil, true)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			event, err := cat.RecordSignal(cmd.Context(), args[0], args[1], kind)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), event)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recorded %s of %s for %s (%s)\n", event.Kind, event.PromptID, event.UserID, event.ID)
			return err
		},
	}
}

func printSearchResults(w io.Writer, results search.Results) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no matching prompts")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tTITLE")
	for _, r := range results {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\n", r.Score, r.Prompt.ID, r.Prompt.Title)
	}
	return tw.Flush()
}

func (a *app) printRecommendations(w io.Writer, results recommend.Results) error {
	if a.jsonOut {
		return a.printJSON(w, results)
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no recommendations")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tTITLE\tREASONS")
	for _, r := range results {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", r.Score, r.Prompt.ID, r.Prompt.Title, strings.Join(r.Reasons, "; "))
	}
	return tw.Flush()
}
