package recommend

import (
	"github.com/jonwraymond/promptdiscovery/prompt"
)

// ForYouInput groups a user's interactions by kind.
type ForYouInput struct {
	Viewed      []prompt.Prompt `json:"viewed,omitempty"`
	Saved       []prompt.Prompt `json:"saved,omitempty"`
	Runs        []prompt.Prompt `json:"runs,omitempty"`
	Preferences Preferences     `json:"preferences"`
}

// History flattens the input into signals: viewed, then saved, then runs.
func (in ForYouInput) History() []Signal {
	history := make([]Signal, 0, len(in.Viewed)+len(in.Saved)+len(in.Runs))
	history = append(history, signalsOf(in.Viewed, KindView)...)
	history = append(history, signalsOf(in.Saved, KindSave)...)
	history = append(history, signalsOf(in.Runs, KindRun)...)
	return history
}

// ForYouOptions controls [Recommender.ForYou].
type ForYouOptions struct {
	Limit      int
	ExcludeIDs []string
}

// ForYou is the single entry point for personalized suggestions. It tags
// each list with its signal kind and delegates to [Recommender.FromHistory].
func (r *Recommender) ForYou(in ForYouInput, corpus []prompt.Prompt, opts ForYouOptions) Results {
	return r.FromHistory(in.History(), corpus, HistoryOptions{
		Limit:       opts.Limit,
		ExcludeIDs:  opts.ExcludeIDs,
		Preferences: in.Preferences,
	})
}
