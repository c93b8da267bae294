package dexter

// Win thresholds.
const (
	StoriesToWin = 3
	MaxVoteFails = 5
)

// Outcome is the result of evaluating the story tally.
type Outcome struct {
	Winner Faction `json:"winner,omitempty"`
	// Decided is false while neither faction has met a win condition.
	Decided bool `json:"decided"`
	// Provisional marks a Dexter win the Sniper may still overturn.
	Provisional bool `json:"provisional,omitempty"`
}

// Tally counts resolved stories per faction.
func Tally(results [StoriesTotal]StoryResult) (dexter, sinister int) {
	for _, r := range results {
		switch r {
		case StoryDexter:
			dexter++
		case StorySinister:
			sinister++
		}
	}
	return dexter, sinister
}

// Evaluate applies the win conditions. Five failed votes win for Sinister
// outright; otherwise the first faction to three resolved stories wins, and
// a Dexter win is provisional when a Sniper is in play.
func Evaluate(results [StoriesTotal]StoryResult, voteFails int, sniperInPlay bool) Outcome {
	if voteFails >= MaxVoteFails {
		return Outcome{Winner: FactionSinister, Decided: true}
	}
	dexter, sinister := Tally(results)
	switch {
	case sinister >= StoriesToWin:
		return Outcome{Winner: FactionSinister, Decided: true}
	case dexter >= StoriesToWin:
		return Outcome{Winner: FactionDexter, Decided: true, Provisional: sniperInPlay}
	}
	return Outcome{}
}

// FinalWinner decides a game that ran past its last story.
func FinalWinner(results [StoriesTotal]StoryResult) Faction {
	dexter, sinister := Tally(results)
	if dexter > sinister {
		return FactionDexter
	}
	return FactionSinister
}

// endGame moves the game to its terminal phase.
func (g *Game) endGame(winner Faction, reason string) {
	g.Overlay = nil
	g.Phase = &GameOver{Winner: winner, Reason: reason}
	g.Effects = RoundEffects{}
	g.PlayedCard = ""
	if winner == "" {
		g.logf("gameOver", "", "Game over: %s", reason)
	} else {
		g.logf("gameOver", "", "Game over: %s wins (%s)", winner, reason)
	}
	g.CurrentStory = StoriesTotal + 1
}
