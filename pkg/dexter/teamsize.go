package dexter

import "fmt"

// StoriesTotal is the number of stories in a game.
const StoriesTotal = 5

// teamSizes[n-MinPlayers][story-1] is the required team size.
var teamSizes = [MaxPlayers - MinPlayers + 1][StoriesTotal]int{
	{2, 3, 2, 3, 3}, // 5
	{2, 3, 4, 3, 4}, // 6
	{2, 3, 3, 4, 4}, // 7
	{3, 4, 4, 5, 5}, // 8
	{3, 4, 4, 5, 5}, // 9
	{3, 4, 4, 5, 5}, // 10
	{4, 5, 4, 5, 5}, // 11
	{4, 5, 5, 6, 6}, // 12
}

// TeamSize returns the required team size for n players on the given story.
func TeamSize(n, story int) (int, error) {
	if n < MinPlayers || n > MaxPlayers {
		return 0, fmt.Errorf("%w: %d players", ErrPlayerCountOutOfRange, n)
	}
	if story < 1 || story > StoriesTotal {
		return 0, fmt.Errorf("%w: story %d", ErrInvalidPhaseTransition, story)
	}
	return teamSizes[n-MinPlayers][story-1], nil
}
