package constants

// GameStatus is the stored status of a game row.
type GameStatus string

// Stable values (store these exact strings in DB).
const (
	GameStatusScheduled GameStatus = "scheduled" // seeded ahead of time, no box scores yet
	GameStatusFinal     GameStatus = "final"     // box scores committed
)

var GameStatuses = []string{string(GameStatusScheduled), string(GameStatusFinal)}

func ValidGameStatus(s string) bool {
	for _, v := range GameStatuses {
		if v == s {
			return true
		}
	}
	return false
}
