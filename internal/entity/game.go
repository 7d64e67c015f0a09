package entity

import "time"

// Game is one played (or scheduled) game between two teams.
type Game struct {
	ID           int       `sql:"id" json:"id"`
	Date         string    `sql:"date" json:"date"` // YYYY-MM-DD
	HomeTeamID   int       `sql:"home_team_id" json:"home_team_id"`
	AwayTeamID   int       `sql:"away_team_id" json:"away_team_id"`
	HomeScore    *int      `sql:"home_score" json:"home_score,omitempty"`
	AwayScore    *int      `sql:"away_score" json:"away_score,omitempty"`
	WinnerTeamID *int      `sql:"winner_team_id" json:"winner_team_id,omitempty"`
	Location     *string   `sql:"location" json:"location,omitempty"`
	Status       string    `sql:"status" json:"status"`
	SourceName   *string   `sql:"source_name" json:"source_name,omitempty"`
	SourceSHA256 *string   `sql:"source_sha256" json:"source_sha256,omitempty"`
	CreatedAt    time.Time `sql:"created_at" json:"created_at"`
	UpdatedAt    time.Time `sql:"updated_at" json:"updated_at"`
}

// GameSummary is a game row joined with its team names for listings.
type GameSummary struct {
	Game
	HomeTeam string `sql:"home_team" json:"home_team"`
	AwayTeam string `sql:"away_team" json:"away_team"`
}

// OverrideAudit records a warning a reviewer accepted before commit.
type OverrideAudit struct {
	ID         int       `sql:"id" json:"id"`
	GameID     int       `sql:"game_id" json:"game_id"`
	FindingID  string    `sql:"finding_id" json:"finding_id"`
	Kind       string    `sql:"kind" json:"kind"`
	Message    string    `sql:"message" json:"message"`
	Reviewer   string    `sql:"reviewer" json:"reviewer"`
	Note       *string   `sql:"note" json:"note,omitempty"`
	AcceptedAt time.Time `sql:"accepted_at" json:"accepted_at"`
}

// GameDetail is a game with every row filed under it.
type GameDetail struct {
	Game     *Game             `json:"game"`
	HomeTeam *Team             `json:"home_team"`
	AwayTeam *Team             `json:"away_team"`
	Teams    []*TeamBoxScore   `json:"team_box_scores"`
	Players  []*PlayerBoxScore `json:"player_box_scores"`
	Audits   []*OverrideAudit  `json:"override_audits"`
}

// StoreStats is a count of rows per table.
type StoreStats struct {
	Teams           int `json:"teams"`
	Players         int `json:"players"`
	Games           int `json:"games"`
	FinalGames      int `json:"final_games"`
	TeamBoxScores   int `json:"team_box_scores"`
	PlayerBoxScores int `json:"player_box_scores"`
	OverrideAudits  int `json:"override_audits"`
}
