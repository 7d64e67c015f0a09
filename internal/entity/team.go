package entity

// Team is reference data; the pipeline looks teams up and never creates them.
type Team struct {
	ID           int     `sql:"id" json:"id"`
	Name         string  `sql:"name" json:"name"`
	Abbreviation *string `sql:"abbreviation" json:"abbreviation,omitempty"`
	City         *string `sql:"city" json:"city,omitempty"`
	Coach        *string `sql:"coach" json:"coach,omitempty"`
}

// Player is reference data filed under exactly one team.
type Player struct {
	ID           int     `sql:"id" json:"id"`
	TeamID       int     `sql:"team_id" json:"team_id"`
	FirstName    string  `sql:"first_name" json:"first_name"`
	LastName     string  `sql:"last_name" json:"last_name"`
	MediaName    string  `sql:"media_name" json:"media_name"`
	JerseyNumber *int    `sql:"jersey_number" json:"jersey_number,omitempty"`
	Position     *string `sql:"position" json:"position,omitempty"`
}

// Roster is the reference view of the two teams a document is about.
type Roster struct {
	Teams   []*Team
	Players []*Player
}

// Team returns the roster team with id, or nil.
func (r *Roster) Team(id int) *Team {
	if r == nil {
		return nil
	}
	for _, t := range r.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Player returns the roster player with id, or nil.
func (r *Roster) Player(id int) *Player {
	if r == nil {
		return nil
	}
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayersOf lists the roster players filed under teamID.
func (r *Roster) PlayersOf(teamID int) []*Player {
	if r == nil {
		return nil
	}
	var out []*Player
	for _, p := range r.Players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}
