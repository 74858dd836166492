package networth

import "context"

type LeaderboardRow struct {
	Rank     int64   `json:"rank"`
	Username string  `json:"username"`
	NetWorth float64 `json:"net_worth"`
}

// Leaderboard ranks a game's players by persisted net worth.
func (s *Service) Leaderboard(ctx context.Context, gameID string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.Query(ctx, `
		SELECT username, net_worth
		FROM econ.players
		WHERE game_id = $1
		ORDER BY net_worth DESC, username
		LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	rank := int64(1)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Username, &r.NetWorth); err != nil {
			return nil, err
		}
		r.Rank = rank
		rank++
		out = append(out, r)
	}
	return out, rows.Err()
}
