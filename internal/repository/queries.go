package repository

import "regionchatbot/pkg/database"

const userColumns = `telegram_id, region, language_code, premium, partner_id, last_active_at, created_at`

// queries differ per dialect only in row locking. SQLite runs every
// transaction with an immediate write lock, so plain selects are already
// serialized there.
type queries struct {
	selectUser    string
	lockUser      string
	lockCandidate string
}

const (
	selectUserQuery = `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	candidateQuery = `SELECT ` + userColumns + ` FROM users
		WHERE partner_id IS NULL AND telegram_id <> $1 AND telegram_id <> $3 AND region = $2
		ORDER BY last_active_at ASC, telegram_id ASC
		LIMIT 1`

	insertUserQuery = `INSERT INTO users (telegram_id, region, language_code, premium, partner_id, last_active_at, created_at)
		VALUES ($1, $2, $3, FALSE, NULL, $4, $5)`

	// linkQuery only links users that are still idle; zero affected rows
	// means a concurrent pairing won.
	linkQuery   = `UPDATE users SET partner_id = $2 WHERE telegram_id = $1 AND partner_id IS NULL`
	unlinkQuery = `UPDATE users SET partner_id = NULL, last_active_at = $3 WHERE telegram_id = $1 AND partner_id = $2`
	breakPairQuery    = `UPDATE users SET partner_id = NULL
		WHERE (telegram_id = $1 AND partner_id = $2) OR (telegram_id = $2 AND partner_id = $1)`

	setRegionQuery   = `UPDATE users SET region = $2, last_active_at = $3 WHERE telegram_id = $1`
	setPremiumQuery  = `UPDATE users SET premium = $2 WHERE telegram_id = $1`
	touchQuery       = `UPDATE users SET last_active_at = $2 WHERE telegram_id = $1`
	countUsersQuery  = `SELECT COUNT(*) FROM users`
	regionStatsQuery = `SELECT region,
		COUNT(*),
		SUM(CASE WHEN partner_id IS NOT NULL THEN 1 ELSE 0 END),
		SUM(CASE WHEN premium THEN 1 ELSE 0 END)
		FROM users GROUP BY region ORDER BY region`
)

func queriesFor(d database.Dialect) queries {
	if d == database.Postgres {
		return queries{
			selectUser:    selectUserQuery,
			lockUser:      selectUserQuery + ` FOR UPDATE`,
			lockCandidate: candidateQuery + ` FOR UPDATE SKIP LOCKED`,
		}
	}
	return queries{
		selectUser:    selectUserQuery,
		lockUser:      selectUserQuery,
		lockCandidate: candidateQuery,
	}
}
