package storage

import (
	"context"
	"embed"
	"errors"
	"path"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the Postgres-backed record store behind the bot and the admin
// website. Every method is a plain CRUD call; no transactional guarantees
// are assumed by callers.
type Store struct {
	pool *pgxpool.Pool
}

type Ban struct {
	UUID      string
	Name      string
	Reason    string
	AddedBy   string
	CreatedAt time.Time
}

type Donation struct {
	ID        int64
	DiscordID string
	Name      string
	Amount    int64
	Note      string
	CreatedAt time.Time
}

type Filter struct {
	Phrase    string
	AddedBy   string
	CreatedAt time.Time
}

type ScrambleScore struct {
	DiscordID string
	Name      string
	Score     int
	CreatedAt time.Time
}

type AuditLog struct {
	ID        int64
	GuildID   string
	UserID    string
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AddBan(ctx context.Context, ban Ban) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bans (uuid, name, reason, added_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (uuid) DO UPDATE SET name = $2, reason = $3, added_by = $4`,
		ban.UUID, ban.Name, ban.Reason, ban.AddedBy, time.Now().UTC())
	return err
}

func (s *Store) RemoveBan(ctx context.Context, uuid string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bans WHERE uuid = $1`, uuid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetBan(ctx context.Context, uuid string) (Ban, bool, error) {
	var ban Ban
	err := s.pool.QueryRow(ctx,
		`SELECT uuid, name, reason, added_by, created_at FROM bans WHERE uuid = $1`, uuid).
		Scan(&ban.UUID, &ban.Name, &ban.Reason, &ban.AddedBy, &ban.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ban{}, false, nil
	}
	if err != nil {
		return Ban{}, false, err
	}
	return ban, true, nil
}

func (s *Store) ListBans(ctx context.Context) ([]Ban, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT uuid, name, reason, added_by, created_at FROM bans ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bans []Ban
	for rows.Next() {
		var ban Ban
		if err := rows.Scan(&ban.UUID, &ban.Name, &ban.Reason, &ban.AddedBy, &ban.CreatedAt); err != nil {
			return nil, err
		}
		bans = append(bans, ban)
	}
	return bans, rows.Err()
}

func (s *Store) RecordDonation(ctx context.Context, donation Donation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO donations (discord_id, name, amount, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		donation.DiscordID, donation.Name, donation.Amount, donation.Note, time.Now().UTC())
	return err
}

func (s *Store) DonationTotal(ctx context.Context, discordID string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM donations WHERE discord_id = $1`, discordID).
		Scan(&total)
	return total, err
}

func (s *Store) TopDonors(ctx context.Context, limit int) ([]Donation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT discord_id, MAX(name), SUM(amount) FROM donations
		 GROUP BY discord_id ORDER BY SUM(amount) DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donors []Donation
	for rows.Next() {
		var d Donation
		if err := rows.Scan(&d.DiscordID, &d.Name, &d.Amount); err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

func (s *Store) AddFilter(ctx context.Context, filter Filter) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO filters (phrase, added_by, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (phrase) DO NOTHING`,
		filter.Phrase, filter.AddedBy, time.Now().UTC())
	return err
}

func (s *Store) RemoveFilter(ctx context.Context, phrase string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM filters WHERE phrase = $1`, phrase)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListFilters(ctx context.Context) ([]Filter, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT phrase, added_by, created_at FROM filters ORDER BY phrase`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filters []Filter
	for rows.Next() {
		var f Filter
		if err := rows.Scan(&f.Phrase, &f.AddedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

// SubmitScrambleScore keeps each player's best score.
func (s *Store) SubmitScrambleScore(ctx context.Context, score ScrambleScore) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scramble_scores (discord_id, name, score, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (discord_id) DO UPDATE SET
		   name = $2,
		   score = GREATEST(scramble_scores.score, $3),
		   created_at = CASE WHEN $3 > scramble_scores.score THEN $4 ELSE scramble_scores.created_at END`,
		score.DiscordID, score.Name, score.Score, time.Now().UTC())
	return err
}

func (s *Store) TopScrambleScores(ctx context.Context, limit int) ([]ScrambleScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT discord_id, name, score, created_at FROM scramble_scores
		 ORDER BY score DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []ScrambleScore
	for rows.Next() {
		var sc ScrambleScore
		if err := rows.Scan(&sc.DiscordID, &sc.Name, &sc.Score, &sc.CreatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

func (s *Store) AddAuditLog(ctx context.Context, entry AuditLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_logs (guild_id, user_id, level, event, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.GuildID, entry.UserID, entry.Level, entry.Event, entry.Details, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, guild_id, user_id, level, event, details, created_at FROM audit_logs
		 WHERE guild_id = $1 AND created_at >= $2 ORDER BY created_at DESC`, guildID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var entry AuditLog
		if err := rows.Scan(&entry.ID, &entry.GuildID, &entry.UserID, &entry.Level, &entry.Event, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
