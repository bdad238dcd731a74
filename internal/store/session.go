package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colefield/tablefinder/internal/model"
)

// maxRecentlyViewed bounds the per-session recently-viewed list.
const maxRecentlyViewed = 10

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var userID sql.NullInt64
	var recent string
	err := scanner.Scan(&s.ID, &s.Token, &userID, &s.IsAdmin, &recent, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		s.UserID = &userID.Int64
	}
	if err := json.Unmarshal([]byte(recent), &s.RecentlyViewed); err != nil {
		return nil, fmt.Errorf("decode recently_viewed: %w", err)
	}
	return &s, nil
}

const sessionCols = `id, token, user_id, is_admin, recently_viewed, expires_at, created_at`

// Create makes a new anonymous session with a crypto-random token and
// 30-day expiry.
func (s *SessionStore) Create() (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, expires_at) VALUES (?, ?)`,
		token, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the session for the given token, or nil if expired
// or not found.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > datetime('now')`,
		token,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// SetUser marks the session as authenticated. Login carries the stored
// user's admin flag into the session.
func (s *SessionStore) SetUser(id, userID int64, isAdmin bool) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET user_id = ?, is_admin = ? WHERE id = ?`,
		userID, isAdmin, id,
	)
	if err != nil {
		return fmt.Errorf("set session user: %w", err)
	}
	return nil
}

// AppendRecentlyViewed records a redirect to the given restaurant. An id
// already in the list leaves it unchanged; otherwise the id is appended
// and the list truncated to its last entries. The read-modify-write
// runs in one transaction so concurrent clicks on the same session
// cannot drop each other's append.
func (s *SessionStore) AppendRecentlyViewed(id, restaurantID int64) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin recently_viewed update: %w", err)
	}
	defer tx.Rollback()

	var recent string
	if err := tx.QueryRow(`SELECT recently_viewed FROM sessions WHERE id = ?`, id).Scan(&recent); err != nil {
		return nil, fmt.Errorf("read recently_viewed: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal([]byte(recent), &ids); err != nil {
		return nil, fmt.Errorf("decode recently_viewed: %w", err)
	}

	updated := appendRecent(ids, restaurantID)

	encoded, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encode recently_viewed: %w", err)
	}
	if _, err := tx.Exec(`UPDATE sessions SET recently_viewed = ? WHERE id = ?`, string(encoded), id); err != nil {
		return nil, fmt.Errorf("write recently_viewed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recently_viewed update: %w", err)
	}
	return updated, nil
}

// appendRecent appends id unless present and keeps the last
// maxRecentlyViewed entries, most-recent-last.
func appendRecent(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	ids = append(ids, id)
	if len(ids) > maxRecentlyViewed {
		ids = ids[len(ids)-maxRecentlyViewed:]
	}
	return ids
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
