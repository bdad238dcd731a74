package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/colefield/tablefinder/internal/model"
)

type ClickStore struct {
	db *sql.DB
}

func NewClickStore(db *sql.DB) *ClickStore {
	return &ClickStore{db: db}
}

func scanClick(scanner interface{ Scan(...any) error }) (*model.Click, error) {
	var c model.Click
	err := scanner.Scan(&c.ID, &c.RestaurantID, &c.Timestamp)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const clickCols = `id, restaurant_id, timestamp`

// Create appends a click record stamped with the current UTC time.
func (s *ClickStore) Create(restaurantID int64) (*model.Click, error) {
	result, err := s.db.Exec(
		`INSERT INTO clicks (restaurant_id, timestamp) VALUES (?, ?)`,
		restaurantID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert click: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+clickCols+` FROM clicks WHERE id = ?`, id)
	return scanClick(row)
}

// List returns clicks newest first, for the admin panel.
func (s *ClickStore) List() ([]model.Click, error) {
	rows, err := s.db.Query(`SELECT ` + clickCols + ` FROM clicks ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query clicks: %w", err)
	}
	defer rows.Close()

	var clicks []model.Click
	for rows.Next() {
		c, err := scanClick(rows)
		if err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		clicks = append(clicks, *c)
	}
	return clicks, rows.Err()
}

func (s *ClickStore) CountByRestaurant(restaurantID int64) (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM clicks WHERE restaurant_id = ?`, restaurantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return count, nil
}

// Delete removes a click record. Only the admin panel uses this; the
// serving path treats clicks as append-only.
func (s *ClickStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM clicks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete click: %w", err)
	}
	return nil
}
