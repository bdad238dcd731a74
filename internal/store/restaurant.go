package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/colefield/tablefinder/internal/model"
)

type RestaurantStore struct {
	db *sql.DB
}

func NewRestaurantStore(db *sql.DB) *RestaurantStore {
	return &RestaurantStore{db: db}
}

func scanRestaurant(scanner interface{ Scan(...any) error }) (*model.Restaurant, error) {
	var r model.Restaurant
	var verifiedAt sql.NullTime
	err := scanner.Scan(&r.ID, &r.Name, &r.Location, &r.City, &r.Website, &verifiedAt)
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		r.URLVerifiedAt = &verifiedAt.Time
	}
	return &r, nil
}

const restaurantCols = `id, name, location, city, website, url_verified_at`

func (s *RestaurantStore) Create(name, location, city, website string) (*model.Restaurant, error) {
	result, err := s.db.Exec(
		`INSERT INTO restaurants (name, location, city, website) VALUES (?, ?, ?, ?)`,
		name, location, city, website,
	)
	if err != nil {
		return nil, fmt.Errorf("insert restaurant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RestaurantStore) GetByID(id int64) (*model.Restaurant, error) {
	row := s.db.QueryRow(`SELECT `+restaurantCols+` FROM restaurants WHERE id = ?`, id)
	r, err := scanRestaurant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return r, nil
}

func (s *RestaurantStore) List() ([]model.Restaurant, error) {
	rows, err := s.db.Query(`SELECT ` + restaurantCols + ` FROM restaurants`)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()
	return collectRestaurants(rows)
}

// ListByCategoryNames returns restaurants belonging to at least one of
// the named categories. An empty name list returns all restaurants.
func (s *RestaurantStore) ListByCategoryNames(names []string) ([]model.Restaurant, error) {
	if len(names) == 0 {
		return s.List()
	}

	placeholders := strings.Repeat("?,", len(names))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := s.db.Query(
		`SELECT DISTINCT r.`+strings.ReplaceAll(restaurantCols, ", ", ", r.")+`
		 FROM restaurants r
		 JOIN restaurant_category rc ON rc.restaurant_id = r.id
		 JOIN categories c ON c.id = rc.category_id
		 WHERE c.name IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query restaurants by category: %w", err)
	}
	defer rows.Close()
	return collectRestaurants(rows)
}

// ListByIDs resolves a list of restaurant ids to records. Unknown ids
// are silently dropped. The result preserves the order of the input
// slice, so callers holding a recency-ordered list get recency order back.
func (s *RestaurantStore) ListByIDs(ids []int64) ([]model.Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT `+restaurantCols+` FROM restaurants WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query restaurants by ids: %w", err)
	}
	defer rows.Close()

	found, err := collectRestaurants(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]model.Restaurant, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	var ordered []model.Restaurant
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

// ListWithWebsite returns restaurants whose website field is non-empty,
// for offline URL verification.
func (s *RestaurantStore) ListWithWebsite() ([]model.Restaurant, error) {
	rows, err := s.db.Query(`SELECT ` + restaurantCols + ` FROM restaurants WHERE website != ''`)
	if err != nil {
		return nil, fmt.Errorf("query restaurants with website: %w", err)
	}
	defer rows.Close()
	return collectRestaurants(rows)
}

func (s *RestaurantStore) Update(id int64, name, location, city, website string) (*model.Restaurant, error) {
	_, err := s.db.Exec(
		`UPDATE restaurants SET name = ?, location = ?, city = ?, website = ? WHERE id = ?`,
		name, location, city, website, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update restaurant: %w", err)
	}
	return s.GetByID(id)
}

// SetURLVerifiedAt stamps the time the restaurant's website was last
// found unreachable.
func (s *RestaurantStore) SetURLVerifiedAt(id int64, t time.Time) error {
	_, err := s.db.Exec(
		`UPDATE restaurants SET url_verified_at = ? WHERE id = ?`,
		t.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set url_verified_at: %w", err)
	}
	return nil
}

func (s *RestaurantStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM restaurants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	return nil
}

// AddCategory adds the restaurant to a category. Adding an existing
// membership is a no-op.
func (s *RestaurantStore) AddCategory(restaurantID, categoryID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO restaurant_category (restaurant_id, category_id) VALUES (?, ?)`,
		restaurantID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("add category membership: %w", err)
	}
	return nil
}

func (s *RestaurantStore) RemoveCategory(restaurantID, categoryID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM restaurant_category WHERE restaurant_id = ? AND category_id = ?`,
		restaurantID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("remove category membership: %w", err)
	}
	return nil
}

// Categories returns the categories the restaurant belongs to, sorted by name.
func (s *RestaurantStore) Categories(restaurantID int64) ([]model.Category, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.name FROM categories c
		 JOIN restaurant_category rc ON rc.category_id = c.id
		 WHERE rc.restaurant_id = ? ORDER BY c.name`,
		restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query restaurant categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func collectRestaurants(rows *sql.Rows) ([]model.Restaurant, error) {
	var restaurants []model.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, *r)
	}
	return restaurants, rows.Err()
}
