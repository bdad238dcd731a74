package store

import (
	"database/sql"
	"fmt"

	"github.com/colefield/tablefinder/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) Create(name string) (*model.Category, error) {
	result, err := s.db.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetOrCreate returns the category with the given name, creating it if
// it does not exist yet.
func (s *CategoryStore) GetOrCreate(name string) (*model.Category, error) {
	c, err := s.GetByName(name)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	return s.Create(name)
}

func (s *CategoryStore) GetByID(id int64) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRow(`SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *CategoryStore) GetByName(name string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRow(`SELECT id, name FROM categories WHERE name = ?`, name).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return &c, nil
}

// List returns all categories sorted by name, for the filter UI.
func (s *CategoryStore) List() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
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

// MemberIDs returns the ids of all restaurants in the category.
func (s *CategoryStore) MemberIDs(categoryID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT restaurant_id FROM restaurant_category WHERE category_id = ?`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("query category members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *CategoryStore) Update(id int64, name string) (*model.Category, error) {
	_, err := s.db.Exec(`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(id)
}

func (s *CategoryStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
