// Package seed loads the scraped restaurant export into the database.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/colefield/tablefinder/internal/store"
)

// defaultCity is applied to every seeded restaurant; the export covers
// a single city and carries no city field.
const defaultCity = "Chattanooga"

// export mirrors the scraper's JSON shape: the restaurant list sits
// under a doubly nested "docs" key.
type export struct {
	Docs struct {
		Docs []record `json:"docs"`
	} `json:"docs"`
}

type record struct {
	Title           string `json:"title"`
	Address1        string `json:"address1"`
	WebURL          string `json:"weburl"`
	PrimaryCategory struct {
		SubcatName string `json:"subcatname"`
	} `json:"primary_category"`
}

type Seeder struct {
	restaurantStore *store.RestaurantStore
	categoryStore   *store.CategoryStore
	logger          *slog.Logger
}

func NewSeeder(rs *store.RestaurantStore, cs *store.CategoryStore, logger *slog.Logger) *Seeder {
	return &Seeder{restaurantStore: rs, categoryStore: cs, logger: logger}
}

// File seeds from a JSON export on disk and returns the number of
// restaurants created.
func (s *Seeder) File(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}

// Load seeds from a JSON export stream.
func (s *Seeder) Load(r io.Reader) (int, error) {
	var data export
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode seed data: %w", err)
	}

	count := 0
	for _, rec := range data.Docs.Docs {
		if rec.Title == "" {
			s.logger.Warn("skipping record without a title")
			continue
		}

		categoryName := rec.PrimaryCategory.SubcatName
		if categoryName == "" {
			categoryName = "Unknown"
		}
		category, err := s.categoryStore.GetOrCreate(categoryName)
		if err != nil {
			return count, fmt.Errorf("category %q: %w", categoryName, err)
		}

		location := rec.Address1
		if location == "" {
			location = "Unknown"
		}
		restaurant, err := s.restaurantStore.Create(rec.Title, location, defaultCity, rec.WebURL)
		if err != nil {
			return count, fmt.Errorf("restaurant %q: %w", rec.Title, err)
		}
		if err := s.restaurantStore.AddCategory(restaurant.ID, category.ID); err != nil {
			return count, fmt.Errorf("categorize %q: %w", rec.Title, err)
		}

		s.logger.Info("seeded restaurant", "name", rec.Title, "category", categoryName)
		count++
	}

	return count, nil
}
