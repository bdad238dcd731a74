// Package merge folds the scraped fine-grained categories into a small
// curated set so the listing filter stays usable.
package merge

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// categoryMergeMap maps a scraped category name to the curated group it
// belongs to. Names not present here are left alone.
var categoryMergeMap = map[string]string{
	"Fast Food":                           "Comfort Food",
	"Pizza":                               "Comfort Food",
	"Barbeque":                            "Comfort Food",
	"Soul Food":                           "Comfort Food",
	"Soups/Salads/Sandwiches":             "Casual Dining",
	"Lunch":                               "Casual Dining",
	"Buffet/Cafeteria Style":              "Casual Dining",
	"Mediterranean/Middle Eastern":        "Global Cuisine",
	"Creole/Caribbean/Cuban":              "Global Cuisine",
	"Mexican/Latin/Southwest":             "Global Cuisine",
	"Asian":                               "Global Cuisine",
	"Bakery/Ice Cream/Sweets":             "Desserts & Sweets",
	"Breakfast and/or Brunch":             "Breakfast & Brunch",
	"Restaurant":                          "Dining Experiences",
	"Fine Dining":                         "Dining Experiences",
	"Outdoor Dining/With View/Riverfront": "Dining Experiences",
	"Local":                               "Dining Experiences",
	"Locally Sourced Fare":                "Dining Experiences",
	"Bars & Clubs":                        "Nightlife & Entertainment",
	"Live music":                          "Nightlife & Entertainment",
	"Wine Bar/Tapas":                      "Nightlife & Entertainment",
	"Entertainment":                       "Nightlife & Entertainment",
	"Pub/Bar":                             "Nightlife & Entertainment",
	"Breweries":                           "Beverages & Cafes",
	"Brewery/Distillery/Winery":           "Beverages & Cafes",
	"Wineries/Distilleries":               "Beverages & Cafes",
	"Coffeehouses":                        "Beverages & Cafes",
	"Tea Rooms":                           "Beverages & Cafes",
	"Rafting/Canoeing/Kayaking":           "Activities & Attractions",
	"Amusement Places":                    "Activities & Attractions",
	"Clothing":                            "Shopping",
	"Specialty Shops":                     "Shopping",
}

// Result reports what a merge run did.
type Result struct {
	Merged  int // source categories folded into a group and deleted
	Skipped int // mapped categories that were not present
}

// Run folds every mapped category into its curated group inside a
// single transaction. Memberships move to the group, then the source
// category is deleted unless the mapping is the identity. Running it
// again is a no-op because the folded names no longer exist.
func Run(db *sql.DB, logger *slog.Logger) (Result, error) {
	return run(db, logger, categoryMergeMap)
}

func run(db *sql.DB, logger *slog.Logger, mapping map[string]string) (Result, error) {
	var res Result

	tx, err := db.Begin()
	if err != nil {
		return res, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	for source, group := range mapping {
		var sourceID int64
		err := tx.QueryRow(`SELECT id FROM categories WHERE name = ?`, source).Scan(&sourceID)
		if err == sql.ErrNoRows {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("look up category %q: %w", source, err)
		}

		groupID, err := getOrCreateCategory(tx, group)
		if err != nil {
			return res, err
		}

		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO restaurant_category (restaurant_id, category_id)
			SELECT restaurant_id, ? FROM restaurant_category WHERE category_id = ?`,
			groupID, sourceID,
		); err != nil {
			return res, fmt.Errorf("move memberships of %q: %w", source, err)
		}

		// An identity mapping must leave the category in place.
		if source == group {
			continue
		}

		if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, sourceID); err != nil {
			return res, fmt.Errorf("delete category %q: %w", source, err)
		}

		logger.Info("merged category", "source", source, "group", group)
		res.Merged++
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit merge: %w", err)
	}
	return res, nil
}

func getOrCreateCategory(tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("look up category %q: %w", name, err)
	}

	result, err := tx.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	return result.LastInsertId()
}
