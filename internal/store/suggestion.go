package store

import (
	"database/sql"
	"fmt"

	"github.com/colefield/tablefinder/internal/model"
)

type SuggestionStore struct {
	db *sql.DB
}

func NewSuggestionStore(db *sql.DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

func scanSuggestion(scanner interface{ Scan(...any) error }) (*model.Suggestion, error) {
	var sg model.Suggestion
	err := scanner.Scan(&sg.ID, &sg.Suggestion, &sg.Handled)
	if err != nil {
		return nil, err
	}
	return &sg, nil
}

const suggestionCols = `id, suggestion, handled`

func (s *SuggestionStore) Create(text string) (*model.Suggestion, error) {
	result, err := s.db.Exec(`INSERT INTO suggested_changes (suggestion) VALUES (?)`, text)
	if err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *SuggestionStore) GetByID(id int64) (*model.Suggestion, error) {
	row := s.db.QueryRow(`SELECT `+suggestionCols+` FROM suggested_changes WHERE id = ?`, id)
	sg, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return sg, nil
}

// List returns suggestions with unhandled ones first.
func (s *SuggestionStore) List() ([]model.Suggestion, error) {
	rows, err := s.db.Query(`SELECT ` + suggestionCols + ` FROM suggested_changes ORDER BY handled, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []model.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, *sg)
	}
	return suggestions, rows.Err()
}

func (s *SuggestionStore) SetHandled(id int64, handled bool) error {
	_, err := s.db.Exec(`UPDATE suggested_changes SET handled = ? WHERE id = ?`, handled, id)
	if err != nil {
		return fmt.Errorf("set suggestion handled: %w", err)
	}
	return nil
}

func (s *SuggestionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM suggested_changes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete suggestion: %w", err)
	}
	return nil
}
