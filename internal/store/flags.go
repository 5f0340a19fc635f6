package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// ActiveFlag marks that the user enabled extraction on the feed tab
const ActiveFlag = "active"

// Flag returns a stored flag value and whether it was set.
func (s *Store) Flag(name string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM flags WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetFlag stores a flag value
func (s *Store) SetFlag(name, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO flags (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	return err
}

// Active reads the persisted active flag. Unset means false.
func (s *Store) Active() (bool, error) {
	v, ok, err := s.Flag(ActiveFlag)
	if err != nil || !ok {
		return false, err
	}
	return strconv.ParseBool(v)
}

// SetActive persists the active flag
func (s *Store) SetActive(active bool) error {
	return s.SetFlag(ActiveFlag, strconv.FormatBool(active))
}
