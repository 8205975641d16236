package repository

import "errors"

// ErrNotFound is returned when a query for a single entity finds no rows.
// The service layer translates it into a domain-level error, keeping business
// logic decoupled from the database driver's sentinel (sql.ErrNoRows).
var ErrNotFound = errors.New("repository: not found")
