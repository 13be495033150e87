package repository

import "errors"

// ErrNotFound is returned when a query for a single entity finds no rows.
//
// The service layer translates it into app_errors.ErrNotFound so business logic
// never depends on sql.ErrNoRows.
var ErrNotFound = errors.New("repository: not found")
