package events

import "time"

// CypherStart is emitted before a statement is sent to the graph database.
type CypherStart struct {
	ID         int64
	Database   string
	Query      string
	Params     map[string]any
	AccessMode string
}

// CypherFinish is emitted after the statement's records were collected or it failed.
type CypherFinish struct {
	ID       int64
	Database string
	Query    string
	Records  int
	Err      error
	Duration time.Duration
}
