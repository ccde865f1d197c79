package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Table Structure:
//
// CREATE TABLE IF NOT EXISTS job (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	title VARCHAR(255) NOT NULL,
// 	company_name VARCHAR(255) NOT NULL,
// 	company_website VARCHAR(255),
// 	location VARCHAR(255),
// 	description TEXT NOT NULL,
// 	owner_id CHAR(27) NOT NULL,
// 	slug VARCHAR(255) NOT NULL UNIQUE,
// 	created_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
//
// CREATE INDEX job_created_at_idx ON job (created_at DESC);
// CREATE INDEX job_owner_id_idx ON job (owner_id);
// CREATE INDEX job_title_tsv_idx ON job USING GIN (to_tsvector('simple', title));

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}
