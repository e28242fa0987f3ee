// Package database provides PostgreSQL connectivity and the song catalog
// repository.
//
// Uses pgx for connection pooling; schema migrations run as idempotent inline
// DDL at startup. The catalog repository implements domain.CatalogRepository.
package database
