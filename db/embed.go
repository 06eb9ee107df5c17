// Package db provides the embedded cart storage schema.
package db

import _ "embed"

// Schema contains the DDL for the cart_slots table. It is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
