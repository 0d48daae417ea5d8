// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models carry the GORM annotations and table mappings
// 3. ToDomain/FromDomain convert between the two
// 4. Repositories only read and write persistence models
//
// Structure:
// - base.go: shared id, timestamp and tenant columns
// - inventory.go: inventory items
// - partner.go: customers
// - sales.go: sales orders and their items
// - invoicing.go: invoices and their items
// - numbering.go: per-tenant document counters
package models
