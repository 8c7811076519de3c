package models

import "time"

// ServerSeed is a committed fairness seed. Only its hash is public until it is revealed.
type ServerSeed struct {
	ID         int64      `db:"id"`
	Seed       string     `db:"seed"`
	SeedHash   string     `db:"seed_hash"`
	Active     bool       `db:"active"`
	CreatedAt  time.Time  `db:"created_at"`
	RevealedAt *time.Time `db:"revealed_at"`
}

// Revealed reports whether the seed may be published
func (s *ServerSeed) Revealed() bool {
	return s.RevealedAt != nil
}

// SeedReveal is what a rotation publishes
type SeedReveal struct {
	RevealedSeed     string `json:"revealed_seed"`
	RevealedSeedHash string `json:"revealed_seed_hash"`
	NextSeedHash     string `json:"next_seed_hash"`
}
