package database

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"001_initial_schema.sql", 1},
		{"012_add_share_tokens.sql", 12},
		{"README.md", 0},
		{"abc_schema.sql", 0},
		{"x01_schema.sql", 0},
		{"002_notes.txt", 0},
	}
	for _, tt := range tests {
		if got := migrationVersion(tt.name); got != tt.want {
			t.Fatalf("migrationVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
