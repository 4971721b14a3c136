package repository

import (
	"strings"
	"testing"
)

func TestListUsersQueryIsOrderedByName(t *testing.T) {
	query := strings.ToLower(listUsersQuery)

	if !strings.Contains(query, "from users") {
		t.Fatalf("expected list query to read the users table: %s", query)
	}
	if !strings.Contains(query, "order by name asc") {
		t.Fatalf("expected list query to be ordered by name: %s", query)
	}
}

func TestUserColumnsMatchScanOrder(t *testing.T) {
	want := []string{"id", "email", "name", "password_hash", "role", "created_at", "updated_at"}
	got := strings.Split(strings.ReplaceAll(userColumns, " ", ""), ",")

	if len(got) != len(want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
}
