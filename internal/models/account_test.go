package models

import (
	"testing"
	"time"
)

func TestAccountIsLocked(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	tests := []struct {
		name        string
		lockedUntil *time.Time
		want        bool
	}{
		{"never locked", nil, false},
		{"lock expired", &past, false},
		{"lock active", &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Account{LockedUntil: tt.lockedUntil}
			if got := a.IsLocked(); got != tt.want {
				t.Errorf("IsLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleDeveloper, RoleAdmin} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "user", "SUPERADMIN", "admin "} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}

func TestSessionIsExpired(t *testing.T) {
	live := Session{ExpiresAt: time.Now().Add(time.Hour)}
	if live.IsExpired() {
		t.Error("session expiring in an hour reported expired")
	}

	dead := Session{ExpiresAt: time.Now().Add(-time.Second)}
	if !dead.IsExpired() {
		t.Error("session past expiry reported live")
	}
}
