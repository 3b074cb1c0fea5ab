package booking

import "testing"

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		ownerID uint64
		want    bool
	}{
		{"owner", Actor{ID: 7}, 7, true},
		{"admin on someone else's", Actor{ID: 1, IsAdmin: true}, 7, true},
		{"admin on own", Actor{ID: 7, IsAdmin: true}, 7, true},
		{"stranger", Actor{ID: 3}, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.actor, tt.ownerID); got != tt.want {
				t.Errorf("CanAccess(%+v, %d) = %v, want %v", tt.actor, tt.ownerID, got, tt.want)
			}
		})
	}
}

func TestCanSelfCancel(t *testing.T) {
	if !CanSelfCancel(Actor{ID: 7}, 7) {
		t.Error("owner must be able to self-cancel")
	}
	if CanSelfCancel(Actor{ID: 1, IsAdmin: true}, 7) {
		t.Error("admin role does not grant the self-cancel path")
	}
	if CanSelfCancel(Actor{ID: 3}, 7) {
		t.Error("stranger must not self-cancel")
	}
}
