package model

import "testing"

// TestWithAuthenticationRequired tests the require-authentication
// transition.
func TestWithAuthenticationRequired(t *testing.T) {
	t.Parallel()

	t.Run("public becomes auth only", func(t *testing.T) {
		t.Parallel()

		d := NewEndpointDescriptor("CreateUser", "Features/UserManagement/CreateUser/Endpoint.cs")
		d = WithAuthenticationRequired(d)

		if d.AuthorizationState != StateAuthOnly {
			t.Errorf("expected %s, got %s", StateAuthOnly, d.AuthorizationState)
		}
	})

	t.Run("does not demote a declared permission", func(t *testing.T) {
		t.Parallel()

		d := NewEndpointDescriptor("CreateUser", "Endpoint.cs")
		d = WithPermissionRequired(d, "Users.Create")
		d = WithAuthenticationRequired(d)

		if d.AuthorizationState != StateAlreadyProtected {
			t.Errorf("expected %s, got %s", StateAlreadyProtected, d.AuthorizationState)
		}
		if d.DeclaredPermission != "Users.Create" {
			t.Errorf("declared permission lost: %q", d.DeclaredPermission)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		d := NewEndpointDescriptor("CreateUser", "Endpoint.cs")
		d = WithAuthenticationRequired(d)
		d = WithAuthenticationRequired(d)

		if d.AuthorizationState != StateAuthOnly {
			t.Errorf("expected %s, got %s", StateAuthOnly, d.AuthorizationState)
		}
	})
}

// TestWithPermissionRequired tests the require-permission transition.
func TestWithPermissionRequired(t *testing.T) {
	t.Parallel()

	t.Run("applies from public", func(t *testing.T) {
		t.Parallel()

		d := NewEndpointDescriptor("DeleteRole", "Endpoint.cs")
		d = WithPermissionRequired(d, "Roles.Delete")

		if d.AuthorizationState != StateAlreadyProtected {
			t.Errorf("expected %s, got %s", StateAlreadyProtected, d.AuthorizationState)
		}
		if d.DeclaredPermission != "Roles.Delete" {
			t.Errorf("expected declared permission, got %q", d.DeclaredPermission)
		}
	})

	t.Run("applies from auth only", func(t *testing.T) {
		t.Parallel()

		d := NewEndpointDescriptor("DeleteRole", "Endpoint.cs")
		d = WithAuthenticationRequired(d)
		d = WithPermissionRequired(d, "Roles.Delete")

		if d.AuthorizationState != StateAlreadyProtected {
			t.Errorf("expected %s, got %s", StateAlreadyProtected, d.AuthorizationState)
		}
	})

	t.Run("last declaration wins", func(t *testing.T) {
		t.Parallel()

		d := NewEndpointDescriptor("DeleteRole", "Endpoint.cs")
		d = WithPermissionRequired(d, "Roles.Remove")
		d = WithPermissionRequired(d, "Roles.Delete")

		if d.DeclaredPermission != "Roles.Delete" {
			t.Errorf("expected last declared permission, got %q", d.DeclaredPermission)
		}
	})

	t.Run("original descriptor is not mutated", func(t *testing.T) {
		t.Parallel()

		original := NewEndpointDescriptor("DeleteRole", "Endpoint.cs")
		_ = WithPermissionRequired(original, "Roles.Delete")

		if original.AuthorizationState != StatePublic {
			t.Error("transition mutated its input")
		}
		if original.DeclaredPermission != "" {
			t.Error("transition set declared permission on its input")
		}
	})
}

// TestParseVerb tests verb parsing.
func TestParseVerb(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Verb
		ok    bool
	}{
		{"GET", VerbGet, true},
		{"get", VerbGet, true},
		{"Post", VerbPost, true},
		{"PUT", VerbPut, true},
		{"PATCH", VerbPatch, true},
		{"DELETE", VerbDelete, true},
		{"HEAD", "", false},
		{"OPTIONS", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseVerb(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseVerb(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseVerb(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestIsTerminal tests terminal state classification.
func TestIsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []AuthorizationState{
		StatePublic, StateAuthOnly, StateNeedsPermission,
		StateAlreadyProtected, StateMismatchedPermission,
	} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	if AuthorizationState("bogus").IsTerminal() {
		t.Error("unknown state should not be terminal")
	}
}
