package domain

import "testing"

func TestCatalogIDsUnique(t *testing.T) {
	seen := map[FeatureID]bool{}
	for _, f := range Catalog() {
		if seen[f.ID] {
			t.Errorf("duplicate feature id %q", f.ID)
		}
		seen[f.ID] = true
		if f.Title == "" || f.Description == "" {
			t.Errorf("feature %q missing title or description", f.ID)
		}
	}
}

func TestFeatureByID(t *testing.T) {
	f, ok := FeatureByID(FeatureImage)
	if !ok || !f.Premium {
		t.Errorf("FeatureByID(image) = %+v, %v", f, ok)
	}
	if _, ok := FeatureByID("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestSessionGating(t *testing.T) {
	var s Session
	premium, _ := FeatureByID(FeaturePackage)
	free, _ := FeatureByID(FeatureChat)

	if s.CanUse(premium) {
		t.Error("locked session should not use premium feature")
	}
	if !s.CanUse(free) {
		t.Error("free feature should always be usable")
	}

	s.Unlock()
	if !s.CanUse(premium) {
		t.Error("unlocked session should use premium feature")
	}
	s.Unlock() // set-once semantics: repeat is a no-op
	if !s.PremiumUnlocked {
		t.Error("unlock flag should stay set")
	}
}
