package filters

import (
	"reflect"
	"testing"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
func setPtr(v ...int) *[]int  { return &v }

func TestNeutralCriteriaProducesEmptyFragment(t *testing.T) {
	c := New()
	fragment := c.ToQueryFragment()
	if len(fragment) != 0 {
		t.Fatalf("neutral criteria must project to an empty fragment, got %v", fragment)
	}
	if c.ActiveCount() != 0 {
		t.Fatalf("neutral criteria active count: got %d", c.ActiveCount())
	}
}

func TestFragmentOmitsEveryNeutralField(t *testing.T) {
	// Exercise each dimension in isolation and confirm only that key appears.
	cases := []struct {
		name    string
		partial Partial
		wantKey string
	}{
		{"min price", Partial{MinPrice: intPtr(50)}, "minPrice"},
		{"max price", Partial{MaxPrice: intPtr(300)}, "maxPrice"},
		{"rating", Partial{MinRating: strPtr("4")}, "minRating"},
		{"event types", Partial{EventTypes: setPtr(3, 1)}, "eventTypes"},
		{"cultures", Partial{Cultures: setPtr(7)}, "cultures"},
		{"subcategories", Partial{Subcategories: setPtr(12)}, "subcategories"},
		{"features", Partial{Features: setPtr(9, 4)}, "features"},
		{"experience", Partial{ExperienceRange: strPtr("6-10")}, "experienceRange"},
		{"service location", Partial{ServiceLocation: strPtr("at_client")}, "serviceLocation"},
		{"instant booking", Partial{InstantBookingOnly: boolPtr(true)}, "instantBookingOnly"},
		{"external reviews", Partial{HasExternalReviews: boolPtr(true)}, "hasExternalReviews"},
		{"fresh listings", Partial{FreshListingsOnly: boolPtr(true)}, "freshListingsDays"},
		{"review count", Partial{MinReviewCount: intPtr(5)}, "minReviewCount"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			c.Merge(tc.partial)
			fragment := c.ToQueryFragment()
			if len(fragment) != 1 {
				t.Fatalf("expected exactly one key, got %v", fragment)
			}
			if _, ok := fragment[tc.wantKey]; !ok {
				t.Fatalf("expected key %q, got %v", tc.wantKey, fragment)
			}
			if c.ActiveCount() != 1 {
				t.Fatalf("active count: got %d, want 1", c.ActiveCount())
			}
		})
	}
}

func TestMultiSelectCountsOnce(t *testing.T) {
	c := New()
	c.Merge(Partial{EventTypes: setPtr(1, 2, 3, 4, 5)})
	if c.ActiveCount() != 1 {
		t.Fatalf("five selections in one dimension must count once, got %d", c.ActiveCount())
	}
}

func TestMergeNormalizesIDSets(t *testing.T) {
	c := New()
	c.Merge(Partial{Features: setPtr(5, 1, 5, 3, 1)})
	if !reflect.DeepEqual(c.Features, []int{1, 3, 5}) {
		t.Fatalf("expected deduplicated sorted set, got %v", c.Features)
	}
}

func TestMergeClampsPriceRange(t *testing.T) {
	c := New()
	c.Merge(Partial{MinPrice: intPtr(-100), MaxPrice: intPtr(99999)})
	if c.MinPrice != PriceFloor {
		t.Errorf("min price: got %d, want %d", c.MinPrice, PriceFloor)
	}
	if c.MaxPrice != PriceCeil {
		t.Errorf("max price: got %d, want %d", c.MaxPrice, PriceCeil)
	}
	// Clamped back to bounds means neutral again.
	if len(c.ToQueryFragment()) != 0 {
		t.Errorf("clamped-to-bounds range should be neutral, got %v", c.ToQueryFragment())
	}
}

func TestMergeLeavesUntouchedFieldsAlone(t *testing.T) {
	c := New()
	c.Merge(Partial{MinRating: strPtr("4.5"), InstantBookingOnly: boolPtr(true)})
	c.Merge(Partial{MinPrice: intPtr(100)})

	if c.MinRating != "4.5" || !c.InstantBookingOnly {
		t.Fatalf("previous edits lost: %+v", c)
	}
}

func TestClearIsAllOrNothing(t *testing.T) {
	c := New()
	c.Merge(Partial{
		MinPrice:           intPtr(50),
		MaxPrice:           intPtr(300),
		MinRating:          strPtr("4"),
		EventTypes:         setPtr(1, 2),
		InstantBookingOnly: boolPtr(true),
		FreshListingsOnly:  boolPtr(true),
	})
	if c.ActiveCount() == 0 {
		t.Fatal("setup: expected active filters")
	}

	c.Clear()
	if c.ActiveCount() != 0 {
		t.Fatalf("after clear: active count %d", c.ActiveCount())
	}
	if len(c.ToQueryFragment()) != 0 {
		t.Fatalf("after clear: fragment %v", c.ToQueryFragment())
	}
}

func TestFreshListingsProjectsWindowDays(t *testing.T) {
	c := New()
	c.Merge(Partial{FreshListingsOnly: boolPtr(true)})
	fragment := c.ToQueryFragment()
	if fragment["freshListingsDays"] != FreshListingsWindowDays {
		t.Fatalf("expected freshListingsDays=%d, got %v", FreshListingsWindowDays, fragment)
	}
}
