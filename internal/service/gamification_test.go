package service

import "testing"

func TestTrustScore(t *testing.T) {
	tests := []struct {
		name         string
		deals        int
		avgRating    float64
		responseRate float64
		reports      int
		want         int
	}{
		{"new user", 0, 0, 0, 0, 0},
		{"a few good deals", 5, 4.5, 80, 0, 84},
		{"perfect record caps at 100", 20, 5.0, 100, 0, 100},
		{"reports drag the score down", 5, 4.5, 80, 3, 39},
		{"heavily reported floors at zero", 1, 2.0, 10, 10, 0},
		{"rating only", 0, 4.0, 0, 0, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrustScore(tt.deals, tt.avgRating, tt.responseRate, tt.reports)
			if got != tt.want {
				t.Fatalf("TrustScore(%d, %.1f, %.1f, %d) = %d, want %d",
					tt.deals, tt.avgRating, tt.responseRate, tt.reports, got, tt.want)
			}
		})
	}
}
