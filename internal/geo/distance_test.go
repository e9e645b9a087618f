package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	t.Run("zero for identical points", func(t *testing.T) {
		t.Parallel()

		p := Point{Latitude: 37.5, Longitude: 127.0}
		if d := Distance(p, p); d != 0 {
			t.Fatalf("expected 0, got %f", d)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()

		a := Point{Latitude: 37.5665, Longitude: 126.9780}
		b := Point{Latitude: 37.5172, Longitude: 127.0473}
		if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
			t.Fatalf("expected symmetric distance, got %f and %f", d1, d2)
		}
	})

	t.Run("accurate at geofence scale", func(t *testing.T) {
		t.Parallel()

		// One arc second of latitude is roughly 30.87 m on a sphere of
		// radius 6371 km.
		a := Point{Latitude: 37.5, Longitude: 127.0}
		b := Point{Latitude: 37.5 + 1.0/3600.0, Longitude: 127.0}
		d := Distance(a, b)
		if math.Abs(d-30.87) > 0.05 {
			t.Fatalf("expected ~30.87m, got %f", d)
		}
	})

	t.Run("known city pair", func(t *testing.T) {
		t.Parallel()

		// Seoul City Hall to Busan City Hall is about 325 km.
		seoul := Point{Latitude: 37.5665, Longitude: 126.9780}
		busan := Point{Latitude: 35.1796, Longitude: 129.0756}
		d := Distance(seoul, busan)
		if d < 320000 || d > 330000 {
			t.Fatalf("expected ~325km, got %f", d)
		}
	})
}

func TestPointValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		point Point
		want  bool
	}{
		{"seoul", Point{Latitude: 37.5, Longitude: 127.0}, true},
		{"latitude out of range", Point{Latitude: 91, Longitude: 0}, false},
		{"longitude out of range", Point{Latitude: 0, Longitude: -181}, false},
		{"poles", Point{Latitude: -90, Longitude: 180}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.point.Valid(); got != tc.want {
				t.Fatalf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}
