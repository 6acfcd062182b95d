package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroids_StateNameMapsToStateEntry(t *testing.T) {
	c := NewCentroids()

	byName, ok := c.Lookup("IN", "Karnataka")
	require.True(t, ok)
	byCode, ok := c.Lookup("IN", "KA")
	require.True(t, ok)
	country, ok := c.Lookup("IN", "")
	require.True(t, ok)

	assert.Equal(t, byCode, byName, "full state name must hit the same entry as the postal code")
	assert.NotEqual(t, country, byName, "Karnataka listing must get the state centroid, not India's")
	assert.Equal(t, Point{Lat: 15.3173, Lng: 75.7139}, byName)
}

func TestCentroids_USStateNames(t *testing.T) {
	c := NewCentroids()

	texas, ok := c.Lookup("US", "Texas")
	require.True(t, ok)
	assert.Equal(t, Point{Lat: 31.0545, Lng: -97.5635}, texas)

	nc, ok := c.Lookup("us", "north carolina")
	require.True(t, ok)
	assert.Equal(t, Point{Lat: 35.6301, Lng: -79.8064}, nc)
}

func TestCentroids_UnknownStateFallsBackToCountry(t *testing.T) {
	c := NewCentroids()

	got, ok := c.Lookup("IN", "Sikkim")
	require.True(t, ok)
	country, _ := c.Lookup("IN", "")
	assert.Equal(t, country, got)
}

func TestCentroids_UnknownCountryMisses(t *testing.T) {
	c := NewCentroids()

	_, ok := c.Lookup("ZZ", "Anything")
	assert.False(t, ok)
	_, ok = c.Lookup("", "Texas")
	assert.False(t, ok)
}
