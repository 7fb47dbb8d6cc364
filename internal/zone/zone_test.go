package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestContainsInclusiveEdges(t *testing.T) {
	z := Zone{X1: 100, Y1: 100, X2: 400, Y2: 400}

	assert.True(t, z.Contains(250, 250), "interior point")
	assert.True(t, z.Contains(100, 250), "left edge")
	assert.True(t, z.Contains(400, 250), "right edge")
	assert.True(t, z.Contains(250, 100), "top edge")
	assert.True(t, z.Contains(250, 400), "bottom edge")
	assert.True(t, z.Contains(100, 100), "corner")
	assert.True(t, z.Contains(400, 400), "opposite corner")

	assert.False(t, z.Contains(99, 250))
	assert.False(t, z.Contains(401, 250))
	assert.False(t, z.Contains(250, 99))
	assert.False(t, z.Contains(250, 401))
}

func TestBreached(t *testing.T) {
	zones := []Zone{
		{X1: 0, Y1: 0, X2: 50, Y2: 50},
		{X1: 100, Y1: 100, X2: 400, Y2: 400},
		{X1: 500, Y1: 500, X2: 600, Y2: 600},
	}

	// Inside only the middle zone; ordering must not matter.
	assert.True(t, Breached(250, 250, zones))
	assert.True(t, Breached(250, 250, []Zone{zones[2], zones[1], zones[0]}))

	assert.False(t, Breached(75, 75, zones), "between zones")
	assert.False(t, Breached(700, 700, zones), "outside all zones")
	assert.False(t, Breached(250, 250, nil), "no zones configured")
}

func TestZoneString(t *testing.T) {
	z := Zone{X1: 100, Y1: 100, X2: 400, Y2: 400}
	assert.Equal(t, "(100, 100, 400, 400)", z.String())
}

func TestZoneUnmarshalYAML(t *testing.T) {
	var zones []Zone
	err := yaml.Unmarshal([]byte("- [100, 100, 400, 400]\n- [0, 10, 20, 30]\n"), &zones)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, Zone{X1: 100, Y1: 100, X2: 400, Y2: 400}, zones[0])
	assert.Equal(t, Zone{X1: 0, Y1: 10, X2: 20, Y2: 30}, zones[1])

	err = yaml.Unmarshal([]byte("- [100, 100]\n"), &zones)
	assert.Error(t, err)
}
