package stats_test

import (
	"encoding/json"
	"rental-location/internal/models"
	"rental-location/internal/stats"
	"rental-location/internal/zones"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoZoneTopology() *zones.Topology {
	return zones.MustTopology([]zones.ZoneEntry{
		{ID: "1", Building: "101동", Position: zones.Position{X: 18, Y: 25}},
		{ID: "2", Building: "101-102동 사이", Position: zones.Position{X: 35, Y: 20}},
	})
}

func TestProjectMarkersScenario(t *testing.T) {
	topo := twoZoneTopology()
	daily := stats.ComputeStats([]models.RentalLog{rentalLog("다원건설", "1", 5)})

	markers := stats.ProjectMarkers(topo, daily.ByZone)

	require.Len(t, markers, 2)
	assert.Equal(t, "1", markers[0].ZoneID)
	assert.Equal(t, 1, markers[0].Count)
	assert.Equal(t, stats.StateHasWork, markers[0].State)
	assert.Equal(t, zones.Position{X: 18, Y: 25}, markers[0].Position)
	assert.Equal(t, []string{"다원건설"}, markers[0].Companies)

	assert.Equal(t, "2", markers[1].ZoneID)
	assert.Equal(t, 0, markers[1].Count)
	assert.Equal(t, stats.StateNoWork, markers[1].State)
	assert.NotNil(t, markers[1].Companies)
	assert.Empty(t, markers[1].Companies)
}

func TestProjectMarkersOnePerTopologyZone(t *testing.T) {
	topo := zones.DefaultTopology()

	// zone "99" is not in the topology and must not produce a marker
	daily := stats.ComputeStats([]models.RentalLog{
		rentalLog("A", "12", 1),
		rentalLog("A", "99", 1),
		rentalLog("B", "3", 2),
	})

	markers := stats.ProjectMarkers(topo, daily.ByZone)

	require.Len(t, markers, topo.Len())
	for i, id := range topo.Keys() {
		assert.Equal(t, id, markers[i].ZoneID)
	}
	assert.Equal(t, 1, markers[11].Count)
	assert.Equal(t, stats.StateHasWork, markers[2].State)

	empty := stats.ProjectMarkers(topo, nil)
	assert.Len(t, empty, topo.Len())
	for _, m := range empty {
		assert.Equal(t, stats.StateNoWork, m.State)
	}
}

func TestProjectMarkersZeroCountEntryIsNoWork(t *testing.T) {
	markers := stats.ProjectMarkers(twoZoneTopology(), map[string]stats.ZoneStats{
		"1": {Count: 0, Companies: nil},
	})

	assert.Equal(t, stats.StateNoWork, markers[0].State)
	assert.NotNil(t, markers[0].Companies)
}

func TestLegendRows(t *testing.T) {
	topo := twoZoneTopology()
	daily := stats.ComputeStats([]models.RentalLog{
		rentalLog("B", "2", 1),
		rentalLog("A", "2", 1),
	})

	rows := stats.LegendRows(topo, daily.ByZone)

	require.Len(t, rows, 2)
	assert.Equal(t, stats.LegendRow{ZoneID: "1", Building: "101동", Count: 0, Companies: []string{}}, rows[0])
	assert.Equal(t, stats.LegendRow{ZoneID: "2", Building: "101-102동 사이", Count: 2, Companies: []string{"A", "B"}}, rows[1])
}

func TestBuildMapViewAppliesCompanyFilter(t *testing.T) {
	topo := twoZoneTopology()
	daily := stats.ComputeStats([]models.RentalLog{
		rentalLog("A", "1", 3),
		rentalLog("B", "2", 4),
	})

	view := stats.BuildMapView(topo, "2024-01-01", daily, "B")

	assert.Equal(t, "2024-01-01", view.WorkDate)
	assert.Equal(t, "B", view.Company)
	assert.Equal(t, stats.StateNoWork, view.Markers[0].State)
	assert.Equal(t, stats.StateHasWork, view.Markers[1].State)
	assert.Equal(t, 0, view.Legend[0].Count)
	assert.Equal(t, 1, view.Legend[1].Count)
}

func TestMarkerText(t *testing.T) {
	m := stats.Marker{ZoneID: "3", Count: 2, RentalUnits: 1500, Companies: []string{"A", "B"}}
	assert.Equal(t, "2", m.Badge())
	assert.Equal(t, "ZONE 3: 2건", m.Title())
	assert.Equal(t, "ZONE 3: 2건, 1,500개 (A, B)", m.Summary())

	empty := stats.Marker{ZoneID: "4", Companies: []string{}}
	assert.Equal(t, "", empty.Badge())
	assert.Equal(t, "ZONE 4: 0건, 0개 (작업 없음)", empty.Summary())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", stats.FormatNumber(0))
	assert.Equal(t, "999", stats.FormatNumber(999))
	assert.Equal(t, "1,000", stats.FormatNumber(1000))
	assert.Equal(t, "1,234,567", stats.FormatNumber(1234567))
	assert.Equal(t, "-12,000", stats.FormatNumber(-12000))
}

func TestMarkerJSONCarriesRenderedText(t *testing.T) {
	m := stats.Marker{ZoneID: "3", Count: 2, RentalUnits: 1500, State: stats.StateHasWork, Companies: []string{"A", "B"}}

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "3", out["zone"])
	assert.Equal(t, "has-work", out["state"])
	assert.Equal(t, "2", out["badge"])
	assert.Equal(t, "ZONE 3: 2건", out["title"])
	assert.Equal(t, "ZONE 3: 2건, 1,500개 (A, B)", out["summary"])

	var back stats.Marker
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, m, back)
}
