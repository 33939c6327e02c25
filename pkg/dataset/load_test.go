package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ListwiseDeletion(t *testing.T) {
	csv := strings.Join([]string{
		"A1,A2,C1",
		"1,2,3",
		"4,NA,6",
		"7,8,9",
		",2,3",
		"2,3,4",
	}, "\n")

	ds, report, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 5, report.RowsRead)
	assert.Equal(t, 3, report.RowsKept)
	assert.Equal(t, 2, report.RowsDropped)
	assert.Equal(t, 3, report.Columns)
	assert.Empty(t, report.ZeroVarianceItems)

	require.Equal(t, 3, ds.N())
	require.Equal(t, 3, ds.P())
	assert.Equal(t, []string{"A1", "A2", "C1"}, ds.Items())
	assert.Equal(t, []string{"Agreeableness", "Agreeableness", "Conscientiousness"}, ds.Groups())
	assert.Equal(t, []float64{1, 7, 2}, ds.Column(0))
}

func TestLoad_AllMissingColumn(t *testing.T) {
	csv := strings.Join([]string{
		"A1,A2",
		"1,NA",
		"2,",
		"3,N/A",
	}, "\n")

	_, _, err := Load(strings.NewReader(csv))
	require.ErrorIs(t, err, ErrAllMissingColumn)
	assert.Contains(t, err.Error(), "A2")
}

func TestLoad_AllRowsDropped(t *testing.T) {
	csv := strings.Join([]string{
		"A1,A2",
		"1,NA",
		"NA,2",
	}, "\n")

	_, _, err := Load(strings.NewReader(csv))
	require.ErrorIs(t, err, ErrAllRowsDropped)
}

func TestLoad_UnparsableCell(t *testing.T) {
	csv := strings.Join([]string{
		"A1,A2",
		"1,often",
	}, "\n")

	_, _, err := Load(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A2")
	assert.Contains(t, err.Error(), "often")
}

func TestLoad_ReportsZeroVariance(t *testing.T) {
	csv := strings.Join([]string{
		"A1,A2",
		"3,1",
		"3,2",
		"3,5",
	}, "\n")

	_, report, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, report.ZeroVarianceItems)
}

func TestResample(t *testing.T) {
	csv := strings.Join([]string{
		"A1,A2",
		"1,10",
		"2,20",
		"3,30",
	}, "\n")
	ds, _, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	res, err := ds.Resample([]int{2, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, 3, res.N())
	assert.Equal(t, []float64{3, 3, 1}, res.Column(0))

	_, err = ds.Resample([]int{5})
	require.Error(t, err)
}

func TestFiveFactorCatalog(t *testing.T) {
	items := FiveFactorItems()
	require.Len(t, items, 25)
	assert.Equal(t, "A1", items[0])
	assert.Equal(t, "O5", items[24])

	model := FiveFactorModel()
	require.Len(t, model, 5)
	assert.Equal(t, []string{"N1", "N2", "N3", "N4", "N5"}, model["Neuroticism"])

	groups := FiveFactorGroups([]string{"E3", "X9", "N1"})
	assert.Equal(t, []string{"Extraversion", "", "Neuroticism"}, groups)
}
