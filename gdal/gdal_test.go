package gdal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/museotools/rastermath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

func TestDriverRoundTrip(t *testing.T) {
	tmpdir := t.TempDir()
	fname := filepath.Join(tmpdir, "out.tif")

	out, err := Driver{}.Create(fname, 16, 8, 2, rastermath.Int16)
	require.NoError(t, err)
	gt := [6]float64{100, 10, 0, 200, 0, -10}
	require.NoError(t, out.SetGeoTransform(gt))
	require.NoError(t, out.SetNoData(-9999))

	w := rastermath.Window{X0: 2, Y0: 1, W: 2, H: 2}
	require.NoError(t, out.WriteBand(1, w, []float64{1, 2, 3, 4}))
	require.NoError(t, out.Close())

	ds, err := Open(fname)
	require.NoError(t, err)
	defer ds.Close()
	st := ds.Structure()
	assert.Equal(t, 16, st.SizeX)
	assert.Equal(t, 8, st.SizeY)
	assert.Equal(t, 2, st.NBands)
	assert.Equal(t, rastermath.Int16, st.DataType)
	assert.Equal(t, gt, ds.GeoTransform())
	nd, ok := ds.NoData()
	assert.True(t, ok)
	assert.Equal(t, -9999.0, nd)

	buf := make([]float64, 4)
	require.NoError(t, ds.ReadBand(1, w, buf))
	assert.Equal(t, []float64{1, 2, 3, 4}, buf)
}

func TestOpenFailure(t *testing.T) {
	_, err := Open("/this/path/does/not/exist.tif")
	require.Error(t, err)
	var oe *rastermath.OpenError
	assert.ErrorAs(t, err, &oe)
}

func testVector(t *testing.T, dir string) string {
	t.Helper()
	f := filepath.Join(dir, "roi.geojson")
	gj := `{"type":"FeatureCollection","features":[{"type":"Feature",
"properties":{"class":3},
"geometry":{"type":"Polygon","coordinates":[[[2,5],[6,5],[6,9],[2,9],[2,5]]]}}]}`
	require.NoError(t, os.WriteFile(f, []byte(gj), 0644))
	return f
}

func testRaster(t *testing.T, dir string) string {
	t.Helper()
	fname := filepath.Join(dir, "in.tif")
	ds, err := godal.Create(godal.GTiff, fname, 1, godal.Byte, 10, 10)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64{0, 1, 0, 10, 0, -1}))
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i%100 + 1)
	}
	require.NoError(t, ds.Bands()[0].Write(0, 0, data, 10, 10))
	require.NoError(t, ds.Close())
	return fname
}

func TestMaskFromVector(t *testing.T) {
	tmpdir := t.TempDir()
	raster := testRaster(t, tmpdir)
	vector := testVector(t, tmpdir)
	maskPath := filepath.Join(tmpdir, "mask.tif")

	require.NoError(t, MaskFromVector(vector, raster, maskPath, false))

	mask, err := Open(maskPath)
	require.NoError(t, err)
	defer mask.Close()
	st := mask.Structure()
	assert.Equal(t, 10, st.SizeX)
	assert.Equal(t, 10, st.SizeY)
	nd, ok := mask.NoData()
	assert.True(t, ok)
	assert.Equal(t, 0.0, nd)

	buf := make([]float64, 100)
	require.NoError(t, mask.ReadBand(0, rastermath.Window{X0: 0, Y0: 0, W: 10, H: 10}, buf))
	//pixel 3,2 lies well inside the polygon, 0,0 well outside
	assert.Equal(t, 1.0, buf[2*10+3])
	assert.Equal(t, 0.0, buf[0])
}

func TestSamplesFromVector(t *testing.T) {
	tmpdir := t.TempDir()
	raster := testRaster(t, tmpdir)
	vector := testVector(t, tmpdir)

	set, err := SamplesFromVector(raster, vector, []string{"class"})
	require.NoError(t, err)
	require.NotNil(t, set.X)
	assert.Greater(t, set.Len(), 0)
	require.Len(t, set.Labels, 1)
	for i := 0; i < set.Len(); i++ {
		assert.Equal(t, 3.0, set.Labels[0].AtVec(i))
	}
	//no temp rasters left behind
	matches, _ := filepath.Glob(filepath.Join(os.TempDir(), "*_roi.tif"))
	assert.Empty(t, matches)
}

func TestEngineOnGTiff(t *testing.T) {
	tmpdir := t.TempDir()
	fname := filepath.Join(tmpdir, "in.tif")
	outname := filepath.Join(tmpdir, "sub", "mean.tif")

	ds, err := godal.Create(godal.GTiff, fname, 1, godal.Float64, 4, 4)
	require.NoError(t, err)
	data := make([]float64, 16)
	for i := range data {
		data[i] = float64(i + 1)
	}
	data[5] = -9999
	require.NoError(t, ds.Bands()[0].Write(0, 0, data, 4, 4))
	require.NoError(t, ds.SetNoData(-9999))
	require.NoError(t, ds.Close())

	in, err := Open(fname)
	require.NoError(t, err)
	defer in.Close()

	eng, err := rastermath.New(in, Driver{})
	require.NoError(t, err)
	identity := func(x *mat.Dense, args rastermath.Args) (mat.Matrix, error) {
		return x, nil
	}
	require.NoError(t, eng.Register("identity", identity, outname,
		rastermath.Bands(1), rastermath.OutputType(rastermath.Float64)))
	require.NoError(t, eng.Run(context.Background()))

	out, err := Open(outname)
	require.NoError(t, err)
	defer out.Close()
	buf := make([]float64, 16)
	require.NoError(t, out.ReadBand(0, rastermath.Window{X0: 0, Y0: 0, W: 4, H: 4}, buf))
	assert.Equal(t, 1.0, buf[0])
	assert.Equal(t, -9999.0, buf[5])
	assert.Equal(t, 16.0, buf[15])
}
