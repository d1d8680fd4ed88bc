package wallfield

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/arena/internal/dynamo"
)

// Layer file names inside a field directory.
const (
	DistFile    = "walldist.csv"
	NormalXFile = "wnormx.csv"
	NormalYFile = "wnormy.csv"
	BoundsFile  = "bounds.csv"
)

// LoadCSV reads a field produced by an external map pipeline. Distances are
// divided by mapScale. Without a bounds file the domain is
// [0, width/mapScale] x [0, height/mapScale]. Normals are renormalised.
func LoadCSV(dir string, mapScale float64) (*Field, error) {
	if !(mapScale > 0) {
		return nil, fmt.Errorf("map scale %v: %w", mapScale, dynamo.ErrInvalidField)
	}

	dist, w, h, err := readLayer(filepath.Join(dir, DistFile))
	if err != nil {
		return nil, err
	}
	nx, wx, hx, err := readLayer(filepath.Join(dir, NormalXFile))
	if err != nil {
		return nil, err
	}
	ny, wy, hy, err := readLayer(filepath.Join(dir, NormalYFile))
	if err != nil {
		return nil, err
	}
	if wx != w || wy != w || hx != h || hy != h {
		return nil, fmt.Errorf("layer shapes %dx%d, %dx%d, %dx%d differ: %w", w, h, wx, hx, wy, hy, dynamo.ErrInvalidField)
	}

	for k := range dist {
		dist[k] /= mapScale
		norm := math.Hypot(nx[k], ny[k]) + 1e-5
		nx[k] /= norm
		ny[k] /= norm
	}

	bounds := Bounds{XMax: float64(w) / mapScale, YMax: float64(h) / mapScale}
	vals, _, _, err := readLayer(filepath.Join(dir, BoundsFile))
	switch {
	case err == nil:
		if len(vals) != 4 {
			return nil, fmt.Errorf("%s: want 4 values, got %d: %w", BoundsFile, len(vals), dynamo.ErrInvalidField)
		}
		bounds = Bounds{XMin: vals[0], XMax: vals[1], YMin: vals[2], YMax: vals[3]}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	return New(bounds, w, h, dist, nx, ny)
}

// SaveCSV writes the field as layer files LoadCSV reads back with mapScale 1.
func SaveCSV(dir string, f *Field) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	layers := map[string][]float64{DistFile: f.dist, NormalXFile: f.nx, NormalYFile: f.ny}
	for name, layer := range layers {
		if err := writeLayer(filepath.Join(dir, name), layer, f.width, f.height); err != nil {
			return err
		}
	}
	b := f.bounds
	return writeLayer(filepath.Join(dir, BoundsFile), []float64{b.XMin, b.XMax, b.YMin, b.YMax}, 4, 1)
}

func readLayer(path string) ([]float64, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, 0, 0, fmt.Errorf("%s: empty layer: %w", path, dynamo.ErrInvalidField)
	}

	width := len(records[0])
	values := make([]float64, 0, width*len(records))
	for row, record := range records {
		for col, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("%s row %d col %d: %w", path, row, col, err)
			}
			values = append(values, v)
		}
	}
	return values, width, len(records), nil
}

func writeLayer(path string, values []float64, width, height int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	row := make([]string, width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			row[c] = strconv.FormatFloat(values[r*width+c], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
