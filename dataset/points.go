package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

// ReadPoints reads a text dataset: a single file or every data file of a
// directory, in name order.
func ReadPoints(path string) ([]sequence.Point, error) {
	files, err := dataFiles(path)
	if err != nil {
		return nil, err
	}

	var points []sequence.Point
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", file)
		}
		got, err := sequence.NewReader(f, file).ReadAll()
		f.Close()
		if err != nil {
			return nil, err
		}
		points = append(points, got...)
	}
	return points, nil
}

// Label pairs a canopy id with the key of a point that belongs to it
type Label struct {
	CanopyID int32
	Key      string
}

// WriteLabels writes one partition of "canopyID<TAB>key" lines
func WriteLabels(dir string, partition int, labels []Label) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	path := filepath.Join(dir, PartName(partition))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, l := range labels {
		fmt.Fprintf(w, "%d\t%s\n", l.CanopyID, l.Key)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
