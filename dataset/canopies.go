package dataset

import (
	"os"
	"path/filepath"

	"github.com/teranos/canopy/canopy"
	"github.com/teranos/canopy/codec"
	"github.com/teranos/canopy/errors"
)

// WriteCanopies writes one partition of canopies in codec format
func WriteCanopies(dir string, partition int, canopies []canopy.Canopy) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	path := filepath.Join(dir, PartName(partition))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	enc := codec.NewEncoder(f)
	for i := range canopies {
		if err := enc.Encode(canopies[i].Record()); err != nil {
			return errors.Wrapf(err, "failed to encode canopy into %s", path)
		}
	}
	if err := enc.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}

// WriteCanopyPartitions writes every partition, including empty ones
func WriteCanopyPartitions(dir string, parts [][]canopy.Canopy) error {
	for i, part := range parts {
		if err := WriteCanopies(dir, i, part); err != nil {
			return err
		}
	}
	return nil
}

// ReadCanopyPartitions reads each part file as one partition
func ReadCanopyPartitions(dir string) ([][]canopy.Canopy, error) {
	if err := RequireDir(dir); err != nil {
		return nil, err
	}
	files, err := partFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(errors.ErrNoClusters, "no part files in %s", dir)
	}

	parts := make([][]canopy.Canopy, 0, len(files))
	for _, path := range files {
		part, err := readCanopyFile(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// ReadCanopies reads all canopies of a directory in part order
func ReadCanopies(dir string) ([]canopy.Canopy, error) {
	parts, err := ReadCanopyPartitions(dir)
	if err != nil {
		return nil, err
	}
	var out []canopy.Canopy
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func readCanopyFile(path string) ([]canopy.Canopy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	records, err := codec.NewDecoder(f).DecodeAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	out := make([]canopy.Canopy, 0, len(records))
	for _, rec := range records {
		c, err := canopy.FromRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", path)
		}
		out = append(out, c)
	}
	return out, nil
}
