package mosqdb

import (
	"os"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/pkg/archive"
)

// ReadImage reads the persistence file at path into memory. A file wrapped in
// a snapshot archive is decompressed.
func ReadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if !archive.IsArchive(data) {
		return data, nil
	}
	data, err = archive.Unpack(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", path)
	}
	return data, nil
}

// ReadFile reads and decodes the persistence file at path.
func ReadFile(path string, opts ...Option) (*DB, error) {
	data, err := ReadImage(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, opts...)
}
