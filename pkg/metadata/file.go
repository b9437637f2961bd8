package metadata

import (
	"fmt"

	"github.com/fulmenhq/plimage/pkg/safeio"
)

// DefaultFileName is the metadata file stored in every question folder.
const DefaultFileName = "info.json"

// Load reads and parses the metadata file at path. The file must live
// under root.
func Load(root, path string) (*Record, error) {
	data, err := safeio.ReadFileContained(root, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rec, nil
}

// Save writes rec back to path using indent, keeping the existing file mode.
func Save(path string, rec *Record, indent string) error {
	data, err := rec.Encode(indent)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := safeio.WriteFilePreservePerms(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
