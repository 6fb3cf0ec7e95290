package collection

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aaronbannin/vectordb/internal/vdberrors"
)

// sidecarName is the one file in a collection's directory that is not a
// record: it records the dimension established by the first chunk ever
// inserted, so restarting a process doesn't need a populated index (or a
// rebuild) just to reject a dimension mismatch.
const sidecarName = ".collection.json"

type sidecar struct {
	Dimension int `json:"dimension"`
}

func readSidecar(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, sidecarName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, vdberrors.StorageIO("read collection sidecar", err)
	}
	var s sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, vdberrors.StorageIO("unmarshal collection sidecar", err)
	}
	return s.Dimension, nil
}

func writeSidecar(dir string, dimension int) error {
	data, err := json.Marshal(sidecar{Dimension: dimension})
	if err != nil {
		return vdberrors.StorageIO("marshal collection sidecar", err)
	}
	final := filepath.Join(dir, sidecarName)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return vdberrors.StorageIO("write collection sidecar", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return vdberrors.StorageIO("rename collection sidecar into place", err)
	}
	return nil
}
