package report

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/nao1215/prism/internal/fsutil"
	"github.com/nao1215/prism/internal/model"
	"golang.org/x/crypto/blake2b"
)

// writeArtifact writes data atomically to path and describes the result.
func writeArtifact(format model.Format, path string, data []byte) (*model.Artifact, error) {
	if err := fsutil.WriteBytesAtomic(path, data, fsutil.FilePerm); err != nil {
		return nil, err
	}
	return describeArtifact(format, path)
}

// describeArtifact returns the size and BLAKE2b-256 digest of the file at path.
func describeArtifact(format model.Format, path string) (*model.Artifact, error) {
	f, err := os.Open(path) //nolint:gosec // Artifact path is built from the report root
	if err != nil {
		return nil, model.Wrap(model.ErrFilesystem, "open artifact", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, model.Wrap(model.ErrFilesystem, "create digest", err)
	}
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, model.Wrap(model.ErrFilesystem, "hash artifact", err)
	}

	return &model.Artifact{
		Format: format,
		Path:   path,
		Size:   size,
		Digest: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
