package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/fileinfo"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// ChecksumVerifier checks that a file on disk still matches its registered checksum.
type ChecksumVerifier struct {
	Logger *slog.Logger
}

// Name implements workerpool.Processor.
func (v *ChecksumVerifier) Name() string { return "checksum" }

// Process implements workerpool.Processor. A file whose content changed since
// it was registered fails with a conflict error.
func (v *ChecksumVerifier) Process(_ context.Context, record registry.FileRecord) error {
	sum, err := fileinfo.Checksum(record.Path)
	if err != nil {
		return apperr.IO("verify checksum", record.Path, err)
	}
	if sum != record.Checksum {
		v.Logger.Info("checksum drift", "path", record.Path, "registered", record.Checksum, "actual", sum)
		return apperr.Conflict("verify checksum", record.Path,
			fmt.Errorf("content changed since registration"))
	}
	return nil
}
