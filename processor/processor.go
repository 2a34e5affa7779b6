package processor

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/workerpool"
)

var constructors = map[string]func(*slog.Logger) (workerpool.Processor, error){
	"formatter": func(logger *slog.Logger) (workerpool.Processor, error) {
		return NewFormatter(logger), nil
	},
	"highlighter": func(logger *slog.Logger) (workerpool.Processor, error) {
		return NewHighlighter(Keywords, logger)
	},
	"checksum": func(logger *slog.Logger) (workerpool.Processor, error) {
		return &ChecksumVerifier{Logger: logger}, nil
	},
}

// Names returns the processor names accepted by ByName, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named processor.
func ByName(name string, logger *slog.Logger) (workerpool.Processor, error) {
	build, ok := constructors[name]
	if !ok {
		return nil, apperr.Validation("select processor", "", fmt.Errorf("unknown processor %q (available: %v)", name, Names()))
	}
	return build(logger)
}
