package taxonomy

import (
	"bytes"
	_ "embed"
)

// The bundled dataset keeps the service usable when the primary source is
// unreachable. It is the IAB content taxonomy TSV shipped with the binary.
//
//go:embed data/iab_taxonomy_fallback.tsv
var fallbackTSV []byte

func loadFallback() ([]Entry, error) {
	return ParseTSV(bytes.NewReader(fallbackTSV))
}
