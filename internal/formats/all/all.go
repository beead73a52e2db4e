// Package all registers every built-in format.
package all

import (
	_ "github.com/xtxerr/swath/internal/formats/generic"
	_ "github.com/xtxerr/swath/internal/formats/pbswath"
	_ "github.com/xtxerr/swath/internal/formats/sb16"
)
