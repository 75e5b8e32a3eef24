package loader

import (
	"bytes"
	_ "embed"

	"stock-screener/models"
)

//go:embed data/sample.json
var sampleJSON []byte

// Sample returns the built-in fifteen-stock universe. Each call returns a
// fresh copy.
func Sample() ([]models.Stock, error) {
	return ReadJSON(bytes.NewReader(sampleJSON))
}
