package meta

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// ExtractArtwork reads path's embedded picture, if any.
func ExtractArtwork(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	pic := md.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, fmt.Errorf("meta: no embedded artwork in %s", path)
	}
	return pic.Data, nil
}
