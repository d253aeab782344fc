package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExt lists the image extensions picked up from a directory.
// Matching ignores case so CARD.JPG qualifies.
var supportedExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// IsSupported reports whether name is a card image the batch should read.
func IsSupported(name string) bool {
	// skip preprocessing artifacts to avoid recursive processing; report
	// temp files end in .tmp and fail the extension check below
	if strings.Contains(name, ".ocr.") {
		return false
	}
	_, ok := supportedExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MimeFromExt returns the content type for a supported file name, or "".
func MimeFromExt(name string) string {
	return supportedExt[strings.ToLower(filepath.Ext(name))]
}

// ListImageFiles returns the sorted names of supported regular files in dir.
// Names in skip (e.g. the report itself) are left out.
func ListImageFiles(dir string, skip ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadDir, dir, err)
	}
	ignored := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		ignored[s] = struct{}{}
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		name := e.Name()
		if _, ok := ignored[name]; ok || !IsSupported(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
