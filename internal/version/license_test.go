// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package version

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var licenseHeaders = []string{
	"// SPDX-License-Identifier: MIT\n\n",
	"// Copyright (c) 2025 ManuGH\n" +
		"// Licensed under the PolyForm Noncommercial License 1.0.0\n" +
		"// Since v2.0.0, this software is restricted to non-commercial use only.\n\n",
}

func TestSourceFilesCarryLicenseHeader(t *testing.T) {
	repoRoot := filepath.Join("..", "..")
	var missing []string
	for _, root := range []string{"cmd", "internal"} {
		err := filepath.WalkDir(filepath.Join(repoRoot, root), func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			for _, h := range licenseHeaders {
				if strings.HasPrefix(string(src), h) {
					return nil
				}
			}
			missing = append(missing, path)
			return nil
		})
		require.NoError(t, err)
	}
	assert.Empty(t, missing, "files without a complete license header")
}
