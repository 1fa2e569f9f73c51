// SPDX-License-Identifier: MPL-2.0

package charm

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmpack/charmpack/internal/manifest"
)

// Analysis attribute names and results recorded in the manifest.
const (
	AttributeLanguage  = "language"
	AttributeFramework = "framework"

	ResultPython    = "python"
	ResultOperator  = "operator"
	ResultUnknown   = "unknown"
	operatorPackage = "ops"
)

// analyze inspects the normalized inputs and returns the manifest attributes.
func analyze(args NormalizedArgs) []manifest.Attribute {
	language := ResultUnknown
	if strings.EqualFold(filepath.Ext(args.Entrypoint), ".py") {
		language = ResultPython
	}

	framework := ResultUnknown
	for _, req := range args.Requirements {
		if requiresPackage(req, operatorPackage) {
			framework = ResultOperator
			break
		}
	}

	return []manifest.Attribute{
		{Name: AttributeLanguage, Result: language},
		{Name: AttributeFramework, Result: framework},
	}
}

// requiresPackage reports whether the requirements file at path lists pkg.
func requiresPackage(path, pkg string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := strings.FieldsFunc(line, func(r rune) bool {
			return strings.ContainsRune("=<>~!;[ ", r)
		})
		if len(name) > 0 && strings.EqualFold(name[0], pkg) {
			return true
		}
	}
	return false
}
