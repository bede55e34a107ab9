package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "thetowers/server"

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// layerRule forbids packages under Package from importing any of Forbidden.
// The combat core must stay usable without the match session or any outer
// surface.
type layerRule struct {
	Package   string
	Forbidden []string
}

var rules = []layerRule{
	{Package: "internal/ledger", Forbidden: []string{"internal/combat", "internal/match", "internal/net", "internal/app"}},
	{Package: "internal/equipment", Forbidden: []string{"internal/combat", "internal/match", "internal/net", "internal/app"}},
	{Package: "internal/combat", Forbidden: []string{"internal/match", "internal/net", "internal/app", "internal/config"}},
	{Package: "internal/match", Forbidden: []string{"internal/net", "internal/app", "internal/config"}},
	{Package: "logging", Forbidden: []string{"internal/"}},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	violations, err := check(bytes.NewReader(output), rules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

// check decodes a `go list -json` stream and reports every import that breaks
// a rule, sorted.
func check(r io.Reader, rules []layerRule) ([]string, error) {
	decoder := json.NewDecoder(r)

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode package info: %w", err)
		}

		rel, ok := strings.CutPrefix(pkg.ImportPath, modulePath+"/")
		if !ok {
			continue
		}
		for _, rule := range rules {
			if rel != rule.Package && !strings.HasPrefix(rel, rule.Package+"/") {
				continue
			}
			for _, imp := range pkg.Imports {
				target, ok := strings.CutPrefix(imp, modulePath+"/")
				if !ok {
					continue
				}
				for _, forbidden := range rule.Forbidden {
					if target == forbidden || strings.HasPrefix(target, strings.TrimSuffix(forbidden, "/")+"/") {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}

	sort.Strings(violations)
	return violations, nil
}
