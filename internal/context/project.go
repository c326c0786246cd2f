package context

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectInfo is the project analyzer's result, per §4.4.
type ProjectInfo struct {
	PrimaryType     string
	AdditionalTypes []string
}

// markerRule pairs a marker file glob with the project type it implies.
// Declaration order is the primary-type precedence order from §4.4.
type markerRule struct {
	projectType string
	glob        string
}

var markerRules = []markerRule{
	{"Rust", "Cargo.toml"},
	{"Node.js", "package.json"},
	{"Python", "pyproject.toml"},
	{"Python", "requirements.txt"},
	{"Python", "setup.py"},
	{"Python", "Pipfile"},
	{"Go", "go.mod"},
	{"Docker", "Dockerfile"},
	{"Docker", "docker-compose.yml"},
	{"Terraform", "*.tf"},
	{"Kubernetes", "*.yaml"},
	{"Kubernetes", "*.yml"},
}

// analyzeProject detects the project type(s) present in cwd by marker file,
// per §4.4. Errors reading the directory degrade to an empty result with a
// warning rather than failing the whole build.
func analyzeProject(cwd string) (ProjectInfo, string) {
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return ProjectInfo{}, "project analyzer: " + err.Error()
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}

	seen := make(map[string]bool)
	var types []string
	addType := func(t string) {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	for _, rule := range markerRules {
		if strings.ContainsAny(rule.glob, "*?[") {
			if matchAny(cwd, names, rule.glob) {
				if rule.projectType == "Kubernetes" && !anyLooksLikeKubernetesManifest(cwd, names, rule.glob) {
					continue
				}
				addType(rule.projectType)
			}
			continue
		}
		if names[rule.glob] {
			addType(rule.projectType)
		}
	}

	if names["package.json"] {
		addNodeSubtype(cwd, addType)
	}

	if len(types) == 0 {
		return ProjectInfo{}, ""
	}

	info := ProjectInfo{PrimaryType: types[0]}
	if len(types) > 1 {
		info.AdditionalTypes = types[1:]
	}
	return info, ""
}

// matchAny reports whether any directory entry matches glob.
func matchAny(cwd string, names map[string]bool, glob string) bool {
	for name := range names {
		if ok, _ := filepath.Match(glob, name); ok {
			return true
		}
	}
	return false
}

// anyLooksLikeKubernetesManifest narrows a *.yaml/*.yml match down to files
// that actually contain both `kind:` and `apiVersion:`, per §4.4.
func anyLooksLikeKubernetesManifest(cwd string, names map[string]bool, glob string) bool {
	for name := range names {
		if ok, _ := filepath.Match(glob, name); !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(cwd, name))
		if err != nil {
			continue
		}
		content := string(data)
		if strings.Contains(content, "kind:") && strings.Contains(content, "apiVersion:") {
			return true
		}
	}
	return false
}

// addNodeSubtype inspects package.json's dependencies for Next.js/React to
// refine the Node.js marker, per §4.4.
func addNodeSubtype(cwd string, addType func(string)) {
	data, err := os.ReadFile(filepath.Join(cwd, "package.json"))
	if err != nil {
		return
	}
	content := string(data)
	if strings.Contains(content, `"next"`) {
		addType("Next.js")
	} else if strings.Contains(content, `"react"`) {
		addType("React")
	}
}
