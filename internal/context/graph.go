// Package context assembles the context graph described in §4.4: a
// snapshot of the working directory's project type, git state, available
// infrastructure tooling, shell history patterns, and filtered environment,
// built under a deadline with independent per-analyzer degradation.
package context

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmdai/cmdai/internal/execctx"
)

// Options controls which analyzers run and the overall deadline.
type Options struct {
	EnableProject        bool
	EnableGit            bool
	EnableInfrastructure bool
	EnableHistory        bool
	TimeoutMS            int
}

// DefaultOptions enables every analyzer with the §4.4 default timeout.
func DefaultOptions() Options {
	return Options{
		EnableProject:        true,
		EnableGit:            true,
		EnableInfrastructure: true,
		EnableHistory:        true,
		TimeoutMS:            300,
	}
}

// Graph is the aggregated context, per §3.
type Graph struct {
	Project        ProjectInfo
	Git            GitInfo
	Infrastructure InfrastructureInfo
	History        HistoryInfo
	Environment    *execctx.Snapshot
	BuildTimeMS    int64
	Warnings       []string
}

// ErrTimeout is returned when Build's overall deadline expires.
var ErrTimeout = fmt.Errorf("context: build exceeded timeout")

// analyzerResult carries one concurrent analyzer's outcome back to Build.
type analyzerResult struct {
	name     string
	project  ProjectInfo
	git      GitInfo
	infra    InfrastructureInfo
	history  HistoryInfo
	warning  string
}

// Build assembles a Graph for cwd. The environment analyzer runs
// synchronously first (process-environment only, no I/O); project, git,
// infrastructure, and history run concurrently and independently. The whole
// operation is bounded by opts.TimeoutMS; a single analyzer's failure
// degrades to an empty result plus a warning rather than failing the build.
func Build(ctx context.Context, cwd string, opts Options) (*Graph, error) {
	start := time.Now()

	timeoutMS := opts.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = 300
	}
	deadline, cancel := context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	graph := &Graph{}

	env, err := execctx.Capture()
	if err != nil {
		return nil, fmt.Errorf("context: capture environment: %w", err)
	}
	graph.Environment = env

	type job struct {
		name string
		run  func() analyzerResult
	}

	var jobs []job
	if opts.EnableProject {
		jobs = append(jobs, job{"project", func() analyzerResult {
			info, warn := analyzeProject(cwd)
			return analyzerResult{name: "project", project: info, warning: warn}
		}})
	}
	if opts.EnableGit {
		jobs = append(jobs, job{"git", func() analyzerResult {
			info, warn := analyzeGit(cwd)
			return analyzerResult{name: "git", git: info, warning: warn}
		}})
	}
	if opts.EnableInfrastructure {
		jobs = append(jobs, job{"infrastructure", func() analyzerResult {
			info, warn := analyzeInfrastructure(deadline)
			return analyzerResult{name: "infrastructure", infra: info, warning: warn}
		}})
	}
	if opts.EnableHistory {
		jobs = append(jobs, job{"history", func() analyzerResult {
			info, warn := analyzeHistory()
			return analyzerResult{name: "history", history: info, warning: warn}
		}})
	}

	results := make(chan analyzerResult, len(jobs))
	for _, j := range jobs {
		go func(j job) {
			defer func() {
				if r := recover(); r != nil {
					results <- analyzerResult{name: j.name, warning: fmt.Sprintf("%s analyzer panicked: %v", j.name, r)}
				}
			}()
			results <- j.run()
		}(j)
	}

	collected := 0
	for collected < len(jobs) {
		select {
		case res := <-results:
			collected++
			applyResult(graph, res)
		case <-deadline.Done():
			return nil, ErrTimeout
		}
	}

	graph.BuildTimeMS = time.Since(start).Milliseconds()
	sort.Strings(graph.Warnings)
	return graph, nil
}

func applyResult(graph *Graph, res analyzerResult) {
	if res.warning != "" {
		graph.Warnings = append(graph.Warnings, res.warning)
	}
	switch res.name {
	case "project":
		graph.Project = res.project
	case "git":
		graph.Git = res.git
	case "infrastructure":
		graph.Infrastructure = res.infra
	case "history":
		graph.History = res.history
	}
}

// ToLLMContext renders a compact, stable block for inclusion in the model
// prompt, per §4.4's "prompt formatting" requirement.
func (g *Graph) ToLLMContext() string {
	var b strings.Builder

	fmt.Fprintf(&b, "cwd: %s\n", g.Environment.Cwd)
	fmt.Fprintf(&b, "shell: %s\n", g.Environment.Shell)
	fmt.Fprintf(&b, "platform: %s\n", g.Environment.Platform)

	if g.Project.PrimaryType != "" {
		fmt.Fprintf(&b, "project: %s", g.Project.PrimaryType)
		if len(g.Project.AdditionalTypes) > 0 {
			fmt.Fprintf(&b, " (also: %s)", strings.Join(g.Project.AdditionalTypes, ", "))
		}
		b.WriteString("\n")
	}

	if g.Git.IsRepo {
		fmt.Fprintf(&b, "git: branch=%s staged=%d unstaged=%d ahead=%d behind=%d untracked=%v\n",
			g.Git.Branch, g.Git.StagedCount, g.Git.UnstagedCount, g.Git.Ahead, g.Git.Behind, g.Git.HasUntracked)
		if g.Git.LastCommitSubject != "" {
			fmt.Fprintf(&b, "last commit: %s\n", g.Git.LastCommitSubject)
		}
	}

	if len(g.Infrastructure.Tools) > 0 {
		names := make([]string, 0, len(g.Infrastructure.Tools))
		for _, t := range g.Infrastructure.Tools {
			names = append(names, fmt.Sprintf("%s@%s", t.Name, t.Version))
		}
		fmt.Fprintf(&b, "tools: %s\n", strings.Join(names, ", "))
	}

	if len(g.History.TopCommands) > 0 {
		fmt.Fprintf(&b, "frequent commands: %s\n", strings.Join(g.History.TopCommands, ", "))
	}
	if len(g.History.Patterns) > 0 {
		fmt.Fprintf(&b, "behavior: %s\n", strings.Join(g.History.Patterns, ", "))
	}

	return b.String()
}
