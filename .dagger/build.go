package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/ragline/internal/dagger"
)

// Build and return directory of go binaries.
//
// The sqlite vector store needs CGO, so binaries are built natively for each
// linux platform instead of cross compiled.
func (r *Ragline) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	outputs := dag.Directory()

	for _, platform := range platforms {
		path := strings.ReplaceAll(string(platform), "/", "_") + "/"

		build := r.goContainerFor(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/ragline"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (r *Ragline) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/ragline/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/ragline/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/ragline/pkg/utils.Buildtime=%s'", buildtime),
	}

	return r.Build(ctx, strings.Join(ldflags, " "))
}
