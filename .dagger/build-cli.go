// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Builds the rideloc CLI
package main

import (
	"context"
	"dagger/rideloc/internal/dagger"
)

const (
	goImage        = "golang:1.25.5-bookworm"
	runtimeImage   = "gcr.io/distroless/cc-debian12"
	buildUser      = "builder"
	distrolessUser = "65532" // nonroot user in distroless images
	binaryPath     = "/src/build/rideloc"
)

// toolchain is a Go container with module and build caches owned by buildUser.
func toolchain() *dagger.Container {
	const home = "/home/" + buildUser
	owned := dagger.ContainerWithMountedCacheOpts{Owner: buildUser}

	return dag.Container().
		// duckdb links against glibc, so no alpine
		From(goImage).
		WithExec([]string{"useradd", "-m", "-u", "1000", buildUser}).
		WithMountedCache("/go/pkg", dag.CacheVolume("rideloc-go-pkg"), owned).
		WithMountedCache(home+"/.cache", dag.CacheVolume("rideloc-go-cache"), owned).
		WithEnvVariable("GOCACHE", home+"/.cache/go-build").
		WithWorkdir("/src")
}

// Returns a container with dependencies downloaded and the CLI compiled
func (r *Rideloc) BuildCliBase(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["build", "*.duckdb"]
	src *dagger.Directory,
	// +optional
	// +default="dev"
	version string,
) *dagger.Container {
	if version == "" {
		version = "dev"
	}

	// go.mod and go.sum go first so source edits keep the download layer cached
	deps := toolchain().
		WithFile("go.mod", src.File("go.mod")).
		WithFile("go.sum", src.File("go.sum")).
		WithExec([]string{"chown", "-R", buildUser + ":" + buildUser, "/src"}).
		WithUser(buildUser).
		WithExec([]string{"go", "mod", "download"})

	return deps.
		WithUser("root").
		WithDirectory("/src", src.WithoutDirectory(".dagger")).
		WithExec([]string{"chown", "-R", buildUser + ":" + buildUser, "/src"}).
		WithUser(buildUser).
		WithExec([]string{
			"go", "build",
			"-ldflags", "-X main.Version=" + version,
			"-o", binaryPath,
			".",
		})
}

// Runs vet, lint, vulnerability and license checks on the CLI code
func (r *Rideloc) BuildCliValidate(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["build", "*.duckdb"]
	src *dagger.Directory,
) *dagger.Container {
	ctr := r.BuildCliBase(ctx, src, "")

	for _, tool := range []string{
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"golang.org/x/vuln/cmd/govulncheck@latest",
		"github.com/google/addlicense@latest",
	} {
		ctr = ctr.WithExec([]string{"go", "install", tool})
	}

	return ctr.
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"golangci-lint", "run", "--timeout", "5m", "./..."}).
		WithExec([]string{"govulncheck", "./..."}).
		WithExec([]string{
			"addlicense", "--check",
			"--ignore", "build/**",
			"-c", "The ChapaUY Authors",
			"-l", "apache",
			"-s=only",
			".",
		})
}

// Returns a distroless container running the CLI
func (r *Rideloc) BuildCli(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["build", "*.duckdb"]
	src *dagger.Directory,
) *dagger.Container {
	return dag.Container().
		From(runtimeImage).
		WithWorkdir("/app").
		WithFile("/app/rideloc", r.BuildCliBase(ctx, src, "").File(binaryPath)).
		WithEnvVariable("RIDELOC_DB", "/tmp/rideloc.duckdb").
		WithUser(distrolessUser).
		WithEntrypoint([]string{"/app/rideloc"})
}
