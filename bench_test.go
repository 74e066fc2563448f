package papi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// benchSource is a realistic module with assignments, functions, a class
// with attributes and methods, and imports.
const benchSource = `"""Benchmark module."""
import os
import sys
from typing import Optional
from .helpers import normalize, split

DEFAULT_NAME = "world"
RETRIES: int = 3
TAGS: list[str] = ["a", "b", "c"]
_cache = {}


def greet(name: str = DEFAULT_NAME, /, *, loud: bool = False) -> str:
    """Return a greeting for name."""
    return name


async def fetch(url: str, *parts: str, timeout: float = 1.5, **headers: str) -> Optional[bytes]:
    """Fetch url."""
    return None


class Config:
    """Application configuration."""

    name: str = "app"
    debug: bool = False
    tags: dict[str, list[int]] | None = None

    def validate(self) -> None:
        """Check the configuration."""
        pass

    @property
    def label(self) -> str:
        return self.name

    class Meta:
        """Nested metadata."""

        ordering: tuple[str, str] = ("name", "id")


def _helper(x, y=2, *args, **kwargs):
    pass
`

// writeBenchPackage writes a package with n copies of benchSource spread
// over nested modules.
func writeBenchPackage(b *testing.B, n int) string {
	b.Helper()
	root := filepath.Join(b.TempDir(), "bench")
	for i := 0; i < n; i++ {
		dir := filepath.Join(root, fmt.Sprintf("mod%d", i%8))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatal(err)
		}
		path := filepath.Join(dir, fmt.Sprintf("file%d.py", i))
		if err := os.WriteFile(path, []byte(benchSource), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return root
}

// BenchmarkConstruct_Serial measures listing and parsing a 64-file package
// on one goroutine.
func BenchmarkConstruct_Serial(b *testing.B) {
	root := writeBenchPackage(b, 64)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Construct(ctx, root, WithParallel(false)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkConstruct_Parallel measures the same package on the worker pool.
func BenchmarkConstruct_Parallel(b *testing.B) {
	root := writeBenchPackage(b, 64)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Construct(ctx, root, WithParallel(true)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExport measures writing a constructed tree to a fresh index.
func BenchmarkExport(b *testing.B) {
	root := writeBenchPackage(b, 64)
	ctx := context.Background()
	res, err := Construct(ctx, root)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		ix, err := OpenIndex(filepath.Join(b.TempDir(), "bench.db"))
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()

		if _, err := ix.Export(ctx, res); err != nil {
			ix.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		ix.Close()
		b.StartTimer()
	}
}

// BenchmarkSearchEntities measures a glob search over an exported package.
func BenchmarkSearchEntities(b *testing.B) {
	root := writeBenchPackage(b, 64)
	ctx := context.Background()
	res, err := Construct(ctx, root)
	if err != nil {
		b.Fatal(err)
	}
	ix, err := OpenIndex(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer ix.Close()
	exp, err := ix.Export(ctx, res)
	if err != nil {
		b.Fatal(err)
	}
	q := ix.Query(exp.ID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := q.SearchEntities("*a*", EntityFilter{}, Sort{}, Pagination{Limit: 100}); err != nil {
			b.Fatal(err)
		}
	}
}
