package globregex

import (
	"regexp"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		glob string
		want string
	}{
		{"**/*.ts", `.*/[^/]*\.ts`},
		{"*.go", `[^/]*\.go`},
		{"src/**", `src/.*`},
		{"file?.txt", `file.\.txt`},
		{"*.{js,ts,tsx}", `[^/]*\.(js|ts|tsx)`},
		{"a,b", `a,b`},
		{"c++/*.h", `c\+\+/[^/]*\.h`},
		{"{a,b", `(a|b)`},
		{"x}", `x\}`},
	}
	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			got := Compile(tt.glob)
			if got != tt.want {
				t.Errorf("Compile(%q) = %q, want %q", tt.glob, got, tt.want)
			}
			if _, err := regexp.Compile(got); err != nil {
				t.Errorf("Compile(%q) produced an invalid regex: %v", tt.glob, err)
			}
		})
	}
}

func TestCompile_AgreesWithDoublestar(t *testing.T) {
	// Patterns without ** so that segment semantics line up exactly.
	patterns := []string{"*.go", "src/*.ts", "*.{js,ts}", "doc?.md", "cmd/*/main.go"}
	paths := []string{
		"main.go", "pkg/main.go", "src/app.ts", "src/a/app.ts", "index.js",
		"index.ts", "index.jsx", "doc1.md", "doc12.md", "cmd/tool/main.go", "cmd/main.go",
	}
	for _, pattern := range patterns {
		re := regexp.MustCompile("^" + Compile(pattern) + "$")
		for _, path := range paths {
			want, err := doublestar.Match(pattern, path)
			if err != nil {
				t.Fatalf("doublestar.Match(%q) failed: %v", pattern, err)
			}
			if got := re.MatchString(path); got != want {
				t.Errorf("pattern %q path %q: regex=%v doublestar=%v", pattern, path, got, want)
			}
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		glob string
		path string
		want bool
	}{
		{"**/*.ts", "/home/me/project/src/app.ts", true},
		{"**/*.ts", "/home/me/project/src/app.tsx", false},
		{"*.md", "/repo/README.md", true},
		{"src/**", "/repo/src/a/b.go", true},
		{"src/**", "/repo/lib/a.go", false},
	}
	for _, tt := range tests {
		got, err := Match(tt.glob, tt.path)
		if err != nil {
			t.Fatalf("Match(%q, %q) error: %v", tt.glob, tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.glob, tt.path, got, tt.want)
		}
	}
}
