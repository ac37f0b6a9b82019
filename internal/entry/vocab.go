package entry

import "slices"

// Closed vocabularies for enumerated and constrained fields. Submissions
// referencing values outside these lists are rejected (category, severity,
// language, framework) or silently filtered (environment).

// Categories lists the valid entry categories.
var Categories = []string{"pattern", "gotcha", "principle", "snippet", "debug"}

// Severities lists the valid severity levels.
var Severities = []string{"critical", "major", "moderate", "minor", "tip"}

// Languages lists the recognized programming languages.
var Languages = []string{
	"python", "javascript", "typescript", "rust", "go", "java", "c", "cpp",
	"csharp", "ruby", "php", "swift", "kotlin", "sql", "css", "html", "bash",
	"yaml", "toml", "shell",
}

// Frameworks lists the recognized frameworks and tools.
var Frameworks = []string{
	"react", "nextjs", "remix", "vue", "nuxt", "svelte", "sveltekit", "angular",
	"django", "flask", "fastapi", "express", "nestjs", "hono", "fastify",
	"rails", "spring", "laravel", "gin", "echo", "actix",
	"astro", "gatsby", "eleventy", "hugo",
	"playwright", "jest", "pytest", "vitest", "cypress",
	"docker", "kubernetes", "terraform",
	"tailwind", "bootstrap",
	"prisma", "drizzle", "sequelize", "sqlalchemy",
	"git",
}

// Environments lists the recognized runtime environments.
var Environments = []string{
	"macos", "linux", "windows", "docker", "ci-cd", "browser", "nodejs",
	"ssr", "edge", "mobile", "terminal", "claude-code", "ide", "editor",
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool { return slices.Contains(Categories, c) }

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool { return slices.Contains(Severities, s) }

// ValidLanguage reports whether l is a known language.
func ValidLanguage(l string) bool { return slices.Contains(Languages, l) }

// ValidFramework reports whether f is a known framework.
func ValidFramework(f string) bool { return slices.Contains(Frameworks, f) }

// ValidEnvironment reports whether e is a known environment.
func ValidEnvironment(e string) bool { return slices.Contains(Environments, e) }

// FilterEnvironments drops values outside the closed environment vocabulary.
// Environment is a soft field: unknown values are discarded, not rejected.
func FilterEnvironments(values []string) []string {
	var out []string
	for _, v := range values {
		if ValidEnvironment(v) {
			out = append(out, v)
		}
	}
	return out
}
