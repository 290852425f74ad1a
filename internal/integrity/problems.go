package integrity

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Problem descriptions reported by ProblemsFor.
const (
	ProblemMissing     = "File doesn't exist"
	ProblemEmpty       = "File is empty"
	ProblemUnreadable  = "File is not readable"
	ProblemUnwritable  = "File is not writable"
	ProblemPermissions = "Can't check file permissions"
	ProblemEncoding    = "File has encoding issues (not UTF-8)"
)

// Health statuses.
const (
	StatusIssues  = "Issues Found"
	StatusChanged = "Changed"
	StatusHealthy = "Healthy"
)

const encodingSampleBytes = 1024

var textExtensions = map[string]bool{
	".txt": true, ".py": true, ".js": true, ".html": true,
	".css": true, ".json": true, ".xml": true, ".md": true,
}

// HealthReport is the per-file status shown by the health check.
type HealthReport struct {
	Path     string   `json:"path"`
	Status   string   `json:"status"`
	Problems []string `json:"problems"`
	Changed  bool     `json:"changed"`
}

// ProblemsFor lists common problems with the file at path. A missing file
// yields exactly one entry.
func (m *Monitor) ProblemsFor(path string) []string {
	return problemsFor(path)
}

// Health combines Check and ProblemsFor. Problems take precedence over a
// changed digest.
func (m *Monitor) Health(path string) (HealthReport, error) {
	report := HealthReport{Path: path, Problems: problemsFor(path)}
	res, err := m.Check(path)
	if err != nil {
		return HealthReport{}, err
	}
	report.Changed = res.Changed

	switch {
	case len(report.Problems) > 0:
		report.Status = StatusIssues
	case res.Changed:
		report.Status = StatusChanged
	default:
		report.Status = StatusHealthy
	}
	return report, nil
}

func problemsFor(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{ProblemMissing}
		}
		return []string{ProblemPermissions}
	}

	problems := []string{}
	if info.Size() == 0 {
		problems = append(problems, ProblemEmpty)
	}

	mode := info.Mode().Perm()
	if mode&0o400 == 0 {
		problems = append(problems, ProblemUnreadable)
	}
	if mode&0o200 == 0 {
		problems = append(problems, ProblemUnwritable)
	}

	if textExtensions[strings.ToLower(filepath.Ext(path))] && !utf8Prefix(path) {
		problems = append(problems, ProblemEncoding)
	}
	return problems
}

// utf8Prefix reports whether the first 1KB of the file decodes as UTF-8. A
// multi-byte rune cut by the 1KB boundary is accepted. Unreadable files are
// covered by the permission checks and report true here.
func utf8Prefix(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, encodingSampleBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return true
	}
	buf = buf[:n]
	if utf8.Valid(buf) {
		return true
	}
	if n < encodingSampleBytes {
		return false
	}
	// Drop up to three trailing bytes of a rune started before the boundary.
	for cut := 1; cut <= utf8.UTFMax-1 && cut < len(buf); cut++ {
		tail := buf[len(buf)-cut:]
		if utf8.RuneStart(tail[0]) && !utf8.FullRune(tail) {
			return utf8.Valid(buf[:len(buf)-cut])
		}
	}
	return false
}
