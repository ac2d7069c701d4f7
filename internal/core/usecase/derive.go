package usecase

import (
	"errors"
	"strings"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

// DeriveText flattens a structured record into the canonical text used for
// embedding. The rule is deterministic and shared by indexing and querying:
// vector similarity is only meaningful when both sides were embedded from
// the same derivation. Section order is fixed; absent sections are skipped
// entirely so they contribute no boilerplate.
func DeriveText(rec *domain.Record) (string, error) {
	if rec == nil || rec.Structured == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "derive text", errors.New("record has no structured payload"))
	}

	var b strings.Builder
	switch {
	case rec.Structured.CV != nil:
		flattenCV(&b, rec.Structured.CV)
	case rec.Structured.Job != nil:
		flattenJob(&b, rec.Structured.Job)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "derive text", errors.New("structured payload has no variant"))
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.WrapError(domain.ErrEmptyInput, "derive text", errors.New("derivation produced no text"))
	}
	return text, nil
}

func flattenCV(b *strings.Builder, cv *domain.CVProfile) {
	if cv.Personal.Name != "" {
		writeLine(b, "Name: "+cv.Personal.Name)
	}
	if cv.Personal.Title != "" {
		writeLine(b, "Title: "+cv.Personal.Title)
	}
	if cv.Summary != "" {
		writeLine(b, "Summary: "+cv.Summary)
	}
	for _, e := range cv.Experience {
		writeLine(b, "Experience: "+joinNonEmpty(" | ", e.Role, e.Employer, e.Location, e.Period))
		writeBullets(b, e.Responsibilities)
		writeBullets(b, e.Achievements)
	}
	for _, e := range cv.Education {
		writeLine(b, "Education: "+joinNonEmpty(" | ", e.Credential, e.Institution, e.Year))
		writeBullets(b, e.Honors)
	}
	if s := cv.Skills; s != nil {
		writeSkills(b, s)
	}
	if a := cv.Additional; a != nil {
		writeListLine(b, "Certifications", a.Certifications)
		writeListLine(b, "Courses", a.Courses)
		writeListLine(b, "Projects", a.Projects)
		writeListLine(b, "Publications", a.Publications)
	}
}

func flattenJob(b *strings.Builder, job *domain.JobPosting) {
	writeLine(b, "Job: "+joinNonEmpty(" | ", job.Title, job.Company, job.Location, job.EmploymentType))
	if job.Summary != "" {
		writeLine(b, "Summary: "+job.Summary)
	}
	writeListLine(b, "Responsibilities", job.Responsibilities)
	writeListLine(b, "Requirements", job.Requirements)
	if s := job.Skills; s != nil {
		writeSkills(b, s)
	}
	writeListLine(b, "Benefits", job.Benefits)
}

func writeSkills(b *strings.Builder, s *domain.SkillSet) {
	writeListLine(b, "Technical skills", s.Technical)
	writeListLine(b, "Soft skills", s.Soft)
	writeListLine(b, "Industry skills", s.Industry)
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteByte('\n')
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		writeLine(b, "- "+item)
	}
}

func writeListLine(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	writeLine(b, label+": "+strings.Join(items, ", "))
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
