package domain

import "strings"

// StructuredRecord is a tagged variant: exactly one of CV or Job is set,
// discriminated by the owning record's kind. Parsing rejects anything else
// at the boundary instead of carrying loosely-typed JSON downstream.
type StructuredRecord struct {
	CV  *CVProfile  `json:"cv,omitempty"`
	Job *JobPosting `json:"job,omitempty"`
}

func (s *StructuredRecord) Kind() RecordKind {
	if s != nil && s.Job != nil {
		return KindJob
	}
	return KindCV
}

type PersonalInfo struct {
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ProfileLink string `json:"profile_link,omitempty"`
}

type Experience struct {
	Employer         string   `json:"employer"`
	Role             string   `json:"role"`
	Location         string   `json:"location,omitempty"`
	Period           string   `json:"period"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Achievements     []string `json:"achievements,omitempty"`
}

type Education struct {
	Institution string   `json:"institution"`
	Credential  string   `json:"credential"`
	Year        string   `json:"year,omitempty"`
	Honors      []string `json:"honors,omitempty"`
}

type SkillSet struct {
	Technical []string `json:"technical,omitempty"`
	Soft      []string `json:"soft,omitempty"`
	Industry  []string `json:"industry,omitempty"`
}

func (s *SkillSet) Empty() bool {
	return s == nil || (len(s.Technical) == 0 && len(s.Soft) == 0 && len(s.Industry) == 0)
}

type Additional struct {
	Certifications []string `json:"certifications,omitempty"`
	Courses        []string `json:"courses,omitempty"`
	Projects       []string `json:"projects,omitempty"`
	Publications   []string `json:"publications,omitempty"`
}

func (a *Additional) Empty() bool {
	return a == nil || (len(a.Certifications) == 0 && len(a.Courses) == 0 &&
		len(a.Projects) == 0 && len(a.Publications) == 0)
}

type CVProfile struct {
	Personal   PersonalInfo `json:"personal,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
	Skills     *SkillSet    `json:"skills,omitempty"`
	Additional *Additional  `json:"additional,omitempty"`
}

type JobPosting struct {
	Title            string    `json:"title"`
	Company          string    `json:"company,omitempty"`
	Location         string    `json:"location,omitempty"`
	EmploymentType   string    `json:"employment_type,omitempty"`
	Summary          string    `json:"summary,omitempty"`
	Responsibilities []string  `json:"responsibilities,omitempty"`
	Requirements     []string  `json:"requirements,omitempty"`
	Skills           *SkillSet `json:"skills,omitempty"`
	Benefits         []string  `json:"benefits,omitempty"`
}

// Normalize enforces the omission discipline: blank strings are trimmed,
// empty list elements are dropped, and sections that end up empty are
// removed entirely so they never pollute derived embedding text.
func (c *CVProfile) Normalize() {
	if c == nil {
		return
	}
	c.Personal.Name = strings.TrimSpace(c.Personal.Name)
	c.Personal.Title = strings.TrimSpace(c.Personal.Title)
	c.Personal.Email = strings.TrimSpace(c.Personal.Email)
	c.Personal.Phone = strings.TrimSpace(c.Personal.Phone)
	c.Personal.ProfileLink = strings.TrimSpace(c.Personal.ProfileLink)
	c.Summary = strings.TrimSpace(c.Summary)

	kept := c.Experience[:0]
	for i := range c.Experience {
		e := c.Experience[i]
		e.Employer = strings.TrimSpace(e.Employer)
		e.Role = strings.TrimSpace(e.Role)
		e.Location = strings.TrimSpace(e.Location)
		e.Period = strings.TrimSpace(e.Period)
		e.Responsibilities = cleanList(e.Responsibilities)
		e.Achievements = cleanList(e.Achievements)
		if e.Employer == "" && e.Role == "" {
			continue
		}
		kept = append(kept, e)
	}
	c.Experience = kept
	if len(c.Experience) == 0 {
		c.Experience = nil
	}

	edu := c.Education[:0]
	for i := range c.Education {
		e := c.Education[i]
		e.Institution = strings.TrimSpace(e.Institution)
		e.Credential = strings.TrimSpace(e.Credential)
		e.Year = strings.TrimSpace(e.Year)
		e.Honors = cleanList(e.Honors)
		if e.Institution == "" && e.Credential == "" {
			continue
		}
		edu = append(edu, e)
	}
	c.Education = edu
	if len(c.Education) == 0 {
		c.Education = nil
	}

	if c.Skills != nil {
		c.Skills.Technical = cleanList(c.Skills.Technical)
		c.Skills.Soft = cleanList(c.Skills.Soft)
		c.Skills.Industry = cleanList(c.Skills.Industry)
		if c.Skills.Empty() {
			c.Skills = nil
		}
	}
	if c.Additional != nil {
		c.Additional.Certifications = cleanList(c.Additional.Certifications)
		c.Additional.Courses = cleanList(c.Additional.Courses)
		c.Additional.Projects = cleanList(c.Additional.Projects)
		c.Additional.Publications = cleanList(c.Additional.Publications)
		if c.Additional.Empty() {
			c.Additional = nil
		}
	}
}

func (j *JobPosting) Normalize() {
	if j == nil {
		return
	}
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)
	j.EmploymentType = strings.TrimSpace(j.EmploymentType)
	j.Summary = strings.TrimSpace(j.Summary)
	j.Responsibilities = cleanList(j.Responsibilities)
	j.Requirements = cleanList(j.Requirements)
	j.Benefits = cleanList(j.Benefits)
	if j.Skills != nil {
		j.Skills.Technical = cleanList(j.Skills.Technical)
		j.Skills.Soft = cleanList(j.Skills.Soft)
		j.Skills.Industry = cleanList(j.Skills.Industry)
		if j.Skills.Empty() {
			j.Skills = nil
		}
	}
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := in[:0]
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
