// Package importer bulk loads employees from the legacy JSON export.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"afa.directory/internal/directory"
	"afa.directory/internal/obs"
)

type bilingual struct {
	EN string `json:"en"`
	FA string `json:"fa"`
}

// text accepts a JSON string, number or null.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text(n.String())
	return nil
}

// Record is one entry of the export file.
type Record struct {
	Name       bilingual `json:"name"`
	Title      bilingual `json:"title"`
	Department bilingual `json:"department"`
	DeptEN     string    `json:"dept_en"`
	Extension  text      `json:"extension"`
	Mobile     text      `json:"mobile"`
	Email      string    `json:"email"`
	Photo      string    `json:"photo"`
}

// Export is a decoded export file. Malformed counts array elements that
// could not be decoded into a Record.
type Export struct {
	Records   []Record
	Malformed int
}

// Summary reports an import run. Total counts records read from the file.
type Summary struct {
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
	Total    int `json:"total"`
}

// Store is the persistence the importer needs.
type Store interface {
	CompanyIDsByName(ctx context.Context) (map[string]int64, error)
	ReplaceEmployees(ctx context.Context, rows []directory.EmployeeInput) (int, error)
}

// departmentCompanies is checked in order; the first keyword contained in the
// English department name wins.
var departmentCompanies = []struct {
	keyword string
	company string
}{
	{"Steel", "AFA Steel"}, {"steel", "AFA Steel"},
	{"Trading", "AFA Trading"}, {"trading", "AFA Trading"},
	{"Logistics", "AFA Logistics"}, {"logistics", "AFA Logistics"},
	{"Engineering", "AFA Engineering"}, {"engineering", "AFA Engineering"},
	{"Technology", "AFA Technology"}, {"technology", "AFA Technology"},
	{"Finance", "AFA Finance"}, {"finance", "AFA Finance"},
	{"HR", "AFA HR"}, {"hr", "AFA HR"},
}

// Parse decodes the export file, a JSON array of records. Elements that do
// not decode are skipped and counted; only a file that is not an array fails.
func Parse(r io.Reader) (Export, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Export{}, fmt.Errorf("decode employees: %w", err)
	}
	exp := Export{Records: make([]Record, 0, len(raw))}
	for _, elem := range raw {
		var rec Record
		if err := json.Unmarshal(elem, &rec); err != nil {
			exp.Malformed++
			continue
		}
		exp.Records = append(exp.Records, rec)
	}
	return exp, nil
}

// CompanyForDepartment maps an English department name to a company name.
func CompanyForDepartment(dept string) (string, bool) {
	for _, m := range departmentCompanies {
		if strings.Contains(dept, m.keyword) {
			return m.company, true
		}
	}
	return "", false
}

// GenderFromPhoto reads the avatar style query parameter of a photo URL.
func GenderFromPhoto(photo string) string {
	switch {
	case photo == "":
		return directory.GenderUnknown
	case strings.Contains(photo, "style]=male"), strings.Contains(photo, "style=male"):
		return directory.GenderMale
	case strings.Contains(photo, "style]=female"), strings.Contains(photo, "style=female"):
		return directory.GenderFemale
	}
	return directory.GenderUnknown
}

// Importer replaces the employee table with the contents of an export.
type Importer struct {
	store  Store
	cache  directory.ListingCache
	logger *zap.Logger
}

type Option func(*Importer)

// WithCache drops the public listing after a successful import.
func WithCache(c directory.ListingCache) Option {
	return func(i *Importer) { i.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

func New(store Store, opts ...Option) *Importer {
	i := &Importer{store: store, logger: obs.Logger()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Plan converts records into insertable rows. Records missing a name or
// extension are skipped and counted as failed, as are malformed elements.
func (i *Importer) Plan(exp Export, companyIDs map[string]int64) ([]directory.EmployeeInput, Summary) {
	sum := Summary{Total: len(exp.Records) + exp.Malformed, Failed: exp.Malformed}
	rows := make([]directory.EmployeeInput, 0, len(exp.Records))
	for idx, rec := range exp.Records {
		in := rec.input(companyIDs)
		normalized, err := in.Normalize()
		if err != nil {
			sum.Failed++
			i.logger.Warn("skipping employee record", zap.Int("index", idx), zap.Error(err))
			continue
		}
		rows = append(rows, normalized)
	}
	return rows, sum
}

func (r Record) input(companyIDs map[string]int64) directory.EmployeeInput {
	dept := r.Department.EN
	if dept == "" {
		dept = r.DeptEN
	}
	in := directory.EmployeeInput{
		NameEN:    r.Name.EN,
		NameFA:    r.Name.FA,
		TitleEN:   r.Title.EN,
		TitleFA:   r.Title.FA,
		DeptEN:    r.Department.EN,
		DeptFA:    r.Department.FA,
		Extension: string(r.Extension),
		Mobile:    string(r.Mobile),
		Email:     r.Email,
		Photo:     r.Photo,
		Gender:    GenderFromPhoto(r.Photo),
	}
	if name, ok := CompanyForDepartment(dept); ok {
		if id, ok := companyIDs[name]; ok {
			in.CompanyID = &id
		}
	}
	return in
}

// Run clears the employees table and inserts every valid record in one transaction.
func (i *Importer) Run(ctx context.Context, exp Export) (Summary, error) {
	companyIDs, err := i.store.CompanyIDsByName(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load companies: %w", err)
	}
	rows, sum := i.Plan(exp, companyIDs)
	inserted, err := i.store.ReplaceEmployees(ctx, rows)
	if err != nil {
		return Summary{}, fmt.Errorf("replace employees: %w", err)
	}
	sum.Inserted = inserted
	if i.cache != nil {
		i.cache.Invalidate(ctx)
	}
	i.logger.Info("employee import complete",
		zap.Int("inserted", sum.Inserted),
		zap.Int("failed", sum.Failed),
		zap.Int("total", sum.Total),
	)
	return sum, nil
}
