package warehouse

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"healthrag/internal/adapter/analyzer"
)

// Star-schema export tables. Keys are normalized at load time so they line
// up with query-derived ids; a normalized "0" means the key was missing.

type EventRow struct {
	PatientKey      string
	ProviderKey     string
	OrganizationKey string
	PayerKey        string
	DateKey         string
	Category        string
	Description     string
	NumericValue    string
	Units           string
}

type PatientRow struct {
	Key       string
	Gender    string
	BirthDate string
	City      string
	State     string
	Zip       string
}

type ProviderRow struct {
	Key       string
	Name      string
	Specialty string
}

type OrganizationRow struct {
	Key   string
	Name  string
	City  string
	State string
}

type PayerRow struct {
	Key  string
	Name string
}

// Tables holds one warehouse export.
type Tables struct {
	Events        []EventRow
	Patients      []PatientRow
	Providers     []ProviderRow
	Organizations []OrganizationRow
	Payers        []PayerRow
}

// Table file names as produced by the warehouse export job.
const (
	fileEvents        = "fact_patient_events.csv"
	filePatients      = "dim_patient.csv"
	fileProviders     = "dim_provider.csv"
	fileOrganizations = "dim_organization.csv"
	filePayers        = "dim_payer.csv"
)

// Load reads a warehouse export rooted at dir. Export jobs nest their output
// under dated subdirectories, so each table is located by glob; when several
// matches exist the lexically first wins, which keeps reloads deterministic.
func Load(dir string) (*Tables, error) {
	t := &Tables{}

	if err := loadTable(dir, fileEvents, func(get rowGetter) {
		t.Events = append(t.Events, EventRow{
			PatientKey:      analyzer.NormalizeID(get("patient_key")),
			ProviderKey:     analyzer.NormalizeID(get("provider_key")),
			OrganizationKey: analyzer.NormalizeID(get("org_key")),
			PayerKey:        analyzer.NormalizeID(get("payer_key")),
			DateKey:         get("date_key"),
			Category:        get("event_category"),
			Description:     get("description"),
			NumericValue:    get("numeric_value"),
			Units:           get("units"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadTable(dir, filePatients, func(get rowGetter) {
		t.Patients = append(t.Patients, PatientRow{
			Key:       analyzer.NormalizeID(get("patient_key")),
			Gender:    get("gender"),
			BirthDate: get("birthdate"),
			City:      get("city"),
			State:     get("state"),
			Zip:       get("zip"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadTable(dir, fileProviders, func(get rowGetter) {
		t.Providers = append(t.Providers, ProviderRow{
			Key:       analyzer.NormalizeID(get("provider_key")),
			Name:      get("name"),
			Specialty: get("specialty"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadTable(dir, fileOrganizations, func(get rowGetter) {
		t.Organizations = append(t.Organizations, OrganizationRow{
			Key:   analyzer.NormalizeID(get("org_key")),
			Name:  get("name"),
			City:  get("city"),
			State: get("state"),
		})
	}); err != nil {
		return nil, err
	}

	if err := loadTable(dir, filePayers, func(get rowGetter) {
		t.Payers = append(t.Payers, PayerRow{
			Key:  analyzer.NormalizeID(get("payer_key")),
			Name: get("name"),
		})
	}); err != nil {
		return nil, err
	}

	return t, nil
}

type rowGetter func(column string) string

func loadTable(dir, name string, consume func(rowGetter)) error {
	path, err := findTable(dir, name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", name, err)
	}
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[col] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s row: %w", name, err)
		}
		consume(func(column string) string {
			idx, ok := columns[column]
			if !ok || idx >= len(record) {
				return ""
			}
			return record[idx]
		})
	}
	return nil
}

func findTable(dir, name string) (string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "**", name))
	if err != nil {
		return "", fmt.Errorf("failed to scan for %s: %w", name, err)
	}
	if direct := filepath.Join(dir, name); fileExists(direct) {
		matches = append(matches, direct)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("table %s not found under %s", name, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
