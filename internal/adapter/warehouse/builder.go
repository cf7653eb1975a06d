package warehouse

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"healthrag/internal/domain"
)

// missingKey is what NormalizeID maps absent foreign keys to.
const missingKey = "0"

// profileIDListCap bounds how many linked ids a profile document names.
const profileIDListCap = 10

// BuildDocuments renders the joined warehouse tables into retrievable
// documents: two representations per event (a detailed narrative for
// semantic search and a short summary for keyword matching) plus one profile
// document per actor carrying aggregate counts. Document text is frozen
// here; nothing downstream ever rewrites content.
func BuildDocuments(t *Tables) []domain.Document {
	b := newBuilder(t)

	var docs []domain.Document
	docs = append(docs, b.eventDocuments()...)
	docs = append(docs, b.patientProfiles()...)
	docs = append(docs, b.providerProfiles()...)
	docs = append(docs, b.organizationProfiles()...)
	docs = append(docs, b.payerProfiles()...)
	return docs
}

type builder struct {
	tables        *Tables
	patients      map[string]PatientRow
	providers     map[string]ProviderRow
	organizations map[string]OrganizationRow
	payers        map[string]PayerRow

	patientEvents  map[string]int
	providerEvents map[string]int
	orgEvents      map[string]int
	payerEvents    map[string]int

	patientCategories map[string][]string
	providerPatients  map[string][]string
	orgPatients       map[string][]string
	orgProviders      map[string]map[string]struct{}
	payerPatients     map[string][]string
}

func newBuilder(t *Tables) *builder {
	b := &builder{
		tables:            t,
		patients:          make(map[string]PatientRow),
		providers:         make(map[string]ProviderRow),
		organizations:     make(map[string]OrganizationRow),
		payers:            make(map[string]PayerRow),
		patientEvents:     make(map[string]int),
		providerEvents:    make(map[string]int),
		orgEvents:         make(map[string]int),
		payerEvents:       make(map[string]int),
		patientCategories: make(map[string][]string),
		providerPatients:  make(map[string][]string),
		orgPatients:       make(map[string][]string),
		orgProviders:      make(map[string]map[string]struct{}),
		payerPatients:     make(map[string][]string),
	}

	for _, p := range t.Patients {
		b.patients[p.Key] = p
	}
	for _, p := range t.Providers {
		b.providers[p.Key] = p
	}
	for _, o := range t.Organizations {
		b.organizations[o.Key] = o
	}
	for _, p := range t.Payers {
		b.payers[p.Key] = p
	}

	for _, ev := range t.Events {
		b.patientEvents[ev.PatientKey]++
		if cat := eventCategory(ev); !contains(b.patientCategories[ev.PatientKey], cat) {
			b.patientCategories[ev.PatientKey] = append(b.patientCategories[ev.PatientKey], cat)
		}
		if ev.ProviderKey != missingKey {
			b.providerEvents[ev.ProviderKey]++
			b.providerPatients[ev.ProviderKey] = appendUnique(b.providerPatients[ev.ProviderKey], ev.PatientKey)
		}
		if ev.OrganizationKey != missingKey {
			b.orgEvents[ev.OrganizationKey]++
			b.orgPatients[ev.OrganizationKey] = appendUnique(b.orgPatients[ev.OrganizationKey], ev.PatientKey)
			if ev.ProviderKey != missingKey {
				if b.orgProviders[ev.OrganizationKey] == nil {
					b.orgProviders[ev.OrganizationKey] = make(map[string]struct{})
				}
				b.orgProviders[ev.OrganizationKey][ev.ProviderKey] = struct{}{}
			}
		}
		if ev.PayerKey != missingKey {
			b.payerEvents[ev.PayerKey]++
			b.payerPatients[ev.PayerKey] = appendUnique(b.payerPatients[ev.PayerKey], ev.PatientKey)
		}
	}

	return b
}

func (b *builder) eventDocuments() []domain.Document {
	docs := make([]domain.Document, 0, len(b.tables.Events)*2)

	for _, ev := range b.tables.Events {
		category := eventCategory(ev)

		meta := map[string]string{
			domain.MetaSource:   "warehouse",
			"patient_id":        ev.PatientKey,
			domain.MetaType:     domain.TypeEvent,
			domain.MetaDate:     ev.DateKey,
			domain.MetaCategory: category,
		}
		provider, hasProvider := b.providers[ev.ProviderKey]
		if ev.ProviderKey != missingKey && hasProvider {
			meta["provider_id"] = ev.ProviderKey
			meta["related_provider"] = provider.Name
		}
		org, hasOrg := b.organizations[ev.OrganizationKey]
		if ev.OrganizationKey != missingKey && hasOrg {
			meta["organization_id"] = ev.OrganizationKey
			meta["related_organization"] = org.Name
		}
		payer, hasPayer := b.payers[ev.PayerKey]
		if ev.PayerKey != missingKey && hasPayer {
			meta["payer_id"] = ev.PayerKey
			meta["related_payer"] = payer.Name
		}

		// Detailed narrative for semantic search.
		var detail strings.Builder
		fmt.Fprintf(&detail, "%s for Patient %s. ", category, ev.PatientKey)
		if ev.Description != "" {
			fmt.Fprintf(&detail, "Description: %s. ", ev.Description)
		}
		if ev.NumericValue != "" {
			fmt.Fprintf(&detail, "Value: %s %s. ", ev.NumericValue, ev.Units)
		}
		fmt.Fprintf(&detail, "Date: %s. ", ev.DateKey)
		if patient, ok := b.patients[ev.PatientKey]; ok {
			fmt.Fprintf(&detail, "Patient demographics: %s, %s. ", patient.Gender, patient.City)
		}
		if ev.ProviderKey != missingKey && hasProvider {
			fmt.Fprintf(&detail, "Provider: %s (%s). ", provider.Name, provider.Specialty)
		}
		if ev.OrganizationKey != missingKey && hasOrg {
			fmt.Fprintf(&detail, "Organization: %s, %s, %s. ", org.Name, org.City, org.State)
		}
		if ev.PayerKey != missingKey && hasPayer {
			fmt.Fprintf(&detail, "Covered by: %s. ", payer.Name)
		}
		docs = append(docs, newDocument(detail.String(), meta))

		// Short summary for keyword matching.
		summary := fmt.Sprintf("Patient %s had %s on %s.", ev.PatientKey, strings.ToLower(category), ev.DateKey)
		if ev.Description != "" {
			summary += " " + ev.Description
		}
		docs = append(docs, newDocument(summary, meta))
	}

	return docs
}

func (b *builder) patientProfiles() []domain.Document {
	docs := make([]domain.Document, 0, len(b.tables.Patients))

	for _, p := range b.tables.Patients {
		count := b.patientEvents[p.Key]

		var content strings.Builder
		fmt.Fprintf(&content, "Patient %s: %s, born %s, lives in %s, %s %s. ",
			p.Key, p.Gender, p.BirthDate, p.City, p.State, p.Zip)
		if count == 0 {
			content.WriteString("No recorded medical events.")
		} else {
			fmt.Fprintf(&content, "Has %d medical events. ", count)
			if categories := b.patientCategories[p.Key]; len(categories) > 0 {
				capped := categories
				if len(capped) > profileIDListCap {
					capped = capped[:profileIDListCap]
				}
				fmt.Fprintf(&content, "Event types: %s. ", strings.Join(capped, ", "))
			}
		}

		docs = append(docs, newDocument(content.String(), map[string]string{
			domain.MetaSource: "patient_dim",
			"patient_id":      p.Key,
			domain.MetaType:   domain.ActorPatient.ProfileType(),
			"event_count":     fmt.Sprintf("%d", count),
		}))
	}

	return docs
}

func (b *builder) providerProfiles() []domain.Document {
	docs := make([]domain.Document, 0, len(b.tables.Providers))

	for _, p := range b.tables.Providers {
		count := b.providerEvents[p.Key]
		patients := b.providerPatients[p.Key]

		var content strings.Builder
		fmt.Fprintf(&content, "Provider %s: %s, Specialty: %s. ", p.Key, p.Name, p.Specialty)
		fmt.Fprintf(&content, "Treated %d patients with %d total events. ", len(patients), count)
		if len(patients) > 0 {
			fmt.Fprintf(&content, "Patient IDs: %s.", joinCapped(patients, profileIDListCap))
		}

		docs = append(docs, newDocument(content.String(), map[string]string{
			domain.MetaSource: "provider_dim",
			"provider_id":     p.Key,
			domain.MetaType:   domain.ActorProvider.ProfileType(),
			"event_count":     fmt.Sprintf("%d", count),
			"patient_count":   fmt.Sprintf("%d", len(patients)),
		}))
	}

	return docs
}

func (b *builder) organizationProfiles() []domain.Document {
	docs := make([]domain.Document, 0, len(b.tables.Organizations))

	for _, o := range b.tables.Organizations {
		count := b.orgEvents[o.Key]
		patients := b.orgPatients[o.Key]

		var content strings.Builder
		fmt.Fprintf(&content, "Organization %s: %s, Location: %s, %s. ", o.Key, o.Name, o.City, o.State)
		fmt.Fprintf(&content, "Served %d patients with %d total events. ", len(patients), count)
		fmt.Fprintf(&content, "Has %d providers. ", len(b.orgProviders[o.Key]))
		if len(patients) > 0 {
			fmt.Fprintf(&content, "Patient IDs: %s.", joinCapped(patients, profileIDListCap))
		}

		docs = append(docs, newDocument(content.String(), map[string]string{
			domain.MetaSource: "org_dim",
			"organization_id": o.Key,
			domain.MetaType:   domain.ActorOrganization.ProfileType(),
			"event_count":     fmt.Sprintf("%d", count),
			"patient_count":   fmt.Sprintf("%d", len(patients)),
		}))
	}

	return docs
}

func (b *builder) payerProfiles() []domain.Document {
	docs := make([]domain.Document, 0, len(b.tables.Payers))

	for _, p := range b.tables.Payers {
		count := b.payerEvents[p.Key]
		patients := b.payerPatients[p.Key]

		var content strings.Builder
		fmt.Fprintf(&content, "Payer %s: %s. ", p.Key, p.Name)
		fmt.Fprintf(&content, "Covers %d patients with %d total events. ", len(patients), count)
		if len(patients) > 0 {
			fmt.Fprintf(&content, "Patient IDs: %s.", joinCapped(patients, profileIDListCap))
		}

		docs = append(docs, newDocument(content.String(), map[string]string{
			domain.MetaSource: "payer_dim",
			"payer_id":        p.Key,
			domain.MetaType:   domain.ActorPayer.ProfileType(),
			"event_count":     fmt.Sprintf("%d", count),
			"patient_count":   fmt.Sprintf("%d", len(patients)),
		}))
	}

	return docs
}

func newDocument(content string, meta map[string]string) domain.Document {
	copied := make(map[string]string, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return domain.Document{
		ID:       uuid.NewString(),
		Content:  content,
		Metadata: copied,
	}
}

func eventCategory(ev EventRow) string {
	if ev.Category == "" {
		return "Event"
	}
	return ev.Category
}

func appendUnique(list []string, value string) []string {
	if contains(list, value) {
		return list
	}
	return append(list, value)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func joinCapped(list []string, limit int) string {
	if len(list) > limit {
		list = list[:limit]
	}
	return strings.Join(list, ", ")
}
