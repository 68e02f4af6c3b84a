package normalize

import (
	"io"

	"github.com/costomenu/reconcile/internal/domain"
)

// SourceCRM identifies the CRM export in errors and report counts.
const SourceCRM = "crm"

var crmSynonyms = map[string][]string{
	"user id":           {"user id", "userid", "id"},
	"full name":         {"fullname", "full name", "name"},
	"email":             {"email", "e-mail"},
	"company":           {"company"},
	"license":           {"license", "license type"},
	"expiration date":   {"expirationdate", "expiration date", "license expiration"},
	"license status":    {"license status", "status"},
	"last activity":     {"last activity date", "last activity"},
	"recipe count":      {"recipe count", "recipes"},
	"ingredients count": {"ingredients count", "ingredients"},
	"menus count":       {"menus count", "menus"},
	"distributors count": {"distributors count", "distributors"},
	"registration date": {"registration date", "registered"},
	"total payments":    {"total payments amount", "total payments", "ltv"},
}

// CRMResult is the normalizer output for the CRM export.
type CRMResult struct {
	Users    []domain.UserRecord
	Problems []domain.RowProblem
	Counts   domain.SourceCounts
}

// ReadCRM normalizes the CRM export into canonical UserRecords. Rows that
// cannot be normalized are recorded as problems, never silently dropped and
// never fatal to the run.
func ReadCRM(r io.Reader) (CRMResult, error) {
	t, err := readTable(r, SourceCRM, crmSynonyms, []string{"user id"})
	if err != nil {
		return CRMResult{}, err
	}

	res := CRMResult{Counts: domain.SourceCounts{Source: SourceCRM, TotalRows: len(t.rows)}}
	seen := make(map[string]struct{}, len(t.rows))

	for i, row := range t.rows {
		line := i + 2 // 1-based, after the header
		user, rowErr := normalizeCRMRow(t, row, line)
		if rowErr != nil {
			res.Problems = append(res.Problems, domain.RowProblem{
				Source: rowErr.Source, Line: rowErr.Line, Field: rowErr.Field, Reason: rowErr.Reason,
			})
			res.Counts.MalformedRows++
			continue
		}
		if _, dup := seen[user.UserID]; dup {
			res.Counts.DuplicateRows++
			continue
		}
		seen[user.UserID] = struct{}{}
		res.Users = append(res.Users, user)
		res.Counts.ParsedRows++
	}
	return res, nil
}

func normalizeCRMRow(t *table, row []string, line int) (domain.UserRecord, *MalformedRowError) {
	id := SanitizeString(t.field(row, "user id"))
	if IsMissing(id) {
		return domain.UserRecord{}, malformed(SourceCRM, line, "user id", "missing identifier")
	}

	payments, _, err := ParseAmount(t.field(row, "total payments"))
	if err != nil {
		return domain.UserRecord{}, malformed(SourceCRM, line, "total payments", err.Error())
	}

	usage := domain.UsageCounts{}
	for _, c := range []struct {
		col string
		dst *int
	}{
		{"recipe count", &usage.Recipes},
		{"ingredients count", &usage.Ingredients},
		{"menus count", &usage.Menus},
		{"distributors count", &usage.Distributors},
	} {
		n, err := ParseCount(t.field(row, c.col))
		if err != nil {
			return domain.UserRecord{}, malformed(SourceCRM, line, c.col, err.Error())
		}
		*c.dst = n
	}

	company := SanitizeString(t.field(row, "company"))
	if IsMissing(company) {
		company = ""
	}

	return domain.UserRecord{
		UserID:            id,
		Source:            SourceCRM,
		FullName:          SanitizeString(t.field(row, "full name")),
		Email:             NormalizeEmail(t.field(row, "email")),
		Company:           company,
		LicenseTier:       ParseTier(t.field(row, "license")),
		LicenseStatus:     ParseLicenseStatus(t.field(row, "license status")),
		ExpirationDate:    ParseDate(t.field(row, "expiration date")),
		RegistrationDate:  ParseDate(t.field(row, "registration date")),
		LastActivityDate:  ParseDate(t.field(row, "last activity")),
		Usage:             usage,
		CRMStatedPayments: payments,
	}, nil
}
