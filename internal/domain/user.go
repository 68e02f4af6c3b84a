package domain

// LicenseTier is the license segment a customer holds.
type LicenseTier string

const (
	TierBeginner     LicenseTier = "Beginner"
	TierProfessional LicenseTier = "Professional"
	TierExpert       LicenseTier = "Expert"
	TierUnknown      LicenseTier = "Unknown"
)

// LicenseStatus is the CRM-stated status of the license.
type LicenseStatus string

const (
	LicenseActive  LicenseStatus = "Active"
	LicenseExpired LicenseStatus = "Expired"
	LicenseUnknown LicenseStatus = "Unknown"
)

// HealthState is the derived behavioural state of a user.
type HealthState string

const (
	HealthActive  HealthState = "Active"
	HealthDormant HealthState = "Dormant"
	HealthAtRisk  HealthState = "AtRisk"
	HealthUnknown HealthState = "Unknown"
)

// UsageCounts groups the product usage counters from the CRM export.
type UsageCounts struct {
	Recipes      int `json:"recipes"`
	Ingredients  int `json:"ingredients"`
	Menus        int `json:"menus"`
	Distributors int `json:"distributors"`
}

// UserRecord is the canonical user entity produced by the normalizer.
// Records are immutable once built; derived fields (HealthState,
// MatchedPayments) are computed by later stages onto copies.
type UserRecord struct {
	UserID   string `json:"userId"`
	Source   string `json:"source"`
	FullName string `json:"fullName"`
	Email    string `json:"email"` // normalized lower-case, trimmed; "" when absent
	Company  string `json:"company"`

	LicenseTier    LicenseTier   `json:"licenseTier"`
	LicenseStatus  LicenseStatus `json:"licenseStatus"`
	ExpirationDate Date          `json:"expirationDate"`

	RegistrationDate Date `json:"registrationDate"`
	LastActivityDate Date `json:"lastActivityDate"`

	Usage UsageCounts `json:"usage"`

	// CRMStatedPayments is the cumulative total the CRM export claims.
	// MatchedPayments is the sum of paid transactions the matcher linked to
	// this user. The two measure different things and are never summed.
	CRMStatedPayments float64 `json:"crmStatedPayments"`
	MatchedPayments   float64 `json:"matchedPayments"`

	HealthState      HealthState `json:"healthState"`
	HealthDiagnostic string      `json:"healthDiagnostic,omitempty"`
}

// VerifiedIdentity is one row of the ground-truth table of verified paid
// active licenses (the relational dump). It is used only for cross-checking,
// never as the primary identity source.
type VerifiedIdentity struct {
	Email       string      `json:"email"`
	FullName    string      `json:"fullName"`
	LicenseTier LicenseTier `json:"licenseTier"`
	PaidThrough Date        `json:"paidThrough"`

	// MatchedUserID is set when the identity matcher linked this row to a
	// CRM user.
	MatchedUserID string `json:"matchedUserId,omitempty"`
}
