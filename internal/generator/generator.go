// Package generator synthesises the three raw exports the pipeline
// ingests, with the mess the real ones carry: mixed scripts, European
// decimals, Excel formula wrappers, missing-value sentinels, duplicate rows
// and mis-decoded text.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// Dataset holds the generated exports as raw CSV rows, headers included.
type Dataset struct {
	CRM      [][]string
	Payments [][]string
	Verified [][]string
}

// Generator produces deterministic synthetic exports for a given seed.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumTransactions <= 0 {
		cfg.NumTransactions = def.NumTransactions
	}
	if cfg.MatchedShare <= 0 {
		cfg.MatchedShare = def.MatchedShare
	}
	if cfg.GreekShare <= 0 {
		cfg.GreekShare = def.GreekShare
	}
	if cfg.VerifiedShare <= 0 {
		cfg.VerifiedShare = def.VerifiedShare
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Generator{cfg: cfg, rand: rand.New(rand.NewSource(cfg.Seed))}
}

// identity is one synthetic customer, known in both scripts.
type identity struct {
	id         string
	latinName  string
	greekName  string
	email      string
	company    string
	tier       string
	status     string
	registered time.Time
	activity   time.Time
	hasEmail   bool
	hasDates   bool
	payments   float64
	recipes    int
}

var namePairs = [][2]string{
	{"Nikos Bakalis", "Νίκος Μπακαλής"},
	{"Maria Papadopoulou", "Μαρία Παπαδοπούλου"},
	{"Giorgos Alexiou", "Γιώργος Αλεξίου"},
	{"Eleni Dimitriou", "Ελένη Δημητρίου"},
	{"Kostas Antoniou", "Κώστας Αντωνίου"},
	{"Sofia Nikolaou", "Σοφία Νικολάου"},
	{"Dimitris Georgiou", "Δημήτρης Γεωργίου"},
	{"Anna Ioannou", "Άννα Ιωάννου"},
	{"Petros Vasileiou", "Πέτρος Βασιλείου"},
	{"Katerina Marinou", "Κατερίνα Μαρίνου"},
}

var companySuffixes = []string{"", "Estiatorio", "Catering", "Taverna", "IKE", "EPE"}

var tiers = []string{"Beginner", "Beginner", "Professional", "Expert"}

var paidStatuses = []string{"Εγκεκριμένη", "Ολοκληρωμένη", "paid", "completed"}
var otherStatuses = []string{"Αποτυχημένη", "Εκκρεμής", "Επιστροφή", "failed", "pending"}

var crmHeader = []string{
	"User id", "Fullname", "Email", "Company", "License", "ExpirationDate",
	"License status", "Last activity date", "Recipe count", "Ingredients count",
	"Menus count", "Distributors count", "Registration date", "Total payments amount",
}

var paymentsHeader = []string{"Ημ/νία", "Ποσό", "Κωδ. Συν/γης (Viva)", "Περιγραφή Πελάτη", "E-mail", "Κατάσταση"}

var verifiedHeader = []string{"email", "full name", "license", "paid through"}

// Generate synthesises the three exports. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	now := time.Now().UTC()
	identities := make([]identity, g.cfg.NumUsers)
	for i := range identities {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		identities[i] = g.makeIdentity(i, now)
	}

	ds := Dataset{
		CRM:      [][]string{crmHeader},
		Payments: [][]string{paymentsHeader},
		Verified: [][]string{verifiedHeader},
	}

	for _, id := range identities {
		row := g.crmRow(id)
		ds.CRM = append(ds.CRM, row)
		if g.chance(g.cfg.DuplicateShare) {
			ds.CRM = append(ds.CRM, row)
		}
		if g.chance(g.cfg.VerifiedShare) && id.hasEmail {
			ds.Verified = append(ds.Verified, []string{
				id.email, id.latinName, id.tier, formatDate(id.activity.AddDate(1, 0, 0)),
			})
		}
	}

	for i := 0; i < g.cfg.NumTransactions; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		row := g.paymentRow(i, identities, now)
		ds.Payments = append(ds.Payments, row)
		if g.chance(g.cfg.DuplicateShare) {
			ds.Payments = append(ds.Payments, row)
		}
	}

	return ds, nil
}

func (g *Generator) makeIdentity(i int, now time.Time) identity {
	pair := namePairs[g.rand.Intn(len(namePairs))]
	id := identity{
		id:         fmt.Sprintf("CU-%05d", i+1),
		latinName:  pair[0],
		greekName:  pair[1],
		tier:       tiers[g.rand.Intn(len(tiers))],
		hasEmail:   g.rand.Float64() > 0.1,
		hasDates:   g.rand.Float64() > 0.15,
		registered: now.AddDate(0, 0, -g.rand.Intn(900)),
	}
	id.email = fmt.Sprintf("user%d@example.gr", i+1)
	if suffix := companySuffixes[g.rand.Intn(len(companySuffixes))]; suffix != "" {
		id.company = strings.Fields(id.latinName)[1] + " " + suffix
	}
	id.activity = id.registered.AddDate(0, 0, g.rand.Intn(400))
	if id.activity.After(now) {
		id.activity = now
	}
	if g.rand.Float64() > 0.3 {
		id.status = "Active"
	} else {
		id.status = "Expired"
	}
	if g.rand.Float64() > 0.4 {
		id.payments = float64(g.rand.Intn(200000)) / 100
	}
	id.recipes = g.rand.Intn(80)
	return id
}

func (g *Generator) crmRow(id identity) []string {
	email := id.email
	if !id.hasEmail {
		email = "N/A"
	}
	registered, activity := "Unknown", ""
	if id.hasDates {
		registered = formatDate(id.registered)
		activity = formatDate(id.activity)
	}
	expiration := formatDate(id.registered.AddDate(1, 0, 0))

	return []string{
		// Some CRM exports wrap identifiers in Excel formulas to stop
		// spreadsheet software from mangling them.
		fmt.Sprintf("=%q", id.id),
		id.latinName,
		email,
		id.company,
		id.tier,
		expiration,
		id.status,
		activity,
		fmt.Sprint(id.recipes),
		fmt.Sprint(g.rand.Intn(300)),
		fmt.Sprint(g.rand.Intn(40)),
		fmt.Sprint(g.rand.Intn(15)),
		registered,
		euAmount(id.payments),
	}
}

func (g *Generator) paymentRow(i int, identities []identity, now time.Time) []string {
	amount := float64(g.rand.Intn(50000)+500) / 100
	status := paidStatuses[g.rand.Intn(len(paidStatuses))]
	if g.rand.Float64() < 0.15 {
		status = otherStatuses[g.rand.Intn(len(otherStatuses))]
	}

	name := "Passing Customer"
	email := ""
	if g.chance(g.cfg.MatchedShare) {
		id := identities[g.rand.Intn(len(identities))]
		name = id.latinName
		if g.chance(g.cfg.GreekShare) {
			name = id.greekName
		}
		if id.hasEmail && g.rand.Float64() > 0.3 {
			email = id.email
		}
	}
	if g.chance(g.cfg.MojibakeShare) {
		name = corrupt(name)
	}

	return []string{
		formatDate(now.AddDate(0, 0, -g.rand.Intn(700))),
		euAmount(amount),
		fmt.Sprintf("VIVA-%07d", i+1),
		name,
		email,
		status,
	}
}

func (g *Generator) chance(p float64) bool {
	return p > 0 && g.rand.Float64() < p
}

// corrupt reinterprets the UTF-8 bytes as Windows-1252, reproducing the
// mis-decoding signature of the legacy export pipeline.
func corrupt(s string) string {
	garbled, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return garbled
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// euAmount renders the European decimal format the exports use
// ("1.234,56").
func euAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.ReplaceAll(s, ".", ",")
	whole := strings.Split(s, ",")[0]
	if len(whole) > 3 {
		s = whole[:len(whole)-3] + "." + whole[len(whole)-3:] + s[len(whole):]
	}
	return s
}
