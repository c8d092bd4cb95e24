package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// TestDataGenerator generates realistic catalog test data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// ============================================================================
// Catalog Item Generation
// ============================================================================

// TestService represents a generated flat-rate service for test fixtures.
type TestService struct {
	ID           uuid.UUID
	Name         string
	Code         string
	Description  string
	Price        *Money
	Cost         *Money
	Hours        float64
	Taxable      bool
	CategoryPath []string
	CreatedAt    time.Time
}

// TestMaterial represents a generated stock material for test fixtures.
type TestMaterial struct {
	ID           uuid.UUID
	Name         string
	Code         string
	Price        *Money
	Cost         *Money
	Unit         string
	Taxable      bool
	CategoryPath []string
}

// Service generates a single random catalog service.
func (g *TestDataGenerator) Service(currency string) TestService {
	cost := g.RandomAmountRange(currency, 20, 800)
	// Markup between 40% and 150% over cost
	price := cost.MarkUp(g.faker.Float64Range(40, 150)).Round(100)

	return TestService{
		ID:           uuid.New(),
		Name:         g.ServiceName(),
		Code:         g.ItemCode(),
		Description:  g.faker.Sentence(8),
		Price:        price,
		Cost:         cost,
		Hours:        g.faker.Float64Range(0.5, 8),
		Taxable:      g.faker.Bool(),
		CategoryPath: g.CategoryPath(),
		CreatedAt:    g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
	}
}

// Services generates multiple random catalog services.
func (g *TestDataGenerator) Services(currency string, count int) []TestService {
	svcs := make([]TestService, count)
	for i := 0; i < count; i++ {
		svcs[i] = g.Service(currency)
	}
	return svcs
}

// Material generates a single random stock material.
func (g *TestDataGenerator) Material(currency string) TestMaterial {
	cost := g.RandomAmountRange(currency, 1, 400)
	price := cost.MarkUp(g.faker.Float64Range(20, 100)).Round(5)

	units := []string{"each", "ft", "box", "roll", "gal", "lb"}

	return TestMaterial{
		ID:           uuid.New(),
		Name:         g.MaterialName(),
		Code:         g.ItemCode(),
		Price:        price,
		Cost:         cost,
		Unit:         units[g.faker.Number(0, len(units)-1)],
		Taxable:      true,
		CategoryPath: g.CategoryPath(),
	}
}

// Materials generates multiple random stock materials.
func (g *TestDataGenerator) Materials(currency string, count int) []TestMaterial {
	mats := make([]TestMaterial, count)
	for i := 0; i < count; i++ {
		mats[i] = g.Material(currency)
	}
	return mats
}

// ============================================================================
// Money Generation
// ============================================================================

// RandomAmount generates a random Money value within a cent range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

// RandomAmountRange generates a random Money value within a dollar range.
func (g *TestDataGenerator) RandomAmountRange(currency string, minDollars, maxDollars float64) *Money {
	amount := g.faker.Float64Range(minDollars, maxDollars)
	return NewFromFloat(amount, currency)
}

// ServiceCallFee generates a typical trip or diagnostic fee ($49-$189).
func (g *TestDataGenerator) ServiceCallFee(currency string) *Money {
	return g.RandomAmountRange(currency, 49, 189)
}

// RepairPrice generates a typical flat-rate repair price ($150-$1,500).
func (g *TestDataGenerator) RepairPrice(currency string) *Money {
	return g.RandomAmountRange(currency, 150, 1500)
}

// InstallPrice generates a typical equipment install price ($1,500-$15,000).
func (g *TestDataGenerator) InstallPrice(currency string) *Money {
	return g.RandomAmountRange(currency, 1500, 15000)
}

// HourlyRate generates a realistic labor rate ($85-$350 per hour).
func (g *TestDataGenerator) HourlyRate(currency string) *Money {
	return g.RandomAmountRange(currency, 85, 350)
}

// ============================================================================
// Name, Code and Category Generation
// ============================================================================

var serviceVerbs = []string{
	"Install", "Replace", "Repair", "Inspect", "Flush", "Clean",
	"Rebuild", "Service", "Test", "Upgrade",
}

var serviceSubjects = []string{
	"Water Heater", "Garbage Disposal", "Kitchen Faucet", "Sump Pump",
	"Pressure Regulator", "Shut-Off Valve", "Toilet", "Shower Valve",
	"Condensate Drain", "Circuit Breaker", "Ceiling Fan", "Smoke Detector",
	"Thermostat", "Air Handler", "Condenser Coil", "Expansion Tank",
}

var materialNames = []string{
	"Copper Pipe 3/4\"", "PVC Elbow 2\"", "Wax Ring", "Ball Valve 1/2\"",
	"Dielectric Union", "Pipe Strap", "Teflon Tape", "Solder Roll",
	"Romex 12/2", "Wire Nut Pack", "Breaker 20A", "Duct Tape Roll",
	"Flex Duct 6\"", "Filter 16x25", "Refrigerant R410A", "Condensate Pump",
}

var categoryPaths = [][]string{
	{"Plumbing", "Water Heaters", "Tank"},
	{"Plumbing", "Water Heaters", "Tankless"},
	{"Plumbing", "Drains", "Kitchen"},
	{"Plumbing", "Fixtures", "Faucets"},
	{"Electrical", "Panels"},
	{"Electrical", "Lighting", "Interior"},
	{"HVAC", "Cooling", "Condensers"},
	{"HVAC", "Heating", "Furnaces"},
}

// ServiceName returns a random flat-rate service name.
func (g *TestDataGenerator) ServiceName() string {
	verb := serviceVerbs[g.faker.Number(0, len(serviceVerbs)-1)]
	subject := serviceSubjects[g.faker.Number(0, len(serviceSubjects)-1)]
	return verb + " " + subject
}

// MaterialName returns a random stock material name.
func (g *TestDataGenerator) MaterialName() string {
	return materialNames[g.faker.Number(0, len(materialNames)-1)]
}

// ItemCode returns a random catalog item code like "PLB-48213".
func (g *TestDataGenerator) ItemCode() string {
	prefixes := []string{"PLB", "ELC", "HVC", "MAT", "SVC"}
	prefix := prefixes[g.faker.Number(0, len(prefixes)-1)]
	return fmt.Sprintf("%s-%s", prefix, g.faker.DigitN(5))
}

// CategoryPath returns a random trade category path.
func (g *TestDataGenerator) CategoryPath() []string {
	path := categoryPaths[g.faker.Number(0, len(categoryPaths)-1)]
	out := make([]string, len(path))
	copy(out, path)
	return out
}

// CategoryPathString returns a random category path joined with " > ".
func (g *TestDataGenerator) CategoryPathString() string {
	return strings.Join(g.CategoryPath(), " > ")
}

// ============================================================================
// Pricing Scenario Generation
// ============================================================================

// PricedJob represents a generated test quote scenario.
type PricedJob struct {
	ID           uuid.UUID
	ServiceName  string
	LaborHours   float64
	LaborRate    *Money
	MaterialCost *Money
	Markup       float64
	Total        *Money
}

// PricedJob generates a quote-style scenario with labor, materials and markup.
func (g *TestDataGenerator) PricedJob(currency string) PricedJob {
	hours := g.faker.Float64Range(0.5, 6)
	rate := g.HourlyRate(currency)
	materials := g.RandomAmountRange(currency, 10, 600)
	markup := g.faker.Float64Range(20, 80)

	labor := rate.Percentage(hours * 100)
	total := labor.MustAdd(materials.MarkUp(markup))

	return PricedJob{
		ID:           uuid.New(),
		ServiceName:  g.ServiceName(),
		LaborHours:   hours,
		LaborRate:    rate,
		MaterialCost: materials,
		Markup:       markup,
		Total:        total,
	}
}

// CatalogSet generates a realistic small catalog for integration-style tests.
func (g *TestDataGenerator) CatalogSet(currency string) ([]TestService, []TestMaterial) {
	return g.Services(currency, g.faker.Number(10, 20)), g.Materials(currency, g.faker.Number(10, 30))
}
