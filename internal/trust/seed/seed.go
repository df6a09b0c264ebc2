// Package seed bootstraps demo profiles and agreements from YAML fixtures.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	rental "briq/internal/rental/models"
	"briq/internal/rental/service"
	"briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
	"briq/pkg/platform/sentinel"
)

// Fixtures is the document read by LoadFile.
type Fixtures struct {
	Profiles   []Profile   `yaml:"profiles"`
	Agreements []Agreement `yaml:"agreements"`
}

type Profile struct {
	Address    string         `yaml:"address"`
	UserType   string         `yaml:"user_type"`
	Payments   []Payment      `yaml:"payments"`
	Scores     map[string]int `yaml:"scores"`
	Incidents  map[string]int `yaml:"incidents"`
	Properties []Property     `yaml:"properties"`
	License    string         `yaml:"license"`
}

type Payment struct {
	PropertyID string `yaml:"property_id"`
	Amount     string `yaml:"amount"`
	OnTime     bool   `yaml:"on_time"`
}

type Property struct {
	PropertyID                 string  `yaml:"property_id"`
	MaintenanceResponseHours   float64 `yaml:"maintenance_response_hours"`
	MaintenanceCompletionHours float64 `yaml:"maintenance_completion_hours"`
	PropertyConditionScore     int     `yaml:"property_condition_score"`
}

type Agreement struct {
	PropertyID  string    `yaml:"property_id"`
	Landlord    string    `yaml:"landlord"`
	Tenant      string    `yaml:"tenant"`
	MonthlyRent string    `yaml:"monthly_rent"`
	Deposit     string    `yaml:"deposit"`
	StartDate   time.Time `yaml:"start_date"`
	Nonce       string    `yaml:"nonce"`
	Signature   string    `yaml:"signature"`
}

// Terms converts the fixture to agreement terms.
func (a Agreement) Terms() rental.Terms {
	return rental.Terms{
		PropertyID:  a.PropertyID,
		Landlord:    a.Landlord,
		Tenant:      a.Tenant,
		MonthlyRent: models.Amount(a.MonthlyRent),
		Deposit:     models.Amount(a.Deposit),
		StartDate:   a.StartDate,
		Nonce:       a.Nonce,
	}
}

// Load decodes fixtures. Unknown keys are rejected.
func Load(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixtures
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// LoadFile reads fixtures from path.
func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Ledger is the subset of the recorder the seeder drives.
type Ledger interface {
	Initialize(ctx context.Context, address string, userType models.UserType) (*models.Profile, error)
	SimulatePayment(ctx context.Context, address, propertyID string, amount models.Amount, onTime bool) (*models.Profile, error)
	AdjustBehavioralScore(ctx context.Context, address string, dim models.Dimension, value int) (*models.Profile, error)
	RecordIncident(ctx context.Context, address string, incident models.Incident) (*models.Profile, error)
	RecordPropertyManaged(ctx context.Context, address string, rec models.PropertyManagementRecord) (*models.Profile, error)
	SetLicenseStatus(ctx context.Context, address string, status models.LicenseStatus) (*models.Profile, error)
}

// Agreements registers seeded rentals.
type Agreements interface {
	Draft(terms rental.Terms) (*service.Draft, error)
	Propose(ctx context.Context, p service.Proposal) (*service.Outcome, error)
}

// Result counts what a seeding run changed.
type Result struct {
	Profiles   int
	Skipped    int
	Events     int
	Agreements int
	Degraded   int
}

type Seeder struct {
	ledger     Ledger
	agreements Agreements
	logger     *slog.Logger
}

func New(ledger Ledger, agreements Agreements, logger *slog.Logger) *Seeder {
	return &Seeder{ledger: ledger, agreements: agreements, logger: logger}
}

// Apply records every fixture. Profiles that already exist are skipped with
// their events, so reseeding the same file is harmless.
func (s *Seeder) Apply(ctx context.Context, f *Fixtures) (Result, error) {
	var res Result
	for _, p := range f.Profiles {
		created, events, err := s.profile(ctx, p)
		if err != nil {
			return res, fmt.Errorf("seed profile %s: %w", p.Address, err)
		}
		if !created {
			res.Skipped++
			continue
		}
		res.Profiles++
		res.Events += events
	}
	for _, a := range f.Agreements {
		degraded, err := s.agreement(ctx, a)
		if err != nil {
			return res, fmt.Errorf("seed agreement for %s: %w", a.PropertyID, err)
		}
		res.Agreements++
		if degraded {
			res.Degraded++
		}
	}
	s.logger.InfoContext(ctx, "fixtures applied",
		"profiles", res.Profiles,
		"skipped", res.Skipped,
		"events", res.Events,
		"agreements", res.Agreements,
		"degraded", res.Degraded,
	)
	return res, nil
}

func (s *Seeder) profile(ctx context.Context, p Profile) (bool, int, error) {
	userType, err := models.ParseUserType(p.UserType)
	if err != nil {
		return false, 0, err
	}
	_, err = s.ledger.Initialize(ctx, p.Address, userType)
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		s.logger.DebugContext(ctx, "profile exists, skipping", "address", p.Address)
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	events := 0
	for _, pay := range p.Payments {
		if _, err := s.ledger.SimulatePayment(ctx, p.Address, pay.PropertyID, models.Amount(pay.Amount), pay.OnTime); err != nil {
			return true, events, err
		}
		events++
	}
	for name, value := range p.Scores {
		dim, err := models.ParseDimension(name)
		if err != nil {
			return true, events, err
		}
		if _, err := s.ledger.AdjustBehavioralScore(ctx, p.Address, dim, value); err != nil {
			return true, events, err
		}
		events++
	}
	for name, count := range p.Incidents {
		incident, err := models.ParseIncident(name)
		if err != nil {
			return true, events, err
		}
		for range count {
			if _, err := s.ledger.RecordIncident(ctx, p.Address, incident); err != nil {
				return true, events, err
			}
			events++
		}
	}
	for _, prop := range p.Properties {
		if _, err := s.ledger.RecordPropertyManaged(ctx, p.Address, models.PropertyManagementRecord(prop)); err != nil {
			return true, events, err
		}
		events++
	}
	if p.License != "" {
		status, err := models.ParseLicenseStatus(p.License)
		if err != nil {
			return true, events, err
		}
		if _, err := s.ledger.SetLicenseStatus(ctx, p.Address, status); err != nil {
			return true, events, err
		}
		events++
	}
	return true, events, nil
}

func (s *Seeder) agreement(ctx context.Context, a Agreement) (bool, error) {
	if a.Nonce == "" {
		return false, dErrors.New(dErrors.CodeValidation, "seeded agreements need a nonce to stay replayable")
	}
	d, err := s.agreements.Draft(a.Terms())
	if err != nil {
		return false, err
	}
	signature := a.Signature
	if signature == "" {
		signature = "seed"
	}
	out, err := s.agreements.Propose(ctx, service.Proposal{Terms: d.Terms, Hash: d.Hash, Signature: signature})
	if err != nil {
		return false, err
	}
	return out.Degraded, nil
}
