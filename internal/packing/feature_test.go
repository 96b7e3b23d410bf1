package packing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/cucumber/godog"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/db"
	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/store"
)

var errorsByName = map[string]error{
	"NotFound":              model.ErrNotFound,
	"InvalidInput":          model.ErrInvalidInput,
	"InvalidState":          model.ErrInvalidState,
	"InsufficientInventory": model.ErrInsufficientInventory,
}

type packingTestContext struct {
	t          *testing.T
	db         *sqlx.DB
	svc        *Service
	components map[string]int64
	bundles    map[string]int64
	plans      map[string]int64
	validation *model.Validation
	err        error
}

func (c *packingTestContext) reset() {
	c.db = db.NewTestDB(c.t)
	c.svc = NewService(c.db, nil, discardLogger())
	c.components = map[string]int64{}
	c.bundles = map[string]int64{}
	c.plans = map[string]int64{}
	c.validation = nil
	c.err = nil
}

func (c *packingTestContext) theFollowingComponents(table *godog.Table) error {
	ctx := context.Background()
	for _, row := range table.Rows[1:] {
		name := row.Cells[0].Value
		stock, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(row.Cells[2].Value)
		if err != nil {
			return err
		}

		comp, err := store.CreateComponent(ctx, c.db, store.ComponentInput{Name: name, Price: price})
		if err != nil {
			return err
		}
		if stock > 0 {
			if _, err := store.RecordInbound(ctx, c.db, comp.ID, stock, ""); err != nil {
				return err
			}
		}
		c.components[name] = comp.ID
	}
	return nil
}

func (c *packingTestContext) bundleContains(name string, table *godog.Table) error {
	var lines []model.BundleLine
	for _, row := range table.Rows[1:] {
		id, ok := c.components[row.Cells[0].Value]
		if !ok {
			return fmt.Errorf("unknown component %q", row.Cells[0].Value)
		}
		qty, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}
		lines = append(lines, model.BundleLine{ComponentID: id, Quantity: qty})
	}

	b, err := store.CreateBundle(context.Background(), c.db, store.BundleInput{Name: name, Components: lines})
	if err != nil {
		return err
	}
	c.bundles[name] = b.ID
	return nil
}

func (c *packingTestContext) planLines(table *godog.Table) ([]model.PlanLine, error) {
	var lines []model.PlanLine
	for _, row := range table.Rows[1:] {
		id, ok := c.bundles[row.Cells[0].Value]
		if !ok {
			return nil, fmt.Errorf("unknown bundle %q", row.Cells[0].Value)
		}
		qty, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return nil, err
		}
		lines = append(lines, model.PlanLine{BundleID: id, Quantity: qty})
	}
	return lines, nil
}

func (c *packingTestContext) aRestockPlanWith(name string, table *godog.Table) error {
	lines, err := c.planLines(table)
	if err != nil {
		return err
	}
	p, err := store.CreatePlan(context.Background(), c.db, store.PlanInput{Name: name, Bundles: lines})
	if err != nil {
		return err
	}
	c.plans[name] = p.ID
	return nil
}

func (c *packingTestContext) plan(name string) (int64, error) {
	id, ok := c.plans[name]
	if !ok {
		return 0, fmt.Errorf("unknown plan %q", name)
	}
	return id, nil
}

func (c *packingTestContext) iValidatePlan(name string) error {
	id, err := c.plan(name)
	if err != nil {
		return err
	}
	c.validation, c.err = c.svc.ValidatePlan(context.Background(), id)
	return c.err
}

func (c *packingTestContext) iPackPlan(name string) error {
	id, err := c.plan(name)
	if err != nil {
		return err
	}
	_, c.err = c.svc.Pack(context.Background(), id)
	return nil
}

func (c *packingTestContext) iChangePlanTo(name string, qty int, bundle string) error {
	id, err := c.plan(name)
	if err != nil {
		return err
	}
	_, c.err = store.UpdatePlan(context.Background(), c.db, id, store.PlanInput{
		Name:    name,
		Bundles: []model.PlanLine{{BundleID: c.bundles[bundle], Quantity: qty}},
	})
	return nil
}

func (c *packingTestContext) iCreateARestockPlanWith(name string, qty int, bundle string) error {
	p, err := store.CreatePlan(context.Background(), c.db, store.PlanInput{
		Name:    name,
		Bundles: []model.PlanLine{{BundleID: c.bundles[bundle], Quantity: qty}},
	})
	c.err = err
	if err == nil {
		c.plans[name] = p.ID
	}
	return nil
}

func (c *packingTestContext) thePlanIsValid() error {
	if c.validation == nil || !c.validation.Valid {
		return fmt.Errorf("expected a valid plan, got %+v", c.validation)
	}
	return nil
}

func (c *packingTestContext) thePlanIsInvalidWithAShortageOfFor(shortage int, component string) error {
	if c.validation == nil || c.validation.Valid {
		return fmt.Errorf("expected an invalid plan, got %+v", c.validation)
	}
	for _, s := range c.validation.Shortages {
		if s.ID == c.components[component] {
			if s.Shortage != shortage {
				return fmt.Errorf("expected shortage %d for %s, got %d", shortage, component, s.Shortage)
			}
			return nil
		}
	}
	return fmt.Errorf("no shortage reported for %s", component)
}

func (c *packingTestContext) requiresWithAvailable(component string, required, available int) error {
	for _, r := range c.validation.Requirements {
		if r.ID == c.components[component] {
			if r.Required != required || r.Available != available {
				return fmt.Errorf("expected %d of %d, got %d of %d", required, available, r.Required, r.Available)
			}
			return nil
		}
	}
	return fmt.Errorf("no requirement for %s", component)
}

func (c *packingTestContext) packingSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected pack to succeed, got %v", c.err)
	}
	return nil
}

func (c *packingTestContext) failsWith(name string) error {
	want, ok := errorsByName[name]
	if !ok {
		return fmt.Errorf("unknown error class %q", name)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %s, got %v", name, c.err)
	}
	return nil
}

func (c *packingTestContext) componentHasStock(name string, stock int) error {
	comp, err := store.GetComponent(context.Background(), c.db, c.components[name])
	if err != nil {
		return err
	}
	if comp.StockQuantity != stock {
		return fmt.Errorf("expected %s stock %d, got %d", name, stock, comp.StockQuantity)
	}
	return nil
}

func (c *packingTestContext) planIs(name, status string) error {
	id, err := c.plan(name)
	if err != nil {
		return err
	}
	p, err := store.GetPlan(context.Background(), c.db, id)
	if err != nil {
		return err
	}
	if string(p.Status) != status {
		return fmt.Errorf("expected plan %s to be %s, got %s", name, status, p.Status)
	}
	return nil
}

func (c *packingTestContext) planHasOutboundRecords(name string, n int) error {
	id, err := c.plan(name)
	if err != nil {
		return err
	}
	records, err := store.PlanOutbound(context.Background(), c.db, id)
	if err != nil {
		return err
	}
	if len(records) != n {
		return fmt.Errorf("expected %d outbound records, got %d", n, len(records))
	}
	return nil
}

func (c *packingTestContext) theOutboundRecordForHasQuantity(component string, qty int) error {
	records, err := store.ListOutbound(context.Background(), c.db, c.components[component])
	if err != nil {
		return err
	}
	if len(records) != 1 || records[0].Quantity != qty {
		return fmt.Errorf("expected one record of %d for %s, got %+v", qty, component, records)
	}
	return nil
}

func (c *packingTestContext) planHasOf(name string, qty int, bundle string) error {
	id, err := c.plan(name)
	if err != nil {
		return err
	}
	p, err := store.GetPlan(context.Background(), c.db, id)
	if err != nil {
		return err
	}
	if len(p.Bundles) != 1 || p.Bundles[0].BundleID != c.bundles[bundle] || p.Bundles[0].Quantity != qty {
		return fmt.Errorf("expected %d of %s, got %+v", qty, bundle, p.Bundles)
	}
	return nil
}

func (c *packingTestContext) thereIsNoPlan(name string) error {
	if _, ok := c.plans[name]; ok {
		return fmt.Errorf("plan %q was created", name)
	}
	plans, err := store.ListPlans(context.Background(), c.db)
	if err != nil {
		return err
	}
	for _, p := range plans {
		if p.Name == name {
			return fmt.Errorf("plan %q was stored", name)
		}
	}
	return nil
}

func initializeScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &packingTestContext{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		// Given steps
		ctx.Step(`^the following components:$`, tc.theFollowingComponents)
		ctx.Step(`^bundle "([^"]*)" contains:$`, tc.bundleContains)
		ctx.Step(`^a restock plan "([^"]*)" with:$`, tc.aRestockPlanWith)

		// When steps
		ctx.Step(`^I validate plan "([^"]*)"$`, tc.iValidatePlan)
		ctx.Step(`^I pack plan "([^"]*)"$`, tc.iPackPlan)
		ctx.Step(`^I change plan "([^"]*)" to (\d+) of "([^"]*)"$`, tc.iChangePlanTo)
		ctx.Step(`^I create a restock plan "([^"]*)" with (\d+) of "([^"]*)"$`, tc.iCreateARestockPlanWith)

		// Then steps
		ctx.Step(`^the plan is valid$`, tc.thePlanIsValid)
		ctx.Step(`^the plan is invalid with a shortage of (\d+) for "([^"]*)"$`, tc.thePlanIsInvalidWithAShortageOfFor)
		ctx.Step(`^"([^"]*)" requires (\d+) with (\d+) available$`, tc.requiresWithAvailable)
		ctx.Step(`^packing succeeds$`, tc.packingSucceeds)
		ctx.Step(`^packing fails with (\w+)$`, tc.failsWith)
		ctx.Step(`^the change fails with (\w+)$`, tc.failsWith)
		ctx.Step(`^component "([^"]*)" has stock (\d+)$`, tc.componentHasStock)
		ctx.Step(`^plan "([^"]*)" is (PACKING|PACKED)$`, tc.planIs)
		ctx.Step(`^plan "([^"]*)" has (\d+) outbound records?$`, tc.planHasOutboundRecords)
		ctx.Step(`^the outbound record for "([^"]*)" has quantity (\d+)$`, tc.theOutboundRecordForHasQuantity)
		ctx.Step(`^plan "([^"]*)" has (\d+) of "([^"]*)"$`, tc.planHasOf)
		ctx.Step(`^there is no plan "([^"]*)"$`, tc.thereIsNoPlan)
	}
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/packing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
