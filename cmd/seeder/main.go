// cmd/seeder/main.go
//
// Development data seeder. Populates users, suppliers, inventory and a few
// orders through the domain services so derived fields and stock movements
// come out the same way the API produces them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chainflow/chainflow-be/internal/adapters/db"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/core/services"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
	"github.com/chainflow/chainflow-be/internal/pkg/logger"
)

// noopEnqueuer satisfies the task port without a broker; the seeder has no
// worker to deliver alerts to.
type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueLowStockAlert(ctx context.Context, inventoryID uuid.UUID) error {
	return nil
}

func (noopEnqueuer) EnqueueAnalyticsRefresh(ctx context.Context) error {
	return nil
}

func main() {
	var (
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Preview what would be seeded without writing")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "text").Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		fmt.Println("[DRY RUN] would seed 3 users, 3 suppliers, 8 inventory items, 3 orders")
		return
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 5,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	s := &seeder{
		auth: services.NewAuthService(
			db.NewUserRepository(database, slogger),
			cfg.Security.JWTSecret, cfg.Security.JWTExpiration, slogger),
		suppliers: services.NewSupplierService(
			db.NewSupplierRepository(database, slogger),
			db.NewInventoryRepository(database, slogger), slogger),
		inventory: services.NewInventoryService(
			db.NewInventoryRepository(database, slogger),
			db.NewOrderRepository(database, slogger),
			database, noopEnqueuer{}, slogger),
		orders: services.NewOrderService(
			db.NewOrderRepository(database, slogger),
			db.NewInventoryRepository(database, slogger),
			database, slogger),
		logger: slogger,
	}

	if err := s.run(ctx); err != nil {
		slogger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("seeding complete")
}

type seeder struct {
	auth      *services.AuthService
	suppliers *services.SupplierService
	inventory *services.InventoryService
	orders    *services.OrderService
	logger    *slog.Logger
}

func (s *seeder) run(ctx context.Context) error {
	actor, err := s.seedUsers(ctx)
	if err != nil {
		return fmt.Errorf("users: %w", err)
	}

	supplierIDs, err := s.seedSuppliers(ctx, actor)
	if err != nil {
		return fmt.Errorf("suppliers: %w", err)
	}

	items, err := s.seedInventory(ctx, actor, supplierIDs)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}

	if err := s.seedOrders(ctx, actor, supplierIDs, items); err != nil {
		return fmt.Errorf("orders: %w", err)
	}

	return nil
}

func (s *seeder) seedUsers(ctx context.Context) (*ports.Actor, error) {
	seedUsers := []struct {
		name  string
		email string
		role  domain.UserRole
	}{
		{"Ada Admin", "admin@chainflow.local", domain.RoleAdmin},
		{"Marta Manager", "manager@chainflow.local", domain.RoleManager},
		{"Vince Viewer", "viewer@chainflow.local", domain.RoleViewer},
	}

	var actor *ports.Actor
	for _, u := range seedUsers {
		user, _, err := s.auth.Register(ctx, u.name, u.email, "chainflow-dev", u.role)
		if err != nil {
			var dup *domain.DuplicateKeyError
			if asDuplicate(err, &dup) {
				s.logger.Info("user already seeded", slog.String("email", u.email))
				continue
			}
			return nil, err
		}
		s.logger.Info("user created",
			slog.String("email", user.Email),
			slog.String("role", string(user.Role)))
		if u.role == domain.RoleAdmin {
			actor = &ports.Actor{ID: user.ID, Name: user.Name}
		}
	}

	if actor == nil {
		actor = &ports.Actor{ID: uuid.New(), Name: "Seeder"}
	}
	return actor, nil
}

func (s *seeder) seedSuppliers(ctx context.Context, actor *ports.Actor) ([]uuid.UUID, error) {
	seedSuppliers := []*domain.Supplier{
		{
			Code:       "SUP-ACME",
			Name:       "Acme Components",
			Categories: []domain.ItemCategory{domain.CategoryComponents, domain.CategoryRawMaterials},
			ContactPerson: domain.ContactPerson{
				Name:  "Joan Calder",
				Email: "sales@acme-components.test",
				Phone: "+1-555-0101",
			},
			PaymentTerms: domain.TermsNet30,
			Rating:       4,
			Status:       domain.SupplierActive,
		},
		{
			Code:       "SUP-NORD",
			Name:       "Nordwind Packaging",
			Categories: []domain.ItemCategory{domain.CategoryPackaging},
			ContactPerson: domain.ContactPerson{
				Name:  "Erik Holm",
				Email: "orders@nordwind.test",
				Phone: "+46-555-0199",
			},
			PaymentTerms: domain.TermsNet15,
			Rating:       5,
			Status:       domain.SupplierActive,
		},
		{
			Code:       "SUP-GBLT",
			Name:       "Globelt Logistics",
			Categories: []domain.ItemCategory{domain.CategorySupplies},
			ContactPerson: domain.ContactPerson{
				Name:  "Priya Nair",
				Email: "ops@globelt.test",
			},
			PaymentTerms: domain.TermsNet45,
			Rating:       3,
			Status:       domain.SupplierActive,
		},
	}

	ids := make([]uuid.UUID, 0, len(seedSuppliers))
	for _, sup := range seedSuppliers {
		created, err := s.suppliers.CreateSupplier(ctx, sup, actor)
		if err != nil {
			var dup *domain.DuplicateKeyError
			if asDuplicate(err, &dup) {
				s.logger.Info("supplier already seeded", slog.String("code", sup.Code))
				continue
			}
			return nil, err
		}
		ids = append(ids, created.ID)
		s.logger.Info("supplier created", slog.String("code", created.Code))
	}
	return ids, nil
}

func (s *seeder) seedInventory(ctx context.Context, actor *ports.Actor, supplierIDs []uuid.UUID) ([]*domain.InventoryItem, error) {
	supplier := func(i int) *uuid.UUID {
		if len(supplierIDs) == 0 {
			return nil
		}
		id := supplierIDs[i%len(supplierIDs)]
		return &id
	}

	seedItems := []*domain.InventoryItem{
		{
			SKU: "WGT-001", Name: "Widget, standard", Category: domain.CategoryFinishedGoods,
			Quantity: 150, Unit: "pcs", ReorderPoint: 25, ReorderQuantity: 100,
			UnitCost: decimal.RequireFromString("12.50"), SupplierID: supplier(0),
			Warehouse: domain.Warehouse{Location: "Main", Zone: "A", Bin: "A-12"},
		},
		{
			SKU: "WGT-002", Name: "Widget, heavy duty", Category: domain.CategoryFinishedGoods,
			Quantity: 80, Unit: "pcs", ReorderPoint: 20, ReorderQuantity: 60,
			UnitCost: decimal.RequireFromString("21.00"), SupplierID: supplier(0),
			Warehouse: domain.Warehouse{Location: "Main", Zone: "A", Bin: "A-13"},
		},
		{
			SKU: "CMP-STL-01", Name: "Steel bracket", Category: domain.CategoryComponents,
			Quantity: 1200, Unit: "pcs", ReorderPoint: 300, ReorderQuantity: 1000,
			UnitCost: decimal.RequireFromString("0.85"), SupplierID: supplier(0),
			Warehouse: domain.Warehouse{Location: "Main", Zone: "B", Bin: "B-01"},
		},
		{
			SKU: "RAW-AL-6061", Name: "Aluminum sheet 6061", Category: domain.CategoryRawMaterials,
			Quantity: 45, Unit: "sheets", ReorderPoint: 15, ReorderQuantity: 40,
			UnitCost: decimal.RequireFromString("34.20"), SupplierID: supplier(0),
			Warehouse: domain.Warehouse{Location: "Main", Zone: "C"},
		},
		{
			SKU: "PKG-BOX-M", Name: "Shipping box, medium", Category: domain.CategoryPackaging,
			Quantity: 900, Unit: "pcs", ReorderPoint: 250, ReorderQuantity: 1500,
			UnitCost: decimal.RequireFromString("0.42"), SupplierID: supplier(1),
			Warehouse: domain.Warehouse{Location: "Annex", Zone: "P"},
		},
		{
			SKU: "PKG-TAPE", Name: "Packing tape roll", Category: domain.CategoryPackaging,
			Quantity: 18, Unit: "rolls", ReorderPoint: 24, ReorderQuantity: 96,
			UnitCost: decimal.RequireFromString("1.10"), SupplierID: supplier(1),
			Warehouse: domain.Warehouse{Location: "Annex", Zone: "P"},
		},
		{
			SKU: "SUP-GLOVES", Name: "Work gloves", Category: domain.CategorySupplies,
			Quantity: 60, Unit: "pairs", ReorderPoint: 20, ReorderQuantity: 50,
			UnitCost: decimal.RequireFromString("3.75"), SupplierID: supplier(2),
			Warehouse: domain.Warehouse{Location: "Annex", Zone: "S"},
		},
		{
			SKU: "SUP-PALLET", Name: "Wooden pallet", Category: domain.CategorySupplies,
			Quantity: 0, Unit: "pcs", ReorderPoint: 10, ReorderQuantity: 30,
			UnitCost: decimal.RequireFromString("8.90"), SupplierID: supplier(2),
			Warehouse: domain.Warehouse{Location: "Yard"},
		},
	}

	created := make([]*domain.InventoryItem, 0, len(seedItems))
	for _, item := range seedItems {
		out, err := s.inventory.CreateItem(ctx, item, actor)
		if err != nil {
			var dup *domain.DuplicateKeyError
			if asDuplicate(err, &dup) {
				s.logger.Info("item already seeded", slog.String("sku", item.SKU))
				continue
			}
			return nil, err
		}
		created = append(created, out)
		s.logger.Info("inventory item created",
			slog.String("sku", out.SKU),
			slog.String("status", string(out.Status)))
	}
	return created, nil
}

func (s *seeder) seedOrders(ctx context.Context, actor *ports.Actor, supplierIDs []uuid.UUID, items []*domain.InventoryItem) error {
	if len(items) < 2 {
		s.logger.Info("skipping order seed, inventory already present")
		return nil
	}

	orders := []*domain.Order{
		{
			Type:     domain.OrderTypeSales,
			Customer: domain.Customer{Name: "Meridian Retail", Email: "purchasing@meridian.test"},
			Items: []domain.OrderItem{
				{InventoryID: items[0].ID, Quantity: 20, UnitPrice: decimal.RequireFromString("19.99")},
				{InventoryID: items[1].ID, Quantity: 5, UnitPrice: decimal.RequireFromString("32.50")},
			},
			Pricing:  domain.Pricing{Tax: decimal.RequireFromString("38.50"), Currency: "USD"},
			Priority: domain.PriorityHigh,
			Dates:    domain.OrderDates{OrderDate: time.Now()},
		},
		{
			Type:       domain.OrderTypePurchase,
			SupplierID: first(supplierIDs),
			Items: []domain.OrderItem{
				{InventoryID: items[2].ID, Quantity: 1000, UnitPrice: decimal.RequireFromString("0.80")},
			},
			Pricing:  domain.Pricing{Currency: "USD"},
			Priority: domain.PriorityMedium,
			Dates:    domain.OrderDates{OrderDate: time.Now()},
		},
		{
			Type: domain.OrderTypeTransfer,
			Items: []domain.OrderItem{
				{InventoryID: items[3].ID, Quantity: 10, UnitPrice: decimal.Zero},
			},
			Pricing:  domain.Pricing{Currency: "USD"},
			Priority: domain.PriorityLow,
			Notes:    "Main to Annex rebalance",
			Dates:    domain.OrderDates{OrderDate: time.Now()},
		},
	}

	for _, order := range orders {
		created, err := s.orders.CreateOrder(ctx, order, actor)
		if err != nil {
			return err
		}
		s.logger.Info("order created",
			slog.String("number", created.OrderNumber),
			slog.String("type", string(created.Type)))
	}
	return nil
}

func first(ids []uuid.UUID) *uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	return &ids[0]
}

func asDuplicate(err error, target **domain.DuplicateKeyError) bool {
	return errors.As(err, target)
}
