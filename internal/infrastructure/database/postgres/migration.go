// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/inventory"
	"github.com/your-org/breakroom-backend/internal/domain/invoice"
	"github.com/your-org/breakroom-backend/internal/domain/issue"
	"github.com/your-org/breakroom-backend/internal/domain/order"
	"github.com/your-org/breakroom-backend/internal/domain/quote"
	"github.com/your-org/breakroom-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: referenced tables first
	models := []interface{}{
		&user.User{},

		&catalog.Product{},

		&order.Order{},
		&order.OrderItem{},

		&inventory.Item{},
		&inventory.ScanRecord{},

		&invoice.Invoice{},
		&invoice.InvoiceItem{},

		&issue.Report{},
		&quote.Request{},

		&audit.Entry{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_orders_customer_status ON orders(customer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_inventory_items_batch ON inventory_items(batch_number)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_scans_item_id ON inventory_scans(item_id, id)",

		"CREATE INDEX IF NOT EXISTS idx_invoices_customer_created ON invoices(customer_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_is_sent ON invoices(is_sent)",

		"CREATE INDEX IF NOT EXISTS idx_audit_logs_action_created ON audit_logs(action, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)",
	}

	successCount := 0
	failCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData creates the initial admin account and a starter catalog
// in development environments
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var count int64
	if err := m.db.Model(&user.User{}).Where("role = ?", user.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if count == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		admin := user.User{
			Name:     "Administrator",
			Email:    "admin@doyles.com",
			Password: string(hashed),
			Role:     user.RoleAdmin,
			IsActive: true,
		}
		if err := m.db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		log.Println("Seeded default admin user (admin@doyles.com)")
	}

	if err := m.db.Model(&catalog.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product count: %w", err)
	}
	if count == 0 {
		products := []catalog.Product{
			{Name: "House Blend Coffee", Category: "Coffee", Price: 1499, Stock: 120, Unit: "bag", Description: "Medium roast, 12oz ground"},
			{Name: "Dark Roast Coffee", Category: "Coffee", Price: 1599, Stock: 80, Unit: "bag", Description: "Bold dark roast, 12oz whole bean"},
			{Name: "Paper Cups 12oz", Category: "Supplies", Price: 899, Stock: 200, Unit: "case", Description: "Case of 500 cups"},
			{Name: "Creamer Singles", Category: "Supplies", Price: 649, Stock: 150, Unit: "box", Description: "Box of 180 singles"},
		}
		if err := m.db.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		log.Printf("Seeded %d starter products", len(products))
	}

	log.Println("✅ Initial data seeding completed")
	return nil
}

// GetTableInfo logs row counts for the main tables (development helper)
func (m *Migration) GetTableInfo() {
	tables := []string{
		"users", "products", "orders", "order_items",
		"inventory_items", "inventory_scans",
		"invoices", "invoice_items",
		"issue_reports", "quote_requests", "audit_logs",
	}
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("Table %s: error counting rows: %v", table, err)
			continue
		}
		log.Printf("Table %s: %d rows", table, count)
	}
}
