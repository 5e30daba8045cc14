package database

import (
	"testing"

	"github.com/Visionatedigital/M-and-T/models"
)

func TestInitializeSqliteMigratesEveryTable(t *testing.T) {
	db, err := Initialize("sqlite", "file:TestInitialize?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	for _, table := range []string{
		"users", "profiles", "user_roles", "territories", "branches",
		"loan_products", "loan_applications", "collateral", "collateral_insurance",
		"conversations", "chat_messages", "audit_logs",
	} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("Expected table %s to exist", table)
		}
	}
	if !db.Migrator().HasColumn(&models.LoanApplication{}, "rejection_reason") {
		t.Error("Expected loan_applications.rejection_reason")
	}
}

func TestInitializeUnknownDriver(t *testing.T) {
	if _, err := Initialize("mysql", "", false); err == nil {
		t.Error("Expected an error for an unsupported driver")
	}
}
