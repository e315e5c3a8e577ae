package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_status') THEN
			CREATE TYPE complaint_status AS ENUM ('pending', 'in_process', 'closed', 'cancelled');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'warranty_status') THEN
			CREATE TYPE warranty_status AS ENUM ('Under Warranty', 'Over Warranty');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'notification_category') THEN
			CREATE TYPE notification_category AS ENUM (
				'assignment', 'status_update', 'status_update_detailed',
				'transport_update', 'checking_update', 'remark_update', 'system'
			);
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id BIGSERIAL PRIMARY KEY,
		report_number VARCHAR(16) NOT NULL,
		customer_id UUID NOT NULL REFERENCES users(id),
		category_id BIGINT NOT NULL REFERENCES complaint_categories(id),
		subcategory_id BIGINT NOT NULL REFERENCES complaint_subcategories(id),
		brand_id BIGINT NOT NULL REFERENCES brands(id),
		warranty_status warranty_status NOT NULL,
		details TEXT NOT NULL,
		warranty_proof_url TEXT,
		receipt_url TEXT,
		status complaint_status NOT NULL DEFAULT 'pending',
		assigned_to UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_report_number_format CHECK (report_number ~ '^[A-Z]+[0-9]{5}$')
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_complaints_report_number ON complaints (report_number);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_customer_id ON complaints (customer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_assigned_to ON complaints (assigned_to);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_report_number_order
		ON complaints (LENGTH(report_number) DESC, report_number DESC);`,
	`CREATE TABLE IF NOT EXISTS complaint_forwards (
		id BIGSERIAL PRIMARY KEY,
		complaint_id BIGINT NOT NULL REFERENCES complaints(id),
		previous_assignee UUID REFERENCES users(id),
		new_assignee UUID NOT NULL REFERENCES users(id),
		forwarded_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_forwards_complaint_id ON complaint_forwards (complaint_id);`,
	`CREATE TABLE IF NOT EXISTS complaint_remarks (
		id BIGSERIAL PRIMARY KEY,
		complaint_id BIGINT NOT NULL REFERENCES complaints(id),
		author_id UUID NOT NULL REFERENCES users(id),
		author_role VARCHAR(32) NOT NULL,
		transport_note TEXT,
		checking_note TEXT,
		remark TEXT,
		status complaint_status,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_remarks_complaint_id ON complaint_remarks (complaint_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		recipient_id UUID NOT NULL,
		recipient_role VARCHAR(32) NOT NULL,
		complaint_id BIGINT REFERENCES complaints(id),
		title VARCHAR(200) NOT NULL,
		message TEXT NOT NULL,
		category notification_category NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient
		ON notifications (recipient_id, recipient_role, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_unread
		ON notifications (recipient_id, recipient_role) WHERE is_read = FALSE;`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_updated_at') THEN
			CREATE TRIGGER trg_complaints_updated_at
				BEFORE UPDATE ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaint_remarks_updated_at') THEN
			CREATE TRIGGER trg_complaint_remarks_updated_at
				BEFORE UPDATE ON complaint_remarks
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
