package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is applied in order by EnsureSchema.  Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(190) NOT NULL UNIQUE,
		student_id VARCHAR(20) NULL UNIQUE,
		phone VARCHAR(20) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('admin','user','food_authority') NOT NULL DEFAULT 'user',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS cafes (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL,
		location VARCHAR(200) NOT NULL DEFAULT '',
		image VARCHAR(255) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		cafe_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(50) NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL,
		image VARCHAR(255) NOT NULL DEFAULT '',
		is_available TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (cafe_id) REFERENCES cafes(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		cafe_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_cents BIGINT NOT NULL,
		delivery_address VARCHAR(255) NOT NULL,
		contact_number VARCHAR(20) NOT NULL,
		payment_method VARCHAR(20) NOT NULL DEFAULT 'cash',
		jazzcash_tid VARCHAR(50) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT UNSIGNED NOT NULL,
		menu_item_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(100) NOT NULL,
		quantity INT NOT NULL,
		price_cents BIGINT NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		sender_id BIGINT UNSIGNED NOT NULL,
		cafe_id BIGINT UNSIGNED NULL,
		subject VARCHAR(150) NOT NULL,
		message TEXT NOT NULL,
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	reportTable("lost_items"),
	reportTable("found_items"),
	`CREATE TABLE IF NOT EXISTS entries (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(120) NOT NULL,
		content TEXT NOT NULL,
		mood VARCHAR(16) NOT NULL,
		image_url VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
}

func reportTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL,
		location VARCHAR(200) NOT NULL,
		date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		image_url VARCHAR(255) NOT NULL DEFAULT '',
		reporter_name VARCHAR(100) NOT NULL DEFAULT '',
		reporter_phone VARCHAR(20) NOT NULL DEFAULT '',
		reporter_email VARCHAR(190) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_%s_name (name),
		INDEX idx_%s_created (created_at)
	)`, name, name, name)
}

// EnsureSchema creates any missing table.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
