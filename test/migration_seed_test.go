package test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"stride/internal/config"
	"stride/internal/database"
	"stride/internal/models"
	"stride/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/gorm"
)

type pgEnv struct {
	host string
	port string
	user string
	pass string
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func readPGEnv() pgEnv {
	return pgEnv{
		host: getEnvOrDefault("DB_HOST", "localhost"),
		port: getEnvOrDefault("DB_PORT", "5432"),
		user: getEnvOrDefault("DB_USER", "user"),
		pass: getEnvOrDefault("DB_PASSWORD", "password"),
	}
}

func maintenanceDSN(cfg pgEnv, dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", cfg.user, cfg.pass, cfg.host, cfg.port, dbName)
}

// createEphemeralDB provisions a throwaway database over the pgx stdlib
// driver and registers cleanup to drop it.
func createEphemeralDB(t *testing.T) (pgEnv, string) {
	t.Helper()
	cfg := readPGEnv()
	dbName := fmt.Sprintf("stride_mig_%d", time.Now().UnixNano())

	sqlDB, err := sql.Open("pgx", maintenanceDSN(cfg, "postgres"))
	if err != nil {
		t.Fatalf("open maintenance db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if _, err := sqlDB.ExecContext(context.Background(), `CREATE DATABASE `+dbName); err != nil {
		t.Fatalf("create ephemeral db: %v", err)
	}

	t.Cleanup(func() {
		_, _ = sqlDB.ExecContext(context.Background(), `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`, dbName)
		_, _ = sqlDB.ExecContext(context.Background(), `DROP DATABASE IF EXISTS `+dbName)
	})

	return cfg, dbName
}

func connectEphemeral(t *testing.T, env pgEnv, dbName string) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		DBHost:       env.host,
		DBPort:       env.port,
		DBUser:       env.user,
		DBPassword:   env.pass,
		DBName:       dbName,
		DBSSLMode:    "disable",
		DBSchemaMode: database.SchemaModeHybrid,
		Env:          "test",
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		t.Fatalf("connect ephemeral db: %v", err)
	}
	return db
}

func TestSchemaAppliesFreshDB(t *testing.T) {
	env, dbName := createEphemeralDB(t)
	db := connectEphemeral(t, env, dbName)

	tables := []string{"users", "posts", "comments", "replies", "bookmarks", "user_relationships", "avatars"}
	for _, table := range tables {
		var exists bool
		if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema='public' AND table_name = ?)`, table).Scan(&exists).Error; err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if !exists {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	for _, idx := range []string{"idx_bookmark_user_post", "idx_relationship_edge"} {
		var exists bool
		if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = ?)`, idx).Scan(&exists).Error; err != nil {
			t.Fatalf("check index %s: %v", idx, err)
		}
		if !exists {
			t.Fatalf("expected unique index %s", idx)
		}
	}

	// All registered migrations are recorded as applied
	status, err := database.GetSchemaStatus(context.Background(), db, &config.Config{
		DBSchemaMode: database.SchemaModeSQL,
		Env:          "test",
	})
	if err != nil {
		t.Fatalf("schema status: %v", err)
	}
	if len(status.PendingMigrations) != 0 {
		t.Fatalf("expected no pending migrations, got %d", len(status.PendingMigrations))
	}
	if len(status.AppliedVersions) == 0 {
		t.Fatal("expected at least one applied migration version")
	}
}

func TestStorageUniquenessConstraints(t *testing.T) {
	env, dbName := createEphemeralDB(t)
	db := connectEphemeral(t, env, dbName)

	user := models.User{Email: "edge@example.com", Password: "x", DisplayName: "Edge"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	other := models.User{Email: "other@example.com", Password: "x", DisplayName: "Other"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create other user: %v", err)
	}
	post := models.Post{Activity: "Run", UserID: user.ID, IsActive: true}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	// Second identical bookmark row must hit the unique index
	if err := db.Create(&models.Bookmark{UserID: user.ID, PostID: post.ID}).Error; err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	if err := db.Create(&models.Bookmark{UserID: user.ID, PostID: post.ID}).Error; err == nil {
		t.Fatal("expected duplicate bookmark insert to fail")
	}

	// Same for the relationship edge
	edge := models.Relationship{UserID: user.ID, RelatedUserID: other.ID, RelationshipType: models.RelationshipFollowing}
	if err := db.Create(&edge).Error; err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	dup := models.Relationship{UserID: user.ID, RelatedUserID: other.ID, RelationshipType: models.RelationshipFollowing}
	if err := db.Create(&dup).Error; err == nil {
		t.Fatal("expected duplicate relationship insert to fail")
	}
}

func TestSeedRepopulatesCleanly(t *testing.T) {
	env, dbName := createEphemeralDB(t)
	db := connectEphemeral(t, env, dbName)

	opts := seed.Options{NumUsers: 8, NumPosts: 20, ShouldClean: true}
	if err := seed.Seed(db, opts); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := seed.Seed(db, opts); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var devCount int64
	if err := db.Model(&models.User{}).Where("email = ?", "dev@example.com").Count(&devCount).Error; err != nil {
		t.Fatalf("count dev user: %v", err)
	}
	if devCount != 1 {
		t.Fatalf("expected exactly one dev user, got %d", devCount)
	}

	var postCount int64
	if err := db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if postCount == 0 {
		t.Fatal("expected seeded posts")
	}
}
