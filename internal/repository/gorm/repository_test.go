package gormrepository

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"imagetagger/internal/models"
)

// sqlCapture records the statements gorm builds in dry-run mode so clause
// construction can be asserted without a live database.
type sqlCapture struct {
	sql  []string
	vars [][]any
}

func newDryRunStore(t *testing.T) (*Store, *sqlCapture) {
	t.Helper()
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=scan dbname=scan",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	capture := &sqlCapture{}
	record := func(tx *gorm.DB) {
		capture.sql = append(capture.sql, tx.Statement.SQL.String())
		capture.vars = append(capture.vars, tx.Statement.Vars)
	}
	if err := gdb.Callback().Create().After("gorm:create").Register("capture_sql", record); err != nil {
		t.Fatalf("register create callback: %v", err)
	}
	if err := gdb.Callback().Update().After("gorm:update").Register("capture_sql", record); err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	return New(gdb), capture
}

func (c *sqlCapture) single(t *testing.T) (string, []any) {
	t.Helper()
	if len(c.sql) != 1 {
		t.Fatalf("captured %d statements, want 1", len(c.sql))
	}
	return c.sql[0], c.vars[0]
}

func TestFinalizeImageScan_DerivesUnsafeFromModerationTags(t *testing.T) {
	store, capture := newDryRunStore(t)

	if _, err := store.FinalizeImageScan(context.Background(), 42, time.Now().UTC()); err != nil {
		t.Fatalf("err = %v", err)
	}
	sql, vars := capture.single(t)
	for _, want := range []string{
		`UPDATE "images"`,
		`"scanned_at"`,
		`"unsafe"=EXISTS(SELECT 1 FROM image_tags it JOIN tags t ON t.id = it.tag_id`,
		"it.automated",
		"t.type =",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql %q missing %q", sql, want)
		}
	}
	foundType := false
	foundID := false
	for _, v := range vars {
		if v == models.TagTypeModeration {
			foundType = true
		}
		if v == int64(42) {
			foundID = true
		}
	}
	if !foundType {
		t.Fatalf("vars %v missing moderation tag type", vars)
	}
	if !foundID {
		t.Fatalf("vars %v missing image id", vars)
	}
}

func TestUpsertImageTags_ConflictOverwritesConfidenceOnly(t *testing.T) {
	store, capture := newDryRunStore(t)

	err := store.UpsertImageTags(context.Background(), []models.ImageTag{
		{ImageID: 42, TagID: 7, Confidence: 0.9, Automated: true},
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	sql, _ := capture.single(t)
	for _, want := range []string{
		`INSERT INTO "image_tags"`,
		`ON CONFLICT ("image_id","tag_id") DO UPDATE SET`,
		`"confidence"="excluded"."confidence"`,
		`"updated_at"="excluded"."updated_at"`,
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql %q missing %q", sql, want)
		}
	}
	if strings.Contains(sql, `"automated"="excluded"`) {
		t.Fatalf("sql %q overwrites automated flag on conflict", sql)
	}
}

func TestCreateTags_IgnoresDuplicateNames(t *testing.T) {
	store, capture := newDryRunStore(t)

	err := store.CreateTags(context.Background(), []models.Tag{
		{Name: "cat", Type: models.TagTypeLabel, Target: models.AllTargets()},
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	sql, _ := capture.single(t)
	for _, want := range []string{
		`INSERT INTO "tags"`,
		`ON CONFLICT ("name") DO NOTHING`,
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql %q missing %q", sql, want)
		}
	}
}
