package services

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"spotmap/config"
	"spotmap/models"
	"spotmap/storage"
)

// openTestDB opens a named in-memory SQLite database and migrates the full
// schema. The name keeps parallel tests from sharing state.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = gdb.AutoMigrate(&models.User{}, &models.Marker{}, &models.MarkerImage{}, &models.MarkerRating{})
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func newTestMarkerService(t *testing.T) (*MarkerService, *storage.DiskStore, *gorm.DB) {
	t.Helper()
	gdb := openTestDB(t, t.Name())
	store := storage.NewDiskStore(config.UploadConfig{
		Root: t.TempDir(),
		Dirs: []string{"images", "markers"},
	}, zerolog.Nop())
	return NewMarkerService(gdb, store, zerolog.Nop()), store, gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		ID:    uuid.NewString(),
		Email: name + "@example.com",
		Name:  name,
	}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func createTestMarker(t *testing.T, svc *MarkerService, ownerID string) *models.MarkerView {
	t.Helper()
	view, err := svc.CreateMarker(models.MarkerCreateRequest{
		Name:     "Skate spot",
		Position: models.Coordinates{Lat: 59.437, Lng: 24.7536},
		Type:     "skatepark",
	}, ownerID)
	require.NoError(t, err)
	return view
}

// fileStored reports whether the file behind a logical URL is resolvable.
func fileStored(store *storage.DiskStore, url string) bool {
	_, err := store.Resolve(filepath.Base(url))
	return err == nil
}
