package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/database/testutil"
	"github.com/ivgeniay/jointpresentation/internal/models"
)

type testServices struct {
	db            *gorm.DB
	users         *UserService
	presentations *PresentationService
	slides        *SlideService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	users, err := NewUserService(db, DefaultLimits)
	require.NoError(t, err)
	presentations, err := NewPresentationService(db, DefaultLimits)
	require.NoError(t, err)
	slides, err := NewSlideService(db)
	require.NoError(t, err)

	return testServices{db: db, users: users, presentations: presentations, slides: slides}
}

func (s testServices) mustUser(t *testing.T, nickname string) *models.User {
	t.Helper()
	user, err := s.users.GetOrCreate(context.Background(), nickname)
	require.NoError(t, err)
	return user
}

func (s testServices) mustPresentation(t *testing.T, title string, creator *models.User) *models.Presentation {
	t.Helper()
	presentation, err := s.presentations.Create(context.Background(), title, creator.ID)
	require.NoError(t, err)
	return presentation
}
