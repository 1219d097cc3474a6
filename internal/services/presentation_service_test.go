package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivgeniay/jointpresentation/internal/models"
	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

func TestPresentationServiceCreateAddsFirstSlide(t *testing.T) {
	svc := newTestServices(t)
	creator := svc.mustUser(t, "creator")

	presentation := svc.mustPresentation(t, "Demo", creator)
	require.Equal(t, "Demo", presentation.Title)
	require.Equal(t, creator.ID, presentation.CreatorID)
	require.NotNil(t, presentation.Creator)
	require.Equal(t, "creator", presentation.Creator.Nickname)
	require.Len(t, presentation.Slides, 1)
	require.Equal(t, 1, presentation.Slides[0].Order)
}

func TestPresentationServiceCreateValidatesTitle(t *testing.T) {
	svc := newTestServices(t)
	creator := svc.mustUser(t, "creator")
	ctx := context.Background()

	_, err := svc.presentations.Create(ctx, "", creator.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))

	_, err = svc.presentations.Create(ctx, strings.Repeat("t", 251), creator.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))
	require.Contains(t, err.Error(), "title cannot exceed 250 characters")

	_, err = svc.presentations.Create(ctx, "Deck", "ghost")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestPresentationServiceEditorLifecycle(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	creator := svc.mustUser(t, "creator")
	guest := svc.mustUser(t, "guest")
	presentation := svc.mustPresentation(t, "Demo", creator)

	canEdit, err := svc.presentations.CanEdit(ctx, presentation.ID, creator.ID)
	require.NoError(t, err)
	require.True(t, canEdit)

	canEdit, err = svc.presentations.CanEdit(ctx, presentation.ID, guest.ID)
	require.NoError(t, err)
	require.False(t, canEdit)

	require.NoError(t, svc.presentations.AddEditor(ctx, presentation.ID, guest.ID))
	err = svc.presentations.AddEditor(ctx, presentation.ID, guest.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	editors, err := svc.presentations.ListEditors(ctx, presentation.ID)
	require.NoError(t, err)
	require.Len(t, editors, 1)
	require.Equal(t, guest.ID, editors[0].ID)

	editable, err := svc.presentations.ListEditableBy(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, editable, 1)

	require.NoError(t, svc.presentations.RemoveEditor(ctx, presentation.ID, guest.ID))
	require.NoError(t, svc.presentations.RemoveEditor(ctx, presentation.ID, guest.ID))

	isEditor, err := svc.presentations.IsEditor(ctx, presentation.ID, guest.ID)
	require.NoError(t, err)
	require.False(t, isEditor)
}

func TestPresentationServiceAddEditorUnknownUser(t *testing.T) {
	svc := newTestServices(t)
	creator := svc.mustUser(t, "creator")
	presentation := svc.mustPresentation(t, "Demo", creator)

	err := svc.presentations.AddEditor(context.Background(), presentation.ID, "ghost")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestPresentationServiceDeleteRemovesChildren(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	creator := svc.mustUser(t, "creator")
	guest := svc.mustUser(t, "guest")
	presentation := svc.mustPresentation(t, "Demo", creator)

	require.NoError(t, svc.presentations.AddEditor(ctx, presentation.ID, guest.ID))
	_, err := svc.slides.AddElement(ctx, presentation.Slides[0].ID, creator.ID, `{"type":"rect"}`)
	require.NoError(t, err)

	require.NoError(t, svc.presentations.Delete(ctx, presentation.ID))

	_, err = svc.presentations.Get(ctx, presentation.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	for _, model := range []any{&models.Slide{}, &models.SlideElement{}, &models.PresentationEditor{}} {
		var count int64
		require.NoError(t, svc.db.Model(model).Count(&count).Error)
		require.Zero(t, count, "%T rows should be removed", model)
	}

	err = svc.presentations.Delete(ctx, presentation.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestPresentationServiceList(t *testing.T) {
	svc := newTestServices(t)
	creator := svc.mustUser(t, "creator")
	svc.mustPresentation(t, "One", creator)
	svc.mustPresentation(t, "Two", creator)

	presentations, err := svc.presentations.List(context.Background())
	require.NoError(t, err)
	require.Len(t, presentations, 2)
	for _, p := range presentations {
		require.NotNil(t, p.Creator)
		require.Len(t, p.Slides, 1)
	}
}

func TestPresentationServiceFindSkipsRelations(t *testing.T) {
	svc := newTestServices(t)
	creator := svc.mustUser(t, "creator")
	presentation := svc.mustPresentation(t, "Demo", creator)

	found, err := svc.presentations.Find(context.Background(), presentation.ID)
	require.NoError(t, err)
	require.Equal(t, creator.ID, found.CreatorID)
	require.True(t, found.IsCreator(creator.ID))
	require.Nil(t, found.Creator)
	require.Empty(t, found.Slides)

	_, err = svc.presentations.Find(context.Background(), "missing")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
