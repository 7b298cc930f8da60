package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"channelapi/internal/model"
	"channelapi/internal/tree"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var channelRowColumns = []string{
	"id", "owner_id", "name", "description", "source_format", "target_format",
	"source_template", "target_template", "mappings", "created_at",
}

func testChannel() *model.Channel {
	desc := "orders to invoices"
	return &model.Channel{
		ID:             "chan-1",
		OwnerID:        "user-1",
		Name:           "orders",
		Description:    &desc,
		SourceFormat:   model.FormatXML,
		TargetFormat:   model.FormatJSON,
		TargetTemplate: tree.MustFromJSON(`{"invoice":{"currency":"EUR","id":null}}`),
		Mappings: []model.FieldMapping{
			{SourcePath: tree.MustParsePath("order.@_id"), TargetPath: tree.MustParsePath("invoice.id")},
			{SourcePath: tree.MustParsePath("order.total"), TargetPath: tree.MustParsePath("invoice.amount")},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestChannelPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChannelPostgres(db)
	ch := testChannel()

	tpl := []byte(`{"invoice":{"currency":"EUR","id":null}}`)
	mappings := []byte(`[{"sourcePath":"order.@_id","targetPath":"invoice.id"},{"sourcePath":"order.total","targetPath":"invoice.amount"}]`)

	rows := sqlmock.NewRows(channelRowColumns).
		AddRow(ch.ID, ch.OwnerID, ch.Name, *ch.Description, "XML", "JSON", nil, tpl, mappings, ch.CreatedAt)

	mock.ExpectQuery("INSERT INTO channels").
		WithArgs(ch.ID, ch.OwnerID, ch.Name, *ch.Description,
			"XML", "JSON", sqlmock.AnyArg(), tpl, mappings, ch.CreatedAt).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), ch)

	require.NoError(t, err)
	assert.Equal(t, ch.ID, got.ID)
	assert.Equal(t, model.FormatXML, got.SourceFormat)
	assert.Nil(t, got.SourceTemplate)
	assert.True(t, got.TargetTemplate.Equal(ch.TargetTemplate))
	require.Len(t, got.Mappings, 2)
	assert.Equal(t, "order.@_id", got.Mappings[0].SourcePath.String())
	assert.Equal(t, "invoice.amount", got.Mappings[1].TargetPath.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChannelPostgres(db)
	ctx := context.Background()

	t.Run("found keeps template key order", func(t *testing.T) {
		rows := sqlmock.NewRows(channelRowColumns).
			AddRow("chan-1", "user-1", "orders", nil, "JSON", "XML",
				[]byte(`{"in":1}`), []byte(`{"z":1,"a":2,"m":3}`), []byte(`[]`), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM channels WHERE id = ?").
			WithArgs("chan-1").
			WillReturnRows(rows)

		ch, err := repo.FindByID(ctx, "chan-1")

		require.NoError(t, err)
		assert.Nil(t, ch.Description)
		assert.Equal(t, []string{"z", "a", "m"}, ch.TargetTemplate.Mapping().Keys())
		assert.NotNil(t, ch.SourceTemplate)
		assert.Empty(t, ch.Mappings)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM channels WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		ch, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, ch)
	})

	t.Run("corrupt mappings", func(t *testing.T) {
		rows := sqlmock.NewRows(channelRowColumns).
			AddRow("chan-2", "user-1", "bad", nil, "JSON", "JSON",
				nil, []byte(`{}`), []byte(`[{"sourcePath":"a..b","targetPath":"x"}]`), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM channels WHERE id = ?").
			WithArgs("chan-2").
			WillReturnRows(rows)

		ch, err := repo.FindByID(ctx, "chan-2")

		assert.ErrorIs(t, err, tree.ErrInvalidPath)
		assert.Nil(t, ch)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelPostgres_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChannelPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(channelRowColumns).
			AddRow("chan-2", "user-1", "second", nil, "JSON", "JSON", nil, []byte(`{}`), []byte(`[]`), time.Now()).
			AddRow("chan-1", "user-1", "first", "d", "XML", "JSON", nil, []byte(`{}`), []byte(`[]`), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM channels WHERE owner_id = (.+) ORDER BY").
			WithArgs("user-1").
			WillReturnRows(rows)

		items, err := repo.ListByOwner(ctx, "user-1")

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "chan-2", items[0].ID)
		require.NotNil(t, items[1].Description)
		assert.Equal(t, "d", *items[1].Description)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM channels WHERE owner_id").
			WithArgs("user-1").
			WillReturnError(errors.New("db down"))

		items, err := repo.ListByOwner(ctx, "user-1")

		assert.Error(t, err)
		assert.Nil(t, items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewChannelPostgres(db)

	mock.ExpectExec("DELETE FROM channels WHERE id = ?").
		WithArgs("chan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(context.Background(), "chan-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
