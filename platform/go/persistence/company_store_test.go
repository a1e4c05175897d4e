package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sqlassets "github.com/gridline-io/salesgrid/database"
)

const testCatalogSchema = "salesforce"

func mustCatalogStore(t *testing.T) (*CompanyStore, *pgxpool.Pool) {
	t.Helper()

	pool := mustTestPool(t)
	ctx := context.Background()

	require.NoError(t, EnsureSchema(ctx, pool, testCatalogSchema))
	_, err := NewMigrationRunner(pool, zap.NewNop()).Apply(ctx, testCatalogSchema, sqlassets.CatalogMigrations())
	require.NoError(t, err)

	db := NewCompanyDB(CompanyDBConfig{Pool: pool, CatalogSchema: testCatalogSchema})
	return NewCompanyStore(db), pool
}

func insertCompany(t *testing.T, store *CompanyStore, in NewCompany) CompanyRecord {
	t.Helper()

	var rec CompanyRecord
	err := store.DB().WithCatalog(context.Background(), func(tx pgx.Tx) error {
		var err error
		rec, err = store.CreateTx(context.Background(), tx, in)
		return err
	})
	require.NoError(t, err)
	return rec
}

func TestCompanyStoreCreateAndLookups(t *testing.T) {
	store, _ := mustCatalogStore(t)
	ctx := context.Background()

	rec := insertCompany(t, store, NewCompany{
		Name:    "Acme Traders",
		GSTNo:   "GSTNUM000000001",
		CINNo:   "CINNUM000000000000001",
		Address: "12 Market Road",
	})
	require.NotEqual(t, uuid.Nil, rec.ID)
	require.True(t, rec.IsActive)
	require.False(t, rec.CreatedAt.IsZero())

	byID, err := store.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, byID.ID)

	byGST, err := store.GetByGST(ctx, "GSTNUM000000001")
	require.NoError(t, err)
	require.Equal(t, rec.ID, byGST.ID)

	byCIN, err := store.GetByCIN(ctx, "CINNUM000000000000001")
	require.NoError(t, err)
	require.Equal(t, rec.ID, byCIN.ID)

	_, err = store.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompanyStoreDuplicateIdentifiers(t *testing.T) {
	store, _ := mustCatalogStore(t)

	insertCompany(t, store, NewCompany{
		Name:    "First",
		GSTNo:   "GSTNUM000000001",
		CINNo:   "CINNUM000000000000001",
		Address: "addr",
	})

	err := store.DB().WithCatalog(context.Background(), func(tx pgx.Tx) error {
		_, err := store.CreateTx(context.Background(), tx, NewCompany{
			Name:    "Second",
			GSTNo:   "GSTNUM000000001",
			CINNo:   "CINNUM000000000000002",
			Address: "addr",
		})
		return err
	})
	var dup DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "gst_no", dup.Column)

	err = store.DB().WithCatalog(context.Background(), func(tx pgx.Tx) error {
		_, err := store.CreateTx(context.Background(), tx, NewCompany{
			Name:    "Third",
			GSTNo:   "GSTNUM000000003",
			CINNo:   "CINNUM000000000000001",
			Address: "addr",
		})
		return err
	})
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "cin_no", dup.Column)
}

func TestCompanyStoreSoftDeleteKeepsIDLookup(t *testing.T) {
	store, _ := mustCatalogStore(t)
	ctx := context.Background()

	rec := insertCompany(t, store, NewCompany{
		Name:    "Fadeout",
		GSTNo:   "GSTNUM000000009",
		CINNo:   "CINNUM000000000000009",
		Address: "addr",
	})

	deleted, err := store.SoftDelete(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, deleted.IsActive)

	// Business-id lookups filter to active companies, the id lookup does not.
	_, err = store.GetByGST(ctx, rec.GSTNo)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByCIN(ctx, rec.CINNo)
	require.ErrorIs(t, err, ErrNotFound)

	byID, err := store.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, byID.IsActive)

	// Uniqueness stays global: the soft-deleted GST cannot be reused.
	err = store.DB().WithCatalog(ctx, func(tx pgx.Tx) error {
		_, err := store.CreateTx(ctx, tx, NewCompany{
			Name:    "Reuser",
			GSTNo:   rec.GSTNo,
			CINNo:   "CINNUM000000000000010",
			Address: "addr",
		})
		return err
	})
	var dup DuplicateError
	require.ErrorAs(t, err, &dup)
}

func TestCompanyStoreListAndCount(t *testing.T) {
	store, _ := mustCatalogStore(t)
	ctx := context.Background()

	a := insertCompany(t, store, NewCompany{Name: "Alpha", GSTNo: "GSTNUM000000011", CINNo: "CINNUM000000000000011", Address: "a"})
	insertCompany(t, store, NewCompany{Name: "Beta", GSTNo: "GSTNUM000000012", CINNo: "CINNUM000000000000012", Address: "b"})
	insertCompany(t, store, NewCompany{Name: "Gamma", GSTNo: "GSTNUM000000013", CINNo: "CINNUM000000000000013", Address: "c"})

	_, err := store.SoftDelete(ctx, a.ID)
	require.NoError(t, err)

	items, total, err := store.List(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 3)
	require.Equal(t, "Alpha", items[0].Name) // ordered by name

	active := true
	items, total, err = store.List(ctx, &active, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)

	items, total, err = store.List(ctx, nil, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 1)
	require.Equal(t, "Gamma", items[0].Name)
}

func TestCompanyStoreUpdateMutableFieldsOnly(t *testing.T) {
	store, _ := mustCatalogStore(t)
	ctx := context.Background()

	rec := insertCompany(t, store, NewCompany{Name: "Before", GSTNo: "GSTNUM000000021", CINNo: "CINNUM000000000000021", Address: "old"})

	name := "After"
	updated, err := store.Update(ctx, rec.ID, CompanyUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Name)
	require.Equal(t, "old", updated.Address)
	require.Equal(t, rec.GSTNo, updated.GSTNo)
	require.True(t, updated.UpdatedAt.After(rec.UpdatedAt) || updated.UpdatedAt.Equal(rec.UpdatedAt))

	_, err = store.Update(ctx, uuid.New(), CompanyUpdate{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompanyStoreHardDeleteAndSchemaLifecycle(t *testing.T) {
	store, pool := mustCatalogStore(t)
	ctx := context.Background()

	rec := insertCompany(t, store, NewCompany{Name: "Doomed", GSTNo: "GSTNUM000000031", CINNo: "CINNUM000000000000031", Address: "x"})

	schema := "_doomed_schema_"
	err := store.DB().WithCatalog(ctx, func(tx pgx.Tx) error {
		return store.CreateSchemaTx(ctx, tx, schema)
	})
	require.NoError(t, err)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema).Scan(&exists))
	require.True(t, exists)

	require.NoError(t, store.DropSchema(ctx, schema))
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema).Scan(&exists))
	require.False(t, exists)

	require.NoError(t, store.HardDelete(ctx, rec.ID))
	_, err = store.GetByID(ctx, rec.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.HardDelete(ctx, rec.ID), ErrNotFound)
}
